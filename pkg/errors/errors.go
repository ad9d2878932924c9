// Package errors provides the typed error taxonomy shared by every
// compliance component. Business-rule failures are values of *Error with a
// closed Kind; only programming-contract violations are plain errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard error functions
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Kind identifies a business-rule failure class. Kinds are stable reason
// codes: callers map them to user-facing messages and decide whether a retry
// makes sense.
type Kind string

const (
	KindUnsupportedCurrency  Kind = "UNSUPPORTED_CURRENCY"
	KindRateUnavailable      Kind = "RATE_UNAVAILABLE"
	KindMissingDocuments     Kind = "MISSING_DOCUMENTS"
	KindDocumentExpired      Kind = "DOCUMENT_EXPIRED"
	KindKycNotApproved       Kind = "KYC_NOT_APPROVED"
	KindAmlBlocked           Kind = "AML_BLOCKED"
	KindLimitExceeded        Kind = "LIMIT_EXCEEDED"
	KindTierRestricted       Kind = "TIER_RESTRICTED"
	KindInvalidPriceOrdering Kind = "INVALID_PRICE_ORDERING"
	KindLeverageExceeded     Kind = "LEVERAGE_EXCEEDED"
	KindValidationTimeout    Kind = "VALIDATION_TIMEOUT"
	KindInvalidState         Kind = "INVALID_STATE"
)

// retryableKinds are failures a caller should retry rather than surface as a
// permanent rejection.
var retryableKinds = map[Kind]bool{
	KindRateUnavailable:   true,
	KindValidationTimeout: true,
}

// Error carries a failure kind, a human-readable message and optional
// structured details (window name, caps, remaining capacity).
type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`

	cause error
}

var _ error = (*Error)(nil)

// E builds a new Error of the given kind.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a new Error of the given kind with an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.cause != nil {
		s += fmt.Sprintf(" (%s)", e.cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// WithDetail returns a copy of the error with one detail field appended.
func (e *Error) WithDetail(key, value string) *Error {
	err := *e
	err.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		err.Details[k] = v
	}
	err.Details[key] = value
	return &err
}

// Retryable reports whether the failure is transient. Rate lookups and
// screening timeouts fail closed but may succeed on a later attempt.
func (e *Error) Retryable() bool {
	return retryableKinds[e.Kind]
}

// Is matches errors by kind so tests and callers can use errors.Is with a
// bare E(kind, "") sentinel.
func (e *Error) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if other, ok := target.(*Error); ok {
		return other.Kind == e.Kind
	}
	if e.cause != nil {
		return Is(e.cause, target)
	}
	return false
}

// KindOf extracts the Kind from err, or "" when err is not a taxonomy error.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is a retryable taxonomy error.
func IsRetryable(err error) bool {
	var e *Error
	return As(err, &e) && e.Retryable()
}
