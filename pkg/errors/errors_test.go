package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := E(KindLimitExceeded, "daily cap reached")
	assert.Equal(t, KindLimitExceeded, KindOf(err))

	wrapped := fmt.Errorf("evaluating intent: %w", err)
	assert.Equal(t, KindLimitExceeded, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain failure")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestIsMatchesByKind(t *testing.T) {
	err := Wrap(KindRateUnavailable, fmt.Errorf("connection refused"), "rate lookup failed")
	assert.True(t, Is(err, E(KindRateUnavailable, "")))
	assert.False(t, Is(err, E(KindLimitExceeded, "")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, IsRetryable(E(KindRateUnavailable, "upstream down")))
	assert.True(t, IsRetryable(E(KindValidationTimeout, "screening timed out")))
	assert.False(t, IsRetryable(E(KindLimitExceeded, "cap reached")))
	assert.False(t, IsRetryable(fmt.Errorf("plain failure")))
}

func TestWithDetailCopies(t *testing.T) {
	base := E(KindLimitExceeded, "cap reached").WithDetail("window", "daily")
	derived := base.WithDetail("cap", "50000")

	assert.Equal(t, "daily", derived.Details["window"])
	assert.Equal(t, "50000", derived.Details["cap"])
	assert.NotContains(t, base.Details, "cap", "details must not leak between copies")
}

func TestErrorStringCarriesCause(t *testing.T) {
	err := Wrap(KindRateUnavailable, fmt.Errorf("dial tcp: refused"), "rate lookup failed")
	assert.Contains(t, err.Error(), "RATE_UNAVAILABLE")
	assert.Contains(t, err.Error(), "dial tcp: refused")
	assert.EqualError(t, Unwrap(err), "dial tcp: refused")
}
