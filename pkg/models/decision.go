package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceDecision is the terminal, immutable result of one gate
// evaluation. It is constructed once and never mutated.
type ComplianceDecision struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Allowed     bool              `json:"allowed"`
	ReasonCode  string            `json:"reason_code,omitempty"`
	Message     string            `json:"message,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	Retryable   bool              `json:"retryable,omitempty"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}

// Allow builds a passing decision.
func Allow(userID uuid.UUID) *ComplianceDecision {
	return &ComplianceDecision{
		ID:          uuid.New(),
		UserID:      userID,
		Allowed:     true,
		EvaluatedAt: time.Now().UTC(),
	}
}

// Deny builds a rejecting decision with a stable reason code.
func Deny(userID uuid.UUID, reason, message string, details map[string]string, retryable bool) *ComplianceDecision {
	return &ComplianceDecision{
		ID:          uuid.New(),
		UserID:      userID,
		Allowed:     false,
		ReasonCode:  reason,
		Message:     message,
		Details:     details,
		Retryable:   retryable,
		EvaluatedAt: time.Now().UTC(),
	}
}
