// Package audit records identity-verification and session-reset events.
// Entries never carry raw customer identifiers: sessions are referenced by
// a hash and customers by their internal id.
package audit

import (
	"context"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionVerificationStarted   Action = "verification_started"
	ActionVerificationSucceeded Action = "verification_succeeded"
	ActionVerificationFailed    Action = "verification_failed"
	ActionVerificationLocked    Action = "verification_locked"
	ActionSessionReset          Action = "session_reset"
)

// Entry is a single audit trail record.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action"`
	SessionHash string    `json:"session_hash"`
	CustomerID  string    `json:"customer_id,omitempty"`
	Summary     string    `json:"summary"`
	Detail      string    `json:"detail,omitempty"`
}

// Logger is the write side of the audit trail.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}
