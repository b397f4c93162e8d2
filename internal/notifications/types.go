// Package notifications escalates notable audit events, such as an identity
// lockout, to operator webhooks.
package notifications

import (
	"fmt"
	"time"

	"github.com/ziadkadry99/support-router/internal/audit"
)

// Severity indicates the importance of a notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var severityLevels = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// ParseSeverity validates s. An empty string means critical.
func ParseSeverity(s string) (Severity, error) {
	if s == "" {
		return SeverityCritical, nil
	}
	sev := Severity(s)
	if _, ok := severityLevels[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q (expected info, warning or critical)", s)
	}
	return sev, nil
}

// AtLeast reports whether s meets or exceeds min.
func (s Severity) AtLeast(min Severity) bool {
	return severityLevels[s] >= severityLevels[min]
}

// Notification is the JSON body posted to each webhook.
type Notification struct {
	ID          string       `json:"id"`
	Action      audit.Action `json:"action"`
	Severity    Severity     `json:"severity"`
	Title       string       `json:"title"`
	Message     string       `json:"message"`
	SessionHash string       `json:"session_hash"`
	CustomerID  string       `json:"customer_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// severityFor classifies an audit action.
func severityFor(action audit.Action) Severity {
	switch action {
	case audit.ActionVerificationLocked:
		return SeverityCritical
	case audit.ActionVerificationFailed, audit.ActionSessionReset:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func titleFor(action audit.Action) string {
	switch action {
	case audit.ActionVerificationLocked:
		return "Customer locked out of verification"
	case audit.ActionVerificationFailed:
		return "Identity verification failed"
	case audit.ActionSessionReset:
		return "Conversation reset"
	case audit.ActionVerificationSucceeded:
		return "Customer verified"
	default:
		return "Verification started"
	}
}

// FromEntry builds the notification for an audit entry.
func FromEntry(e audit.Entry) Notification {
	msg := e.Summary
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return Notification{
		ID:          e.ID,
		Action:      e.Action,
		Severity:    severityFor(e.Action),
		Title:       titleFor(e.Action),
		Message:     msg,
		SessionHash: e.SessionHash,
		CustomerID:  e.CustomerID,
		CreatedAt:   e.Timestamp,
	}
}
