// Package session holds per-user conversational state and the stores that
// keep it between turns.
package session

import (
	"slices"
	"time"
)

// State is the position of a session in the verification flow.
type State string

const (
	StateInitial       State = "initial"
	StateAwaitingEmail State = "awaiting_email"
	StateAwaitingPhone State = "awaiting_phone"
	StateVerified      State = "verified"
)

// Awaiting reports whether the session is part-way through verification.
func (s State) Awaiting() bool {
	return s == StateAwaitingEmail || s == StateAwaitingPhone
}

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// DefaultHistoryLimit is the number of turns kept when no limit is configured.
const DefaultHistoryLimit = 12

// Session is the state carried across turns for one user.
type Session struct {
	ID    string `json:"id"`
	State State  `json:"state"`

	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	// FailedAttempts counts consecutive identity mismatches in awaiting_phone.
	FailedAttempts int `json:"failed_attempts,omitempty"`

	KnownOrderIDs   []string `json:"known_order_ids,omitempty"`
	SelectedOrderID string   `json:"selected_order_id,omitempty"`

	History []Turn `json:"history,omitempty"`
	Greeted bool   `json:"greeted,omitempty"`
	// PendingMessage is the protected question that opened the verification
	// flow, kept only when post-verification replay is enabled.
	PendingMessage string `json:"pending_message,omitempty"`

	ExpiresAt time.Time `json:"expires_at"`
}

// New returns a fresh session in the initial state.
func New(id string) *Session {
	return &Session{ID: id, State: StateInitial}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.KnownOrderIDs = slices.Clone(s.KnownOrderIDs)
	c.History = slices.Clone(s.History)
	return &c
}

// Expired reports whether the session's TTL has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Verified reports whether the session passed identity verification.
func (s *Session) Verified() bool {
	return s.State == StateVerified
}

// Append adds turns to the history, evicting the oldest beyond limit.
func (s *Session) Append(limit int, turns ...Turn) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.History = append(s.History, turns...)
	if over := len(s.History) - limit; over > 0 {
		s.History = slices.Clone(s.History[over:])
	}
}

// Knows reports whether orderID belongs to the verified identity.
func (s *Session) Knows(orderID string) bool {
	return orderID != "" && slices.Contains(s.KnownOrderIDs, orderID)
}

// Select makes orderID the order under discussion. It refuses ids that are
// not in KnownOrderIDs and reports whether orderID was accepted.
func (s *Session) Select(orderID string) bool {
	if !s.Knows(orderID) {
		return false
	}
	s.SelectedOrderID = orderID
	return true
}

// Reset returns the session to the initial state, dropping identity,
// order context and history. The id and greeting flag survive.
func (s *Session) Reset() {
	*s = Session{ID: s.ID, State: StateInitial, Greeted: s.Greeted, ExpiresAt: s.ExpiresAt}
}
