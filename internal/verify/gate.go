// Package verify implements the identity gate that stands between a
// customer and their order data.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/support-router/internal/audit"
	"github.com/ziadkadry99/support-router/internal/logger"
	"github.com/ziadkadry99/support-router/internal/orders"
	"github.com/ziadkadry99/support-router/internal/session"
)

// Prompts emitted by the gate.
const (
	EmailPrompt      = "I can help with that, but I need to verify your identity first. What's your email address?"
	PhonePrompt      = "Cool, got your email. What's your phone number? 📱"
	EmptyEmailPrompt = "I didn't catch an email address there. I need it to look up your orders, so what's your email address?"
	EmptyPhonePrompt = "I didn't catch a phone number there. I need it together with your email to confirm it's you. What's your phone number? 📱"
	EmailUpdated     = "Got it, I've updated your email. What's your phone number? 📱"
	NoOrders         = "You're verified ✅! It looks like you don't have any orders associated with that email and phone number."
)

// IdentityStore validates credentials and lists a customer's orders.
type IdentityStore interface {
	// Verify returns the customer id matching email and phone, or "" when
	// there is no match.
	Verify(ctx context.Context, email, phone string) (string, error)
	OrdersFor(ctx context.Context, customerID string) ([]orders.Summary, error)
}

// Gate walks a session through initial -> awaiting_email -> awaiting_phone
// -> verified. A phone that does not match the email keeps the session in
// awaiting_phone; after MaxAttempts mismatches the session starts over.
type Gate struct {
	store       IdentityStore
	maxAttempts int
	audit       audit.Logger
	log         *logger.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithMaxAttempts sets how many mismatched phone numbers are tolerated.
func WithMaxAttempts(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithAudit records gate transitions to the given audit trail.
func WithAudit(a audit.Logger) Option {
	return func(g *Gate) { g.audit = a }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *Gate) { g.log = l }
}

// NewGate creates a Gate over store.
func NewGate(store IdentityStore, opts ...Option) *Gate {
	g := &Gate{store: store, maxAttempts: 3, log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Begin starts verification on an unverified session and returns the email
// prompt.
func (g *Gate) Begin(ctx context.Context, s *session.Session) string {
	s.State = session.StateAwaitingEmail
	s.Email, s.Phone, s.CustomerID = "", "", ""
	s.FailedAttempts = 0
	g.record(ctx, s, audit.ActionVerificationStarted, "asked for email", "")
	return EmailPrompt
}

// Step feeds the user's reply to the pending verification question. Errors
// come only from the identity store; mismatches are answered in text.
func (g *Gate) Step(ctx context.Context, s *session.Session, text string) (string, error) {
	input := strings.TrimSpace(text)

	switch s.State {
	case session.StateAwaitingEmail:
		if input == "" {
			return EmptyEmailPrompt, nil
		}
		s.Email = input
		s.State = session.StateAwaitingPhone
		return PhonePrompt, nil

	case session.StateAwaitingPhone:
		if input == "" {
			return EmptyPhonePrompt, nil
		}
		// A second email means the first one was wrong.
		if strings.Contains(input, "@") {
			s.Email = input
			s.FailedAttempts = 0
			return EmailUpdated, nil
		}
		return g.checkIdentity(ctx, s, input)

	default:
		return "", fmt.Errorf("verification step in state %q", s.State)
	}
}

func (g *Gate) checkIdentity(ctx context.Context, s *session.Session, phone string) (string, error) {
	customerID, err := g.store.Verify(ctx, s.Email, phone)
	if err != nil {
		return "", fmt.Errorf("verifying identity: %w", err)
	}

	if customerID == "" {
		s.FailedAttempts++
		if s.FailedAttempts >= g.maxAttempts {
			g.record(ctx, s, audit.ActionVerificationLocked, "too many mismatched attempts", fmt.Sprintf("attempts=%d", s.FailedAttempts))
			s.Reset()
			return fmt.Sprintf("Sorry, I still couldn't match that phone number to your email after %d tries 😕. "+
				"Let's start over: ask your question again and I'll walk you through verification.", g.maxAttempts), nil
		}
		g.record(ctx, s, audit.ActionVerificationFailed, "phone did not match email", fmt.Sprintf("attempts=%d", s.FailedAttempts))
		return fmt.Sprintf("Hmm, that phone number doesn't match the email %s 🤔. I need both to match before I can share order details. "+
			"Try your phone number again, or send a different email.", s.Email), nil
	}

	summaries, err := g.store.OrdersFor(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("listing orders: %w", err)
	}

	s.Phone = phone
	s.CustomerID = customerID
	s.State = session.StateVerified
	s.FailedAttempts = 0
	s.SelectedOrderID = ""
	s.KnownOrderIDs = s.KnownOrderIDs[:0]
	for _, o := range summaries {
		s.KnownOrderIDs = append(s.KnownOrderIDs, o.ID)
	}
	if len(summaries) == 1 {
		s.SelectedOrderID = summaries[0].ID
	}
	g.record(ctx, s, audit.ActionVerificationSucceeded, "identity verified", fmt.Sprintf("orders=%d", len(summaries)))

	return OrderList(summaries), nil
}

// OrderList renders the post-verification summary.
func OrderList(summaries []orders.Summary) string {
	if len(summaries) == 0 {
		return NoOrders
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You're verified ✅! You've got %d order(s):\n", len(summaries))
	for _, o := range summaries {
		fmt.Fprintf(&b, "• %s - %s\n", o.ID, o.Status)
	}
	b.WriteString("Which one ya wanna chat about?")
	return b.String()
}

func (g *Gate) record(ctx context.Context, s *session.Session, action audit.Action, summary, detail string) {
	if g.audit == nil {
		return
	}
	err := g.audit.Log(ctx, audit.Entry{
		Action:      action,
		SessionHash: logger.Hash(s.ID),
		CustomerID:  s.CustomerID,
		Summary:     summary,
		Detail:      detail,
	})
	if err != nil {
		g.log.Warn("writing audit entry failed", "action", string(action), "session_id", s.ID, "error", err)
	}
}
