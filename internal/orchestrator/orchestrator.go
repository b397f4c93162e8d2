// Package orchestrator routes each customer message through the identity
// gate, the intent classifier and the matching responder.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ziadkadry99/support-router/internal/audit"
	"github.com/ziadkadry99/support-router/internal/intent"
	"github.com/ziadkadry99/support-router/internal/logger"
	"github.com/ziadkadry99/support-router/internal/orders"
	"github.com/ziadkadry99/support-router/internal/responder"
	"github.com/ziadkadry99/support-router/internal/session"
	"github.com/ziadkadry99/support-router/internal/verify"
)

// Apology is returned whenever a turn fails and the session starts over.
const Apology = "I encountered an error while processing your request. Please try again from the beginning."

// Validation errors returned by Handle. Nothing else is returned as an error.
var (
	ErrMissingUserID  = errors.New("user id is required")
	ErrMessageTooLong = errors.New("message is too long")
)

// Message is one inbound customer message.
type Message struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
	// History optionally replaces the stored transcript for this turn, for
	// clients that keep their own.
	History []session.Turn `json:"history,omitempty"`
}

// Reply is the outcome of one turn. Error carries the failure message when
// the turn was rolled back; the user only ever sees Answer.
type Reply struct {
	Answer  string        `json:"answer"`
	Error   string        `json:"error,omitempty"`
	State   session.State `json:"state"`
	Intent  intent.Intent `json:"intent,omitempty"`
	Sources []string      `json:"sources,omitempty"`
	Order   *orders.Order `json:"order,omitempty"`
}

// Deps are the collaborators an Orchestrator routes between.
type Deps struct {
	Sessions   session.Store
	Classifier intent.Classifier
	Gate       *verify.Gate
	Policy     responder.Responder
	Orders     responder.Responder
	// Identities refreshes a verified session's order ids when they are
	// missing. Optional.
	Identities verify.IdentityStore
}

// Orchestrator handles messages for any number of users concurrently.
// Per-user state lives only in the session store.
type Orchestrator struct {
	Deps

	historyLimit int
	callTimeout  time.Duration
	maxLength    int
	replay       bool
	audit        audit.Logger
	log          *logger.Logger
	pick         func(n int) int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistoryLimit bounds the stored transcript.
func WithHistoryLimit(n int) Option {
	return func(o *Orchestrator) { o.historyLimit = n }
}

// WithCallTimeout bounds each classifier, gate and responder call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

// WithMaxMessageLength rejects longer messages with ErrMessageTooLong.
func WithMaxMessageLength(n int) Option {
	return func(o *Orchestrator) { o.maxLength = n }
}

// WithReplay answers the question that triggered verification as soon as
// verification succeeds.
func WithReplay(enabled bool) Option {
	return func(o *Orchestrator) { o.replay = enabled }
}

// WithAudit records session resets.
func WithAudit(a audit.Logger) Option {
	return func(o *Orchestrator) { o.audit = a }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an Orchestrator. Sessions, Classifier, Gate, Policy and Orders
// are required.
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	switch {
	case deps.Sessions == nil:
		return nil, errors.New("orchestrator: session store is required")
	case deps.Classifier == nil:
		return nil, errors.New("orchestrator: classifier is required")
	case deps.Gate == nil:
		return nil, errors.New("orchestrator: verification gate is required")
	case deps.Policy == nil || deps.Orders == nil:
		return nil, errors.New("orchestrator: policy and order responders are required")
	}

	o := &Orchestrator{
		Deps:         deps,
		historyLimit: session.DefaultHistoryLimit,
		callTimeout:  20 * time.Second,
		maxLength:    1000,
		log:          logger.Nop(),
		pick:         rand.IntN,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Handle processes one message. It returns an error only for invalid input;
// every other failure resets the session and is reported in Reply.Error.
func (o *Orchestrator) Handle(ctx context.Context, msg Message) (*Reply, error) {
	msg.UserID = strings.TrimSpace(msg.UserID)
	if msg.UserID == "" {
		return nil, ErrMissingUserID
	}
	if o.maxLength > 0 && utf8.RuneCountInString(msg.Text) > o.maxLength {
		return nil, ErrMessageTooLong
	}

	s, err := o.Sessions.Get(ctx, msg.UserID)
	if err != nil {
		return o.fail(ctx, session.New(msg.UserID), fmt.Errorf("loading session: %w", err)), nil
	}

	reply, err := o.turn(ctx, s, msg)
	if err != nil {
		return o.fail(ctx, s, err), nil
	}

	if err := o.Sessions.Put(ctx, s); err != nil {
		return o.fail(ctx, s, fmt.Errorf("saving session: %w", err)), nil
	}
	reply.State = s.State
	return reply, nil
}

// turn runs one message against s, mutating it in place.
func (o *Orchestrator) turn(ctx context.Context, s *session.Session, msg Message) (reply *Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("recovered panic while handling message", "session_id", s.ID, "panic", r)
			reply, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	text := strings.TrimSpace(msg.Text)

	if s.State.Awaiting() {
		return o.verificationTurn(ctx, s, text)
	}

	if text == "" {
		return &Reply{Answer: o.greeting(s)}, nil
	}

	res, err := o.classify(ctx, text)
	if err != nil {
		return nil, err
	}

	if res.Intent.Protected() && !s.Verified() {
		if o.replay {
			s.PendingMessage = text
		}
		gctx, cancel := o.withTimeout(ctx)
		defer cancel()
		return &Reply{Answer: o.Gate.Begin(gctx, s), Intent: res.Intent}, nil
	}

	history := o.history(s, msg.History)
	reply, err = o.route(ctx, s, text, res, history)
	if err != nil {
		return nil, err
	}
	s.Append(o.historyLimit,
		session.Turn{Role: session.RoleUser, Text: text},
		session.Turn{Role: session.RoleAssistant, Text: reply.Answer},
	)
	return reply, nil
}

// verificationTurn feeds text to the gate. Credentials are kept out of the
// transcript.
func (o *Orchestrator) verificationTurn(ctx context.Context, s *session.Session, text string) (*Reply, error) {
	gctx, cancel := o.withTimeout(ctx)
	answer, err := o.Gate.Step(gctx, s, text)
	cancel()
	if err != nil {
		return nil, err
	}
	reply := &Reply{Answer: answer}

	if !s.Verified() || s.PendingMessage == "" {
		return reply, nil
	}

	pending := s.PendingMessage
	s.PendingMessage = ""
	res, err := o.classify(ctx, pending)
	if err != nil {
		return nil, err
	}
	replayed, err := o.route(ctx, s, pending, res, s.History)
	if err != nil {
		return nil, err
	}
	s.Append(o.historyLimit,
		session.Turn{Role: session.RoleUser, Text: pending},
		session.Turn{Role: session.RoleAssistant, Text: replayed.Answer},
	)
	replayed.Answer = answer + "\n\n" + replayed.Answer
	return replayed, nil
}

// route sends a classified message to the responder for its intent class.
func (o *Orchestrator) route(ctx context.Context, s *session.Session, text string, res *intent.Result, history []session.Turn) (*Reply, error) {
	req := responder.Request{
		Text:    text,
		Intent:  res.Intent,
		History: history,
	}

	target := o.Policy
	if res.Intent.Protected() {
		if err := o.refreshOrders(ctx, s); err != nil {
			return nil, err
		}
		target = o.Orders
		req.OrderID = resolveOrderID(s, text, res)
		req.KnownOrderIDs = append([]string(nil), s.KnownOrderIDs...)
	}

	resp, err := o.respond(ctx, target, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("responder returned no response")
	}

	o.log.Debug("message routed", "session_id", s.ID, "intent", string(res.Intent), "confidence", res.Confidence, "order", req.OrderID)
	return &Reply{Answer: resp.Answer, Intent: res.Intent, Sources: resp.Sources, Order: resp.Order}, nil
}

// refreshOrders loads the order ids of a verified session that has none.
func (o *Orchestrator) refreshOrders(ctx context.Context, s *session.Session) error {
	if o.Identities == nil || len(s.KnownOrderIDs) > 0 || s.CustomerID == "" {
		return nil
	}
	rctx, cancel := o.withTimeout(ctx)
	defer cancel()
	summaries, err := o.Identities.OrdersFor(rctx, s.CustomerID)
	if err != nil {
		return fmt.Errorf("refreshing orders: %w", err)
	}
	for _, sum := range summaries {
		s.KnownOrderIDs = append(s.KnownOrderIDs, sum.ID)
	}
	return nil
}

// resolveOrderID picks the order a message is about. A known id named in
// the text wins (the last one if several), then a known id the classifier
// extracted, then the previous selection. A message that explicitly refers
// to an order the customer does not own resolves to nothing so the
// responder asks which order is meant; other stray numbers are ignored.
func resolveOrderID(s *session.Session, text string, res *intent.Result) string {
	var chosen string
	for _, id := range intent.ExtractOrderIDs(text) {
		if s.Knows(id) {
			chosen = id
		}
	}
	if chosen == "" {
		for _, id := range res.Values(intent.EntityOrderID) {
			if s.Knows(id) {
				chosen = id
				break
			}
		}
	}
	if chosen != "" {
		s.Select(chosen)
		return chosen
	}
	if len(intent.ExtractOrderReferences(text)) > 0 {
		return ""
	}
	return s.SelectedOrderID
}

func (o *Orchestrator) classify(ctx context.Context, text string) (*intent.Result, error) {
	res, err := bounded(ctx, o.callTimeout, "intent classifier", func(ctx context.Context) (*intent.Result, error) {
		return o.Classifier.Classify(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("intent classifier returned no result")
	}
	return res, nil
}

func (o *Orchestrator) respond(ctx context.Context, r responder.Responder, req responder.Request) (*responder.Response, error) {
	return bounded(ctx, o.callTimeout, "responder", func(ctx context.Context) (*responder.Response, error) {
		return r.Respond(ctx, req)
	})
}

// history returns the transcript handed to responders.
func (o *Orchestrator) history(s *session.Session, supplied []session.Turn) []session.Turn {
	h := s.History
	if len(supplied) > 0 {
		h = supplied
	}
	if over := len(h) - o.historyLimit; o.historyLimit > 0 && over > 0 {
		h = h[over:]
	}
	return append([]session.Turn(nil), h...)
}

// fail resets s after an unrecoverable turn and builds the apology reply.
func (o *Orchestrator) fail(ctx context.Context, s *session.Session, cause error) *Reply {
	o.log.Error("turn failed, resetting session", "session_id", s.ID, "error", cause)

	s.Reset()
	ctx = context.WithoutCancel(ctx)
	if o.audit != nil {
		err := o.audit.Log(ctx, audit.Entry{
			Action:      audit.ActionSessionReset,
			SessionHash: logger.Hash(s.ID),
			Summary:     "turn failed, session reset",
			Detail:      cause.Error(),
		})
		if err != nil {
			o.log.Warn("writing audit entry failed", "session_id", s.ID, "error", err)
		}
	}
	if err := o.Sessions.Put(ctx, s); err != nil {
		o.log.Error("saving reset session failed", "session_id", s.ID, "error", err)
	}

	return &Reply{Answer: Apology, Error: cause.Error(), State: s.State}
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.callTimeout)
}
