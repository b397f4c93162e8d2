package bots

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/support-router/internal/orchestrator"
)

// mockHandler implements MessageHandler for testing.
type mockHandler struct {
	calls    int
	lastMsg  IncomingMessage
	response *OutgoingMessage
	err      error
}

func (m *mockHandler) HandleMessage(_ context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	m.calls++
	m.lastMsg = msg
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &OutgoingMessage{
		ChannelID: msg.ChannelID,
		ThreadID:  msg.ThreadID,
		Text:      "mock response",
	}, nil
}

// mockRouter implements Router for testing.
type mockRouter struct {
	lastMsg orchestrator.Message
	reply   *orchestrator.Reply
	err     error
}

func (m *mockRouter) Handle(_ context.Context, msg orchestrator.Message) (*orchestrator.Reply, error) {
	m.lastMsg = msg
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

// --- Processor tests ---

func TestProcessorKeysSessionByPlatformUser(t *testing.T) {
	router := &mockRouter{reply: &orchestrator.Reply{Answer: "Hi there 👋"}}
	p := NewProcessor(router)

	resp, err := p.HandleMessage(context.Background(), IncomingMessage{
		Platform:  PlatformSlack,
		ChannelID: "C123",
		UserID:    "U456",
		Text:      "hello",
		ThreadID:  "1700000000.000100",
	})
	if err != nil {
		t.Fatal(err)
	}
	if router.lastMsg.UserID != "slack:U456" {
		t.Errorf("got user id %q, want %q", router.lastMsg.UserID, "slack:U456")
	}
	if router.lastMsg.Text != "hello" {
		t.Errorf("got text %q, want %q", router.lastMsg.Text, "hello")
	}
	if resp.Text != "Hi there 👋" {
		t.Errorf("got answer %q", resp.Text)
	}
	if resp.ChannelID != "C123" || resp.ThreadID != "1700000000.000100" {
		t.Errorf("reply not addressed to source: %+v", resp)
	}
}

func TestProcessorTooLong(t *testing.T) {
	router := &mockRouter{err: orchestrator.ErrMessageTooLong}
	p := NewProcessor(router)

	resp, err := p.HandleMessage(context.Background(), IncomingMessage{
		Platform: PlatformTeams, UserID: "u1", Text: strings.Repeat("a", 2000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resp.Text, "shorten") {
		t.Errorf("expected shorten hint, got %q", resp.Text)
	}
}

func TestProcessorMissingUser(t *testing.T) {
	router := &mockRouter{err: orchestrator.ErrMissingUserID}
	p := NewProcessor(router)

	_, err := p.HandleMessage(context.Background(), IncomingMessage{Platform: PlatformSlack, Text: "hi"})
	if err == nil {
		t.Fatal("expected error for message without user")
	}
	if router.lastMsg.UserID != "" {
		t.Errorf("got user id %q, want empty", router.lastMsg.UserID)
	}
}

func TestProcessorRouterError(t *testing.T) {
	p := NewProcessor(&mockRouter{err: errors.New("boom")})
	if _, err := p.HandleMessage(context.Background(), IncomingMessage{Platform: PlatformSlack, UserID: "U1"}); err == nil {
		t.Fatal("expected router error to propagate")
	}
}

func TestSessionKey(t *testing.T) {
	tests := []struct {
		platform Platform
		user     string
		want     string
	}{
		{PlatformSlack, "U1", "slack:U1"},
		{PlatformTeams, "29:abc", "teams:29:abc"},
		{PlatformSlack, "", ""},
	}
	for _, tt := range tests {
		if got := SessionKey(tt.platform, tt.user); got != tt.want {
			t.Errorf("SessionKey(%s, %q) = %q, want %q", tt.platform, tt.user, got, tt.want)
		}
	}
}

// --- Gateway tests ---

func TestGatewayDropsDuplicateDelivery(t *testing.T) {
	handler := &mockHandler{}
	gw := NewGateway(handler)
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	gw.now = func() time.Time { return now }

	msg := IncomingMessage{Platform: PlatformSlack, UserID: "U1", Text: "hi", EventID: "Ev1"}
	first, err := gw.Process(context.Background(), msg)
	if err != nil || first == nil {
		t.Fatalf("first delivery: resp=%v err=%v", first, err)
	}
	second, err := gw.Process(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Errorf("expected duplicate to be dropped, got %+v", second)
	}
	if handler.calls != 1 {
		t.Errorf("got %d handler calls, want 1", handler.calls)
	}

	// Same id on a different platform is a different event.
	msg.Platform = PlatformTeams
	if resp, _ := gw.Process(context.Background(), msg); resp == nil {
		t.Error("expected teams event with same id to be processed")
	}

	// After the window the id is forgotten.
	now = now.Add(dedupeWindow + time.Second)
	msg.Platform = PlatformSlack
	if resp, _ := gw.Process(context.Background(), msg); resp == nil {
		t.Error("expected redelivery after window to be processed")
	}
}

func TestGatewayWithoutEventID(t *testing.T) {
	handler := &mockHandler{}
	gw := NewGateway(handler)
	msg := IncomingMessage{Platform: PlatformTeams, UserID: "U1", Text: "hi"}
	gw.Process(context.Background(), msg)
	gw.Process(context.Background(), msg)
	if handler.calls != 2 {
		t.Errorf("got %d handler calls, want 2", handler.calls)
	}
}

// --- Slack tests ---

func TestSlackURLVerification(t *testing.T) {
	h := NewSlackHandler(NewGateway(&mockHandler{}), "")
	body := `{"type":"url_verification","challenge":"test-challenge-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bots/slack/events", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleEvent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["challenge"] != "test-challenge-123" {
		t.Errorf("got challenge %q, want %q", resp["challenge"], "test-challenge-123")
	}
}

func TestSlackEventCallback(t *testing.T) {
	handler := &mockHandler{response: &OutgoingMessage{
		ChannelID: "C123",
		Text:      "Order #12345:\n- Status: shipped\n- Total: $40.00",
		ThreadID:  "1234.5678",
	}}
	h := NewSlackHandler(NewGateway(handler), "")

	body := `{"type":"event_callback","event_id":"Ev1","event":{"type":"message","user":"U456","text":"where is my order","channel":"C123","ts":"1234.5678"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/bots/slack/events", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleEvent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if handler.lastMsg.Platform != PlatformSlack || handler.lastMsg.UserID != "U456" {
		t.Errorf("unexpected message: %+v", handler.lastMsg)
	}
	if handler.lastMsg.EventID != "Ev1" {
		t.Errorf("got event id %q, want Ev1", handler.lastMsg.EventID)
	}

	var resp slackResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Text, "• Status: shipped") {
		t.Errorf("expected bullets in slack text, got %q", resp.Text)
	}
	if resp.ThreadTS != "1234.5678" {
		t.Errorf("got thread %q, want 1234.5678", resp.ThreadTS)
	}
}

func TestSlackSkipsBotMessages(t *testing.T) {
	handler := &mockHandler{}
	h := NewSlackHandler(NewGateway(handler), "")

	body := `{"type":"event_callback","event":{"type":"message","bot_id":"B123","text":"bot message","channel":"C123"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/bots/slack/events", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleEvent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if handler.calls != 0 {
		t.Error("bot messages should not reach the handler")
	}
}

func TestSlackHandlerError(t *testing.T) {
	h := NewSlackHandler(NewGateway(&mockHandler{err: fmt.Errorf("boom")}), "")
	body := `{"type":"event_callback","event":{"type":"message","user":"U1","text":"hi","channel":"C1","ts":"1.2"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/bots/slack/events", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleEvent(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", w.Code)
	}
}

func TestSlackInvalidJSON(t *testing.T) {
	h := NewSlackHandler(NewGateway(&mockHandler{}), "")
	req := httptest.NewRequest(http.MethodPost, "/api/bots/slack/events", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.HandleEvent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", w.Code)
	}
}

func signSlack(secret, ts, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestSlackSignature(t *testing.T) {
	const secret = "shh"
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	body := `{"type":"url_verification","challenge":"c"}`
	fresh := strconv.FormatInt(now.Unix(), 10)
	stale := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)

	tests := []struct {
		name string
		ts   string
		sig  string
		want int
	}{
		{"valid", fresh, signSlack(secret, fresh, body), http.StatusOK},
		{"wrong secret", fresh, signSlack("other", fresh, body), http.StatusUnauthorized},
		{"stale timestamp", stale, signSlack(secret, stale, body), http.StatusUnauthorized},
		{"missing headers", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSlackHandler(NewGateway(&mockHandler{}), secret)
			h.now = func() time.Time { return now }

			req := httptest.NewRequest(http.MethodPost, "/api/bots/slack/events", strings.NewReader(body))
			if tt.ts != "" {
				req.Header.Set("X-Slack-Request-Timestamp", tt.ts)
				req.Header.Set("X-Slack-Signature", tt.sig)
			}
			w := httptest.NewRecorder()

			h.HandleEvent(w, req)

			if w.Code != tt.want {
				t.Errorf("got status %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestFormatSlackMessage(t *testing.T) {
	got := formatSlackMessage(&OutgoingMessage{ChannelID: "C1", Text: "Items:\n- Mug\n- Lamp"})
	if got.Text != "Items:\n• Mug\n• Lamp" {
		t.Errorf("got %q", got.Text)
	}
	single := formatSlackMessage(&OutgoingMessage{Text: "- just one line"})
	if single.Text != "- just one line" {
		t.Errorf("single line should be untouched, got %q", single.Text)
	}
}

// --- Teams tests ---

func TestTeamsMessageActivity(t *testing.T) {
	handler := &mockHandler{}
	h := NewTeamsHandler(NewGateway(handler))

	body := `{"type":"message","id":"act1","text":"refund status","from":{"id":"29:user","name":"Ana"},"conversation":{"id":"conv1"},"replyToId":"r1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bots/teams/activity", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleActivity(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if handler.lastMsg.Platform != PlatformTeams || handler.lastMsg.UserID != "29:user" {
		t.Errorf("unexpected message: %+v", handler.lastMsg)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["type"] != "message" || resp["text"] != "mock response" || resp["replyToId"] != "r1" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestTeamsNonMessageActivity(t *testing.T) {
	handler := &mockHandler{}
	h := NewTeamsHandler(NewGateway(handler))

	req := httptest.NewRequest(http.MethodPost, "/api/bots/teams/activity", strings.NewReader(`{"type":"conversationUpdate"}`))
	w := httptest.NewRecorder()

	h.HandleActivity(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("got status %d, want 200", w.Code)
	}
	if handler.calls != 0 {
		t.Error("non-message activities should not reach the handler")
	}
}
