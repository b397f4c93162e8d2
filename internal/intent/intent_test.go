package intent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/support-router/internal/llm"
)

type mockProvider struct {
	mu       sync.Mutex
	calls    []llm.CompletionRequest
	response string
	err      error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.response}, nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"ask_refund", AskRefund},
		{" ASK_CANCEL\n", AskCancel},
		{`"greet".`, Greet},
		{"ask_weather", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProtected(t *testing.T) {
	protected := map[Intent]bool{
		AskOrderStatus: true, AskRefund: true, AskShipping: true, AskCancel: true, AskReturn: true,
	}
	for _, in := range All {
		if in.Protected() != protected[in] {
			t.Errorf("%s.Protected() = %v, want %v", in, in.Protected(), protected[in])
		}
	}
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		text    string
		want    Intent
		orderID string
	}{
		{"What is your refund policy?", AskPolicy, ""},
		{"Where is my order 12345?", AskOrderStatus, "12345"},
		{"Cancel order 350", AskCancel, "350"},
		{"I want my money back for 351", AskRefund, "351"},
		{"Can I exchange the mug?", AskReturn, ""},
		{"When will my package arrive?", AskShipping, ""},
		{"track 98765 please", AskOrderStatus, "98765"},
		{"Is the blue one in stock?", AskProductInfo, ""},
		{"hello there", Greet, ""},
		{"this is fine", Unknown, ""},
	}

	c := NewKeywordClassifier()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := c.Classify(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if res.Intent != tt.want {
				t.Errorf("intent = %q, want %q", res.Intent, tt.want)
			}
			ids := res.Values(EntityOrderID)
			if tt.orderID == "" && len(ids) != 0 {
				t.Errorf("expected no order ids, got %v", ids)
			}
			if tt.orderID != "" && (len(ids) != 1 || ids[0] != tt.orderID) {
				t.Errorf("order ids = %v, want [%s]", ids, tt.orderID)
			}
		})
	}
}

func TestExtractOrderReferences(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"track order 99999", []string{"99999"}},
		{"Order #350 please", []string{"350"}},
		{"what about #12345", []string{"12345"}},
		{"order number: 4521 and order id 7788", []string{"4521", "7788"}},
		{"Can I cancel it? I have been a customer since 2019", nil},
		{"I paid 129 dollars, ship to 10115", nil},
	}
	for _, tt := range tests {
		got := ExtractOrderReferences(tt.text)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("ExtractOrderReferences(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestLLMClassifier(t *testing.T) {
	mock := &mockProvider{response: "```json\n{\"intent\": \"ask_order_status\", \"confidence\": 0.93, \"entities\": [{\"type\": \"ORDER_ID\", \"value\": \" 12345 \"}, {\"type\": \"\", \"value\": \"x\"}]}\n```"}
	c := NewLLMClassifier(mock, "gpt-4o-mini")

	res, err := c.Classify(context.Background(), "Where is my order 12345?")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Intent != AskOrderStatus {
		t.Errorf("intent = %q", res.Intent)
	}
	if res.Confidence != 0.93 {
		t.Errorf("confidence = %v", res.Confidence)
	}
	if ids := res.Values(EntityOrderID); len(ids) != 1 || ids[0] != "12345" {
		t.Errorf("order ids = %v", ids)
	}

	req := mock.calls[0]
	if !req.JSONMode || req.Temperature != 0 || req.Model != "gpt-4o-mini" {
		t.Errorf("unexpected request settings: %+v", req)
	}
	if req.Messages[1].Content != "Where is my order 12345?" {
		t.Errorf("user message not forwarded: %q", req.Messages[1].Content)
	}
}

func TestLLMClassifierNormalizesOutput(t *testing.T) {
	mock := &mockProvider{response: `{"intent": "ask_horoscope", "confidence": 7}`}
	res, err := NewLLMClassifier(mock, "m").Classify(context.Background(), "what's my sign")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Intent != Unknown {
		t.Errorf("expected unknown for out-of-set label, got %q", res.Intent)
	}
	if res.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %v", res.Confidence)
	}
}

func TestLLMClassifierErrors(t *testing.T) {
	upstream := errors.New("model overloaded")
	if _, err := NewLLMClassifier(&mockProvider{err: upstream}, "m").Classify(context.Background(), "hi"); !errors.Is(err, upstream) {
		t.Errorf("expected provider error to propagate, got %v", err)
	}

	for _, body := range []string{"I think it's a refund", `{"confidence": 0.5}`} {
		_, err := NewLLMClassifier(&mockProvider{response: body}, "m").Classify(context.Background(), "hi")
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("body %q: expected ErrMalformedResponse, got %v", body, err)
		}
	}
}
