package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/support-router/internal/llm"
)

// ErrMalformedResponse is returned when the model's reply is not the
// expected JSON object.
var ErrMalformedResponse = errors.New("malformed classifier response")

// LLMClassifier asks a chat model for the intent and entities in JSON mode.
type LLMClassifier struct {
	provider llm.Provider
	model    string
}

// NewLLMClassifier creates a classifier backed by provider.
func NewLLMClassifier(provider llm.Provider, model string) *LLMClassifier {
	return &LLMClassifier{provider: provider, model: model}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: classifierPrompt},
			{Role: llm.RoleUser, Content: text},
		},
		MaxTokens:   200,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	return parseResult(resp.Content)
}

var classifierPrompt = buildClassifierPrompt()

func buildClassifierPrompt() string {
	var b strings.Builder
	b.WriteString("You classify messages sent to an online store's support chat.\n\n")
	b.WriteString("Pick exactly one intent:\n")
	for _, in := range All {
		fmt.Fprintf(&b, "- %s\n", in)
	}
	b.WriteString(`
Questions about rules in general ("what is your refund policy?") are ask_policy.
Questions about the customer's own order ("where is my refund for order 350?") use the specific intent.

Extract entities of type "order_id" for any order number mentioned.

Respond with JSON only:
{"intent": "<intent>", "confidence": <0..1>, "entities": [{"type": "order_id", "value": "12345"}]}`)
	return b.String()
}

type rawResult struct {
	Intent     string   `json:"intent"`
	Confidence *float64 `json:"confidence"`
	Entities   []Entity `json:"entities"`
}

func parseResult(content string) (*Result, error) {
	// Models sometimes wrap JSON in a markdown fence.
	jsonStr := content
	if idx := strings.Index(jsonStr, "{"); idx >= 0 {
		jsonStr = jsonStr[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Intent == "" {
		return nil, fmt.Errorf("%w: missing intent", ErrMalformedResponse)
	}

	res := &Result{Intent: Parse(raw.Intent), Confidence: 0.9}
	if raw.Confidence != nil {
		res.Confidence = clamp01(*raw.Confidence)
	}
	for _, e := range raw.Entities {
		e.Type = strings.ToLower(strings.TrimSpace(e.Type))
		e.Value = strings.TrimSpace(e.Value)
		if e.Type != "" && e.Value != "" {
			res.Entities = append(res.Entities, e)
		}
	}
	return res, nil
}
