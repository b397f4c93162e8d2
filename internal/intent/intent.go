// Package intent classifies a customer message into a closed set of intents.
package intent

import (
	"context"
	"regexp"
	"strings"
)

// Intent is a tag from the closed set below.
type Intent string

const (
	AskPolicy      Intent = "ask_policy"
	AskOrderStatus Intent = "ask_order_status"
	AskRefund      Intent = "ask_refund"
	AskShipping    Intent = "ask_shipping"
	AskReturn      Intent = "ask_return"
	AskCancel      Intent = "ask_cancel"
	AskProductInfo Intent = "ask_product_info"
	Greet          Intent = "greet"
	Unknown        Intent = "unknown"
)

// All lists every intent in the order they are presented to the model.
var All = []Intent{AskReturn, AskRefund, AskShipping, AskOrderStatus, AskPolicy, AskCancel, AskProductInfo, Greet, Unknown}

// Parse maps a raw label onto the closed set. Anything unrecognised is Unknown.
func Parse(s string) Intent {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `"'.`)
	for _, in := range All {
		if string(in) == s {
			return in
		}
	}
	return Unknown
}

// Protected reports whether answering this intent needs verified order data.
func (i Intent) Protected() bool {
	switch i {
	case AskOrderStatus, AskRefund, AskShipping, AskCancel, AskReturn:
		return true
	default:
		return false
	}
}

// EntityOrderID is the entity type carrying an order identifier.
const EntityOrderID = "order_id"

// Entity is a typed value extracted from the message.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Result is the classification of one message. It is never persisted.
type Result struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   []Entity `json:"entities"`
}

// Values returns the values of all entities of the given type, in order.
func (r *Result) Values(typ string) []string {
	var out []string
	for _, e := range r.Entities {
		if e.Type == typ && e.Value != "" {
			out = append(out, e.Value)
		}
	}
	return out
}

// Classifier maps raw text to an intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

var orderIDPattern = regexp.MustCompile(`\b\d{3,}\b`)

// ExtractOrderIDs returns every run of three or more digits in text.
func ExtractOrderIDs(text string) []string {
	return orderIDPattern.FindAllString(text, -1)
}

var orderRefPattern = regexp.MustCompile(`(?i)(?:\border(?:\s+(?:id|no\.?|number))?\s*[:#]?\s*|#\s*)(\d{3,})\b`)

// ExtractOrderReferences returns the numbers text explicitly names as
// orders ("order 350", "order #350", "#350"). Years, amounts and postcodes
// elsewhere in the text are not references.
func ExtractOrderReferences(text string) []string {
	var refs []string
	for _, m := range orderRefPattern.FindAllStringSubmatch(text, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}
