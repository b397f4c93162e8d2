package intent

import (
	"context"
	"regexp"
	"strings"
)

// rule maps a pattern to an intent. Rules are evaluated in order and the
// first match wins, so "refund policy" is a policy question rather than a
// refund request.
type rule struct {
	intent  Intent
	pattern *regexp.Regexp
}

func words(ws ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(ws, "|") + `)\b`)
}

var keywordRules = []rule{
	{AskPolicy, words(`polic(?:y|ies)`, `terms`, `warrant(?:y|ies)`, `guarantee`)},
	{AskCancel, words(`cancel\w*`)},
	{AskRefund, words(`refund\w*`, `money back`, `reimburse\w*`)},
	{AskReturn, words(`return\w*`, `exchange\w*`, `send it back`)},
	{AskShipping, words(`ship\w*`, `deliver\w*`, `arriv\w*`, `when will`, `eta`)},
	{AskOrderStatus, words(`status`, `where is`, `where's`, `track\w*`, `order`)},
	{AskProductInfo, words(`products?`, `price`, `cost`, `in stock`, `sizes?`, `availab\w*`)},
	{Greet, words(`hi`, `hello`, `hey`, `good (?:morning|afternoon|evening)`, `howdy`)},
}

// KeywordClassifier is a deterministic classifier driven by keywordRules.
// It runs offline and is used when no language model is configured.
type KeywordClassifier struct{}

// NewKeywordClassifier returns a KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (KeywordClassifier) Classify(_ context.Context, text string) (*Result, error) {
	lower := strings.ToLower(text)
	res := &Result{Intent: Unknown}
	for _, r := range keywordRules {
		if r.pattern.MatchString(lower) {
			res.Intent = r.intent
			res.Confidence = 0.6
			break
		}
	}
	for _, id := range ExtractOrderIDs(text) {
		res.Entities = append(res.Entities, Entity{Type: EntityOrderID, Value: id})
	}
	return res, nil
}
