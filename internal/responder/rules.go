package responder

import (
	"regexp"
	"strings"

	"github.com/ziadkadry99/support-router/internal/intent"
)

// Action is the order sub-question a message asks.
type Action string

const (
	ActionCancel   Action = "cancel"
	ActionRefund   Action = "refund"
	ActionReturn   Action = "return"
	ActionShipping Action = "shipping"
	ActionStatus   Action = "status"
	ActionDetails  Action = "details"
	ActionSummary  Action = "summary"
)

type actionRule struct {
	action  Action
	pattern *regexp.Regexp
}

func phrases(ps ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(ps, "|") + `)\b`)
}

// actionRules are checked in order; the first match wins.
var actionRules = []actionRule{
	{ActionCancel, phrases(`cancel\w*`)},
	{ActionRefund, phrases(`refund\w*`, `money back`)},
	{ActionReturn, phrases(`return\w*`, `exchange\w*`)},
	{ActionShipping, phrases(`ship\w*`, `deliver\w*`, `when will`, `arriv\w*`)},
	{ActionStatus, phrases(`status`, `where is`, `where's`, `track\w*`)},
	{ActionDetails, phrases(`price`, `amount`, `total`, `items?`, `cost`)},
}

var intentActions = map[intent.Intent]Action{
	intent.AskCancel:      ActionCancel,
	intent.AskRefund:      ActionRefund,
	intent.AskReturn:      ActionReturn,
	intent.AskShipping:    ActionShipping,
	intent.AskOrderStatus: ActionStatus,
}

// SelectAction picks the sub-question from the message wording, then from
// the classified intent, and falls back to a plain order summary.
func SelectAction(text string, in intent.Intent) Action {
	lower := strings.ToLower(text)
	for _, r := range actionRules {
		if r.pattern.MatchString(lower) {
			return r.action
		}
	}
	if a, ok := intentActions[in]; ok {
		return a
	}
	return ActionSummary
}
