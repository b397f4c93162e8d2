package orchestrator

import "github.com/ziadkadry99/support-router/internal/session"

var greetings = []string{
	"Hey there! 👋 I can help with orders, refunds, returns, shipping or any of our policies. What's up?",
	"Hi! 😎 Wanna track an order, sort out a return, or ask about our policies?",
	"Yo! 👋 Ask me about an order, a refund, shipping times or how returns work.",
	"Hello! 🛍️ Need help with an order or have a question about our policies?",
	"Hey! ✨ I'm the support bot. Orders, refunds, shipping, returns: hit me with it.",
}

const nudge = "Still here 👀. Send me a question about an order, a refund, shipping or our policies."

// greeting answers an empty message: a greeting the first time, a nudge
// afterwards.
func (o *Orchestrator) greeting(s *session.Session) string {
	if s.Greeted {
		return nudge
	}
	s.Greeted = true
	return greetings[o.pick(len(greetings))]
}
