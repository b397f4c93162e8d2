package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/support-router/internal/llm"
	"github.com/ziadkadry99/support-router/internal/logger"
	"github.com/ziadkadry99/support-router/internal/session"
	"github.com/ziadkadry99/support-router/internal/vectordb"
)

const noDocs = "[no docs found]"

// PolicyResponder answers general questions from the ingested policy
// documents. With a provider it generates an answer grounded on the top
// passages; without one it quotes the best passage.
type PolicyResponder struct {
	store       vectordb.VectorStore
	provider    llm.Provider
	model       string
	topK        int
	temperature float32

	gaps         GapRecorder
	gapThreshold float32
	log          *logger.Logger
}

// GapRecorder collects customer questions the policies do not cover.
type GapRecorder interface {
	Record(ctx context.Context, question, bestSource string, bestSimilarity float32) error
}

// PolicyOption configures a PolicyResponder.
type PolicyOption func(*PolicyResponder)

// WithGenerator enables answer generation with the given chat model.
func WithGenerator(provider llm.Provider, model string, temperature float32) PolicyOption {
	return func(p *PolicyResponder) {
		p.provider = provider
		p.model = model
		p.temperature = temperature
	}
}

// WithTopK sets how many passages are retrieved per question.
func WithTopK(k int) PolicyOption {
	return func(p *PolicyResponder) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithGapRecorder records customer questions whose best passage scores
// below threshold. Recording failures are logged and never affect the answer.
func WithGapRecorder(rec GapRecorder, threshold float32, log *logger.Logger) PolicyOption {
	return func(p *PolicyResponder) {
		p.gaps = rec
		p.gapThreshold = threshold
		if log != nil {
			p.log = log
		}
	}
}

// NewPolicyResponder creates a PolicyResponder over store.
func NewPolicyResponder(store vectordb.VectorStore, opts ...PolicyOption) *PolicyResponder {
	p := &PolicyResponder{store: store, topK: 3, temperature: 0.4, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Respond answers req.Text using the conversation history. Poorly covered
// questions are sent to the gap recorder, if any.
func (p *PolicyResponder) Respond(ctx context.Context, req Request) (*Response, error) {
	results, err := p.search(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	p.recordGap(ctx, req.Text, results)
	return p.answer(ctx, req.Text, results, req.History)
}

// Answer retrieves passages relevant to query and answers it.
func (p *PolicyResponder) Answer(ctx context.Context, query string, history []session.Turn) (*Response, error) {
	results, err := p.search(ctx, query)
	if err != nil {
		return nil, err
	}
	return p.answer(ctx, query, results, history)
}

func (p *PolicyResponder) search(ctx context.Context, query string) ([]vectordb.SearchResult, error) {
	results, err := p.store.Search(ctx, query, p.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("searching policies: %w", err)
	}
	return results, nil
}

func (p *PolicyResponder) recordGap(ctx context.Context, query string, results []vectordb.SearchResult) {
	if p.gaps == nil {
		return
	}
	var (
		source string
		best   float32
	)
	if len(results) > 0 {
		source = results[0].Document.Metadata.Label()
		best = results[0].Similarity
		if best >= p.gapThreshold {
			return
		}
	}
	if err := p.gaps.Record(ctx, query, source, best); err != nil {
		p.log.Warn("recording knowledge gap failed", "error", err)
	}
}

func (p *PolicyResponder) answer(ctx context.Context, query string, results []vectordb.SearchResult, history []session.Turn) (*Response, error) {
	sources := vectordb.Sources(results)

	if p.provider == nil {
		return &Response{Answer: quoteBest(results), Sources: sources}, nil
	}

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: personaPrompt},
			{Role: llm.RoleUser, Content: buildPolicyPrompt(query, results, history)},
		},
		MaxTokens:   400,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating policy answer: %w", err)
	}

	return &Response{Answer: strings.TrimSpace(resp.Content), Sources: sources}, nil
}

const personaPrompt = `You're the support bot for an online store. Keep replies short, friendly and honest, with the odd emoji. Only state rules that appear in the Docs section; if the docs don't cover the question, say so and suggest contacting support.

Examples:
User: hey
Bot: Hey! 😜 What's up? Wanna track an order or something?

User: what's your refund policy?
Bot: If it's within 30 days and unused, we got you 💸. Refunds hit your card in 5-7 business days.`

func buildPolicyPrompt(query string, results []vectordb.SearchResult, history []session.Turn) string {
	var b strings.Builder

	b.WriteString("Docs:\n")
	if len(results) == 0 {
		b.WriteString(noDocs)
	}
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(r.Document.Content))
	}
	b.WriteString("\n\n")

	for _, t := range history {
		speaker := "Bot"
		if t.Role == session.RoleUser {
			speaker = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, t.Text)
	}
	fmt.Fprintf(&b, "User: %s\nBot:", query)
	return b.String()
}

func quoteBest(results []vectordb.SearchResult) string {
	if len(results) == 0 {
		return "I don't have anything on that in our policies yet 🤔. Try rephrasing, or reach out to support."
	}
	top := results[0].Document
	return fmt.Sprintf("Here's what our %s policy says:\n%s", top.Metadata.Label(), strings.TrimSpace(top.Content))
}
