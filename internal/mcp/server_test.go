package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/support-router/internal/intent"
	"github.com/ziadkadry99/support-router/internal/orchestrator"
	"github.com/ziadkadry99/support-router/internal/orders"
	"github.com/ziadkadry99/support-router/internal/session"
	"github.com/ziadkadry99/support-router/internal/vectordb"
)

// mockStore implements vectordb.VectorStore for testing.
type mockStore struct {
	docs []vectordb.Document
	err  error
}

func (m *mockStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *mockStore) Search(_ context.Context, query string, limit int, filter *vectordb.SearchFilter) ([]vectordb.SearchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	var results []vectordb.SearchResult
	for _, doc := range m.docs {
		if filter != nil && filter.Source != nil && doc.Metadata.Source != *filter.Source {
			continue
		}
		results = append(results, vectordb.SearchResult{
			Document:   doc,
			Similarity: 0.95,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockStore) DeleteBySource(_ context.Context, _ string) error { return nil }
func (m *mockStore) Persist(_ context.Context, _ string) error        { return nil }
func (m *mockStore) Load(_ context.Context, _ string) error           { return nil }
func (m *mockStore) Count() int                                       { return len(m.docs) }

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

func policyStore() *mockStore {
	return &mockStore{docs: []vectordb.Document{
		{
			ID:      "returns.md#0",
			Content: "Returns\n\nItems can be returned within 30 days of delivery.",
			Metadata: vectordb.DocumentMetadata{
				Source:  "returns.md",
				Section: "Returns",
			},
		},
		{
			ID:      "shipping.md#0",
			Content: "Shipping\n\nStandard shipping takes 2 to 6 business days.",
			Metadata: vectordb.DocumentMetadata{
				Source:  "shipping.md",
				Section: "Shipping",
			},
		},
	}}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{supportChatTool, "support_chat"},
		{searchPoliciesTool, "search_policies"},
		{resetSessionTool, "reset_session"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(&mockRouter{}, session.NewMemoryStore(time.Hour), &mockStore{})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleSupportChat(t *testing.T) {
	ctx := context.Background()

	t.Run("reply", func(t *testing.T) {
		router := &mockRouter{reply: &orchestrator.Reply{
			Answer: "Your order #350 was delivered.",
			State:  session.StateVerified,
			Intent: intent.AskOrderStatus,
			Order:  &orders.Order{ID: "350", Status: orders.StatusDelivered},
		}}
		srv := NewServer(router, session.NewMemoryStore(time.Hour), &mockStore{})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"user_id": "u1", "text": "where is 350"}

		result, err := srv.handleSupportChat(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if router.lastMsg.UserID != "u1" || router.lastMsg.Text != "where is 350" {
			t.Errorf("unexpected message: %+v", router.lastMsg)
		}
		text := extractText(result)
		for _, want := range []string{"delivered", "State: verified", "Intent: ask_order_status", "Order: #350 (delivered)"} {
			if !strings.Contains(text, want) {
				t.Errorf("expected %q in %q", want, text)
			}
		}
	})

	t.Run("missing text", func(t *testing.T) {
		srv := NewServer(&mockRouter{}, session.NewMemoryStore(time.Hour), &mockStore{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"user_id": "u1"}

		result, err := srv.handleSupportChat(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing text")
		}
	})

	t.Run("too long", func(t *testing.T) {
		srv := NewServer(&mockRouter{err: orchestrator.ErrMessageTooLong}, session.NewMemoryStore(time.Hour), &mockStore{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"user_id": "u1", "text": "long"}

		result, _ := srv.handleSupportChat(ctx, req)
		if !result.IsError || !strings.Contains(extractText(result), "too long") {
			t.Errorf("expected too long error, got %v", result.Content)
		}
	})
}

func TestHandleSearchPolicies(t *testing.T) {
	srv := NewServer(&mockRouter{}, session.NewMemoryStore(time.Hour), policyStore())
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "return window"}

		result, err := srv.handleSearchPolicies(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if !strings.Contains(extractText(result), "Found 2 passage(s)") {
			t.Errorf("unexpected text: %q", extractText(result))
		}
	})

	t.Run("source filter", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "shipping", "source": "shipping.md"}

		result, _ := srv.handleSearchPolicies(ctx, req)
		text := extractText(result)
		if !strings.Contains(text, "shipping.md#Shipping") || strings.Contains(text, "returns.md") {
			t.Errorf("filter not applied: %q", text)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchPolicies(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		emptySrv := NewServer(&mockRouter{}, session.NewMemoryStore(time.Hour), &mockStore{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "anything"}

		result, err := emptySrv.handleSearchPolicies(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty store should not be a tool error")
		}
		if !strings.Contains(extractText(result), "supportrouter ingest") {
			t.Errorf("expected ingest hint, got %q", extractText(result))
		}
	})

	t.Run("store error", func(t *testing.T) {
		badSrv := NewServer(&mockRouter{}, session.NewMemoryStore(time.Hour), &mockStore{err: errors.New("embedding failed")})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "anything"}

		result, _ := badSrv.handleSearchPolicies(ctx, req)
		if !result.IsError {
			t.Error("expected tool error when search fails")
		}
	})
}

func TestHandleResetSession(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore(time.Hour)
	s := session.New("u1")
	s.State = session.StateVerified
	if err := sessions.Put(ctx, s); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(&mockRouter{}, sessions, &mockStore{})
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"user_id": "u1"}

	result, err := srv.handleResetSession(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	got, _ := sessions.Get(ctx, "u1")
	if got.State != session.StateInitial {
		t.Errorf("got state %q, want initial", got.State)
	}
}

// extractText gets the text content from a CallToolResult.
func extractText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
