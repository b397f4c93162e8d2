package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/support-router/internal/orchestrator"
	"github.com/ziadkadry99/support-router/internal/vectordb"
)

// handleSupportChat runs one conversation turn.
func (s *Server) handleSupportChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	reply, err := s.router.Handle(ctx, orchestrator.Message{UserID: userID, Text: text})
	switch {
	case errors.Is(err, orchestrator.ErrMissingUserID):
		return mcp.NewToolResultError("user_id must not be blank"), nil
	case errors.Is(err, orchestrator.ErrMessageTooLong):
		return mcp.NewToolResultError("text is too long"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatReply(reply)), nil
}

// handleSearchPolicies performs semantic search over the policy passages.
func (s *Server) handleSearchPolicies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	var filter *vectordb.SearchFilter
	if source := request.GetString("source", ""); source != "" {
		filter = &vectordb.SearchFilter{Source: &source}
	}

	results, err := s.store.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The policies may not be ingested yet. Run `supportrouter ingest` to index them."), nil
	}

	return mcp.NewToolResultText(vectordb.FormatResults(results)), nil
}

// handleResetSession deletes a conversation.
func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}

	if err := s.sessions.Delete(ctx, userID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s was reset.", userID)), nil
}

// formatReply renders a reply with its routing details for agent consumption.
func formatReply(r *orchestrator.Reply) string {
	var sb strings.Builder
	sb.WriteString(r.Answer)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "State: %s\n", r.State)
	if r.Intent != "" {
		fmt.Fprintf(&sb, "Intent: %s\n", r.Intent)
	}
	if len(r.Sources) > 0 {
		fmt.Fprintf(&sb, "Sources: %s\n", strings.Join(r.Sources, ", "))
	}
	if r.Order != nil {
		fmt.Fprintf(&sb, "Order: #%s (%s)\n", r.Order.ID, r.Order.Status)
	}
	if r.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", r.Error)
	}
	return sb.String()
}
