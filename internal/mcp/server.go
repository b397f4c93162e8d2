// Package mcp exposes the support router to MCP clients over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/support-router/internal/orchestrator"
	"github.com/ziadkadry99/support-router/internal/session"
	"github.com/ziadkadry99/support-router/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Router handles one customer message.
type Router interface {
	Handle(ctx context.Context, msg orchestrator.Message) (*orchestrator.Reply, error)
}

// Server wraps an MCP server that exposes the support tools.
type Server struct {
	router   Router
	sessions session.Store
	store    vectordb.VectorStore
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(router Router, sessions session.Store, store vectordb.VectorStore) *Server {
	s := &Server{
		router:   router,
		sessions: sessions,
		store:    store,
	}

	s.mcp = server.NewMCPServer(
		"supportrouter",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(supportChatTool, s.handleSupportChat)
	s.mcp.AddTool(searchPoliciesTool, s.handleSearchPolicies)
	s.mcp.AddTool(resetSessionTool, s.handleResetSession)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
