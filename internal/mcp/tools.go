package mcp

import "github.com/mark3labs/mcp-go/mcp"

// supportChatTool defines the support_chat MCP tool.
var supportChatTool = mcp.NewTool("support_chat",
	mcp.WithDescription("Send one customer message to the support router and get its reply. Conversations are keyed by user_id, so identity verification and order selection carry over between calls."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Stable identifier of the customer conversation"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The customer's message"),
	),
)

// searchPoliciesTool defines the search_policies MCP tool.
var searchPoliciesTool = mcp.NewTool("search_policies",
	mcp.WithDescription("Search the store policy documents semantically. Returns the matching passages with their source file and section."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 5)"),
	),
	mcp.WithString("source",
		mcp.Description("Restrict results to one policy file, e.g. returns.md"),
	),
)

// resetSessionTool defines the reset_session MCP tool.
var resetSessionTool = mcp.NewTool("reset_session",
	mcp.WithDescription("Forget a customer conversation, including its verification."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Identifier of the conversation to forget"),
	),
)
