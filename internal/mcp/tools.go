package mcp

import "github.com/mark3labs/mcp-go/mcp"

var createToolDef = mcp.NewTool("drop_create",
	mcp.WithDescription("Post a markdown drop to the hub. Title falls back to the first # heading in the content."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Markdown content of the drop"),
	),
	mcp.WithString("from_agent",
		mcp.Description("Sender identifier (default: claude-code)"),
	),
	mcp.WithString("drop_type",
		mcp.Description("Drop type: checkpoint, context, handoff, question (default: context)"),
	),
	mcp.WithString("title",
		mcp.Description("Title override (default: first # heading)"),
	),
	mcp.WithArray("tags",
		mcp.Description("Tags for the drop"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var listToolDef = mcp.NewTool("drop_list",
	mcp.WithDescription("List drops stored on the hub, newest first."),
	mcp.WithString("from_agent",
		mcp.Description("Filter by sender"),
	),
	mcp.WithString("drop_type",
		mcp.Description("Filter by drop type"),
	),
	mcp.WithString("since",
		mcp.Description("Only drops after this ISO timestamp"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max results (default 20)"),
	),
)

var readToolDef = mcp.NewTool("drop_read",
	mcp.WithDescription("Read a specific drop by id."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Drop id"),
	),
)
