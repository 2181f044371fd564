package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openclaw/agent-memory/internal/memory"
)

// RememberTool handles the mem_remember MCP tool.
type RememberTool struct {
	store *memory.Store
}

// NewRememberTool creates a RememberTool with the given memory store.
func NewRememberTool(store *memory.Store) *RememberTool {
	return &RememberTool{store: store}
}

// Definition returns the MCP tool definition for mem_remember.
func (t *RememberTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_remember",
		mcp.WithDescription(
			"Store a fact in persistent memory. Use this for anything worth recalling in a later session: "+
				"user preferences, project details, decisions, discoveries.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The fact to remember, as a short self-contained statement"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for categorization and filtered recall"),
		),
		mcp.WithString("source",
			mcp.Description("Where the fact came from: conversation (default), observation, inference"),
		),
		mcp.WithNumber("confidence",
			mcp.Description("Confidence in the fact, 0.0-1.0 (default: 1.0)"),
		),
		mcp.WithNumber("expires_in_days",
			mcp.Description("Days until the fact expires; omit for no expiry"),
		),
	)
}

// Handle processes the mem_remember tool call.
func (t *RememberTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	params := memory.RememberParams{
		Content:       content,
		Tags:          stringListArg(req, "tags"),
		Source:        req.GetString("source", ""),
		ExpiresInDays: intArg(req, "expires_in_days", 0),
	}
	if _, ok := req.GetArguments()["confidence"]; ok {
		c := floatArg(req, "confidence", 1.0)
		params.Confidence = &c
	}

	id, err := t.store.Remember(params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to remember: %v", err)), nil
	}

	response := fmt.Sprintf("Remembered: %s", memory.Truncate(content, 100))
	if len(params.Tags) > 0 {
		response += fmt.Sprintf(" [%s]", strings.Join(params.Tags, ", "))
	}
	response += fmt.Sprintf("\nID: %s", id)

	return mcp.NewToolResultText(response), nil
}

// ─── SupersedeTool ──────────────────────────────────────────────────────────

// SupersedeTool handles the mem_supersede MCP tool.
type SupersedeTool struct {
	store *memory.Store
}

// NewSupersedeTool creates a SupersedeTool.
func NewSupersedeTool(store *memory.Store) *SupersedeTool {
	return &SupersedeTool{store: store}
}

// Definition returns the MCP tool definition for mem_supersede.
func (t *SupersedeTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_supersede",
		mcp.WithDescription(
			"Replace an outdated fact with updated information. The old fact is kept for history "+
				"but excluded from future recall.",
		),
		mcp.WithString("old_id",
			mcp.Required(),
			mcp.Description("ID of the fact being replaced"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The updated fact"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for the replacement fact"),
		),
		mcp.WithString("source",
			mcp.Description("Source of the replacement: conversation (default), observation, inference"),
		),
		mcp.WithNumber("confidence",
			mcp.Description("Confidence in the replacement, 0.0-1.0 (default: 1.0)"),
		),
		mcp.WithNumber("expires_in_days",
			mcp.Description("Days until the replacement expires; omit for no expiry"),
		),
	)
}

// Handle processes the mem_supersede tool call.
func (t *SupersedeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldID := req.GetString("old_id", "")
	content := req.GetString("content", "")
	if oldID == "" {
		return mcp.NewToolResultError("'old_id' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	params := memory.RememberParams{
		Content:       content,
		Tags:          stringListArg(req, "tags"),
		Source:        req.GetString("source", ""),
		ExpiresInDays: intArg(req, "expires_in_days", 0),
	}
	if _, ok := req.GetArguments()["confidence"]; ok {
		c := floatArg(req, "confidence", 1.0)
		params.Confidence = &c
	}

	newID, err := t.store.Supersede(oldID, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to supersede: %v", err)), nil
	}
	if newID == "" {
		return mcp.NewToolResultError(fmt.Sprintf("no fact found with id %s", oldID)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Superseded %s with new fact %s", oldID, newID)), nil
}
