package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openclaw/agent-memory/internal/memory"
)

// ─── ForgetTool ─────────────────────────────────────────────────────────────

// ForgetTool handles the mem_forget MCP tool.
type ForgetTool struct {
	store *memory.Store
}

// NewForgetTool creates a ForgetTool.
func NewForgetTool(store *memory.Store) *ForgetTool {
	return &ForgetTool{store: store}
}

// Definition returns the MCP tool definition for mem_forget.
func (t *ForgetTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_forget",
		mcp.WithDescription(
			"Permanently delete a fact from memory. Prefer mem_supersede when the fact is outdated "+
				"rather than wrong — supersession keeps history.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("ID of the fact to delete"),
		),
	)
}

// Handle processes the mem_forget tool call.
func (t *ForgetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if err := t.store.Forget(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forget failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Forgot fact %s.", id)), nil
}

// ─── ForgetStaleTool ────────────────────────────────────────────────────────

// ForgetStaleTool handles the mem_forget_stale MCP tool.
type ForgetStaleTool struct {
	store *memory.Store
}

// NewForgetStaleTool creates a ForgetStaleTool.
func NewForgetStaleTool(store *memory.Store) *ForgetStaleTool {
	return &ForgetStaleTool{store: store}
}

// Definition returns the MCP tool definition for mem_forget_stale.
func (t *ForgetStaleTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_forget_stale",
		mcp.WithDescription(
			"Evict facts that have not been accessed recently and were rarely used. "+
				"Superseded facts are kept regardless, since they are history.",
		),
		mcp.WithNumber("days",
			mcp.Description("Evict facts not accessed in this many days (default: 90)"),
		),
		mcp.WithNumber("min_access_count",
			mcp.Description("Only evict facts accessed at most this many times (default: 2)"),
		),
	)
}

// Handle processes the mem_forget_stale tool call.
func (t *ForgetStaleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := intArg(req, "days", 90)
	minAccess := intArg(req, "min_access_count", 2)

	n, err := t.store.ForgetStale(days, minAccess)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stale eviction failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Evicted %d stale facts (unused for %d+ days, accessed <= %d times).", n, days, minAccess)), nil
}
