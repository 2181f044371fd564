package memtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openclaw/agent-memory/internal/memory"
)

// StatsTool handles the mem_stats MCP tool.
type StatsTool struct {
	store *memory.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(store *memory.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for mem_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_stats",
		mcp.WithDescription("Show memory statistics: fact, lesson, and entity counts."),
	)
}

// Handle processes the mem_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.GetStats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Memory statistics:\n- Active facts: %d\n- Superseded facts: %d\n- Total facts: %d\n- Lessons: %d\n- Entities: %d",
		stats.ActiveFacts, stats.SupersededFacts, stats.TotalFacts, stats.Lessons, stats.Entities,
	)), nil
}

// ─── ExportTool ─────────────────────────────────────────────────────────────

// ExportTool handles the mem_export MCP tool.
type ExportTool struct {
	store *memory.Store
}

// NewExportTool creates an ExportTool.
func NewExportTool(store *memory.Store) *ExportTool {
	return &ExportTool{store: store}
}

// Definition returns the MCP tool definition for mem_export.
func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_export",
		mcp.WithDescription(
			"Export the entire memory database as JSON, superseded facts included. "+
				"Useful for backup or migrating memory between machines.",
		),
	)
}

// Handle processes the mem_export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := t.store.Export()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// ─── ContextTool ────────────────────────────────────────────────────────────

// ContextTool handles the mem_context MCP tool.
type ContextTool struct {
	store *memory.Store
}

// NewContextTool creates a ContextTool.
func NewContextTool(store *memory.Store) *ContextTool {
	return &ContextTool{store: store}
}

// Definition returns the MCP tool definition for mem_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_context",
		mcp.WithDescription(
			"Get a markdown digest of memory: recent facts, lessons learned, and tracked entities. "+
				"Call this at the start of a session to load context.",
		),
	)
}

// Handle processes the mem_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	digest, err := t.store.FormatContext()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("context failed: %v", err)), nil
	}
	if digest == "" {
		return mcp.NewToolResultText("Memory is empty — nothing remembered yet."), nil
	}
	return mcp.NewToolResultText(digest), nil
}
