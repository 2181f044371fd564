package memtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openclaw/agent-memory/internal/memory"
)

// RecallTool handles the mem_recall MCP tool.
type RecallTool struct {
	store *memory.Store
}

// NewRecallTool creates a RecallTool.
func NewRecallTool(store *memory.Store) *RecallTool {
	return &RecallTool{store: store}
}

// Definition returns the MCP tool definition for mem_recall.
func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_recall",
		mcp.WithDescription(
			"Search persistent memory for relevant facts. Use this at the start of a task to recover "+
				"context from previous sessions. Recalling a fact marks it as used, which protects it from stale eviction.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query — keywords or natural language"),
		),
		mcp.WithArray("tags",
			mcp.Description("Only return facts carrying ALL of these tags"),
		),
		mcp.WithNumber("min_confidence",
			mcp.Description("Minimum confidence threshold (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
	)
}

// Handle processes the mem_recall tool call.
func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")

	facts, err := t.store.Recall(query, memory.RecallOptions{
		Tags:          stringListArg(req, "tags"),
		MinConfidence: floatArg(req, "min_confidence", 0),
		Limit:         intArg(req, "limit", 10),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
	}

	if len(facts) == 0 {
		return mcp.NewToolResultText("No facts found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recalled %d facts:\n\n", len(facts))
	for i, f := range facts {
		writeFact(&b, i+1, f)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// ─── GetFactTool ────────────────────────────────────────────────────────────

// GetFactTool handles the mem_get_fact MCP tool.
type GetFactTool struct {
	store *memory.Store
}

// NewGetFactTool creates a GetFactTool.
func NewGetFactTool(store *memory.Store) *GetFactTool {
	return &GetFactTool{store: store}
}

// Definition returns the MCP tool definition for mem_get_fact.
func (t *GetFactTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_get_fact",
		mcp.WithDescription(
			"Look up a single fact by its ID. Unlike mem_recall this does not count as an access "+
				"and includes superseded facts.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Fact ID"),
		),
	)
}

// Handle processes the mem_get_fact tool call.
func (t *GetFactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	fact, err := t.store.GetFact(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if fact == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No fact found with id %s.", id)), nil
	}

	out, err := json.MarshalIndent(fact, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// ─── ListFactsTool ──────────────────────────────────────────────────────────

// ListFactsTool handles the mem_list_facts MCP tool.
type ListFactsTool struct {
	store *memory.Store
}

// NewListFactsTool creates a ListFactsTool.
func NewListFactsTool(store *memory.Store) *ListFactsTool {
	return &ListFactsTool{store: store}
}

// Definition returns the MCP tool definition for mem_list_facts.
func (t *ListFactsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_list_facts",
		mcp.WithDescription(
			"List stored facts chronologically, newest first. Use mem_recall instead when searching "+
				"by relevance; listing does not count as an access.",
		),
		mcp.WithArray("tags",
			mcp.Description("Only return facts carrying ANY of these tags"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 50)"),
		),
		mcp.WithBoolean("include_superseded",
			mcp.Description("Include superseded facts (default: false)"),
		),
	)
}

// Handle processes the mem_list_facts tool call.
func (t *ListFactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	facts, err := t.store.ListFacts(memory.ListFactsOptions{
		Tags:              stringListArg(req, "tags"),
		Limit:             intArg(req, "limit", 50),
		IncludeSuperseded: boolArg(req, "include_superseded", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	if len(facts) == 0 {
		return mcp.NewToolResultText("No facts stored."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d facts:\n\n", len(facts))
	for i, f := range facts {
		writeFact(&b, i+1, f)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// writeFact appends a one-entry summary of a fact to the builder, shared by
// the recall and list tools.
func writeFact(b *strings.Builder, n int, f memory.Fact) {
	tags := ""
	if len(f.Tags) > 0 {
		tags = fmt.Sprintf(" [%s]", strings.Join(f.Tags, ", "))
	}
	status := ""
	if f.SupersededBy != nil {
		status = fmt.Sprintf(" (superseded by %s)", *f.SupersededBy)
	}
	fmt.Fprintf(b, "[%d] %s%s%s\n    id: %s | source: %s | confidence: %.2f | accessed %dx\n\n",
		n, memory.Truncate(f.Content, 300), tags, status,
		f.ID, f.Source, f.Confidence, f.AccessCount,
	)
}
