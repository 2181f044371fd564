package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openclaw/agent-memory/internal/memory"
)

// LearnTool handles the mem_learn MCP tool.
type LearnTool struct {
	store *memory.Store
}

// NewLearnTool creates a LearnTool.
func NewLearnTool(store *memory.Store) *LearnTool {
	return &LearnTool{store: store}
}

// Definition returns the MCP tool definition for mem_learn.
func (t *LearnTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_learn",
		mcp.WithDescription(
			"Record a lesson from experience: what was tried, in what situation, how it went, "+
				"and what to do differently next time.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What was done"),
		),
		mcp.WithString("context",
			mcp.Required(),
			mcp.Description("The situation or topic"),
		),
		mcp.WithString("outcome",
			mcp.Required(),
			mcp.Description("How it went: positive, negative, or neutral"),
		),
		mcp.WithString("insight",
			mcp.Required(),
			mcp.Description("What was learned"),
		),
	)
}

// Handle processes the mem_learn tool call.
func (t *LearnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := memory.LearnParams{
		Action:  req.GetString("action", ""),
		Context: req.GetString("context", ""),
		Outcome: req.GetString("outcome", ""),
		Insight: req.GetString("insight", ""),
	}
	if params.Action == "" {
		return mcp.NewToolResultError("'action' is required"), nil
	}
	if params.Insight == "" {
		return mcp.NewToolResultError("'insight' is required"), nil
	}

	id, err := t.store.Learn(params)
	if errors.Is(err, memory.ErrInvalidOutcome) {
		return mcp.NewToolResultError("'outcome' must be positive, negative, or neutral"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record lesson: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Lesson recorded (%s).\nID: %s", params.Outcome, id)), nil
}

// ─── LessonsTool ────────────────────────────────────────────────────────────

// LessonsTool handles the mem_lessons MCP tool.
type LessonsTool struct {
	store *memory.Store
}

// NewLessonsTool creates a LessonsTool.
func NewLessonsTool(store *memory.Store) *LessonsTool {
	return &LessonsTool{store: store}
}

// Definition returns the MCP tool definition for mem_lessons.
func (t *LessonsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_lessons",
		mcp.WithDescription(
			"Retrieve lessons learned in past sessions, newest first. Check these before repeating "+
				"an approach that may have failed before.",
		),
		mcp.WithString("context",
			mcp.Description("Filter by situation/topic (substring match)"),
		),
		mcp.WithString("outcome",
			mcp.Description("Filter by outcome: positive, negative, or neutral"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
	)
}

// Handle processes the mem_lessons tool call.
func (t *LessonsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lessons, err := t.store.Lessons(memory.LessonFilter{
		Context: req.GetString("context", ""),
		Outcome: req.GetString("outcome", ""),
		Limit:   intArg(req, "limit", 10),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lessons lookup failed: %v", err)), nil
	}

	if len(lessons) == 0 {
		return mcp.NewToolResultText("No lessons recorded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d lessons:\n\n", len(lessons))
	for i, l := range lessons {
		fmt.Fprintf(&b, "[%d] (%s) %s\n    Context: %s\n    Insight: %s\n    id: %s | applied %dx\n\n",
			i+1, l.Outcome, memory.Truncate(l.Action, 150),
			memory.Truncate(l.Context, 150),
			memory.Truncate(l.Insight, 300),
			l.ID, l.AppliedCount,
		)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ApplyLessonTool ────────────────────────────────────────────────────────

// ApplyLessonTool handles the mem_apply_lesson MCP tool.
type ApplyLessonTool struct {
	store *memory.Store
}

// NewApplyLessonTool creates an ApplyLessonTool.
func NewApplyLessonTool(store *memory.Store) *ApplyLessonTool {
	return &ApplyLessonTool{store: store}
}

// Definition returns the MCP tool definition for mem_apply_lesson.
func (t *ApplyLessonTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_apply_lesson",
		mcp.WithDescription(
			"Mark a lesson as applied. Call this when you act on a lesson's insight so "+
				"frequently useful lessons can be identified.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Lesson ID"),
		),
	)
}

// Handle processes the mem_apply_lesson tool call.
func (t *ApplyLessonTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if err := t.store.ApplyLesson(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("apply failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Lesson %s marked as applied.", id)), nil
}
