package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ContextPrompt handles the memory-context MCP prompt.
// It instructs the AI to load persistent memory at the start of a session.
type ContextPrompt struct{}

// NewContextPrompt creates a ContextPrompt.
func NewContextPrompt() *ContextPrompt {
	return &ContextPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ContextPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("memory-context",
		mcp.WithPromptDescription(
			"Load your persistent memory: recent facts, lessons learned, "+
				"and tracked entities from previous sessions.",
		),
	)
}

// Handle processes the memory-context prompt request.
func (p *ContextPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Agent Memory Context",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `mem_context` to load my persistent memory.\n\n" +
						"Then:\n" +
						"1. Briefly summarize what you remember about me and my projects\n" +
						"2. Check `mem_lessons` for negative outcomes relevant to what we're about to do\n" +
						"3. Use `mem_recall` during the session whenever past context would help\n" +
						"4. Remember new facts proactively with `mem_remember` as we work",
				),
			},
		},
	}, nil
}
