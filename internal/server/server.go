// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the memory store and injects it
// into the tools, prompts, and resources that depend on it. No business
// logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/openclaw/agent-memory/internal/memory"
	"github.com/openclaw/agent-memory/internal/memtools"
	"github.com/openclaw/agent-memory/internal/prompts"
	"github.com/openclaw/agent-memory/internal/resources"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts, and
// resources registered. This is the single place where dependencies are
// resolved.
//
// The returned cleanup function closes the memory store's database
// connection and must be called on shutdown (typically via defer).
func New() (*server.MCPServer, func(), error) {
	store, err := memory.New(memory.DefaultConfig())
	if err != nil {
		return nil, noop, fmt.Errorf("opening memory store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: memory store close: %v", err)
		}
	}

	s := server.NewMCPServer(
		"agent-memory",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, store)

	contextPrompt := prompts.NewContextPrompt()
	s.AddPrompt(contextPrompt.Definition(), contextPrompt.Handle)

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)
	s.AddResource(resourceHandler.ExportResource(), resourceHandler.HandleExport)

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when initialization fails.
func noop() {}

// registerTools registers all 18 memory MCP tools with the server.
func registerTools(s *server.MCPServer, ms *memory.Store) {
	// --- Facts ---
	remember := memtools.NewRememberTool(ms)
	s.AddTool(remember.Definition(), remember.Handle)

	recall := memtools.NewRecallTool(ms)
	s.AddTool(recall.Definition(), recall.Handle)

	getFact := memtools.NewGetFactTool(ms)
	s.AddTool(getFact.Definition(), getFact.Handle)

	listFacts := memtools.NewListFactsTool(ms)
	s.AddTool(listFacts.Definition(), listFacts.Handle)

	supersede := memtools.NewSupersedeTool(ms)
	s.AddTool(supersede.Definition(), supersede.Handle)

	forget := memtools.NewForgetTool(ms)
	s.AddTool(forget.Definition(), forget.Handle)

	forgetStale := memtools.NewForgetStaleTool(ms)
	s.AddTool(forgetStale.Definition(), forgetStale.Handle)

	// --- Lessons ---
	learn := memtools.NewLearnTool(ms)
	s.AddTool(learn.Definition(), learn.Handle)

	lessons := memtools.NewLessonsTool(ms)
	s.AddTool(lessons.Definition(), lessons.Handle)

	applyLesson := memtools.NewApplyLessonTool(ms)
	s.AddTool(applyLesson.Definition(), applyLesson.Handle)

	// --- Entities ---
	trackEntity := memtools.NewTrackEntityTool(ms)
	s.AddTool(trackEntity.Definition(), trackEntity.Handle)

	updateEntity := memtools.NewUpdateEntityTool(ms)
	s.AddTool(updateEntity.Definition(), updateEntity.Handle)

	getEntity := memtools.NewGetEntityTool(ms)
	s.AddTool(getEntity.Definition(), getEntity.Handle)

	listEntities := memtools.NewListEntitiesTool(ms)
	s.AddTool(listEntities.Definition(), listEntities.Handle)

	linkFact := memtools.NewLinkFactTool(ms)
	s.AddTool(linkFact.Definition(), linkFact.Handle)

	// --- Utilities ---
	stats := memtools.NewStatsTool(ms)
	s.AddTool(stats.Definition(), stats.Handle)

	export := memtools.NewExportTool(ms)
	s.AddTool(export.Definition(), export.Handle)

	memContext := memtools.NewContextTool(ms)
	s.AddTool(memContext.Definition(), memContext.Handle)
}

func serverInstructions() string {
	return `You have access to agent-memory, a persistent memory MCP server.

## AT SESSION START

Call mem_context to load what you remember from previous sessions. Do this
before answering questions that might depend on past context.

## DURING THE SESSION

- Use mem_recall when the user mentions something you might already know
  about. Recalling a fact marks it as useful, protecting it from eviction.
- Use mem_remember PROACTIVELY for facts worth keeping: user preferences,
  project details, decisions, discoveries. Don't wait to be asked.
- When a remembered fact turns out to be outdated, mem_supersede it with
  the correction instead of deleting it.
- Record lessons with mem_learn when an approach clearly worked or failed,
  and check mem_lessons before retrying something that failed before.
- Track recurring people, projects, companies, and tools with
  mem_track_entity, and link their facts with mem_link_fact.

## WHAT NOT TO REMEMBER

Do not store secrets, credentials, or anything the user asks you to forget.
Use mem_forget immediately when asked to forget something.`
}
