package memtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openclaw/agent-memory/internal/memory"
)

// TrackEntityTool handles the mem_track_entity MCP tool.
type TrackEntityTool struct {
	store *memory.Store
}

// NewTrackEntityTool creates a TrackEntityTool.
func NewTrackEntityTool(store *memory.Store) *TrackEntityTool {
	return &TrackEntityTool{store: store}
}

// Definition returns the MCP tool definition for mem_track_entity.
func (t *TrackEntityTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_track_entity",
		mcp.WithDescription(
			"Track a person, project, company, or tool. Tracking an existing entity REPLACES its "+
				"attributes; use mem_update_entity to merge instead.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Entity name"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Entity type: person, project, company, tool, ..."),
		),
		mcp.WithObject("attributes",
			mcp.Description("Key-value attributes for the entity"),
		),
	)
}

// Handle processes the mem_track_entity tool call.
func (t *TrackEntityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	entityType := req.GetString("type", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	if entityType == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}

	id, err := t.store.TrackEntity(name, entityType, attrArg(req, "attributes"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to track entity: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Tracking %s (%s).\nID: %s", name, entityType, id)), nil
}

// ─── UpdateEntityTool ───────────────────────────────────────────────────────

// UpdateEntityTool handles the mem_update_entity MCP tool.
type UpdateEntityTool struct {
	store *memory.Store
}

// NewUpdateEntityTool creates an UpdateEntityTool.
func NewUpdateEntityTool(store *memory.Store) *UpdateEntityTool {
	return &UpdateEntityTool{store: store}
}

// Definition returns the MCP tool definition for mem_update_entity.
func (t *UpdateEntityTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_update_entity",
		mcp.WithDescription(
			"Merge attributes into an existing entity. Existing keys not mentioned are kept; "+
				"mentioned keys are overwritten.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Entity name"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Entity type"),
		),
		mcp.WithObject("attributes",
			mcp.Required(),
			mcp.Description("Attributes to merge in"),
		),
	)
}

// Handle processes the mem_update_entity tool call.
func (t *UpdateEntityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	entityType := req.GetString("type", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	if entityType == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}

	entity, err := t.store.UpdateEntity(name, entityType, attrArg(req, "attributes"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update entity: %v", err)), nil
	}
	if entity == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no entity found: %s (%s)", name, entityType)), nil
	}

	out, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s (%s):\n%s", name, entityType, out)), nil
}

// ─── GetEntityTool ──────────────────────────────────────────────────────────

// GetEntityTool handles the mem_get_entity MCP tool.
type GetEntityTool struct {
	store *memory.Store
}

// NewGetEntityTool creates a GetEntityTool.
func NewGetEntityTool(store *memory.Store) *GetEntityTool {
	return &GetEntityTool{store: store}
}

// Definition returns the MCP tool definition for mem_get_entity.
func (t *GetEntityTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_get_entity",
		mcp.WithDescription(
			"Look up a tracked entity by name, optionally narrowed by type.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Entity name"),
		),
		mcp.WithString("type",
			mcp.Description("Entity type; when omitted the most recently updated match wins"),
		),
	)
}

// Handle processes the mem_get_entity tool call.
func (t *GetEntityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	entity, err := t.store.GetEntity(name, req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if entity == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No entity found with name %q.", name)), nil
	}

	out, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// ─── ListEntitiesTool ───────────────────────────────────────────────────────

// ListEntitiesTool handles the mem_list_entities MCP tool.
type ListEntitiesTool struct {
	store *memory.Store
}

// NewListEntitiesTool creates a ListEntitiesTool.
func NewListEntitiesTool(store *memory.Store) *ListEntitiesTool {
	return &ListEntitiesTool{store: store}
}

// Definition returns the MCP tool definition for mem_list_entities.
func (t *ListEntitiesTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_list_entities",
		mcp.WithDescription(
			"List tracked entities, most recently updated first.",
		),
		mcp.WithString("type",
			mcp.Description("Filter by entity type"),
		),
	)
}

// Handle processes the mem_list_entities tool call.
func (t *ListEntitiesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entities, err := t.store.ListEntities(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	if len(entities) == 0 {
		return mcp.NewToolResultText("No entities tracked."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d entities:\n\n", len(entities))
	for i, e := range entities {
		var attrs []string
		for pair := e.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			attrs = append(attrs, fmt.Sprintf("%s=%v", pair.Key, pair.Value))
		}
		attrInfo := ""
		if len(attrs) > 0 {
			attrInfo = fmt.Sprintf("\n    %s", memory.Truncate(strings.Join(attrs, ", "), 300))
		}
		fmt.Fprintf(&b, "[%d] %s (%s) — %d linked facts%s\n    id: %s | updated: %s\n\n",
			i+1, e.Name, e.EntityType, len(e.FactIDs), attrInfo, e.ID, e.LastUpdated,
		)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── LinkFactTool ───────────────────────────────────────────────────────────

// LinkFactTool handles the mem_link_fact MCP tool.
type LinkFactTool struct {
	store *memory.Store
}

// NewLinkFactTool creates a LinkFactTool.
func NewLinkFactTool(store *memory.Store) *LinkFactTool {
	return &LinkFactTool{store: store}
}

// Definition returns the MCP tool definition for mem_link_fact.
func (t *LinkFactTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_link_fact",
		mcp.WithDescription(
			"Associate a fact with a tracked entity, so the entity accumulates its related facts.",
		),
		mcp.WithString("entity_name",
			mcp.Required(),
			mcp.Description("Name of the entity to link to"),
		),
		mcp.WithString("fact_id",
			mcp.Required(),
			mcp.Description("ID of the fact to link"),
		),
	)
}

// Handle processes the mem_link_fact tool call.
func (t *LinkFactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityName := req.GetString("entity_name", "")
	factID := req.GetString("fact_id", "")
	if entityName == "" {
		return mcp.NewToolResultError("'entity_name' is required"), nil
	}
	if factID == "" {
		return mcp.NewToolResultError("'fact_id' is required"), nil
	}

	if err := t.store.LinkFactToEntity(entityName, factID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("link failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Linked fact %s to %s.", factID, entityName)), nil
}
