// Package memtools provides MCP tool handlers for the agent memory store.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (memory.Store) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
package memtools

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts a float argument from a tool request.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringListArg extracts a string array argument. Non-string elements are
// skipped; a missing or malformed argument yields nil.
func stringListArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// attrArg extracts an object argument as an ordered attribute map. JSON
// object keys arrive in an unordered Go map, so keys are sorted to keep the
// stored order deterministic. Returns nil when the argument is absent.
func attrArg(req mcp.CallToolRequest, key string) *orderedmap.OrderedMap[string, any] {
	raw, ok := req.GetArguments()[key].(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := orderedmap.New[string, any]()
	for _, k := range keys {
		attrs.Set(k, raw[k])
	}
	return attrs
}
