package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/indexstore-mcp/internal/importer"
	"github.com/dshills/indexstore-mcp/pkg/types"
)

// kindNames lists every kind name for schema enums
func kindNames() []string {
	kinds := types.AllSymbolKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// listSymbolKindsTool returns the tool definition for list_symbol_kinds
func listSymbolKindsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_symbol_kinds",
		Description: "List every symbol kind with its native index kind code",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// resolveKindCodeTool returns the tool definition for resolve_kind_code
func resolveKindCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "resolve_kind_code",
		Description: "Translate a native index kind code into a symbol kind; unrecognized codes resolve to unknown",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "integer",
					"description": "Native kind code (indexstoredb_symbol_kind_t)",
					"minimum":     0,
				},
			},
			Required: []string{"code"},
		},
	}
}

// describeSymbolTool returns the tool definition for describe_symbol
func describeSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "describe_symbol",
		Description: "Render a symbol as \"<name> | <kind> | <usr>\" and report its kind code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"usr": map[string]interface{}{
					"type":        "string",
					"description": "Unified symbol resolution identifier",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Display name",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Symbol kind name",
					"enum":        kindNames(),
				},
			},
			Required: []string{"usr", "name", "kind"},
		},
	}
}

// importSymbolsTool returns the tool definition for import_symbols
func importSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "import_symbols",
		Description: "Import a native index symbol export (JSON Lines: usr, name, kind code) into the symbol snapshot",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the .jsonl export",
				},
				"batch_size": map[string]interface{}{
					"type":        "integer",
					"description": "Symbols committed per transaction",
					"default":     importer.DefaultBatchSize,
					"minimum":     1,
					"maximum":     importer.MaxBatchSize,
				},
				"skip_unknown": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, drop symbols whose kind code is not recognized",
					"default":     false,
				},
				"prune": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, delete snapshot symbols that are not in this export",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// lookupSymbolTool returns the tool definition for lookup_symbol
func lookupSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "lookup_symbol",
		Description: "Look up a symbol in the snapshot by USR",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"usr": map[string]interface{}{
					"type":        "string",
					"description": "Unified symbol resolution identifier",
				},
			},
			Required: []string{"usr"},
		},
	}
}

// listSymbolsTool returns the tool definition for list_symbols
func listSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_symbols",
		Description: "List snapshot symbols ordered by USR then name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kinds": map[string]interface{}{
					"type":        "array",
					"description": "Only include these kinds",
					"items": map[string]interface{}{
						"type": "string",
						"enum": kindNames(),
					},
				},
				"prefix": map[string]interface{}{
					"type":        "string",
					"description": "Display name prefix (ASCII case-insensitive)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of symbols to return (1-1000)",
					"default":     100,
					"minimum":     1,
					"maximum":     1000,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report symbol snapshot statistics and build information",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
