package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/indexstore-mcp/internal/importer"
	"github.com/dshills/indexstore-mcp/internal/storage"
	"github.com/dshills/indexstore-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeImportInProgress = -32002 // Another import is already running
	ErrorCodeInvalidKind      = -32005 // Kind name is not part of the taxonomy
)

// handleListSymbolKinds handles the list_symbol_kinds tool invocation
func (s *Server) handleListSymbolKinds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kinds := types.AllSymbolKinds()
	rows := make([]map[string]interface{}, 0, len(kinds))
	for _, k := range kinds {
		rows = append(rows, map[string]interface{}{
			"kind": k.String(),
			"code": k.Code(),
		})
	}

	response := map[string]interface{}{
		"count": len(rows),
		"kinds": rows,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleResolveKindCode handles the resolve_kind_code tool invocation
func (s *Server) handleResolveKindCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	code, err := getKindCode(args, "code")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid code", map[string]interface{}{
			"param":  "code",
			"reason": err.Error(),
		})
	}

	kind := types.SymbolKindFromCode(code)
	response := map[string]interface{}{
		"code":       code,
		"kind":       kind.String(),
		"recognized": kind != types.KindUnknown || code == types.KindCodeUnknown,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDescribeSymbol handles the describe_symbol tool invocation
func (s *Server) handleDescribeSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	usr, ok := args["usr"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "usr parameter is required", map[string]interface{}{
			"param":  "usr",
			"reason": "missing",
		})
	}
	name, ok := args["name"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing",
		})
	}
	kindName, _ := args["kind"].(string)
	kind, err := types.ParseSymbolKind(kindName)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidKind, "invalid kind", map[string]interface{}{
			"param":   "kind",
			"value":   kindName,
			"allowed": kindNames(),
		})
	}

	sym := types.NewSymbol(usr, name, kind)
	response := map[string]interface{}{
		"description": sym.String(),
		"symbol":      symbolJSON(sym),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleImportSymbols handles the import_symbols tool invocation
func (s *Server) handleImportSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	batchSize := getIntDefault(args, "batch_size", importer.DefaultBatchSize)
	if batchSize < 1 || batchSize > importer.MaxBatchSize {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("batch_size must be between 1 and %d", importer.MaxBatchSize), map[string]interface{}{
			"param": "batch_size",
			"value": batchSize,
		})
	}

	config := &importer.Config{
		Workers:     s.workers,
		BatchSize:   batchSize,
		SkipUnknown: getBoolDefault(args, "skip_unknown", false),
		Prune:       getBoolDefault(args, "prune", false),
	}

	stats, err := s.importFile(ctx, path, config)
	if errors.Is(err, importer.ErrImportInProgress) {
		return nil, newMCPError(ErrorCodeImportInProgress, "another import is already running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "import failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"imported":          true,
		"symbols_read":      stats.SymbolsRead,
		"symbols_written":   stats.SymbolsWritten,
		"symbols_duplicate": stats.SymbolsDuplicate,
		"symbols_skipped":   stats.SymbolsSkipped,
		"symbols_pruned":    stats.SymbolsPruned,
		"unknown_kinds":     stats.UnknownKinds,
		"batches":           stats.BatchesCommitted,
		"duration_ms":       stats.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleLookupSymbol handles the lookup_symbol tool invocation
func (s *Server) handleLookupSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	usr, ok := args["usr"].(string)
	if !ok || usr == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "usr parameter is required", map[string]interface{}{
			"param":  "usr",
			"reason": "missing or empty",
		})
	}

	sym, err := s.storage.GetSymbol(ctx, usr)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"found":   false,
			"usr":     usr,
			"message": "Symbol not in snapshot. Use import_symbols to load an index export.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to look up symbol", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"found":       true,
		"description": sym.String(),
		"symbol":      symbolJSON(sym),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListSymbols handles the list_symbols tool invocation
func (s *Server) handleListSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 1000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 1000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	filter := &storage.SymbolFilter{
		NamePrefix: getStringDefault(args, "prefix", ""),
		Limit:      limit,
	}

	if raw, ok := args["kinds"].([]interface{}); ok {
		for _, v := range raw {
			name, _ := v.(string)
			kind, err := types.ParseSymbolKind(name)
			if err != nil {
				return nil, newMCPError(ErrorCodeInvalidKind, "invalid kind", map[string]interface{}{
					"param":   "kinds",
					"value":   v,
					"allowed": kindNames(),
				})
			}
			filter.Kinds = append(filter.Kinds, kind)
		}
	}

	symbols, err := s.storage.ListSymbols(ctx, filter)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list symbols", map[string]interface{}{
			"error": err.Error(),
		})
	}

	rows := make([]map[string]interface{}, 0, len(symbols))
	for _, sym := range symbols {
		rows = append(rows, symbolJSON(sym))
	}
	response := map[string]interface{}{
		"count":   len(rows),
		"symbols": rows,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	kindCounts := make(map[string]int, len(status.KindCounts))
	for k, n := range status.KindCounts {
		kindCounts[k.String()] = n
	}

	lastUpdated := ""
	if !status.LastUpdatedAt.IsZero() {
		lastUpdated = status.LastUpdatedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"symbols_count":   status.SymbolsCount,
			"kinds":           kindCounts,
			"last_updated_at": lastUpdated,
			"size_mb":         fmt.Sprintf("%.2f", status.SizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"unrecognized_kinds":  status.Health.UnknownKinds,
			"import_in_progress":  s.importer.Lock().Held(),
		},
		"build": map[string]interface{}{
			"server_version": ServerVersion,
			"schema_version": status.SchemaVersion,
			"build_mode":     storage.BuildMode,
			"sqlite_driver":  storage.DriverName,
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// symbolJSON renders a symbol for tool responses
func symbolJSON(sym types.Symbol) map[string]interface{} {
	return map[string]interface{}{
		"usr":       sym.USR,
		"name":      sym.Name,
		"kind":      sym.Kind.String(),
		"kind_code": sym.Kind.Code(),
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path names a readable regular file
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if info.IsDir() {
		return ErrIsDirectory
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getKindCode extracts a native kind code; JSON numbers arrive as float64
func getKindCode(args map[string]interface{}, key string) (types.KindCode, error) {
	var f float64
	switch v := args[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
	if f != math.Trunc(f) || f < 0 || f > math.MaxUint32 {
		return 0, fmt.Errorf("%v is not a valid kind code", f)
	}
	return types.KindCode(f), nil
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrIsDirectory     = errors.New("path is a directory, expected an export file")
)
