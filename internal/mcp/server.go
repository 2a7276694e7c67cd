package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/indexstore-mcp/internal/importer"
	"github.com/dshills/indexstore-mcp/internal/storage"
	"github.com/dshills/indexstore-mcp/internal/watcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "indexstore-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.indexstore"
)

// Config holds server settings
type Config struct {
	DBPath        string // Directory holding symbols.db
	CacheSize     int    // Symbols kept in the lookup cache
	ImportWorkers int    // Concurrent batch writers per import
	WatchExport   string // Export re-imported whenever it changes (optional)
}

// ConfigFromEnv reads the server configuration from environment variables:
//   - INDEXSTORE_DB_PATH: database directory (default: ~/.indexstore)
//   - INDEXSTORE_CACHE_SIZE: lookup cache entries (default: storage.DefaultCacheSize)
//   - INDEXSTORE_IMPORT_WORKERS: import concurrency (default: number of CPUs)
//   - INDEXSTORE_WATCH_EXPORT: absolute path of an export to keep imported
func ConfigFromEnv() Config {
	cfg := Config{
		DBPath:    DefaultDBPath,
		CacheSize: storage.DefaultCacheSize,
	}
	if v := strings.TrimSpace(os.Getenv("INDEXSTORE_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if n, err := strconv.Atoi(os.Getenv("INDEXSTORE_CACHE_SIZE")); err == nil && n > 0 {
		cfg.CacheSize = n
	}
	if n, err := strconv.Atoi(os.Getenv("INDEXSTORE_IMPORT_WORKERS")); err == nil && n > 0 {
		cfg.ImportWorkers = n
	}
	cfg.WatchExport = strings.TrimSpace(os.Getenv("INDEXSTORE_WATCH_EXPORT"))
	return cfg
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	importer *importer.Importer
	workers  int
	watcher  *watcher.Watcher
}

// expandDBPath resolves a leading ~ and falls back to the default directory
func expandDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if dbPath == "~" || strings.HasPrefix(dbPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, strings.TrimPrefix(dbPath, "~"))
	}
	return dbPath, nil
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	dbPath, err := expandDBPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dbPath, "symbols.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cached, err := storage.NewCachedStorage(store, cfg.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithRecovery(),
	)

	s := &Server{
		mcp:      mcpServer,
		storage:  cached,
		importer: importer.New(cached),
		workers:  cfg.ImportWorkers,
	}

	if err := s.registerTools(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	if cfg.WatchExport != "" {
		w, err := watcher.New(cfg.WatchExport, watcher.DefaultDebounce, s.reimport)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to watch export: %w", err)
		}
		s.watcher = w
	}

	return s, nil
}

// Close stops the export watcher and releases the database
func (s *Server) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	return s.storage.Close()
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()

	if s.watcher != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = s.watcher.Run(watchCtx) }()
	}

	return server.ServeStdio(s.mcp)
}

// importFile imports the JSONL export at path
func (s *Server) importFile(ctx context.Context, path string, config *importer.Config) (*importer.Statistics, error) {
	src, err := importer.OpenJSONLFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	return s.importer.Import(ctx, src, config)
}

// reimport makes the snapshot mirror a watched export, pruning symbols the
// export no longer contains
func (s *Server) reimport(ctx context.Context, path string) error {
	stats, err := s.importFile(ctx, path, &importer.Config{Workers: s.workers, Prune: true})
	if err != nil {
		return err
	}
	log.Printf("Imported %d symbols from %s in %v (%d pruned)",
		stats.SymbolsWritten, path, stats.Duration, stats.SymbolsPruned)
	return nil
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	// Taxonomy
	s.mcp.AddTool(listSymbolKindsTool(), s.handleListSymbolKinds)
	s.mcp.AddTool(resolveKindCodeTool(), s.handleResolveKindCode)
	s.mcp.AddTool(describeSymbolTool(), s.handleDescribeSymbol)

	// Snapshot
	s.mcp.AddTool(importSymbolsTool(), s.handleImportSymbols)
	s.mcp.AddTool(lookupSymbolTool(), s.handleLookupSymbol)
	s.mcp.AddTool(listSymbolsTool(), s.handleListSymbols)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	return nil
}
