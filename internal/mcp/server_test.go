package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/suite"

	"github.com/dshills/indexstore-mcp/internal/importer"
	"github.com/dshills/indexstore-mcp/internal/storage"
	"github.com/dshills/indexstore-mcp/pkg/types"
)

// ToolsTestSuite exercises the tool handlers against a real database
type ToolsTestSuite struct {
	suite.Suite
	server *Server
	dir    string
	ctx    context.Context
}

// SetupTest creates a fresh server for every test
func (s *ToolsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()

	srv, err := NewServer(Config{DBPath: s.dir, CacheSize: 16, ImportWorkers: 2})
	s.Require().NoError(err)
	s.server = srv
}

// TearDownTest closes the database
func (s *ToolsTestSuite) TearDownTest() {
	if s.server != nil {
		_ = s.server.Close()
	}
}

func TestToolsTestSuite(t *testing.T) {
	suite.Run(t, new(ToolsTestSuite))
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// decodeResult unmarshals the text payload of a tool result
func (s *ToolsTestSuite) decodeResult(result *mcp.CallToolResult) map[string]interface{} {
	s.Require().NotNil(result)
	s.Require().NotEmpty(result.Content)

	var text string
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		text = c.Text
	case *mcp.TextContent:
		text = c.Text
	default:
		s.FailNow(fmt.Sprintf("unexpected content type %T", c))
	}

	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal([]byte(text), &out))
	return out
}

func (s *ToolsTestSuite) requireMCPError(err error, code int) {
	s.Require().Error(err)
	var mcpErr *MCPError
	s.Require().True(errors.As(err, &mcpErr), "expected MCPError, got %T", err)
	s.Equal(code, mcpErr.Code)
}

// writeExport writes a JSONL export into the test directory
func (s *ToolsTestSuite) writeExport(lines ...string) string {
	path := filepath.Join(s.dir, "export.jsonl")
	s.Require().NoError(os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func (s *ToolsTestSuite) importExport(lines ...string) map[string]interface{} {
	path := s.writeExport(lines...)
	result, err := s.server.handleImportSymbols(s.ctx, callRequest("import_symbols", map[string]interface{}{
		"path":       path,
		"batch_size": float64(2),
	}))
	s.Require().NoError(err)
	return s.decodeResult(result)
}

func (s *ToolsTestSuite) TestListSymbolKinds() {
	result, err := s.server.handleListSymbolKinds(s.ctx, callRequest("list_symbol_kinds", nil))
	s.Require().NoError(err)

	out := s.decodeResult(result)
	s.Equal(float64(28), out["count"])

	kinds := out["kinds"].([]interface{})
	first := kinds[0].(map[string]interface{})
	s.Equal("unknown", first["kind"])
	s.Equal(float64(0), first["code"])

	last := kinds[len(kinds)-1].(map[string]interface{})
	s.Equal("commentTag", last["kind"])
	s.Equal(float64(1000), last["code"])
}

func (s *ToolsTestSuite) TestResolveKindCode() {
	tests := []struct {
		name       string
		code       interface{}
		kind       string
		recognized bool
	}{
		{"class", float64(7), "class", true},
		{"comment tag", float64(1000), "commentTag", true},
		{"explicit unknown", float64(0), "unknown", true},
		{"future code", float64(4242), "unknown", false},
		{"int argument", 26, "using", true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			result, err := s.server.handleResolveKindCode(s.ctx, callRequest("resolve_kind_code", map[string]interface{}{
				"code": tt.code,
			}))
			s.Require().NoError(err)

			out := s.decodeResult(result)
			s.Equal(tt.kind, out["kind"])
			s.Equal(tt.recognized, out["recognized"])
		})
	}
}

func (s *ToolsTestSuite) TestResolveKindCode_Invalid() {
	for _, code := range []interface{}{float64(-1), 1.5, float64(1 << 33), "7", nil} {
		_, err := s.server.handleResolveKindCode(s.ctx, callRequest("resolve_kind_code", map[string]interface{}{
			"code": code,
		}))
		s.requireMCPError(err, ErrorCodeInvalidParams)
	}

	_, err := s.server.handleResolveKindCode(s.ctx, mcp.CallToolRequest{})
	s.requireMCPError(err, ErrorCodeInvalidParams)
}

func (s *ToolsTestSuite) TestDescribeSymbol() {
	result, err := s.server.handleDescribeSymbol(s.ctx, callRequest("describe_symbol", map[string]interface{}{
		"usr":  "s:4main3FooC",
		"name": "Foo",
		"kind": "class",
	}))
	s.Require().NoError(err)

	out := s.decodeResult(result)
	s.Equal("Foo | class | s:4main3FooC", out["description"])
	sym := out["symbol"].(map[string]interface{})
	s.Equal(float64(types.KindCodeClass), sym["kind_code"])
}

func (s *ToolsTestSuite) TestDescribeSymbol_EmptyFields() {
	result, err := s.server.handleDescribeSymbol(s.ctx, callRequest("describe_symbol", map[string]interface{}{
		"usr":  "",
		"name": "",
		"kind": "unknown",
	}))
	s.Require().NoError(err)
	s.Equal(" | unknown | ", s.decodeResult(result)["description"])
}

func (s *ToolsTestSuite) TestDescribeSymbol_InvalidKind() {
	_, err := s.server.handleDescribeSymbol(s.ctx, callRequest("describe_symbol", map[string]interface{}{
		"usr":  "s:1",
		"name": "x",
		"kind": "Class",
	}))
	s.requireMCPError(err, ErrorCodeInvalidKind)

	_, err = s.server.handleDescribeSymbol(s.ctx, callRequest("describe_symbol", map[string]interface{}{
		"name": "x",
		"kind": "class",
	}))
	s.requireMCPError(err, ErrorCodeInvalidParams)
}

func (s *ToolsTestSuite) TestImportAndLookup() {
	out := s.importExport(
		`{"usr":"s:4main3FooC","name":"Foo","kind":7}`,
		`{"usr":"c:@F@main","name":"main","kind":12}`,
		`{"usr":"s:4main3BarV","name":"Bar","kind":6}`,
		`{"usr":"s:future","name":"Later","kind":4242}`,
	)
	s.Equal(true, out["imported"])
	s.Equal(float64(4), out["symbols_written"])
	s.Equal(float64(1), out["unknown_kinds"])
	s.Equal(float64(2), out["batches"])

	result, err := s.server.handleLookupSymbol(s.ctx, callRequest("lookup_symbol", map[string]interface{}{
		"usr": "c:@F@main",
	}))
	s.Require().NoError(err)
	found := s.decodeResult(result)
	s.Equal(true, found["found"])
	s.Equal("main | function | c:@F@main", found["description"])

	result, err = s.server.handleLookupSymbol(s.ctx, callRequest("lookup_symbol", map[string]interface{}{
		"usr": "s:future",
	}))
	s.Require().NoError(err)
	s.Equal("Later | unknown | s:future", s.decodeResult(result)["description"])
}

func (s *ToolsTestSuite) TestLookupSymbol_NotFound() {
	result, err := s.server.handleLookupSymbol(s.ctx, callRequest("lookup_symbol", map[string]interface{}{
		"usr": "s:missing",
	}))
	s.Require().NoError(err)
	s.Equal(false, s.decodeResult(result)["found"])

	_, err = s.server.handleLookupSymbol(s.ctx, callRequest("lookup_symbol", map[string]interface{}{}))
	s.requireMCPError(err, ErrorCodeInvalidParams)
}

func (s *ToolsTestSuite) TestImportSymbols_InvalidPath() {
	tests := []struct {
		name string
		path interface{}
	}{
		{"missing", nil},
		{"empty", ""},
		{"relative", "export.jsonl"},
		{"nonexistent", filepath.Join(s.dir, "nope.jsonl")},
		{"directory", s.dir},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			args := map[string]interface{}{}
			if tt.path != nil {
				args["path"] = tt.path
			}
			_, err := s.server.handleImportSymbols(s.ctx, callRequest("import_symbols", args))
			s.requireMCPError(err, ErrorCodeInvalidParams)
		})
	}
}

func (s *ToolsTestSuite) TestImportSymbols_MalformedExport() {
	path := s.writeExport(`{"usr":"s:1","name":"One","kind":1}`, `{broken`)
	_, err := s.server.handleImportSymbols(s.ctx, callRequest("import_symbols", map[string]interface{}{
		"path": path,
	}))
	s.requireMCPError(err, ErrorCodeInternalError)
}

func (s *ToolsTestSuite) TestImportSymbols_InProgress() {
	s.Require().True(s.server.importer.Lock().TryAcquire())
	defer s.server.importer.Lock().Release()

	path := s.writeExport(`{"usr":"s:1","name":"One","kind":1}`)
	_, err := s.server.handleImportSymbols(s.ctx, callRequest("import_symbols", map[string]interface{}{
		"path": path,
	}))
	s.requireMCPError(err, ErrorCodeImportInProgress)
}

func (s *ToolsTestSuite) TestListSymbols() {
	s.importExport(
		`{"usr":"s:c","name":"Gamma","kind":7}`,
		`{"usr":"s:a","name":"alpha","kind":12}`,
		`{"usr":"s:b","name":"Beta","kind":7}`,
		`{"usr":"s:d","name":"Alps","kind":6}`,
	)

	tests := []struct {
		name string
		args map[string]interface{}
		usrs []string
	}{
		{"all ordered", nil, []string{"s:a", "s:b", "s:c", "s:d"}},
		{"by kind", map[string]interface{}{"kinds": []interface{}{"class"}}, []string{"s:b", "s:c"}},
		{"by prefix", map[string]interface{}{"prefix": "al"}, []string{"s:a", "s:d"}},
		{"limited", map[string]interface{}{"limit": float64(2)}, []string{"s:a", "s:b"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			result, err := s.server.handleListSymbols(s.ctx, callRequest("list_symbols", tt.args))
			s.Require().NoError(err)

			out := s.decodeResult(result)
			rows := out["symbols"].([]interface{})
			var got []string
			for _, r := range rows {
				got = append(got, r.(map[string]interface{})["usr"].(string))
			}
			s.Equal(tt.usrs, got)
			s.Equal(float64(len(tt.usrs)), out["count"])
		})
	}
}

func (s *ToolsTestSuite) TestListSymbols_InvalidArguments() {
	_, err := s.server.handleListSymbols(s.ctx, callRequest("list_symbols", map[string]interface{}{
		"limit": float64(0),
	}))
	s.requireMCPError(err, ErrorCodeInvalidParams)

	_, err = s.server.handleListSymbols(s.ctx, callRequest("list_symbols", map[string]interface{}{
		"kinds": []interface{}{"notAKind"},
	}))
	s.requireMCPError(err, ErrorCodeInvalidKind)
}

func (s *ToolsTestSuite) TestGetStatus() {
	s.importExport(
		`{"usr":"s:1","name":"One","kind":7}`,
		`{"usr":"s:2","name":"Two","kind":7}`,
		`{"usr":"s:3","name":"Three","kind":9999}`,
	)

	result, err := s.server.handleGetStatus(s.ctx, callRequest("get_status", nil))
	s.Require().NoError(err)
	out := s.decodeResult(result)

	stats := out["statistics"].(map[string]interface{})
	s.Equal(float64(3), stats["symbols_count"])
	kinds := stats["kinds"].(map[string]interface{})
	s.Equal(float64(2), kinds["class"])
	s.Equal(float64(1), kinds["unknown"])
	s.NotEmpty(stats["last_updated_at"])

	health := out["health"].(map[string]interface{})
	s.Equal(true, health["database_accessible"])
	// Imported symbols are copied out as unknown and stored with code 0
	s.Equal(float64(0), health["unrecognized_kinds"])
	s.Equal(false, health["import_in_progress"])

	build := out["build"].(map[string]interface{})
	s.Equal(storage.DriverName, build["sqlite_driver"])
	s.Equal(storage.CurrentSchemaVersion, build["schema_version"])
}

func (s *ToolsTestSuite) TestReimport() {
	path := s.writeExport(`{"usr":"s:1","name":"One","kind":7}`)
	s.Require().NoError(s.server.reimport(s.ctx, path))

	sym, err := s.server.storage.GetSymbol(s.ctx, "s:1")
	s.Require().NoError(err)
	s.Equal(types.NewSymbol("s:1", "One", types.KindClass), sym)

	// Renamed symbol replaces the cached copy
	path = s.writeExport(`{"usr":"s:1","name":"Uno","kind":7}`)
	s.Require().NoError(s.server.reimport(s.ctx, path))
	sym, err = s.server.storage.GetSymbol(s.ctx, "s:1")
	s.Require().NoError(err)
	s.Equal("Uno", sym.Name)
}

func (s *ToolsTestSuite) TestReimport_PrunesRemovedSymbols() {
	path := s.writeExport(
		`{"usr":"s:1","name":"One","kind":7}`,
		`{"usr":"s:2","name":"Two","kind":7}`,
	)
	s.Require().NoError(s.server.reimport(s.ctx, path))
	_, err := s.server.storage.GetSymbol(s.ctx, "s:2")
	s.Require().NoError(err)
	time.Sleep(time.Millisecond)

	path = s.writeExport(`{"usr":"s:1","name":"One","kind":7}`)
	s.Require().NoError(s.server.reimport(s.ctx, path))

	_, err = s.server.storage.GetSymbol(s.ctx, "s:2")
	s.ErrorIs(err, storage.ErrNotFound)
	count, err := s.server.storage.CountSymbols(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *ToolsTestSuite) TestImportSymbols_BatchSizeBounds() {
	path := s.writeExport(`{"usr":"s:1","name":"One","kind":7}`)

	for _, size := range []float64{0, -5, importer.MaxBatchSize + 1, 1 << 50} {
		_, err := s.server.handleImportSymbols(s.ctx, callRequest("import_symbols", map[string]interface{}{
			"path":       path,
			"batch_size": size,
		}))
		s.requireMCPError(err, ErrorCodeInvalidParams)
	}

	result, err := s.server.handleImportSymbols(s.ctx, callRequest("import_symbols", map[string]interface{}{
		"path":       path,
		"batch_size": float64(importer.MaxBatchSize),
	}))
	s.Require().NoError(err)
	s.Equal(float64(1), s.decodeResult(result)["symbols_written"])
}

func (s *ToolsTestSuite) TestImportSymbols_Prune() {
	s.importExport(
		`{"usr":"s:1","name":"One","kind":7}`,
		`{"usr":"s:2","name":"Two","kind":7}`,
	)
	time.Sleep(time.Millisecond)

	path := s.writeExport(`{"usr":"s:2","name":"Two","kind":7}`)
	result, err := s.server.handleImportSymbols(s.ctx, callRequest("import_symbols", map[string]interface{}{
		"path":  path,
		"prune": true,
	}))
	s.Require().NoError(err)
	s.Equal(float64(1), s.decodeResult(result)["symbols_pruned"])

	result, err = s.server.handleLookupSymbol(s.ctx, callRequest("lookup_symbol", map[string]interface{}{
		"usr": "s:1",
	}))
	s.Require().NoError(err)
	s.Equal(false, s.decodeResult(result)["found"])
}

func TestNewServer_WatchExport(t *testing.T) {
	dir := t.TempDir()

	_, err := NewServer(Config{DBPath: dir, WatchExport: "relative.jsonl"})
	if err == nil {
		t.Fatal("expected error for relative export path")
	}

	srv, err := NewServer(Config{DBPath: dir, WatchExport: filepath.Join(dir, "export.jsonl")})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer srv.Close()
	if srv.watcher == nil {
		t.Error("watcher not created")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("INDEXSTORE_DB_PATH", "/tmp/indexstore-test")
	t.Setenv("INDEXSTORE_CACHE_SIZE", "64")
	t.Setenv("INDEXSTORE_IMPORT_WORKERS", "not-a-number")
	t.Setenv("INDEXSTORE_WATCH_EXPORT", " /tmp/export.jsonl ")

	cfg := ConfigFromEnv()
	if cfg.DBPath != "/tmp/indexstore-test" {
		t.Errorf("DBPath = %q, want /tmp/indexstore-test", cfg.DBPath)
	}
	if cfg.CacheSize != 64 {
		t.Errorf("CacheSize = %d, want 64", cfg.CacheSize)
	}
	if cfg.ImportWorkers != 0 {
		t.Errorf("ImportWorkers = %d, want 0 for invalid value", cfg.ImportWorkers)
	}
	if cfg.WatchExport != "/tmp/export.jsonl" {
		t.Errorf("WatchExport = %q, want /tmp/export.jsonl", cfg.WatchExport)
	}
}

func TestExpandDBPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", filepath.Join(home, ".indexstore")},
		{"~", home},
		{"~/data", filepath.Join(home, "data")},
		{"/var/lib/indexstore", "/var/lib/indexstore"},
	}
	for _, tt := range tests {
		got, err := expandDBPath(tt.in)
		if err != nil {
			t.Fatalf("expandDBPath(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("expandDBPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
