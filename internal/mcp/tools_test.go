package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/indexstore-mcp/internal/importer"
	"github.com/dshills/indexstore-mcp/pkg/types"
)

// TestErrorCodes verifies MCP error codes are unique and negative
func TestErrorCodes(t *testing.T) {
	codes := map[string]int{
		"ErrorCodeInvalidParams":    ErrorCodeInvalidParams,
		"ErrorCodeInternalError":    ErrorCodeInternalError,
		"ErrorCodeImportInProgress": ErrorCodeImportInProgress,
		"ErrorCodeInvalidKind":      ErrorCodeInvalidKind,
	}

	seen := make(map[int]string)
	for name, code := range codes {
		assert.Less(t, code, 0, name)
		if other, dup := seen[code]; dup {
			t.Errorf("%s duplicates code %d of %s", name, code, other)
		}
		seen[code] = name
	}
}

func TestMCPError(t *testing.T) {
	err := newMCPError(ErrorCodeInvalidParams, "invalid params", map[string]interface{}{"param": "usr"})
	assert.EqualError(t, err, "MCP error -32602: invalid params")

	mcpErr, ok := err.(*MCPError)
	require.True(t, ok)
	assert.Equal(t, "usr", mcpErr.Data.(map[string]interface{})["param"])
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.jsonl")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{"empty", "", ErrPathRequired},
		{"relative", "export.jsonl", ErrPathNotAbsolute},
		{"missing", filepath.Join(dir, "missing.jsonl"), ErrPathNotFound},
		{"directory", dir, ErrIsDirectory},
		{"file", file, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePath(tt.path)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetKindCode(t *testing.T) {
	code, err := getKindCode(map[string]interface{}{"code": float64(1000)}, "code")
	require.NoError(t, err)
	assert.Equal(t, types.KindCodeCommentTag, code)

	code, err = getKindCode(map[string]interface{}{"code": float64(4294967295)}, "code")
	require.NoError(t, err)
	assert.Equal(t, types.KindCode(4294967295), code)

	for _, v := range []interface{}{float64(4294967296), float64(-2), 0.25, true} {
		_, err := getKindCode(map[string]interface{}{"code": v}, "code")
		assert.Error(t, err, "%v", v)
	}
}

func TestArgumentDefaults(t *testing.T) {
	args := map[string]interface{}{
		"flag":   true,
		"float":  float64(12),
		"int":    3,
		"string": "x",
	}

	assert.True(t, getBoolDefault(args, "flag", false))
	assert.True(t, getBoolDefault(args, "missing", true))
	assert.Equal(t, 12, getIntDefault(args, "float", 0))
	assert.Equal(t, 3, getIntDefault(args, "int", 0))
	assert.Equal(t, 9, getIntDefault(args, "string", 9))
	assert.Equal(t, "x", getStringDefault(args, "string", ""))
	assert.Equal(t, "d", getStringDefault(args, "int", "d"))
}

func TestToolDefinitions(t *testing.T) {
	describe := describeSymbolTool()
	assert.Equal(t, "describe_symbol", describe.Name)
	assert.ElementsMatch(t, []string{"usr", "name", "kind"}, describe.InputSchema.Required)

	kindProp := describe.InputSchema.Properties["kind"].(map[string]interface{})
	assert.Len(t, kindProp["enum"], len(types.AllSymbolKinds()))

	importProps := importSymbolsTool().InputSchema.Properties
	batch := importProps["batch_size"].(map[string]interface{})
	assert.Equal(t, importer.MaxBatchSize, batch["maximum"])
	assert.Contains(t, importProps, "prune")

	list := listSymbolsTool()
	assert.Empty(t, list.InputSchema.Required)
}
