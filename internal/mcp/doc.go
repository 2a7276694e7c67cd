// Package mcp implements the Model Context Protocol (MCP) server for indexstore-mcp.
//
// The server exposes the symbol taxonomy and a snapshot of symbols exported
// from a native index to AI coding assistants:
//   - list_symbol_kinds: Every kind with its native kind code
//   - resolve_kind_code: Translate a native kind code into a kind
//   - describe_symbol: Render a symbol as "<name> | <kind> | <usr>"
//   - import_symbols: Load a JSON Lines symbol export into the snapshot
//   - lookup_symbol: Find a snapshot symbol by USR
//   - list_symbols: List snapshot symbols by kind and name prefix
//   - get_status: Snapshot statistics and build information
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Tool: import_symbols
//
// The export holds one record per line with the native kind code:
//
//	{"usr":"s:4main3FooC","name":"Foo","kind":7}
//	{"usr":"c:@F@main","name":"main","kind":12}
//
//	Request:
//	{
//	  "name": "import_symbols",
//	  "arguments": {
//	    "path": "/tmp/export.jsonl",
//	    "batch_size": 500,
//	    "skip_unknown": false,
//	    "prune": false
//	  }
//	}
//
//	Response:
//	{
//	  "imported": true,
//	  "symbols_read": 2,
//	  "symbols_written": 2,
//	  "unknown_kinds": 0,
//	  "batches": 1
//	}
//
// Symbols whose code this build does not recognize are stored as "unknown".
// With prune, snapshot symbols missing from the export are deleted.
//
// # Tool: lookup_symbol
//
//	Request:
//	{
//	  "name": "lookup_symbol",
//	  "arguments": {"usr": "s:4main3FooC"}
//	}
//
//	Response:
//	{
//	  "found": true,
//	  "description": "Foo | class | s:4main3FooC",
//	  "symbol": {"usr": "s:4main3FooC", "name": "Foo", "kind": "class", "kind_code": 7}
//	}
//
// # Error Handling
//
// Handlers return *MCPError values:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid path",
//	    "data": {
//	      "param": "path",
//	      "reason": "path does not exist"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, malformed export)
//   - -32002: Import in progress
//   - -32005: Kind name not in the taxonomy
//
// # Configuration
//
// See ConfigFromEnv. The server logs to stderr; stdout is reserved for the
// protocol.
package mcp
