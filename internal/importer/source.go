package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dshills/indexstore-mcp/pkg/types"
)

// HandleSource iterates over symbols owned by the native index engine.
// The handle returned by Handle is only valid until the next call to Next.
type HandleSource interface {
	Next() bool
	Handle() types.SymbolHandle
	Err() error
	Close() error
}

// maxLineSize bounds a single export record
const maxLineSize = 1 << 20

// exportRecord is one line of an engine export
type exportRecord struct {
	USR  string         `json:"usr"`
	Name string         `json:"name"`
	Kind types.KindCode `json:"kind"`
}

// bufferHandle holds NUL-terminated copies of the current record. The buffers
// are reused for every record, like the engine's own handles.
type bufferHandle struct {
	usr  []byte
	name []byte
	code types.KindCode
}

func (h *bufferHandle) USR() []byte              { return h.usr }
func (h *bufferHandle) Name() []byte             { return h.name }
func (h *bufferHandle) KindCode() types.KindCode { return h.code }

func (h *bufferHandle) reset(rec *exportRecord) {
	h.usr = append(append(h.usr[:0], rec.USR...), 0)
	h.name = append(append(h.name[:0], rec.Name...), 0)
	h.code = rec.Kind
}

// JSONLSource reads an engine export with one JSON object per line:
//
//	{"usr":"s:4main3FooC","name":"Foo","kind":7}
//
// Blank lines are ignored. The first malformed line stops iteration and is
// reported by Err.
type JSONLSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	handle  bufferHandle
	line    int
	err     error
}

// NewJSONLSource reads records from r
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	src := &JSONLSource{scanner: scanner}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// OpenJSONLFile opens an export file as a HandleSource
func OpenJSONLFile(path string) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	return NewJSONLSource(f), nil
}

func (s *JSONLSource) Next() bool {
	if s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec exportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			s.err = fmt.Errorf("line %d: %w", s.line, err)
			return false
		}
		s.handle.reset(&rec)
		return true
	}
	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("line %d: %w", s.line+1, err)
	}
	return false
}

func (s *JSONLSource) Handle() types.SymbolHandle {
	return &s.handle
}

func (s *JSONLSource) Err() error {
	return s.err
}

// Line reports the number of lines consumed so far
func (s *JSONLSource) Line() int {
	return s.line
}

func (s *JSONLSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
