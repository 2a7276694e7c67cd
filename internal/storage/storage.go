package storage

import (
	"context"
	"time"

	"github.com/dshills/indexstore-mcp/pkg/types"
)

// Storage defines the interface for persisting extracted symbol records
type Storage interface {
	// Symbol operations
	UpsertSymbol(ctx context.Context, symbol types.Symbol) error
	GetSymbol(ctx context.Context, usr string) (types.Symbol, error)
	DeleteSymbol(ctx context.Context, usr string) error
	ListSymbols(ctx context.Context, filter *SymbolFilter) ([]types.Symbol, error)
	CountSymbols(ctx context.Context) (int, error)
	// PruneSymbols deletes symbols last written before the given time
	PruneSymbols(ctx context.Context, before time.Time) (int, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// SymbolFilter narrows ListSymbols. The zero value matches every symbol.
type SymbolFilter struct {
	Kinds      []types.SymbolKind // Match any of these kinds
	NamePrefix string
	Limit      int // 0 means no limit
}

// Status contains statistics about the symbol snapshot
type Status struct {
	SymbolsCount  int
	KindCounts    map[types.SymbolKind]int
	LastUpdatedAt time.Time // Zero if nothing was written yet
	SizeMB        float64
	SchemaVersion string
	Health        HealthStatus
}

// HealthStatus represents the health of the snapshot database
type HealthStatus struct {
	DatabaseAccessible bool
	UnknownKinds       int // Symbols whose kind code this build does not recognize
}

// rowHandle exposes a scanned row as a borrowed symbol handle. Its buffers are
// owned by database/sql and overwritten on the next call to Rows.Next.
type rowHandle struct {
	usr  []byte
	name []byte
	code int64
}

func (h *rowHandle) USR() []byte  { return h.usr }
func (h *rowHandle) Name() []byte { return h.name }

func (h *rowHandle) KindCode() types.KindCode {
	if h.code < 0 || h.code > int64(^types.KindCode(0)) {
		return types.KindCodeUnknown
	}
	return types.KindCode(h.code)
}
