package importer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/indexstore-mcp/internal/storage"
	"github.com/dshills/indexstore-mcp/pkg/types"
)

// ErrImportInProgress is returned when another import holds the lock
var ErrImportInProgress = errors.New("import already in progress")

// Importer copies symbols out of engine handles into the snapshot store:
// read handle -> extract -> batch -> store
type Importer struct {
	storage storage.Storage
	lock    ImportLock
}

const (
	// DefaultBatchSize is the number of symbols committed per transaction
	DefaultBatchSize = 500
	// MaxBatchSize bounds BatchSize; larger values are clamped
	MaxBatchSize = 10000
)

// Config contains configuration for an import
type Config struct {
	// Workers bounds the batches in flight (default: runtime.NumCPU()).
	// SQLite storage has a single connection, so batch transactions still
	// commit one at a time; extra workers only let reading run ahead of writing.
	Workers     int
	BatchSize   int  // Symbols committed per transaction (default: DefaultBatchSize, max: MaxBatchSize)
	SkipUnknown bool // Drop symbols whose kind is unknown
	Prune       bool // Delete stored symbols the source did not contain
}

// Statistics contains statistics about the import operation
type Statistics struct {
	SymbolsRead      int
	SymbolsWritten   int
	SymbolsDuplicate int // Later records repeating an already seen USR
	SymbolsSkipped   int // Dropped because of SkipUnknown
	SymbolsPruned    int // Deleted because of Prune
	UnknownKinds     int
	BatchesCommitted int
	Duration         time.Duration
}

// New creates a new Importer instance
func New(store storage.Storage) *Importer {
	return &Importer{storage: store}
}

// Lock exposes the lock serializing imports on this Importer
func (imp *Importer) Lock() *ImportLock {
	return &imp.lock
}

func (c *Config) withDefaults() Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	return cfg
}

// Import drains src into storage. Each handle is copied with
// types.SymbolFromHandle before src advances. The first record for a USR wins;
// later duplicates are counted and dropped. With Prune, symbols not written by
// this import are deleted once every batch has committed. src is not closed.
func (imp *Importer) Import(ctx context.Context, src HandleSource, config *Config) (*Statistics, error) {
	if !imp.lock.TryAcquire() {
		return nil, ErrImportInProgress
	}
	defer imp.lock.Release()

	cfg := config.withDefaults()
	startTime := time.Now()
	stats := &Statistics{}

	var (
		written int32
		batches int32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	dispatch := func(batch []types.Symbol) {
		// Blocks while Workers batches are in flight
		g.Go(func() error {
			n, err := imp.writeBatch(gctx, batch)
			if err != nil {
				return err
			}
			atomic.AddInt32(&written, int32(n))
			atomic.AddInt32(&batches, 1)
			return nil
		})
	}

	seen := make(map[string]struct{})
	var batch []types.Symbol

	readErr := func() error {
		for src.Next() {
			if err := gctx.Err(); err != nil {
				return err
			}

			sym := types.SymbolFromHandle(src.Handle())
			stats.SymbolsRead++

			if _, dup := seen[sym.USR]; dup {
				stats.SymbolsDuplicate++
				continue
			}
			seen[sym.USR] = struct{}{}

			if sym.Kind == types.KindUnknown {
				stats.UnknownKinds++
				if cfg.SkipUnknown {
					stats.SymbolsSkipped++
					continue
				}
			}

			batch = append(batch, sym)
			if len(batch) == cfg.BatchSize {
				dispatch(batch)
				batch = nil
			}
		}
		if len(batch) > 0 {
			dispatch(batch)
		}
		if err := src.Err(); err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}
		return nil
	}()

	// Wait for in-flight batches even when reading failed
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to import symbols: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	if cfg.Prune {
		pruned, err := imp.storage.PruneSymbols(ctx, startTime)
		if err != nil {
			return nil, fmt.Errorf("failed to prune symbols: %w", err)
		}
		stats.SymbolsPruned = pruned
	}

	stats.SymbolsWritten = int(written)
	stats.BatchesCommitted = int(batches)
	stats.Duration = time.Since(startTime)
	return stats, nil
}

// writeBatch upserts one batch within a transaction
func (imp *Importer) writeBatch(ctx context.Context, batch []types.Symbol) (int, error) {
	tx, err := imp.storage.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sym := range batch {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		if err := tx.UpsertSymbol(ctx, sym); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(batch), nil
}
