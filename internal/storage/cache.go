package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/indexstore-mcp/pkg/types"
)

// DefaultCacheSize is the number of symbols kept by NewCachedStorage when size <= 0
const DefaultCacheSize = 4096

// CachedStorage keeps recently read symbols in an LRU keyed by USR.
// Writes through CachedStorage, or through a transaction it started, evict
// the affected entries once the write has reached the store.
//
// A read that misses the cache only fills it if no write finished while the
// read was in flight, so a row read just before a write cannot be cached
// after that write's eviction.
type CachedStorage struct {
	Storage
	symbols *lru.Cache[string, types.Symbol]

	mu         sync.Mutex
	generation uint64 // bumped by every finished write
}

// NewCachedStorage wraps origin with a symbol cache of the given size
func NewCachedStorage(origin Storage, size int) (*CachedStorage, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, types.Symbol](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol cache: %w", err)
	}
	return &CachedStorage{Storage: origin, symbols: cache}, nil
}

func (c *CachedStorage) GetSymbol(ctx context.Context, usr string) (types.Symbol, error) {
	if sym, ok := c.symbols.Get(usr); ok {
		return sym, nil
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	sym, err := c.Storage.GetSymbol(ctx, usr)
	if err != nil {
		return types.Symbol{}, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.symbols.Add(usr, sym)
	}
	c.mu.Unlock()
	return sym, nil
}

// evict drops usrs after a write finished; no usrs purges the whole cache
func (c *CachedStorage) evict(usrs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if len(usrs) == 0 {
		c.symbols.Purge()
		return
	}
	for _, usr := range usrs {
		c.symbols.Remove(usr)
	}
}

func (c *CachedStorage) UpsertSymbol(ctx context.Context, symbol types.Symbol) error {
	defer c.evict(symbol.USR)
	return c.Storage.UpsertSymbol(ctx, symbol)
}

func (c *CachedStorage) DeleteSymbol(ctx context.Context, usr string) error {
	defer c.evict(usr)
	return c.Storage.DeleteSymbol(ctx, usr)
}

// PruneSymbols empties the cache since the pruned USRs are not known
func (c *CachedStorage) PruneSymbols(ctx context.Context, before time.Time) (int, error) {
	defer c.evict()
	return c.Storage.PruneSymbols(ctx, before)
}

// Len reports how many symbols are cached
func (c *CachedStorage) Len() int {
	return c.symbols.Len()
}

func (c *CachedStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := c.Storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &cachedTx{Tx: tx, cache: c, touched: make(map[string]struct{})}, nil
}

// cachedTx remembers which USRs it wrote and evicts them once committed
type cachedTx struct {
	Tx
	cache *CachedStorage

	mu      sync.Mutex
	touched map[string]struct{}
	pruned  bool
}

func (t *cachedTx) touch(usr string) {
	t.mu.Lock()
	t.touched[usr] = struct{}{}
	t.mu.Unlock()
}

func (t *cachedTx) UpsertSymbol(ctx context.Context, symbol types.Symbol) error {
	t.touch(symbol.USR)
	return t.Tx.UpsertSymbol(ctx, symbol)
}

func (t *cachedTx) DeleteSymbol(ctx context.Context, usr string) error {
	t.touch(usr)
	return t.Tx.DeleteSymbol(ctx, usr)
}

func (t *cachedTx) PruneSymbols(ctx context.Context, before time.Time) (int, error) {
	t.mu.Lock()
	t.pruned = true
	t.mu.Unlock()
	return t.Tx.PruneSymbols(ctx, before)
}

func (t *cachedTx) Commit() error {
	if err := t.Tx.Commit(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pruned {
		t.cache.evict()
		return nil
	}
	usrs := make([]string, 0, len(t.touched))
	for usr := range t.touched {
		usrs = append(usrs, usr)
	}
	if len(usrs) > 0 {
		t.cache.evict(usrs...)
	}
	return nil
}
