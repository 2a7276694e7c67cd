// Package storage provides SQLite-based persistence for symbol records that
// were extracted from the native index engine.
//
// The database is a snapshot of adapter output keyed by USR. It is not the
// engine's own index and holds no occurrences or relations.
//
// # Database Schema
//
// Tables:
//   - symbols: USR, display name and native kind code per symbol
//   - symbol_kinds: the kind taxonomy (code, name) for ad hoc SQL
//   - schema_version: applied migrations
//
// Kinds are stored as native codes. A row whose code is not recognized by the
// running build reads back as types.KindUnknown, and filtering by
// KindUnknown matches such rows.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.indexstore/symbols.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.UpsertSymbol(ctx, types.NewSymbol("s:4main3FooC", "Foo", types.KindClass))
//
//	sym, err := db.GetSymbol(ctx, "s:4main3FooC")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // not in the snapshot
//	}
//
// # Reading Rows
//
// Rows are scanned into sql.RawBytes, whose memory the driver reuses for the
// next row. Each row is wrapped as a types.SymbolHandle and copied out with
// types.SymbolFromHandle before the cursor moves, the same contract the
// native engine imposes on its handles.
//
// ListSymbols returns symbols in (USR, name) order, the order defined by
// types.Symbol.Compare:
//
//	classes, err := db.ListSymbols(ctx, &storage.SymbolFilter{
//	    Kinds:      []types.SymbolKind{types.KindClass, types.KindStruct},
//	    NamePrefix: "NS",
//	    Limit:      50,
//	})
//
// # Transactions
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	for _, sym := range batch {
//	    if err := tx.UpsertSymbol(ctx, sym); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Caching
//
// CachedStorage adds an LRU in front of GetSymbol. Upserts and deletes made
// through it, or through transactions it started, evict the affected USRs.
//
// # Build Tags
//
// Pure Go build (default, or purego tag):
//
//   - Uses modernc.org/sqlite
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
//
// CGO build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo"
package storage
