package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/indexstore-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; this also keeps :memory: databases
	// on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Symbol operations

// upsertSymbolWithQuerier is the internal implementation that uses a querier
func upsertSymbolWithQuerier(ctx context.Context, q querier, symbol types.Symbol) error {
	query := `
		INSERT INTO symbols (usr, name, kind_code, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(usr) DO UPDATE SET
			name = excluded.name,
			kind_code = excluded.kind_code,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		symbol.USR, symbol.Name, int64(symbol.Kind.Code()), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert symbol %s: %w", symbol.USR, err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertSymbol(ctx context.Context, symbol types.Symbol) error {
	return upsertSymbolWithQuerier(ctx, s.querier(), symbol)
}

// scanSymbols copies every remaining row out of rows. Columns are scanned into
// sql.RawBytes, which the driver reuses on the next call to Next, so each row
// goes through types.SymbolFromHandle before the cursor advances.
func scanSymbols(rows *sql.Rows) ([]types.Symbol, error) {
	defer func() { _ = rows.Close() }()

	var (
		usr, name sql.RawBytes
		h         rowHandle
		symbols   []types.Symbol
	)
	for rows.Next() {
		if err := rows.Scan(&usr, &name, &h.code); err != nil {
			return nil, err
		}
		h.usr, h.name = usr, name
		symbols = append(symbols, types.SymbolFromHandle(&h))
	}
	return symbols, rows.Err()
}

// getSymbolWithQuerier is the internal implementation that uses a querier
func getSymbolWithQuerier(ctx context.Context, q querier, usr string) (types.Symbol, error) {
	// QueryRow does not allow RawBytes, so go through Rows
	rows, err := q.QueryContext(ctx, `SELECT usr, name, kind_code FROM symbols WHERE usr = ?`, usr)
	if err != nil {
		return types.Symbol{}, err
	}
	symbols, err := scanSymbols(rows)
	if err != nil {
		return types.Symbol{}, err
	}
	if len(symbols) == 0 {
		return types.Symbol{}, ErrNotFound
	}
	return symbols[0], nil
}

func (s *SQLiteStorage) GetSymbol(ctx context.Context, usr string) (types.Symbol, error) {
	return getSymbolWithQuerier(ctx, s.querier(), usr)
}

// deleteSymbolWithQuerier is the internal implementation that uses a querier
func deleteSymbolWithQuerier(ctx context.Context, q querier, usr string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM symbols WHERE usr = ?", usr)
	if err != nil {
		return fmt.Errorf("failed to delete symbol %s: %w", usr, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// pruneSymbolsWithQuerier is the internal implementation that uses a querier
func pruneSymbolsWithQuerier(ctx context.Context, q querier, before time.Time) (int, error) {
	result, err := q.ExecContext(ctx, "DELETE FROM symbols WHERE updated_at < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune symbols: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStorage) PruneSymbols(ctx context.Context, before time.Time) (int, error) {
	return pruneSymbolsWithQuerier(ctx, s.querier(), before)
}

func (s *SQLiteStorage) DeleteSymbol(ctx context.Context, usr string) error {
	return deleteSymbolWithQuerier(ctx, s.querier(), usr)
}

// knownCodes lists every kind code this build recognizes except unknown
func knownCodes() []interface{} {
	var codes []interface{}
	for _, k := range types.AllSymbolKinds() {
		if k != types.KindUnknown {
			codes = append(codes, int64(k.Code()))
		}
	}
	return codes
}

// buildKindClause builds the WHERE fragment for a kind filter. Unknown matches
// every code this build cannot decode, which is how SymbolFromHandle reads them.
func buildKindClause(kinds []types.SymbolKind) (string, []interface{}) {
	var (
		parts []string
		args  []interface{}
	)
	seen := make(map[types.SymbolKind]bool)
	for _, k := range kinds {
		if !k.IsValid() {
			k = types.KindUnknown
		}
		if seen[k] {
			continue
		}
		seen[k] = true

		if k == types.KindUnknown {
			codes := knownCodes()
			parts = append(parts, "kind_code NOT IN ("+placeholders(len(codes))+")")
			args = append(args, codes...)
			continue
		}
		parts = append(parts, "kind_code = ?")
		args = append(args, int64(k.Code()))
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// escapeLike escapes LIKE wildcards so a prefix is matched literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// listSymbolsWithQuerier is the internal implementation that uses a querier
func listSymbolsWithQuerier(ctx context.Context, q querier, filter *SymbolFilter) ([]types.Symbol, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter == nil {
		filter = &SymbolFilter{}
	}

	if len(filter.Kinds) > 0 {
		clause, kindArgs := buildKindClause(filter.Kinds)
		where = append(where, clause)
		args = append(args, kindArgs...)
	}
	if filter.NamePrefix != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(filter.NamePrefix)+"%")
	}

	query := "SELECT usr, name, kind_code FROM symbols"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// Same key as types.Symbol.Compare
	query += " ORDER BY usr, name"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	return scanSymbols(rows)
}

func (s *SQLiteStorage) ListSymbols(ctx context.Context, filter *SymbolFilter) ([]types.Symbol, error) {
	return listSymbolsWithQuerier(ctx, s.querier(), filter)
}

// countSymbolsWithQuerier is the internal implementation that uses a querier
func countSymbolsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStorage) CountSymbols(ctx context.Context) (int, error) {
	return countSymbolsWithQuerier(ctx, s.querier())
}

// Status operations

// getStatusWithQuerier is the internal implementation that uses a querier
func getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{
		KindCounts: make(map[types.SymbolKind]int),
	}

	rows, err := q.QueryContext(ctx, "SELECT kind_code, COUNT(*) FROM symbols GROUP BY kind_code")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var code int64
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		h := rowHandle{code: code}
		kind := types.SymbolKindFromCode(h.KindCode())
		if kind == types.KindUnknown && code != int64(types.KindCodeUnknown) {
			status.Health.UnknownKinds += count
		}
		status.KindCounts[kind] += count
		status.SymbolsCount += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var lastUpdated sql.NullInt64
	if err := q.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM symbols").Scan(&lastUpdated); err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		status.LastUpdatedAt = time.Unix(0, lastUpdated.Int64)
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	version, err := schemaVersion(ctx, q)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version
	status.Health.DatabaseAccessible = true

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return getStatusWithQuerier(ctx, s.querier())
}

// Transaction implementations

func (t *sqliteTx) UpsertSymbol(ctx context.Context, symbol types.Symbol) error {
	return upsertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) GetSymbol(ctx context.Context, usr string) (types.Symbol, error) {
	return getSymbolWithQuerier(ctx, t.querier(), usr)
}

func (t *sqliteTx) DeleteSymbol(ctx context.Context, usr string) error {
	return deleteSymbolWithQuerier(ctx, t.querier(), usr)
}

func (t *sqliteTx) PruneSymbols(ctx context.Context, before time.Time) (int, error) {
	return pruneSymbolsWithQuerier(ctx, t.querier(), before)
}

func (t *sqliteTx) ListSymbols(ctx context.Context, filter *SymbolFilter) ([]types.Symbol, error) {
	return listSymbolsWithQuerier(ctx, t.querier(), filter)
}

func (t *sqliteTx) CountSymbols(ctx context.Context) (int, error) {
	return countSymbolsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return getStatusWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
