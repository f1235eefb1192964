// Package postgres persists item rows in Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"genecore/internal/itemstore/core"
)

var _ core.RowStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/genecore?sslmode=disable"
)

const schema = `CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	organism_type TEXT NOT NULL,
	payload BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store keeps one row per item in the items table.
type Store struct {
	db *sql.DB
}

// NewStore connects with dsn (falls back to defaultDSN) and ensures the
// items table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create items table: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert inserts or replaces the row in one statement.
func (s *Store) Upsert(ctx context.Context, row core.Row) error {
	payload := row.Payload
	if payload == nil {
		payload = []byte{}
	}
	updated := row.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO items (id, root, organism_type, payload, updated_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET root = EXCLUDED.root, organism_type = EXCLUDED.organism_type,
		payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		row.ID, row.Root, row.OrganismType, payload, updated)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", row.ID, err)
	}
	return nil
}

// Get loads one row.
func (s *Store) Get(ctx context.Context, id string) (core.Row, error) {
	var row core.Row
	err := s.db.QueryRowContext(ctx, `SELECT id, root, organism_type, payload, updated_at FROM items WHERE id = $1`, id).
		Scan(&row.ID, &row.Root, &row.OrganismType, &row.Payload, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Row{}, fmt.Errorf("item %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Row{}, fmt.Errorf("select item %s: %w", id, err)
	}
	return row, nil
}

// Delete removes the row and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete item %s: %w", id, err)
	}
	return n > 0, nil
}

// IDs lists stored ids in order.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select ids: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
