// Package sqlite persists item rows in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"genecore/internal/itemstore/core"
)

var _ core.RowStore = (*Store)(nil)

const schema = `CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	organism_type TEXT NOT NULL,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store keeps one row per item in the items table.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating when needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "genecore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create items table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Upsert inserts or replaces the row in one statement.
func (s *Store) Upsert(ctx context.Context, row core.Row) error {
	payload := row.Payload
	if payload == nil {
		payload = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO items(id, root, organism_type, payload, updated_at) VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET root=excluded.root, organism_type=excluded.organism_type,
		payload=excluded.payload, updated_at=excluded.updated_at`,
		row.ID, row.Root, row.OrganismType, payload, stamp(row.UpdatedAt).Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", row.ID, err)
	}
	return nil
}

// Get loads one row.
func (s *Store) Get(ctx context.Context, id string) (core.Row, error) {
	var (
		row     core.Row
		updated string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, root, organism_type, payload, updated_at FROM items WHERE id = ?`, id).
		Scan(&row.ID, &row.Root, &row.OrganismType, &row.Payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Row{}, fmt.Errorf("item %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Row{}, fmt.Errorf("select item %s: %w", id, err)
	}
	if row.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return core.Row{}, fmt.Errorf("item %s updated_at: %w", id, err)
	}
	return row, nil
}

// Delete removes the row and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
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

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
