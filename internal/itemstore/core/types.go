// Package core defines the row-level contract shared by the relational item
// backends.
package core

import (
	"context"
	"errors"
	"time"
)

// Row is one persisted item: its identity plus the encoded tag tree.
type Row struct {
	ID           string
	Root         string
	OrganismType string
	Payload      []byte
	UpdatedAt    time.Time
}

// RowStore persists rows keyed by ID. Upsert replaces the whole row.
type RowStore interface {
	Upsert(ctx context.Context, row Row) error
	// Get returns ErrNotFound when id is missing.
	Get(ctx context.Context, id string) (Row, error)
	Delete(ctx context.Context, id string) (bool, error)
	// IDs returns every stored id in ascending order.
	IDs(ctx context.Context) ([]string, error)
	Close() error
}

// ErrNotFound is returned for missing rows.
var ErrNotFound = errors.New("itemstore: not found")
