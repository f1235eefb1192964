// Package itemstore persists host items and their tag trees. The tag tree
// travels as a tagtree.Marshal payload; the genome inside it is whatever
// layout the save format dispatcher last wrote.
package itemstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"genecore/internal/blob"
	"genecore/internal/config"
	"genecore/internal/infra/persistence/postgres"
	"genecore/internal/infra/persistence/sqlite"
	"genecore/internal/itemstore/core"
	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

// ErrNotFound is returned by Load for unknown ids.
var ErrNotFound = core.ErrNotFound

// ErrInvalidID is returned for empty ids or ids containing a slash.
var ErrInvalidID = errors.New("itemstore: invalid item id")

// Repository stores items by ID. Save replaces the stored item as a whole.
type Repository interface {
	Save(ctx context.Context, item *genetics.Item) error
	Load(ctx context.Context, id string) (*genetics.Item, error)
	Delete(ctx context.Context, id string) (bool, error)
	// List returns stored ids in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Open selects the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewRowRepository(s), nil
	case config.DriverPostgres:
		s, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return NewRowRepository(s), nil
	default:
		store, err := blob.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewBlobRepository(store), nil
	}
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func encode(item *genetics.Item) ([]byte, error) {
	if item == nil {
		return nil, fmt.Errorf("itemstore: nil item")
	}
	if err := checkID(item.ID); err != nil {
		return nil, err
	}
	payload, err := tagtree.Marshal(item.Tag())
	if err != nil {
		return nil, fmt.Errorf("encode item %s: %w", item.ID, err)
	}
	return payload, nil
}

func decode(id, root, typ string, payload []byte) (*genetics.Item, error) {
	tag, err := tagtree.Unmarshal(payload)
	if err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}
	item := genetics.NewItem(id, root, genetics.OrganismType(typ))
	item.SetTag(tag)
	return item, nil
}

const (
	blobPrefix  = "items/"
	blobSuffix  = ".tag"
	contentType = "application/cbor"
	metaRoot    = "root"
	metaType    = "organism_type"
)

// BlobRepository keeps each item as one blob under items/<id>.tag with the
// root and organism type in the blob metadata.
type BlobRepository struct {
	store blob.Store
}

// NewBlobRepository wraps store.
func NewBlobRepository(store blob.Store) *BlobRepository {
	return &BlobRepository{store: store}
}

func blobKey(id string) string { return blobPrefix + id + blobSuffix }

// Save writes the item.
func (r *BlobRepository) Save(ctx context.Context, item *genetics.Item) error {
	payload, err := encode(item)
	if err != nil {
		return err
	}
	_, err = r.store.Put(ctx, blobKey(item.ID), bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{metaRoot: item.Root, metaType: string(item.Type)},
	})
	if err != nil {
		return fmt.Errorf("save item %s: %w", item.ID, err)
	}
	return nil
}

// Load reads the item.
func (r *BlobRepository) Load(ctx context.Context, id string) (*genetics.Item, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	info, rc, err := r.store.Get(ctx, blobKey(id))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load item %s: %w", id, err)
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read item %s: %w", id, err)
	}
	return decode(id, info.Metadata[metaRoot], info.Metadata[metaType], payload)
}

// Delete removes the item.
func (r *BlobRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	return r.store.Delete(ctx, blobKey(id))
}

// List returns stored ids.
func (r *BlobRepository) List(ctx context.Context) ([]string, error) {
	infos, err := r.store.List(ctx, blobPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		id, ok := strings.CutSuffix(strings.TrimPrefix(info.Key, blobPrefix), blobSuffix)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close is a no-op; blob stores hold no connections.
func (r *BlobRepository) Close() error { return nil }

// RowRepository keeps items in a relational items table.
type RowRepository struct {
	rows core.RowStore
}

// NewRowRepository wraps rows.
func NewRowRepository(rows core.RowStore) *RowRepository {
	return &RowRepository{rows: rows}
}

// Save upserts the item row.
func (r *RowRepository) Save(ctx context.Context, item *genetics.Item) error {
	payload, err := encode(item)
	if err != nil {
		return err
	}
	return r.rows.Upsert(ctx, core.Row{ID: item.ID, Root: item.Root, OrganismType: string(item.Type), Payload: payload})
}

// Load reads the item row.
func (r *RowRepository) Load(ctx context.Context, id string) (*genetics.Item, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	row, err := r.rows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decode(row.ID, row.Root, row.OrganismType, row.Payload)
}

// Delete removes the item row.
func (r *RowRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	return r.rows.Delete(ctx, id)
}

// List returns stored ids.
func (r *RowRepository) List(ctx context.Context) ([]string, error) { return r.rows.IDs(ctx) }

// Close closes the underlying database.
func (r *RowRepository) Close() error { return r.rows.Close() }
