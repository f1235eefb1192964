package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"genecore/internal/itemstore/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "genecore.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertGetReplace(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Upsert(ctx, core.Row{ID: "a", Root: "frog", OrganismType: "adult", Payload: []byte{1, 2}, UpdatedAt: at}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	row, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Root != "frog" || row.OrganismType != "adult" || !bytes.Equal(row.Payload, []byte{1, 2}) || !row.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected row %+v", row)
	}
	if err := s.Upsert(ctx, core.Row{ID: "a", Root: "frog", OrganismType: "tadpole", Payload: []byte{3}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	row, _ = s.Get(ctx, "a")
	if row.OrganismType != "tadpole" || !bytes.Equal(row.Payload, []byte{3}) || row.UpdatedAt.IsZero() {
		t.Fatalf("row not replaced: %+v", row)
	}
}

func TestMissingAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if ok, err := s.Delete(ctx, "nope"); err != nil || ok {
		t.Fatalf("expected delete false, got %v %v", ok, err)
	}
	if err := s.Upsert(ctx, core.Row{ID: "x"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ok, err := s.Delete(ctx, "x"); err != nil || !ok {
		t.Fatalf("expected delete true, got %v %v", ok, err)
	}
}

func TestIDsOrderedAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genecore.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := s.Upsert(ctx, core.Row{ID: id, Payload: []byte(id)}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
	_ = s.Close()
	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	ids, err := reopened.IDs(ctx)
	if err != nil || len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected ids %v %v", ids, err)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %s", reopened.Path())
	}
}
