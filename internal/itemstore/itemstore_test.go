package itemstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"genecore/internal/blob"
	"genecore/internal/config"
	"genecore/internal/genetest"
	"genecore/internal/infra/persistence/sqlite"
	"genecore/internal/itemstore"
	"genecore/internal/organism"
	"genecore/internal/saveformat"
	"genecore/internal/savehandler"
	"genecore/pkg/genetics"
	"genecore/pkg/tagtree"
)

func backends(t *testing.T) map[string]itemstore.Repository {
	t.Helper()
	fsStore, err := blob.NewFilesystem(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	rows, err := sqlite.NewStore(filepath.Join(t.TempDir(), "items.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	repos := map[string]itemstore.Repository{
		"memory": itemstore.NewBlobRepository(blob.NewMemory()),
		"fs":     itemstore.NewBlobRepository(fsStore),
		"s3":     itemstore.NewBlobRepository(blob.NewS3Mock()),
		"sqlite": itemstore.NewRowRepository(rows),
	}
	t.Cleanup(func() {
		for _, r := range repos {
			_ = r.Close()
		}
	})
	return repos
}

func TestGenomeSurvivesEveryBackend(t *testing.T) {
	f := genetest.New(t)
	ctx := context.Background()
	for _, format := range []saveformat.Format{saveformat.Ordered, saveformat.Binary} {
		d, err := saveformat.NewDispatcher(f.Registry, saveformat.WithWriteFormat(format))
		if err != nil {
			t.Fatalf("dispatcher: %v", err)
		}
		h := savehandler.New(d, organism.NewRegistry())
		want, err := genetics.NewGenome(f.Karyotype, f.Full())
		if err != nil {
			t.Fatalf("genome: %v", err)
		}
		for name, repo := range backends(t) {
			item := genetics.NewItem("fox-1", f.Root.UID, "adult")
			if err := h.WriteGenome(item, item.Type, f.Root, want); err != nil {
				t.Fatalf("%s/%s: write genome: %v", name, format, err)
			}
			if err := repo.Save(ctx, item); err != nil {
				t.Fatalf("%s/%s: save: %v", name, format, err)
			}
			loaded, err := repo.Load(ctx, "fox-1")
			if err != nil {
				t.Fatalf("%s/%s: load: %v", name, format, err)
			}
			if loaded.Root != f.Root.UID || loaded.Type != "adult" {
				t.Fatalf("%s/%s: identity lost: %+v", name, format, loaded)
			}
			if !tagtree.Equal(loaded.Tag(), item.Tag()) {
				t.Fatalf("%s/%s: tag tree changed in storage", name, format)
			}
			got, err := h.ReadGenome(loaded, loaded.Type, f.Root)
			if err != nil {
				t.Fatalf("%s/%s: read genome: %v", name, format, err)
			}
			if !got.Equal(want) {
				t.Fatalf("%s/%s: genome changed in storage", name, format)
			}
		}
	}
}

func TestRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		if _, err := repo.Load(ctx, "missing"); !errors.Is(err, itemstore.ErrNotFound) {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}
		for _, id := range []string{"b", "a"} {
			if err := repo.Save(ctx, genetics.NewItem(id, "frog", "adult")); err != nil {
				t.Fatalf("%s: save %s: %v", name, id, err)
			}
		}
		replaced := genetics.NewItem("a", "frog", "tadpole")
		if err := repo.Save(ctx, replaced); err != nil {
			t.Fatalf("%s: replace: %v", name, err)
		}
		if got, err := repo.Load(ctx, "a"); err != nil || got.Type != "tadpole" || got.Tag() == nil {
			t.Fatalf("%s: expected replaced item, got %+v %v", name, got, err)
		}
		ids, err := repo.List(ctx)
		if err != nil || len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Fatalf("%s: unexpected ids %v %v", name, ids, err)
		}
		if ok, err := repo.Delete(ctx, "a"); err != nil || !ok {
			t.Fatalf("%s: delete: %v %v", name, ok, err)
		}
		if ok, err := repo.Delete(ctx, "a"); err != nil || ok {
			t.Fatalf("%s: second delete: %v %v", name, ok, err)
		}
	}
}

func TestRepositoryRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		for _, id := range []string{"", "a/b"} {
			if err := repo.Save(ctx, genetics.NewItem(id, "frog", "adult")); !errors.Is(err, itemstore.ErrInvalidID) {
				t.Fatalf("%s: expected invalid id for %q, got %v", name, id, err)
			}
			if _, err := repo.Load(ctx, id); !errors.Is(err, itemstore.ErrInvalidID) {
				t.Fatalf("%s: expected invalid id on load for %q, got %v", name, id, err)
			}
		}
		if err := repo.Save(ctx, nil); err == nil {
			t.Fatalf("%s: expected nil item error", name)
		}
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	for _, cfg := range []config.Config{
		{StoreDriver: config.DriverMemory},
		{StoreDriver: config.DriverFS, FSRoot: filepath.Join(t.TempDir(), "fs")},
		{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")},
	} {
		repo, err := itemstore.Open(ctx, cfg)
		if err != nil {
			t.Fatalf("open %s: %v", cfg.StoreDriver, err)
		}
		if err := repo.Save(ctx, genetics.NewItem("x", "frog", "adult")); err != nil {
			t.Fatalf("%s: save: %v", cfg.StoreDriver, err)
		}
		_ = repo.Close()
	}
	if _, err := itemstore.Open(ctx, config.Config{StoreDriver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
