package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"genecore/testutil"
)

// TestPluginsDoNotImportStorage walks every plugin package and fails when a
// non-test file imports a save format or storage package. Plugins describe
// families; how genomes are persisted is not their concern.
func TestPluginsDoNotImportStorage(t *testing.T) {
	root, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working dir: %v", err)
	}

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error { //nolint:wrapcheck
		if err != nil || !d.IsDir() {
			return err
		}
		hits, err := testutil.Storage.Imports(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		for _, h := range hits {
			t.Errorf("plugin package %s imports a storage package: %s", rel, h)
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk plugins dir: %v", walkErr)
	}
}
