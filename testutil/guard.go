// Package testutil checks import boundaries from tests.
//
// Family plugins and the public genetics API describe alleles and karyotypes.
// A Boundary lists the packages they must not reach: save format encoding and
// item persistence stay behind savehandler and itemstore.
package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Boundary is a named set of import path fragments.
type Boundary struct {
	Name      string
	Fragments []string
}

// Storage covers genome encoding and item persistence.
var Storage = Boundary{
	Name: "save format and storage",
	Fragments: []string{
		"/internal/saveformat",
		"/internal/binarycodec",
		"/internal/savehandler",
		"/internal/itemstore",
		"/internal/infra/",
		"/internal/blob",
	},
}

// Matches reports whether path contains one of the boundary fragments.
func (b Boundary) Matches(path string) bool {
	for _, f := range b.Fragments {
		if strings.Contains(path, f) {
			return true
		}
	}
	return false
}

// Imports lists the crossing imports of the non-test files directly in dir
// as "path (in file.go)". Subdirectories are not scanned.
func (b Boundary) Imports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	fset := token.NewFileSet()
	var hits []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for _, imp := range f.Imports {
			p, err := strconv.Unquote(imp.Path.Value)
			if err == nil && b.Matches(p) {
				hits = append(hits, p+" (in "+name+")")
			}
		}
	}
	return hits, nil
}

// listDeps runs go list -deps; tests replace it.
var listDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

// Deps lists the packages reachable from pattern that cross the boundary.
// The raw go list output is returned for error reporting.
func (b Boundary) Deps(pattern string) ([]string, []byte, error) {
	out, err := listDeps(pattern)
	if err != nil {
		return nil, out, err
	}
	var hits []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" && b.Matches(line) {
			hits = append(hits, line)
		}
	}
	return hits, out, nil
}

// CheckImports fails t when a non-test file in dir imports across b.
func CheckImports(t testing.TB, dir string, b Boundary) {
	t.Helper()
	hits, err := b.Imports(dir)
	if err != nil {
		t.Fatalf("scan imports: %v", err)
	}
	report(t, b, "import", hits)
}

// CheckDeps fails t when any package matched by pattern depends on b,
// directly or not.
func CheckDeps(t testing.TB, pattern string, b Boundary) {
	t.Helper()
	hits, out, err := b.Deps(pattern)
	if err != nil {
		t.Fatalf("go list -deps %s: %v\n%s", pattern, err, out)
	}
	report(t, b, "dependency", hits)
}

type fataler interface {
	Fatalf(format string, args ...any)
}

func report(t fataler, b Boundary, what string, hits []string) {
	if len(hits) > 0 {
		t.Fatalf("%s crosses the %s boundary:\n%s", what, b.Name, strings.Join(hits, "\n"))
	}
}
