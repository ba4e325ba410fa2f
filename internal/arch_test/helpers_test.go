// Package arch_test enforces orbitflow's package structure: the dependency
// order of internal packages, which packages may pull in the CLI stack, and
// documentation on exported identifiers.
package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"
)

const internalPrefix = "github.com/papapumpkin/orbitflow/internal/"

// internalDir returns <repo>/internal, located from this file's path.
func internalDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Dir(filepath.Dir(file))
}

// packages lists the directories under internal/ except this one.
func packages(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(internalDir(t))
	if err != nil {
		t.Fatalf("reading internal/: %v", err)
	}
	var pkgs []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "arch_test" {
			pkgs = append(pkgs, e.Name())
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

// parsePackage parses the non-test Go files of pkg.
func parsePackage(t *testing.T, pkg string, mode parser.Mode) (*token.FileSet, []*ast.File) {
	t.Helper()
	dir := filepath.Join(internalDir(t), pkg)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	fset := token.NewFileSet()
	var files []*ast.File
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, mode)
		if err != nil {
			t.Fatalf("parsing %s/%s: %v", pkg, name, err)
		}
		files = append(files, f)
	}
	return fset, files
}

// imports returns every import path used by the non-test files of pkg.
func imports(t *testing.T, pkg string) map[string]bool {
	t.Helper()
	_, files := parsePackage(t, pkg, parser.ImportsOnly)
	out := make(map[string]bool)
	for _, f := range files {
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				t.Fatalf("bad import %s in %s", imp.Path.Value, pkg)
			}
			out[path] = true
		}
	}
	return out
}

// internalImports returns the internal packages pkg depends on.
func internalImports(t *testing.T, pkg string) []string {
	t.Helper()
	var deps []string
	for path := range imports(t, pkg) {
		if rest, ok := strings.CutPrefix(path, internalPrefix); ok {
			deps = append(deps, strings.SplitN(rest, "/", 2)[0])
		}
	}
	sort.Strings(deps)
	return deps
}
