// Package arch_test checks structural rules across the internal packages:
// layering, documentation, global state, interface placement and size.
package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

const internalPrefix = "github.com/papapumpkin/ompbuild/internal/"

// repoRoot walks up from this file to the directory holding go.mod.
func repoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	for dir := filepath.Dir(thisFile); ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

func internalDirPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(repoRoot(t), "internal")
}

// internalPackages returns the names of the directories under internal/ that
// hold Go source, other than this one.
func internalPackages(t *testing.T) []string {
	t.Helper()
	dir := internalDirPath(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	var pkgs []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != "arch_test" && len(goFilesIn(t, filepath.Join(dir, e.Name()))) > 0 {
			pkgs = append(pkgs, e.Name())
		}
	}
	return pkgs
}

// goFilesIn returns the non-test .go files in dir, sorted.
func goFilesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading directory %s: %v", dir, err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files
}

func parseFile(t *testing.T, path string, mode parser.Mode) (*token.FileSet, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, path, nil, mode)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return fset, node
}

// importsOf returns the internal packages imported by the non-test files in
// pkgDir, by their directory name under internal/.
func importsOf(t *testing.T, pkgDir string) []string {
	t.Helper()
	seen := make(map[string]bool)
	for _, f := range goFilesIn(t, pkgDir) {
		_, node := parseFile(t, f, parser.ImportsOnly)
		for _, imp := range node.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if rel, ok := strings.CutPrefix(path, internalPrefix); ok {
				name, _, _ := strings.Cut(rel, "/")
				seen[name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lineCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	n := strings.Count(string(data), "\n")
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// isGeneratedFile reports whether the file carries a "Code generated" header.
func isGeneratedFile(t *testing.T, path string) bool {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Contains(string(data[:min(len(data), 500)]), "Code generated")
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	pkgs := internalPackages(t)
	for _, want := range []string{"build", "catalog", "document", "merge", "variant"} {
		if !contains(pkgs, want) {
			t.Errorf("internalPackages() = %v, missing %s", pkgs, want)
		}
	}
	if contains(pkgs, "arch_test") {
		t.Error("internalPackages() should skip arch_test")
	}

	for _, f := range goFilesIn(t, filepath.Join(dir, "document")) {
		if strings.HasSuffix(f, "_test.go") {
			t.Errorf("goFilesIn returned test file %s", f)
		}
	}

	if imps := importsOf(t, filepath.Join(dir, "variant")); !contains(imps, "document") || !contains(imps, "merge") {
		t.Errorf("importsOf(variant) = %v, want document and merge", imps)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
