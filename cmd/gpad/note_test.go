package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExpandImportPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.md", "b.txt", "sub/c.md", "sub/deep/d.md"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("# "+name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	paths, err := expandImportPaths([]string{
		filepath.Join(dir, "**", "*.md"),
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "missing.md"),
	})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "missing.md"),
		filepath.Join(dir, "sub", "c.md"),
		filepath.Join(dir, "sub", "deep", "d.md"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestExpandImportPathsBadPattern(t *testing.T) {
	_, err := expandImportPaths([]string{"notes/[.md"})
	var usage usageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
