package stage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanRemovesTreeRecursively(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "out")
	if err := os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a", "b", "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Clean(dir); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected %s removed, stat err %v", dir, err)
	}
}

func TestCleanMissingDirectoryFails(t *testing.T) {
	err := Clean(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCleanEnsureIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	for i := 0; i < 2; i++ {
		if err := Ensure(dir); err != nil {
			t.Fatalf("ensure #%d: %v", i+1, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "junk"), []byte("j"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := Clean(dir); err != nil {
			t.Fatalf("clean #%d: %v", i+1, err)
		}
		if err := Ensure(dir); err != nil {
			t.Fatalf("re-ensure #%d: %v", i+1, err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("readdir: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected empty directory, found %d entries", len(entries))
		}
	}
}

func TestEnsureExistingDirectoryKeepsContents(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("k"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Ensure(dir); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Fatalf("ensure must not disturb existing contents: %v", err)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: "proj"}
	cases := map[string]string{
		l.BytecodeRoot():                filepath.Join("proj", "bin", "pyc"),
		l.ExtensionRoot():               filepath.Join("proj", "bin", "pyd"),
		l.ArchiveRoot():                 filepath.Join("proj", "bin", "pyz"),
		l.BundleRoot("App"):             filepath.Join("proj", "bin", "App"),
		l.ArchiveStaging("bin/pyc"):     filepath.Join("proj", "obj", "pyz", "bin", "pyc"),
		(Layout{}).BytecodeRoot():       filepath.Join("bin", "pyc"),
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("layout path %q, want %q", got, want)
		}
	}
}
