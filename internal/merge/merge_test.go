package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/pybuild/internal/bundle"
	"github.com/example/pybuild/internal/stage"
)

func target(t *testing.T, root, name string) *bundle.Config {
	t.Helper()
	dir := filepath.Join(root, "src")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	main := name + ".py"
	if err := os.WriteFile(filepath.Join(dir, main), []byte("pass"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return &bundle.Config{MainFolder: dir, MainFile: main, AppName: name}
}

func TestNewRejectsDuplicateAppNames(t *testing.T) {
	root := t.TempDir()
	a := target(t, root, "Alpha")
	b := target(t, root, "Alpha")
	_, err := New("Suite", a, b)
	var cfgErr *stage.ConfigError
	if err == nil || !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for duplicate app name, got %v", err)
	}
}

func TestNewRejectsMergeNameCollision(t *testing.T) {
	root := t.TempDir()
	a := target(t, root, "Suite")
	if _, err := New("Suite", a); err == nil {
		t.Fatalf("merge's own name must be distinct from every target's")
	}
}

func TestNewRejectsOneFileTargets(t *testing.T) {
	root := t.TempDir()
	a := target(t, root, "Alpha")
	a.OneFile = true
	_, err := New("Suite", a)
	var cfgErr *stage.ConfigError
	if err == nil || !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for one-file target, got %v", err)
	}
}

func TestNewReconcilesExclusions(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "src")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"alpha.py", "beta.py"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("pass"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	a := &bundle.Config{MainFolder: dir, MainFile: "alpha.py", AppName: "Alpha"}
	b := &bundle.Config{MainFolder: dir, MainFile: "beta.py", AppName: "Beta", Exclude: []string{"alpha.py"}}

	if _, err := New("Suite", a, b); err != nil {
		t.Fatalf("new: %v", err)
	}
	if !containsPath(a.Exclude, "beta.py") {
		t.Fatalf("alpha must exclude beta's main file, excludes %v", a.Exclude)
	}
	if containsPath(a.Exclude, "alpha.py") {
		t.Fatalf("a target must never exclude its own main file, excludes %v", a.Exclude)
	}
	// Already-excluded main files are not duplicated.
	count := 0
	for _, e := range b.Exclude {
		if e == "alpha.py" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("reconciliation duplicated an existing exclusion: %v", b.Exclude)
	}
}

func TestBuildMergesTargetFolders(t *testing.T) {
	root := t.TempDir()
	a := target(t, root, "Alpha")
	b := target(t, root, "Beta")

	// The fake backend emits one app folder named after the -n argument.
	runner := bundle.RunFunc(func(_ context.Context, args []string, scratch bundle.Scratch) error {
		name := ""
		for i, arg := range args {
			if arg == "-n" && i+1 < len(args) {
				name = args[i+1]
			}
		}
		appDir := filepath.Join(scratch.DistPath, name)
		if err := os.MkdirAll(appDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(appDir, name+".exe"), []byte("bin"), 0o755)
	})

	mb, err := New("Suite", a, b)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	mb.Layout = stage.Layout{Root: root}
	mb.Runner = runner
	if err := mb.Build(context.Background()); err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, name := range []string{"Alpha", "Beta"} {
		merged := filepath.Join(root, "bin", "Suite", name+".exe")
		if _, err := os.Stat(merged); err != nil {
			t.Fatalf("merged artifact %s missing: %v", merged, err)
		}
		leftover := filepath.Join(root, "src", "bin", name)
		if _, err := os.Stat(leftover); err == nil {
			t.Fatalf("per-target folder %s should be gone after merge", leftover)
		}
	}
}

func containsPath(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
