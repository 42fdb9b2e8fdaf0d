package pycompile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/example/pybuild/internal/stage"
)

// fakeByteCompiler writes a marker file instead of invoking Python.
func fakeByteCompiler(t *testing.T) FileCompiler {
	t.Helper()
	return CompileFileFunc(func(_ context.Context, src, dest string, optimize int) error {
		body := fmt.Sprintf("compiled %s opt=%d", filepath.Base(src), optimize)
		return os.WriteFile(dest, []byte(body), 0o644)
	})
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var rels []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(rels)
	return rels
}

func TestCompileTreeMirrorsStructure(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	for rel, body := range map[string]string{
		"app/__init__.py":  "def main(): pass",
		"app/util/io.py":   "x = 1",
		"app/data/cfg.ini": "[a]\nb=1",
	} {
		full := filepath.Join(src, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	c := &Compiler{Path: filepath.Join(src, "app"), Optimize: 2, Files: fakeByteCompiler(t)}
	if err := c.CompileInto(context.Background(), out); err != nil {
		t.Fatalf("compile: %v", err)
	}

	want := []string{"app/__init__.pyc", "app/data/cfg.ini", "app/util/io.pyc"}
	got := listTree(t, out)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("output tree %v, want %v", got, want)
	}

	copied, err := os.ReadFile(filepath.Join(out, "app", "data", "cfg.ini"))
	if err != nil || string(copied) != "[a]\nb=1" {
		t.Fatalf("copied file mangled: %q err=%v", copied, err)
	}
}

func TestCompileSingleFile(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	file := filepath.Join(src, "a.py")
	if err := os.WriteFile(file, []byte("pass"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := &Compiler{Path: file, Optimize: 2, Files: fakeByteCompiler(t)}
	if err := c.CompileInto(context.Background(), out); err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := listTree(t, out)
	if len(got) != 1 || got[0] != "a.pyc" {
		t.Fatalf("expected only a.pyc, got %v", got)
	}
	body, _ := os.ReadFile(filepath.Join(out, "a.pyc"))
	if string(body) != "compiled a.py opt=2" {
		t.Fatalf("optimization level not threaded through: %q", body)
	}
}

func TestExtensionKindUsesPydExtension(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(filepath.Join(src, "m.py"), []byte("pass"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := &Compiler{Path: filepath.Join(src, "m.py"), Kind: Extension, Files: fakeByteCompiler(t)}
	if err := c.CompileInto(context.Background(), out); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "m.pyd")); err != nil {
		t.Fatalf("expected m.pyd: %v", err)
	}
}

func TestCompileFailureNamesFile(t *testing.T) {
	src := t.TempDir()
	bad := filepath.Join(src, "broken.py")
	if err := os.WriteFile(bad, []byte("def"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := &Compiler{
		Path: src,
		Files: CompileFileFunc(func(_ context.Context, src, _ string, _ int) error {
			return errors.New("syntax error")
		}),
	}
	err := c.CompileInto(context.Background(), filepath.Join(t.TempDir(), "out"))
	if err == nil || !strings.Contains(err.Error(), "broken.py") {
		t.Fatalf("error must identify the failing file, got %v", err)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	var cfgErr *stage.ConfigError
	for name, c := range map[string]*Compiler{
		"empty path":   {Optimize: 2},
		"bad optimize": {Path: "x", Optimize: 3},
		"bad kind":     {Path: "x", Kind: Kind(7)},
	} {
		err := c.Compile(context.Background())
		if err == nil || !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected ConfigError, got %v", name, err)
		}
	}
}

type staticCheck struct {
	report Report
	err    error
}

func (s staticCheck) Check(context.Context, string) (Report, error) { return s.report, s.err }

func TestPreflightGateConfigurable(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.py"), []byte("pass"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	failing := staticCheck{report: Report{Passed: false, Output: "a.py:1: error"}}

	soft := &Compiler{Path: src, Files: fakeByteCompiler(t), Checker: failing}
	if err := soft.CompileInto(context.Background(), filepath.Join(t.TempDir(), "out")); err != nil {
		t.Fatalf("soft gate must not abort the stage: %v", err)
	}

	hard := &Compiler{Path: src, Files: fakeByteCompiler(t), Checker: failing, FailOnCheck: true}
	out := filepath.Join(t.TempDir(), "out")
	err := hard.CompileInto(context.Background(), out)
	var backendErr *stage.BackendError
	if err == nil || !errors.As(err, &backendErr) {
		t.Fatalf("hard gate: expected BackendError, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, fs.ErrNotExist) {
		t.Fatalf("hard gate must fail before any mutation, stat err %v", statErr)
	}
}

func TestCleanClearsPreviousOutput(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.py"), []byte("pass"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(out, "stale.pyc"), []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := &Compiler{Path: filepath.Join(src, "a.py"), Clean: true, Files: fakeByteCompiler(t)}
	if err := c.CompileInto(context.Background(), out); err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := listTree(t, out)
	if len(got) != 1 || got[0] != "a.pyc" {
		t.Fatalf("stale output not cleaned, got %v", got)
	}
}
