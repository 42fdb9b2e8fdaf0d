package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/pybuild/internal/stage"
	"github.com/example/pybuild/internal/target"
)

func writeManifest(t *testing.T, doc string) *target.Manifest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pybuild.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	m, err := target.Load(path)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	return m
}

func TestSelectBundleSingleEntry(t *testing.T) {
	m := writeManifest(t, `
bundles:
  - mainFolder: app
    mainFile: main.py
`)
	cfg, err := selectBundle(m, "")
	if err != nil {
		t.Fatalf("selectBundle: %v", err)
	}
	if cfg.BinFolder() != "main" {
		t.Fatalf("selected %q, want main", cfg.BinFolder())
	}
}

func TestSelectBundleByName(t *testing.T) {
	m := writeManifest(t, `
bundles:
  - mainFolder: app
    mainFile: main.py
    appName: Client
  - mainFolder: app
    mainFile: server.py
    appName: Server
`)
	cfg, err := selectBundle(m, "Server")
	if err != nil {
		t.Fatalf("selectBundle: %v", err)
	}
	if cfg.MainFile != "server.py" {
		t.Fatalf("selected %q, want server.py", cfg.MainFile)
	}
}

func TestSelectBundleAmbiguous(t *testing.T) {
	m := writeManifest(t, `
bundles:
  - mainFolder: app
    mainFile: main.py
  - mainFolder: app
    mainFile: server.py
`)
	_, err := selectBundle(m, "")
	var cfgErr *stage.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "--target") {
		t.Fatalf("error should point at --target, got %q", err)
	}
}

func TestSelectBundleUnknownName(t *testing.T) {
	m := writeManifest(t, `
bundles:
  - mainFolder: app
    mainFile: main.py
`)
	_, err := selectBundle(m, "nope")
	var cfgErr *stage.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
}
