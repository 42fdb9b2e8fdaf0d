package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/pybuild/internal/pycompile"
	"github.com/example/pybuild/internal/stage"
)

func TestParseCompileKind(t *testing.T) {
	cases := []struct {
		in      string
		want    pycompile.Kind
		wantErr bool
	}{
		{in: "", want: pycompile.Bytecode},
		{in: "bytecode", want: pycompile.Bytecode},
		{in: "extension", want: pycompile.Extension},
		{in: "native", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseCompileKind(tc.in)
		if tc.wantErr {
			var cfgErr *stage.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("parseCompileKind(%q): expected config error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseCompileKind(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseCompileKind(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCompileOptionsMapping(t *testing.T) {
	opts := compileOptions{
		path:        "demo",
		kind:        "extension",
		optimize:    1,
		exclude:     []string{"vendor"},
		noClean:     true,
		quiet:       true,
		failOnCheck: true,
		mypy:        "mypy-custom",
		root:        ".",
	}
	c, err := opts.compiler(stage.Layout{Root: "."})
	if err != nil {
		t.Fatalf("compiler: %v", err)
	}
	if c.Kind != pycompile.Extension {
		t.Fatalf("kind = %v, want extension", c.Kind)
	}
	if c.Clean {
		t.Fatal("expected --no-clean to disable cleaning")
	}
	if c.Optimize != 1 || !c.Quiet || !c.FailOnCheck {
		t.Fatalf("unexpected mapping: %+v", c)
	}
	checker, ok := c.Checker.(pycompile.MypyChecker)
	if !ok {
		t.Fatalf("checker = %T, want MypyChecker", c.Checker)
	}
	if checker.Binary != "mypy-custom" {
		t.Fatalf("checker binary = %q", checker.Binary)
	}
}

func TestCompileOptionsNoCheckDropsChecker(t *testing.T) {
	opts := compileOptions{path: "demo", noCheck: true, optimize: 2, root: "."}
	c, err := opts.compiler(stage.Layout{Root: "."})
	if err != nil {
		t.Fatalf("compiler: %v", err)
	}
	if c.Checker != nil {
		t.Fatalf("expected no checker, got %T", c.Checker)
	}
}

func TestCompileOptionsFromManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "pybuild.yaml")
	doc := "compile:\n  path: app\n  kind: bytecode\n  optimize: 0\n"
	if err := os.WriteFile(manifest, []byte(doc), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	opts := compileOptions{configFile: manifest, root: dir}
	c, err := opts.compiler(stage.Layout{Root: dir})
	if err != nil {
		t.Fatalf("compiler: %v", err)
	}
	if c.Path != "app" || c.Optimize != 0 {
		t.Fatalf("unexpected manifest mapping: path=%q optimize=%d", c.Path, c.Optimize)
	}
}
