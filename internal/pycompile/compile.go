// Package pycompile mirrors a Python source tree into a compiled output tree:
// .py files become bytecode (or extension-style modules), everything else is
// copied byte-for-byte with metadata preserved.
package pycompile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/pybuild/internal/stage"
)

// Kind selects the compiled form a Compiler produces. Carrying the kind on the
// value keeps chained stages from sniffing concrete types.
type Kind int

const (
	Bytecode Kind = iota
	Extension
)

// CompiledExt is the extension written for compiled source files.
func (k Kind) CompiledExt() string {
	if k == Extension {
		return ".pyd"
	}
	return ".pyc"
}

// OutputPath is the stage's output subpath under the project root.
func (k Kind) OutputPath() string {
	if k == Extension {
		return filepath.Join("bin", "pyd")
	}
	return filepath.Join("bin", "pyc")
}

func (k Kind) String() string {
	if k == Extension {
		return "extension"
	}
	return "bytecode"
}

// Compiler drives one compile stage over a source file or directory.
type Compiler struct {
	// Path is the source file or directory to compile.
	Path string
	// Exclude lists root-relative paths reserved for later stages; the
	// compile stage itself mirrors everything.
	Exclude []string
	// Kind selects the compiled form.
	Kind Kind
	// Optimize is the optimization level: 0 none, 1 low, 2 high.
	Optimize int
	// Clean clears the output root before compiling.
	Clean bool
	// Quiet suppresses per-file progress logs.
	Quiet bool
	// Output overrides the default output root (Layout + Kind.OutputPath).
	Output string
	// FailOnCheck turns a failed pre-flight static check into a hard error
	// instead of a logged warning.
	FailOnCheck bool
	// Layout supplies the default output locations.
	Layout stage.Layout

	// Files compiles a single source file; defaults to the external Python
	// bytecode compiler.
	Files FileCompiler
	// Checker runs the pre-flight static check; nil skips the check.
	Checker Checker

	Log *zap.Logger
}

// OutputRoot is the directory this compiler writes into.
func (c *Compiler) OutputRoot() string {
	if c.Output != "" {
		return c.Output
	}
	if c.Kind == Extension {
		return c.Layout.ExtensionRoot()
	}
	return c.Layout.BytecodeRoot()
}

func (c *Compiler) validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return stage.Configf("compile: source path is required")
	}
	if c.Optimize < 0 || c.Optimize > 2 {
		return stage.Configf("compile: optimization level %d out of range (0-2)", c.Optimize)
	}
	if c.Kind != Bytecode && c.Kind != Extension {
		return stage.Configf("compile: incompatible compiler kind %d", int(c.Kind))
	}
	return nil
}

// Compile runs the stage into OutputRoot.
func (c *Compiler) Compile(ctx context.Context) error {
	return c.CompileInto(ctx, c.OutputRoot())
}

// CompileInto runs the stage with an explicit output root. The packager uses
// this to redirect a shared compiler into its private staging tree without
// mutating the compiler's configuration.
func (c *Compiler) CompileInto(ctx context.Context, output string) error {
	if err := c.validate(); err != nil {
		return err
	}
	log := c.logger()

	if err := c.preflight(ctx, log); err != nil {
		return err
	}

	info, err := os.Stat(c.Path)
	if err != nil {
		return &stage.IOError{Op: "compile stat", Path: c.Path, Err: err}
	}
	if c.Clean {
		if err := stage.Clean(output); err != nil && !os.IsNotExist(err) {
			return &stage.IOError{Op: "compile clean", Path: output, Err: err}
		}
	}
	if info.IsDir() {
		dest := filepath.Join(output, filepath.Base(filepath.Clean(c.Path)))
		return c.compileTree(ctx, c.Path, dest, log)
	}
	if filepath.Ext(c.Path) != ".py" {
		return stage.Configf("compile: %s is not a Python source file", c.Path)
	}
	if err := stage.Ensure(output); err != nil {
		return &stage.IOError{Op: "compile ensure", Path: output, Err: err}
	}
	return c.compileFile(ctx, c.Path, filepath.Join(output, filepath.Base(c.Path)), log)
}

// compileTree mirrors src into dest, preserving relative structure. Partial
// output from a failed run is left in place; callers re-run Clean before
// retrying.
func (c *Compiler) compileTree(ctx context.Context, src, dest string, log *zap.Logger) error {
	if err := stage.Ensure(dest); err != nil {
		return &stage.IOError{Op: "compile ensure", Path: dest, Err: err}
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return &stage.IOError{Op: "compile read", Path: src, Err: err}
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())
		switch {
		case entry.IsDir():
			if err := c.compileTree(ctx, srcPath, destPath, log); err != nil {
				return err
			}
		case filepath.Ext(entry.Name()) == ".py":
			if err := c.compileFile(ctx, srcPath, destPath, log); err != nil {
				return err
			}
		default:
			if err := copyFile(srcPath, destPath); err != nil {
				return err
			}
			if !c.Quiet {
				log.Info("copied", zap.String("source", srcPath), zap.String("dest", destPath))
			}
		}
	}
	return nil
}

func (c *Compiler) compileFile(ctx context.Context, src, dest string, log *zap.Logger) error {
	compiled := strings.TrimSuffix(dest, filepath.Ext(dest)) + c.Kind.CompiledExt()
	if !c.Quiet {
		log.Info("compiling", zap.String("source", src), zap.String("dest", compiled))
	}
	if err := c.fileCompiler().CompileFile(ctx, src, compiled, c.Optimize); err != nil {
		return fmt.Errorf("compile %s: %w", src, err)
	}
	return nil
}

// preflight runs the static checker over the whole source path before any
// filesystem mutation. A failed check aborts only when FailOnCheck is set.
func (c *Compiler) preflight(ctx context.Context, log *zap.Logger) error {
	if c.Checker == nil {
		return nil
	}
	report, err := c.Checker.Check(ctx, c.Path)
	if err != nil {
		if c.FailOnCheck {
			return fmt.Errorf("static check: %w", err)
		}
		log.Warn("static check could not run", zap.Error(err))
		return nil
	}
	if !report.Passed {
		if c.FailOnCheck {
			return &stage.BackendError{Backend: "static check", Output: report.Output, Err: fmt.Errorf("check failed for %s", c.Path)}
		}
		log.Warn("static check reported problems", zap.String("path", c.Path), zap.String("report", report.Output))
	}
	return nil
}

func (c *Compiler) fileCompiler() FileCompiler {
	if c.Files != nil {
		return c.Files
	}
	return PythonCompiler{}
}

func (c *Compiler) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}

// copyFile copies src to dest byte-for-byte and carries over permissions and
// the modification timestamp.
func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &stage.IOError{Op: "copy stat", Path: src, Err: err}
	}
	in, err := os.Open(src)
	if err != nil {
		return &stage.IOError{Op: "copy open", Path: src, Err: err}
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &stage.IOError{Op: "copy create", Path: dest, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return &stage.IOError{Op: "copy", Path: dest, Err: err}
	}
	if err := out.Close(); err != nil {
		return &stage.IOError{Op: "copy close", Path: dest, Err: err}
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
