// collaborators.go defines the external tools the compile stage drives: the
// per-file bytecode compiler and the pre-flight static checker.
package pycompile

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/example/pybuild/internal/stage"
)

// FileCompiler converts one source file into its compiled form.
type FileCompiler interface {
	CompileFile(ctx context.Context, src, dest string, optimize int) error
}

// CompileFileFunc adapts a function to the FileCompiler interface.
type CompileFileFunc func(ctx context.Context, src, dest string, optimize int) error

func (f CompileFileFunc) CompileFile(ctx context.Context, src, dest string, optimize int) error {
	return f(ctx, src, dest, optimize)
}

// Report is the outcome of a static check. The orchestrator only looks at
// pass/fail; the raw output is surfaced to the user untouched.
type Report struct {
	Passed bool
	Output string
}

// Checker runs a static-analysis pass over a whole source path.
type Checker interface {
	Check(ctx context.Context, path string) (Report, error)
}

const compileSnippet = "import sys, py_compile; py_compile.compile(sys.argv[1], cfile=sys.argv[2], optimize=int(sys.argv[3]), doraise=True)"

// PythonCompiler shells out to the Python interpreter's own bytecode compiler.
type PythonCompiler struct {
	// Interpreter defaults to python3.
	Interpreter string
}

func (p PythonCompiler) interpreter() string {
	if p.Interpreter != "" {
		return p.Interpreter
	}
	return "python3"
}

func (p PythonCompiler) CompileFile(ctx context.Context, src, dest string, optimize int) error {
	cmd := exec.CommandContext(ctx, p.interpreter(), "-c", compileSnippet, src, dest, strconv.Itoa(optimize))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &stage.BackendError{Backend: p.interpreter(), Output: strings.TrimSpace(string(out)), Err: err}
	}
	return nil
}

// MypyChecker runs mypy as the pre-flight static check.
type MypyChecker struct {
	// Binary defaults to mypy.
	Binary string
}

func (m MypyChecker) binary() string {
	if m.Binary != "" {
		return m.Binary
	}
	return "mypy"
}

func (m MypyChecker) Check(ctx context.Context, path string) (Report, error) {
	cmd := exec.CommandContext(ctx, m.binary(), path)
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err == nil {
		return Report{Passed: true, Output: output}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Non-zero exit means findings, not a broken invocation.
		return Report{Passed: false, Output: output}, nil
	}
	return Report{}, &stage.BackendError{Backend: m.binary(), Output: output, Err: err}
}
