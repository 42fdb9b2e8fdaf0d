package bundle

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/example/pybuild/internal/stage"
)

// Scratch is the per-invocation working layout handed to the backend so
// successive builds never contaminate each other.
type Scratch struct {
	DistPath string
	WorkPath string
	SpecPath string
}

// Runner invokes the bundling backend.
type Runner interface {
	Run(ctx context.Context, args []string, scratch Scratch) error
}

// RunFunc adapts a function to the Runner interface.
type RunFunc func(ctx context.Context, args []string, scratch Scratch) error

func (f RunFunc) Run(ctx context.Context, args []string, scratch Scratch) error {
	return f(ctx, args, scratch)
}

// ExecRunner shells out to the real backend binary.
type ExecRunner struct {
	// Backend defaults to pyinstaller.
	Backend string
	Stdout  io.Writer
	Stderr  io.Writer
}

func (r ExecRunner) backend() string {
	if r.Backend != "" {
		return r.Backend
	}
	return "pyinstaller"
}

func (r ExecRunner) Run(ctx context.Context, args []string, scratch Scratch) error {
	full := append(append([]string{}, args...),
		"--distpath", scratch.DistPath,
		"--workpath", scratch.WorkPath,
		"--specpath", scratch.SpecPath,
	)
	cmd := exec.CommandContext(ctx, r.backend(), full...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Run(); err != nil {
		return &stage.BackendError{
			Backend: r.backend() + " " + strings.Join(full, " "),
			Err:     err,
		}
	}
	return nil
}
