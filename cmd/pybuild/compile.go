// File: cmd/pybuild/compile.go
// Brief: CLI command wiring and implementation for 'compile'.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/pybuild/internal/pycompile"
	"github.com/example/pybuild/internal/stage"
	"github.com/example/pybuild/internal/target"
)

type compileOptions struct {
	configFile  string
	path        string
	kind        string
	optimize    int
	exclude     []string
	output      string
	noClean     bool
	quiet       bool
	noCheck     bool
	failOnCheck bool
	interpreter string
	mypy        string
	root        string
}

func newCompileCommand(logLevel *string) *cobra.Command {
	opts := compileOptions{optimize: 2, root: "."}
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a Python source tree into bin/pyc or bin/pyd",
		Args:  cobra.NoArgs,
		Long: `Compile walks a source tree, byte-compiles every .py file, and mirrors the
result (plus any non-source files) under bin/pyc/<name> or bin/pyd/<name>.
With --config, the compile section of the manifest drives the stage instead
of the flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			layout := stage.Layout{Root: opts.root}
			compiler, err := opts.compiler(layout)
			if err != nil {
				return err
			}
			compiler.Log = log

			started := time.Now()
			runErr := compiler.Compile(cmd.Context())
			recordRun(cmd.Context(), opts.root, "compile", compiler.Path, compiler.OutputRoot(), started, runErr, log)
			if runErr == nil {
				reportBuilt(cmd.OutOrStdout(), compiler.OutputRoot())
			}
			return runErr
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Manifest file whose compile section drives the stage")
	flags.StringVar(&opts.path, "path", "", "Source tree to compile")
	flags.StringVar(&opts.kind, "kind", "bytecode", "Compiler kind: bytecode or extension")
	flags.IntVarP(&opts.optimize, "optimize", "O", opts.optimize, "Bytecode optimization level (0-2)")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "Relative paths inside the tree to skip")
	flags.StringVar(&opts.output, "output", "", "Override the output directory (defaults to the staged layout)")
	flags.BoolVar(&opts.noClean, "no-clean", false, "Keep previous contents of the output directory")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress per-file progress output")
	flags.BoolVar(&opts.noCheck, "no-check", false, "Skip the static check before compiling")
	flags.BoolVar(&opts.failOnCheck, "fail-on-check", false, "Treat static check findings as build failures")
	flags.StringVar(&opts.interpreter, "python", "", "Python interpreter used for byte compilation (default python3)")
	flags.StringVar(&opts.mypy, "mypy", "", "Static checker binary (default mypy)")
	flags.StringVar(&opts.root, "root", opts.root, "Project root holding the bin/ and obj/ trees")
	return cmd
}

func (o *compileOptions) compiler(layout stage.Layout) (*pycompile.Compiler, error) {
	if o.configFile != "" {
		manifest, err := target.Load(o.configFile)
		if err != nil {
			return nil, err
		}
		return manifest.Compiler(layout)
	}
	kind, err := parseCompileKind(o.kind)
	if err != nil {
		return nil, err
	}
	c := &pycompile.Compiler{
		Path:        o.path,
		Exclude:     o.exclude,
		Kind:        kind,
		Optimize:    o.optimize,
		Clean:       !o.noClean,
		Quiet:       o.quiet,
		Output:      o.output,
		FailOnCheck: o.failOnCheck,
		Layout:      layout,
	}
	if o.interpreter != "" {
		c.Files = pycompile.PythonCompiler{Interpreter: o.interpreter}
	}
	if !o.noCheck {
		c.Checker = pycompile.MypyChecker{Binary: o.mypy}
	}
	return c, nil
}

func parseCompileKind(name string) (pycompile.Kind, error) {
	switch name {
	case "", "bytecode":
		return pycompile.Bytecode, nil
	case "extension":
		return pycompile.Extension, nil
	}
	return 0, stage.Configf("unknown compiler kind %q (expected bytecode or extension)", name)
}
