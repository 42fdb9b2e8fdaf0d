// File: cmd/pybuild/archive.go
// Brief: CLI command wiring and implementation for 'archive'.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/pybuild/internal/pycompile"
	"github.com/example/pybuild/internal/pyzarchive"
	"github.com/example/pybuild/internal/stage"
	"github.com/example/pybuild/internal/target"
)

type archiveOptions struct {
	configFile   string
	path         string
	name         string
	main         string
	uncompressed bool
	noClean      bool
	inner        string
	interpreter  string
	root         string
}

func newArchiveCommand(logLevel *string) *cobra.Command {
	opts := archiveOptions{root: "."}
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Package a Python tree into a runnable zipapp under bin/pyz",
		Args:  cobra.NoArgs,
		Long: `Archive writes the tree as a zipapp in bin/pyz/<name>. With --inner the tree
is first byte-compiled into a scratch area under obj/pyz so the archive holds
compiled members instead of source. --main binds a pkg.module:function entry
point; any top-level non-source files travel alongside the archive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			layout := stage.Layout{Root: opts.root}
			packager, err := opts.packager(layout)
			if err != nil {
				return err
			}
			packager.Log = log

			started := time.Now()
			output, runErr := packager.Package(cmd.Context())
			recordRun(cmd.Context(), opts.root, "archive", packager.Path, output, started, runErr, log)
			if runErr == nil {
				reportBuilt(cmd.OutOrStdout(), output)
			}
			return runErr
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Manifest file whose archive section drives the stage")
	flags.StringVar(&opts.path, "path", "", "Source tree to archive")
	flags.StringVar(&opts.name, "name", "", "Archive file name, for example app.pyz")
	flags.StringVar(&opts.main, "main", "", "Entry point as pkg.module:function")
	flags.BoolVar(&opts.uncompressed, "uncompressed", false, "Store archive members without compression")
	flags.BoolVar(&opts.noClean, "no-clean", false, "Keep previous contents of the scratch area")
	flags.StringVar(&opts.inner, "inner", "", "Byte-compile the tree first: bytecode or extension")
	flags.StringVar(&opts.interpreter, "python", "", "Interpreter line written into the archive shebang")
	flags.StringVar(&opts.root, "root", opts.root, "Project root holding the bin/ and obj/ trees")
	return cmd
}

func (o *archiveOptions) packager(layout stage.Layout) (*pyzarchive.Packager, error) {
	if o.configFile != "" {
		manifest, err := target.Load(o.configFile)
		if err != nil {
			return nil, err
		}
		return manifest.Packager(layout)
	}
	p := &pyzarchive.Packager{
		Path:       o.path,
		Name:       o.name,
		Main:       o.main,
		Compressed: !o.uncompressed,
		Clean:      !o.noClean,
		Layout:     layout,
		Writer:     pyzarchive.ZipappWriter{Interpreter: o.interpreter},
	}
	if o.inner != "" {
		kind, err := parseCompileKind(o.inner)
		if err != nil {
			return nil, err
		}
		p.Inner = &pycompile.Compiler{
			Path:     o.path,
			Kind:     kind,
			Optimize: 2,
			Layout:   layout,
		}
	}
	return p, nil
}
