// File: cmd/pybuild/merge.go
// Brief: CLI command wiring and implementation for 'merge'.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/pybuild/internal/bundle"
	"github.com/example/pybuild/internal/stage"
	"github.com/example/pybuild/internal/target"
)

type mergeOptions struct {
	configFile string
	backend    string
	root       string
}

func newMergeCommand(logLevel *string) *cobra.Command {
	opts := mergeOptions{configFile: target.DefaultFile, root: "."}
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Bundle several applications and merge them into one bin/ folder",
		Args:  cobra.NoArgs,
		Long: `Merge builds every bundle entry named by the manifest's merge section and
collects the finished executables under bin/<appName>. Each target's main
file is excluded from the others automatically so the merged folder holds
exactly one copy of every entry point.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			manifest, err := target.Load(opts.configFile)
			if err != nil {
				return err
			}
			layout := stage.Layout{Root: opts.root}
			mb, err := manifest.MergeBuild(layout)
			if err != nil {
				return err
			}
			mb.Log = log
			if opts.backend != "" {
				mb.Runner = bundle.ExecRunner{Backend: opts.backend}
			}

			started := time.Now()
			runErr := mb.Build(cmd.Context())
			recordRun(cmd.Context(), opts.root, "merge", mb.AppName, layout.BundleRoot(mb.AppName), started, runErr, log)
			if runErr == nil {
				reportBuilt(cmd.OutOrStdout(), layout.BundleRoot(mb.AppName))
			}
			return runErr
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", opts.configFile, "Manifest file holding the merge section")
	flags.StringVar(&opts.backend, "backend", "", "Bundling backend binary (default pyinstaller)")
	flags.StringVar(&opts.root, "root", opts.root, "Project root receiving the merged bin/ folder")
	return cmd
}
