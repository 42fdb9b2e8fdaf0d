// File: cmd/pybuild/bundle.go
// Brief: CLI command wiring and implementation for 'bundle'.

package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/pybuild/internal/bundle"
	"github.com/example/pybuild/internal/stage"
	"github.com/example/pybuild/internal/target"
)

type bundleOptions struct {
	configFile      string
	targetName      string
	mainFolder      string
	mainFile        string
	appName         string
	exclude         []string
	excludePatterns []string
	icon            string
	oneFile         bool
	hideConsole     bool
	importPaths     []string
	hiddenImports   []string
	excludeModules  []string
	upxDir          string
	noUPX           bool
	clean           bool
	logLevel        string
	additionalArgs  string
	backend         string
}

func newBundleCommand(logLevel *string) *cobra.Command {
	var opts bundleOptions
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Bundle a Python application into a standalone executable",
		Args:  cobra.NoArgs,
		Long: `Bundle freezes an application folder into a standalone executable. The folder
is re-indexed on every run so added and removed data files are picked up, the
backend works in a scratch area under obj/, and the finished build is moved
into <folder>/bin/<app> only when the backend succeeds. Options beyond the
flags below can be passed verbatim with --args, or a manifest bundle entry can
drive the whole stage with --config (and --target when the manifest holds more
than one).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := opts.config()
			if err != nil {
				return err
			}
			builder := &bundle.Builder{Config: cfg, Log: log}
			if opts.backend != "" {
				builder.Runner = bundle.ExecRunner{Backend: opts.backend}
			}

			started := time.Now()
			runErr := builder.Build(cmd.Context())
			output := filepath.Join(cfg.MainFolder, "bin", cfg.BinFolder())
			recordRun(cmd.Context(), cfg.MainFolder, "bundle", cfg.BinFolder(), output, started, runErr, log)
			if runErr == nil {
				reportBuilt(cmd.OutOrStdout(), output)
			}
			return runErr
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Manifest file whose bundle entries drive the stage")
	flags.StringVarP(&opts.targetName, "target", "t", "", "Bundle entry to build when the manifest holds several")
	flags.StringVar(&opts.mainFolder, "main-folder", "", "Application folder to bundle")
	flags.StringVar(&opts.mainFile, "main-file", "", "Entry script, relative to the application folder")
	flags.StringVarP(&opts.appName, "app-name", "n", "", "Executable name (defaults to the entry script stem)")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "Relative paths inside the folder to leave out")
	flags.StringSliceVar(&opts.excludePatterns, "exclude-pattern", nil, "Glob patterns for paths to leave out")
	flags.StringVarP(&opts.icon, "icon", "i", "", "Icon file for the executable")
	flags.BoolVarP(&opts.oneFile, "one-file", "F", false, "Produce a single-file executable")
	flags.BoolVarP(&opts.hideConsole, "hide-console", "w", false, "Build a windowed executable without a console")
	flags.StringSliceVarP(&opts.importPaths, "import-path", "p", nil, "Extra import search paths")
	flags.StringSliceVar(&opts.hiddenImports, "hidden-import", nil, "Modules the backend cannot discover on its own")
	flags.StringSliceVar(&opts.excludeModules, "exclude-module", nil, "Modules to keep out of the executable")
	flags.StringVar(&opts.upxDir, "upx-dir", "", "Directory holding the upx binary")
	flags.BoolVar(&opts.noUPX, "no-upx", false, "Skip executable compression")
	flags.BoolVar(&opts.clean, "clean", false, "Clear the backend cache before building")
	flags.StringVar(&opts.logLevel, "backend-log-level", "", "Log level passed through to the backend")
	flags.StringVar(&opts.additionalArgs, "args", "", "Extra backend arguments, parsed shell-style")
	flags.StringVar(&opts.backend, "backend", "", "Bundling backend binary (default pyinstaller)")
	return cmd
}

func (o *bundleOptions) config() (*bundle.Config, error) {
	if o.configFile != "" {
		manifest, err := target.Load(o.configFile)
		if err != nil {
			return nil, err
		}
		return selectBundle(manifest, o.targetName)
	}
	return &bundle.Config{
		MainFolder:      o.mainFolder,
		MainFile:        o.mainFile,
		AppName:         o.appName,
		Exclude:         o.exclude,
		ExcludePatterns: o.excludePatterns,
		Icon:            o.icon,
		OneFile:         o.oneFile,
		HideConsole:     o.hideConsole,
		ImportPaths:     o.importPaths,
		HiddenImports:   o.hiddenImports,
		ExcludeModules:  o.excludeModules,
		UpxDir:          o.upxDir,
		NoUPX:           o.noUPX,
		Clean:           o.clean,
		LogLevel:        o.logLevel,
		AdditionalArgs:  o.additionalArgs,
	}, nil
}

func selectBundle(manifest *target.Manifest, name string) (*bundle.Config, error) {
	configs, err := manifest.BundleConfigs()
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, stage.Configf("manifest: no bundle entries")
	}
	if name == "" {
		if len(configs) == 1 {
			return configs[0], nil
		}
		return nil, stage.Configf("manifest holds %d bundle entries; pick one with --target", len(configs))
	}
	for _, cfg := range configs {
		if cfg.BinFolder() == name {
			return cfg, nil
		}
	}
	return nil, stage.Configf("manifest has no bundle entry named %q", name)
}
