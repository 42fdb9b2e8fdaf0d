// File: cmd/pybuild/main.go
// Brief: Entry point: root command, config binding, and error reporting.

// Package main provides the pybuild CLI entrypoints.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/example/pybuild/internal/stage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	logLevel := "info"
	cmd := &cobra.Command{
		Use:   "pybuild",
		Short: "Staged build pipeline for Python projects",
		Long: `pybuild chains the compile, archive, and bundle stages of a Python project
into progressively more deployable artifacts under bin/: compiled bytecode
trees, interpreter-runnable zipapp archives, and standalone executables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level for pybuild output (debug, info, warn, or error)")

	compileCmd := newCompileCommand(&logLevel)
	archiveCmd := newArchiveCommand(&logLevel)
	bundleCmd := newBundleCommand(&logLevel)
	mergeCmd := newMergeCommand(&logLevel)
	historyCmd := newHistoryCommand()
	cmd.AddCommand(
		compileCmd,
		archiveCmd,
		bundleCmd,
		mergeCmd,
		historyCmd,
		newDocsCommand(),
		newVersionCommand(),
	)
	bindViper(compileCmd, archiveCmd, bundleCmd, mergeCmd, historyCmd)
	return cmd
}

func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("PYBUILD")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		configFile := os.Getenv("PYBUILD_CONFIG")
		configureConfigFile(v, configFile)
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		if err := readConfigFile(v, configFile != ""); err != nil {
			cobra.CheckErr(err)
		}
		for _, cmd := range commands {
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if !v.IsSet(f.Name) {
					return
				}
				val := fmt.Sprintf("%v", v.Get(f.Name))
				if val != "" {
					_ = f.Value.Set(val)
				}
			})
		}
	})
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	added := make(map[string]struct{})
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := added[path]; ok {
			return
		}
		added[path] = struct{}{}
		dirs = append(dirs, path)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "pybuild"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		add(filepath.Join(home, ".config", "pybuild"))
		add(filepath.Join(home, ".pybuild"))
	}
	return dirs
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	var cfgErr *stage.ConfigError
	var backendErr *stage.BackendError
	switch {
	case errors.As(err, &cfgErr):
		message = fmt.Sprintf("%s\nHint: this is a configuration problem; nothing was built. Adjust the flags or manifest and retry.", err)
	case errors.As(err, &backendErr):
		message = fmt.Sprintf("%s\nHint: an external tool failed. Its output above usually names the offending file.", err)
	case errors.Is(err, fs.ErrNotExist):
		message = fmt.Sprintf("%s\nHint: a staged directory is missing. Earlier pipeline stages may not have run yet.", err)
	case errors.Is(err, fs.ErrPermission):
		message = fmt.Sprintf("%s\nHint: check ownership of the bin/ and obj/ trees.", err)
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), message)
}
