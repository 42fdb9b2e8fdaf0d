// File: cmd/pybuild/version.go
// Brief: CLI command wiring and implementation for 'version'.

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/example/pybuild/internal/buildinfo"
)

func newVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:           "version",
		Short:         "Print the pybuild version information",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Version)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", buildinfo.Version)
			if buildinfo.Commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "GitCommit: %s\n", buildinfo.Commit)
			}
			if buildinfo.Date != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "BuildDate: %s\n", buildinfo.Date)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "GoVersion: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print just the version number")
	return cmd
}
