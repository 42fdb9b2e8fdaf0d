// File: cmd/pybuild/docs.go
// Brief: CLI command wiring and implementation for 'docs'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/pybuild/docs"
)

func newDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "docs",
		Short:         "Print the pipeline guide",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), docs.PipelineMD)
			return nil
		},
	}
}
