// File: cmd/pybuild/history.go
// Brief: CLI command wiring and implementation for 'history'.

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/pybuild/internal/history"
)

var (
	historyStatusOK     = color.New(color.FgGreen).SprintFunc()
	historyStatusFailed = color.New(color.FgRed).SprintFunc()
)

func newHistoryCommand() *cobra.Command {
	var limit int
	var root string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recorded stage runs for this project",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(root)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			if !noHeaders {
				fmt.Fprintln(w, "WHEN\tSTAGE\tTARGET\tOUTPUT\tDURATION\tSTATUS")
			}
			for _, run := range runs {
				status := historyStatusOK(run.Status)
				if run.Status != "ok" {
					status = historyStatusFailed(run.Status)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					run.StartedAt.Local().Format(time.DateTime),
					run.Stage,
					run.Target,
					run.Output,
					run.Duration.Round(time.Millisecond),
					status,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&root, "root", ".", "Project root holding the history database")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Skip the column header row")
	return cmd
}
