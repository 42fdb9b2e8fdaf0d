// File: cmd/pybuild/run.go
// Brief: Helpers shared by the stage commands: logger setup, history recording.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/example/pybuild/internal/history"
	"github.com/example/pybuild/internal/logging"
)

// buildLogger constructs the stage logger from the root --log-level flag.
func buildLogger(level *string) (*zap.Logger, error) {
	return logging.New(*level)
}

// reportBuilt prints the one-line success banner for a stage run.
func reportBuilt(w io.Writer, output string) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("Built"), output)
}

// recordRun appends a run to the on-disk history. Recording is best effort:
// a broken history store never fails the build that produced the artifact.
func recordRun(ctx context.Context, root, stageName, target, output string, started time.Time, runErr error, log *zap.Logger) {
	store, err := history.Open(root)
	if err != nil {
		log.Warn("history store unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	run := history.Run{
		Stage:     stageName,
		Target:    target,
		Output:    output,
		Status:    "ok",
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if runErr != nil {
		run.Status = "failed"
		run.Error = runErr.Error()
	}
	if err := store.Record(ctx, run); err != nil {
		log.Warn("failed to record build history", zap.Error(err))
	}
}
