// build.go orchestrates one bundle: reindex, argument construction, backend
// invocation in a private scratch tree, then relocation into bin/.
package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/pybuild/internal/index"
	"github.com/example/pybuild/internal/stage"
)

// Builder runs one target.
type Builder struct {
	Config *Config
	// Runner defaults to ExecRunner.
	Runner Runner
	Log    *zap.Logger
}

// Build validates, refreshes the bundled-file index, invokes the backend in a
// per-invocation scratch layout under MainFolder/obj, and on success relocates
// the artifacts into MainFolder/bin, overwriting same-named entries.
func (b *Builder) Build(ctx context.Context) error {
	cfg := b.Config
	if cfg == nil {
		return stage.Configf("bundle: configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := b.logger()

	// Reindex before argument construction; indexed files are embedded as
	// data-bundling fragments.
	files, err := index.Scan(cfg.MainFolder, index.Options{
		Exclude:  cfg.Exclude,
		Patterns: cfg.ExcludePatterns,
		MainFile: cfg.MainFile,
	}, log)
	if err != nil {
		return &stage.IOError{Op: "bundle index", Path: cfg.MainFolder, Err: err}
	}
	cfg.DataFiles = files

	args, err := cfg.Args()
	if err != nil {
		return stage.Configf("bundle: bad additional args: %v", err)
	}

	scratchRoot := filepath.Join(cfg.MainFolder, "obj")
	scratch := Scratch{
		DistPath: filepath.Join(scratchRoot, "application"),
		WorkPath: filepath.Join(scratchRoot, "build"),
		SpecPath: scratchRoot,
	}
	for _, dir := range []string{scratch.DistPath, scratch.WorkPath} {
		if err := stage.Ensure(dir); err != nil {
			return &stage.IOError{Op: "bundle ensure", Path: dir, Err: err}
		}
	}

	log.Info("executing backend",
		zap.String("target", cfg.BinFolder()),
		zap.String("command", strings.Join(args, " ")))
	if err := b.runner().Run(ctx, args, scratch); err != nil {
		return err
	}

	output, err := filepath.Abs(filepath.Join(cfg.MainFolder, "bin"))
	if err != nil {
		return &stage.IOError{Op: "bundle resolve", Path: cfg.MainFolder, Err: err}
	}
	log.Info("relocating artifacts", zap.String("from", scratch.DistPath), zap.String("to", output))
	if err := MoveContents(scratch.DistPath, output, log); err != nil {
		return err
	}
	log.Info("bundle complete", zap.String("output", output))
	return nil
}

// MoveContents moves every entry of src into dst, overwriting same-named
// entries: files are replaced, directories are removed wholesale before the
// move. dst is created if missing.
func MoveContents(src, dst string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if err := stage.Ensure(dst); err != nil {
		return &stage.IOError{Op: "move ensure", Path: dst, Err: err}
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return &stage.IOError{Op: "move read", Path: src, Err: err}
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if info, err := os.Stat(dstPath); err == nil {
			if info.IsDir() {
				if err := os.RemoveAll(dstPath); err != nil {
					return &stage.IOError{Op: "move replace", Path: dstPath, Err: err}
				}
			} else if err := os.Remove(dstPath); err != nil {
				return &stage.IOError{Op: "move replace", Path: dstPath, Err: err}
			}
		}
		if err := os.Rename(srcPath, dstPath); err != nil {
			return &stage.IOError{Op: "move", Path: srcPath, Err: err}
		}
		log.Debug("moved", zap.String("from", srcPath), zap.String("to", dstPath))
	}
	return nil
}

func (b *Builder) runner() Runner {
	if b.Runner != nil {
		return b.Runner
	}
	return ExecRunner{}
}

func (b *Builder) logger() *zap.Logger {
	if b.Log != nil {
		return b.Log
	}
	return zap.NewNop()
}
