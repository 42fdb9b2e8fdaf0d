// Package merge composes several bundle targets into one combined build with
// a shared output namespace, resolving name collisions up front.
package merge

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/pybuild/internal/bundle"
	"github.com/example/pybuild/internal/stage"
)

// MultiBuild is a validated set of bundle targets sharing one application
// name. Construct it with New; a zero MultiBuild has skipped validation.
type MultiBuild struct {
	AppName string
	Configs []*bundle.Config
	// Layout locates the shared bin/ namespace the merged output lands in.
	Layout stage.Layout
	// Runner is handed to every target's builder.
	Runner bundle.Runner

	Log *zap.Logger
}

// New validates the composition eagerly: no target may use one-file mode, all
// effective app names (the merge's own included) must be pairwise distinct,
// and every target gets the other targets' main files added to its exclusion
// set so one build never swallows another's entry point. No target is built
// and nothing on disk is touched until Build.
func New(appName string, configs ...*bundle.Config) (*MultiBuild, error) {
	if strings.TrimSpace(appName) == "" {
		return nil, stage.Configf("merge: application name is required")
	}
	if len(configs) == 0 {
		return nil, stage.Configf("merge: at least one target is required")
	}
	seen := map[string]struct{}{appName: {}}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if cfg.OneFile {
			return nil, stage.Configf("merge: target %s is in one-file mode, which cannot be merged", cfg.MainFile)
		}
		name := cfg.BinFolder()
		if _, dup := seen[name]; dup {
			return nil, stage.Configf("merge: a target with app name %q already exists", name)
		}
		seen[name] = struct{}{}
	}
	if err := reconcileExclusions(configs); err != nil {
		return nil, err
	}
	return &MultiBuild{AppName: appName, Configs: configs}, nil
}

// reconcileExclusions adds every other target's main file to each target's
// exclusion set, comparing absolute normalized paths against the target's own
// root. A main file living outside a target's tree needs no exclusion there.
func reconcileExclusions(configs []*bundle.Config) error {
	mains := make([]string, len(configs))
	for i, cfg := range configs {
		abs, err := filepath.Abs(filepath.Join(cfg.MainFolder, cfg.MainFile))
		if err != nil {
			return &stage.IOError{Op: "merge resolve", Path: cfg.MainFile, Err: err}
		}
		mains[i] = abs
	}
	for i, cfg := range configs {
		excluded := map[string]struct{}{}
		for _, e := range cfg.Exclude {
			abs, err := filepath.Abs(filepath.Join(cfg.MainFolder, e))
			if err != nil {
				return &stage.IOError{Op: "merge resolve", Path: e, Err: err}
			}
			excluded[abs] = struct{}{}
		}
		root, err := filepath.Abs(cfg.MainFolder)
		if err != nil {
			return &stage.IOError{Op: "merge resolve", Path: cfg.MainFolder, Err: err}
		}
		for j, main := range mains {
			if j == i {
				continue
			}
			if _, ok := excluded[main]; ok {
				continue
			}
			rel, err := filepath.Rel(root, main)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			cfg.Exclude = append(cfg.Exclude, filepath.ToSlash(rel))
		}
	}
	return nil
}

// Build runs every target strictly in the order supplied, then merges each
// per-target bin subfolder into the shared bin/<AppName> folder.
func (m *MultiBuild) Build(ctx context.Context) error {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	for _, cfg := range m.Configs {
		b := &bundle.Builder{Config: cfg, Runner: m.Runner, Log: log}
		if err := b.Build(ctx); err != nil {
			return err
		}
	}

	dest := m.Layout.BundleRoot(m.AppName)
	for _, cfg := range m.Configs {
		src := filepath.Join(cfg.MainFolder, "bin", cfg.BinFolder())
		log.Info("merging target output", zap.String("from", src), zap.String("to", dest))
		if err := bundle.MoveContents(src, dest, log); err != nil {
			return err
		}
		if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
			return &stage.IOError{Op: "merge cleanup", Path: src, Err: err}
		}
	}
	log.Info("merge complete", zap.String("output", dest))
	return nil
}
