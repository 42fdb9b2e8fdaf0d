// Package pyzarchive wraps a source or pre-compiled tree into a single
// self-contained zipapp archive under bin/pyz.
package pyzarchive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/pybuild/internal/pycompile"
	"github.com/example/pybuild/internal/stage"
)

// Writer produces the archive artifact from a staged tree.
type Writer interface {
	WriteArchive(source, target string, compressed bool, main string) error
}

// Packager drives one archive stage.
type Packager struct {
	// Path is the project tree to archive.
	Path string
	// Name is the archive file name under bin/pyz.
	Name string
	// Main is the entry identifier, "pkg.module:function".
	Main string
	// Compressed selects deflate over store; it never affects entry-point
	// resolution.
	Compressed bool
	// Clean clears the private staging tree before an inner compile.
	Clean bool
	// Inner optionally compiles the tree before archiving.
	Inner *pycompile.Compiler
	// Layout supplies bin/pyz and obj/pyz.
	Layout stage.Layout
	// Writer defaults to the zipapp writer.
	Writer Writer

	Log *zap.Logger
}

func (p *Packager) validate() error {
	if strings.TrimSpace(p.Path) == "" {
		return stage.Configf("archive: source path is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return stage.Configf("archive: archive name is required")
	}
	if p.Main != "" {
		if err := validateMain(p.Main); err != nil {
			return err
		}
	}
	if p.Inner != nil {
		if p.Inner.Kind != pycompile.Bytecode && p.Inner.Kind != pycompile.Extension {
			return stage.Configf("archive: incompatible inner compiler kind %d", int(p.Inner.Kind))
		}
	}
	return nil
}

// Package runs the stage and returns the path of the written archive.
func (p *Packager) Package(ctx context.Context) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	archiveRoot := p.Layout.ArchiveRoot()
	if err := stage.Ensure(archiveRoot); err != nil {
		return "", &stage.IOError{Op: "archive ensure", Path: archiveRoot, Err: err}
	}
	target := filepath.Join(archiveRoot, p.Name)

	if p.Inner == nil {
		log.Info("archiving", zap.String("source", p.Path), zap.String("target", target))
		if err := p.writer().WriteArchive(p.Path, target, p.Compressed, p.Main); err != nil {
			return "", err
		}
		return target, nil
	}

	staging := p.Layout.ArchiveStaging(p.Inner.Kind.OutputPath())
	objRoot := filepath.Join(p.Layout.Obj(), "pyz")
	if err := stage.Ensure(objRoot); err != nil {
		return "", &stage.IOError{Op: "archive ensure", Path: objRoot, Err: err}
	}
	if p.Clean {
		if err := stage.Clean(objRoot); err != nil {
			return "", &stage.IOError{Op: "archive clean", Path: objRoot, Err: err}
		}
	}
	if err := stage.Ensure(staging); err != nil {
		return "", &stage.IOError{Op: "archive ensure", Path: staging, Err: err}
	}

	// The inner compiler is redirected with an explicit output parameter; its
	// own configuration stays untouched.
	if err := p.Inner.CompileInto(ctx, staging); err != nil {
		return "", err
	}

	compiled := filepath.Join(staging, filepath.Base(filepath.Clean(p.Inner.Path)))
	log.Info("archiving", zap.String("source", compiled), zap.String("target", target))
	if err := p.writer().WriteArchive(compiled, target, p.Compressed, p.Main); err != nil {
		return "", err
	}
	if err := p.copyAuxiliary(p.Path, archiveRoot, log); err != nil {
		return "", err
	}
	log.Info("archive complete", zap.String("target", target))
	return target, nil
}

// copyAuxiliary mirrors every non-source, non-compiled file from src next to
// the archive, preserving directory structure.
func (p *Packager) copyAuxiliary(src, dest string, log *zap.Logger) error {
	info, err := os.Stat(src)
	if err != nil {
		return &stage.IOError{Op: "archive stat", Path: src, Err: err}
	}
	if !info.IsDir() {
		if isCompilable(src) {
			return nil
		}
		log.Info("copying auxiliary file", zap.String("source", src), zap.String("dest", dest))
		return copyFile(src, dest, info)
	}
	if err := stage.Ensure(dest); err != nil {
		return &stage.IOError{Op: "archive ensure", Path: dest, Err: err}
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return &stage.IOError{Op: "archive read", Path: src, Err: err}
	}
	for _, entry := range entries {
		if err := p.copyAuxiliary(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name()), log); err != nil {
			return err
		}
	}
	return nil
}

func isCompilable(path string) bool {
	switch filepath.Ext(path) {
	case ".py", ".pyc", ".pyd", ".pyo":
		return true
	}
	return false
}

func (p *Packager) writer() Writer {
	if p.Writer != nil {
		return p.Writer
	}
	return ZipappWriter{}
}
