// writer.go implements the default archive writer: a zipapp-style .pyz with a
// generated __main__.py bound to the configured entry identifier.
package pyzarchive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/example/pybuild/internal/stage"
)

// mainRegex matches "pkg.module:function" entry identifiers, same shape the
// Python zipapp module accepts.
var mainRegex = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*(\.[_a-zA-Z][_a-zA-Z0-9]*)*:[_a-zA-Z][_a-zA-Z0-9]*$`)

func validateMain(main string) error {
	if !mainRegex.MatchString(main) {
		return stage.Configf("archive: invalid entry identifier %q (want \"pkg.module:function\")", main)
	}
	return nil
}

const mainStub = `# -*- coding: utf-8 -*-
import %s
%s.%s()
`

// ZipappWriter writes self-executing zip archives.
type ZipappWriter struct {
	// Interpreter, when set, is written as a shebang line so the archive can
	// be executed directly on POSIX systems.
	Interpreter string
}

// WriteArchive archives the source tree into target. When main is non-empty a
// generated __main__.py bound to it replaces any __main__.py in the tree;
// when main is empty the tree must already carry one.
func (w ZipappWriter) WriteArchive(source, target string, compressed bool, main string) error {
	if main != "" {
		if err := validateMain(main); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, "create archive directory")
	}
	f, err := os.Create(target)
	if err != nil {
		return errors.Wrap(err, "create archive")
	}
	defer func() {
		_ = f.Close()
	}()

	if w.Interpreter != "" {
		if _, err := fmt.Fprintf(f, "#!%s\n", w.Interpreter); err != nil {
			return errors.Wrap(err, "write shebang")
		}
	}

	zw := zip.NewWriter(f)
	method := zip.Store
	if compressed {
		method = zip.Deflate
	}

	sawMain := false
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == "__main__.py" {
			sawMain = true
			if main != "" {
				// The generated stub wins; a stale entry point would shadow it.
				return nil
			}
		}
		hdr := &zip.FileHeader{Name: name, Method: method}
		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(dst, src)
		_ = src.Close()
		return copyErr
	})
	if err != nil {
		return errors.Wrapf(err, "archive %s", source)
	}

	if main != "" {
		mod, fn, _ := strings.Cut(main, ":")
		dst, err := zw.CreateHeader(&zip.FileHeader{Name: "__main__.py", Method: method})
		if err != nil {
			return errors.Wrap(err, "write entry point")
		}
		if _, err := fmt.Fprintf(dst, mainStub, mod, mod, fn); err != nil {
			return errors.Wrap(err, "write entry point")
		}
	} else if !sawMain {
		return stage.Configf("archive: %s has no __main__.py and no entry identifier was given", source)
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "finalize archive")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close archive")
	}
	if w.Interpreter != "" {
		return os.Chmod(target, 0o755)
	}
	return nil
}

func copyFile(src, dest string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return &stage.IOError{Op: "copy open", Path: src, Err: err}
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &stage.IOError{Op: "copy create", Path: dest, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return &stage.IOError{Op: "copy", Path: dest, Err: err}
	}
	if err := out.Close(); err != nil {
		return &stage.IOError{Op: "copy close", Path: dest, Err: err}
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
