// Package index walks a project tree and decides which files get bundled into
// an executable. The walk is depth-first and order-preserving; reserved build
// folders are always skipped, then exclusions are applied.
//
// The walk does not defend against symbolic-link cycles: traversing a cyclic
// link structure inherits the filesystem's behavior and is undefined.
package index

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
	"go.uber.org/zap"
)

// File pairs an absolute source path with the relative directory it is bundled
// under ("." for top-level files).
type File struct {
	Source string
	Dest   string
}

// Options controls one scan.
type Options struct {
	// Exclude lists root-relative paths never indexed. Entries that do not
	// exist in the tree are ignored.
	Exclude []string
	// Patterns holds dockerignore-style exclusion patterns applied on top of
	// Exclude.
	Patterns []string
	// MainFile is the entry-point file name; it is reserved alongside bin,
	// obj, and __pycache__ and never indexed.
	MainFile string
}

var reservedNames = map[string]struct{}{
	"bin":         {},
	"obj":         {},
	"__pycache__": {},
}

type scanner struct {
	root     string
	exclude  map[string]struct{}
	matcher  *patternmatcher.PatternMatcher
	mainFile string
	log      *zap.Logger
	files    []File
}

// Scan indexes every file reachable from root that survives the reserved-name
// and exclusion filters, in depth-first order. Duplicate inclusion is not
// normalized away; repeating a path in the tree is the caller's problem.
func Scan(root string, opts Options, log *zap.Logger) ([]File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &scanner{
		root:     root,
		exclude:  make(map[string]struct{}, len(opts.Exclude)),
		mainFile: normalizeRel(opts.MainFile),
		log:      log,
	}
	for _, e := range opts.Exclude {
		if n := normalizeRel(e); n != "" {
			s.exclude[n] = struct{}{}
		}
	}
	if len(opts.Patterns) > 0 {
		m, err := patternmatcher.New(opts.Patterns)
		if err != nil {
			return nil, err
		}
		s.matcher = m
	}
	if err := s.walk(""); err != nil {
		return nil, err
	}
	return s.files, nil
}

func (s *scanner) walk(rel string) error {
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name())
		if s.skip(entryRel, entry.Name()) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(s.root, filepath.FromSlash(entryRel)))
		if err != nil {
			return err
		}
		if entry.IsDir() {
			s.log.Debug("indexed folder", zap.String("path", entryRel))
			if err := s.walk(entryRel); err != nil {
				return err
			}
			continue
		}
		dest := path.Dir(entryRel)
		s.log.Debug("indexed file", zap.String("source", abs), zap.String("dest", dest))
		s.files = append(s.files, File{Source: abs, Dest: dest})
	}
	return nil
}

// skip applies reserved-name filtering first, then the exclusion set, then the
// pattern matcher. Reserved names win even when the exclusion configuration
// never mentions them.
func (s *scanner) skip(rel, base string) bool {
	if _, ok := reservedNames[rel]; ok {
		return true
	}
	if base == "__pycache__" {
		return true
	}
	if s.mainFile != "" && rel == s.mainFile {
		return true
	}
	if _, ok := s.exclude[rel]; ok {
		return true
	}
	if s.matcher != nil {
		if matched, err := s.matcher.MatchesOrParentMatches(rel); err == nil && matched {
			return true
		}
	}
	return false
}

func normalizeRel(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." || p == "/" {
		return ""
	}
	return strings.TrimPrefix(p, "./")
}
