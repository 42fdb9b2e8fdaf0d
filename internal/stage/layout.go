package stage

import "path/filepath"

// Layout derives every stage's output and scratch root from a single project
// root. Paths match the layout existing callers script against: bin/pyc,
// bin/pyd, bin/pyz, bin/<app>, and obj/pyz for the packager's private staging.
type Layout struct {
	Root string
}

func (l Layout) root() string {
	if l.Root == "" {
		return "."
	}
	return l.Root
}

// Bin is the shared artifact root.
func (l Layout) Bin() string { return filepath.Join(l.root(), "bin") }

// Obj is the shared scratch root.
func (l Layout) Obj() string { return filepath.Join(l.root(), "obj") }

// BytecodeRoot is where compiled bytecode trees land.
func (l Layout) BytecodeRoot() string { return filepath.Join(l.root(), "bin", "pyc") }

// ExtensionRoot is where extension-module trees land.
func (l Layout) ExtensionRoot() string { return filepath.Join(l.root(), "bin", "pyd") }

// ArchiveRoot is where zipapp archives land.
func (l Layout) ArchiveRoot() string { return filepath.Join(l.root(), "bin", "pyz") }

// BundleRoot is the final output folder for one bundled application.
func (l Layout) BundleRoot(app string) string { return filepath.Join(l.root(), "bin", app) }

// ArchiveStaging is the packager's private scratch subtree for an inner
// compiler, keyed by that compiler's own output subpath so chained stages
// never collide.
func (l Layout) ArchiveStaging(compilerPath string) string {
	return filepath.Join(l.root(), "obj", "pyz", compilerPath)
}
