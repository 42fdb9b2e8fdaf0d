// Package target loads the declarative pybuild.yaml manifest and maps it onto
// stage configurations, validating eagerly so a bad manifest never starts a
// build.
package target

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/example/pybuild/internal/bundle"
	"github.com/example/pybuild/internal/merge"
	"github.com/example/pybuild/internal/pycompile"
	"github.com/example/pybuild/internal/pyzarchive"
	"github.com/example/pybuild/internal/stage"
)

// DefaultFile is the manifest name looked up in the project root.
const DefaultFile = "pybuild.yaml"

// Manifest is the top-level pybuild.yaml document.
type Manifest struct {
	Project string       `yaml:"project,omitempty"`
	Compile *CompileSpec `yaml:"compile,omitempty"`
	Archive *ArchiveSpec `yaml:"archive,omitempty"`
	Bundles []BundleSpec `yaml:"bundles,omitempty"`
	Merge   *MergeSpec   `yaml:"merge,omitempty"`
}

// CompileSpec configures the bytecode/extension compile stage.
type CompileSpec struct {
	Path        string   `yaml:"path"`
	Kind        string   `yaml:"kind,omitempty"` // bytecode (default) or extension
	Optimize    *int     `yaml:"optimize,omitempty"`
	Clean       *bool    `yaml:"clean,omitempty"`
	Quiet       bool     `yaml:"quiet,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	FailOnCheck bool     `yaml:"failOnCheck,omitempty"`
	NoCheck     bool     `yaml:"noCheck,omitempty"`
}

// ArchiveSpec configures the zipapp archive stage.
type ArchiveSpec struct {
	Path        string `yaml:"path"`
	Name        string `yaml:"name"`
	Main        string `yaml:"main,omitempty"`
	Compressed  *bool  `yaml:"compressed,omitempty"`
	Clean       *bool  `yaml:"clean,omitempty"`
	Inner       string `yaml:"inner,omitempty"` // none (default), bytecode, or extension
	Interpreter string `yaml:"interpreter,omitempty"`
}

// BundleSpec mirrors bundle.Config with manifest-friendly names.
type BundleSpec struct {
	MainFolder      string     `yaml:"mainFolder"`
	MainFile        string     `yaml:"mainFile"`
	AppName         string     `yaml:"appName,omitempty"`
	Exclude         []string   `yaml:"exclude,omitempty"`
	ExcludePatterns []string   `yaml:"excludePatterns,omitempty"`
	Icon            string     `yaml:"icon,omitempty"`
	OneFile         bool       `yaml:"oneFile,omitempty"`
	HideConsole     bool       `yaml:"hideConsole,omitempty"`
	DLLs            []string   `yaml:"dlls,omitempty"`
	UpxDir          string     `yaml:"upxDir,omitempty"`
	NoUnicode       bool       `yaml:"noUnicode,omitempty"`
	Clean           bool       `yaml:"clean,omitempty"`
	LogLevel        string     `yaml:"logLevel,omitempty"`
	ExtraBinaries   []PairSpec `yaml:"extraBinaries,omitempty"`
	ImportPaths     []string   `yaml:"importPaths,omitempty"`
	HiddenImports   []string   `yaml:"hiddenImports,omitempty"`
	HookDirs        []string   `yaml:"hookDirs,omitempty"`
	RuntimeHooks    []string   `yaml:"runtimeHooks,omitempty"`
	ExcludeModules  []string   `yaml:"excludeModules,omitempty"`
	Key             string     `yaml:"key,omitempty"`
	Debug           string     `yaml:"debug,omitempty"`
	StripSymbols    bool       `yaml:"stripSymbols,omitempty"`
	NoUPX           bool       `yaml:"noUpx,omitempty"`
	VersionFile     string     `yaml:"versionFile,omitempty"`
	ManifestFile    string     `yaml:"manifestFile,omitempty"`
	UACAdmin        bool       `yaml:"uacAdmin,omitempty"`
	UACUIAccess     bool       `yaml:"uacUiAccess,omitempty"`
	WinPrivateAsm   bool       `yaml:"winPrivateAssemblies,omitempty"`
	WinNoRedirects  bool       `yaml:"winNoPreferRedirects,omitempty"`
	OSXBundleID     string     `yaml:"osxBundleIdentifier,omitempty"`
	RuntimeTmpdir   string     `yaml:"runtimeTmpdir,omitempty"`
	IgnoreSignals   bool       `yaml:"bootloaderIgnoreSignals,omitempty"`
	AdditionalArgs  string     `yaml:"additionalArgs,omitempty"`
}

// PairSpec is a source/destination pair.
type PairSpec struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// MergeSpec names the merged build and, optionally, the subset of bundles to
// include (by app name); empty means every bundle in the manifest.
type MergeSpec struct {
	AppName string   `yaml:"appName"`
	Targets []string `yaml:"targets,omitempty"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Compile != nil {
		if strings.TrimSpace(m.Compile.Path) == "" {
			return stage.Configf("manifest: compile.path is required")
		}
		if _, err := parseKind(m.Compile.Kind); err != nil {
			return err
		}
	}
	if m.Archive != nil {
		if strings.TrimSpace(m.Archive.Path) == "" {
			return stage.Configf("manifest: archive.path is required")
		}
		if strings.TrimSpace(m.Archive.Name) == "" {
			return stage.Configf("manifest: archive.name is required")
		}
		switch m.Archive.Inner {
		case "", "none", "bytecode", "extension":
		default:
			return stage.Configf("manifest: archive.inner %q (want none, bytecode, or extension)", m.Archive.Inner)
		}
	}
	for i, b := range m.Bundles {
		if strings.TrimSpace(b.MainFolder) == "" || strings.TrimSpace(b.MainFile) == "" {
			return stage.Configf("manifest: bundles[%d] needs mainFolder and mainFile", i)
		}
	}
	if m.Merge != nil {
		if strings.TrimSpace(m.Merge.AppName) == "" {
			return stage.Configf("manifest: merge.appName is required")
		}
		if len(m.Bundles) == 0 {
			return stage.Configf("manifest: merge requires at least one bundle")
		}
		for _, want := range m.Merge.Targets {
			if m.findBundle(want) == nil {
				return stage.Configf("manifest: merge target %q does not match any bundle", want)
			}
		}
	}
	return nil
}

func (m *Manifest) findBundle(name string) *BundleSpec {
	for i := range m.Bundles {
		spec := &m.Bundles[i]
		cfg := bundle.Config{MainFile: spec.MainFile, AppName: spec.AppName}
		if cfg.BinFolder() == name {
			return spec
		}
	}
	return nil
}

func parseKind(s string) (pycompile.Kind, error) {
	switch s {
	case "", "bytecode":
		return pycompile.Bytecode, nil
	case "extension":
		return pycompile.Extension, nil
	default:
		return 0, stage.Configf("manifest: compiler kind %q (want bytecode or extension)", s)
	}
}

// Compiler maps the compile section onto a stage compiler.
func (m *Manifest) Compiler(layout stage.Layout) (*pycompile.Compiler, error) {
	if m.Compile == nil {
		return nil, stage.Configf("manifest: no compile section")
	}
	kind, err := parseKind(m.Compile.Kind)
	if err != nil {
		return nil, err
	}
	path, err := expand(m.Compile.Path)
	if err != nil {
		return nil, err
	}
	c := &pycompile.Compiler{
		Path:        path,
		Exclude:     m.Compile.Exclude,
		Kind:        kind,
		Optimize:    2,
		Clean:       true,
		Quiet:       m.Compile.Quiet,
		FailOnCheck: m.Compile.FailOnCheck,
		Layout:      layout,
	}
	if m.Compile.Optimize != nil {
		c.Optimize = *m.Compile.Optimize
	}
	if m.Compile.Clean != nil {
		c.Clean = *m.Compile.Clean
	}
	if !m.Compile.NoCheck {
		c.Checker = pycompile.MypyChecker{}
	}
	return c, nil
}

// Packager maps the archive section onto a stage packager.
func (m *Manifest) Packager(layout stage.Layout) (*pyzarchive.Packager, error) {
	if m.Archive == nil {
		return nil, stage.Configf("manifest: no archive section")
	}
	path, err := expand(m.Archive.Path)
	if err != nil {
		return nil, err
	}
	p := &pyzarchive.Packager{
		Path:       path,
		Name:       m.Archive.Name,
		Main:       m.Archive.Main,
		Compressed: true,
		Clean:      true,
		Layout:     layout,
		Writer:     pyzarchive.ZipappWriter{Interpreter: m.Archive.Interpreter},
	}
	if m.Archive.Compressed != nil {
		p.Compressed = *m.Archive.Compressed
	}
	if m.Archive.Clean != nil {
		p.Clean = *m.Archive.Clean
	}
	switch m.Archive.Inner {
	case "bytecode", "extension":
		kind, _ := parseKind(m.Archive.Inner)
		p.Inner = &pycompile.Compiler{Path: path, Kind: kind, Optimize: 2, Layout: layout}
	}
	return p, nil
}

// BundleConfigs maps every bundle entry onto a bundler configuration.
func (m *Manifest) BundleConfigs() ([]*bundle.Config, error) {
	configs := make([]*bundle.Config, 0, len(m.Bundles))
	for i := range m.Bundles {
		cfg, err := m.Bundles[i].toConfig()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// MergeBuild assembles the merged build named by the merge section.
func (m *Manifest) MergeBuild(layout stage.Layout) (*merge.MultiBuild, error) {
	if m.Merge == nil {
		return nil, stage.Configf("manifest: no merge section")
	}
	var specs []*BundleSpec
	if len(m.Merge.Targets) == 0 {
		for i := range m.Bundles {
			specs = append(specs, &m.Bundles[i])
		}
	} else {
		for _, name := range m.Merge.Targets {
			specs = append(specs, m.findBundle(name))
		}
	}
	configs := make([]*bundle.Config, 0, len(specs))
	for _, spec := range specs {
		cfg, err := spec.toConfig()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	mb, err := merge.New(m.Merge.AppName, configs...)
	if err != nil {
		return nil, err
	}
	mb.Layout = layout
	return mb, nil
}

func (s *BundleSpec) toConfig() (*bundle.Config, error) {
	folder, err := expand(s.MainFolder)
	if err != nil {
		return nil, err
	}
	upx, err := expand(s.UpxDir)
	if err != nil {
		return nil, err
	}
	binaries := make([]bundle.BinaryPair, 0, len(s.ExtraBinaries))
	for _, p := range s.ExtraBinaries {
		binaries = append(binaries, bundle.BinaryPair{Source: p.Source, Dest: p.Dest})
	}
	cfg := &bundle.Config{
		MainFolder:              folder,
		MainFile:                s.MainFile,
		Exclude:                 s.Exclude,
		ExcludePatterns:         s.ExcludePatterns,
		Icon:                    s.Icon,
		OneFile:                 s.OneFile,
		HideConsole:             s.HideConsole,
		DLLs:                    s.DLLs,
		UpxDir:                  upx,
		NoUnicode:               s.NoUnicode,
		Clean:                   s.Clean,
		LogLevel:                s.LogLevel,
		AppName:                 s.AppName,
		ExtraBinaries:           binaries,
		ImportPaths:             s.ImportPaths,
		HiddenImports:           s.HiddenImports,
		HookDirs:                s.HookDirs,
		RuntimeHooks:            s.RuntimeHooks,
		ExcludeModules:          s.ExcludeModules,
		Key:                     s.Key,
		Debug:                   s.Debug,
		StripSymbols:            s.StripSymbols,
		NoUPX:                   s.NoUPX,
		VersionFile:             s.VersionFile,
		ManifestFile:            s.ManifestFile,
		UACAdmin:                s.UACAdmin,
		UACUIAccess:             s.UACUIAccess,
		WinPrivateAssemblies:    s.WinPrivateAsm,
		WinNoPreferRedirects:    s.WinNoRedirects,
		OSXBundleIdentifier:     s.OSXBundleID,
		RuntimeTmpdir:           s.RuntimeTmpdir,
		BootloaderIgnoreSignals: s.IgnoreSignals,
		AdditionalArgs:          s.AdditionalArgs,
	}
	return cfg, cfg.Validate()
}

func expand(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", stage.Configf("manifest: expand %s: %v", path, err)
	}
	return expanded, nil
}
