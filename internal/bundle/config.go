// Package bundle turns a declarative configuration into a single invocation of
// the executable-bundling backend and relocates its output into bin/.
package bundle

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/example/pybuild/internal/index"
	"github.com/example/pybuild/internal/stage"
)

// BinaryPair maps an extra binary to its destination inside the bundle.
type BinaryPair struct {
	Source string
	Dest   string
}

// Config is the flat option record for one bundle target. Every field is
// independently toggleable; an absent/zero field contributes nothing to the
// generated command. One-file mode is the only option that interacts with
// anything else (it is incompatible with multi-target merging).
type Config struct {
	// MainFolder is the project root the backend runs against.
	MainFolder string
	// MainFile is the entry-point script, relative to MainFolder. It is
	// always the final positional argument.
	MainFile string
	// Exclude lists root-relative paths never bundled.
	Exclude []string
	// ExcludePatterns adds ignore-style patterns on top of Exclude.
	ExcludePatterns []string

	Icon        string
	OneFile     bool
	HideConsole bool

	// DataFiles is refreshed from the indexer before every build; anything
	// set here beforehand is discarded.
	DataFiles []index.File
	DLLs      []string

	UpxDir    string
	NoUnicode bool
	Clean     bool
	LogLevel  string
	AppName   string

	ExtraBinaries  []BinaryPair
	ImportPaths    []string
	HiddenImports  []string
	HookDirs       []string
	RuntimeHooks   []string
	ExcludeModules []string
	Key            string

	Debug        string
	StripSymbols bool
	NoUPX        bool

	VersionFile  string
	ManifestFile string
	UACAdmin     bool
	UACUIAccess  bool

	WinPrivateAssemblies bool
	WinNoPreferRedirects bool

	OSXBundleIdentifier string

	RuntimeTmpdir           string
	BootloaderIgnoreSignals bool

	// AdditionalArgs is a raw manual command fragment, split shell-style and
	// appended before the main file.
	AdditionalArgs string
}

// Validate checks the configuration eagerly, before any filesystem mutation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MainFolder) == "" {
		return stage.Configf("bundle: main folder is required")
	}
	if strings.TrimSpace(c.MainFile) == "" {
		return stage.Configf("bundle: main file is required")
	}
	if c.Icon != "" {
		icon := normalize(c.Icon)
		for _, e := range c.Exclude {
			if normalize(e) == icon {
				return stage.Configf("bundle: icon %s cannot be excluded", c.Icon)
			}
		}
	}
	return nil
}

// BinFolder is the per-target output subfolder under bin/: the app name when
// set, else the main file's stem.
func (c *Config) BinFolder() string {
	if c.AppName != "" {
		return c.AppName
	}
	base := filepath.Base(c.MainFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalize(p string) string {
	return path.Clean(filepath.ToSlash(strings.TrimSpace(p)))
}
