// args.go is the declarative-to-positional mapping: one configured option, one
// argument fragment, in a fixed order the backend relies on.
package bundle

import (
	"os"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// dataSep separates source and destination in --add-data/--add-binary
// fragments; the backend expects the platform list separator.
var dataSep = string(os.PathListSeparator)

// Args builds the full backend argument list. Absent options contribute
// nothing; list-valued options contribute one fragment per element in index
// order; the main entry file is always last.
func (c *Config) Args() ([]string, error) {
	args := []string{"-y"}
	if c.OneFile {
		args = append(args, "-F")
	}
	if c.HideConsole {
		args = append(args, "-w")
	}
	if c.Icon != "" {
		args = append(args, "-i", filepath.Join(c.MainFolder, c.Icon))
	}
	for _, f := range c.DataFiles {
		args = append(args, "--add-data", f.Source+dataSep+f.Dest)
	}
	for _, dll := range c.DLLs {
		args = append(args, "--add-data", filepath.Join(c.MainFolder, dll)+dataSep+".")
	}
	if c.UpxDir != "" {
		args = append(args, "--upx-dir", c.UpxDir)
	}
	if c.NoUnicode {
		args = append(args, "-a")
	}
	if c.Clean {
		args = append(args, "--clean")
	}
	if c.LogLevel != "" {
		args = append(args, "--log-level", strings.ToUpper(c.LogLevel))
	}
	if c.AppName != "" {
		args = append(args, "-n", c.AppName)
	}
	for _, b := range c.ExtraBinaries {
		args = append(args, "--add-binary", b.Source+dataSep+b.Dest)
	}
	for _, p := range c.ImportPaths {
		args = append(args, "-p", p)
	}
	for _, imp := range c.HiddenImports {
		args = append(args, "--hidden-import", imp)
	}
	for _, dir := range c.HookDirs {
		args = append(args, "--additional-hooks-dir", dir)
	}
	for _, hook := range c.RuntimeHooks {
		args = append(args, "--runtime-hook", hook)
	}
	for _, mod := range c.ExcludeModules {
		args = append(args, "--exclude-module", mod)
	}
	if c.Key != "" {
		args = append(args, "--key", c.Key)
	}
	if c.Debug != "" {
		args = append(args, "--debug", c.Debug)
	}
	if c.StripSymbols {
		args = append(args, "-s")
	}
	if c.NoUPX {
		args = append(args, "--noupx")
	}
	if c.VersionFile != "" {
		args = append(args, "--version-file", c.VersionFile)
	}
	if c.ManifestFile != "" {
		args = append(args, "-m", c.ManifestFile)
	}
	if c.UACAdmin {
		args = append(args, "--uac-admin")
	}
	if c.UACUIAccess {
		args = append(args, "--uac-uiaccess")
	}
	if c.WinPrivateAssemblies {
		args = append(args, "--win-private-assemblies")
	}
	if c.WinNoPreferRedirects {
		args = append(args, "--win-no-prefer-redirects")
	}
	if c.OSXBundleIdentifier != "" {
		args = append(args, "--osx-bundle-identifier", c.OSXBundleIdentifier)
	}
	if c.RuntimeTmpdir != "" {
		args = append(args, "--runtime-tmpdir", c.RuntimeTmpdir)
	}
	if c.BootloaderIgnoreSignals {
		args = append(args, "--bootloader-ignore-signals")
	}
	if raw := strings.TrimSpace(c.AdditionalArgs); raw != "" {
		extra, err := shellwords.Parse(raw)
		if err != nil {
			return nil, err
		}
		args = append(args, extra...)
	}
	args = append(args, filepath.Join(c.MainFolder, c.MainFile))
	return args, nil
}
