// buildinfo.go captures build metadata (version, commit, date) for use in version outputs.
package buildinfo

// Version is injected at build time via -ldflags and defaults to dev.
var Version = "dev"

// Commit is the VCS revision pybuild was built from, when injected.
var Commit = ""

// Date is the build timestamp, when injected.
var Date = ""
