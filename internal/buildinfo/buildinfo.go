// Package buildinfo holds identifiers stamped at link time with
// -ldflags "-X c28rtos/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the version, falling back to the commit for untagged builds.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Line describes the binary: identifiers plus the port variant it was built
// for (register set and tick handler mode).
func Line(variant string) string {
	return fmt.Sprintf("c28rtos %s (commit %s, built %s) %s", Version, Commit, Date, variant)
}
