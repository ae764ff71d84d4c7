package buildinfo

import "fmt"

// Set with -ldflags "-X ubit/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the version, or an abbreviated commit for untagged builds.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		if len(Commit) > 7 {
			return Commit[:7]
		}
		return Commit
	}
	return "dev"
}

// String describes the build for log banners.
func String() string {
	return fmt.Sprintf("ubit %s (commit %s, built %s)", Short(), Commit, Date)
}
