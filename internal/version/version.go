// Package version reports the sitesmith release. The variables are set at
// link time, for example:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitesmith/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns the one-line form printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return fmt.Sprintf("sitesmith %s", Version)
	}
	return fmt.Sprintf("sitesmith %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
