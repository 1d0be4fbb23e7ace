// Package buildinfo holds version information injected at build time via
// -ldflags "-X github.com/program-tray/program-tray/internal/buildinfo.Version=...".
package buildinfo

var (
	Version    = "dev"
	Codename   = "unreleased"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Short returns the version with the abbreviated commit, e.g. "0.3.0+1a2b3c4".
func Short() string {
	if CommitHash == "unknown" || CommitHash == "" {
		return Version
	}
	commit := CommitHash
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + "+" + commit
}
