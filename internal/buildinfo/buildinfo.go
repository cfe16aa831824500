package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/EgorLis/musicbot/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("musicbot %s (commit=%s, date=%s)", Version, Commit, Date)
}
