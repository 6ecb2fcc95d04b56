// Package version holds build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Version is set via ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/dist/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the one-line version banner printed by `dist version`.
func String() string {
	return fmt.Sprintf("dist %s (commit %s, built %s, %s/%s)",
		Version, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH)
}
