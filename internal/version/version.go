// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/longkey1/flowprobe/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Short returns only the version number
func Short() string {
	return Version
}

// Info returns the full version information
func Info() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild Time: %s\nGo Version: %s",
		Version, Commit, BuildTime, runtime.Version())
}

// UserAgent returns the User-Agent header value sent with probe requests
func UserAgent() string {
	return "flowprobe/" + Version
}
