// Package version reports the sbke build. Release builds set the variables
// with -ldflags, for example:
//
//	go build -ldflags="-X github.com/54b3r/sbke-go/internal/version.Version=v0.3.0 \
//	                    -X github.com/54b3r/sbke-go/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/sbke
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the build description served by `sbke version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// Get returns the current build description.
func Get() Info {
	return Info{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: runtime.Version()}
}

// String renders the build information on one line.
func String() string {
	return fmt.Sprintf("sbke %s (commit %s, built %s)", Version, Commit, BuildDate)
}
