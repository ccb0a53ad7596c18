// ============================================================================
// sparkswap broker-cli
// ============================================================================
//
// Package:     version
// Description: Version information for the cli and the daemon api it targets
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version constants
const (
	// Client is the cli release
	Client = "0.4.0"

	// API is the broker daemon rpc version the client binds against
	API = "v1"
)

// Set at build time with -ldflags "-X .../version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info bundles everything `sparkswap version` prints
type Info struct {
	Client    string `json:"client"`
	API       string `json:"api"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// Get returns the version info of the running binary
func Get() Info {
	return Info{
		Client:    Client,
		API:       API,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String formats the info on one line
func (i Info) String() string {
	return fmt.Sprintf("sparkswap %s (api %s, commit %s, built %s, %s)", i.Client, i.API, i.Commit, i.BuildDate, i.GoVersion)
}

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "api", "daemon":
		return API
	default:
		return Client
	}
}
