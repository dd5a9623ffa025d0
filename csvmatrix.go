// Package csvmatrix reads delimited text into typed, column-reconciled
// tables. The engine lives in internal/core; this package carries the
// release version shared by the CLI and the server.
package csvmatrix

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 3,
		Patch: 0,
		Build: semver.Commit(),
	}
)

// Version returns the release version with build metadata.
func Version() semver.Version {
	return version
}
