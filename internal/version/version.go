// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package version

// Unavailable is displayed when the build did not stamp a version.
const Unavailable = "N/A"

var (
	// Version is the release version of the console.
	// It is populated by the build system (ldflags) and stays empty for dev builds.
	Version = ""

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// Display returns the version shown to users, falling back to Unavailable.
func Display() string {
	if Version == "" {
		return Unavailable
	}
	return Version
}
