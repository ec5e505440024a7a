// Package version holds build information.
package version

// These variables are set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Full returns the version with commit and build date, or "dev".
func Full() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + GitCommit + ", " + BuildDate + ")"
}
