// Package env exposes build-time metadata injected via -ldflags -X at
// release build time. Defaults are used for local/dev builds.
package env

// AppName is the binary name reported in banners and help text.
const AppName = "jgfs"

var (
	// Version is the release tag this binary was built from.
	Version = "dev"
	// CommitHash is the VCS commit this binary was built from.
	CommitHash = "unknown"
	// BuildTime is the UTC build timestamp, RFC3339.
	BuildTime = "unknown"
)
