// Package buildconfig exposes the build identity stamped into the credence
// binary at link time.
package buildconfig

// Injected via -ldflags "-X .../buildconfig.version=... -X .../buildconfig.commit=..."
var (
	version = "dev"
	commit  = "unknown"
)

// Service is the name the scoring engine reports in health and metrics
// payloads.
const Service = "credence"

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// VersionInfo returns full version information
func VersionInfo() map[string]string {
	return map[string]string{
		"service": Service,
		"version": version,
		"commit":  commit,
	}
}
