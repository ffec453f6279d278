// Package version provides the recordstream CLI tools' version string.
// The version is set at build time via -ldflags.
package version

// Version is the current recordstream release.
// Override at build time: go build -ldflags "-X github.com/corestream/recordstream/internal/version.Version=2.0.0"
var Version = "1.0.0"

// BuildTime is the build timestamp.
// Override at build time: go build -ldflags "-X github.com/corestream/recordstream/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var BuildTime = "unknown"
