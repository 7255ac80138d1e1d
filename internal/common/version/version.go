package version

import (
	_ "embed"
	"strings"
)

// Version information embedded from the VERSION file next to this package.

//go:embed VERSION
var versionRaw string

// Version is the current version of the o365 CLI, trimmed of whitespace.
var Version = strings.TrimSpace(versionRaw)

// Get returns the current version string.
func Get() string {
	return Version
}

// UserAgent returns the application id sent with every request.
func UserAgent() string {
	return "o365cli/" + Version
}
