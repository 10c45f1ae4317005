package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the typesim CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Pretty returns Version with the major, minor and patch components
// coloured. Pre-release and build suffixes are left plain. Colour follows
// fatih/color's terminal detection.
func Pretty() string {
	major, rest, ok := strings.Cut(Version, ".")
	if !ok {
		return Version
	}
	minor, rest, ok := strings.Cut(rest, ".")
	if !ok {
		return Version
	}
	patch := rest
	suffix := ""
	for i, r := range rest {
		if r == '-' || r == '+' {
			patch, suffix = rest[:i], rest[i:]
			break
		}
	}
	return versionMajorColor.Sprint(major) + "." +
		versionMinorColor.Sprint(minor) + "." +
		versionPatchColor.Sprint(patch) + suffix
}
