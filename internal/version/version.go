// Package version exposes build-time version information, populated via
// -ldflags or derived from the embedded VCS metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version of the application
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"
)

// GetVersion returns the application version
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return fmt.Sprintf("dev-%s", setting.Value[:7])
			}
		}
	}

	return "dev"
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}

	return "unknown"
}

// GetShortVersion returns a short version string suitable for display
func GetShortVersion() string {
	version := GetVersion()
	commit := GetGitCommit()

	if commit != "unknown" && len(commit) >= 7 {
		shortCommit := commit[:7]
		if version != "dev" {
			return fmt.Sprintf("%s (%s)", version, shortCommit)
		}
		return fmt.Sprintf("dev-%s", shortCommit)
	}

	return version
}

// GetDetailedVersion returns a detailed version string with build info
func GetDetailedVersion() string {
	parts := []string{fmt.Sprintf("Version: %s", GetVersion())}

	if commit := GetGitCommit(); commit != "unknown" {
		parts = append(parts, fmt.Sprintf("Commit: %s", commit))
	}
	parts = append(parts, fmt.Sprintf("Go: %s", runtime.Version()))
	parts = append(parts, fmt.Sprintf("Platform: %s/%s", runtime.GOOS, runtime.GOARCH))

	return strings.Join(parts, "\n")
}

// IsRelease returns true if this is a release build (not dev)
func IsRelease() bool {
	version := GetVersion()
	return version != "dev" && !strings.HasPrefix(version, "dev-")
}
