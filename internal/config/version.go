package config

import (
	"os"
	"runtime/debug"
	"strings"
)

// fallbackVersion is reported when neither APP_VERSION, a VERSION file nor
// build info is available.
const fallbackVersion = "0.1.0"

// GetVersion returns the service version: APP_VERSION, then the VERSION
// file in the working directory, then the VCS revision stamped by the Go
// toolchain.
func GetVersion() string {
	if envVersion := strings.TrimSpace(os.Getenv("APP_VERSION")); envVersion != "" {
		return envVersion
	}

	if content, err := os.ReadFile("VERSION"); err == nil {
		if v := strings.TrimSpace(string(content)); v != "" {
			return v
		}
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		return versionFromBuildInfo(info)
	}

	return fallbackVersion
}

func versionFromBuildInfo(info *debug.BuildInfo) string {
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return fallbackVersion
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	version := fallbackVersion + "+" + revision
	if dirty {
		version += ".dirty"
	}
	return version
}
