// Package version exposes build metadata for unitab binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version, injected via ldflags. Development builds
// report "devel".
var Version = "devel"

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get assembles the build metadata, reading the VCS revision from the
// binary's embedded build info when available.
func Get() Info {
	return Info{
		Version:   Version,
		Revision:  revision(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the metadata on one line, for version commands and
// startup logs.
func (i Info) String() string {
	return fmt.Sprintf("unitab %s (revision %s, %s, %s)", i.Version, i.Revision, i.GoVersion, i.Platform)
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}

	return "unknown"
}
