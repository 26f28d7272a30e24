// Command sceneprobe runs the scene-load probe against a simulated host and
// inspects the recorded timings.
package main

import (
	"os"
	"runtime/debug"

	"github.com/alexander-akhmetov/sceneprobe/internal/cmd"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			commit, date = buildStamp(info.Settings)
		}
	}
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildStamp extracts the short VCS revision and commit time embedded by the
// go toolchain. A modified tree is marked "-dirty".
func buildStamp(settings []debug.BuildSetting) (rev, when string) {
	rev, when = "unknown", "unknown"
	var full string
	modified := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			full = s.Value
		case "vcs.time":
			if s.Value != "" {
				when = s.Value
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(full) < 7 {
		return rev, when
	}
	rev = full[:7]
	if modified {
		rev += "-dirty"
	}
	return rev, when
}
