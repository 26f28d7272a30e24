// Package dirs resolves the directories sceneprobe reads and writes,
// following the XDG Base Directory conventions.
package dirs

import (
	"os"
	"path/filepath"
)

const appName = "sceneprobe"

// ConfigDir returns the global configuration directory.
// Resolution order: XDG_CONFIG_HOME/sceneprobe > ~/.config/sceneprobe.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return homeJoin(".config", appName)
}

// StateDir returns the directory holding run artifacts.
// Resolution order: SCENEPROBE_STATE_DIR > XDG_STATE_HOME/sceneprobe > ~/.local/state/sceneprobe.
func StateDir() string {
	if dir := os.Getenv("SCENEPROBE_STATE_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return homeJoin(".local", "state", appName)
}

// LogsDir returns the measurement log directory (StateDir/logs).
func LogsDir() string {
	return filepath.Join(StateDir(), "logs")
}

// LocalDir returns the project-local override directory inside cwd.
func LocalDir(cwd string) string {
	return filepath.Join(cwd, "."+appName)
}

func homeJoin(elem ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(append([]string{"."}, elem...)...)
	}
	return filepath.Join(append([]string{home}, elem...)...)
}
