package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	cfg, err := loadEmbedded()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.TickIntervalMs)
	assert.Equal(t, 600, cfg.Frames)
	assert.Equal(t, "sceneprobe", cfg.Namespace)
	assert.Len(t, cfg.Stages, 7)
	assert.NotContains(t, cfg.Stages, "Render")
	assert.Equal(t, "Lobby", cfg.Host.Active)
	assert.Len(t, cfg.Host.Scenes, 3)
	assert.Equal(t, 12, cfg.Host.BootFrames)
	require.Len(t, cfg.Host.Loads, 3)
	assert.Equal(t, LoadScript{Scene: "SceneA", AtFrame: 60, Frames: 45}, cfg.Host.Loads[0])
	require.NoError(t, cfg.Validate())
}

func TestLoadWithDirs_InstallsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadWithDirs(tmpDir, "")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, tmpDir, cfg.ConfigDir())
	assert.Empty(t, cfg.LocalDir())
	assert.Equal(t, 600, cfg.Frames)
}

func TestLoadWithDirs_GlobalOnly(t *testing.T) {
	tmpDir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(tmpDir, "config.yaml"),
		[]byte("frames: 100\ntick_interval_ms: 5\n"),
		0o600,
	)
	require.NoError(t, err)

	cfg, err := LoadWithDirs(tmpDir, "")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Frames)
	assert.Equal(t, 5, cfg.TickIntervalMs)
	assert.Equal(t, "sceneprobe", cfg.Namespace) // from embedded default
	assert.Equal(t, []string{"embedded", filepath.Join(tmpDir, "config.yaml")}, cfg.Sources())
}

func TestLoadWithDirs_LocalOverridesGlobal(t *testing.T) {
	globalDir := t.TempDir()
	localDir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(globalDir, "config.yaml"),
		[]byte("frames: 100\ntick_interval_ms: 5\n"),
		0o600,
	)
	require.NoError(t, err)

	err = os.WriteFile(
		filepath.Join(localDir, "config.yaml"),
		[]byte("frames: 25\nhost:\n  active: SceneA\n"),
		0o600,
	)
	require.NoError(t, err)

	cfg, err := LoadWithDirs(globalDir, localDir)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Frames)        // from local
	assert.Equal(t, 5, cfg.TickIntervalMs) // from global
	assert.Equal(t, "SceneA", cfg.Host.Active)
	assert.Len(t, cfg.Host.Scenes, 3) // from embedded default
	assert.Equal(t, localDir, cfg.LocalDir())
}

func TestLoadWithDirs_ExplicitZeroOverrides(t *testing.T) {
	globalDir := t.TempDir()
	localDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.yaml"), []byte("tick_interval_ms: 20\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "config.yaml"), []byte("tick_interval_ms: 0\nhost:\n  boot_frames: 0\n"), 0o600))

	cfg, err := LoadWithDirs(globalDir, localDir)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.TickIntervalMs)
	assert.True(t, cfg.TickIntervalMsSet)
	assert.Equal(t, 0, cfg.Host.BootFrames)
	assert.True(t, cfg.Host.BootFramesSet)
}

func TestLoadWithDirs_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("frames: [\n"), 0o600))

	_, err := LoadWithDirs(tmpDir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load global config")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SCENEPROBE_FRAMES", "42")
	t.Setenv("SCENEPROBE_TICK_INTERVAL_MS", "8")
	t.Setenv("SCENEPROBE_LOGS_DIR", "/tmp/probe-logs")
	t.Setenv("SCENEPROBE_METRICS_ADDR", ":9100")

	cfg, err := LoadWithDirs(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Frames)
	assert.Equal(t, 8, cfg.TickIntervalMs)
	assert.Equal(t, "/tmp/probe-logs", cfg.LogsDir)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Contains(t, cfg.Sources(), "env:SCENEPROBE_FRAMES")
	assert.Contains(t, cfg.Sources(), "env:SCENEPROBE_METRICS_ADDR")
}

func TestApplyEnv_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SCENEPROBE_FRAMES", "many")

	cfg, err := LoadWithDirs(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 600, cfg.Frames)
	assert.NotContains(t, cfg.Sources(), "env:SCENEPROBE_FRAMES")
}

func TestLocalOverridesEnv(t *testing.T) {
	t.Setenv("SCENEPROBE_FRAMES", "42")
	localDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "config.yaml"), []byte("frames: 7\n"), 0o600))

	cfg, err := LoadWithDirs(t.TempDir(), localDir)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Frames)
}

func TestApplyCLIFlags(t *testing.T) {
	cfg, err := loadEmbedded()
	require.NoError(t, err)

	cfg.ApplyCLIFlags(30, 4, "127.0.0.1:9000")

	assert.Equal(t, 30, cfg.Frames)
	assert.Equal(t, 4, cfg.TickIntervalMs)
	assert.Equal(t, "127.0.0.1:9000", cfg.MetricsAddr)
	assert.Equal(t, []string{"cli:frames", "cli:tick-interval", "cli:metrics-addr"}, cfg.Sources())
}

func TestApplyCLIFlags_ZeroValuesDontOverride(t *testing.T) {
	cfg, err := loadEmbedded()
	require.NoError(t, err)

	cfg.ApplyCLIFlags(0, 0, "")

	assert.Equal(t, 600, cfg.Frames)
	assert.Equal(t, 16, cfg.TickIntervalMs)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.Sources())
}

func TestTickInterval(t *testing.T) {
	cfg := &Config{TickIntervalMs: 16}
	assert.Equal(t, 16*time.Millisecond, cfg.TickInterval())
}

func TestMergeFrom_ReplacesLists(t *testing.T) {
	cfg, err := loadEmbedded()
	require.NoError(t, err)

	cfg.mergeFrom(&Config{
		Stages: []string{"Update"},
		Host: HostConfig{
			Scenes: []string{"Assets/Scenes/Only.unity"},
			Loads:  []LoadScript{{Scene: "Only", AtFrame: 1, Frames: 2}},
		},
	})

	assert.Equal(t, []string{"Update"}, cfg.Stages)
	assert.Equal(t, []string{"Assets/Scenes/Only.unity"}, cfg.Host.Scenes)
	require.Len(t, cfg.Host.Loads, 1)
	assert.Equal(t, "Lobby", cfg.Host.Active) // untouched
	assert.Equal(t, 600, cfg.Frames)          // FramesSet false
}
