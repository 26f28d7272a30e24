// Package config provides unified configuration management for sceneprobe.
// Configuration is loaded from multiple sources with the following precedence:
// embedded defaults → global file → env vars → local file → CLI flags
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexander-akhmetov/sceneprobe/internal/dirs"
)

//go:embed defaults/config.yaml
var defaultsFS embed.FS

// LoadScript schedules one asynchronous load on the simulated host.
type LoadScript struct {
	Scene   string `yaml:"scene"`    // scene name
	AtFrame int    `yaml:"at_frame"` // tick on which the load is requested
	Frames  int    `yaml:"frames"`   // ticks the load stays in progress
}

// HostConfig describes the simulated host.
type HostConfig struct {
	Scenes     []string     `yaml:"scenes"`      // scene asset paths, in build order
	Active     string       `yaml:"active"`      // name of the boot scene
	BootFrames int          `yaml:"boot_frames"` // internal steps the boot scene takes to load
	Loads      []LoadScript `yaml:"loads"`

	// Set tracking for merge
	BootFramesSet bool `yaml:"-"`
}

// Config holds all configuration settings for sceneprobe.
// Fields ending in *Set track whether that field was explicitly set in config.
// This allows distinguishing explicit 0 from "not set", enabling proper
// merge behavior where local config can override global config with zero values.
type Config struct {
	TickIntervalMs int      `yaml:"tick_interval_ms"`
	Frames         int      `yaml:"frames"`
	Stages         []string `yaml:"stages"`
	Namespace      string   `yaml:"namespace"`
	LogsDir        string   `yaml:"logs_dir"`
	MetricsAddr    string   `yaml:"metrics_addr"`

	Host HostConfig `yaml:"host"`

	// Set tracking for merge behavior
	TickIntervalMsSet bool `yaml:"-"`
	FramesSet         bool `yaml:"-"`

	configDir string
	localDir  string
	sources   []string // ordered list of sources that contributed to this config
}

// Sources returns the ordered list of sources that contributed to this config.
func (c *Config) Sources() []string {
	return c.sources
}

// LocalDir returns the local project config directory if one was detected.
func (c *Config) LocalDir() string {
	return c.localDir
}

// ConfigDir returns the global config directory.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// TickInterval returns the pause between simulated ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Load loads all configuration from the default locations.
// It auto-detects .sceneprobe/ in the current working directory for local overrides.
func Load() (*Config, error) {
	var localDir string
	if cwd, err := os.Getwd(); err == nil {
		candidate := dirs.LocalDir(cwd)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			localDir = candidate
		}
	}

	return LoadWithDirs(dirs.ConfigDir(), localDir)
}

// LoadWithDirs loads configuration with explicit global and local directories.
// If localDir is empty, only global config is used.
func LoadWithDirs(globalDir, localDir string) (*Config, error) {
	if err := InstallDefaults(globalDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	cfg, err := loadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load embedded defaults: %w", err)
	}
	cfg.sources = append(cfg.sources, "embedded")

	globalPath := filepath.Join(globalDir, "config.yaml")
	if globalCfg, err := loadFile(globalPath); err == nil {
		cfg.mergeFrom(globalCfg)
		cfg.sources = append(cfg.sources, globalPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("load global config: %w", err)
	}

	cfg.applyEnv()

	if localDir != "" {
		localPath := filepath.Join(localDir, "config.yaml")
		if localCfg, err := loadFile(localPath); err == nil {
			cfg.mergeFrom(localCfg)
			cfg.sources = append(cfg.sources, localPath)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load local config: %w", err)
		}
	}

	cfg.configDir = globalDir
	cfg.localDir = localDir

	return cfg, nil
}

// InstallDefaults creates the config directory and installs the default config if not exists.
func InstallDefaults(configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		data, err := defaultsFS.ReadFile("defaults/config.yaml")
		if err != nil {
			return fmt.Errorf("read embedded config: %w", err)
		}
		if err := os.WriteFile(configPath, data, 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
	}

	return nil
}

func loadEmbedded() (*Config, error) {
	data, err := defaultsFS.ReadFile("defaults/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}
	return parseConfig(data)
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user's config file
	if err != nil {
		return nil, err
	}
	return parseConfigWithTracking(data)
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// parseConfigWithTracking parses YAML config and tracks which fields were set.
func parseConfigWithTracking(data []byte) (*Config, error) {
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if _, ok := raw["tick_interval_ms"]; ok {
		cfg.TickIntervalMsSet = true
	}
	if _, ok := raw["frames"]; ok {
		cfg.FramesSet = true
	}
	if host, ok := raw["host"].(map[string]any); ok {
		if _, ok := host["boot_frames"]; ok {
			cfg.Host.BootFramesSet = true
		}
	}

	return cfg, nil
}

// applyEnv applies environment variables to the config.
// Env vars sit between global and local config in precedence.
func (c *Config) applyEnv() {
	if v := os.Getenv("SCENEPROBE_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TickIntervalMs = n
			c.TickIntervalMsSet = true
			c.sources = append(c.sources, "env:SCENEPROBE_TICK_INTERVAL_MS")
		}
	}

	if v := os.Getenv("SCENEPROBE_FRAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Frames = n
			c.FramesSet = true
			c.sources = append(c.sources, "env:SCENEPROBE_FRAMES")
		}
	}

	if v := os.Getenv("SCENEPROBE_LOGS_DIR"); v != "" {
		c.LogsDir = v
		c.sources = append(c.sources, "env:SCENEPROBE_LOGS_DIR")
	}

	if v := os.Getenv("SCENEPROBE_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
		c.sources = append(c.sources, "env:SCENEPROBE_METRICS_ADDR")
	}
}

// mergeFrom merges non-empty/set values from src into c.
func (c *Config) mergeFrom(src *Config) {
	if src.TickIntervalMsSet {
		c.TickIntervalMs = src.TickIntervalMs
		c.TickIntervalMsSet = true
	}
	if src.FramesSet {
		c.Frames = src.Frames
		c.FramesSet = true
	}
	if len(src.Stages) > 0 {
		c.Stages = src.Stages
	}
	if src.Namespace != "" {
		c.Namespace = src.Namespace
	}
	if src.LogsDir != "" {
		c.LogsDir = src.LogsDir
	}
	if src.MetricsAddr != "" {
		c.MetricsAddr = src.MetricsAddr
	}

	// Host config merge
	if len(src.Host.Scenes) > 0 {
		c.Host.Scenes = src.Host.Scenes
	}
	if src.Host.Active != "" {
		c.Host.Active = src.Host.Active
	}
	if src.Host.BootFramesSet {
		c.Host.BootFrames = src.Host.BootFrames
		c.Host.BootFramesSet = true
	}
	if len(src.Host.Loads) > 0 {
		c.Host.Loads = src.Host.Loads
	}
}

// ApplyCLIFlags applies CLI flag overrides to the config.
// CLI flags have the highest precedence; zero values leave config untouched.
func (c *Config) ApplyCLIFlags(frames, tickIntervalMs int, metricsAddr string) {
	if frames > 0 {
		c.Frames = frames
		c.FramesSet = true
		c.sources = append(c.sources, "cli:frames")
	}
	if tickIntervalMs > 0 {
		c.TickIntervalMs = tickIntervalMs
		c.TickIntervalMsSet = true
		c.sources = append(c.sources, "cli:tick-interval")
	}
	if metricsAddr != "" {
		c.MetricsAddr = metricsAddr
		c.sources = append(c.sources, "cli:metrics-addr")
	}
}
