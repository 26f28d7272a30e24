package config

import (
	"errors"
	"fmt"

	"github.com/alexander-akhmetov/sceneprobe/internal/playerloop"
	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
)

// Validate checks the config for values the simulated host or the probe
// cannot run with. It does not modify c.
func (c *Config) Validate() error {
	var errs []error

	if c.TickIntervalMs < 0 {
		errs = append(errs, fmt.Errorf("tick_interval_ms must be >= 0, got %d", c.TickIntervalMs))
	}
	if c.Frames <= 0 {
		errs = append(errs, fmt.Errorf("frames must be > 0, got %d", c.Frames))
	}
	if len(c.Stages) == 0 {
		errs = append(errs, errors.New("stages must not be empty"))
	}
	seenStage := make(map[string]bool, len(c.Stages))
	for _, st := range c.Stages {
		switch {
		case st == playerloop.Render:
			errs = append(errs, fmt.Errorf("stages: %s runs after the update phase and cannot be targeted", st))
		case seenStage[st]:
			errs = append(errs, fmt.Errorf("stages: duplicate stage %q", st))
		}
		seenStage[st] = true
	}
	if c.Namespace == "" {
		errs = append(errs, errors.New("namespace must not be empty"))
	}

	errs = append(errs, c.Host.validate()...)

	return errors.Join(errs...)
}

func (h *HostConfig) validate() []error {
	var errs []error

	if len(h.Scenes) == 0 {
		errs = append(errs, errors.New("host.scenes must not be empty"))
	}
	if h.BootFrames < 0 {
		errs = append(errs, fmt.Errorf("host.boot_frames must be >= 0, got %d", h.BootFrames))
	}

	known := make(map[string]bool, len(h.Scenes))
	for _, path := range h.Scenes {
		name := scene.IdentityFromPath(path).Name
		if name == "" {
			errs = append(errs, fmt.Errorf("host.scenes: empty scene path %q", path))
			continue
		}
		if known[name] {
			errs = append(errs, fmt.Errorf("host.scenes: duplicate scene name %q", name))
		}
		known[name] = true
	}

	if h.Active != "" && !known[h.Active] {
		errs = append(errs, fmt.Errorf("host.active: unknown scene %q", h.Active))
	}

	for i, l := range h.Loads {
		if !known[l.Scene] {
			errs = append(errs, fmt.Errorf("host.loads[%d]: unknown scene %q", i, l.Scene))
		}
		// Tick numbers start at 1.
		if l.AtFrame < 1 {
			errs = append(errs, fmt.Errorf("host.loads[%d]: at_frame must be >= 1, got %d", i, l.AtFrame))
		}
		if l.Frames < 0 {
			errs = append(errs, fmt.Errorf("host.loads[%d]: frames must be >= 0, got %d", i, l.Frames))
		}
	}

	return errs
}
