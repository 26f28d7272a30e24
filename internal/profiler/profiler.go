package profiler

import (
	"errors"
	"fmt"

	"github.com/alexander-akhmetov/sceneprobe/internal/debug"
	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/playerloop"
	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
)

// SystemType is the loop system type under which the probe is installed.
const SystemType = "SceneProfiler.Update"

var (
	// ErrAlreadyBootstrapped is returned when BeforeSceneLoad fires twice.
	ErrAlreadyBootstrapped = errors.New("profiler already bootstrapped")
	// ErrNotBootstrapped is returned when AfterSceneLoad fires before BeforeSceneLoad.
	ErrNotBootstrapped = errors.New("profiler not bootstrapped")
)

// Lifecycle is the pair of startup hooks the host fires exactly once each,
// in order: before the first scene starts loading and after it finishes.
type Lifecycle interface {
	BeforeSceneLoad() error
	AfterSceneLoad() error
}

// Options configures a Profiler.
type Options struct {
	// Stages lists the loop stages the probe is inserted into.
	// Defaults to playerloop.UpdateStages.
	Stages []string
	// Clock timestamps loads. Defaults to timing.System.
	Clock timing.Clock
	// Emit receives every observation. May be nil.
	Emit event.Handler
}

// Profiler wires scene timers to a host. It implements Lifecycle.
type Profiler struct {
	catalog   scene.Catalog
	src       scene.StateSource
	scheduler playerloop.Scheduler
	opts      Options

	bootstrap *Timer
	registry  *Registry
}

// New creates a Profiler for host. host must also implement
// scene.StateSource; otherwise New fails with scene.ErrStateQueryUnsupported
// and nothing is installed.
func New(host scene.Catalog, scheduler playerloop.Scheduler, opts Options) (*Profiler, error) {
	src, err := scene.StateSourceOf(host)
	if err != nil {
		return nil, fmt.Errorf("scene profiler: %w", err)
	}
	if scheduler == nil {
		return nil, errors.New("scene profiler: scheduler required")
	}
	if len(opts.Stages) == 0 {
		opts.Stages = playerloop.UpdateStages
	}
	if opts.Clock == nil {
		opts.Clock = timing.System{}
	}
	return &Profiler{
		catalog:   host,
		src:       src,
		scheduler: scheduler,
		opts:      opts,
	}, nil
}

// BeforeSceneLoad creates the bootstrap timer for the active scene, seeded
// with the scene's current state.
func (p *Profiler) BeforeSceneLoad() error {
	if p.bootstrap != nil {
		return ErrAlreadyBootstrapped
	}
	id := p.catalog.ActiveScene()
	initial, ok := p.src.LoadState(id.Name)
	if !ok {
		initial = scene.NotLoaded
	}
	p.bootstrap = p.newTimer(id, initial)
	debug.Logf("bootstrap timer for %s (%s)", id.Name, initial)
	timing.Log("profiler bootstrap")
	return nil
}

// AfterSceneLoad samples the bootstrap timer, builds the registry from every
// known scene and installs the per-tick update into the host loop.
func (p *Profiler) AfterSceneLoad() error {
	if p.bootstrap == nil {
		return ErrNotBootstrapped
	}
	if p.registry != nil {
		return fmt.Errorf("scene profiler: %w", playerloop.ErrAlreadyInstalled)
	}

	p.bootstrap.Update()

	registry := BuildRegistry(p.catalog.KnownScenes(), p.bootstrap, func(id scene.Identity) *Timer {
		return p.newTimer(id, scene.NotLoaded)
	})

	sys := playerloop.System{
		Type:   SystemType,
		Update: playerloop.OncePerFrame(p.scheduler, registry.UpdateAll),
	}
	if err := playerloop.Insert(p.scheduler, sys, p.opts.Stages); err != nil {
		return fmt.Errorf("scene profiler: %w", err)
	}

	p.registry = registry
	debug.Logf("scene profiler installed: %d scenes, %d stages", registry.Len(), len(p.opts.Stages))
	timing.Log("profiler installed")
	return nil
}

// Registry returns the installed registry, or nil before AfterSceneLoad.
func (p *Profiler) Registry() *Registry { return p.registry }

// Bootstrap returns the bootstrap timer, or nil before BeforeSceneLoad.
func (p *Profiler) Bootstrap() *Timer { return p.bootstrap }

func (p *Profiler) newTimer(id scene.Identity, initial scene.State) *Timer {
	return NewTimer(id, initial, p.src, p.opts.Clock, p.opts.Emit)
}
