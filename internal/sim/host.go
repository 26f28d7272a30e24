// Package sim provides an in-process host with a scene subsystem and a
// per-tick update loop, used to drive the scene profiler outside an engine.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexander-akhmetov/sceneprobe/internal/debug"
	"github.com/alexander-akhmetov/sceneprobe/internal/playerloop"
	"github.com/alexander-akhmetov/sceneprobe/internal/profiler"
	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
)

// Host systems installed in the default loop.
const (
	SystemLoadProgress = "SceneLoadProgress"
	SystemScripts      = "ScriptRunBehaviourUpdate"
	SystemRender       = "RenderCameras"
)

var (
	// ErrUnknownScene is returned for scene names outside the build list.
	ErrUnknownScene = errors.New("unknown scene")
	// ErrAlreadyBooted is returned when Boot runs twice.
	ErrAlreadyBooted = errors.New("host already booted")
)

// Load schedules an asynchronous load request.
type Load struct {
	Scene   string
	AtFrame uint64 // loop tick on which the request is issued; the first tick is 1
	Frames  int    // ticks the load stays in progress; at least one
}

// Options configures a Host.
type Options struct {
	// Scenes are the asset paths of the build list, in order.
	Scenes []string
	// Active names the boot scene. Defaults to the first scene.
	Active string
	// BootFrames is how many frame times the boot scene takes to load.
	BootFrames int
	// Loads are issued by the script system as the loop reaches them.
	Loads []Load
	// Clock is the host clock. A clock with an Advance method is stepped by
	// FrameTime on every tick; any other clock is treated as wall time.
	Clock timing.Clock
	// FrameTime is the simulated duration of one tick.
	FrameTime time.Duration
	// TickInterval is the wall-clock pause between ticks in Run. Zero runs
	// the loop as fast as possible.
	TickInterval time.Duration
	// OnFrame is called after every tick with the tick number.
	OnFrame func(frame uint64)
}

// AsyncOp tracks one scene load request.
type AsyncOp struct {
	Scene     scene.Identity
	remaining int
	done      bool
	aborted   bool
}

// IsDone reports whether the scene finished loading.
func (op *AsyncOp) IsDone() bool { return op.done }

// Aborted reports whether a later single-mode load replaced this request.
func (op *AsyncOp) Aborted() bool { return op.aborted }

type advancer interface {
	Advance(d time.Duration)
}

// Host is a single-threaded engine stand-in. Scene state is only touched on
// the goroutine that calls Boot, Step and Run; Stop and TogglePause are safe
// from any goroutine.
type Host struct {
	scenes []scene.Identity
	active scene.Identity
	// resident holds resolvable scenes; anything absent is unloaded.
	resident map[string]scene.State
	pending  []*AsyncOp
	script   []Load
	runner   *playerloop.Runner
	opts     Options
	booted   bool

	mu            sync.Mutex
	paused        bool
	stopRequested bool
	pauseCond     *sync.Cond
}

// New creates a host for the given build list.
func New(opts Options) (*Host, error) {
	if len(opts.Scenes) == 0 {
		return nil, errors.New("sim: no scenes")
	}
	if opts.Clock == nil {
		opts.Clock = timing.System{}
	}

	h := &Host{
		resident: make(map[string]scene.State),
		script:   append([]Load(nil), opts.Loads...),
		opts:     opts,
	}
	h.pauseCond = sync.NewCond(&h.mu)

	seen := make(map[string]bool, len(opts.Scenes))
	for _, path := range opts.Scenes {
		id := scene.IdentityFromPath(path)
		if id.Name == "" {
			return nil, fmt.Errorf("sim: empty scene path %q", path)
		}
		if seen[id.Name] {
			return nil, fmt.Errorf("sim: duplicate scene %q", id.Name)
		}
		seen[id.Name] = true
		h.scenes = append(h.scenes, id)
	}

	h.active = h.scenes[0]
	if opts.Active != "" {
		id, ok := h.lookup(opts.Active)
		if !ok {
			return nil, fmt.Errorf("sim: active scene: %w: %s", ErrUnknownScene, opts.Active)
		}
		h.active = id
	}
	for _, l := range h.script {
		if _, ok := h.lookup(l.Scene); !ok {
			return nil, fmt.Errorf("sim: scripted load: %w: %s", ErrUnknownScene, l.Scene)
		}
		if l.AtFrame == 0 {
			return nil, fmt.Errorf("sim: scripted load of %s: at frame 0, ticks start at 1", l.Scene)
		}
	}

	h.runner = playerloop.NewRunner(h.defaultLoop())
	return h, nil
}

func (h *Host) defaultLoop() playerloop.Loop {
	l := playerloop.NewLoop(append(append([]string{}, playerloop.UpdateStages...), playerloop.Render)...)
	// Stages are all present, so Append cannot fail here.
	_ = l.Append(playerloop.EarlyUpdate, playerloop.System{Type: SystemLoadProgress, Update: h.advanceLoads})
	_ = l.Append(playerloop.Update, playerloop.System{Type: SystemScripts, Update: h.runScript})
	_ = l.Append(playerloop.Render, playerloop.System{Type: SystemRender})
	return l
}

// KnownScenes returns the build list.
func (h *Host) KnownScenes() []scene.Identity {
	return append([]scene.Identity(nil), h.scenes...)
}

// ActiveScene returns the most recently loaded scene, or the boot scene.
func (h *Host) ActiveScene() scene.Identity { return h.active }

// LoadState reports the state of a resident scene. Unloaded scenes are not
// resolvable.
func (h *Host) LoadState(name string) (scene.State, bool) {
	st, ok := h.resident[name]
	return st, ok
}

// Scheduler returns the host loop.
func (h *Host) Scheduler() *playerloop.Runner { return h.runner }

// Boot loads the boot scene, firing l's hooks around it.
func (h *Host) Boot(ctx context.Context, l profiler.Lifecycle) error {
	if h.booted {
		return ErrAlreadyBooted
	}
	h.booted = true

	h.resident[h.active.Name] = scene.Loading
	if err := l.BeforeSceneLoad(); err != nil {
		return fmt.Errorf("before scene load: %w", err)
	}

	if err := h.elapse(ctx, time.Duration(h.opts.BootFrames)*h.opts.FrameTime); err != nil {
		return err
	}

	h.resident[h.active.Name] = scene.Loaded
	debug.Logf("boot scene %s loaded", h.active.Name)
	if err := l.AfterSceneLoad(); err != nil {
		return fmt.Errorf("after scene load: %w", err)
	}
	return nil
}

// LoadSceneAsync starts loading name, unloading every other scene. Must be
// called on the loop goroutine.
func (h *Host) LoadSceneAsync(name string, frames int) (*AsyncOp, error) {
	id, ok := h.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	for _, op := range h.pending {
		op.aborted = true
	}
	clear(h.resident)

	h.resident[id.Name] = scene.Loading
	op := &AsyncOp{Scene: id, remaining: max(frames, 1)}
	h.pending = []*AsyncOp{op}
	debug.Logf("load %s requested at frame %d", id.Name, h.runner.Frame())
	return op, nil
}

// Step advances the clock by one frame time and runs one tick.
func (h *Host) Step() {
	if adv, ok := h.opts.Clock.(advancer); ok {
		adv.Advance(h.opts.FrameTime)
	}
	h.runner.Tick()
}

func (h *Host) advanceLoads() {
	kept := h.pending[:0]
	for _, op := range h.pending {
		op.remaining--
		if op.remaining > 0 {
			kept = append(kept, op)
			continue
		}
		op.done = true
		h.resident[op.Scene.Name] = scene.Loaded
		h.active = op.Scene
		debug.Logf("scene %s loaded at frame %d", op.Scene.Name, h.runner.Frame())
	}
	h.pending = kept
}

func (h *Host) runScript() {
	frame := h.runner.Frame()
	for _, l := range h.script {
		if l.AtFrame != frame {
			continue
		}
		if _, err := h.LoadSceneAsync(l.Scene, l.Frames); err != nil {
			debug.Logf("scripted load: %v", err)
		}
	}
}

func (h *Host) lookup(name string) (scene.Identity, bool) {
	for _, id := range h.scenes {
		if id.Name == name {
			return id, true
		}
	}
	return scene.Identity{}, false
}

// elapse lets d pass on the host clock.
func (h *Host) elapse(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if adv, ok := h.opts.Clock.(advancer); ok {
		adv.Advance(d)
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
