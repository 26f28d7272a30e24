// Package profiler implements the scene load probe: one polling Timer per
// scene, a fixed Registry fanning out a single update per tick, and the
// two-phase Profiler lifecycle that builds the registry and attaches it to
// the host scheduler.
package profiler

import (
	"time"

	"github.com/alexander-akhmetov/sceneprobe/internal/debug"
	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
)

// Timer tracks the load cycle of one scene by polling its state.
// startedAt is set iff state == scene.Loading.
type Timer struct {
	id     scene.Identity
	state  scene.State
	src    scene.StateSource
	clock  timing.Clock
	emit   event.Handler
	start  time.Time
	timing bool
}

// NewTimer creates a timer for id with a known initial state. A timer
// created while the scene is already Loading starts timing immediately.
func NewTimer(id scene.Identity, initial scene.State, src scene.StateSource, clock timing.Clock, emit event.Handler) *Timer {
	if clock == nil {
		clock = timing.System{}
	}
	if emit == nil {
		emit = func(event.Event) {}
	}
	t := &Timer{
		id:    id,
		state: initial,
		src:   src,
		clock: clock,
		emit:  emit,
	}
	if initial == scene.Loading {
		t.startLoad()
	}
	return t
}

// Identity returns the scene this timer tracks.
func (t *Timer) Identity() scene.Identity { return t.id }

// State returns the last observed state.
func (t *Timer) State() scene.State { return t.state }

// StartedAt returns the start of the in-progress load, if any.
func (t *Timer) StartedAt() (time.Time, bool) { return t.start, t.timing }

// Update polls the host once and reacts to a state change.
func (t *Timer) Update() {
	observed, ok := t.src.LoadState(t.id.Name)
	if !ok {
		return
	}

	before := t.state
	t.state = observed
	if before == observed {
		return
	}

	debug.Logf("scene %s: %s -> %s", t.id.Name, before, observed)

	switch observed {
	case scene.Loading:
		t.startLoad()
	case scene.Loaded:
		t.endLoad()
	case scene.NotLoaded:
		t.clearStart()
	}
}

func (t *Timer) startLoad() {
	t.start = t.clock.Now()
	t.timing = true
	t.emit(event.LoadStarted(t.id, t.start))
}

func (t *Timer) endLoad() {
	now := t.clock.Now()
	if !t.timing {
		debug.Logf("scene %s: loaded without a recorded start, duration unknown", t.id.Name)
		t.emit(event.LoadUntimed(t.id, now))
		return
	}
	elapsed := now.Sub(t.start)
	t.clearStart()
	t.emit(event.LoadCompleted(t.id, elapsed, now))
}

func (t *Timer) clearStart() {
	t.start = time.Time{}
	t.timing = false
}
