package profiler

import (
	"time"

	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
)

// Registry owns one Timer per scene known at startup. Its size and order are
// fixed at construction.
type Registry struct {
	timers []*Timer
}

// BuildRegistry creates a registry for known, in order. The scene whose name
// matches bootstrap's identity reuses bootstrap so an in-flight measurement
// survives; every other scene gets newTimer(id), which is expected to start
// in scene.NotLoaded.
func BuildRegistry(known []scene.Identity, bootstrap *Timer, newTimer func(scene.Identity) *Timer) *Registry {
	r := &Registry{timers: make([]*Timer, len(known))}
	for i, id := range known {
		if bootstrap != nil && id.Name == bootstrap.Identity().Name {
			r.timers[i] = bootstrap
			continue
		}
		r.timers[i] = newTimer(id)
	}
	return r
}

// UpdateAll updates every timer once, in registry order.
func (r *Registry) UpdateAll() {
	for _, t := range r.timers {
		t.Update()
	}
}

// Len returns the number of tracked scenes.
func (r *Registry) Len() int { return len(r.timers) }

// Timer returns the timer at index i.
func (r *Registry) Timer(i int) *Timer { return r.timers[i] }

// Lookup returns the timer tracking the named scene.
func (r *Registry) Lookup(name string) (*Timer, bool) {
	for _, t := range r.timers {
		if t.id.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TimerSnapshot is a point-in-time copy of one timer, safe to hand to other
// goroutines.
type TimerSnapshot struct {
	Scene     scene.Identity
	State     scene.State
	StartedAt time.Time // zero unless State == scene.Loading
}

// Snapshot copies the state of every timer, in registry order. It must be
// called from the goroutine that drives UpdateAll.
func (r *Registry) Snapshot() []TimerSnapshot {
	out := make([]TimerSnapshot, len(r.timers))
	for i, t := range r.timers {
		out[i] = TimerSnapshot{Scene: t.id, State: t.state, StartedAt: t.start}
	}
	return out
}
