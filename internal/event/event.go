// Package event defines the typed observations emitted by scene timers and
// consumed by sinks: the console writer, the measurement log, the
// prometheus collector, and the TUI.
package event

import (
	"time"

	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
)

// Kind identifies the type of event.
type Kind int

const (
	// KindLoadStarted is emitted when a timer observes a scene enter Loading.
	KindLoadStarted Kind = iota
	// KindLoadCompleted is the load-duration metric: a timed Loading → Loaded transition.
	KindLoadCompleted
	// KindLoadUntimed is emitted when Loaded is observed without a recorded
	// start. Duration is always zero.
	KindLoadUntimed
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLoadStarted:
		return "load_started"
	case KindLoadCompleted:
		return "load_completed"
	case KindLoadUntimed:
		return "load_untimed"
	default:
		return "unknown"
	}
}

// Event is a single observation about one scene.
type Event struct {
	Kind     Kind
	Scene    string
	Path     string
	Duration time.Duration // set for KindLoadCompleted only
	At       time.Time     // when the observation was made
}

// Handler is a callback that receives events. Handlers run synchronously on
// the tick goroutine and must not block.
type Handler func(Event)

// LoadStarted creates a KindLoadStarted event.
func LoadStarted(id scene.Identity, at time.Time) Event {
	return Event{Kind: KindLoadStarted, Scene: id.Name, Path: id.Path, At: at}
}

// LoadCompleted creates a KindLoadCompleted event.
func LoadCompleted(id scene.Identity, elapsed time.Duration, at time.Time) Event {
	return Event{Kind: KindLoadCompleted, Scene: id.Name, Path: id.Path, Duration: elapsed, At: at}
}

// LoadUntimed creates a KindLoadUntimed event.
func LoadUntimed(id scene.Identity, at time.Time) Event {
	return Event{Kind: KindLoadUntimed, Scene: id.Name, Path: id.Path, At: at}
}

// Multi fans an event out to every non-nil handler, in order.
func Multi(handlers ...Handler) Handler {
	hs := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return func(e Event) {
		for _, h := range hs {
			h(e)
		}
	}
}

// Only returns a handler that forwards events of the given kinds to h.
func Only(h Handler, kinds ...Kind) Handler {
	return func(e Event) {
		for _, k := range kinds {
			if e.Kind == k {
				h(e)
				return
			}
		}
	}
}
