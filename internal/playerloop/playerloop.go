// Package playerloop models a host's per-tick callback graph: an ordered
// list of stages, each holding an ordered list of systems. It provides the
// one-time injection used to attach the probe ahead of the host's own work.
package playerloop

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names of the default host loop, in execution order.
const (
	Initialization = "Initialization"
	EarlyUpdate    = "EarlyUpdate"
	FixedUpdate    = "FixedUpdate"
	PreUpdate      = "PreUpdate"
	Update         = "Update"
	PreLateUpdate  = "PreLateUpdate"
	PostLateUpdate = "PostLateUpdate"
	Render         = "Render"
)

// UpdateStages are the stages executed during the update phase of a tick.
// Render is deliberately absent.
var UpdateStages = []string{
	Initialization,
	EarlyUpdate,
	FixedUpdate,
	PreUpdate,
	Update,
	PreLateUpdate,
	PostLateUpdate,
}

var (
	// ErrAlreadyInstalled is returned by Insert when the active loop already
	// contains a system of the same type.
	ErrAlreadyInstalled = errors.New("system already installed")
	// ErrStageNotFound is returned by Insert when a targeted stage does not
	// exist in the default loop.
	ErrStageNotFound = errors.New("stage not found")
)

// UpdateFunc is the callback run when a system executes.
type UpdateFunc func()

// System is one node in the loop graph. Type identifies the system and must
// be unique within a loop.
type System struct {
	Type       string
	Update     UpdateFunc
	SubSystems []System
}

// Loop is the full per-tick graph. Each top-level system is a stage.
type Loop struct {
	Systems []System
}

// NewLoop creates a loop with one empty stage per name.
func NewLoop(stages ...string) Loop {
	l := Loop{Systems: make([]System, 0, len(stages))}
	for _, name := range stages {
		l.Systems = append(l.Systems, System{Type: name})
	}
	return l
}

// Stage returns the index of the named top-level stage.
func (l Loop) Stage(name string) (int, bool) {
	for i, s := range l.Systems {
		if s.Type == name {
			return i, true
		}
	}
	return -1, false
}

// Append adds sys to the end of the named stage.
func (l *Loop) Append(stage string, sys System) error {
	idx, ok := l.Stage(stage)
	if !ok {
		return fmt.Errorf("append %s: %q: %w", sys.Type, stage, ErrStageNotFound)
	}
	l.Systems[idx].SubSystems = append(l.Systems[idx].SubSystems, sys)
	return nil
}

// Contains reports whether a system of the given type appears anywhere in
// the loop.
func (l Loop) Contains(typ string) bool {
	return containsType(l.Systems, typ)
}

// Clone returns a deep copy of the graph. Update funcs are shared.
func (l Loop) Clone() Loop {
	return Loop{Systems: cloneSystems(l.Systems)}
}

// String renders the graph as an indented tree, one system per line.
func (l Loop) String() string {
	var b strings.Builder
	writeTree(&b, l.Systems, 0)
	return b.String()
}

// Scheduler is the host tick scheduler the probe attaches to.
type Scheduler interface {
	// DefaultLoop returns a copy of the host's default graph.
	DefaultLoop() Loop
	// CurrentLoop returns a copy of the active graph.
	CurrentLoop() Loop
	// SetLoop makes l the active graph.
	SetLoop(l Loop)
	// Frame returns the number of the tick currently executing.
	Frame() uint64
}

// Insert prepends sys to each targeted stage of the scheduler's default
// loop and commits the result as the active loop. Existing systems keep
// their relative order. Insert refuses to install the same system type twice.
func Insert(s Scheduler, sys System, stages []string) error {
	if sys.Type == "" {
		return errors.New("insert: system type required")
	}
	if s.CurrentLoop().Contains(sys.Type) {
		return fmt.Errorf("insert %s: %w", sys.Type, ErrAlreadyInstalled)
	}

	loop := s.DefaultLoop().Clone()
	for _, name := range stages {
		idx, ok := loop.Stage(name)
		if !ok {
			return fmt.Errorf("insert %s: %q: %w", sys.Type, name, ErrStageNotFound)
		}
		stage := &loop.Systems[idx]
		subs := make([]System, 0, len(stage.SubSystems)+1)
		subs = append(subs, sys)
		subs = append(subs, stage.SubSystems...)
		stage.SubSystems = subs
	}

	s.SetLoop(loop)
	return nil
}

// FrameCounter reports the current tick number.
type FrameCounter interface {
	Frame() uint64
}

// OncePerFrame wraps fn so that it runs at most once per frame, no matter
// how many stages the wrapper is inserted into.
func OncePerFrame(fc FrameCounter, fn func()) UpdateFunc {
	var (
		ran  bool
		last uint64
	)
	return func() {
		f := fc.Frame()
		if ran && f == last {
			return
		}
		ran, last = true, f
		fn()
	}
}

func containsType(systems []System, typ string) bool {
	for _, s := range systems {
		if s.Type == typ || containsType(s.SubSystems, typ) {
			return true
		}
	}
	return false
}

func cloneSystems(in []System) []System {
	if in == nil {
		return nil
	}
	out := make([]System, len(in))
	for i, s := range in {
		out[i] = System{
			Type:       s.Type,
			Update:     s.Update,
			SubSystems: cloneSystems(s.SubSystems),
		}
	}
	return out
}

func writeTree(b *strings.Builder, systems []System, depth int) {
	for _, s := range systems {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(s.Type)
		b.WriteByte('\n')
		writeTree(b, s.SubSystems, depth+1)
	}
}
