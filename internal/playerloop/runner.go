package playerloop

// Runner is an in-process Scheduler. Each Tick advances the frame counter
// and executes the active loop depth-first, in order, on the caller's
// goroutine.
type Runner struct {
	def     Loop
	current Loop
	frame   uint64
}

// NewRunner creates a runner whose default and active loops are def.
func NewRunner(def Loop) *Runner {
	return &Runner{
		def:     def.Clone(),
		current: def.Clone(),
	}
}

// DefaultLoop returns a copy of the default loop.
func (r *Runner) DefaultLoop() Loop { return r.def.Clone() }

// CurrentLoop returns a copy of the active loop.
func (r *Runner) CurrentLoop() Loop { return r.current.Clone() }

// SetLoop replaces the active loop. It takes effect on the next Tick.
func (r *Runner) SetLoop(l Loop) { r.current = l.Clone() }

// Frame returns the number of the last started tick (0 before the first).
func (r *Runner) Frame() uint64 { return r.frame }

// Tick runs one frame.
func (r *Runner) Tick() {
	r.frame++
	run(r.current.Systems)
}

func run(systems []System) {
	for _, s := range systems {
		if s.Update != nil {
			s.Update()
		}
		run(s.SubSystems)
	}
}
