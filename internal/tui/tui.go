package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/profiler"
	"github.com/alexander-akhmetov/sceneprobe/internal/sim"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
)

// TUI runs the model against a host driven on another goroutine. OnFrame
// and Handle are called from the host goroutine and never block it; updates
// are dropped when the UI falls behind.
type TUI struct {
	model     Model
	program   *tea.Program
	snapshots chan SnapshotMsg
	events    chan EventMsg
}

func New(title string, ctrl Controller) *TUI {
	timing.Log("TUI.New: start")
	return &TUI{
		model:     NewModel(title, ctrl),
		snapshots: make(chan SnapshotMsg, 16),
		events:    make(chan EventMsg, 256),
	}
}

// OnFrame publishes the timer states after a tick.
func (t *TUI) OnFrame(frame uint64, at time.Time, scenes []profiler.TimerSnapshot) {
	select {
	case t.snapshots <- SnapshotMsg{Frame: frame, At: at, Scenes: scenes}:
	default:
	}
}

// Handle publishes one observation. It matches event.Handler. When the
// buffer is full the observation is dropped from the view only; the
// progress log receives every observation and is the complete record.
func (t *TUI) Handle(e event.Event) {
	select {
	case t.events <- EventMsg{Event: e}:
	default:
	}
}

// Run starts the UI and calls run on a new goroutine. It returns when the
// user quits and run has returned.
func (t *TUI) Run(run func() (*sim.Result, error)) (*sim.Result, error) {
	timing.Log("TUI.Run: start")
	doneChan := make(chan RunDoneMsg, 1)
	final := make(chan RunDoneMsg, 1)

	t.program = tea.NewProgram(t.model, tea.WithAltScreen())

	go func() {
		timing.Log("TUI.Run: host goroutine started")
		result, err := run()
		doneChan <- RunDoneMsg{Result: result, Err: err}
	}()

	go func() {
		for {
			select {
			case snap := <-t.snapshots:
				t.program.Send(snap)
			case ev := <-t.events:
				t.program.Send(ev)
			case done := <-doneChan:
				final <- done
				t.drain()
				t.program.Send(done)
				return
			}
		}
	}()

	_, err := t.program.Run()
	timing.Log("TUI.Run: tea.Program.Run returned")
	if err != nil {
		if t.model.ctrl != nil {
			t.model.ctrl.Stop()
		}
		return nil, err
	}

	// Quitting stops the host; wait for it to return.
	done := <-final
	return done.Result, done.Err
}

// drain forwards buffered updates so the final view is complete.
func (t *TUI) drain() {
	for {
		select {
		case ev := <-t.events:
			t.program.Send(ev)
		case snap := <-t.snapshots:
			t.program.Send(snap)
		default:
			return
		}
	}
}
