// Package tui implements the live scene load view using bubbletea.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/profiler"
	"github.com/alexander-akhmetov/sceneprobe/internal/sim"
)

const maxLogLines = 5000

type runState int

const (
	stateRunning runState = iota
	statePaused
	stateStopped
	stateComplete
)

// Controller is the running host as seen by the UI.
type Controller interface {
	Stop()
	TogglePause() bool
}

// sceneStats accumulates completed loads for one scene.
type sceneStats struct {
	loads   int
	untimed int
	last    time.Duration
	total   time.Duration
}

type Model struct {
	title     string
	ctrl      Controller
	scenes    []profiler.TimerSnapshot
	stats     map[string]*sceneStats
	frame     uint64
	hostNow   time.Time
	startTime time.Time
	logs      []string

	table       table.Model
	logViewport viewport.Model
	spinner     spinner.Model
	width       int
	height      int
	ready       bool

	runState runState
	result   *sim.Result
	err      error
}

// SnapshotMsg carries the timer states after one tick.
type SnapshotMsg struct {
	Frame  uint64
	At     time.Time // host clock at the tick
	Scenes []profiler.TimerSnapshot
}

// EventMsg carries one observation.
type EventMsg struct {
	Event event.Event
}

// RunDoneMsg reports that the host stopped ticking.
type RunDoneMsg struct {
	Result *sim.Result
	Err    error
}

func NewModel(title string, ctrl Controller) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	t := table.New(
		table.WithColumns(sceneColumns(60)),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	return Model{
		title:     title,
		ctrl:      ctrl,
		stats:     make(map[string]*sceneStats),
		logs:      make([]string, 0),
		startTime: time.Now(),
		table:     t,
		spinner:   s,
		runState:  stateRunning,
	}
}

// Result returns the run result once RunDoneMsg arrived.
func (m Model) Result() (*sim.Result, error) {
	return m.result, m.err
}

func sceneColumns(width int) []table.Column {
	name := max(12, width-4*10-2)
	return []table.Column{
		{Title: "Scene", Width: name},
		{Title: "State", Width: 10},
		{Title: "Loading", Width: 10},
		{Title: "Last", Width: 10},
		{Title: "Loads", Width: 10},
	}
}
