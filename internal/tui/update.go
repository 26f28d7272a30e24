package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c":
		if m.ctrl != nil && (m.runState == stateRunning || m.runState == statePaused) {
			m.ctrl.Stop()
		}
		return m, tea.Quit

	case "p":
		if m.ctrl != nil && (m.runState == stateRunning || m.runState == statePaused) {
			if m.ctrl.TogglePause() {
				m.runState = statePaused
			} else {
				m.runState = stateRunning
			}
		}

	case "s":
		if m.ctrl != nil && m.runState != stateStopped && m.runState != stateComplete {
			m.ctrl.Stop()
			m.runState = stateStopped
		}

	case "up", "k", "down", "j":
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)

	case "pgup", "ctrl+u", "pgdown", "ctrl+d":
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		timing.Log("Update: WindowSizeMsg received")
		m.width = msg.Width
		m.height = msg.Height

		tableWidth, logWidth, contentHeight := m.layout()
		tableHeight := max(3, contentHeight/2)
		logHeight := max(3, contentHeight-tableHeight-4)

		m.table.SetColumns(sceneColumns(tableWidth))
		m.table.SetHeight(tableHeight)
		if !m.ready {
			m.logViewport = viewport.New(logWidth, logHeight)
			m.ready = true
		} else {
			m.logViewport.Width = logWidth
			m.logViewport.Height = logHeight
		}
		m.logViewport.SetContent(m.joinLogs())

	case SnapshotMsg:
		m.frame = msg.Frame
		m.hostNow = msg.At
		m.scenes = msg.Scenes
		m.table.SetRows(m.sceneRows())

	case EventMsg:
		m.recordEvent(msg.Event)
		m.table.SetRows(m.sceneRows())

	case RunDoneMsg:
		m.result = msg.Result
		m.err = msg.Err
		if m.runState != stateStopped {
			m.runState = stateComplete
		}
		if msg.Result != nil {
			m.appendLog(fmt.Sprintf("run finished: %s after %d frames", msg.Result.ExitReason, msg.Result.Frames))
		}
		if msg.Err != nil {
			m.appendLog(fmt.Sprintf("run error: %v", msg.Err))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) recordEvent(e event.Event) {
	st, ok := m.stats[e.Scene]
	if !ok {
		st = &sceneStats{}
		m.stats[e.Scene] = st
	}

	switch e.Kind {
	case event.KindLoadStarted:
		m.appendLog(loadingStyle.Render(e.Scene + ": loading"))
	case event.KindLoadCompleted:
		st.loads++
		st.last = e.Duration
		st.total += e.Duration
		m.appendLog(fmt.Sprintf("%s: %dms", e.Scene, e.Duration.Milliseconds()))
	case event.KindLoadUntimed:
		st.untimed++
		m.appendLog(untimedStyle.Render(e.Scene + ": loaded (untimed)"))
	}
}

func (m *Model) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	if m.ready {
		m.logViewport.SetContent(m.joinLogs())
		m.logViewport.GotoBottom()
	}
}
