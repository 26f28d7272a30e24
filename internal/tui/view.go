package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
)

// layout returns the table width, log width and content height.
func (m Model) layout() (int, int, int) {
	sidebarWidth := max(30, min(40, m.width*30/100))
	mainWidth := max(40, m.width-sidebarWidth-4)
	contentHeight := max(10, m.height-3)
	return mainWidth - 4, mainWidth - 4, contentHeight
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sidebarWidth := max(30, min(40, m.width*30/100))
	mainWidth := max(40, m.width-sidebarWidth-4)
	contentHeight := max(10, m.height-3)

	sidebar := m.renderSidebar(sidebarWidth - 4)
	sidebarBox := statusBoxStyle.Width(sidebarWidth).Height(contentHeight).Render(sidebar)

	logHeader := labelStyle.Render(fmt.Sprintf("Observations (%d)", len(m.logs)))
	mainContent := m.table.View() + "\n\n" + logHeader + "\n" + m.logViewport.View()
	mainBox := logBoxStyle.Width(mainWidth).Height(contentHeight).Render(mainContent)

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarBox, mainBox) + "\n" + m.renderHelp()
}

func (m Model) renderSidebar(width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SCENEPROBE"))
	b.WriteString("\n")
	if m.title != "" {
		b.WriteString(valueStyle.Render(truncate(m.title, width)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	indicator := m.getStateIndicator()
	elapsed := formatDuration(time.Since(m.startTime))
	padding := width - lipgloss.Width(indicator) - len(elapsed)
	b.WriteString(indicator)
	b.WriteString(strings.Repeat(" ", max(2, padding)))
	b.WriteString(valueStyle.Render(elapsed))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Frame   "))
	b.WriteString(valueStyle.Render(strconv.FormatUint(m.frame, 10)))
	b.WriteString("\n")

	var loading, loaded, loads, untimed int
	for _, s := range m.scenes {
		switch s.State {
		case scene.Loading:
			loading++
		case scene.Loaded:
			loaded++
		}
	}
	for _, st := range m.stats {
		loads += st.loads
		untimed += st.untimed
	}
	b.WriteString(labelStyle.Render("Scenes  "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d tracked, %d loading, %d loaded", len(m.scenes), loading, loaded)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Loads   "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d timed, %d untimed", loads, untimed)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(stoppedStyle.Render(truncate("Error: "+m.err.Error(), width)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getStateIndicator() string {
	switch m.runState {
	case stateRunning:
		return runningStyle.Render(m.spinner.View() + " Running")
	case statePaused:
		return pausedStyle.Render("⏸ PAUSED")
	case stateStopped:
		return stoppedStyle.Render("⏹ STOPPED")
	case stateComplete:
		return runningStyle.Render("✓ COMPLETE")
	default:
		return ""
	}
}

func (m Model) renderHelp() string {
	var parts []string

	switch m.runState {
	case stateRunning:
		parts = append(parts, "p: pause", "s: stop")
	case statePaused:
		parts = append(parts, "p: resume", "s: stop")
	case stateStopped, stateComplete:
	}

	parts = append(parts, "↑/↓: scenes", "pgup/pgdn: log", "q: quit")

	return helpStyle.Render(strings.Join(parts, " • "))
}

func (m Model) sceneRows() []table.Row {
	rows := make([]table.Row, 0, len(m.scenes))
	for _, s := range m.scenes {
		loading := "-"
		if s.State == scene.Loading && !s.StartedAt.IsZero() && !m.hostNow.IsZero() {
			loading = formatMillis(m.hostNow.Sub(s.StartedAt))
		}

		last, loads := "-", "0"
		if st, ok := m.stats[s.Scene.Name]; ok {
			if st.loads > 0 {
				last = formatMillis(st.last)
			}
			loads = strconv.Itoa(st.loads)
			if st.untimed > 0 {
				loads += "+" + strconv.Itoa(st.untimed) + "u"
			}
		}

		rows = append(rows, table.Row{s.Scene.Name, s.State.String(), loading, last, loads})
	}
	return rows
}

func (m Model) joinLogs() string {
	return strings.Join(m.logs, "\n")
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func formatMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
