package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ammo/internal/display"
)

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.Ready = true
		m.Help.Width = msg.Width
		m.Viewport.Width = m.logWidth()
		m.Viewport.Height = m.logHeight()
		m.refresh()
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		if key.Matches(msg, m.Keys.Quit) {
			if err := m.Builds.Kill(); err != nil {
				m.log.Error("stop build on quit", "operation", "quit", "error", err)
				m.KillErr = err
			}
			return m, tea.Quit
		}

		// Move against the rows the user is looking at, including any
		// output that arrived since the last frame.
		m.refresh()
		n := m.Rows.Len()
		switch {
		case key.Matches(msg, m.Keys.Up):
			m.Selection.Prev(n)
		case key.Matches(msg, m.Keys.Down):
			m.Selection.Next(n)
		case key.Matches(msg, m.Keys.Top):
			m.Selection.First()
		case key.Matches(msg, m.Keys.Bottom):
			m.Selection.Follow(n)
		default:
			return m, nil
		}
		m.syncViewport()
		return m, nil
	}

	return m, nil
}

// refresh re-projects the log for the current width and applies a pending
// jump to the latest line.
func (m *AppModel) refresh() {
	m.Rows = display.Project(m.Sink.Lines(), m.logWidth())
	if m.Sink.TakeJumpToLatest() {
		m.Selection.Follow(m.Rows.Len())
	} else {
		m.Selection.Clamp(m.Rows.Len())
	}
	m.syncViewport()
}

// logWidth is the width left for log text next to the scrollbar.
func (m AppModel) logWidth() int {
	return max(m.WindowSize.Width-2, 1)
}

// logHeight leaves one line each for the title and command bars.
func (m AppModel) logHeight() int {
	return max(m.WindowSize.Height-2, 1)
}
