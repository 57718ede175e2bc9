package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"ammo/internal/model"
)

func (m AppModel) View() string {
	if !m.Ready {
		return "\n  Starting " + model.AppName + "...\n"
	}

	width := m.WindowSize.Width
	n := m.Rows.Len()
	height := m.logHeight()
	start, _ := m.Selection.Window(n, height)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.scrollbar(start, n, height),
		" ",
		m.Viewport.View(),
	)
	commands := lipgloss.PlaceHorizontal(width, lipgloss.Center, m.Help.View(m.Keys))

	return lipgloss.JoinVertical(lipgloss.Left, m.titleBar(), body, commands)
}

func (m AppModel) titleBar() string {
	phase := m.Builds.Phase()
	title := m.theme.title.Render(model.AppName) + " " +
		m.theme.version.Render(model.Version) + "  " +
		m.theme.phase(phase).Render(phase.String())
	return lipgloss.PlaceHorizontal(m.WindowSize.Width, lipgloss.Center, title)
}

// syncViewport renders the projected rows into the viewport and scrolls it
// so the selection stays in view.
func (m *AppModel) syncViewport() {
	n := m.Rows.Len()
	if n == 0 {
		m.Viewport.SetContent(m.theme.empty.Render("waiting for output..."))
		m.Viewport.SetYOffset(0)
		return
	}

	// Windowing Logic
	start, _ := m.Selection.Window(n, m.logHeight())

	lines := make([]string, n)
	for i, row := range m.Rows.Rows {
		if i == m.Selection.Index {
			// The highlight replaces the row's own colours.
			lines[i] = m.theme.selected.Width(m.logWidth()).Render(ansi.Strip(row.Text))
			continue
		}
		lines[i] = row.Text
	}
	m.Viewport.SetContent(strings.Join(lines, "\n"))
	m.Viewport.SetYOffset(start)
}

// scrollbar draws a one column bar whose thumb covers the visible rows.
func (m AppModel) scrollbar(start, n, height int) string {
	bar := make([]string, height)
	thumbStart, thumbEnd := 0, 0
	if n > height {
		size := max(height*height/n, 1)
		thumbStart = start * (height - size) / (n - height)
		thumbEnd = thumbStart + size
	}
	for i := range bar {
		if i >= thumbStart && i < thumbEnd {
			bar[i] = m.theme.thumb.Render(scrollThumb)
		} else {
			bar[i] = m.theme.track.Render(scrollTrack)
		}
	}
	return strings.Join(bar, "\n")
}
