package tui

import (
	"ammo/internal/build"

	"github.com/charmbracelet/lipgloss"
)

const (
	scrollThumb = "▌"
	scrollTrack = "│"
)

type theme struct {
	title     lipgloss.Style
	version   lipgloss.Style
	selected  lipgloss.Style
	thumb     lipgloss.Style
	track     lipgloss.Style
	commands  lipgloss.Style
	empty     lipgloss.Style
	phaseIdle lipgloss.Style
	phases    map[build.Phase]lipgloss.Style
}

func newTheme() theme {
	return theme{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#9FD3FF")),
		version: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E7B88")),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D7DBE0")).
			Background(lipgloss.Color("#3D4752")),
		thumb: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#65B5FF")),
		track: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3D4752")),
		commands: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8FA0B3")),
		empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E7B88")).
			Italic(true),
		phaseIdle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E7B88")),
		phases: map[build.Phase]lipgloss.Style{
			build.PhaseSecondary: lipgloss.NewStyle().Foreground(lipgloss.Color("#E7B65A")),
			build.PhaseRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#63C17A")),
			build.PhaseExited:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E06B75")),
		},
	}
}

func (t theme) phase(p build.Phase) lipgloss.Style {
	if s, ok := t.phases[p]; ok {
		return s
	}
	return t.phaseIdle
}
