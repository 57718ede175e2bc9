package model

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusKind selects the icon and colour of an engine status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusChange
	StatusBuild
	StatusOK
	StatusStopped
	StatusFailed
)

var (
	bannerTimeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bannerNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#63C17A"))

	bannerKindStyles = map[StatusKind]lipgloss.Style{
		StatusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8FA0B3")),
		StatusChange:  lipgloss.NewStyle().Foreground(lipgloss.Color("#65B5FF")),
		StatusBuild:   lipgloss.NewStyle().Foreground(lipgloss.Color("#9FD3FF")).Bold(true),
		StatusOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("#63C17A")),
		StatusStopped: lipgloss.NewStyle().Foreground(lipgloss.Color("#E7B65A")),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E06B75")).Bold(true),
	}
)

func (k StatusKind) icon() string {
	switch k {
	case StatusChange:
		return IconChange
	case StatusBuild:
		return IconBuild
	case StatusOK:
		return IconOK
	case StatusStopped:
		return IconStopped
	case StatusFailed:
		return IconFailed
	default:
		return IconInfo
	}
}

// FormatStatus renders an engine status line: a timestamp and banner prefix
// followed by the message, so engine output stands apart from child output.
func FormatStatus(at time.Time, kind StatusKind, msg string) string {
	style, ok := bannerKindStyles[kind]
	if !ok {
		style = bannerKindStyles[StatusInfo]
	}
	return fmt.Sprintf("%s %s %s",
		bannerTimeStyle.Render("["+at.Format("15:04:05")+"]"),
		bannerNameStyle.Render("ammo »"),
		style.Render(kind.icon()+" "+msg),
	)
}

// Status appends a status line stamped with the current time.
func (s *LogSink) Status(kind StatusKind, format string, args ...any) {
	s.Append(FormatStatus(time.Now(), kind, fmt.Sprintf(format, args...)))
}
