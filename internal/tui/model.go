package tui

import (
	"log/slog"
	"time"

	"ammo/internal/build"
	"ammo/internal/display"
	"ammo/internal/model"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// FrameInterval bounds how often the log is re-projected when no input
// arrives.
const FrameInterval = 100 * time.Millisecond

// Controller is the part of the build manager the viewer needs.
type Controller interface {
	Kill() error
	Phase() build.Phase
}

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Sink   *model.LogSink
	Builds Controller
	Rows   display.Projection

	// UI State
	Selection  display.Selection
	WindowSize tea.WindowSizeMsg
	Ready      bool

	// KillErr is set when stopping the build on quit failed.
	KillErr error

	// Components
	Keys     KeyMap
	Help     help.Model
	Viewport viewport.Model

	theme theme
	log   *slog.Logger
}

// InitialModel returns the initial state.
func InitialModel(sink *model.LogSink, builds Controller, logger *slog.Logger) AppModel {
	if logger == nil {
		logger = slog.Default()
	}
	th := newTheme()
	return AppModel{
		Sink:     sink,
		Builds:   builds,
		Keys:     DefaultKeyMap(),
		Help:     newHelp(th),
		Viewport: viewport.New(0, 0),
		theme:    th,
		log:      logger.With("component", "tui"),
	}
}

// newHelp styles the command bar from the theme.
func newHelp(th theme) help.Model {
	h := help.New()
	h.Styles.ShortKey = th.commands.Bold(true)
	h.Styles.ShortDesc = th.commands
	h.Styles.ShortSeparator = th.track
	h.Styles.Ellipsis = th.track
	return h
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the frame ticker.
func (m AppModel) Init() tea.Cmd {
	return tick()
}
