package statusbar

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/minastmt/internal/sqltext"
	"github.com/joacominatel/minastmt/internal/tui/theme"
)

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	connName   string
	activePane string
	message    string

	prepared  bool
	kind      sqltext.Kind
	stmtID    string
	arraySize int
}

// New creates a new status bar model.
func New() Model {
	return Model{
		activePane: "editor",
	}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection status display.
func (m *Model) SetConnected(connected bool, name string) {
	m.connected = connected
	m.connName = name
}

// SetActivePane updates the displayed active pane name.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage sets a temporary status message.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Message returns the current message.
func (m Model) Message() string {
	return m.message
}

// SetStatement shows the prepared statement. An empty id clears it.
func (m *Model) SetStatement(kind sqltext.Kind, id string, arraySize int) {
	m.prepared = id != ""
	m.kind = kind
	m.stmtID = id
	m.arraySize = arraySize
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages (status bar has no interactive behavior).
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar.Width(m.width)

	var left string
	if m.connected {
		left = lipgloss.NewStyle().
			Foreground(theme.ColorSuccess).
			Render("●") + " " + m.connName
	} else {
		left = lipgloss.NewStyle().
			Foreground(theme.ColorError).
			Render("●") + " disconnected"
	}

	if m.prepared {
		id := m.stmtID
		if len(id) > 8 {
			id = id[:8]
		}
		left += "  " + theme.KindStyle(m.kind).Render(m.kind.String()) +
			fmt.Sprintf(" %s │ array %d", id, m.arraySize)
	}

	right := "Ctrl+E: Prepare │ Tab: Switch pane │ ?: Help │ q: Quit"
	if m.message != "" {
		right = m.message
	}

	padding := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right)-4)
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
