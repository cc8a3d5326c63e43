// Package inspector shows the prepared statement: its kind, its bind slots
// and the values typed for them.
package inspector

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/minastmt/internal/app"
	"github.com/joacominatel/minastmt/internal/statement"
	"github.com/joacominatel/minastmt/internal/tui/theme"
)

// RunMsg asks the app to execute the inspected statement with the typed
// bind values, keyed by upper-cased bind name.
type RunMsg struct {
	Inputs map[string]string
}

// ArraySizeMsg asks the app to change the fetch array size.
type ArraySizeMsg struct {
	Size int
}

// Model is the statement inspector component.
type Model struct {
	stmt    *statement.Statement
	names   []string
	inputs  map[string]string
	cursor  int
	editing bool
	input   textinput.Model
	width   int
	height  int
	focused bool
}

// New creates a new inspector model.
func New() Model {
	ti := textinput.New()
	ti.Prompt = "= "
	ti.Placeholder = "NULL"
	ti.CharLimit = 4000
	return Model{input: ti, inputs: map[string]string{}}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = w - 6
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if !f {
		m.stopEditing(false)
	}
}

// Focused returns whether the inspector has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Editing reports whether a bind value is being typed.
func (m Model) Editing() bool {
	return m.editing
}

// SetStatement shows stmt. Values typed for bind names the new statement
// shares with the previous one are kept; defaults override them.
func (m *Model) SetStatement(stmt *statement.Statement, defaults map[string]string) {
	m.stmt = stmt
	m.names = stmt.BindNames()
	m.cursor = 0
	m.stopEditing(false)

	kept := make(map[string]string, len(m.names))
	for _, n := range m.names {
		if v, ok := m.inputs[n]; ok {
			kept[n] = v
		}
		if v, ok := defaults[n]; ok {
			kept[n] = v
		}
	}
	m.inputs = kept
}

// Statement returns the inspected statement.
func (m Model) Statement() *statement.Statement {
	return m.stmt
}

// Inputs returns a copy of the typed values.
func (m Model) Inputs() map[string]string {
	out := make(map[string]string, len(m.inputs))
	for k, v := range m.inputs {
		out[k] = v
	}
	return out
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the inspector.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused || m.stmt == nil {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		switch key.String() {
		case "enter":
			m.stopEditing(true)
			return m, nil
		case "esc":
			m.stopEditing(false)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "enter", "e":
		if len(m.names) > 0 {
			m.editing = true
			m.input.SetValue(m.inputs[m.names[m.cursor]])
			m.input.CursorEnd()
			m.input.Focus()
			return m, textinput.Blink
		}
	case "backspace", "delete", "n":
		if len(m.names) > 0 {
			delete(m.inputs, m.names[m.cursor])
		}
	case "c":
		m.inputs = map[string]string{}
	case "+", "]":
		return m, m.arraySizeCmd(m.stmt.FetchArraySize() * 2)
	case "-", "[":
		return m, m.arraySizeCmd(m.stmt.FetchArraySize() / 2)
	case "ctrl+e", "f5", "r":
		inputs := m.Inputs()
		return m, func() tea.Msg { return RunMsg{Inputs: inputs} }
	}
	return m, nil
}

func (m Model) arraySizeCmd(n int) tea.Cmd {
	if n < 1 {
		n = 1
	}
	return func() tea.Msg { return ArraySizeMsg{Size: n} }
}

func (m *Model) stopEditing(commit bool) {
	if !m.editing {
		return
	}
	if commit && m.cursor < len(m.names) {
		m.inputs[m.names[m.cursor]] = m.input.Value()
	}
	m.editing = false
	m.input.Blur()
}

// View renders the inspector.
func (m Model) View() string {
	title := theme.StyleTitle.Padding(0, 1).Render("Statement")
	if m.stmt == nil {
		return title + "\n" + theme.StyleMuted.Render("  Ctrl+E in the editor\n  prepares a statement")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	kind := m.stmt.StatementType()
	b.WriteString("  ")
	b.WriteString(theme.KindStyle(kind).Render(kind.String()))
	b.WriteString(theme.StyleMuted.Render(fmt.Sprintf("  %s", shortID(m.stmt.ID()))))
	b.WriteString("\n")
	b.WriteString(theme.StyleMuted.Render(fmt.Sprintf("  %d bind(s), bind count %d", len(m.names), m.stmt.BindCount())))
	b.WriteString("\n")
	b.WriteString(theme.StyleMuted.Render(fmt.Sprintf("  fetch array size %d", m.stmt.FetchArraySize())))
	b.WriteString("\n\n")

	if len(m.names) == 0 {
		b.WriteString(theme.StyleMuted.Render("  no bind variables"))
		return b.String()
	}

	valueWidth := m.width - 6
	for i, name := range m.names {
		label := ":" + name
		value := app.NullText
		style := theme.StyleMuted
		if v, ok := m.inputs[name]; ok {
			value = v
			style = lipgloss.NewStyle()
		}

		cursor := "  "
		nameStyle := theme.StyleBind
		if i == m.cursor && m.focused {
			cursor = theme.StyleCursor.Render("> ")
			nameStyle = nameStyle.Bold(true)
		}
		b.WriteString(cursor)
		b.WriteString(nameStyle.Render(label))
		b.WriteString("\n")

		if i == m.cursor && m.editing {
			b.WriteString("    ")
			b.WriteString(m.input.View())
		} else {
			b.WriteString("    ")
			b.WriteString(style.Render(app.Truncate(value, valueWidth)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.StyleMuted.Render("  Enter: edit  n: NULL  r: run"))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
