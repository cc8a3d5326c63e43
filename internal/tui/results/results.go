package results

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/minastmt/internal/app"
	"github.com/joacominatel/minastmt/internal/tui/theme"
)

const maxColumnWidth = 40

// Model is the paged results component. Rows are appended one page at a
// time; moving past the last loaded row asks for the next page.
type Model struct {
	columns  []string
	raw      [][]any
	cells    [][]string
	done     bool
	affected int64
	kind     string
	elapsed  time.Duration
	query    string

	err           error
	statusMessage string
	width         int
	height        int
	focused       bool
	loading       bool
	requested     bool
	scrollY       int
	cursorY       int
	cursorX       int
	colWidths     []int
}

// New creates a new results model.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// Reset starts a new result from the first page of exec.
func (m *Model) Reset(exec *app.Execution, first *app.Page) {
	m.columns = exec.Columns
	m.raw = nil
	m.cells = nil
	m.done = false
	m.affected = exec.RowsAffected
	m.kind = exec.Statement.StatementType().String()
	m.elapsed = exec.Duration
	m.query = exec.Statement.SQL()
	m.err = nil
	m.statusMessage = ""
	m.scrollY, m.cursorY, m.cursorX = 0, 0, 0
	m.colWidths = nil
	m.AppendPage(first)
}

// AppendPage adds the rows of page.
func (m *Model) AppendPage(page *app.Page) {
	m.loading = false
	m.requested = false
	if page == nil {
		return
	}
	for _, row := range page.Rows {
		m.raw = append(m.raw, row)
		m.cells = append(m.cells, app.FormatRow(row))
	}
	m.done = page.Done
	m.calculateColumnWidths()
}

// SetError sets an error to display. Rows already loaded stay visible.
func (m *Model) SetError(err error) {
	m.err = err
	m.loading = false
	m.requested = false
	m.done = true
}

// RowCount returns the number of loaded rows.
func (m Model) RowCount() int {
	return len(m.cells)
}

// Done reports whether the whole result is loaded.
func (m Model) Done() bool {
	return m.done
}

func (m *Model) calculateColumnWidths() {
	if len(m.columns) == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.columns))
	for i, col := range m.columns {
		m.colWidths[i] = lipgloss.Width(col)
	}
	for _, row := range m.cells {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < len(m.colWidths) && w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}
	for i := range m.colWidths {
		m.colWidths[i] = max(1, min(m.colWidths[i], maxColumnWidth))
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	last := len(m.cells) - 1
	switch key.String() {
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		if m.cursorY >= last {
			return m, m.requestMore()
		}
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.visibleRows())
	case "pgdown":
		if m.cursorY+m.visibleRows() > last {
			m.moveCursor(last - m.cursorY)
			return m, m.requestMore()
		}
		m.moveCursor(m.visibleRows())
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "right", "l":
		if m.cursorX < len(m.columns)-1 {
			m.cursorX++
		}
	case "home", "g":
		m.moveCursor(-m.cursorY)
	case "end", "G":
		m.moveCursor(last - m.cursorY)
	case "n":
		return m, m.requestMore()
	case "y":
		m.doCopyCell()
	case "Y":
		m.doCopyRowJSON()
	case "C":
		m.doCopyRowCSV()
	case "f":
		return m, m.doFilterByValue()
	case "E":
		return m, m.exportCSVCmd()
	case "J":
		return m, m.exportJSONCmd()
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	m.cursorY += delta
	m.cursorY = max(0, min(m.cursorY, len(m.cells)-1))

	visible := m.visibleRows()
	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+visible {
		m.scrollY = m.cursorY - visible + 1
	}
}

// requestMore asks the app for the next page unless the result is complete
// or a request is pending.
func (m *Model) requestMore() tea.Cmd {
	if m.done || m.requested || m.loading {
		return nil
	}
	m.requested = true
	m.statusMessage = "Fetching..."
	return func() tea.Msg { return NextPageMsg{} }
}

func (m Model) visibleRows() int {
	return max(1, m.height-5)
}

// View renders the results pane.
func (m Model) View() string {
	title := theme.StyleTitle.Padding(0, 1).Render("Results")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Executing...")
	}
	if m.err != nil && len(m.cells) == 0 {
		return title + "\n" + theme.StyleError.Render("  Error: "+m.err.Error())
	}
	if m.columns == nil && m.kind == "" {
		return title + "\n" + theme.StyleMuted.Render("  Execute a statement to see results")
	}

	more := "+"
	if m.done {
		more = ""
	}
	stats := fmt.Sprintf("%s | %d%s row(s) | %s", m.kind, len(m.cells), more, m.elapsed.Round(time.Microsecond))
	header := title + "  " + theme.StyleMuted.Render(stats)

	if len(m.columns) == 0 {
		return header + "\n" + theme.StyleSuccess.Render(fmt.Sprintf("  %d row(s) affected", m.affected))
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.renderRow(m.columns, -1))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())

	end := min(len(m.cells), m.scrollY+m.visibleRows())
	for i := m.scrollY; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(m.cells[i], i))
	}

	footer := m.statusMessage
	if m.err != nil {
		footer = theme.StyleError.Render("Error: " + m.err.Error())
	} else if !m.done {
		footer += theme.StyleMuted.Render("  n/↓: fetch more")
	}
	if footer != "" {
		b.WriteString("\n  ")
		b.WriteString(footer)
	}
	return b.String()
}

// renderRow renders one line; rowIdx -1 is the header.
func (m Model) renderRow(cells []string, rowIdx int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		width := 10
		if i < len(m.colWidths) {
			width = m.colWidths[i]
		}
		display := app.Truncate(cell, width)
		if pad := width - lipgloss.Width(display); pad > 0 {
			display += strings.Repeat(" ", pad)
		}

		switch {
		case rowIdx < 0:
			parts[i] = theme.StyleTitle.Render(display)
		case m.focused && rowIdx == m.cursorY && i == m.cursorX:
			parts[i] = theme.StyleCursor.Reverse(true).Render(display)
		case rowIdx == m.cursorY && m.focused:
			parts[i] = theme.StyleCursor.Render(display)
		case rowIdx < len(m.raw) && i < len(m.raw[rowIdx]) && m.raw[rowIdx][i] == nil:
			parts[i] = theme.StyleMuted.Render(display)
		default:
			parts[i] = display
		}
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderSeparator() string {
	parts := make([]string, len(m.colWidths))
	for i, w := range m.colWidths {
		parts[i] = strings.Repeat("─", w)
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}
