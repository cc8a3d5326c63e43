package results

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minastmt/internal/app"
	"github.com/joacominatel/minastmt/internal/sqltext"
)

func (m Model) currentRow() ([]any, bool) {
	if m.cursorY < 0 || m.cursorY >= len(m.raw) {
		return nil, false
	}
	return m.raw[m.cursorY], true
}

func (m Model) currentCell() (any, bool) {
	row, ok := m.currentRow()
	if !ok || m.cursorX < 0 || m.cursorX >= len(row) {
		return nil, false
	}
	return row[m.cursorX], true
}

// --- Copy ---

func (m *Model) doCopyCell() {
	cell, ok := m.currentCell()
	if !ok {
		m.statusMessage = "Nothing to copy"
		return
	}
	val := app.FormatCell(cell)
	if err := clipboard.WriteAll(val); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied: " + app.Truncate(val, 40)
}

func (m *Model) doCopyRowJSON() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	if err := clipboard.WriteAll(app.RowJSON(m.columns, row)); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied row as JSON"
}

func (m *Model) doCopyRowCSV() {
	row, ok := m.currentRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	if err := clipboard.WriteAll(app.RowCSV(m.columns, row)); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied row as CSV"
}

// --- Filter ---

// doFilterByValue writes a query selecting rows whose current column equals
// the current cell, with the value passed as a bind variable.
func (m *Model) doFilterByValue() tea.Cmd {
	cell, ok := m.currentCell()
	table := extractTableName(m.query)
	if !ok || table == "" || m.cursorX >= len(m.columns) {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}

	col := m.columns[m.cursorX]
	bind := bindName(col)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = :%s", table, col, bind)
	binds := map[string]string{sqltext.NormalizeName(bind): app.FormatCell(cell)}
	if cell == nil {
		query = fmt.Sprintf("SELECT * FROM %s WHERE %s IS NULL", table, col)
		binds = nil
	} else if s, isText := cell.(string); isText {
		binds[sqltext.NormalizeName(bind)] = "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}

	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query, Binds: binds}
	}
}

// bindName derives a placeholder name from a column name.
func bindName(col string) string {
	var b strings.Builder
	for _, r := range col {
		switch {
		case r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || (col[0] >= '0' && col[0] <= '9') {
		return "v" + b.String()
	}
	return b.String()
}

// --- Export ---

func (m Model) exportPage() *app.Page {
	return &app.Page{Columns: m.columns, Rows: m.raw, Done: m.done}
}

func (m Model) exportJSONCmd() tea.Cmd {
	if len(m.columns) == 0 {
		return nil
	}
	page := m.exportPage()
	return func() tea.Msg {
		var buf bytes.Buffer
		if err := app.WriteJSON(&buf, page); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return writeExport("json", buf.Bytes(), len(page.Rows))
	}
}

func (m Model) exportCSVCmd() tea.Cmd {
	if len(m.columns) == 0 {
		return nil
	}
	page := m.exportPage()
	return func() tea.Msg {
		var buf bytes.Buffer
		if err := app.WriteCSV(&buf, page); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return writeExport("csv", buf.Bytes(), len(page.Rows))
	}
}

func writeExport(ext string, data []byte, rows int) tea.Msg {
	filename := fmt.Sprintf("minastmt_export_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
	}
	return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d loaded rows to %s", rows, filename)}
}

// --- Helpers ---

// extractTableName returns the identifier following the first FROM, INTO
// or UPDATE keyword, or "" when there is none.
func extractTableName(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(tokens) {
				if name := strings.TrimRight(tokens[i+1], ";,()"); name != "" {
					return name
				}
			}
		}
	}
	return ""
}
