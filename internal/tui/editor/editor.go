package editor

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/minastmt/internal/sqltext"
	"github.com/joacominatel/minastmt/internal/tui/theme"
)

// ExecuteQueryMsg is sent when the user asks to prepare the editor text.
type ExecuteQueryMsg struct {
	Query string
}

// Keywords upper-cased by the formatter.
var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"insert": true, "into": true, "update": true, "delete": true, "merge": true,
	"create": true, "drop": true, "alter": true, "table": true, "with": true,
	"index": true, "join": true, "inner": true, "outer": true, "using": true,
	"left": true, "right": true, "cross": true, "on": true, "matched": true,
	"not": true, "in": true, "is": true, "null": true, "like": true,
	"order": true, "by": true, "group": true, "having": true,
	"limit": true, "offset": true, "fetch": true, "first": true, "rows": true, "only": true,
	"as": true, "distinct": true, "between": true, "exists": true,
	"case": true, "when": true, "then": true, "else": true, "end": true, "values": true,
	"set": true, "begin": true, "declare": true, "commit": true, "rollback": true,
	"union": true, "all": true, "asc": true, "desc": true, "returning": true,
	"primary": true, "key": true, "foreign": true, "references": true,
	"default": true, "true": true, "false": true,
}

// Model is the SQL editor component.
type Model struct {
	textarea textarea.Model
	width    int
	height   int
	focused  bool

	tableNames  []string
	completing  bool
	completions []string
	compIndex   int
}

// New creates a new editor model.
func New() Model {
	ta := textarea.New()
	ta.Placeholder = "SELECT * FROM orders WHERE id >= :min_id"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "│ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorPrimary)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorBorder)

	return Model{textarea: ta}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(w - 2)
	m.textarea.SetHeight(h - 2)
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if f {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

// Focused returns whether the editor has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Value returns the current editor content.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetQuery replaces the editor content.
func (m *Model) SetQuery(query string) {
	m.textarea.SetValue(query)
	m.cancelCompletion()
}

// SetTableNames sets the table names offered by completion.
func (m *Model) SetTableNames(names []string) {
	m.tableNames = names
}

// CompletionActive reports whether Tab cycles completion candidates.
func (m Model) CompletionActive() bool {
	return m.completing
}

// Clear empties the editor.
func (m *Model) Clear() {
	m.textarea.Reset()
	m.cancelCompletion()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+e", "f5":
			query := strings.TrimSpace(m.textarea.Value())
			if query == "" {
				return m, nil
			}
			m.cancelCompletion()
			return m, func() tea.Msg { return ExecuteQueryMsg{Query: query} }
		case "ctrl+k":
			m.Clear()
			return m, nil
		case "ctrl+l":
			m.textarea.SetValue(FormatKeywords(m.textarea.Value()))
			return m, nil
		case "tab", "ctrl+@", "ctrl+ ":
			if m.tryCompletion() {
				return m, nil
			}
		case "esc":
			if m.completing {
				m.cancelCompletion()
				return m, nil
			}
		}
		if m.completing && key.String() != "tab" {
			m.cancelCompletion()
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// FormatKeywords upper-cases SQL keywords outside literals, quoted
// identifiers, comments and bind placeholders.
func FormatKeywords(text string) string {
	var out strings.Builder
	var word strings.Builder
	flush := func() {
		w := word.String()
		if sqlKeywords[strings.ToLower(w)] {
			w = strings.ToUpper(w)
		}
		out.WriteString(w)
		word.Reset()
	}

	binds := map[int]int{}
	for _, p := range sqltext.Placeholders(text) {
		binds[p.Offset] = p.Length
	}

	for i := 0; i < len(text); {
		if n, ok := binds[i]; ok {
			flush()
			out.WriteString(text[i : i+n])
			i += n
			continue
		}
		if end := skipVerbatim(text, i); end > i {
			flush()
			out.WriteString(text[i:end])
			i = end
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsLetter(r) || r == '_' || (word.Len() > 0 && unicode.IsDigit(r)) {
			word.WriteString(text[i : i+size])
		} else {
			flush()
			out.WriteString(text[i : i+size])
		}
		i += size
	}
	flush()
	return out.String()
}

// skipVerbatim returns the end of a literal, quoted identifier or comment
// starting at i, or i.
func skipVerbatim(text string, i int) int {
	switch {
	case text[i] == '\'' || text[i] == '"':
		q := text[i]
		for j := i + 1; j < len(text); j++ {
			if text[j] == q {
				return j + 1
			}
		}
		return len(text)
	case strings.HasPrefix(text[i:], "--"):
		if j := strings.IndexByte(text[i:], '\n'); j >= 0 {
			return i + j
		}
		return len(text)
	case strings.HasPrefix(text[i:], "/*"):
		if j := strings.Index(text[i+2:], "*/"); j >= 0 {
			return i + 2 + j + 2
		}
		return len(text)
	}
	return i
}

// tryCompletion completes the word before the cursor. A word starting with
// ':' completes from the bind names already in the text, other words from
// table names.
func (m *Model) tryCompletion() bool {
	if m.completing && len(m.completions) > 0 {
		m.compIndex = (m.compIndex + 1) % len(m.completions)
		m.applyCompletion()
		return true
	}

	val := m.textarea.Value()
	partial := extractLastWord(val)
	if partial == "" {
		return false
	}

	var candidates []string
	if strings.HasPrefix(partial, ":") {
		seen := map[string]bool{}
		for _, p := range sqltext.Placeholders(val) {
			name := ":" + strings.ToLower(p.Name)
			if !seen[name] && !strings.EqualFold(name, partial) {
				seen[name] = true
				candidates = append(candidates, name)
			}
		}
		sort.Strings(candidates)
	} else {
		candidates = m.tableNames
	}

	lower := strings.ToLower(partial)
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return false
	}

	m.completing = true
	m.completions = matches
	m.compIndex = 0
	m.applyCompletion()
	return true
}

func (m *Model) applyCompletion() {
	val := m.textarea.Value()
	base := strings.TrimSuffix(val, extractLastWord(val))
	m.textarea.SetValue(base + m.completions[m.compIndex])
}

func (m *Model) cancelCompletion() {
	m.completing = false
	m.completions = nil
	m.compIndex = 0
}

// extractLastWord returns the identifier, optionally prefixed with ':',
// at the end of s.
func extractLastWord(s string) string {
	s = strings.TrimRight(s, " \t\n\r")
	i := len(s)
	for i > 0 && isIdentChar(s[i-1]) {
		i--
	}
	if i > 0 && s[i-1] == ':' && (i < 2 || s[i-2] != ':') {
		i--
	}
	return s[i:]
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '.' || c == '$' || c == '#'
}

// View renders the editor.
func (m Model) View() string {
	title := theme.StyleTitle.Padding(0, 1).Render("Query Editor")

	if text := strings.TrimSpace(m.textarea.Value()); text != "" {
		kind := sqltext.Classify(text)
		names := map[string]bool{}
		for _, p := range sqltext.Placeholders(text) {
			names[p.Name] = true
		}
		title += " " + theme.KindStyle(kind).Render(kind.String())
		if len(names) > 0 {
			title += theme.StyleMuted.Render(fmt.Sprintf("  %d bind(s)", len(names)))
		}
	}

	var hint string
	if m.completing && len(m.completions) > 1 {
		parts := make([]string, len(m.completions))
		for i, c := range m.completions {
			if i == m.compIndex {
				parts[i] = theme.StyleCursor.Render(c)
			} else {
				parts[i] = theme.StyleMuted.Render(c)
			}
		}
		hint = "\n" + lipgloss.NewStyle().Padding(0, 1).Render(
			theme.StyleMuted.Render("Tab: ")+strings.Join(parts, " │ "),
		)
	}

	return title + "\n" + m.textarea.View() + hint
}
