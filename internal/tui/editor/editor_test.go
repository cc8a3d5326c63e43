package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestFormatKeywords(t *testing.T) {
	t.Parallel()

	tt := []struct {
		in   string
		want string
	}{
		{"select id from t where id = :id", "SELECT id FROM t WHERE id = :id"},
		{"select :from, 'select' from dual", "SELECT :from, 'select' FROM dual"},
		{"update t set a = 1 -- where not\nwhere b is null", "UPDATE t SET a = 1 -- where not\nWHERE b IS NULL"},
		{`select "order" from /* from */ orders`, `SELECT "order" FROM /* from */ orders`},
		{"select selected, from_date from t", "SELECT selected, from_date FROM t"},
		{"select prénom from t", "SELECT prénom FROM t"},
	}
	for _, tc := range tt {
		if got := FormatKeywords(tc.in); got != tc.want {
			t.Errorf("FormatKeywords(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractLastWord(t *testing.T) {
	t.Parallel()

	tt := map[string]string{
		"select * from ord":     "ord",
		"where id = :mi":        ":mi",
		"select x::te":          "te",
		"select public.ord  \n": "public.ord",
		"select (":              "",
	}
	for in, want := range tt {
		if got := extractLastWord(in); got != want {
			t.Errorf("extractLastWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTabCompletesTablesAndBinds(t *testing.T) {
	t.Parallel()

	tab := tea.KeyMsg{Type: tea.KeyTab}

	m := New()
	m.SetSize(80, 10)
	m.SetFocused(true)
	m.SetTableNames([]string{"orders", "order_lines", "users"})

	m.SetQuery("select * from ord")
	m, _ = m.Update(tab)
	if got := m.Value(); got != "select * from orders" {
		t.Fatalf("first completion = %q", got)
	}
	if !m.CompletionActive() {
		t.Fatalf("completion not active with two candidates")
	}
	m, _ = m.Update(tab)
	if got := m.Value(); got != "select * from order_lines" {
		t.Fatalf("second completion = %q", got)
	}

	m.SetQuery("select * from t where a = :min_id and b < :max_id and c = :m")
	m, _ = m.Update(tab)
	if got := m.Value(); got != "select * from t where a = :min_id and b < :max_id and c = :max_id" {
		t.Fatalf("bind completion = %q", got)
	}
}

func TestExecuteSendsTrimmedQuery(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetFocused(true)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE}); cmd != nil {
		t.Fatalf("empty editor produced a command")
	}

	m.SetQuery("  select 1  \n")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	if cmd == nil {
		t.Fatalf("execute produced no command")
	}
	msg, ok := cmd().(ExecuteQueryMsg)
	if !ok || msg.Query != "select 1" {
		t.Fatalf("message = %#v", cmd())
	}
}
