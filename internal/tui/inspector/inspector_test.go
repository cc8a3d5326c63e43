package inspector

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minastmt/internal/database/enginemock"
	"github.com/joacominatel/minastmt/internal/statement"
)

const sqlRange = "select * from orders where id between :lo and :hi or id = :lo"

func prepare(t *testing.T, text string) *statement.Statement {
	t.Helper()

	m := enginemock.New(enginemock.Config{})
	m.Handle(text, func(_ []any) (*enginemock.Result, error) {
		return &enginemock.Result{}, nil
	})
	stmt, err := statement.Prepare(context.Background(), m, text, statement.WithFetchArraySize(8))
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	t.Cleanup(func() { _ = stmt.Close() })
	return stmt
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEditAndRun(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetSize(40, 20)
	m.SetFocused(true)
	m.SetStatement(prepare(t, sqlRange), nil)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Editing() {
		t.Fatalf("enter did not start editing")
	}
	m, _ = m.Update(runes("10"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Editing() {
		t.Fatalf("enter did not commit")
	}

	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("e"))
	m, _ = m.Update(runes("99"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	_, cmd := m.Update(runes("r"))
	if cmd == nil {
		t.Fatalf("run produced no command")
	}
	msg, ok := cmd().(RunMsg)
	if !ok {
		t.Fatalf("message = %T", cmd())
	}
	if len(msg.Inputs) != 1 || msg.Inputs["LO"] != "10" {
		t.Fatalf("inputs = %v", msg.Inputs)
	}
}

func TestNullAndClear(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetFocused(true)
	m.SetStatement(prepare(t, sqlRange), map[string]string{"LO": "1", "HI": "2"})

	m, _ = m.Update(runes("n"))
	if _, ok := m.Inputs()["LO"]; ok {
		t.Fatalf("n did not reset LO to NULL: %v", m.Inputs())
	}
	m, _ = m.Update(runes("c"))
	if len(m.Inputs()) != 0 {
		t.Fatalf("c left inputs %v", m.Inputs())
	}
}

func TestSetStatementKeepsSharedValues(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetStatement(prepare(t, sqlRange), map[string]string{"LO": "1", "HI": "2"})
	m.SetStatement(prepare(t, "select * from orders where id > :lo and status = :status"), map[string]string{"STATUS": "'open'"})

	in := m.Inputs()
	if len(in) != 2 || in["LO"] != "1" || in["STATUS"] != "'open'" {
		t.Fatalf("inputs = %v", in)
	}
}

func TestArraySizeKeys(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetFocused(true)
	m.SetStatement(prepare(t, sqlRange), nil)

	_, cmd := m.Update(runes("+"))
	if msg := cmd().(ArraySizeMsg); msg.Size != 16 {
		t.Fatalf("+ size = %d", msg.Size)
	}
	_, cmd = m.Update(runes("-"))
	if msg := cmd().(ArraySizeMsg); msg.Size != 4 {
		t.Fatalf("- size = %d", msg.Size)
	}
}

func TestView(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetSize(40, 20)
	if v := m.View(); !strings.Contains(v, "prepares a statement") {
		t.Fatalf("empty View = %q", v)
	}

	m.SetStatement(prepare(t, sqlRange), map[string]string{"HI": "5"})
	v := m.View()
	for _, want := range []string{"select", ":LO", ":HI", "2 bind(s), bind count 3", "fetch array size 8", "NULL", "5"} {
		if !strings.Contains(v, want) {
			t.Errorf("View missing %q:\n%s", want, v)
		}
	}
}
