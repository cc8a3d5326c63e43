package results

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minastmt/internal/app"
	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/database/enginemock"
)

const sqlPeople = "select id, name from people where id > :after"

func execution(t *testing.T, pageSize int) (*app.Execution, *app.Page) {
	t.Helper()

	m := enginemock.New(enginemock.Config{})
	m.Handle(sqlPeople, func(_ []any) (*enginemock.Result, error) {
		res := &enginemock.Result{Columns: []database.Column{{Name: "ID"}, {Name: "NAME"}}}
		for i := int64(1); i <= 5; i++ {
			var name any = "p" + string(rune('0'+i))
			if i == 2 {
				name = nil
			}
			res.Rows = append(res.Rows, database.RawRow{i, name})
		}
		return res, nil
	})

	svc := app.NewService(m)
	ctx := context.Background()
	stmt, err := svc.Prepare(ctx, sqlPeople)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	exec, err := svc.Run(ctx, stmt)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	page, err := exec.NextPage(ctx, pageSize)
	if err != nil {
		t.Fatalf("NextPage failed: %v", err)
	}
	return exec, page
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPagingRequestsMoreAtTheEnd(t *testing.T) {
	t.Parallel()

	exec, first := execution(t, 2)
	m := New()
	m.SetSize(80, 20)
	m.SetFocused(true)
	m.Reset(exec, first)

	if m.RowCount() != 2 || m.Done() {
		t.Fatalf("after first page: %d rows, done=%v", m.RowCount(), m.Done())
	}

	m, cmd := m.Update(key("down"))
	if cmd != nil {
		t.Fatalf("moving inside the page requested more")
	}
	m, cmd = m.Update(key("down"))
	if cmd == nil {
		t.Fatalf("moving past the last row did not request more")
	}
	if _, ok := cmd().(NextPageMsg); !ok {
		t.Fatalf("command did not produce NextPageMsg")
	}
	if _, again := m.Update(key("n")); again != nil {
		t.Fatalf("second request issued while one is pending")
	}

	rest, err := exec.NextPage(context.Background(), 10)
	if err != nil {
		t.Fatalf("NextPage failed: %v", err)
	}
	m.AppendPage(rest)
	if m.RowCount() != 5 || !m.Done() {
		t.Fatalf("after last page: %d rows, done=%v", m.RowCount(), m.Done())
	}
	if _, cmd := m.Update(key("n")); cmd != nil {
		t.Fatalf("requested more after the result was complete")
	}
	if got := m.cells[1][1]; got != app.NullText {
		t.Fatalf("NULL cell rendered as %q", got)
	}
}

func TestFilterByValueUsesBind(t *testing.T) {
	t.Parallel()

	exec, first := execution(t, 5)
	m := New()
	m.SetSize(80, 20)
	m.SetFocused(true)
	m.Reset(exec, first)

	m, _ = m.Update(key("right"))
	_, cmd := m.Update(key("f"))
	if cmd == nil {
		t.Fatalf("filter produced no command")
	}
	msg, ok := cmd().(SetEditorQueryMsg)
	if !ok {
		t.Fatalf("filter message = %T", cmd())
	}
	if msg.Query != "SELECT * FROM people WHERE NAME = :NAME" || msg.Binds["NAME"] != "'p1'" {
		t.Fatalf("filter = %+v", msg)
	}

	// NULL cells filter with IS NULL.
	m, _ = m.Update(key("down"))
	_, cmd = m.Update(key("f"))
	msg = cmd().(SetEditorQueryMsg)
	if msg.Query != "SELECT * FROM people WHERE NAME IS NULL" || msg.Binds != nil {
		t.Fatalf("null filter = %+v", msg)
	}
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	tt := []struct {
		query string
		want  string
	}{
		{"select * from orders where x = 1", "orders"},
		{"INSERT INTO audit(id) VALUES (1)", "audit(id"},
		{"update t set a = 1", "t"},
		{"select 1", ""},
	}
	for _, tc := range tt {
		if got := extractTableName(tc.query); got != tc.want {
			t.Errorf("extractTableName(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}

	for in, want := range map[string]string{"total": "total", "unit price": "unit_price", "1st": "v1st", "": "v"} {
		if got := bindName(in); got != want {
			t.Errorf("bindName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestViewShowsAffectedRowsForDML(t *testing.T) {
	t.Parallel()

	exec, first := execution(t, 1)
	exec.Columns = nil
	exec.RowsAffected = 3
	m := New()
	m.SetSize(80, 20)
	m.Reset(exec, first)
	if v := m.View(); !strings.Contains(v, "3 row(s) affected") {
		t.Fatalf("View = %q", v)
	}
}

