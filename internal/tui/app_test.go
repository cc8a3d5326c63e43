package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minastmt/internal/app"
	"github.com/joacominatel/minastmt/internal/config"
	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/database/enginemock"
	"github.com/joacominatel/minastmt/internal/tui/editor"
	"github.com/joacominatel/minastmt/internal/tui/inspector"
	"github.com/joacominatel/minastmt/internal/tui/results"
)

const (
	sqlCount   = "select n from numbers"
	sqlByOwner = "select id from items where owner = :owner"
)

func newTestModel(t *testing.T) (Model, *enginemock.Mock) {
	t.Helper()

	mock := enginemock.New(enginemock.Config{Database: "test"})
	mock.Handle(sqlCount, func(_ []any) (*enginemock.Result, error) {
		res := &enginemock.Result{Columns: []database.Column{{Name: "N"}}}
		for i := int64(1); i <= 5; i++ {
			res.Rows = append(res.Rows, database.RawRow{i})
		}
		return res, nil
	})
	mock.Handle(sqlByOwner, func(binds []any) (*enginemock.Result, error) {
		res := &enginemock.Result{Columns: []database.Column{{Name: "ID"}}}
		if binds[0] == "ada" {
			res.Rows = []database.RawRow{{int64(7)}}
		}
		return res, nil
	})

	svc := app.NewService(mock)
	svc.SetFetchArraySize(2)
	m := NewModel(svc, &config.Config{}, "")
	m.mode = ModeMain
	m.width, m.height = 120, 40
	m.layout()
	m.setFocus(PaneEditor)
	return m, mock
}

// step feeds msg to m and returns the model and the message its command
// produces, if any.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd == nil {
		return next.(Model), nil
	}
	return next.(Model), cmd()
}

func TestStatementWithoutBindsRunsAfterPrepare(t *testing.T) {
	t.Parallel()

	m, mock := newTestModel(t)

	m, msg := step(t, m, editor.ExecuteQueryMsg{Query: sqlCount})
	if _, ok := msg.(preparedMsg); !ok {
		t.Fatalf("prepare produced %T", msg)
	}
	m, msg = step(t, m, msg)
	if _, ok := msg.(executedMsg); !ok {
		t.Fatalf("prepared statement without binds produced %T", msg)
	}
	m, _ = step(t, m, msg)

	if m.results.RowCount() != 2 || m.results.Done() {
		t.Fatalf("first page: %d rows, done=%v", m.results.RowCount(), m.results.Done())
	}
	if m.activePane != PaneResults {
		t.Fatalf("focus = %v, want results", m.activePane)
	}

	for !m.results.Done() {
		m, msg = step(t, m, results.NextPageMsg{})
		if _, ok := msg.(pageLoadedMsg); !ok {
			t.Fatalf("next page produced %T", msg)
		}
		m, _ = step(t, m, msg)
	}
	if m.results.RowCount() != 5 {
		t.Fatalf("loaded %d rows, want 5", m.results.RowCount())
	}
	if got := mock.Stats().FetchSizes; len(got) == 0 || got[0] != 2 {
		t.Fatalf("fetch sizes = %v", got)
	}
}

func TestStatementWithBindsWaitsForInspector(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)

	m, msg := step(t, m, editor.ExecuteQueryMsg{Query: sqlByOwner})
	m, msg = step(t, m, msg)
	if msg != nil {
		t.Fatalf("statement with binds ran immediately: %T", msg)
	}
	if m.activePane != PaneInspector || m.inspector.Statement() == nil {
		t.Fatalf("inspector not focused on the prepared statement")
	}

	m, msg = step(t, m, inspector.RunMsg{Inputs: map[string]string{"OWNER": "ada"}})
	m, _ = step(t, m, msg)
	if m.results.RowCount() != 1 || !m.results.Done() {
		t.Fatalf("result: %d rows, done=%v", m.results.RowCount(), m.results.Done())
	}
}

func TestFilterQueryPrefillsBinds(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)

	m, _ = step(t, m, results.SetEditorQueryMsg{Query: sqlByOwner, Binds: map[string]string{"OWNER": "'ada'"}})
	if m.editor.Value() != sqlByOwner || m.activePane != PaneEditor {
		t.Fatalf("editor not loaded with the filter query")
	}

	m, msg := step(t, m, editor.ExecuteQueryMsg{Query: sqlByOwner})
	m, _ = step(t, m, msg)
	if got := m.inspector.Inputs()["OWNER"]; got != "'ada'" {
		t.Fatalf("OWNER input = %q", got)
	}
	if m.pendingBinds != nil {
		t.Fatalf("pending binds kept after use")
	}
}

func TestArraySizeChange(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)

	m, msg := step(t, m, editor.ExecuteQueryMsg{Query: sqlByOwner})
	m, _ = step(t, m, msg)

	m, _ = step(t, m, inspector.ArraySizeMsg{Size: 16})
	if m.stmt.FetchArraySize() != 16 || m.service.FetchArraySize() != 16 {
		t.Fatalf("array size = %d / %d", m.stmt.FetchArraySize(), m.service.FetchArraySize())
	}
}

func TestPrepareFailureShowsError(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)

	m, msg := step(t, m, editor.ExecuteQueryMsg{Query: "select nothing"})
	m, _ = step(t, m, msg)
	if m.busy || m.stmt != nil {
		t.Fatalf("failed prepare left busy=%v stmt=%v", m.busy, m.stmt)
	}
}
