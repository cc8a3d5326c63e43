package statement

import (
	"context"
	"fmt"
	"testing"

	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/database/enginemock"
)

const (
	sqlByIntCol     = "select * from TestStrings where IntCol = :intcol"
	sqlFirstRow     = "select * from TestStrings where IntCol = 1"
	sqlLowerBound   = "select IntCol from TestStrings where IntCol >= :lower order by IntCol"
	sqlTuple        = "select '0', 1, '2' from dual"
	sqlInsertTemp   = "insert into TestTemp values (:id, :name)"
	sqlPLSQLBinds   = "BEGIN :val1 := :val2 || :val1 || :aàáâãäå; END;"
	sqlSelectBinds  = "SELECT :val1, :val2, :val1, :aàáâãäå from dual"
	testStringsRows = 6
)

var testStringsColumns = []database.Column{
	{Name: "INTCOL", DataType: "NUMBER(9)", OrdinalPos: 1},
	{Name: "STRINGCOL", DataType: "VARCHAR2(20)", OrdinalPos: 2},
	{Name: "RAWCOL", DataType: "RAW(30)", OrdinalPos: 3},
	{Name: "FIXEDCHARCOL", DataType: "CHAR(40)", OrdinalPos: 4},
	{Name: "NULLABLECOL", DataType: "VARCHAR2(50)", IsNullable: true, OrdinalPos: 5},
}

// testString builds row i of TestStrings. Odd rows carry a value in the
// nullable column, even rows carry NULL.
func testString(i int) database.RawRow {
	var nullable any
	if i%2 == 1 {
		nullable = fmt.Sprintf("Nullable %d", i)
	}
	return database.RawRow{
		int64(i),
		fmt.Sprintf("String %d", i),
		[]byte(fmt.Sprintf("Raw %d", i)),
		fmt.Sprintf("%-40s", fmt.Sprintf("Fixed Char %d", i)),
		nullable,
	}
}

func whereIntCol(match func(n int64) bool, project bool) enginemock.Handler {
	return func(_ []any) (*enginemock.Result, error) {
		return filterIntCol(match, project), nil
	}
}

func filterIntCol(match func(n int64) bool, project bool) *enginemock.Result {
	res := &enginemock.Result{Columns: testStringsColumns}
	if project {
		res.Columns = testStringsColumns[:1]
	}
	for i := 1; i <= testStringsRows; i++ {
		row := testString(i)
		if !match(row[0].(int64)) {
			continue
		}
		if project {
			row = row[:1]
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func bindInt(binds []any) int64 {
	n, _ := binds[0].(int64)
	return n
}

func newTestEngine(t *testing.T) *enginemock.Mock {
	t.Helper()

	m := enginemock.New(enginemock.Config{Database: "testdb"})
	m.Handle(sqlFirstRow, whereIntCol(func(n int64) bool { return n == 1 }, false))
	m.Handle(sqlByIntCol, func(binds []any) (*enginemock.Result, error) {
		want := bindInt(binds)
		return filterIntCol(func(n int64) bool { return n == want }, false), nil
	})
	m.Handle(sqlLowerBound, func(binds []any) (*enginemock.Result, error) {
		lower := bindInt(binds)
		return filterIntCol(func(n int64) bool { return n >= lower }, true), nil
	})
	m.Handle(sqlTuple, func(_ []any) (*enginemock.Result, error) {
		return &enginemock.Result{
			Columns: []database.Column{{Name: "'0'"}, {Name: "1"}, {Name: "'2'"}},
			Rows:    []database.RawRow{{"0", int64(1), "2"}},
		}, nil
	})
	m.Handle(sqlInsertTemp, func(_ []any) (*enginemock.Result, error) {
		return &enginemock.Result{RowsAffected: 1}, nil
	})
	m.Handle(sqlPLSQLBinds, func(_ []any) (*enginemock.Result, error) { return nil, nil })
	m.Handle(sqlSelectBinds, func(binds []any) (*enginemock.Result, error) {
		return &enginemock.Result{
			Columns: []database.Column{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
			Rows:    []database.RawRow{{binds[0], binds[1], binds[0], binds[2]}},
		}, nil
	})
	if err := m.Connect(context.Background(), ""); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return m
}

func mustPrepare(t *testing.T, drv database.Driver, text string, opts ...Option) *Statement {
	t.Helper()

	stmt, err := Prepare(context.Background(), drv, text, opts...)
	if err != nil {
		t.Fatalf("Prepare(%q) failed: %v", text, err)
	}
	t.Cleanup(func() { _ = stmt.Close() })
	return stmt
}
