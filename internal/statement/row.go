package statement

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/joacominatel/minastmt/internal/database"
)

// Row is a read-only view of one fetched row. A Row returned by Rows.Next
// borrows the fetch window and fails with ErrRowInvalidated once the
// sequence advances; use Detach to keep it.
type Row struct {
	columns []database.Column
	cells   database.RawRow
	buf     *fetchBuffer
	serial  uint64
}

// ColumnKey selects a column by zero-based position or by name.
type ColumnKey interface {
	~int | ~string
}

// Columns returns the column metadata.
func (r *Row) Columns() []database.Column {
	return r.columns
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.cells)
}

// Index returns the position of the named column. Names match
// case-insensitively.
func (r *Row) Index(name string) (int, error) {
	for i, c := range r.columns {
		if strings.EqualFold(c.Name, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNoSuchColumn, name)
}

// ScanColumn decodes column idx into dest.
func (r *Row) ScanColumn(idx int, dest any) error {
	if err := r.valid(); err != nil {
		return err
	}
	if idx < 0 || idx >= len(r.cells) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchColumn, idx, len(r.cells))
	}
	cell := r.cells[idx]
	if err := decodeCell(dest, cell); err != nil {
		return &ConversionError{
			Column: r.columnName(idx),
			Index:  idx,
			From:   cellTypeName(cell),
			To:     destTypeName(dest),
			Err:    err,
		}
	}
	return nil
}

// ScanNamed decodes the named column into dest.
func (r *Row) ScanNamed(name string, dest any) error {
	idx, err := r.Index(name)
	if err != nil {
		return err
	}
	return r.ScanColumn(idx, dest)
}

// Scan decodes columns 0..len(dest)-1 into dest in order and stops at the
// first failure.
func (r *Row) Scan(dest ...any) error {
	if len(dest) > len(r.cells) {
		return fmt.Errorf("%w: %d destinations for %d columns", ErrNoSuchColumn, len(dest), len(r.cells))
	}
	for i, d := range dest {
		if err := r.ScanColumn(i, d); err != nil {
			return err
		}
	}
	return nil
}

// Values returns a copy of the raw cells.
func (r *Row) Values() ([]any, error) {
	if err := r.valid(); err != nil {
		return nil, err
	}
	return r.cells.Clone(), nil
}

// Detach returns a copy of the row that stays valid after the sequence
// advances.
func (r *Row) Detach() (*Row, error) {
	if err := r.valid(); err != nil {
		return nil, err
	}
	return &Row{columns: r.columns, cells: r.cells.Clone()}, nil
}

func (r *Row) valid() error {
	if r.buf != nil && r.buf.serial != r.serial {
		return ErrRowInvalidated
	}
	return nil
}

func (r *Row) columnName(idx int) string {
	if idx < len(r.columns) {
		return r.columns[idx].Name
	}
	return ""
}

// Get decodes one column of r into a T.
func Get[T any, K ColumnKey](r *Row, key K) (T, error) {
	var out T
	var err error
	kv := reflect.ValueOf(key)
	if kv.Kind() == reflect.String {
		err = r.ScanNamed(kv.String(), &out)
	} else {
		err = r.ScanColumn(int(kv.Int()), &out)
	}
	return out, err
}

// RowAs decodes a whole row into a T. RowDecoder implementations decode
// themselves, plain structs are filled as ordered tuples (exported field i
// from column i), and any other type is decoded from column 0.
func RowAs[T any](r *Row) (T, error) {
	var out T
	if err := r.valid(); err != nil {
		return out, err
	}
	if d, ok := any(&out).(RowDecoder); ok {
		err := d.DecodeRow(r)
		return out, err
	}

	if isTuple(reflect.TypeFor[T]()) {
		v := reflect.ValueOf(&out).Elem()
		var dest []any
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				dest = append(dest, v.Field(i).Addr().Interface())
			}
		}
		err := r.Scan(dest...)
		return out, err
	}

	err := r.ScanColumn(0, &out)
	return out, err
}
