package database

import (
	"fmt"
	"strings"
)

// Column represents a result or table column with its metadata.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	IsPrimary  bool
	Default    string
	OrdinalPos int
}

// RawRow is one row as delivered by a fetch call. Cells hold nil for SQL
// NULL or one of int64, float64, bool, string, []byte and time.Time.
type RawRow []any

// Clone returns a copy of the row that does not share byte slices with r.
func (r RawRow) Clone() RawRow {
	out := make(RawRow, len(r))
	for i, cell := range r {
		if b, ok := cell.([]byte); ok {
			cell = append([]byte(nil), b...)
		}
		out[i] = cell
	}
	return out
}

// String renders the row for diagnostics.
func (r RawRow) String() string {
	parts := make([]string, len(r))
	for i, cell := range r {
		if cell == nil {
			parts[i] = "NULL"
			continue
		}
		parts[i] = fmt.Sprintf("%v", cell)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
