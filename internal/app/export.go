package app

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// NullText is how NULL cells are rendered as text.
const NullText = "NULL"

// FormatCell renders a raw cell as text.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case []byte:
		return strings.ToUpper(hex.EncodeToString(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// FormatRow renders every cell of row.
func FormatRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = FormatCell(v)
	}
	return out
}

func jsonCell(v any) any {
	switch x := v.(type) {
	case []byte:
		return FormatCell(x)
	case time.Time:
		return FormatCell(x)
	default:
		return x
	}
}

// RowJSON renders row as a JSON object, preserving column order.
func RowJSON(columns []string, row []any) string {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		key, _ := json.Marshal(col)
		b.Write(key)
		b.WriteString(": ")
		var cell any
		if i < len(row) {
			cell = row[i]
		}
		val, err := json.Marshal(jsonCell(cell))
		if err != nil {
			val, _ = json.Marshal(FormatCell(cell))
		}
		b.Write(val)
	}
	b.WriteString("}")
	return b.String()
}

// RowCSV renders a header line and row as CSV.
func RowCSV(columns []string, row []any) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(columns)
	_ = w.Write(FormatRow(row))
	w.Flush()
	return b.String()
}

// WriteCSV writes the page as CSV with a header line.
func WriteCSV(w io.Writer, page *Page) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(page.Columns); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, row := range page.Rows {
		if err := cw.Write(FormatRow(row)); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the page as a JSON array of objects.
func WriteJSON(w io.Writer, page *Page) error {
	var b strings.Builder
	b.WriteString("[")
	for i, row := range page.Rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  ")
		b.WriteString(RowJSON(page.Columns, row))
	}
	if len(page.Rows) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("]\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteTable writes the page as an aligned text table. Cells wider than
// maxWidth runes are cut with an ellipsis; maxWidth below one disables it.
func WriteTable(w io.Writer, page *Page, maxWidth int) error {
	if len(page.Columns) == 0 {
		return nil
	}

	cells := make([][]string, len(page.Rows))
	widths := make([]int, len(page.Columns))
	for i, c := range page.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for r, row := range page.Rows {
		cells[r] = FormatRow(row)
		for i, s := range cells[r] {
			s = Truncate(s, maxWidth)
			cells[r][i] = s
			if i < len(widths) && utf8.RuneCountInString(s) > widths[i] {
				widths[i] = utf8.RuneCountInString(s)
			}
		}
	}

	var b strings.Builder
	writeLine := func(parts []string) {
		for i, width := range widths {
			if i > 0 {
				b.WriteString(" | ")
			}
			s := ""
			if i < len(parts) {
				s = parts[i]
			}
			b.WriteString(s)
			if pad := width - utf8.RuneCountInString(s); pad > 0 && i < len(widths)-1 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		b.WriteString("\n")
	}

	writeLine(page.Columns)
	seps := make([]string, len(widths))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	b.WriteString(strings.Join(seps, "-+-"))
	b.WriteString("\n")
	for _, row := range cells {
		writeLine(row)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// Truncate cuts s to at most n runes, the last one being an ellipsis.
func Truncate(s string, n int) string {
	if n < 1 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
