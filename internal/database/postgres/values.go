package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joacominatel/minastmt/internal/sqltext"
)

// rewriteBinds turns ":name" placeholders into PostgreSQL "$n" parameters.
// Repeated names share a parameter number. It returns the rewritten text and
// the number of distinct parameters.
func rewriteBinds(text string) (string, int) {
	placeholders := sqltext.Placeholders(text)
	numbers := make(map[string]int, len(placeholders))
	for _, p := range placeholders {
		if _, ok := numbers[p.Name]; !ok {
			numbers[p.Name] = len(numbers) + 1
		}
	}
	rewritten := sqltext.Rewrite(text, placeholders, func(p sqltext.Placeholder) string {
		return "$" + strconv.Itoa(numbers[p.Name])
	})
	return rewritten, len(numbers)
}

// normalize maps a value decoded by pgx onto the raw cell set: nil, int64,
// float64, bool, string, []byte or time.Time.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, bool, string, time.Time:
		return x
	case []byte:
		return append([]byte(nil), x...)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		return valuerCell(x)
	case driver.Valuer:
		return valuerCell(x)
	case fmt.Stringer:
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func valuerCell(v driver.Valuer) any {
	dv, err := v.Value()
	if err != nil {
		return fmt.Sprint(v)
	}
	if _, ok := dv.(driver.Valuer); ok {
		return fmt.Sprint(dv)
	}
	return normalize(dv)
}
