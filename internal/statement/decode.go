package statement

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// CellDecoder is implemented by pointers to host types that decode
// themselves from one cell. DecodeCell receives nil for SQL NULL.
type CellDecoder interface {
	DecodeCell(cell any) error
}

// RowDecoder is implemented by pointers to record types built from a whole
// row, usually with one Get call per field.
type RowDecoder interface {
	DecodeRow(r *Row) error
}

var (
	scannerType     = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	cellDecoderType = reflect.TypeOf((*CellDecoder)(nil)).Elem()
	rowDecoderType  = reflect.TypeOf((*RowDecoder)(nil)).Elem()
)

// Decode stores cell into the value dest points to.
//
// Pointer targets, sql.Scanner and CellDecoder implementations accept NULL;
// every other target fails with ErrNullNotAllowed. Fixed-width text keeps its
// padding.
func Decode(cell any, dest any) error {
	if err := decodeCell(dest, cell); err != nil {
		return &ConversionError{From: cellTypeName(cell), To: destTypeName(dest), Err: err}
	}
	return nil
}

func decodeCell(dest any, cell any) error {
	switch d := dest.(type) {
	case CellDecoder:
		return d.DecodeCell(cell)
	case sql.Scanner:
		return d.Scan(cloneCell(cell))
	case *any:
		*d = cloneCell(cell)
		return nil
	}

	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: destination %T is not a non-nil pointer", ErrTypeMismatch, dest)
	}
	return decodeValue(rv.Elem(), cell)
}

func decodeValue(dst reflect.Value, cell any) error {
	if dst.CanAddr() {
		switch d := dst.Addr().Interface().(type) {
		case CellDecoder:
			return d.DecodeCell(cell)
		case sql.Scanner:
			return d.Scan(cloneCell(cell))
		}
	}

	switch dst.Kind() {
	case reflect.Pointer:
		if cell == nil {
			dst.SetZero()
			return nil
		}
		v := reflect.New(dst.Type().Elem())
		if err := decodeValue(v.Elem(), cell); err != nil {
			return err
		}
		dst.Set(v)
		return nil
	case reflect.Interface:
		if cell == nil {
			dst.SetZero()
			return nil
		}
		cv := reflect.ValueOf(cloneCell(cell))
		if !cv.Type().AssignableTo(dst.Type()) {
			return ErrTypeMismatch
		}
		dst.Set(cv)
		return nil
	}

	if cell == nil {
		return ErrNullNotAllowed
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(cell)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrOutOfRange, n, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toUint64(cell)
		if err != nil {
			return err
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrOutOfRange, n, dst.Type())
		}
		dst.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(cell)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("%w: %g overflows %s", ErrOutOfRange, f, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	case reflect.String:
		s, err := toString(cell)
		if err != nil {
			return err
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, err := toBool(cell)
		if err != nil {
			return err
		}
		dst.SetBool(b)
		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.Uint8 {
			break
		}
		b, err := toBytes(cell)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(b).Convert(dst.Type()))
		return nil
	case reflect.Struct:
		if !dst.Type().ConvertibleTo(timeType) {
			break
		}
		t, err := toTime(cell)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t).Convert(dst.Type()))
		return nil
	}
	return ErrTypeMismatch
}

func toInt64(cell any) (int64, error) {
	switch v := cell.(type) {
	case int64:
		return v, nil
	case float64:
		return floatToInt64(v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %s overflows int64", ErrOutOfRange, s)
		}
		f, err := parseNumber(s)
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	}
	return 0, ErrTypeMismatch
}

func toUint64(cell any) (uint64, error) {
	switch v := cell.(type) {
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrOutOfRange, v)
		}
		return uint64(v), nil
	case float64:
		return floatToUint64(v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		n, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %s overflows uint64", ErrOutOfRange, s)
		}
		f, err := parseNumber(s)
		if err != nil {
			return 0, err
		}
		return floatToUint64(f)
	}
	return 0, ErrTypeMismatch
}

// parseNumber parses s as a float64 for integer targets.
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %s overflows float64", ErrOutOfRange, s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, s)
	}
	return f, nil
}

func floatToUint64(f float64) (uint64, error) {
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %g is not an integer", ErrTypeMismatch, f)
	}
	if f < 0 || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: %g overflows uint64", ErrOutOfRange, f)
	}
	return uint64(f), nil
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %g is not an integer", ErrTypeMismatch, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %g overflows int64", ErrOutOfRange, f)
	}
	return int64(f), nil
}

func toFloat64(cell any) (float64, error) {
	switch v := cell.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %s overflows float64", ErrOutOfRange, v)
		}
		return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, v)
	}
	return 0, ErrTypeMismatch
}

func toString(cell any) (string, error) {
	switch v := cell.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []byte:
		return strings.ToUpper(hex.EncodeToString(v)), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	}
	return "", ErrTypeMismatch
}

func toBool(cell any) (bool, error) {
	switch v := cell.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, v)
		}
		return b, nil
	}
	return false, ErrTypeMismatch
}

func toBytes(cell any) ([]byte, error) {
	switch v := cell.(type) {
	case []byte:
		return append(make([]byte, 0, len(v)), v...), nil
	case string:
		return []byte(v), nil
	}
	return nil, ErrTypeMismatch
}

func toTime(cell any) (time.Time, error) {
	switch v := cell.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q is not a timestamp", ErrTypeMismatch, v)
		}
		return t, nil
	}
	return time.Time{}, ErrTypeMismatch
}

func cloneCell(cell any) any {
	if b, ok := cell.([]byte); ok {
		return append([]byte(nil), b...)
	}
	return cell
}

func cellTypeName(cell any) string {
	if cell == nil {
		return "NULL"
	}
	return fmt.Sprintf("%T", cell)
}

func destTypeName(dest any) string {
	t := reflect.TypeOf(dest)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		return t.Elem().String()
	}
	return t.String()
}

// isTuple reports whether t decodes as an ordered tuple of its exported fields.
func isTuple(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.ConvertibleTo(timeType) {
		return false
	}
	pt := reflect.PointerTo(t)
	return !pt.Implements(scannerType) && !pt.Implements(cellDecoderType) && !pt.Implements(rowDecoderType)
}
