package statement

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"time"
)

// CellEncoder is implemented by host types that choose their own bind
// representation. EncodeCell returns a value Encode accepts.
type CellEncoder interface {
	EncodeCell() (any, error)
}

var timeType = reflect.TypeOf(time.Time{})

// Encode converts a host value into an engine cell: nil, int64, float64,
// bool, string, []byte or time.Time. Nil pointers encode as NULL.
func Encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	switch x := v.(type) {
	case CellEncoder:
		c, err := x.EncodeCell()
		if err != nil {
			return nil, fmt.Errorf("encode %T: %w", v, err)
		}
		return encodeValue(c)
	case driver.Valuer:
		c, err := x.Value()
		if err != nil {
			return nil, fmt.Errorf("encode %T: %w", v, err)
		}
		return encodeValue(c)
	}
	return encodeValue(v)
}

func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int64, float64, bool, string, time.Time:
		return x, nil
	case []byte:
		if x == nil {
			return nil, nil
		}
		return append([]byte(nil), x...), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, &ConversionError{From: rv.Type().String(), To: "int64", Err: ErrOutOfRange}
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return nil, nil
			}
			return append([]byte(nil), rv.Bytes()...), nil
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return Encode(rv.Elem().Interface())
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			return rv.Convert(timeType).Interface(), nil
		}
	}
	return nil, &ConversionError{From: rv.Type().String(), To: "bind value", Err: ErrTypeMismatch}
}
