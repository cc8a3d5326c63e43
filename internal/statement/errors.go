package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrPrepare means the engine rejected the statement text.
	ErrPrepare = errors.New("prepare failed")

	// ErrNoSuchBindVariable is returned for an unknown bind name or position.
	ErrNoSuchBindVariable = errors.New("no such bind variable")

	// ErrTypeMismatch means a value cannot be represented in the requested type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrOutOfRange means a numeric value does not fit the target width.
	ErrOutOfRange = errors.New("value out of range")

	// ErrNullNotAllowed means SQL NULL was decoded into a non-nullable target.
	ErrNullNotAllowed = errors.New("null not allowed")

	// ErrFetch wraps failures of the engine fetch call.
	ErrFetch = errors.New("fetch failed")

	// ErrEngine wraps failures of the engine bind and execute calls.
	ErrEngine = errors.New("engine failure")

	// ErrNoSuchColumn is returned for an unknown column name or index.
	ErrNoSuchColumn = errors.New("no such column")

	// ErrNoDataFound is returned by single-row queries without a row.
	ErrNoDataFound = errors.New("no data found")

	// ErrRowInvalidated is returned when a Row is read after its sequence advanced.
	ErrRowInvalidated = errors.New("row invalidated by a later fetch")

	// ErrRowsClosed is returned once by a sequence superseded by a new
	// execution or by closing its statement.
	ErrRowsClosed = errors.New("rows closed by a newer execution or statement close")

	// ErrFetchInProgress rejects fetch array size changes during iteration.
	ErrFetchInProgress = errors.New("fetch in progress")

	// ErrInvalidArraySize rejects fetch array sizes below one.
	ErrInvalidArraySize = errors.New("fetch array size must be positive")

	// ErrStatementClosed is returned by calls on a closed statement.
	ErrStatementClosed = errors.New("statement closed")
)

// ConversionError describes a failed column conversion.
type ConversionError struct {
	Column string
	Index  int
	From   string
	To     string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("column %d (%s): %s to %s: %v", e.Index, e.Column, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("%s to %s: %v", e.From, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
