package statement

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/joacominatel/minastmt/internal/database"
)

type rowsState int

const (
	stateNotStarted rowsState = iota
	stateActive
	stateExhausted
	stateFailed
)

func (s rowsState) terminal() bool {
	return s == stateExhausted || s == stateFailed
}

// Rows is a forward-only, single-pass sequence over the results of one
// execution. The first call to Next issues the first fetch.
//
// Rows is not safe for concurrent use.
type Rows struct {
	buf     *fetchBuffer
	columns []database.Column
	state   rowsState
	// pending is yielded once by the next call to Next.
	pending error
	log     *slog.Logger
}

func newRows(buf *fetchBuffer, columns []database.Column, log *slog.Logger) *Rows {
	return &Rows{buf: buf, columns: columns, log: log}
}

// Columns returns the column metadata of the result.
func (rs *Rows) Columns() []database.Column {
	return rs.columns
}

// Next returns the next row. It returns io.EOF once the results are
// exhausted. A fetch failure is returned once; later calls return io.EOF.
//
// The returned Row is valid until the following call to Next.
func (rs *Rows) Next(ctx context.Context) (*Row, error) {
	if rs.pending != nil {
		err := rs.pending
		rs.pending = nil
		rs.state = stateFailed
		return nil, err
	}
	if rs.state.terminal() {
		return nil, io.EOF
	}

	ok, err := rs.buf.advance(ctx)
	if err != nil {
		rs.state = stateFailed
		rs.log.Warn("fetch failed", "fetches", rs.buf.fetches, "rows", rs.buf.rows, "error", err)
		return nil, err
	}
	if !ok {
		rs.state = stateExhausted
		rs.log.Debug("results exhausted", "fetches", rs.buf.fetches, "rows", rs.buf.rows)
		return nil, io.EOF
	}

	rs.state = stateActive
	return &Row{
		columns: rs.columns,
		cells:   rs.buf.current(),
		buf:     rs.buf,
		serial:  rs.buf.serial,
	}, nil
}

// All returns an iterator over the remaining rows. An error is yielded as
// the last element.
func (rs *Rows) All(ctx context.Context) iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := rs.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// Close ends the sequence. Rows already returned become invalid.
func (rs *Rows) Close() {
	if rs.state.terminal() {
		return
	}
	rs.state = stateExhausted
	rs.pending = nil
	rs.buf.invalidate()
}

// FetchCount returns the number of fetch round-trips issued so far.
func (rs *Rows) FetchCount() int {
	return rs.buf.fetches
}

// inProgress reports whether iteration started and has not ended.
func (rs *Rows) inProgress() bool {
	return !rs.state.terminal() && rs.buf.started()
}

// supersede ends the sequence because its statement was executed again.
func (rs *Rows) supersede() {
	if rs.state.terminal() {
		return
	}
	rs.pending = ErrRowsClosed
	rs.buf.invalidate()
}

func (rs *Rows) fail() {
	rs.state = stateFailed
	rs.buf.invalidate()
}

// TypedRows is a sequence whose rows are decoded into T as they are
// produced. A decode failure ends the sequence at that row.
type TypedRows[T any] struct {
	rows *Rows
}

// Columns returns the column metadata of the result.
func (tr *TypedRows[T]) Columns() []database.Column {
	return tr.rows.Columns()
}

// Next returns the next decoded value or io.EOF at the end.
func (tr *TypedRows[T]) Next(ctx context.Context) (T, error) {
	var zero T
	row, err := tr.rows.Next(ctx)
	if err != nil {
		return zero, err
	}
	v, err := RowAs[T](row)
	if err != nil {
		tr.rows.fail()
		return zero, err
	}
	return v, nil
}

// All returns an iterator over the remaining decoded values.
func (tr *TypedRows[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := tr.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Collect drains the sequence into a slice.
func (tr *TypedRows[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for v, err := range tr.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Close ends the sequence.
func (tr *TypedRows[T]) Close() {
	tr.rows.Close()
}
