package statement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/logging"
	"github.com/joacominatel/minastmt/internal/sqltext"
)

// DefaultFetchArraySize is the number of rows requested per fetch unless
// configured otherwise.
const DefaultFetchArraySize = 100

// NamedArg is a bind value addressed by name.
type NamedArg struct {
	Name  string
	Value any
}

// Named returns a NamedArg.
func Named(name string, value any) NamedArg {
	return NamedArg{Name: name, Value: value}
}

// Option configures a Statement at preparation.
type Option func(*Statement)

// WithFetchArraySize sets the initial fetch array size. Values below one
// are ignored.
func WithFetchArraySize(n int) Option {
	return func(s *Statement) {
		if n > 0 {
			s.arraySize = n
		}
	}
}

// WithLogger overrides the statement logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Statement) {
		if l != nil {
			s.log = l
		}
	}
}

// Statement is a prepared statement: its cursor, kind, bind slots and fetch
// settings. Successive executions reuse the cursor. A Statement and the Rows
// it produces are not safe for concurrent use.
type Statement struct {
	id        string
	text      string
	kind      sqltext.Kind
	driver    database.Driver
	cursor    database.Cursor
	binds     *Registry
	arraySize int
	rows      *Rows
	executed  bool
	closed    bool
	log       *slog.Logger
}

// Prepare classifies text, discovers its bind variables and prepares it on
// the engine.
func Prepare(ctx context.Context, drv database.Driver, text string, opts ...Option) (*Statement, error) {
	s := &Statement{
		id:        uuid.NewString(),
		text:      text,
		kind:      sqltext.Classify(text),
		driver:    drv,
		binds:     NewRegistry(text),
		arraySize: DefaultFetchArraySize,
	}
	s.log = logging.WithStatement(s.id, s.kind.String())
	for _, opt := range opts {
		opt(s)
	}

	cur, err := drv.Prepare(ctx, text)
	if err != nil {
		s.log.Debug("prepare failed", "error", err)
		return nil, errors.Join(ErrPrepare, err)
	}
	s.cursor = cur

	s.log.Debug("prepared", "binds", s.binds.Len(), "occurrences", s.binds.Count())
	return s, nil
}

// ID returns the unique id of the statement, used in log records.
func (s *Statement) ID() string { return s.id }

// SQL returns the statement text.
func (s *Statement) SQL() string { return s.text }

// StatementType returns the kind of the statement.
func (s *Statement) StatementType() sqltext.Kind { return s.kind }

// BindCount returns the bind count of the statement: every placeholder
// occurrence for SQL, each distinct name once for a PL/SQL block.
func (s *Statement) BindCount() int { return s.binds.Count() }

// BindNames returns the distinct upper-cased bind names in order of first
// occurrence. It can be shorter than BindCount.
func (s *Statement) BindNames() []string { return s.binds.Names() }

// BindSlots returns a copy of the bind slot table.
func (s *Statement) BindSlots() []BindSlot { return s.binds.Slots() }

// FetchArraySize returns the number of rows requested per fetch.
func (s *Statement) FetchArraySize() int { return s.arraySize }

// SetFetchArraySize sets the number of rows requested per fetch. It fails
// while a result sequence of the statement is being consumed.
func (s *Statement) SetFetchArraySize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidArraySize, n)
	}
	if s.rows != nil {
		if s.rows.inProgress() {
			return ErrFetchInProgress
		}
		if !s.rows.state.terminal() {
			s.rows.buf.size = n
		}
	}
	s.arraySize = n
	return nil
}

// Bind encodes value into the slot at zero-based position pos.
func (s *Statement) Bind(pos int, value any) error {
	if s.closed {
		return ErrStatementClosed
	}
	if _, err := s.binds.Slot(pos); err != nil {
		return err
	}
	cell, err := Encode(value)
	if err != nil {
		return fmt.Errorf("bind position %d: %w", pos, err)
	}
	return s.binds.Set(pos, cell)
}

// BindNamed encodes value into the slot of the named bind variable.
func (s *Statement) BindNamed(name string, value any) error {
	if s.closed {
		return ErrStatementClosed
	}
	pos, err := s.binds.Resolve(name)
	if err != nil {
		return err
	}
	cell, err := Encode(value)
	if err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	return s.binds.Set(pos, cell)
}

// ClearBinds resets every bind slot to NULL.
func (s *Statement) ClearBinds() {
	s.binds.Clear()
}

// Execute binds args by position and runs the statement. Slots not covered
// by args keep their current values. When an argument cannot be encoded no
// slot is changed.
func (s *Statement) Execute(ctx context.Context, args ...any) error {
	if s.closed {
		return ErrStatementClosed
	}
	if len(args) > s.binds.Len() {
		return fmt.Errorf("%w: %d arguments for %d bind variables", ErrNoSuchBindVariable, len(args), s.binds.Len())
	}
	cells := make([]any, len(args))
	for i, a := range args {
		cell, err := Encode(a)
		if err != nil {
			return fmt.Errorf("bind position %d: %w", i, err)
		}
		cells[i] = cell
	}
	for i, cell := range cells {
		if err := s.binds.Set(i, cell); err != nil {
			return err
		}
	}
	return s.execute(ctx)
}

// ExecuteNamed binds args by name and runs the statement. When a name is
// unknown or a value cannot be encoded no slot is changed.
func (s *Statement) ExecuteNamed(ctx context.Context, args ...NamedArg) error {
	if s.closed {
		return ErrStatementClosed
	}
	pos := make([]int, len(args))
	cells := make([]any, len(args))
	for i, a := range args {
		idx, err := s.binds.Resolve(a.Name)
		if err != nil {
			return err
		}
		cell, err := Encode(a.Value)
		if err != nil {
			return fmt.Errorf("bind %s: %w", a.Name, err)
		}
		pos[i], cells[i] = idx, cell
	}
	for i, cell := range cells {
		if err := s.binds.Set(pos[i], cell); err != nil {
			return err
		}
	}
	return s.execute(ctx)
}

// Query executes the statement with positional binds and returns its rows.
// Statements that produce no rows return an empty sequence.
func (s *Statement) Query(ctx context.Context, args ...any) (*Rows, error) {
	if err := s.Execute(ctx, args...); err != nil {
		return nil, err
	}
	return s.rows, nil
}

// QueryNamed executes the statement with named binds and returns its rows.
func (s *Statement) QueryNamed(ctx context.Context, args ...NamedArg) (*Rows, error) {
	if err := s.ExecuteNamed(ctx, args...); err != nil {
		return nil, err
	}
	return s.rows, nil
}

// QueryRow executes the statement and returns its first row detached from
// the fetch buffer. It fails with ErrNoDataFound when there is no row.
func (s *Statement) QueryRow(ctx context.Context, args ...any) (*Row, error) {
	rows, err := s.Query(ctx, args...)
	if err != nil {
		return nil, err
	}
	return firstRow(ctx, rows)
}

// QueryRowNamed is QueryRow with named binds.
func (s *Statement) QueryRowNamed(ctx context.Context, args ...NamedArg) (*Row, error) {
	rows, err := s.QueryNamed(ctx, args...)
	if err != nil {
		return nil, err
	}
	return firstRow(ctx, rows)
}

// Fetch returns the next row of the current execution, or io.EOF.
func (s *Statement) Fetch(ctx context.Context) (*Row, error) {
	if s.rows == nil {
		return nil, io.EOF
	}
	return s.rows.Next(ctx)
}

// RowsAffected returns the number of rows changed by the last execution.
func (s *Statement) RowsAffected() int64 {
	if !s.executed {
		return 0
	}
	return s.cursor.RowsAffected()
}

// Close releases the engine cursor. Rows of the statement become invalid.
func (s *Statement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.rows != nil {
		s.rows.supersede()
	}
	s.log.Debug("closed")
	return s.cursor.Close()
}

func (s *Statement) execute(ctx context.Context) error {
	if s.closed {
		return ErrStatementClosed
	}
	if s.rows != nil {
		s.rows.supersede()
		s.rows = nil
	}
	s.executed = false

	for _, slot := range s.binds.slots {
		if err := s.driver.Bind(ctx, s.cursor, slot.Index, slot.Value); err != nil {
			return errors.Join(ErrEngine, fmt.Errorf("bind %s: %w", slot.Name, err))
		}
	}
	if err := s.driver.Execute(ctx, s.cursor); err != nil {
		s.log.Debug("execute failed", "error", err)
		return errors.Join(ErrEngine, err)
	}
	s.executed = true

	cols := s.cursor.Columns()
	s.rows = newRows(newFetchBuffer(s.driver, s.cursor, s.arraySize), cols, s.log)
	s.log.Debug("executed", "columns", len(cols), "array_size", s.arraySize)
	return nil
}

func firstRow(ctx context.Context, rows *Rows) (*Row, error) {
	defer rows.Close()
	row, err := rows.Next(ctx)
	if errors.Is(err, io.EOF) {
		return nil, ErrNoDataFound
	}
	if err != nil {
		return nil, err
	}
	return row.Detach()
}

// QueryAs executes stmt with positional binds and decodes every row into a T.
func QueryAs[T any](ctx context.Context, stmt *Statement, args ...any) (*TypedRows[T], error) {
	rows, err := stmt.Query(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &TypedRows[T]{rows: rows}, nil
}

// QueryAsNamed executes stmt with named binds and decodes every row into a T.
func QueryAsNamed[T any](ctx context.Context, stmt *Statement, args ...NamedArg) (*TypedRows[T], error) {
	rows, err := stmt.QueryNamed(ctx, args...)
	if err != nil {
		return nil, err
	}
	return &TypedRows[T]{rows: rows}, nil
}

// QueryRowAs executes stmt and decodes its first row into a T.
func QueryRowAs[T any](ctx context.Context, stmt *Statement, args ...any) (T, error) {
	var zero T
	row, err := stmt.QueryRow(ctx, args...)
	if err != nil {
		return zero, err
	}
	return RowAs[T](row)
}

// QueryRowAsNamed is QueryRowAs with named binds.
func QueryRowAsNamed[T any](ctx context.Context, stmt *Statement, args ...NamedArg) (T, error) {
	var zero T
	row, err := stmt.QueryRowNamed(ctx, args...)
	if err != nil {
		return zero, err
	}
	return RowAs[T](row)
}
