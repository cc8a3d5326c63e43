package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/database/postgres"
	"github.com/joacominatel/minastmt/internal/logging"
	"github.com/joacominatel/minastmt/internal/statement"
)

// ErrIntrospectionUnsupported is returned by the schema helpers when the
// driver cannot describe the schema.
var ErrIntrospectionUnsupported = errors.New("driver does not support introspection")

// NewDriver returns the adapter registered under name.
func NewDriver(name string) (database.Driver, error) {
	switch strings.ToLower(name) {
	case "", "postgres", "postgresql", "pgx":
		return postgres.New(), nil
	default:
		return nil, &ErrConfig{Cause: fmt.Errorf("unknown driver %q", name)}
	}
}

// Service coordinates application-level operations between the front-ends
// and the statement core.
type Service struct {
	driver    database.Driver
	dsn       string
	arraySize int
	log       *slog.Logger
}

// NewService creates a new application service.
func NewService(driver database.Driver) *Service {
	return &Service{
		driver:    driver,
		arraySize: statement.DefaultFetchArraySize,
		log:       logging.WithComponent("app"),
	}
}

// SetFetchArraySize sets the fetch array size given to every statement
// prepared afterwards. Values below one are ignored.
func (s *Service) SetFetchArraySize(n int) {
	if n > 0 {
		s.arraySize = n
	}
}

// FetchArraySize returns the fetch array size for new statements.
func (s *Service) FetchArraySize() int {
	return s.arraySize
}

// Connect establishes a database connection.
func (s *Service) Connect(ctx context.Context, dsn string) error {
	if err := s.driver.Connect(ctx, dsn); err != nil {
		return &ErrConnection{Cause: err}
	}
	s.dsn = dsn
	s.log.Info("connected", "database", s.driver.DatabaseName())
	return nil
}

// Disconnect closes the database connection.
func (s *Service) Disconnect() error {
	return s.driver.Close()
}

// DatabaseName returns the current database name.
func (s *Service) DatabaseName() string {
	return s.driver.DatabaseName()
}

// Prepare prepares text with the service's fetch array size.
func (s *Service) Prepare(ctx context.Context, text string) (*statement.Statement, error) {
	stmt, err := statement.Prepare(ctx, s.driver, text, statement.WithFetchArraySize(s.arraySize))
	if err != nil {
		return nil, &ErrQuery{Stage: StagePrepare, Query: text, Cause: err}
	}
	return stmt, nil
}

// Run executes stmt with named binds and returns an Execution to page
// through its rows.
func (s *Service) Run(ctx context.Context, stmt *statement.Statement, binds ...statement.NamedArg) (*Execution, error) {
	start := time.Now()
	rows, err := stmt.QueryNamed(ctx, binds...)
	if err != nil {
		return nil, &ErrQuery{Stage: StageExecute, Query: stmt.SQL(), Cause: err}
	}

	cols := rows.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	e := &Execution{
		Statement:    stmt,
		Columns:      names,
		RowsAffected: stmt.RowsAffected(),
		Duration:     time.Since(start),
		rows:         rows,
	}
	if len(cols) == 0 {
		e.done = true
	}
	s.log.Debug("statement run", "stmt_id", stmt.ID(), "kind", stmt.StatementType().String(),
		"columns", len(cols), "rows_affected", e.RowsAffected, "duration", e.Duration)
	return e, nil
}

// Execution is one run of a statement seen as a sequence of pages.
type Execution struct {
	Statement    *statement.Statement
	Columns      []string
	RowsAffected int64
	Duration     time.Duration

	rows    *statement.Rows
	fetched int
	done    bool
}

// Page is a run of consecutive rows of an Execution.
type Page struct {
	Columns []string
	// Rows holds raw cells; nil cells are SQL NULL.
	Rows [][]any
	// Offset is the zero-based position of the first row in the result.
	Offset int
	// Done reports that the result has no rows beyond this page.
	Done bool
}

// Done reports whether every row was delivered.
func (e *Execution) Done() bool {
	return e.done
}

// Fetched returns the number of rows delivered so far.
func (e *Execution) Fetched() int {
	return e.fetched
}

// NextPage returns up to size rows. A page shorter than size, or an empty
// page, means the result is exhausted.
func (e *Execution) NextPage(ctx context.Context, size int) (*Page, error) {
	page := &Page{Columns: e.Columns, Offset: e.fetched}
	if e.done {
		page.Done = true
		return page, nil
	}

	for len(page.Rows) < size {
		row, err := e.rows.Next(ctx)
		if errors.Is(err, io.EOF) {
			e.done = true
			break
		}
		if err != nil {
			e.done = true
			return page, &ErrQuery{Stage: StageFetch, Query: e.Statement.SQL(), Cause: err}
		}
		vals, err := row.Values()
		if err != nil {
			e.done = true
			return page, &ErrQuery{Stage: StageFetch, Query: e.Statement.SQL(), Cause: err}
		}
		page.Rows = append(page.Rows, vals)
	}

	e.fetched += len(page.Rows)
	page.Done = e.done
	return page, nil
}

// All drains the remaining rows into one page.
func (e *Execution) All(ctx context.Context) (*Page, error) {
	page := &Page{Columns: e.Columns, Offset: e.fetched}
	for !e.done {
		next, err := e.NextPage(ctx, e.Statement.FetchArraySize())
		page.Rows = append(page.Rows, next.Rows...)
		if err != nil {
			return page, err
		}
	}
	page.Done = true
	return page, nil
}

// Close ends the execution early.
func (e *Execution) Close() {
	e.done = true
	e.rows.Close()
}

// LoadTables lists the tables of the connected database.
func (s *Service) LoadTables(ctx context.Context) ([]string, error) {
	in, ok := s.driver.(database.Introspector)
	if !ok {
		return nil, ErrIntrospectionUnsupported
	}
	return in.ListTables(ctx)
}

// LoadColumns fetches column metadata for a specific table.
func (s *Service) LoadColumns(ctx context.Context, table string) ([]database.Column, error) {
	in, ok := s.driver.(database.Introspector)
	if !ok {
		return nil, ErrIntrospectionUnsupported
	}
	return in.GetColumns(ctx, table)
}
