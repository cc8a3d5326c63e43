package enginemock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/sqltext"
)

var (
	// ErrUnknownStatement is returned by Prepare for text without a handler.
	ErrUnknownStatement = errors.New("unknown statement")

	// ErrOperationFailed is returned when a failure is scripted without a custom error.
	ErrOperationFailed = errors.New("operation failed")

	// ErrNotConnected is returned by Ping before Connect.
	ErrNotConnected = errors.New("not connected")

	// ErrCursorClosed is returned for calls on a closed cursor.
	ErrCursorClosed = errors.New("cursor closed")
)

// Result is the scripted outcome of one execution.
type Result struct {
	Columns      []database.Column
	Rows         []database.RawRow
	RowsAffected int64
}

// Handler produces the result of executing a statement with the bind values
// in slot order.
type Handler func(binds []any) (*Result, error)

// Config represents the configuration for creating a Mock instance.
type Config struct {
	// Handlers maps exact statement text to its handler.
	Handlers map[string]Handler

	// Tables backs the Introspector methods.
	Tables map[string][]database.Column

	// Database is returned by DatabaseName.
	Database string

	// FailFetchAt makes the n-th fetch call (1-based) of every execution fail.
	FailFetchAt int

	// Error is the error to return for scripted failures.
	Error error
}

// Stats counts the calls the mock has served.
type Stats struct {
	Prepares   int
	Binds      int
	Executes   int
	Fetches    int
	FetchSizes []int
	// Executions holds the bind values of every execution in order.
	Executions [][]any
}

// Mock simulates a database engine from scripted handlers.
type Mock struct {
	mu        sync.Mutex
	cfg       Config
	connected bool
	stats     Stats
}

// New creates a new instance of the Mock based on the provided Config.
func New(cfg Config) *Mock {
	if cfg.Handlers == nil {
		cfg.Handlers = map[string]Handler{}
	}
	return &Mock{cfg: cfg}
}

// Handle registers or replaces the handler for text.
func (m *Mock) Handle(text string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Handlers[text] = h
}

// Stats returns a snapshot of the call counters.
func (m *Mock) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.FetchSizes = append([]int(nil), m.stats.FetchSizes...)
	s.Executions = append([][]any(nil), m.stats.Executions...)
	return s
}

// Connect marks the mock as connected. The DSN is ignored.
func (m *Mock) Connect(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

// Close disconnects the mock.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// Ping reports whether Connect was called.
func (m *Mock) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	return nil
}

// DatabaseName returns the configured database name.
func (m *Mock) DatabaseName() string {
	return m.cfg.Database
}

// Prepare looks up the handler for text.
func (m *Mock) Prepare(_ context.Context, text string) (database.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Prepares++

	h, ok := m.cfg.Handlers[text]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatement, text)
	}

	seen := map[string]bool{}
	for _, p := range sqltext.Placeholders(text) {
		seen[p.Name] = true
	}
	return &cursor{handler: h, binds: make([]any, len(seen))}, nil
}

// Bind stores value in the cursor's slot table.
func (m *Mock) Bind(_ context.Context, cur database.Cursor, ordinal int, value any) error {
	c, err := m.cursor(cur)
	if err != nil {
		return err
	}
	if ordinal < 0 || ordinal >= len(c.binds) {
		return fmt.Errorf("bind ordinal %d out of range [0,%d)", ordinal, len(c.binds))
	}

	m.mu.Lock()
	m.stats.Binds++
	m.mu.Unlock()

	c.binds[ordinal] = value
	return nil
}

// Execute runs the handler with the current binds.
func (m *Mock) Execute(_ context.Context, cur database.Cursor) error {
	c, err := m.cursor(cur)
	if err != nil {
		return err
	}

	binds := append([]any(nil), c.binds...)
	m.mu.Lock()
	m.stats.Executes++
	m.stats.Executions = append(m.stats.Executions, binds)
	m.mu.Unlock()

	res, err := c.handler(binds)
	if err != nil {
		c.result = nil
		return err
	}
	if res == nil {
		res = &Result{}
	}
	c.result = res
	c.pos = 0
	c.fetches = 0
	return nil
}

// Fetch returns the next window of at most maxRows rows.
func (m *Mock) Fetch(_ context.Context, cur database.Cursor, maxRows int) ([]database.RawRow, error) {
	c, err := m.cursor(cur)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.stats.Fetches++
	m.stats.FetchSizes = append(m.stats.FetchSizes, maxRows)
	m.mu.Unlock()

	if c.result == nil {
		return nil, errors.New("fetch before execute")
	}

	c.fetches++
	if m.cfg.FailFetchAt > 0 && c.fetches == m.cfg.FailFetchAt {
		if m.cfg.Error != nil {
			return nil, m.cfg.Error
		}
		return nil, ErrOperationFailed
	}

	end := c.pos + maxRows
	if end > len(c.result.Rows) {
		end = len(c.result.Rows)
	}
	batch := make([]database.RawRow, 0, end-c.pos)
	for _, r := range c.result.Rows[c.pos:end] {
		batch = append(batch, r.Clone())
	}
	c.pos = end
	return batch, nil
}

// ListTables returns the configured table names in sorted order.
func (m *Mock) ListTables(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.cfg.Tables))
	for name := range m.cfg.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetColumns returns the configured columns of table.
func (m *Mock) GetColumns(_ context.Context, table string) ([]database.Column, error) {
	cols, ok := m.cfg.Tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", table)
	}
	return cols, nil
}

func (m *Mock) cursor(cur database.Cursor) (*cursor, error) {
	c, ok := cur.(*cursor)
	if !ok {
		return nil, fmt.Errorf("foreign cursor %T", cur)
	}
	if c.closed {
		return nil, ErrCursorClosed
	}
	return c, nil
}

type cursor struct {
	handler Handler
	binds   []any
	result  *Result
	pos     int
	fetches int
	closed  bool
}

func (c *cursor) Columns() []database.Column {
	if c.result == nil {
		return nil
	}
	return c.result.Columns
}

func (c *cursor) RowsAffected() int64 {
	if c.result == nil {
		return 0
	}
	return c.result.RowsAffected
}

func (c *cursor) Close() error {
	c.closed = true
	return nil
}
