package database

import "context"

// Driver is the engine adapter the statement core runs on. It owns the
// physical connection and the engine-side cursors.
//
// Calls on one Cursor are issued sequentially by a single goroutine; a
// Driver must still be safe for concurrent use across different cursors.
type Driver interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, dsn string) error

	// Close closes the database connection.
	Close() error

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// Prepare parses statement text and returns a cursor for it. Bind
	// placeholders use the ":name" syntax.
	Prepare(ctx context.Context, text string) (Cursor, error)

	// Bind sets the value of the bind slot at ordinal (zero-based, in order
	// of first occurrence of each distinct name). A nil value binds NULL.
	Bind(ctx context.Context, cur Cursor, ordinal int, value any) error

	// Execute runs the prepared statement with the current bind values.
	// Any rows of a previous execution on the same cursor are discarded.
	Execute(ctx context.Context, cur Cursor) error

	// Fetch returns at most maxRows rows of the current execution. An empty
	// batch means the results are exhausted.
	Fetch(ctx context.Context, cur Cursor, maxRows int) ([]RawRow, error)

	// DatabaseName returns the name of the connected database.
	DatabaseName() string
}

// Cursor is an engine-side handle for one prepared statement.
type Cursor interface {
	// Columns describes the select list of the last execution. It is empty
	// for statements that do not return rows.
	Columns() []Column

	// RowsAffected returns the number of rows changed by the last execution.
	RowsAffected() int64

	// Close releases the engine resources of the cursor.
	Close() error
}

// Introspector is implemented by drivers that can describe the schema.
type Introspector interface {
	// ListTables returns all table names visible to the session.
	ListTables(ctx context.Context) ([]string, error)

	// GetColumns returns all columns for a table.
	GetColumns(ctx context.Context, table string) ([]Column, error)
}
