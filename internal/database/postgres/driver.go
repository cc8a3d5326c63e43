package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joacominatel/minastmt/internal/database"
	"github.com/joacominatel/minastmt/internal/logging"
)

var errNotConnected = errors.New("not connected")

// Driver implements the database.Driver interface for PostgreSQL. Every
// cursor holds its own pooled connection for its lifetime, because the
// prepared statement and any open portal live on that connection.
type Driver struct {
	pool   *pgxpool.Pool
	dbName string
	log    *slog.Logger
}

// New creates a new PostgreSQL driver.
func New() *Driver {
	return &Driver{log: logging.WithComponent("postgres")}
}

// Connect establishes a connection pool to PostgreSQL.
func (d *Driver) Connect(ctx context.Context, dsn string) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}

	d.pool = pool
	d.dbName = cfg.ConnConfig.Database
	d.log.Debug("connected", "database", d.dbName, "host", cfg.ConnConfig.Host)
	return nil
}

// Close closes the connection pool.
func (d *Driver) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	if d.pool == nil {
		return errNotConnected
	}
	return d.pool.Ping(ctx)
}

// DatabaseName returns the name of the connected database.
func (d *Driver) DatabaseName() string {
	return d.dbName
}

// Prepare rewrites ":name" placeholders to "$n" and prepares the text on a
// dedicated connection under a unique name.
func (d *Driver) Prepare(ctx context.Context, text string) (database.Cursor, error) {
	if d.pool == nil {
		return nil, errNotConnected
	}

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire: %w", err)
	}

	sqlText, slots := rewriteBinds(text)
	name := "minastmt_" + uuid.NewString()
	sd, err := conn.Conn().Prepare(ctx, name, sqlText)
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("prepare: %w", err)
	}

	cur := &cursor{
		conn:    conn,
		name:    name,
		args:    make([]any, slots),
		query:   len(sd.Fields) > 0,
		columns: describe(conn.Conn(), sd.Fields),
	}
	d.log.Debug("prepared", "name", name, "params", len(sd.ParamOIDs), "fields", len(sd.Fields))
	return cur, nil
}

// Bind stores value for the parameter $ordinal+1.
func (d *Driver) Bind(_ context.Context, cur database.Cursor, ordinal int, value any) error {
	c, err := asCursor(cur)
	if err != nil {
		return err
	}
	if ordinal < 0 || ordinal >= len(c.args) {
		return fmt.Errorf("bind ordinal %d out of range [0,%d)", ordinal, len(c.args))
	}
	c.args[ordinal] = value
	return nil
}

// Execute runs the prepared statement. Row-returning statements open a
// result stream that Fetch reads from; others run to completion.
func (d *Driver) Execute(ctx context.Context, cur database.Cursor) error {
	c, err := asCursor(cur)
	if err != nil {
		return err
	}
	c.closeRows()
	c.affected = 0

	if !c.query {
		tag, err := c.conn.Exec(ctx, c.name, c.args...)
		if err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		c.affected = tag.RowsAffected()
		return nil
	}

	rows, err := c.conn.Query(ctx, c.name, c.args...)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	c.rows = rows
	return nil
}

// Fetch reads at most maxRows rows from the open result stream.
func (d *Driver) Fetch(_ context.Context, cur database.Cursor, maxRows int) ([]database.RawRow, error) {
	c, err := asCursor(cur)
	if err != nil {
		return nil, err
	}
	if c.rows == nil {
		return nil, nil
	}

	batch := make([]database.RawRow, 0, maxRows)
	for len(batch) < maxRows && c.rows.Next() {
		values, err := c.rows.Values()
		if err != nil {
			c.closeRows()
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(database.RawRow, len(values))
		for i, v := range values {
			row[i] = normalize(v)
		}
		batch = append(batch, row)
	}

	if len(batch) < maxRows {
		c.rows.Close()
		err := c.rows.Err()
		c.affected = c.rows.CommandTag().RowsAffected()
		c.rows = nil
		if err != nil {
			return nil, fmt.Errorf("rows: %w", err)
		}
	}
	return batch, nil
}

// cursor is one prepared statement on a pooled connection.
type cursor struct {
	conn     *pgxpool.Conn
	name     string
	args     []any
	query    bool
	columns  []database.Column
	rows     pgx.Rows
	affected int64
	closed   bool
}

func asCursor(cur database.Cursor) (*cursor, error) {
	c, ok := cur.(*cursor)
	if !ok {
		return nil, fmt.Errorf("foreign cursor %T", cur)
	}
	if c.closed {
		return nil, errors.New("cursor closed")
	}
	return c, nil
}

func (c *cursor) Columns() []database.Column {
	if !c.query {
		return nil
	}
	return c.columns
}

func (c *cursor) RowsAffected() int64 {
	return c.affected
}

// Close deallocates the prepared statement and returns the connection to
// the pool.
func (c *cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.closeRows()
	err := c.conn.Conn().Deallocate(context.Background(), c.name)
	c.conn.Release()
	if err != nil {
		return fmt.Errorf("deallocate: %w", err)
	}
	return nil
}

func (c *cursor) closeRows() {
	if c.rows != nil {
		c.rows.Close()
		c.rows = nil
	}
}

// describe maps field descriptions onto column metadata, naming types
// through the connection's type map.
func describe(conn *pgx.Conn, fields []pgconn.FieldDescription) []database.Column {
	cols := make([]database.Column, len(fields))
	for i, f := range fields {
		dataType := fmt.Sprintf("oid:%d", f.DataTypeOID)
		if t, ok := conn.TypeMap().TypeForOID(f.DataTypeOID); ok {
			dataType = t.Name
		}
		cols[i] = database.Column{
			Name:       f.Name,
			DataType:   dataType,
			IsNullable: true,
			OrdinalPos: i + 1,
		}
	}
	return cols
}

// ListTables returns the tables and views of the current schema.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	if d.pool == nil {
		return nil, errNotConnected
	}
	rows, err := d.pool.Query(ctx, queryListTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan table: %w", err)
	}
	return tables, nil
}

// GetColumns returns column metadata for a table of the current schema.
func (d *Driver) GetColumns(ctx context.Context, table string) ([]database.Column, error) {
	if d.pool == nil {
		return nil, errNotConnected
	}
	rows, err := d.pool.Query(ctx, queryGetColumns, table)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer rows.Close()

	var columns []database.Column
	for rows.Next() {
		var col database.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &col.OrdinalPos, &col.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsNullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
