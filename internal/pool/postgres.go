package pool

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresProvider implements Provider over a database/sql pool backed by
// the pgx stdlib driver. Dedicated-connection statements drop down to the
// native pgx connection so the engine sees the server's command tag and
// backend pid, neither of which database/sql exposes.
type PostgresProvider struct {
	db *sql.DB
}

// OpenPostgres opens a pooled Postgres connection source for the given DSN
// and verifies it with a ping.
func OpenPostgres(dsn string, maxOpen int) (*PostgresProvider, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresProvider{db: db}, nil
}

// Checkout takes a dedicated connection from the pool and records its
// backend process id for later out-of-band cancellation.
func (p *PostgresProvider) Checkout(ctx context.Context) (Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	c := &pgConn{conn: conn}
	if err := conn.Raw(func(dc interface{}) error {
		c.pid = int(dc.(*stdlib.Conn).Conn().PgConn().PID())
		return nil
	}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("resolve backend pid: %w", err)
	}
	return c, nil
}

// Query runs an out-of-band statement on the ambient pool.
func (p *PostgresProvider) Query(ctx context.Context, sqlText string, args ...interface{}) (*Result, error) {
	rows, err := p.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	return scanStdRows(rows)
}

// Exec runs an out-of-band statement on the ambient pool and returns the
// affected-row count.
func (p *PostgresProvider) Exec(ctx context.Context, sqlText string, args ...interface{}) (int64, error) {
	res, err := p.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close shuts down the underlying pool.
func (p *PostgresProvider) Close() error { return p.db.Close() }

type pgConn struct {
	conn *sql.Conn
	pid  int

	mu       sync.Mutex
	released bool
}

// Query executes one statement on the dedicated connection and buffers the
// result. Statements without a result set come back with empty Columns and
// the command tag's affected count.
func (c *pgConn) Query(ctx context.Context, sqlText string, args ...interface{}) (*Result, error) {
	var out *Result
	err := c.conn.Raw(func(dc interface{}) error {
		native := dc.(*stdlib.Conn).Conn()
		rows, err := native.Query(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		res, err := scanPgxRows(rows)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pgConn) Exec(ctx context.Context, sqlText string, args ...interface{}) (int64, error) {
	res, err := c.conn.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (c *pgConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (c *pgConn) BackendPID() int { return c.pid }

// Release returns the connection to the pool. Safe to call more than once;
// only the first call releases.
func (c *pgConn) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	return c.conn.Close()
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Exec(ctx context.Context, sqlText string, args ...interface{}) (int64, error) {
	res, err := t.tx.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (t *pgTx) Commit() error   { return t.tx.Commit() }
func (t *pgTx) Rollback() error { return t.tx.Rollback() }

// scanPgxRows buffers native pgx rows, keeping the command tag.
func scanPgxRows(rows pgx.Rows) (*Result, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var buf [][]interface{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		buf = append(buf, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Columns:  cols,
		Rows:     buf,
		Affected: rows.CommandTag().RowsAffected(),
	}, nil
}

// scanStdRows buffers database/sql rows for out-of-band pool statements.
func scanStdRows(rows *sql.Rows) (*Result, error) {
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var buf [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		buf = append(buf, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{Columns: cols, Rows: buf}, nil
}
