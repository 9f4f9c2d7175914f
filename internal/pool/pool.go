// Package pool abstracts the pooled connection source the engine runs
// against. Each logical operation (one ad-hoc query, one edit-save
// transaction) checks out a dedicated connection for its whole duration;
// out-of-band statements such as cancellation signals and metadata probes
// go through the ambient pool entry points instead.
package pool

import "context"

// Result is one buffered statement outcome. Columns is empty for
// statements that produce no result set (plain DDL/DML), in which case
// Affected carries the engine-reported affected-row count.
type Result struct {
	Columns  []string
	Rows     [][]interface{}
	Affected int64
}

// Tx is an open transaction on a dedicated connection. One statement runs
// at a time; Commit or Rollback must be called exactly once.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (int64, error)
	Commit() error
	Rollback() error
}

// Conn is one checked-out connection. The caller owns it exclusively until
// Release, which is idempotent and must run on every exit path.
type Conn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (*Result, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (int64, error)
	Begin(ctx context.Context) (Tx, error)

	// BackendPID identifies the server backend process serving this
	// connection, for out-of-band cancellation. Zero when unknown.
	BackendPID() int

	Release() error
}

// Provider supplies connections and runs out-of-band statements on the
// pool's ambient multiplexing entry point.
type Provider interface {
	Checkout(ctx context.Context) (Conn, error)
	Query(ctx context.Context, sql string, args ...interface{}) (*Result, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (int64, error)
	Close() error
}
