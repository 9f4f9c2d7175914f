// Package engine runs ad-hoc SQL statements to completion or cancellation,
// enforcing a returned-row limit and normalizing failures into structured
// errors.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gridsync/internal/domain"
	"gridsync/internal/pool"
)

// pgQueryCanceled is the server error code raised when a backend's running
// statement is terminated by pg_cancel_backend.
const pgQueryCanceled = "57014"

// Executor runs one statement per call on a dedicated pooled connection.
type Executor struct {
	provider pool.Provider
	rowLimit int
	logger   *slog.Logger
}

// NewExecutor creates an Executor with the given row limit. A limit of
// zero or less falls back to domain.DefaultRowLimit.
func NewExecutor(provider pool.Provider, rowLimit int, logger *slog.Logger) *Executor {
	if rowLimit <= 0 {
		rowLimit = domain.DefaultRowLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{provider: provider, rowLimit: rowLimit, logger: logger}
}

// RowLimit returns the configured returned-row cap.
func (e *Executor) RowLimit() int { return e.rowLimit }

// RunningQuery is one in-flight statement. Wait blocks until the result is
// available; Cancel may be called at any time, from any goroutine, any
// number of times.
type RunningQuery struct {
	executor *Executor
	sql      string
	conn     pool.Conn
	pid      int

	done   chan struct{}
	result *domain.QueryResult

	mu        sync.Mutex
	cancelled bool
}

// Start checks out a dedicated connection and begins executing sqlText on
// it in the background. The connection (rather than the pool's ambient
// entry point) is used so the statement's backend process id is known and
// stable for cancellation. Checkout failure is a ConnectionError.
func (e *Executor) Start(ctx context.Context, sqlText string) (*RunningQuery, error) {
	conn, err := e.provider.Checkout(ctx)
	if err != nil {
		return nil, domain.ErrConnection(err, "checkout connection: %v", err)
	}

	q := &RunningQuery{
		executor: e,
		sql:      sqlText,
		conn:     conn,
		pid:      conn.BackendPID(),
		done:     make(chan struct{}),
	}
	go q.run(ctx)
	return q, nil
}

// Run executes sqlText and blocks until the result is available.
func (e *Executor) Run(ctx context.Context, sqlText string) (*domain.QueryResult, error) {
	q, err := e.Start(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	return q.Wait(), nil
}

func (q *RunningQuery) run(ctx context.Context) {
	// Release exactly once, on every exit path, before done is observable.
	defer close(q.done)
	defer q.conn.Release() //nolint:errcheck

	start := time.Now()
	res, err := q.conn.Query(ctx, q.sql)
	elapsed := time.Since(start)

	out := &domain.QueryResult{
		SQL:       q.sql,
		Duration:  elapsed,
		ElapsedMs: elapsed.Milliseconds(),
		Columns:   []string{},
		Rows:      []map[string]interface{}{},
	}

	if err != nil {
		qerr := normalizeError(err)
		q.mu.Lock()
		requested := q.cancelled
		q.mu.Unlock()
		if requested || qerr.Code == pgQueryCanceled {
			qerr.Message = domain.CancelledMessage
			out.Cancelled = true
		}
		out.Err = qerr
		q.executor.logger.Debug("query failed",
			"code", qerr.Code, "cancelled", out.Cancelled, "elapsed", elapsed)
		q.result = out
		return
	}

	out.Columns = res.Columns
	out.RowCount = int(res.Affected)

	rows := res.Rows
	if len(rows) > q.executor.rowLimit {
		rows = rows[:q.executor.rowLimit]
		out.Truncated = true
	}
	out.Rows = make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		m := make(map[string]interface{}, len(res.Columns))
		for j, col := range res.Columns {
			m[col] = r[j]
		}
		out.Rows[i] = m
	}

	q.executor.logger.Debug("query completed",
		"rows", out.RowCount, "truncated", out.Truncated, "elapsed", elapsed)
	q.result = out
}

// Wait blocks until execution finishes and returns the result. Safe to
// call from multiple goroutines; every caller sees the same result.
func (q *RunningQuery) Wait() *domain.QueryResult {
	<-q.done
	return q.result
}

// Done exposes completion for select-based callers.
func (q *RunningQuery) Done() <-chan struct{} { return q.done }

// BackendPID reports the server backend executing this query.
func (q *RunningQuery) BackendPID() int { return q.pid }

// Cancel asks the server to terminate the backend process running this
// query. The request goes out-of-band on the pool, since the dedicated
// connection is busy awaiting the statement. The return value reflects
// only whether the cancellation request was dispatched, not whether the
// query actually stopped. Calling after the query has resolved is a
// benign no-op returning false.
func (q *RunningQuery) Cancel(ctx context.Context) (bool, error) {
	q.mu.Lock()
	q.cancelled = true
	q.mu.Unlock()

	select {
	case <-q.done:
		return false, nil
	default:
	}

	if _, err := q.executor.provider.Query(ctx, "SELECT pg_cancel_backend($1)", q.pid); err != nil {
		return false, err
	}
	return true, nil
}
