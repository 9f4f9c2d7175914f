// Package testutil provides shared fakes for unit tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"gridsync/internal/domain"
	"gridsync/internal/pool"
)

// MockProvider implements pool.Provider with pluggable behavior.
type MockProvider struct {
	CheckoutFn func(ctx context.Context) (pool.Conn, error)
	QueryFn    func(ctx context.Context, sql string, args ...interface{}) (*pool.Result, error)
	ExecFn     func(ctx context.Context, sql string, args ...interface{}) (int64, error)

	mu          sync.Mutex
	PoolQueries []string
}

func (m *MockProvider) Checkout(ctx context.Context) (pool.Conn, error) {
	if m.CheckoutFn == nil {
		return nil, fmt.Errorf("checkout not configured")
	}
	return m.CheckoutFn(ctx)
}

func (m *MockProvider) Query(ctx context.Context, sql string, args ...interface{}) (*pool.Result, error) {
	m.mu.Lock()
	m.PoolQueries = append(m.PoolQueries, sql)
	m.mu.Unlock()
	if m.QueryFn == nil {
		return &pool.Result{}, nil
	}
	return m.QueryFn(ctx, sql, args...)
}

func (m *MockProvider) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	if m.ExecFn == nil {
		return 0, nil
	}
	return m.ExecFn(ctx, sql, args...)
}

func (m *MockProvider) Close() error { return nil }

// PoolQueryLog returns a copy of the out-of-band statements seen so far.
func (m *MockProvider) PoolQueryLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.PoolQueries...)
}

// MockConn implements pool.Conn. Release calls are counted so tests can
// assert the exactly-once release contract.
type MockConn struct {
	QueryFn func(ctx context.Context, sql string, args ...interface{}) (*pool.Result, error)
	ExecFn  func(ctx context.Context, sql string, args ...interface{}) (int64, error)
	BeginFn func(ctx context.Context) (pool.Tx, error)
	PID     int

	mu       sync.Mutex
	Releases int
	Queries  []string
}

func (m *MockConn) Query(ctx context.Context, sql string, args ...interface{}) (*pool.Result, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, sql)
	m.mu.Unlock()
	if m.QueryFn == nil {
		return &pool.Result{}, nil
	}
	return m.QueryFn(ctx, sql, args...)
}

func (m *MockConn) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	if m.ExecFn == nil {
		return 0, nil
	}
	return m.ExecFn(ctx, sql, args...)
}

func (m *MockConn) Begin(ctx context.Context) (pool.Tx, error) {
	if m.BeginFn == nil {
		return &MockTx{}, nil
	}
	return m.BeginFn(ctx)
}

func (m *MockConn) BackendPID() int { return m.PID }

func (m *MockConn) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Releases++
	return nil
}

// ReleaseCount returns how many times Release has been called.
func (m *MockConn) ReleaseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Releases
}

// QueryLog returns a copy of the statements executed on this connection.
func (m *MockConn) QueryLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Queries...)
}

// MockTx implements pool.Tx, recording every statement with its bound
// arguments.
type MockTx struct {
	ExecFn func(ctx context.Context, sql string, args ...interface{}) (int64, error)

	mu         sync.Mutex
	Statements []string
	Args       [][]interface{}
	Committed  bool
	RolledBack bool
}

func (m *MockTx) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	m.mu.Lock()
	m.Statements = append(m.Statements, sql)
	m.Args = append(m.Args, args)
	m.mu.Unlock()
	if m.ExecFn == nil {
		return 1, nil
	}
	return m.ExecFn(ctx, sql, args...)
}

func (m *MockTx) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Committed = true
	return nil
}

func (m *MockTx) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RolledBack = true
	return nil
}

// MockHistoryRepo collects history entries in memory.
type MockHistoryRepo struct {
	mu      sync.Mutex
	Entries []domain.QueryHistoryEntry
	Err     error
}

func (m *MockHistoryRepo) Insert(_ context.Context, entry *domain.QueryHistoryEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.Entries) + 1)
	m.Entries = append(m.Entries, *entry)
	return nil
}

func (m *MockHistoryRepo) List(_ context.Context, _ domain.QueryHistoryFilter) ([]domain.QueryHistoryEntry, int64, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.QueryHistoryEntry(nil), m.Entries...)
	return out, int64(len(out)), nil
}
