// Package service wraps the engine and grid behind the operations the
// host layer exposes, recording query history along the way.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gridsync/internal/domain"
	"gridsync/internal/engine"
)

// HistoryRepository persists executed-query records.
type HistoryRepository interface {
	Insert(ctx context.Context, entry *domain.QueryHistoryEntry) error
	List(ctx context.Context, filter domain.QueryHistoryFilter) ([]domain.QueryHistoryEntry, int64, error)
}

// QueryService runs ad-hoc SQL through the executor, tracks in-flight
// queries so they can be cancelled by id, and records history.
type QueryService struct {
	executor *engine.Executor
	history  HistoryRepository
	logger   *slog.Logger

	running sync.Map // map[string]*engine.RunningQuery
}

// NewQueryService creates a QueryService. history may be nil, in which
// case recording is skipped.
func NewQueryService(executor *engine.Executor, history HistoryRepository, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{executor: executor, history: history, logger: logger}
}

// Execute runs sqlText to completion or cancellation and returns the
// structured result. The query is registered under queryID (a fresh uuid
// when empty) for the duration of execution so Cancel can reach it.
func (s *QueryService) Execute(ctx context.Context, queryID, sqlText string) (*domain.QueryResult, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, domain.ErrValidation("sql query is required")
	}
	if queryID == "" {
		queryID = uuid.NewString()
	}

	q, err := s.executor.Start(ctx, sqlText)
	if err != nil {
		return nil, err
	}

	s.running.Store(queryID, q)
	defer s.running.Delete(queryID)

	result := q.Wait()
	s.record(ctx, result)
	return result, nil
}

// Cancel dispatches an out-of-band cancellation for the query registered
// under id. Unknown or already-finished ids report false without error.
func (s *QueryService) Cancel(ctx context.Context, id string) (bool, error) {
	v, ok := s.running.Load(id)
	if !ok {
		return false, nil
	}
	return v.(*engine.RunningQuery).Cancel(ctx)
}

// History lists recorded query executions.
func (s *QueryService) History(ctx context.Context, filter domain.QueryHistoryFilter) ([]domain.QueryHistoryEntry, int64, error) {
	if s.history == nil {
		return nil, 0, nil
	}
	return s.history.List(ctx, filter)
}

// record persists one history entry. Best-effort: history failures are
// logged, never surfaced to the caller.
func (s *QueryService) record(ctx context.Context, result *domain.QueryResult) {
	if s.history == nil {
		return
	}
	entry := &domain.QueryHistoryEntry{
		SQLText:    result.SQL,
		Status:     result.Status(),
		DurationMs: result.ElapsedMs,
		RowCount:   result.RowCount,
		Truncated:  result.Truncated,
	}
	if result.Err != nil {
		msg := result.Err.Message
		entry.ErrorMessage = &msg
		if result.Err.Code != "" {
			code := result.Err.Code
			entry.ErrorCode = &code
		}
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		s.logger.Warn("record query history", "err", err)
	}
}
