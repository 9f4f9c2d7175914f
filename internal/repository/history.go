// Package repository implements persistence over the SQLite history store.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gridsync/internal/domain"
)

// HistoryRepo stores query execution records.
type HistoryRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewHistoryRepo creates a HistoryRepo over a write pool and a read pool.
func NewHistoryRepo(writeDB, readDB *sql.DB) *HistoryRepo {
	return &HistoryRepo{writeDB: writeDB, readDB: readDB}
}

// Insert records one query execution.
func (r *HistoryRepo) Insert(ctx context.Context, entry *domain.QueryHistoryEntry) error {
	res, err := r.writeDB.ExecContext(ctx,
		`INSERT INTO query_history (sql_text, status, error_message, error_code, duration_ms, row_count, truncated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SQLText, string(entry.Status),
		nullString(entry.ErrorMessage), nullString(entry.ErrorCode),
		entry.DurationMs, entry.RowCount, boolInt(entry.Truncated),
	)
	if err != nil {
		return fmt.Errorf("insert query history: %w", err)
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

// List returns history entries matching the filter, newest first, plus
// the total match count for pagination.
func (r *HistoryRepo) List(ctx context.Context, filter domain.QueryHistoryFilter) ([]domain.QueryHistoryEntry, int64, error) {
	var conds []string
	var args []interface{}

	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *filter.To)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_history"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query history: %w", err)
	}

	query := `SELECT id, sql_text, status, error_message, error_code, duration_ms, row_count, truncated, created_at
		FROM query_history` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.QueryHistoryEntry
	for rows.Next() {
		var e domain.QueryHistoryEntry
		var status string
		var errMsg, errCode sql.NullString
		var truncated int
		if err := rows.Scan(&e.ID, &e.SQLText, &status, &errMsg, &errCode,
			&e.DurationMs, &e.RowCount, &truncated, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan query history: %w", err)
		}
		e.Status = domain.QueryStatus(status)
		e.Truncated = truncated != 0
		if errMsg.Valid {
			e.ErrorMessage = &errMsg.String
		}
		if errCode.Valid {
			e.ErrorCode = &errCode.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
