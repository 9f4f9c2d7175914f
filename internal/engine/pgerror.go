package engine

import (
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"gridsync/internal/domain"
)

// normalizeError converts a raw driver failure into the structured form
// surfaced to callers. Non-Postgres failures (network errors, context
// cancellation in the driver) keep their message and carry no code.
func normalizeError(err error) *domain.QueryError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		out := &domain.QueryError{
			Message: pgErr.Message,
			Code:    pgErr.Code,
			Detail:  pgErr.Detail,
		}
		if pgErr.Position > 0 {
			out.Position = strconv.Itoa(int(pgErr.Position))
		}
		return out
	}
	return &domain.QueryError{Message: err.Error()}
}
