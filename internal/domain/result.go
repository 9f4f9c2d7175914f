package domain

import "time"

// CancelledMessage is the fixed user-facing message reported for any query
// that ends due to cancellation, whether requested locally or recognized by
// the server's query_canceled error code.
const CancelledMessage = "Query cancelled."

// DefaultRowLimit caps the number of rows returned to the client from a
// single ad-hoc query.
const DefaultRowLimit = 10000

// QueryError is a database failure normalized into a structured form.
type QueryError struct {
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Position string `json:"position,omitempty"`
}

func (e *QueryError) Error() string { return e.Message }

// QueryResult holds the structured outcome of one ad-hoc SQL execution.
//
// Invariants:
//   - Truncated implies len(Rows) == the configured row limit.
//   - Cancelled implies Err.Message == CancelledMessage.
//   - Err != nil implies len(Rows) == 0.
type QueryResult struct {
	SQL       string                   `json:"sql"`
	Columns   []string                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	RowCount  int                      `json:"rowCount"`
	Duration  time.Duration            `json:"-"`
	ElapsedMs int64                    `json:"elapsedMs"`
	Truncated bool                     `json:"truncated"`
	Cancelled bool                     `json:"cancelled"`
	Err       *QueryError              `json:"error,omitempty"`
}

// QueryStatus is the terminal status of a recorded query execution.
type QueryStatus string

// Query execution statuses as recorded in history.
const (
	QueryStatusOK        QueryStatus = "OK"
	QueryStatusError     QueryStatus = "ERROR"
	QueryStatusCancelled QueryStatus = "CANCELLED"
)

// Status derives the history status from the result flags.
func (r *QueryResult) Status() QueryStatus {
	switch {
	case r.Cancelled:
		return QueryStatusCancelled
	case r.Err != nil:
		return QueryStatusError
	default:
		return QueryStatusOK
	}
}
