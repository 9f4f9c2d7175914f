package domain

import "time"

// QueryHistoryEntry represents a single recorded query execution.
type QueryHistoryEntry struct {
	ID           int64
	SQLText      string
	Status       QueryStatus
	ErrorMessage *string
	ErrorCode    *string
	DurationMs   int64
	RowCount     int
	Truncated    bool
	CreatedAt    time.Time
}

// QueryHistoryFilter holds filter parameters for listing query history.
type QueryHistoryFilter struct {
	Status *QueryStatus
	From   *time.Time
	To     *time.Time
	Page   PageRequest
}
