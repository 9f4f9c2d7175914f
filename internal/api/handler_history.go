package api

import (
	"net/http"
	"strconv"
	"time"

	"gridsync/internal/domain"
)

type historyResponse struct {
	Entries       []historyEntry `json:"entries"`
	Total         int64          `json:"total"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

type historyEntry struct {
	ID         int64   `json:"id"`
	SQL        string  `json:"sql"`
	Status     string  `json:"status"`
	Error      *string `json:"error,omitempty"`
	ErrorCode  *string `json:"errorCode,omitempty"`
	DurationMs int64   `json:"durationMs"`
	RowCount   int     `json:"rowCount"`
	Truncated  bool    `json:"truncated"`
	CreatedAt  string  `json:"createdAt"`
}

// ListHistory returns recorded query executions, newest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	filter := domain.QueryHistoryFilter{
		Page: domain.PageRequest{PageToken: r.URL.Query().Get("pageToken")},
	}
	if v := r.URL.Query().Get("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, domain.ErrValidation("invalid maxResults %q", v))
			return
		}
		filter.Page.MaxResults = n
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.QueryStatus(v)
		filter.Status = &status
	}

	entries, total, err := h.query.History(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	out := historyResponse{
		Entries: make([]historyEntry, len(entries)),
		Total:   total,
		NextPageToken: domain.NextPageToken(
			filter.Page.Offset(), filter.Page.Limit(), total),
	}
	for i, e := range entries {
		out.Entries[i] = historyEntry{
			ID:         e.ID,
			SQL:        e.SQLText,
			Status:     string(e.Status),
			Error:      e.ErrorMessage,
			ErrorCode:  e.ErrorCode,
			DurationMs: e.DurationMs,
			RowCount:   e.RowCount,
			Truncated:  e.Truncated,
			CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, out)
}
