package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gridsync/internal/domain"
)

type runQueryRequest struct {
	SQL string `json:"sql"`
	// ID lets the client pick the handle used for cancellation. A fresh
	// uuid is assigned when absent and echoed in the response.
	ID string `json:"id,omitempty"`
}

type runQueryResponse struct {
	ID     string              `json:"id"`
	Result *domain.QueryResult `json:"result"`
}

// RunQuery executes one ad-hoc statement and blocks until it completes or
// is cancelled. Execution failures are reported inside the result rather
// than as an HTTP error, so the client always gets the structured form.
func (h *Handler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req runQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	result, err := h.query.Execute(r.Context(), req.ID, req.SQL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runQueryResponse{ID: req.ID, Result: result})
}

type cancelResponse struct {
	Dispatched bool `json:"dispatched"`
}

// CancelQuery dispatches an out-of-band cancellation for a running query.
// Cancelling an unknown or finished query is a benign no-op.
func (h *Handler) CancelQuery(w http.ResponseWriter, r *http.Request) {
	dispatched, err := h.query.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Dispatched: dispatched})
}
