package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridsync/internal/domain"
)

type openSessionRequest struct {
	Table     string `json:"table"`
	PageSize  int    `json:"pageSize,omitempty"`
	PageIndex int    `json:"pageIndex,omitempty"`
}

type openSessionResponse struct {
	ID    string `json:"id"`
	State any    `json:"state"`
}

// OpenSession starts a table-edit session, replacing any previous one.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if req.PageSize <= 0 {
		req.PageSize = h.defaultPageSize()
	}

	id, s, err := h.registry.Open(r.Context(), req.Table, req.PageSize, req.PageIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, openSessionResponse{ID: id, State: s.State()})
}

// GetSession returns the current grid state.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

type commandResponse struct {
	Save  *domain.SaveResult `json:"save,omitempty"`
	State any                `json:"state"`
}

// SessionCommand dispatches one closed-protocol command (save, refresh,
// page, cancel) to the session. Unrecognized commands are rejected.
func (h *Handler) SessionCommand(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, domain.ErrValidation("read request body: %v", err))
		return
	}
	cmd, err := domain.DecodeCommand(body)
	if err != nil {
		writeError(w, err)
		return
	}

	save, err := s.HandleCommand(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Save: save, State: s.State()})
}

type setCellRequest struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
	Null  bool   `json:"null"`
}

// SetCell applies one cell edit to the working copy.
func (h *Handler) SetCell(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req setCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if err := s.SetCell(req.Row, req.Col, req.Value, req.Null); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

type addRowResponse struct {
	Row   int `json:"row"`
	State any `json:"state"`
}

// AddRow appends an empty new row to the working grid.
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	row := s.AddRow()
	writeJSON(w, http.StatusOK, addRowResponse{Row: row, State: s.State()})
}

// CloseSession disposes the session.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
