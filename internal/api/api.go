// Package api exposes the engine and grid over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridsync/internal/grid"
	"gridsync/internal/service"
)

// Handler holds the services behind the HTTP surface.
type Handler struct {
	query    *service.QueryService
	registry *grid.Registry
	pageSize int
	logger   *slog.Logger
}

// NewHandler creates a Handler. pageSize is the default table page size
// used when a client opens a session without one.
func NewHandler(query *service.QueryService, registry *grid.Registry, pageSize int, logger *slog.Logger) *Handler {
	if pageSize <= 0 {
		pageSize = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{query: query, registry: registry, pageSize: pageSize, logger: logger}
}

func (h *Handler) defaultPageSize() int { return h.pageSize }

// Routes mounts all v1 endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/query", h.RunQuery)
	r.Post("/query/{id}/cancel", h.CancelQuery)
	r.Get("/history", h.ListHistory)

	r.Post("/sessions", h.OpenSession)
	r.Get("/sessions/{id}", h.GetSession)
	r.Post("/sessions/{id}/command", h.SessionCommand)
	r.Patch("/sessions/{id}/cells", h.SetCell)
	r.Post("/sessions/{id}/rows", h.AddRow)
	r.Delete("/sessions/{id}", h.CloseSession)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
