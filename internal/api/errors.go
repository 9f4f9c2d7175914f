package api

import (
	"errors"
	"net/http"

	"gridsync/internal/domain"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain error types to HTTP status codes and writes the
// standard error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var connErr *domain.ConnectionError
	var txErr *domain.TransactionError
	switch {
	case errors.As(err, &notFound):
		code = http.StatusNotFound
	case errors.As(err, &validation):
		code = http.StatusBadRequest
	case errors.As(err, &connErr):
		code = http.StatusServiceUnavailable
	case errors.As(err, &txErr):
		code = http.StatusConflict
	}

	writeJSON(w, code, errorResponse{Code: code, Message: err.Error()})
}
