package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/registry"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// Error represents a structured error response.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// errorResponse is the envelope every error is written in.
type errorResponse struct {
	Error Error `json:"error"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeInterceptor    = "interceptor_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: Error{
		Code:      code,
		Message:   message,
		RequestID: requestIDFrom(r),
	}})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeRegistryError maps a registry or domain error onto a response.
// Unrecognised errors are logged and hidden behind a generic 500.
func (s *Server) writeRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shell.ErrNotFound), errors.Is(err, shell.ErrSubmodelRefNotFound):
		writeNotFound(w, r, err.Error())
	case errors.Is(err, shell.ErrExists), errors.Is(err, shell.ErrSubmodelRefExists):
		writeError(w, r, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, shell.ErrInvalid),
		errors.Is(err, shell.ErrIDMismatch),
		errors.Is(err, shell.ErrInvalidAssetKind):
		writeError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, paging.ErrInvalidLimit), errors.Is(err, paging.ErrInvalidCursor):
		writeBadRequest(w, r, err.Error())
	case errors.Is(err, registry.ErrInterceptor):
		// The mutation itself is committed at this point.
		s.logger.Error("post-commit interceptor failed", "error", err, "request_id", requestIDFrom(r))
		writeError(w, r, http.StatusInternalServerError, ErrCodeInterceptor, "change applied but downstream propagation failed")
	default:
		s.logger.Error("registry operation failed", "error", err, "path", r.URL.Path, "request_id", requestIDFrom(r))
		writeInternalError(w, r, "internal server error")
	}
}
