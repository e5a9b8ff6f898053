// Package http exposes the cost-governance pipeline over HTTP.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/costgate/costgate/internal/domain"
	"github.com/costgate/costgate/internal/port/llm"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body", "")
		}
		return v, false
	}
	return v, true
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

// writePipelineError maps a pipeline failure to its HTTP-equivalent
// severity. Provider auth/availability problems are upstream-dependency
// failures, not caller-input failures. The message is already
// first-line-trimmed by the orchestrator; no internal detail leaks.
func writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "not_found")
	default:
		kind := llm.Classify(err)
		switch kind {
		case llm.KindAuth, llm.KindUnavailable:
			writeError(w, http.StatusBadGateway, firstLine(err.Error()), string(kind))
		case llm.KindRateLimited:
			writeError(w, http.StatusServiceUnavailable, firstLine(err.Error()), string(kind))
		default:
			slog.Error("request failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error", string(llm.KindInternal))
		}
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
