package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// Request and response types for JSON serialization.

type evaluateRequest struct {
	Summary domain.SummaryDocument `json:"summary"`
	Papers  []domain.Paper         `json:"papers" validate:"max=100,dive"`
}

type evaluateResponse struct {
	Eval domain.EvaluationScore `json:"eval"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}
