package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/observability"
	"github.com/helixir/review-synthesis-service/internal/report"
)

// maxRequestBodySize is the 1 MB limit for request bodies.
const maxRequestBodySize = 1 << 20

// errBodyTooLarge is returned by decodeBody for oversized bodies.
var errBodyTooLarge = errors.New("request body too large")

// summarize handles POST /api/v1/summarize and its /summarize alias.
// Degraded reviews are still returned with 200; only invalid input and
// unreachable sources are errors.
func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	var req domain.SummarizeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.Summarize(r.Context(), req)
	if err != nil {
		logger := observability.LoggerWithContext(r.Context(), s.logger)
		logger.Warn().Err(err).Msg("summarize request failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// evaluate handles POST /api/v1/evaluate. It re-scores an existing review
// against its papers.
func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{Eval: s.service.Evaluate(req.Summary, req.Papers)})
}

// renderReport handles POST /api/v1/report?format=. The body is a
// summarize result.
func (s *Server) renderReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var result domain.SummarizeResult
	if !s.decodeBody(w, r, &result) {
		return
	}

	body, err := report.Render(&result, format)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// decodeBody reads a size-limited JSON body into v, writing a 4xx response
// and returning false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) > maxRequestBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

// writeValidationError reports the first failed field of a struct
// validation as a 400.
func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		writeError(w, http.StatusBadRequest, domain.NewValidationError(verrs[0].Namespace(), "failed "+verrs[0].Tag()+" validation").Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid input")
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to
// clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported format")
	case errors.Is(err, domain.ErrNoSources):
		writeError(w, http.StatusBadRequest, "no usable paper sources")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
