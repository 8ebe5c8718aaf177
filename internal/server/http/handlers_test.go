package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/observability"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockService implements SummaryService for HTTP handler tests.
type mockService struct {
	summarizeFn func(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResult, error)
	evaluateFn  func(doc domain.SummaryDocument, papers []domain.Paper) domain.EvaluationScore
}

func (m *mockService) Summarize(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResult, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, req)
	}
	return &domain.SummarizeResult{Summary: domain.NewSummaryDocument()}, nil
}

func (m *mockService) Evaluate(doc domain.SummaryDocument, papers []domain.Paper) domain.EvaluationScore {
	if m.evaluateFn != nil {
		return m.evaluateFn(doc, papers)
	}
	return domain.EvaluationScore{}
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestHTTPServer creates a Server configured for testing with a mocked service.
func newTestHTTPServer(svc SummaryService) *Server {
	return NewServer(Config{Address: "127.0.0.1:0"}, svc, zerolog.Nop())
}

// serveHTTP dispatches a request through the test server's router and returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, r)
	return rr
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeJSON decodes a JSON response body into the given target.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func sampleResult() *domain.SummarizeResult {
	doc := domain.NewSummaryDocument()
	doc.Paragraphs = []string{"Diffusion models now lead image synthesis."}
	doc.KeyFindings = []string{"classifier-free guidance"}
	return &domain.SummarizeResult{
		Summary: doc,
		Eval:    domain.EvaluationScore{Coverage: 0.3, Depth: 0.5, Structure: 0.167, Overall: 0.32},
		Papers: []domain.Paper{{
			Title:    "Denoising Diffusion Probabilistic Models",
			Authors:  "Jonathan Ho, Ajay Jain, Pieter Abbeel",
			Abstract: "We present high quality image synthesis results.",
			URL:      "https://arxiv.org/abs/2006.11239",
			Year:     "2020",
			Source:   "arxiv",
		}},
		Metadata: &domain.RunMetadata{Query: "diffusion models"},
	}
}

// ---------------------------------------------------------------------------
// Tests: summarize
// ---------------------------------------------------------------------------

func TestSummarize_Success(t *testing.T) {
	var captured domain.SummarizeRequest
	var capturedRequestID string
	svc := &mockService{
		summarizeFn: func(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResult, error) {
			captured = req
			capturedRequestID = observability.RequestIDFromContext(ctx)
			return sampleResult(), nil
		},
	}
	srv := newTestHTTPServer(svc)

	rr := serveHTTP(srv, postJSON("/api/v1/summarize", `{"query":"diffusion models","n_papers":3,"sources":["arxiv","openalex"]}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Query != "diffusion models" || captured.NPapers != 3 || len(captured.Sources) != 2 {
		t.Errorf("unexpected request passed to service: %+v", captured)
	}
	if capturedRequestID == "" {
		t.Error("expected request ID in service context")
	}

	var resp domain.SummarizeResult
	decodeJSON(t, rr, &resp)
	if len(resp.Summary.Paragraphs) != 1 {
		t.Errorf("expected one paragraph, got %v", resp.Summary.Paragraphs)
	}
	if resp.Eval.Overall != 0.32 {
		t.Errorf("expected overall 0.32, got %v", resp.Eval.Overall)
	}
	if len(resp.Papers) != 1 {
		t.Errorf("expected one paper, got %d", len(resp.Papers))
	}
}

func TestSummarize_RootAlias(t *testing.T) {
	srv := newTestHTTPServer(&mockService{})

	rr := serveHTTP(srv, postJSON("/summarize", `{"query":"q"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]json.RawMessage
	decodeJSON(t, rr, &resp)
	for _, key := range []string{"summary", "eval", "papers"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("expected %q in response", key)
		}
	}
}

func TestSummarize_InvalidJSON(t *testing.T) {
	srv := newTestHTTPServer(&mockService{})

	rr := serveHTTP(srv, postJSON("/api/v1/summarize", `{"query":`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["error"] != "invalid JSON request body" {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}

func TestSummarize_BodyTooLarge(t *testing.T) {
	called := false
	srv := newTestHTTPServer(&mockService{
		summarizeFn: func(context.Context, domain.SummarizeRequest) (*domain.SummarizeResult, error) {
			called = true
			return nil, nil
		},
	})

	body := `{"query":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	rr := serveHTTP(srv, postJSON("/api/v1/summarize", body))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
	if called {
		t.Error("service must not be called for oversized bodies")
	}
}

func TestSummarize_ServiceErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"validation", domain.NewValidationError("query", "is required"), http.StatusBadRequest},
		{"all sources failed", fmt.Errorf("%w: all 1 paper sources failed", domain.ErrServiceUnavailable), http.StatusServiceUnavailable},
		{"only disabled sources", fmt.Errorf("%w: none of the 1 requested sources is registered and enabled", domain.ErrNoSources), http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestHTTPServer(&mockService{
				summarizeFn: func(context.Context, domain.SummarizeRequest) (*domain.SummarizeResult, error) {
					return nil, tc.err
				},
			})

			rr := serveHTTP(srv, postJSON("/api/v1/summarize", `{"query":"q"}`))
			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
		})
	}
}

func TestSummarize_ValidationMessage(t *testing.T) {
	srv := newTestHTTPServer(&mockService{
		summarizeFn: func(context.Context, domain.SummarizeRequest) (*domain.SummarizeResult, error) {
			return nil, domain.NewValidationError("n_papers", "must be at most 50")
		},
	})

	rr := serveHTTP(srv, postJSON("/api/v1/summarize", `{"query":"q","n_papers":99}`))

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["error"] != "validation error: n_papers: must be at most 50" {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}

// ---------------------------------------------------------------------------
// Tests: evaluate
// ---------------------------------------------------------------------------

func TestEvaluate_Success(t *testing.T) {
	var gotDoc domain.SummaryDocument
	var gotPapers []domain.Paper
	srv := newTestHTTPServer(&mockService{
		evaluateFn: func(doc domain.SummaryDocument, papers []domain.Paper) domain.EvaluationScore {
			gotDoc, gotPapers = doc, papers
			return domain.EvaluationScore{Coverage: 0.1, Depth: 0.2, Structure: 0.5, Overall: 0.25}
		},
	})

	body := `{"summary":{"paragraphs":["Some text."],"methods":["survey"]},"papers":[{"title":"T","abstract":"A"}]}`
	rr := serveHTTP(srv, postJSON("/api/v1/evaluate", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(gotDoc.Paragraphs) != 1 || len(gotDoc.Methods) != 1 {
		t.Errorf("summary not decoded: %+v", gotDoc)
	}
	if len(gotPapers) != 1 || gotPapers[0].Abstract != "A" {
		t.Errorf("papers not decoded: %+v", gotPapers)
	}

	var resp evaluateResponse
	decodeJSON(t, rr, &resp)
	if resp.Eval.Overall != 0.25 {
		t.Errorf("expected overall 0.25, got %v", resp.Eval.Overall)
	}
}

func TestEvaluate_RejectsUntitledPaper(t *testing.T) {
	srv := newTestHTTPServer(&mockService{})

	rr := serveHTTP(srv, postJSON("/api/v1/evaluate", `{"summary":{},"papers":[{"abstract":"A"}]}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Tests: report
// ---------------------------------------------------------------------------

func TestRenderReport_Formats(t *testing.T) {
	body, err := json.Marshal(sampleResult())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"markdown", "text/markdown; charset=utf-8", "# Literature review: diffusion models"},
		{"html", "text/html; charset=utf-8", "<h2>Key findings</h2>"},
		{"yaml", "application/yaml", "key_findings:"},
		{"", "application/json", `"key_findings"`},
	}

	srv := newTestHTTPServer(&mockService{})
	for _, tc := range tests {
		t.Run("format="+tc.format, func(t *testing.T) {
			rr := serveHTTP(srv, postJSON("/api/v1/report?format="+tc.format, string(body)))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if got := rr.Header().Get("Content-Type"); got != tc.contentType {
				t.Errorf("expected content type %q, got %q", tc.contentType, got)
			}
			if !strings.Contains(rr.Body.String(), tc.contains) {
				t.Errorf("expected body to contain %q", tc.contains)
			}
		})
	}
}

func TestRenderReport_UnsupportedFormat(t *testing.T) {
	srv := newTestHTTPServer(&mockService{})

	rr := serveHTTP(srv, postJSON("/api/v1/report?format=docx", `{}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["error"] != "unsupported format" {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}

// ---------------------------------------------------------------------------
// Tests: health
// ---------------------------------------------------------------------------

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestHTTPServer(&mockService{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected healthz 200, got %d", rr.Code)
	}

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected readyz 200, got %d", rr.Code)
	}

	srv.SetReady(false)
	rr = serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected readyz 503 after SetReady(false), got %d", rr.Code)
	}

	var resp healthResponse
	decodeJSON(t, rr, &resp)
	if resp.Status != "not_ready" {
		t.Errorf("expected status not_ready, got %q", resp.Status)
	}
}

func TestWriteDomainError_Mappings(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"validation error", domain.NewValidationError("query", "is required"), http.StatusBadRequest},
		{"unsupported format", domain.ErrUnsupportedFormat, http.StatusBadRequest},
		{"no sources", domain.ErrNoSources, http.StatusBadRequest},
		{"rate limited", domain.NewRateLimitError("arxiv", 0), http.StatusTooManyRequests},
		{"service unavailable", domain.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable},
		{"internal error", fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeDomainError(rr, tc.err)
			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
		})
	}
}
