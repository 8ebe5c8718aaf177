package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureClass labels a failed completion call. The synthesis invoker makes
// exactly one attempt per request, so the class is only reported in the
// failure metrics and logs; nothing retries on it.
type FailureClass string

const (
	// FailureTransient covers failures a later request could avoid: no
	// response, rate limiting and provider-side errors (5xx, Anthropic 529).
	FailureTransient FailureClass = "transient"
	// FailurePermanent covers rejected requests (other 4xx) and errors that
	// did not come from a provider at all.
	FailurePermanent FailureClass = "permanent"
)

// APIError is a provider's rejection of a completion request.
// StatusCode is 0 when no HTTP response was received.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	// Type and Code are set when the provider returns a structured error
	// body. Code is kept for logging only.
	Type string
	Code string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s completion rejected (status %d, %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s completion rejected (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Class reports how the failure is labelled.
func (e *APIError) Class() FailureClass {
	switch {
	case e.StatusCode == 0,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= http.StatusInternalServerError:
		return FailureTransient
	default:
		return FailurePermanent
	}
}

// ClassifyFailure returns the class of err. Anything that does not wrap an
// APIError is permanent.
func ClassifyFailure(err error) FailureClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class()
	}
	return FailurePermanent
}
