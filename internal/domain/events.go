package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants for summary lifecycle events.
const (
	EventTypeSummaryRequested = "summary.requested"
	EventTypeSummaryCompleted = "summary.completed"
	EventTypeSummaryFailed    = "summary.failed"
)

// Event is the envelope published to the events topic.
type Event struct {
	EventID       string          `json:"event_id"`
	EventVersion  int             `json:"event_version"`
	EventType     string          `json:"event_type"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewEvent creates an event with a fresh ID. The payload is JSON-serialized.
func NewEvent(eventType, correlationID string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:       uuid.New().String(),
		EventVersion:  1,
		EventType:     eventType,
		CorrelationID: correlationID,
		Payload:       payloadBytes,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// SummaryRequestedPayload is the payload of summary.requested events
// consumed by the worker.
type SummaryRequestedPayload struct {
	RequestID string           `json:"request_id"`
	Request   SummarizeRequest `json:"request"`
}

// SummaryCompletedPayload is the payload for summary.completed events.
type SummaryCompletedPayload struct {
	RequestID      string          `json:"request_id"`
	Query          string          `json:"query"`
	PaperCount     int             `json:"paper_count"`
	ResponseStatus string          `json:"response_status"`
	Eval           EvaluationScore `json:"eval"`
	Summary        SummaryDocument `json:"summary"`
	DurationMs     int64           `json:"duration_ms"`
}

// SummaryFailedPayload is the payload for summary.failed events.
type SummaryFailedPayload struct {
	RequestID string `json:"request_id"`
	Query     string `json:"query"`
	Error     string `json:"error"`
}
