package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryDocument_MarshalEmitsEmptyArrays(t *testing.T) {
	data, err := json.Marshal(SummaryDocument{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, len(SummaryFields))
	for _, key := range SummaryFields {
		v, ok := decoded[key]
		require.True(t, ok, key)
		assert.Equal(t, []any{}, v, key)
	}
}

func TestModelErrorDocument(t *testing.T) {
	doc := ModelErrorDocument("deadline exceeded")
	assert.Equal(t, []string{"Model error: deadline exceeded"}, doc.Paragraphs)
	for _, s := range NarrativeSections {
		assert.Empty(t, doc.Section(s))
		assert.NotNil(t, doc.Section(s))
	}
	assert.Equal(t, []TopPaper{}, doc.Top5Papers)
}

func TestSummaryDocument_Text(t *testing.T) {
	doc := SummaryDocument{Paragraphs: []string{"One.", "Two."}}
	assert.Equal(t, "One. Two.", doc.Text())
	assert.Equal(t, "", NewSummaryDocument().Text())
}

func TestSummaryDocument_Section(t *testing.T) {
	doc := SummaryDocument{
		KeyFindings:  []string{"k"},
		Limitations:  []string{"l"},
		FutureWork:   []string{"f"},
		Methods:      []string{"m"},
		WhatsNew:     []string{"w"},
		OpenProblems: []string{"o"},
	}
	for _, s := range NarrativeSections {
		assert.Len(t, doc.Section(s), 1, s)
	}
	assert.Nil(t, doc.Section(FieldParagraphs))
	assert.Nil(t, doc.Section("nope"))
}

func TestNewEvent(t *testing.T) {
	evt, err := NewEvent(EventTypeSummaryCompleted, "corr-1", SummaryCompletedPayload{Query: "q"})
	require.NoError(t, err)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, 1, evt.EventVersion)
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.WithinDuration(t, time.Now(), evt.CreatedAt, time.Minute)

	var payload SummaryCompletedPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "q", payload.Query)
}

func TestNewEvent_MarshalError(t *testing.T) {
	_, err := NewEvent(EventTypeSummaryFailed, "", make(chan int))
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	v := NewValidationError("query", "is required")
	assert.Equal(t, "validation error: query: is required", v.Error())
	assert.True(t, errors.Is(v, ErrInvalidInput))

	r := NewRateLimitError("arxiv", 2*time.Second)
	assert.True(t, errors.Is(r, ErrRateLimited))
	assert.Contains(t, r.Error(), "retry after 2s")

	cause := errors.New("boom")
	e := NewExternalAPIError("openalex", 503, "unavailable", cause)
	assert.Equal(t, "openalex API error (status 503): unavailable", e.Error())
	assert.True(t, errors.Is(e, cause))
}
