package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/observability"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func completedEvent(t *testing.T) *domain.Event {
	t.Helper()
	event, err := domain.NewEvent(domain.EventTypeSummaryCompleted, "corr-1", domain.SummaryCompletedPayload{
		RequestID: "req-1",
		Query:     "graph neural networks",
	})
	require.NoError(t, err)
	return event
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	event := completedEvent(t)
	metrics := observability.NewMetrics("events_test_publish")

	writer := new(mockWriter)
	writer.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		msg := msgs[0]
		var decoded domain.Event
		if err := json.Unmarshal(msg.Value, &decoded); err != nil {
			return false
		}
		return string(msg.Key) == "corr-1" &&
			decoded.EventID == event.EventID &&
			len(msg.Headers) == 2 &&
			msg.Headers[0].Key == HeaderEventType &&
			string(msg.Headers[0].Value) == domain.EventTypeSummaryCompleted &&
			string(msg.Headers[1].Value) == "synth-test"
	})).Return(nil)

	p := NewPublisherWithWriter(writer, "synth-test", newTestLogger(), metrics)
	require.NoError(t, p.Publish(ctx, event))

	writer.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(domain.EventTypeSummaryCompleted)))
}

func TestPublisher_KeyFallsBackToEventID(t *testing.T) {
	ctx := context.Background()
	event := completedEvent(t)
	event.CorrelationID = ""

	writer := new(mockWriter)
	writer.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return string(msgs[0].Key) == event.EventID && string(msgs[0].Headers[1].Value) == DefaultServiceName
	})).Return(nil)

	p := NewPublisherWithWriter(writer, "", newTestLogger(), nil)
	require.NoError(t, p.Publish(ctx, event))
	writer.AssertExpectations(t)
}

func TestPublisher_WriteError(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics("events_test_write_error")

	writer := new(mockWriter)
	writer.On("WriteMessages", ctx, mock.Anything).Return(errors.New("broker unavailable"))

	p := NewPublisherWithWriter(writer, "", newTestLogger(), metrics)
	err := p.Publish(ctx, completedEvent(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsFailed.WithLabelValues(domain.EventTypeSummaryCompleted)))
}

func TestPublisher_RejectsIncompleteEvents(t *testing.T) {
	writer := new(mockWriter)
	p := NewPublisherWithWriter(writer, "", newTestLogger(), nil)

	assert.Error(t, p.Publish(context.Background(), nil))
	assert.Error(t, p.Publish(context.Background(), &domain.Event{EventID: "x"}))
	writer.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestPublisher_Close(t *testing.T) {
	writer := new(mockWriter)
	writer.On("Close").Return(nil)

	p := NewPublisherWithWriter(writer, "", newTestLogger(), nil)
	require.NoError(t, p.Close())
	writer.AssertExpectations(t)
}
