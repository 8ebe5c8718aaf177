package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		assert.Equal(t, "", RequestIDFromContext(context.Background()))
	})
}

func TestCorrelationIDContext(t *testing.T) {
	t.Run("stores and retrieves correlation ID", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "corr-456")
		assert.Equal(t, "corr-456", CorrelationIDFromContext(ctx))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
	})

	t.Run("independent of request ID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithCorrelationID(ctx, "corr-1")
		assert.Equal(t, "req-1", RequestIDFromContext(ctx))
		assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	})
}

func TestTraceSpanFromContext(t *testing.T) {
	t.Run("returns IDs of a valid span context", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		gotTrace, gotSpan := TraceSpanFromContext(ctx)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", gotTrace)
		assert.Equal(t, "00f067aa0ba902b7", gotSpan)
	})

	t.Run("returns empty strings without a span", func(t *testing.T) {
		gotTrace, gotSpan := TraceSpanFromContext(context.Background())
		assert.Empty(t, gotTrace)
		assert.Empty(t, gotSpan)
	})
}
