package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/observability"
)

// readErrorBackoff is the pause after a failed fetch before retrying.
const readErrorBackoff = time.Second

// MessageReader is the subset of *kafka.Reader used by the Listener.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Summarizer runs one summarize request.
type Summarizer interface {
	Summarize(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResult, error)
}

// ListenerConfig holds configuration for the request listener.
type ListenerConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the requests topic.
	Topic string
	// GroupID is the consumer group ID.
	GroupID string
}

// Listener consumes summary.requested events and runs them through the
// pipeline, one at a time. A message is committed once it was handled,
// whether or not the pipeline succeeded; failures are reported by the
// pipeline's own summary.failed event.
type Listener struct {
	reader  MessageReader
	service Summarizer
	logger  zerolog.Logger
	backoff time.Duration
}

// NewListener creates a Listener backed by a kafka-go Reader.
func NewListener(cfg ListenerConfig, service Summarizer, logger zerolog.Logger) *Listener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
	return NewListenerWithReader(reader, service, logger)
}

// NewListenerWithReader creates a Listener over an existing reader.
func NewListenerWithReader(reader MessageReader, service Summarizer, logger zerolog.Logger) *Listener {
	return &Listener{
		reader:  reader,
		service: service,
		logger:  logger.With().Str("component", "request_listener").Logger(),
		backoff: readErrorBackoff,
	}
}

// Run starts the listener loop. Blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info().Msg("starting request listener")

	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info().Msg("request listener stopped via context cancellation")
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("failed to read message from Kafka")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.backoff):
			}
			continue
		}

		l.logger.Debug().
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("received request event")

		if err := l.handle(ctx, msg); err != nil {
			l.logger.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("failed to handle request event")
		}

		if err := l.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error().Err(err).
				Int64("offset", msg.Offset).
				Msg("failed to commit message")
		}
	}
}

// handle decodes one message and runs the request. Messages of other event
// types are skipped.
func (l *Listener) handle(ctx context.Context, msg kafka.Message) error {
	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if event.EventType != domain.EventTypeSummaryRequested {
		l.logger.Debug().Str("event_type", event.EventType).Msg("skipping event")
		return nil
	}

	var payload domain.SummaryRequestedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", event.EventType, err)
	}

	requestID := payload.RequestID
	if requestID == "" {
		requestID = event.EventID
	}
	correlationID := event.CorrelationID
	if correlationID == "" {
		correlationID = requestID
	}

	ctx = observability.WithRequestID(ctx, requestID)
	ctx = observability.WithCorrelationID(ctx, correlationID)

	result, err := l.service.Summarize(ctx, payload.Request)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			l.logger.Warn().Err(err).Str("request_id", requestID).Msg("rejected invalid request")
			return nil
		}
		return fmt.Errorf("summarize request %s: %w", requestID, err)
	}

	l.logger.Info().
		Str("request_id", requestID).
		Int("paper_count", len(result.Papers)).
		Float64("overall", result.Eval.Overall).
		Msg("request summarized")
	return nil
}

// Close closes the Kafka reader.
func (l *Listener) Close() error {
	l.logger.Info().Msg("closing request listener")
	return l.reader.Close()
}
