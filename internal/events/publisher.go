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

// Header keys set on every published message.
const (
	HeaderEventType = "event_type"
	HeaderSource    = "source"
)

// DefaultServiceName is the source header value when none is configured.
const DefaultServiceName = "review-synthesis-service"

// MessageWriter is the subset of *kafka.Writer used by the Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublisherConfig holds configuration for the event publisher.
type PublisherConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the events topic.
	Topic string
	// BatchSize is the maximum number of messages per batch.
	BatchSize int
	// BatchTimeout is the maximum wait for a batch to fill.
	BatchTimeout time.Duration
	// ServiceName is written to the source header.
	ServiceName string
}

// Publisher writes lifecycle events to Kafka.
type Publisher struct {
	writer  MessageWriter
	source  string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Publisher backed by a kafka-go Writer.
func NewPublisher(cfg PublisherConfig, logger zerolog.Logger, metrics *observability.Metrics) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(writer, cfg.ServiceName, logger, metrics)
}

// NewPublisherWithWriter creates a Publisher over an existing writer.
// metrics may be nil.
func NewPublisherWithWriter(writer MessageWriter, serviceName string, logger zerolog.Logger, metrics *observability.Metrics) *Publisher {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	return &Publisher{
		writer:  writer,
		source:  serviceName,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		metrics: metrics,
	}
}

// Publish writes one event. It blocks until the broker acknowledged the
// message or ctx is done.
func (p *Publisher) Publish(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return errors.New("event is required")
	}
	if event.EventType == "" {
		return errors.New("event_type is required")
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.metrics.RecordEventFailed(event.EventType)
		return fmt.Errorf("marshal event: %w", err)
	}

	key := event.CorrelationID
	if key == "" {
		key = event.EventID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.EventType)},
			{Key: HeaderSource, Value: []byte(p.source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.RecordEventFailed(event.EventType)
		return fmt.Errorf("write event %s: %w", event.EventType, err)
	}

	p.metrics.RecordEventPublished(event.EventType)
	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("correlation_id", event.CorrelationID).
		Msg("event published")
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	p.logger.Info().Msg("closing event publisher")
	return p.writer.Close()
}
