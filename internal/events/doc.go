// Package events moves summary lifecycle events over Kafka.
//
// # Components
//
//   - Publisher: writes domain.Event envelopes to the events topic
//   - Listener: consumes summary.requested events and runs each request
//     through the summarize pipeline
//
// # Event Types
//
//   - summary.requested: a caller asks the worker for a review
//   - summary.completed: a review was produced (possibly degraded)
//   - summary.failed: the request could not be served, e.g. every paper
//     source failed
//
// Messages are keyed by correlation ID so that all events of one request
// land on the same partition. The event type is also carried in the
// "event_type" header for consumers that filter without decoding.
//
// # Usage
//
//	publisher := events.NewPublisher(events.PublisherConfig{
//	    Brokers: cfg.Kafka.Brokers,
//	    Topic:   cfg.Kafka.EventsTopic,
//	}, logger, metrics)
//	defer publisher.Close()
//
//	svc := pipeline.NewService(pcfg, registry, invoker, engine,
//	    pipeline.WithPublisher(publisher))
package events
