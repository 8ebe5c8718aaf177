// Package observability provides logging, metrics, and tracing support for
// the review synthesis service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithSummaryContext(logger, requestID, query)
//
// # Metrics
//
//	metrics := observability.NewMetrics("review_synthesis")
//	metrics.RecordSearchCompleted("arxiv", 5, 0.8)
//	metrics.RecordValidation(observability.ValidationRecovered)
//
// # Tracing
//
//	shutdown, err := observability.InitTracing(ctx, tracingCfg)
//	defer shutdown(ctx)
//	ctx, span := observability.StartSpan(ctx, "synthesis.invoke")
//	defer span.End()
//
// # Standard Fields
//
//   - request_id: summarize run identifier
//   - correlation_id: caller-supplied identifier
//   - query: the topic query
//   - source: paper source (arxiv, semantic_scholar, openalex)
//   - llm_provider, llm_model: generative model in use
//   - trace_id, span_id: distributed trace identifiers
package observability
