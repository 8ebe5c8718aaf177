package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcome labels.
const (
	ValidationValid      = "valid"
	ValidationRecovered  = "recovered"
	ValidationMalformed  = "malformed"
	ValidationModelError = "model_error"
)

// Metrics contains all Prometheus metrics for the review synthesis service.
// Metrics are organized by pipeline stage: summaries, searches, papers, LLM
// calls, validation, evaluation and events. All collectors are registered via
// promauto with the default Prometheus registry.
//
// Every Record method is safe to call on a nil *Metrics.
type Metrics struct {
	// SummariesStarted counts summarize runs initiated.
	SummariesStarted prometheus.Counter

	// SummariesCompleted counts summarize runs that returned a result.
	SummariesCompleted prometheus.Counter

	// SummariesFailed counts summarize runs that returned an error (e.g., no
	// source could be searched).
	SummariesFailed prometheus.Counter

	// SummaryDuration observes end-to-end summarize duration in seconds.
	SummaryDuration prometheus.Histogram

	// SearchesStarted counts searches initiated, labeled by paper source.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful searches, labeled by paper source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed searches, labeled by paper source.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes search duration in seconds, labeled by paper source.
	SearchDuration *prometheus.HistogramVec

	// PapersPerSearch observes papers returned per search, labeled by source.
	PapersPerSearch *prometheus.HistogramVec

	// PapersRetrieved counts normalized papers before deduplication.
	PapersRetrieved prometheus.Counter

	// PapersDuplicate counts papers dropped by deduplication.
	PapersDuplicate prometheus.Counter

	// LLMRequestsTotal counts model calls, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestDuration observes model call latency in seconds.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed counts tokens, labeled by operation, model and direction.
	LLMTokensUsed *prometheus.CounterVec

	// LLMRequestsFailed counts failed model calls, labeled by error type
	// (timeout, transient, permanent, panic).
	LLMRequestsFailed *prometheus.CounterVec

	// ValidationOutcomes counts how model responses were validated.
	ValidationOutcomes *prometheus.CounterVec

	// EvaluationScores observes score values, labeled by dimension.
	EvaluationScores *prometheus.HistogramVec

	// EventsPublished counts events written to Kafka, labeled by event type.
	EventsPublished *prometheus.CounterVec

	// EventsFailed counts events that could not be written, labeled by event type.
	EventsFailed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Summaries
		SummariesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_started_total",
			Help:      "Total number of summarize runs started",
		}),
		SummariesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_completed_total",
			Help:      "Total number of summarize runs that returned a result",
		}),
		SummariesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_failed_total",
			Help:      "Total number of summarize runs that returned an error",
		}),
		SummaryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_seconds",
			Help:      "Duration of summarize runs in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180},
		}),

		// Searches
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of paper searches started",
		}, []string{"source"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of paper searches completed",
		}, []string{"source"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of paper searches that failed",
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of paper searches in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		PapersPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"source"}),

		// Papers
		PapersRetrieved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_retrieved_total",
			Help:      "Total number of papers retrieved before deduplication",
		}),
		PapersDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_duplicate_total",
			Help:      "Total number of papers dropped as duplicates",
		}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		}, []string{"operation", "model"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120},
		}, []string{"operation", "model"}),
		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of LLM tokens used",
		}, []string{"operation", "model", "direction"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests",
		}, []string{"operation", "model", "error_type"}),

		// Validation and evaluation
		ValidationOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_outcomes_total",
			Help:      "Model responses by validation outcome",
		}, []string{"outcome"}),
		EvaluationScores: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_score",
			Help:      "Distribution of evaluation scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"dimension"}),

		// Events
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of events published",
		}, []string{"event_type"}),
		EventsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of events that failed to publish",
		}, []string{"event_type"}),
	}
}

// RecordSummaryStarted records that a summarize run has started.
func (m *Metrics) RecordSummaryStarted() {
	if m == nil {
		return
	}
	m.SummariesStarted.Inc()
}

// RecordSummaryCompleted records that a summarize run returned a result.
func (m *Metrics) RecordSummaryCompleted(durationSeconds float64) {
	if m == nil {
		return
	}
	m.SummariesCompleted.Inc()
	m.SummaryDuration.Observe(durationSeconds)
}

// RecordSummaryFailed records that a summarize run returned an error.
func (m *Metrics) RecordSummaryFailed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.SummariesFailed.Inc()
	m.SummaryDuration.Observe(durationSeconds)
}

// RecordSearchStarted records that a search has started.
func (m *Metrics) RecordSearchStarted(source string) {
	if m == nil {
		return
	}
	m.SearchesStarted.WithLabelValues(source).Inc()
}

// RecordSearchCompleted records a successful search.
func (m *Metrics) RecordSearchCompleted(source string, paperCount int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.PapersPerSearch.WithLabelValues(source).Observe(float64(paperCount))
}

// RecordSearchFailed records a failed search.
func (m *Metrics) RecordSearchFailed(source string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesFailed.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordPapers records the paper counts before and after deduplication.
func (m *Metrics) RecordPapers(retrieved, duplicates int) {
	if m == nil {
		return
	}
	m.PapersRetrieved.Add(float64(retrieved))
	m.PapersDuplicate.Add(float64(duplicates))
}

// RecordLLMRequest records a successful LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
	m.LLMTokensUsed.WithLabelValues(operation, model, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(operation, model, "output").Add(float64(outputTokens))
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}

// RecordValidation records the outcome of validating a model response.
func (m *Metrics) RecordValidation(outcome string) {
	if m == nil {
		return
	}
	m.ValidationOutcomes.WithLabelValues(outcome).Inc()
}

// RecordEvaluation records the four evaluation dimensions.
func (m *Metrics) RecordEvaluation(coverage, depth, structure, overall float64) {
	if m == nil {
		return
	}
	m.EvaluationScores.WithLabelValues("coverage").Observe(coverage)
	m.EvaluationScores.WithLabelValues("depth").Observe(depth)
	m.EvaluationScores.WithLabelValues("structure").Observe(structure)
	m.EvaluationScores.WithLabelValues("overall").Observe(overall)
}

// RecordEventPublished records a published event.
func (m *Metrics) RecordEventPublished(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventFailed records an event that could not be published.
func (m *Metrics) RecordEventFailed(eventType string) {
	if m == nil {
		return
	}
	m.EventsFailed.WithLabelValues(eventType).Inc()
}
