// Package app assembles the summarize pipeline from configuration. It is
// shared by the server, worker and CLI binaries.
package app

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/review-synthesis-service/internal/config"
	"github.com/helixir/review-synthesis-service/internal/evaluation"
	"github.com/helixir/review-synthesis-service/internal/events"
	"github.com/helixir/review-synthesis-service/internal/llm"
	"github.com/helixir/review-synthesis-service/internal/observability"
	"github.com/helixir/review-synthesis-service/internal/papersources"
	"github.com/helixir/review-synthesis-service/internal/papersources/arxiv"
	"github.com/helixir/review-synthesis-service/internal/papersources/openalex"
	"github.com/helixir/review-synthesis-service/internal/papersources/semanticscholar"
	"github.com/helixir/review-synthesis-service/internal/pipeline"
	"github.com/helixir/review-synthesis-service/internal/synthesis"
)

// Components are the assembled pipeline and its parts.
type Components struct {
	Registry *papersources.Registry
	Client   llm.ChatClient
	Invoker  *synthesis.Invoker
	Engine   *evaluation.Engine
	Service  *pipeline.Service
}

// Build wires the paper sources, model client, invoker, evaluation engine
// and pipeline service described by cfg. metrics may be nil.
func Build(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics, opts ...pipeline.Option) (*Components, error) {
	registry := papersources.NewRegistry()
	RegisterPaperSources(registry, cfg.PaperSources, logger)

	client, err := NewChatClient(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	logger.Info().
		Str("provider", client.Provider()).
		Str("model", client.Model()).
		Msg("LLM client created")

	invoker := synthesis.NewInvoker(client, synthesis.InvokerConfig{
		Deadline: cfg.Synthesis.Deadline,
		Context: synthesis.ContextOptions{
			MaxPapers:        cfg.Synthesis.MaxPapers,
			MaxAbstractChars: cfg.Synthesis.MaxAbstractChars,
		},
	}, logger, metrics)

	engine, err := NewEngine(cfg.Evaluation)
	if err != nil {
		return nil, fmt.Errorf("create evaluation engine: %w", err)
	}

	opts = append([]pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
	}, opts...)

	service := pipeline.NewService(pipeline.Config{
		DefaultPapers:  cfg.Search.DefaultPapers,
		MaxPapers:      cfg.Search.MaxPapers,
		DefaultSources: cfg.Search.DefaultSources,
		SearchTimeout:  cfg.Search.Timeout,
	}, registry, invoker, engine, opts...)

	return &Components{
		Registry: registry,
		Client:   client,
		Invoker:  invoker,
		Engine:   engine,
		Service:  service,
	}, nil
}

// NewChatClient creates the model client selected by cfg.Provider.
func NewChatClient(cfg config.LLMConfig) (llm.ChatClient, error) {
	return llm.NewChatClient(llm.FactoryConfig{
		Provider:    strings.ToLower(cfg.Provider),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		OpenAI: llm.OpenAIConfig{
			APIKey:   cfg.OpenAI.APIKey,
			Model:    cfg.OpenAI.Model,
			BaseURL:  cfg.OpenAI.BaseURL,
			JSONMode: true,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
		},
	})
}

// NewEngine creates the evaluation engine for the configured policy.
func NewEngine(cfg config.EvaluationConfig) (*evaluation.Engine, error) {
	return evaluation.NewEngine(evaluation.Config{
		CoverageStrategy:  cfg.CoverageStrategy,
		CoverageWeight:    cfg.CoverageWeight,
		DepthWeight:       cfg.DepthWeight,
		StructureWeight:   cfg.StructureWeight,
		SentenceLengthCap: cfg.SentenceLengthCap,
		KeywordHitsCap:    cfg.KeywordHitsCap,
		DepthKeywords:     cfg.DepthKeywords,
	})
}

// RegisterPaperSources registers every enabled paper source.
func RegisterPaperSources(registry *papersources.Registry, cfg config.PaperSourcesConfig, logger zerolog.Logger) {
	// arXiv.
	if cfg.ArXiv.Enabled {
		axCfg := cfg.ArXiv
		registry.Register(arxiv.New(arxiv.Config{
			BaseURL:    axCfg.BaseURL,
			Timeout:    axCfg.Timeout,
			RateLimit:  axCfg.RateLimit,
			MaxResults: axCfg.MaxResults,
			Enabled:    true,
		}))
		logger.Info().Msg("registered paper source: arXiv")
	}

	// Semantic Scholar.
	if cfg.SemanticScholar.Enabled {
		ssCfg := cfg.SemanticScholar
		registry.Register(semanticscholar.NewClient(semanticscholar.Config{
			BaseURL:    ssCfg.BaseURL,
			APIKey:     ssCfg.APIKey,
			Timeout:    ssCfg.Timeout,
			RateLimit:  ssCfg.RateLimit,
			MaxResults: ssCfg.MaxResults,
			Enabled:    true,
		}, nil))
		logger.Info().Bool("api_key", ssCfg.APIKey != "").Msg("registered paper source: Semantic Scholar")
	}

	// OpenAlex.
	if cfg.OpenAlex.Enabled {
		oaCfg := cfg.OpenAlex
		registry.Register(openalex.New(openalex.Config{
			BaseURL:    oaCfg.BaseURL,
			Email:      oaCfg.Email,
			APIKey:     oaCfg.APIKey,
			Timeout:    oaCfg.Timeout,
			RateLimit:  oaCfg.RateLimit,
			MaxResults: oaCfg.MaxResults,
			Enabled:    true,
		}))
		logger.Info().Msg("registered paper source: OpenAlex")
	}
}

// NewPublisher creates the Kafka lifecycle event publisher. Callers check
// cfg.Kafka.Enabled first.
func NewPublisher(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) *events.Publisher {
	publisher := events.NewPublisher(events.PublisherConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.EventsTopic,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
		ServiceName:  cfg.Tracing.ServiceName,
	}, logger, metrics)
	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.EventsTopic).
		Msg("kafka event publisher created")
	return publisher
}

// LoggingConfig converts the logging section for observability.NewLogger.
func LoggingConfig(cfg config.LoggingConfig) observability.LoggingConfig {
	return observability.LoggingConfig{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		AddSource:  cfg.AddSource,
		TimeFormat: cfg.TimeFormat,
	}
}

// TracingConfig converts the tracing section for observability.InitTracing.
func TracingConfig(cfg config.TracingConfig) observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     cfg.Enabled,
		Endpoint:    cfg.Endpoint,
		Insecure:    cfg.Insecure,
		ServiceName: cfg.ServiceName,
		SampleRate:  cfg.SampleRate,
	}
}
