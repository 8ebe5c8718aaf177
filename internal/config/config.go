// Package config provides configuration management for the review synthesis service.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Coverage strategy names recognized by the evaluation engine.
const (
	// CoverageTFIDF scores coverage as mean TF-IDF cosine similarity.
	CoverageTFIDF = "tfidf"
	// CoverageROUGE1 scores coverage as mean ROUGE-1 F-measure.
	CoverageROUGE1 = "rouge1"
)

// Config holds all configuration for the review synthesis service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Tracing contains OpenTelemetry distributed tracing settings.
	Tracing TracingConfig `mapstructure:"tracing"`
	// LLM contains generative model transport settings.
	LLM LLMConfig `mapstructure:"llm"`
	// Synthesis contains context digest and invocation settings.
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	// Evaluation contains scoring policy settings.
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	// Search contains request defaults for paper retrieval.
	Search SearchConfig `mapstructure:"search"`
	// Kafka contains event publishing and request listening settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// PaperSources contains paper source API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	// Must exceed the synthesis deadline plus search time.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure"`
	// ServiceName is the service name for traces.
	ServiceName string `mapstructure:"service_name"`
	// SampleRate is the sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LLMConfig holds generative model transport configuration.
type LLMConfig struct {
	// Provider is the model provider (openai, anthropic).
	Provider string `mapstructure:"provider"`
	// Timeout is the HTTP timeout of the transport itself. The synthesis
	// deadline is enforced separately.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens caps the length of the generated review.
	MaxTokens int `mapstructure:"max_tokens"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key (loaded from SYNTHESIS_LLM_OPENAI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the OpenAI model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the OpenAI API base URL (for compatible endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key (loaded from SYNTHESIS_LLM_ANTHROPIC_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the Anthropic model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the Anthropic API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// SynthesisConfig holds the context digest and invocation settings.
type SynthesisConfig struct {
	// Deadline bounds the wait for the model response. When it elapses the
	// request proceeds with a failure sentinel.
	Deadline time.Duration `mapstructure:"deadline"`
	// MaxPapers is the number of papers rendered into the digest.
	MaxPapers int `mapstructure:"max_papers"`
	// MaxAbstractChars is the hard cut applied to each abstract in the digest.
	MaxAbstractChars int `mapstructure:"max_abstract_chars"`
}

// EvaluationConfig holds the scoring policy.
type EvaluationConfig struct {
	// CoverageStrategy selects the coverage backend (tfidf, rouge1).
	CoverageStrategy string `mapstructure:"coverage_strategy"`
	// CoverageWeight is the weight of coverage in the overall score.
	CoverageWeight float64 `mapstructure:"coverage_weight"`
	// DepthWeight is the weight of depth in the overall score.
	DepthWeight float64 `mapstructure:"depth_weight"`
	// StructureWeight is the weight of structure in the overall score.
	StructureWeight float64 `mapstructure:"structure_weight"`
	// SentenceLengthCap is the words-per-sentence average that scores 1.0.
	SentenceLengthCap float64 `mapstructure:"sentence_length_cap"`
	// KeywordHitsCap is the keyword occurrence count that scores 1.0.
	KeywordHitsCap float64 `mapstructure:"keyword_hits_cap"`
	// DepthKeywords are counted as whole words when scoring depth.
	DepthKeywords []string `mapstructure:"depth_keywords"`
}

// SearchConfig holds request defaults for paper retrieval.
type SearchConfig struct {
	// DefaultPapers is used when a request omits n_papers.
	DefaultPapers int `mapstructure:"default_papers"`
	// MaxPapers is the largest n_papers a request may ask for.
	MaxPapers int `mapstructure:"max_papers"`
	// DefaultSources is used when a request omits sources.
	DefaultSources []string `mapstructure:"default_sources"`
	// Timeout bounds the fan-out search across all sources.
	Timeout time.Duration `mapstructure:"timeout"`
}

// KafkaConfig holds Kafka settings for event publishing and the request listener.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// EventsTopic receives summary lifecycle events.
	EventsTopic string `mapstructure:"events_topic"`
	// RequestsTopic is consumed by the worker for summarize requests.
	RequestsTopic string `mapstructure:"requests_topic"`
	// GroupID is the consumer group of the worker.
	GroupID string `mapstructure:"group_id"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// PaperSourcesConfig holds configuration for all paper source APIs.
type PaperSourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv PaperSourceConfig `mapstructure:"arxiv"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar PaperSourceConfig `mapstructure:"semantic_scholar"`
	// OpenAlex contains OpenAlex API settings.
	OpenAlex PaperSourceConfig `mapstructure:"openalex"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g. SYNTHESIS_PAPER_SOURCES_SEMANTIC_SCHOLAR_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults is the maximum results per query.
	MaxResults int `mapstructure:"max_results"`
	// Email is the contact address sent to APIs with a polite pool (OpenAlex).
	Email string `mapstructure:"email"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SYNTHESIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/review-synthesis")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets never come from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.LLM.OpenAI.APIKey = os.Getenv("SYNTHESIS_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv("SYNTHESIS_LLM_ANTHROPIC_API_KEY")

	cfg.PaperSources.ArXiv.APIKey = os.Getenv("SYNTHESIS_PAPER_SOURCES_ARXIV_API_KEY")
	cfg.PaperSources.SemanticScholar.APIKey = os.Getenv("SYNTHESIS_PAPER_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
	cfg.PaperSources.OpenAlex.APIKey = os.Getenv("SYNTHESIS_PAPER_SOURCES_OPENALEX_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "review_synthesis")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "review-synthesis-service")
	v.SetDefault("tracing.sample_rate", 0.1)

	// LLM defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "150s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-5-sonnet-latest")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")

	// Synthesis defaults
	v.SetDefault("synthesis.deadline", "120s")
	v.SetDefault("synthesis.max_papers", 10)
	v.SetDefault("synthesis.max_abstract_chars", 600)

	// Evaluation defaults
	v.SetDefault("evaluation.coverage_strategy", CoverageTFIDF)
	v.SetDefault("evaluation.coverage_weight", 0.4)
	v.SetDefault("evaluation.depth_weight", 0.3)
	v.SetDefault("evaluation.structure_weight", 0.3)
	v.SetDefault("evaluation.sentence_length_cap", 20.0)
	v.SetDefault("evaluation.keyword_hits_cap", 10.0)
	v.SetDefault("evaluation.depth_keywords", []string{"method", "result", "analysis", "study", "data", "experiment", "model"})

	// Search defaults
	v.SetDefault("search.default_papers", 5)
	v.SetDefault("search.max_papers", 50)
	v.SetDefault("search.default_sources", []string{"arxiv"})
	v.SetDefault("search.timeout", "45s")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.events_topic", "events.review_synthesis")
	v.SetDefault("kafka.requests_topic", "requests.review_synthesis")
	v.SetDefault("kafka.group_id", "review-synthesis-worker")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Paper sources defaults - arXiv
	v.SetDefault("paper_sources.arxiv.enabled", true)
	v.SetDefault("paper_sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("paper_sources.arxiv.timeout", "30s")
	v.SetDefault("paper_sources.arxiv.rate_limit", 3.0) // arXiv recommends max 3 req/sec
	v.SetDefault("paper_sources.arxiv.max_results", 100)

	// Paper sources defaults - Semantic Scholar
	v.SetDefault("paper_sources.semantic_scholar.enabled", true)
	v.SetDefault("paper_sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("paper_sources.semantic_scholar.timeout", "30s")
	v.SetDefault("paper_sources.semantic_scholar.rate_limit", 1.0)
	v.SetDefault("paper_sources.semantic_scholar.max_results", 100)

	// Paper sources defaults - OpenAlex
	v.SetDefault("paper_sources.openalex.enabled", true)
	v.SetDefault("paper_sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("paper_sources.openalex.timeout", "30s")
	v.SetDefault("paper_sources.openalex.rate_limit", 10.0)
	v.SetDefault("paper_sources.openalex.max_results", 200)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing sample rate must be between 0 and 1")
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires SYNTHESIS_LLM_OPENAI_API_KEY to be set", c.LLM.Provider)
		}
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires SYNTHESIS_LLM_ANTHROPIC_API_KEY to be set", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %q", c.LLM.Provider)
	}

	if c.Synthesis.Deadline <= 0 {
		return fmt.Errorf("synthesis deadline must be positive")
	}
	if c.Synthesis.MaxPapers <= 0 {
		return fmt.Errorf("synthesis max_papers must be positive")
	}
	if c.Synthesis.MaxAbstractChars <= 0 {
		return fmt.Errorf("synthesis max_abstract_chars must be positive")
	}

	switch c.Evaluation.CoverageStrategy {
	case CoverageTFIDF, CoverageROUGE1:
	default:
		return fmt.Errorf("unsupported coverage strategy: %q", c.Evaluation.CoverageStrategy)
	}
	sum := c.Evaluation.CoverageWeight + c.Evaluation.DepthWeight + c.Evaluation.StructureWeight
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("evaluation weights must sum to 1, got %.4f", sum)
	}
	if c.Evaluation.SentenceLengthCap <= 0 || c.Evaluation.KeywordHitsCap <= 0 {
		return fmt.Errorf("evaluation depth caps must be positive")
	}

	if c.Search.DefaultPapers <= 0 || c.Search.DefaultPapers > c.Search.MaxPapers {
		return fmt.Errorf("search default_papers must be in [1, %d]", c.Search.MaxPapers)
	}
	if len(c.Search.DefaultSources) == 0 {
		return fmt.Errorf("search default_sources must not be empty")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	return nil
}
