package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("SYNTHESIS_LLM_OPENAI_API_KEY", "sk-test-default")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 180*time.Second, cfg.Server.WriteTimeout)

	// Logging and metrics defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "review_synthesis", cfg.Metrics.Namespace)
	assert.False(t, cfg.Tracing.Enabled)

	// LLM defaults
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test-default", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.OpenAI.BaseURL)

	// Synthesis defaults reproduce the documented behaviour.
	assert.Equal(t, 120*time.Second, cfg.Synthesis.Deadline)
	assert.Equal(t, 10, cfg.Synthesis.MaxPapers)
	assert.Equal(t, 600, cfg.Synthesis.MaxAbstractChars)

	// Evaluation defaults
	assert.Equal(t, CoverageTFIDF, cfg.Evaluation.CoverageStrategy)
	assert.InDelta(t, 0.4, cfg.Evaluation.CoverageWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Evaluation.DepthWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Evaluation.StructureWeight, 1e-9)
	assert.Equal(t, 20.0, cfg.Evaluation.SentenceLengthCap)
	assert.Equal(t, 10.0, cfg.Evaluation.KeywordHitsCap)
	assert.ElementsMatch(t,
		[]string{"method", "result", "analysis", "study", "data", "experiment", "model"},
		cfg.Evaluation.DepthKeywords)

	// Search defaults
	assert.Equal(t, 5, cfg.Search.DefaultPapers)
	assert.Equal(t, []string{"arxiv"}, cfg.Search.DefaultSources)

	// Paper sources and Kafka
	assert.True(t, cfg.PaperSources.ArXiv.Enabled)
	assert.True(t, cfg.PaperSources.SemanticScholar.Enabled)
	assert.True(t, cfg.PaperSources.OpenAlex.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("SYNTHESIS_SERVER_HTTP_PORT", "8888")
	t.Setenv("SYNTHESIS_LOGGING_LEVEL", "debug")
	t.Setenv("SYNTHESIS_LLM_PROVIDER", "anthropic")
	t.Setenv("SYNTHESIS_LLM_ANTHROPIC_API_KEY", "sk-ant-override")
	t.Setenv("SYNTHESIS_SYNTHESIS_DEADLINE", "30s")
	t.Setenv("SYNTHESIS_EVALUATION_COVERAGE_STRATEGY", "rouge1")
	t.Setenv("SYNTHESIS_PAPER_SOURCES_SEMANTIC_SCHOLAR_API_KEY", "s2-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant-override", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Synthesis.Deadline)
	assert.Equal(t, CoverageROUGE1, cfg.Evaluation.CoverageStrategy)
	assert.Equal(t, "s2-key", cfg.PaperSources.SemanticScholar.APIKey)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnvVars(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYNTHESIS_LLM_OPENAI_API_KEY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name:        "HTTP port zero",
			modifyFunc:  func(c *Config) { c.Server.HTTPPort = 0 },
			expectedErr: "invalid HTTP port: 0",
		},
		{
			name:        "HTTP port too high",
			modifyFunc:  func(c *Config) { c.Server.HTTPPort = 70000 },
			expectedErr: "invalid HTTP port: 70000",
		},
		{
			name:        "metrics port invalid",
			modifyFunc:  func(c *Config) { c.Server.MetricsPort = -5 },
			expectedErr: "invalid metrics port: -5",
		},
		{
			name:        "unknown log level",
			modifyFunc:  func(c *Config) { c.Logging.Level = "verbose" },
			expectedErr: "invalid log level: verbose",
		},
		{
			name: "tracing without endpoint",
			modifyFunc: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Endpoint = ""
			},
			expectedErr: "tracing endpoint is required",
		},
		{
			name:        "unsupported provider",
			modifyFunc:  func(c *Config) { c.LLM.Provider = "mystery" },
			expectedErr: "unsupported LLM provider",
		},
		{
			name:        "anthropic without key",
			modifyFunc:  func(c *Config) { c.LLM.Provider = "anthropic" },
			expectedErr: "SYNTHESIS_LLM_ANTHROPIC_API_KEY",
		},
		{
			name:        "zero deadline",
			modifyFunc:  func(c *Config) { c.Synthesis.Deadline = 0 },
			expectedErr: "synthesis deadline must be positive",
		},
		{
			name:        "zero max papers",
			modifyFunc:  func(c *Config) { c.Synthesis.MaxPapers = 0 },
			expectedErr: "synthesis max_papers must be positive",
		},
		{
			name:        "unknown coverage strategy",
			modifyFunc:  func(c *Config) { c.Evaluation.CoverageStrategy = "bertscore" },
			expectedErr: "unsupported coverage strategy",
		},
		{
			name:        "weights do not sum to one",
			modifyFunc:  func(c *Config) { c.Evaluation.CoverageWeight = 0.5 },
			expectedErr: "evaluation weights must sum to 1",
		},
		{
			name:        "default papers above max",
			modifyFunc:  func(c *Config) { c.Search.DefaultPapers = 100 },
			expectedErr: "search default_papers",
		},
		{
			name: "kafka without brokers",
			modifyFunc: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = nil
			},
			expectedErr: "kafka brokers are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestServerConfig_Addresses(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", HTTPPort: 8080, MetricsPort: 9091}
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddress())
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddress())
}

// clearEnvVars removes every SYNTHESIS_ variable for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, "SYNTHESIS_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    8080,
			MetricsPort: 9091,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			SampleRate: 0.1,
		},
		LLM: LLMConfig{
			Provider: "openai",
			OpenAI:   OpenAIConfig{APIKey: "sk-test"},
		},
		Synthesis: SynthesisConfig{
			Deadline:         120 * time.Second,
			MaxPapers:        10,
			MaxAbstractChars: 600,
		},
		Evaluation: EvaluationConfig{
			CoverageStrategy:  CoverageTFIDF,
			CoverageWeight:    0.4,
			DepthWeight:       0.3,
			StructureWeight:   0.3,
			SentenceLengthCap: 20,
			KeywordHitsCap:    10,
		},
		Search: SearchConfig{
			DefaultPapers:  5,
			MaxPapers:      50,
			DefaultSources: []string{"arxiv"},
		},
	}
}
