package llm

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// FactoryConfig holds the parameters needed to create a ChatClient.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("openai" or "anthropic").
	Provider string
	// Temperature is the sampling temperature.
	Temperature float64
	// MaxTokens caps the completion length.
	MaxTokens int
	// Timeout is the HTTP timeout of the transport.
	Timeout time.Duration
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewChatClient creates a ChatClient based on the configuration.
// Supports "openai" and "anthropic" providers. Returns an error for unsupported
// or empty provider values.
func NewChatClient(cfg FactoryConfig) (ChatClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAI, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	case "anthropic":
		var opts []option.RequestOption
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
		return NewAnthropicClient(cfg.Anthropic, cfg.Temperature, cfg.MaxTokens, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
