package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Default values for the Anthropic provider.
const (
	defaultAnthropicModel     = "claude-3-5-sonnet-latest"
	defaultAnthropicMaxTokens = 4096
)

// AnthropicConfig holds the parameters needed to create an Anthropic client.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key.
	APIKey string
	// Model is the model identifier.
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// AnthropicMessager is the subset of the SDK message service used here.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClient implements ChatClient using the Anthropic Messages API.
type AnthropicClient struct {
	messages    AnthropicMessager
	model       string
	temperature float64
	maxTokens   int64
}

// Compile-time check that AnthropicClient implements ChatClient.
var _ ChatClient = (*AnthropicClient)(nil)

// NewAnthropicClient creates a new Anthropic chat client. The SDK's own
// retry loop is disabled.
func NewAnthropicClient(cfg AnthropicConfig, temperature float64, maxTokens int, opts ...option.RequestOption) *AnthropicClient {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	c := anthropic.NewClient(clientOpts...)
	return NewAnthropicClientWithMessager(&c.Messages, cfg.Model, temperature, maxTokens)
}

// NewAnthropicClientWithMessager wires an existing message service, which
// lets tests substitute a fake.
func NewAnthropicClientWithMessager(m AnthropicMessager, model string, temperature float64, maxTokens int) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicClient{
		messages:    m,
		model:       model,
		temperature: temperature,
		maxTokens:   int64(maxTokens),
	}
}

// Complete sends the conversation to the Messages API. System messages are
// lifted into the system parameter; the remaining turns keep their order.
func (c *AnthropicClient) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(params.Messages) == 0 {
		return nil, fmt.Errorf("anthropic: at least one non-system message is required")
	}

	resp, err := c.messages.New(ctx, params)
	if err != nil {
		return nil, wrapAnthropicError(err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("anthropic: response contained no text content")
	}

	model := string(resp.Model)
	if model == "" {
		model = c.model
	}

	return &Completion{
		Content:      sb.String(),
		Model:        model,
		FinishReason: string(resp.StopReason),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// Provider returns the name of the LLM provider.
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

// Model returns the model identifier being used.
func (c *AnthropicClient) Model() string {
	return c.model
}

// wrapAnthropicError converts SDK errors into APIError so callers can
// classify them uniformly.
func wrapAnthropicError(err error) error {
	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		return &APIError{
			Provider:   "anthropic",
			StatusCode: sdkErr.StatusCode,
			Message:    sdkErr.Error(),
		}
	}
	return fmt.Errorf("anthropic: request failed: %w", err)
}
