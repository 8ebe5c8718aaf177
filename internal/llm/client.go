// Package llm provides chat-completion transports for generative models.
//
// Every transport performs exactly one request per Complete call. Retrying is
// left to callers, and the synthesis pipeline deliberately never retries.
package llm

import "context"

// Message roles understood by every transport.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role/content pair of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the text payload extracted from a provider response along
// with its accounting data.
type Completion struct {
	Content      string
	Model        string
	FinishReason string
	InputTokens  int
	OutputTokens int
}

// ChatClient sends a conversation to a generative model and returns the
// text of the first choice.
type ChatClient interface {
	// Complete sends the messages and returns the model's reply.
	Complete(ctx context.Context, messages []Message) (*Completion, error)

	// Provider returns the name of the LLM provider (e.g., "openai", "anthropic").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
