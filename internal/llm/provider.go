package llm

import "context"

// Message roles shared by all providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a provider-neutral conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries per-call credentials and sampling parameters. Adapters
// hold no per-call state: everything a call needs travels in Options.
type Options struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider-neutral result of a non-streaming call.
type Response struct {
	Content string `json:"content"`
	Usage   *Usage `json:"usage,omitempty"`
}

// StreamChunk is one piece of a streamed response. The stream always ends
// with exactly one Done chunk, after which the channel is closed.
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// Provider defines the interface for LLM providers. Implementations are
// safe for concurrent use: credentials and parameters arrive per call.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// AvailableModels returns list of supported models.
	AvailableModels() []string

	// DefaultModel returns the model used when Options.Model is empty.
	DefaultModel() string

	// Generate performs one completion call.
	Generate(ctx context.Context, messages []Message, opts Options) (*Response, error)

	// GenerateStream performs one streaming completion call. The returned
	// channel is consumer-driven; abandoning it requires cancelling ctx,
	// which releases the underlying connection.
	GenerateStream(ctx context.Context, messages []Message, opts Options) (<-chan StreamChunk, error)
}
