package driven

import "context"

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// JSONOnly requests the provider's strict JSON output mode where
	// supported. The tag evaluator sets this.
	JSONOnly bool
}

// LLMService provides chat-completion access to a language model.
//
// Implementations may include:
//   - OpenAI (and any OpenAI-compatible endpoint)
//   - Ollama (local models via the compatible API)
type LLMService interface {
	// Chat conducts a multi-turn conversation and returns the assistant's
	// reply text.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	// Batch runs call this before touching any document.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
