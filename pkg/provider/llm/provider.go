// Package llm defines the Provider interface for Large Language Model
// backends.
//
// A provider wraps a remote or local model API (Groq, OpenAI, Ollama, …)
// and exposes the one operation the-scoop needs: a non-streaming chat
// completion. The boost interpreter is the only consumer; it sends a single
// system+user exchange and parses a JSON reply.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Message is a single message in a completion conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting returned by the backend. Counts are in the
// model's native token unit.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to respond. At
// minimum Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation. Providers without a dedicated system slot prepend
	// it as a "system"-role message.
	SystemPrompt string

	// Messages is the ordered conversation; the last message drives the
	// response.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests
	// the provider default.
	Temperature float64

	// MaxTokens caps completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete performs a blocking chat completion. Context cancellation
	// and network failures are returned as errors; the caller decides how
	// to degrade.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name identifies the backend for logging ("groq", "openai", …).
	Name() string
}
