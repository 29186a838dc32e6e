// Package llm defines the Provider interface for text-generation backends.
//
// An LLM provider wraps a remote or local model API (e.g., Google Gemini,
// Anthropic Claude, OpenAI, or a local Ollama instance) and exposes a uniform
// interface for the card generator to request a completion without coupling to
// any specific SDK.
//
// Providers perform no retries themselves; retry and failover policy lives in
// the card generator. Each implementation applies a bounded per-call timeout
// (configurable, default 20s) and classifies failures into the sentinel errors
// defined in errors.go so callers can branch with errors.Is.
//
// Implementors must be safe for concurrent use.
package llm

import "context"

// Request carries everything a provider needs to produce a completion.
// Callers should treat a zero-value request as invalid; at minimum Prompt must
// be non-empty.
type Request struct {
	// SystemPrompt is a high-priority instruction injected before the user
	// prompt. Providers that have no dedicated system slot should prepend it
	// as a "system"-role message.
	SystemPrompt string

	// Prompt is the user-role message that drives the response.
	Prompt string

	// Temperature controls output randomness in the range [0.0, 2.0]. A value
	// of 0 means use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int
}

// Usage holds token accounting information returned by the backend. Counts are
// in the model's native token unit and may differ between providers for the
// same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// Response is the full completion result.
type Response struct {
	// Content is the raw text of the model's reply. For card generation this
	// is expected to be a JSON array, possibly wrapped in markdown fences.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any text-generation backend.
//
// Implementations must be safe for concurrent use from multiple goroutines and
// must propagate context cancellation promptly.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Errors are classified into the package sentinel taxonomy: ErrTimeout,
	// ErrRateLimited, ErrAuthFailed, ErrUnavailable, ErrMalformedResponse.
	// An error that fits none of those categories is returned wrapped in
	// ErrUnavailable, the conservative default for failover purposes.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns a short stable identifier for this backend (e.g.,
	// "gemini", "anthropic", "openai"). Used in logs and metrics.
	Name() string
}
