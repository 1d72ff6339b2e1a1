// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMClient produces a synthesis completion from a rendered prompt.
// Implementations: Ollama (local), OpenAI, Anthropic.
type LLMClient interface {
	// Complete sends a single non-streaming completion request.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)

	// CompleteStream sends a streaming completion request, invoking sink
	// for each text fragment as it arrives. The final call to sink carries
	// the empty string and a non-nil usage, signalling completion.
	CompleteStream(ctx context.Context, req CompletionRequest, sink func(delta string, usage *Usage) error) error

	// ModelName returns the default model this client targets.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is the uniform shape accepted by every LLM collaborator.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float64
}

// CompletionResult is a non-streaming completion outcome.
type CompletionResult struct {
	Content string
	Usage   Usage
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
