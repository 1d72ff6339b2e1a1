// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingProvider turns a batch of strings into fixed-dimension vectors.
// Dimensions is an immutable property of a provider instance and must equal
// the owning base's configured dimension. Implementations include the
// deterministic local trigram provider and HTTP-backed local/remote models.
type EmbeddingProvider interface {
	// ProviderName identifies the provider kind (e.g. "trigram", "ollama", "openai").
	ProviderName() string

	// ModelName identifies the model in use.
	ModelName() string

	// Dimensions returns the embedding vector length this provider produces.
	Dimensions() int

	// EmbedBatch embeds every text in order, preserving input order in the
	// output. A partial failure fails the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
