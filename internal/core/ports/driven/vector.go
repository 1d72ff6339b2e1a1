package driven

import (
	"context"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// VectorIndex is a named table per base holding chunk rows with columnar
// metadata and a fixed-length embedding column. Exact cosine ranking over
// the full candidate set after a metadata pre-filter, not approximate
// search, so result order is reproducible (§4.5 P3/P6).
type VectorIndex interface {
	// Upsert inserts or replaces a batch of chunks. All chunks in a call
	// must share the index's configured dimension.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search returns the top_k chunks by cosine similarity to query,
	// restricted to candidates passing filters.
	Search(ctx context.Context, query []float32, topK int, filters Filters) ([]ScoredChunk, error)

	// Reset drops every row, for a dimension change or a clean rebuild.
	Reset(ctx context.Context) error

	// Count returns the number of rows currently stored.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// Filters narrows a search to chunks matching all non-zero fields.
type Filters struct {
	FileTypes    []string
	Languages    []string
	Tags         []string
	CreatedAfter *int64 // unix seconds, nil means unbounded
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk domain.Chunk
	Score float64
}
