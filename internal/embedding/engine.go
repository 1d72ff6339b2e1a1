// Package embedding implements the embedding engine (C5): a per-base
// provider cache with a consistency guard, plus deterministic batching.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

const defaultBatchSize = 100

// ProviderFactory constructs the provider named by cfg.Provider.
type ProviderFactory func(cfg domain.EmbeddingConfig) (driven.EmbeddingProvider, error)

// Engine caches exactly one provider per base and guarantees the provider's
// identity (name, model, dimensions) never silently drifts from the base's
// recorded configuration.
type Engine struct {
	factory ProviderFactory

	mu        sync.Mutex
	providers map[string]driven.EmbeddingProvider
	configs   map[string]domain.EmbeddingConfig
}

// NewEngine builds an Engine that constructs providers via factory.
func NewEngine(factory ProviderFactory) *Engine {
	return &Engine{
		factory:   factory,
		providers: make(map[string]driven.EmbeddingProvider),
		configs:   make(map[string]domain.EmbeddingConfig),
	}
}

// providerFor lazily instantiates and caches the provider for base, or
// validates that a previously cached provider still matches cfg.
func (e *Engine) providerFor(base string, cfg domain.EmbeddingConfig) (driven.EmbeddingProvider, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.configs[base]; ok {
		if existing.Provider != cfg.Provider || existing.Model != cfg.Model || existing.Dimensions != cfg.Dimensions {
			return nil, ragerr.Wrap(ragerr.KindConfig,
				fmt.Sprintf("base %q embedding config changed (had %s/%s/%d, requested %s/%s/%d); clean and re-learn to change providers",
					base, existing.Provider, existing.Model, existing.Dimensions, cfg.Provider, cfg.Model, cfg.Dimensions),
				ragerr.ErrConfigMismatch)
		}
		return e.providers[base], nil
	}

	provider, err := e.factory(cfg)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.KindEmbedding, "construct embedding provider", err)
	}
	if provider.Dimensions() != cfg.Dimensions {
		return nil, ragerr.Wrap(ragerr.KindConfig,
			fmt.Sprintf("provider %s/%s produces dimension %d, base %q expects %d", cfg.Provider, cfg.Model, provider.Dimensions(), base, cfg.Dimensions),
			ragerr.ErrDimensionMismatch)
	}

	e.providers[base] = provider
	e.configs[base] = cfg
	return provider, nil
}

// Validate ensures a provider can be constructed for cfg and, if base
// already has a cached provider, that cfg still matches it. It performs no
// embedding work.
func (e *Engine) Validate(base string, cfg domain.EmbeddingConfig) error {
	_, err := e.providerFor(base, cfg)
	return err
}

// EmbedTexts embeds texts for base, splitting into batches of cfg.BatchSize
// (default 100) processed sequentially to keep deterministic ordering,
// while preserving input order in the result.
func (e *Engine) EmbedTexts(ctx context.Context, base string, cfg domain.EmbeddingConfig, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	provider, err := e.providerFor(base, cfg)
	if err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := provider.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, ragerr.Wrap(ragerr.KindEmbedding, fmt.Sprintf("embed batch [%d:%d)", start, end), err)
		}
		if len(vecs) != end-start {
			return nil, ragerr.New(ragerr.KindEmbedding, fmt.Sprintf("provider returned %d vectors for %d inputs", len(vecs), end-start))
		}

		if cfg.Normalize {
			for _, v := range vecs {
				normalizeInPlace(v)
			}
		}
		out = append(out, vecs...)
	}

	return out, nil
}

// EmbedChunks embeds the text of each chunk and assigns the resulting
// vector to Chunk.Embedding, returning the enriched slice.
func (e *Engine) EmbedChunks(ctx context.Context, base string, cfg domain.EmbeddingConfig, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vecs, err := e.EmbedTexts(ctx, base, cfg, texts)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = vecs[i]
		out[i] = c
	}
	return out, nil
}

func normalizeInPlace(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
