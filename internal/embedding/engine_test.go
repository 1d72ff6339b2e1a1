package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/embedding/trigram"
	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

func newTestEngine() *Engine {
	return NewEngine(func(cfg domain.EmbeddingConfig) (driven.EmbeddingProvider, error) {
		return trigram.New(cfg.Dimensions), nil
	})
}

func TestEngineEmbedTextsPreservesOrder(t *testing.T) {
	e := newTestEngine()
	cfg := domain.EmbeddingConfig{Provider: "trigram", Model: "trigram-v1", Dimensions: 64, BatchSize: 2}

	texts := []string{"alpha beta gamma", "delta epsilon zeta", "eta theta iota"}
	vecs, err := e.EmbedTexts(context.Background(), "base1", cfg, texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	direct := trigram.New(64)
	want, err := direct.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, want, vecs)
}

func TestEngineRejectsConfigDrift(t *testing.T) {
	e := newTestEngine()
	cfg1 := domain.EmbeddingConfig{Provider: "trigram", Model: "trigram-v1", Dimensions: 64}
	cfg2 := domain.EmbeddingConfig{Provider: "trigram", Model: "trigram-v2", Dimensions: 64}

	_, err := e.EmbedTexts(context.Background(), "base1", cfg1, []string{"hello"})
	require.NoError(t, err)

	_, err = e.EmbedTexts(context.Background(), "base1", cfg2, []string{"hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ragerr.ErrConfigMismatch)
}

func TestEngineValidateConstructsProviderWithoutEmbedding(t *testing.T) {
	e := newTestEngine()
	cfg := domain.EmbeddingConfig{Provider: "trigram", Model: "trigram-v1", Dimensions: 48}

	require.NoError(t, e.Validate("base3", cfg))

	drifted := cfg
	drifted.Model = "trigram-v2"
	err := e.Validate("base3", drifted)
	require.Error(t, err)
	assert.ErrorIs(t, err, ragerr.ErrConfigMismatch)
}

func TestEngineEmbedChunksAssignsVectors(t *testing.T) {
	e := newTestEngine()
	cfg := domain.EmbeddingConfig{Provider: "trigram", Model: "trigram-v1", Dimensions: 32}

	chunks := []domain.Chunk{{ID: "c1", Text: "hello world"}, {ID: "c2", Text: "goodbye world"}}
	out, err := e.EmbedChunks(context.Background(), "base2", cfg, chunks)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, c := range out {
		assert.Len(t, c.Embedding, 32)
	}
}
