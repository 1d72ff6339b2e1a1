package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbase-labs/ragbase/internal/adapters/driven/config/file"
	"github.com/ragbase-labs/ragbase/internal/adapters/driven/workspace"
	"github.com/ragbase-labs/ragbase/internal/baseconfig"
	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driving"
	"github.com/ragbase-labs/ragbase/internal/embedding"
	"github.com/ragbase-labs/ragbase/internal/embedding/trigram"
	"github.com/ragbase-labs/ragbase/internal/vectorindex"
)

type stubLLM struct {
	answer string
}

func (s *stubLLM) Complete(_ context.Context, req driven.CompletionRequest) (driven.CompletionResult, error) {
	return driven.CompletionResult{Content: s.answer}, nil
}

func (s *stubLLM) CompleteStream(_ context.Context, _ driven.CompletionRequest, sink func(string, *driven.Usage) error) error {
	if err := sink(s.answer, nil); err != nil {
		return err
	}
	return sink("", &driven.Usage{})
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error  { return nil }
func (s *stubLLM) Close() error                 { return nil }

func newTestOrchestrator(t *testing.T) (*RagOrchestrator, *stubLLM) {
	t.Helper()
	root := t.TempDir()
	paths := workspace.New(root)
	configs := baseconfig.New(paths)
	engine := embedding.NewEngine(func(cfg domain.EmbeddingConfig) (driven.EmbeddingProvider, error) {
		return trigram.New(cfg.Dimensions), nil
	})
	llm := &stubLLM{answer: "the documented answer"}

	orch := NewRagOrchestrator(
		paths,
		configs,
		engine,
		func(dbPath string) (driven.VectorIndex, error) { return vectorindex.Open(dbPath) },
		func(domain.LLMConfig) (driven.LLMClient, error) { return llm, nil },
		file.NewPromptProvider(paths.PromptsDir()),
		nil,
	)
	return orch, llm
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOrchestratorLearnThenAsk(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	src := t.TempDir()
	writeSource(t, src, "intro.md", "# Onboarding\n\nNew engineers should read the architecture guide before their first commit.")
	writeSource(t, src, "deploy.md", "# Deployment\n\nDeploys run through the release pipeline every weekday morning.")

	result, err := orch.Learn(ctx, driving.LearnRequest{Base: "docs", Args: []string{src}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SourcesLearned)
	assert.Equal(t, 0, result.SourcesFailed)
	assert.Greater(t, result.ChunksIndexed, 0)

	stats, sources, err := orch.Stats(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSources)
	assert.Len(t, sources, 2)

	resp, err := orch.Ask(ctx, driving.AskRequest{Base: "docs", Query: "architecture guide onboarding"})
	require.NoError(t, err)
	assert.Equal(t, "the documented answer", resp.Answer)
	assert.NotEmpty(t, resp.Sources)
}

func TestOrchestratorAskWithNoMatchesReturnsCanonicalAnswer(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	src := t.TempDir()
	writeSource(t, src, "a.md", "completely unrelated filler content about nothing in particular")

	_, err := orch.Learn(ctx, driving.LearnRequest{Base: "empty", Args: []string{src}})
	require.NoError(t, err)

	resp, err := orch.Ask(ctx, driving.AskRequest{
		Base:  "empty",
		Query: "xyzzy unrelated query",
	})
	require.NoError(t, err)
	if resp.Answer == noInformationAnswer {
		assert.Empty(t, resp.Sources)
	}
}

func TestOrchestratorCleanPreservesConfig(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	src := t.TempDir()
	writeSource(t, src, "a.md", "some content for the knowledge base")

	_, err := orch.Learn(ctx, driving.LearnRequest{Base: "b1", Args: []string{src}})
	require.NoError(t, err)

	require.NoError(t, orch.Clean(ctx, "b1"))

	stats, sources, err := orch.Stats(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalSources)
	assert.Empty(t, sources)

	cfg, err := orch.configs.LoadBase("b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", cfg.Name)
}

func TestOrchestratorLearnResetClearsPriorState(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	src := t.TempDir()
	writeSource(t, src, "a.md", "first pass content")

	_, err := orch.Learn(ctx, driving.LearnRequest{Base: "b2", Args: []string{src}})
	require.NoError(t, err)

	src2 := t.TempDir()
	writeSource(t, src2, "b.md", "second pass content only")

	result, err := orch.Learn(ctx, driving.LearnRequest{Base: "b2", Args: []string{src2}, Reset: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SourcesLearned)

	_, sources, err := orch.Stats(ctx, "b2")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Contains(t, sources[0].Path, "b.md")
}

func TestTruncateSnippetBreaksAtWhitespace(t *testing.T) {
	text := ""
	for i := 0; i < 40; i++ {
		text += "word "
	}
	snippet := truncateSnippet(text)
	assert.LessOrEqual(t, len(snippet), maxSnippetLength+3)
	assert.True(t, len(snippet) > 3 && snippet[len(snippet)-3:] == "...")
}

func TestExtractLocationPrefersLineRange(t *testing.T) {
	c := domain.Chunk{
		Metadata: domain.ChunkMetadata{LineRange: &domain.LineRange{Start: 3, End: 9}},
	}
	assert.Equal(t, "lines 3-9", extractLocation(c))
}

func TestExtractSourceNamePrefersCustomOverride(t *testing.T) {
	c := domain.Chunk{
		SourceID: "abc123",
		Metadata: domain.ChunkMetadata{
			FileName: "fallback.txt",
			Custom:   map[string]string{"source_path": "notes/real.md"},
		},
	}
	assert.Equal(t, "notes/real.md", extractSourceName(c))
}

func TestMapChunksToSourcesDedupesByLocation(t *testing.T) {
	chunk := domain.Chunk{
		SourceID: "s1",
		Text:     "hello world",
		Metadata: domain.ChunkMetadata{FileName: "a.md", LineRange: &domain.LineRange{Start: 1, End: 2}},
	}
	scored := []driven.ScoredChunk{
		{Chunk: chunk, Score: 0.9},
		{Chunk: chunk, Score: 0.8},
	}
	refs := mapChunksToSources(scored)
	assert.Len(t, refs, 1)
}
