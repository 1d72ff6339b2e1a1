package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
)

func TestPromptProvider_ImplementsInterface(t *testing.T) {
	var _ driven.PromptProvider = (*PromptProvider)(nil)
}

func TestPromptProvider_RendersBuiltinRagSynthesis(t *testing.T) {
	p := NewPromptProvider(t.TempDir())

	system, user, err := p.Render(driven.RagSynthesisTemplate, map[string]any{
		"query":          "what does foo do?",
		"context":        "foo returns bar",
		"low_confidence": false,
	})

	require.NoError(t, err)
	assert.Contains(t, user, "what does foo do?")
	assert.Contains(t, user, "foo returns bar")
	assert.Contains(t, system, "your own knowledge")
	assert.Contains(t, system, "Never use the words \"chunks\"")
}

func TestPromptProvider_LowConfidenceAddsHedgeInstruction(t *testing.T) {
	p := NewPromptProvider(t.TempDir())

	system, _, err := p.Render(driven.RagSynthesisTemplate, map[string]any{
		"query":          "q",
		"context":        "c",
		"low_confidence": true,
	})

	require.NoError(t, err)
	assert.Contains(t, system, "Hedge")
}

func TestPromptProvider_CreatesDefaultFileOnFirstRender(t *testing.T) {
	dir := t.TempDir()
	p := NewPromptProvider(dir)

	_, _, err := p.Render(driven.RagSynthesisTemplate, map[string]any{"query": "q", "context": "c"})
	require.NoError(t, err)

	path := filepath.Join(dir, driven.RagSynthesisTemplate+".yml")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestPromptProvider_CustomFileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	custom := "system: \"custom system\"\nuser: \"custom user: {{.query}}\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.RagSynthesisTemplate+".yml"), []byte(custom), 0o600))

	p := NewPromptProvider(dir)
	system, user, err := p.Render(driven.RagSynthesisTemplate, map[string]any{"query": "hello"})

	require.NoError(t, err)
	assert.Equal(t, "custom system", system)
	assert.Equal(t, "custom user: hello", user)
}

func TestPromptProvider_UnknownTemplateErrors(t *testing.T) {
	p := NewPromptProvider(t.TempDir())
	_, _, err := p.Render("nonexistent", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestPromptProvider_ReloadPicksUpDiskChanges(t *testing.T) {
	dir := t.TempDir()
	p := NewPromptProvider(dir)

	_, _, err := p.Render(driven.RagSynthesisTemplate, map[string]any{"query": "q", "context": "c"})
	require.NoError(t, err)

	path := filepath.Join(dir, driven.RagSynthesisTemplate+".yml")
	require.NoError(t, os.WriteFile(path, []byte("system: \"s2\"\nuser: \"u2\"\n"), 0o600))

	p.Reload()
	system, user, err := p.Render(driven.RagSynthesisTemplate, nil)
	require.NoError(t, err)
	assert.Equal(t, "s2", system)
	assert.Equal(t, "u2", user)
}

func TestPromptProvider_DoesNotOverwriteExistingFile(t *testing.T) {
	dir := t.TempDir()
	custom := "system: \"preexisting\"\nuser: \"u\"\n"
	path := filepath.Join(dir, driven.RagSynthesisTemplate+".yml")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o600))

	p := NewPromptProvider(dir)
	_, _, err := p.Render(driven.RagSynthesisTemplate, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptProvider_ConcurrentRenderIsSafe(t *testing.T) {
	p := NewPromptProvider(t.TempDir())

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, _, err := p.Render(driven.RagSynthesisTemplate, map[string]any{"query": "q", "context": "c"})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}
