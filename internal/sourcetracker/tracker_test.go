package sourcetracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

func newSource(id, path string, chunks int, bytes int64) domain.KnowledgeSource {
	return domain.KnowledgeSource{
		SourceID:   id,
		Path:       path,
		Type:       domain.SourceFile,
		IndexedAt:  time.Now().UTC(),
		ChunkCount: chunks,
		ByteCount:  bytes,
	}
}

func TestTrackCreatesJSONL(t *testing.T) {
	tr := New(t.TempDir())
	require.NoError(t, tr.Track(newSource("id1", "test.md", 10, 1024)))
	_, err := os.Stat(tr.path)
	require.NoError(t, err)
}

func TestListParsesJSONLInOrder(t *testing.T) {
	tr := New(t.TempDir())
	require.NoError(t, tr.Track(newSource("id1", "test1.md", 5, 512)))
	require.NoError(t, tr.Track(newSource("id2", "test2.md", 8, 1024)))

	sources, err := tr.List()
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "test1.md", sources[0].Path)
	assert.Equal(t, "test2.md", sources[1].Path)
}

func TestClearDeletesFile(t *testing.T) {
	tr := New(t.TempDir())
	require.NoError(t, tr.Track(newSource("id1", "test.md", 10, 1024)))
	_, err := os.Stat(tr.path)
	require.NoError(t, err)

	require.NoError(t, tr.Clear())
	_, err = os.Stat(tr.path)
	assert.True(t, os.IsNotExist(err))
}

func TestClearIsNoOpWhenFileAbsent(t *testing.T) {
	tr := New(t.TempDir())
	assert.NoError(t, tr.Clear())
}

func TestListEmptyWhenNoFile(t *testing.T) {
	tr := New(t.TempDir())
	sources, err := tr.List()
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestTrackMultipleSourcesAppends(t *testing.T) {
	tr := New(t.TempDir())
	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Track(newSource("id", "test.md", i, int64(i*100))))
	}

	sources, err := tr.List()
	require.NoError(t, err)
	assert.Len(t, sources, 5)
}

func TestListSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	tr := New(dir)
	require.NoError(t, tr.Track(newSource("id1", "a.md", 1, 10)))

	f, err := os.OpenFile(filepath.Join(dir, "sources.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sources, err := tr.List()
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}
