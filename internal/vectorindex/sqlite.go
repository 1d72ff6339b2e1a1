// Package vectorindex implements the vector index (C6): a named table per
// base with columnar metadata, exact cosine similarity search over a
// metadata-filtered candidate set, and deterministic tie-breaking.
package vectorindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/ragerr"
	"github.com/ragbase-labs/ragbase/internal/vectorindex/migrations"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index is the SQLite-backed vector index for a single base.
type Index struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the vector index database at dbPath,
// in WAL mode for concurrent readers during a writer's upsert.
func Open(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, ragerr.Wrap(ragerr.KindIO, "create index directory", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, ragerr.Wrap(ragerr.KindIndex, "open sqlite index", err)
	}

	idx := &Index{db: db, path: dbPath}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) migrate() error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return ragerr.Wrap(ragerr.KindIndex, "read migrations", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		contents, err := migrations.FS.ReadFile(name)
		if err != nil {
			return ragerr.Wrap(ragerr.KindIndex, fmt.Sprintf("read migration %s", name), err)
		}
		if _, err := idx.db.Exec(string(contents)); err != nil {
			return ragerr.Wrap(ragerr.KindIndex, fmt.Sprintf("apply migration %s", name), err)
		}
	}
	return nil
}

// Upsert inserts or replaces chunks. Every chunk must carry a non-nil
// Embedding; dimension consistency across a base is the engine's
// responsibility, not the index's.
func (idx *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.Wrap(ragerr.KindIndex, "begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks
			(id, source_id, position, text, embedding, content_type, language, prog_language, source_path, file_name, tags, created_at, metadata_extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ragerr.Wrap(ragerr.KindIndex, "prepare upsert", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		tagsJSON, err := json.Marshal(c.Metadata.Tags)
		if err != nil {
			return ragerr.Wrap(ragerr.KindIndex, "marshal tags", err)
		}
		metaJSON, err := json.Marshal(c.Metadata)
		if err != nil {
			return ragerr.Wrap(ragerr.KindIndex, "marshal metadata", err)
		}

		_, err = stmt.ExecContext(ctx,
			c.ID, c.SourceID, c.Position, c.Text, float32SliceToBytes(c.Embedding),
			string(c.Metadata.ContentType.Kind), string(c.Metadata.Language), string(c.Metadata.ProgrammingLanguage),
			c.Metadata.SourcePath, c.Metadata.FileName, string(tagsJSON), c.Metadata.CreatedAt.Unix(), string(metaJSON),
		)
		if err != nil {
			return ragerr.Wrap(ragerr.KindIndex, fmt.Sprintf("upsert chunk %s", c.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ragerr.Wrap(ragerr.KindIndex, "commit upsert", err)
	}
	return nil
}

// Search returns the top_k chunks by cosine similarity among candidates
// passing filters. Ties in score are broken by source_id then position,
// so repeated searches over an unchanged index are reproducible (P6).
func (idx *Index) Search(ctx context.Context, query []float32, topK int, filters driven.Filters) ([]driven.ScoredChunk, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, source_id, position, text, embedding, content_type, language, tags, created_at, metadata_extra
		FROM chunks
	`)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.KindRetrieval, "query chunks", err)
	}
	defer rows.Close()

	var candidates []driven.ScoredChunk
	for rows.Next() {
		var (
			id, sourceID, text, contentType, language, tagsJSON, metaJSON string
			position                                                     int
			createdAt                                                    int64
			embeddingBlob                                                []byte
		)
		if err := rows.Scan(&id, &sourceID, &position, &text, &embeddingBlob, &contentType, &language, &tagsJSON, &createdAt, &metaJSON); err != nil {
			return nil, ragerr.Wrap(ragerr.KindRetrieval, "scan chunk row", err)
		}

		var tags []string
		_ = json.Unmarshal([]byte(tagsJSON), &tags)

		if !passesFilters(filters, contentType, language, tags, createdAt) {
			continue
		}

		var meta domain.ChunkMetadata
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, ragerr.Wrap(ragerr.KindRetrieval, "unmarshal chunk metadata", err)
		}

		embedding := bytesToFloat32Slice(embeddingBlob)
		chunk := domain.Chunk{ID: id, SourceID: sourceID, Position: position, Text: text, Metadata: meta, Embedding: embedding}
		score := cosineSimilarity(query, embedding)
		candidates = append(candidates, driven.ScoredChunk{Chunk: chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, ragerr.Wrap(ragerr.KindRetrieval, "iterate chunk rows", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Chunk.SourceID != candidates[j].Chunk.SourceID {
			return candidates[i].Chunk.SourceID < candidates[j].Chunk.SourceID
		}
		return candidates[i].Chunk.Position < candidates[j].Chunk.Position
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func passesFilters(f driven.Filters, contentType, language string, tags []string, createdAt int64) bool {
	if len(f.FileTypes) > 0 && !contains(f.FileTypes, contentType) {
		return false
	}
	if len(f.Languages) > 0 && !contains(f.Languages, language) {
		return false
	}
	if len(f.Tags) > 0 {
		for _, want := range f.Tags {
			if !contains(tags, want) {
				return false
			}
		}
	}
	if f.CreatedAfter != nil && createdAt <= *f.CreatedAfter {
		return false
	}
	return true
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// Reset drops every row, required before a dimension change.
func (idx *Index) Reset(ctx context.Context) error {
	if _, err := idx.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return ragerr.Wrap(ragerr.KindIndex, "reset index", err)
	}
	return nil
}

// Count returns the number of chunk rows currently stored.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, ragerr.Wrap(ragerr.KindIndex, "count chunks", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
