package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// SourceInfo carries the file-level attributes the pipeline needs to enrich
// chunk metadata, independent of how the bytes were obtained (local file,
// URL fetch, or zip entry).
type SourceInfo struct {
	Path        string
	SizeBytes   int64
	ModifiedAt  time.Time
}

// Pipeline implements the single contract of §4.2: given (text, sourceID,
// optional path), produce an ordered list of Chunks whose texts partition
// the input up to intentional overlap, never break UTF-8 boundaries, and
// respect the configured target size.
type Pipeline struct {
	cfg Config
}

// NewPipeline builds a Pipeline with the given tunables. When
// TargetChunkSize is not positive, all four size fields are replaced by
// DefaultConfig's values; otherwise cfg is used as given.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.TargetChunkSize <= 0 {
		d := DefaultConfig()
		cfg.TargetChunkSize, cfg.MaxChunkSize, cfg.MinChunkSize, cfg.Overlap = d.TargetChunkSize, d.MaxChunkSize, d.MinChunkSize, d.Overlap
	}
	return &Pipeline{cfg: cfg}
}

// Process detects the content type, dispatches to the matching splitter,
// post-processes chunk sizes, and enriches every chunk with metadata.
// A splitter error falls back to the grapheme-safe strategy rather than
// aborting the source (§4.2 failure semantics are enforced by the caller,
// which isolates a source that still fails after the fallback).
func (p *Pipeline) Process(sourceID string, info SourceInfo, text string) ([]domain.Chunk, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("chunk: source %s is not valid UTF-8", info.Path)
	}

	ct := DetectContentType(info.Path, []byte(text))
	lang := DetectLanguage(ct, []byte(text))
	tags := DeriveTags(info.Path)

	s := dispatch(ct)
	pieces, err := s.split(text, p.cfg)
	if err != nil {
		pieces, err = (&fallbackSplitter{}).split(text, p.cfg)
		if err != nil {
			return nil, fmt.Errorf("chunk: fallback split failed for %s: %w", info.Path, err)
		}
	}

	pieces = postProcess(pieces, p.cfg)

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		hash := sha256.Sum256([]byte(piece.Text))
		meta := domain.ChunkMetadata{
			ContentType:         ct,
			Language:            lang,
			ProgrammingLanguage: ct.Lang,
			SourcePath:          info.Path,
			FileName:            baseName(info.Path),
			ContentHash:         hex.EncodeToString(hash[:]),
			ByteRange:           domain.ByteRange{Start: piece.ByteStart, End: piece.ByteEnd},
			LineRange:           piece.LineRange,
			CharCount:           utf8.RuneCountInString(piece.Text),
			FileSizeBytes:       info.SizeBytes,
			FileLineCount:       strings.Count(text, "\n") + 1,
			FileModifiedAt:      info.ModifiedAt,
			Tags:                tags,
			CreatedAt:           now,
			UpdatedAt:           now,
			SplitterUsed:        piece.SplitterUsed,
		}
		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			SourceID: sourceID,
			Position: i,
			Text:     piece.Text,
			Metadata: meta,
		})
	}

	return chunks, nil
}

func baseName(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// postProcess enforces §4.2's size rules: chunks smaller than MinChunkSize
// merge into the previous chunk (unless they're the last chunk); chunks
// exceeding MaxChunkSize are re-split through the fallback splitter.
// Ported from the original's post_process_chunks.
func postProcess(pieces []splitResult, cfg Config) []splitResult {
	if len(pieces) == 0 {
		return pieces
	}

	var out []splitResult
	for i, piece := range pieces {
		isLast := i == len(pieces)-1

		if len(piece.Text) < cfg.MinChunkSize && !isLast && len(out) > 0 {
			out[len(out)-1] = mergeTwo(out[len(out)-1], piece)
			continue
		}

		if len(piece.Text) > cfg.MaxChunkSize {
			out = append(out, splitOversized(piece, cfg)...)
			continue
		}

		if len(out) > 0 && shouldMerge(out[len(out)-1], piece, cfg) {
			out[len(out)-1] = mergeTwo(out[len(out)-1], piece)
			continue
		}

		out = append(out, piece)
	}

	return out
}

func shouldMerge(a, b splitResult, cfg Config) bool {
	combined := len(a.Text) + 1 + len(b.Text)
	return combined <= cfg.TargetChunkSize*2 && len(a.Text) < cfg.TargetChunkSize && len(b.Text) < cfg.TargetChunkSize
}

func mergeTwo(a, b splitResult) splitResult {
	merged := a
	merged.Text = a.Text + "\n" + b.Text
	merged.ByteEnd = b.ByteEnd
	if a.LineRange != nil && b.LineRange != nil {
		merged.LineRange = &domain.LineRange{Start: a.LineRange.Start, End: b.LineRange.End}
	}
	return merged
}

// splitOversized walks the oversized piece in TargetChunkSize steps,
// preferring a word-boundary break and always landing on a UTF-8 char
// boundary (P8).
func splitOversized(piece splitResult, cfg Config) []splitResult {
	target := cfg.TargetChunkSize
	text := piece.Text
	var out []splitResult
	start := 0

	for start < len(text) {
		end := start + target
		if end >= len(text) {
			end = len(text)
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			if idx := strings.LastIndexAny(text[start:end], " \t\n"); idx > 0 {
				candidate := start + idx
				if candidate > start {
					end = candidate
				}
			}
		}
		if end <= start {
			end = len(text)
		}

		chunkText := strings.TrimSpace(text[start:end])
		if chunkText != "" {
			out = append(out, splitResult{
				Text:         chunkText,
				ByteStart:    piece.ByteStart + start,
				ByteEnd:      piece.ByteStart + end,
				LineRange:    piece.LineRange,
				SplitterUsed: piece.SplitterUsed,
			})
		}
		start = end
	}

	return out
}
