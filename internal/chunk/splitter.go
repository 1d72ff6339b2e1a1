package chunk

import (
	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// Config carries the tunables that drive splitting and post-processing.
// Defaults mirror §4.2: target ≈512, hard max ≈2048, overlap ≈64.
type Config struct {
	TargetChunkSize int
	MaxChunkSize    int
	MinChunkSize    int
	Overlap         int

	// RespectSemantics toggles boundary-aware splitting; when false, splitters
	// degrade to the fallback strategy.
	RespectSemantics bool

	// PreserveCodeBlocks keeps fenced code blocks intact in the text splitter
	// when feasible, rather than letting them straddle a chunk boundary.
	PreserveCodeBlocks bool
}

// DefaultConfig returns the spec's starting-point tunables.
func DefaultConfig() Config {
	return Config{
		TargetChunkSize:    512,
		MaxChunkSize:       2048,
		MinChunkSize:       64,
		Overlap:            64,
		RespectSemantics:   true,
		PreserveCodeBlocks: true,
	}
}

// splitResult is one piece produced by a splitter, prior to metadata
// enrichment and position assignment by the pipeline.
type splitResult struct {
	Text         string
	ByteStart    int
	ByteEnd      int
	LineRange    *domain.LineRange
	SplitterUsed domain.SplitterUsed
}

// splitter is the contract every strategy satisfies: given source text,
// produce an ordered sequence of pieces whose texts partition the input up
// to intentional overlap, never breaking UTF-8 boundaries.
type splitter interface {
	split(text string, cfg Config) ([]splitResult, error)
}

// dispatch picks the splitter strategy for a ContentType, per §4.2: Text
// splitter for Text/Markdown/Html/Pdf, code splitter for Code(lang), and the
// grapheme-safe fallback for Unknown or on a strategy error.
func dispatch(ct domain.ContentType) splitter {
	switch ct.Kind {
	case domain.ContentCode:
		return &codeSplitter{lang: ct.Lang}
	case domain.ContentText, domain.ContentMarkdown, domain.ContentHTML, domain.ContentPDF:
		return &textSplitter{}
	default:
		return &fallbackSplitter{}
	}
}
