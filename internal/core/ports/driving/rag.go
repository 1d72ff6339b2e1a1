// Package driving provides interfaces implemented by the core and called
// by driving/primary adapters (CLI, future API surfaces).
package driving

import (
	"context"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/progress"
)

// RagOrchestrator coordinates the four knowledge-base flows: learning
// sources into a base, asking a question against one, clearing a base's
// index while preserving its configuration, and reporting its statistics.
type RagOrchestrator interface {
	// Learn ingests req.Args into req.Base, embedding and indexing every
	// chunk produced. Returns aggregate counts for the pass.
	Learn(ctx context.Context, req LearnRequest) (LearnResult, error)

	// Ask answers req.Query against req.Base's indexed knowledge.
	Ask(ctx context.Context, req AskRequest) (domain.RagResponse, error)

	// Clean drops a base's index table and source log while preserving its
	// configuration, so a subsequent learn reuses the same settings.
	Clean(ctx context.Context, base string) error

	// Stats reports a base's aggregate statistics and its tracked sources.
	Stats(ctx context.Context, base string) (domain.BaseStats, []domain.KnowledgeSource, error)
}

// LearnRequest describes one learn invocation.
type LearnRequest struct {
	Base    string
	Args    []string
	Reset   bool
	Include []string
	Exclude []string

	// Embedding overrides the base's stored embedding configuration. Nil
	// means "use whatever the base is already configured with, or the
	// package default for a brand new base."
	Embedding *domain.EmbeddingConfig

	Progress progress.Sink
}

// LearnResult aggregates the outcome of one learn pass.
type LearnResult struct {
	SourcesLearned int
	SourcesFailed  int
	ChunksIndexed  int
}

// AskRequest describes one ask invocation.
type AskRequest struct {
	Base    string
	Query   string
	TopK    int
	Filters *driven.Filters
	Stream  bool

	// StreamSink receives each text fragment as it arrives when Stream is
	// true. Ignored otherwise.
	StreamSink func(delta string) error
}
