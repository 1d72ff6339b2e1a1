// Package services implements the core's driving-port contracts: the RAG
// orchestrator that wires content detection, chunking, embedding, vector
// search, and LLM synthesis into the learn/ask/clean/stats flows.
package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ragbase-labs/ragbase/internal/baseconfig"
	"github.com/ragbase-labs/ragbase/internal/chunk"
	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driving"
	"github.com/ragbase-labs/ragbase/internal/discover"
	"github.com/ragbase-labs/ragbase/internal/embedding"
	"github.com/ragbase-labs/ragbase/internal/lock"
	"github.com/ragbase-labs/ragbase/internal/logger"
	"github.com/ragbase-labs/ragbase/internal/parse"
	"github.com/ragbase-labs/ragbase/internal/progress"
	"github.com/ragbase-labs/ragbase/internal/ragerr"
	"github.com/ragbase-labs/ragbase/internal/sourcetracker"
)

const (
	batchSize = 10

	minRelevanceScoreDeterministic = 0.20
	minRelevanceScoreModelBacked   = 0.30
	confidenceThreshold            = 0.30
	maxSnippetLength               = 150
	failureAbortRatio              = 0.5
	defaultTopK                    = 5

	noInformationAnswer = "I could not find this information in the available documents."

	indexFileName = "vectors.db"
	lockFileName  = ".lock"
)

// IndexOpener opens the vector store for a base. Each flow opens its own
// handle rather than sharing one across calls.
type IndexOpener func(dbPath string) (driven.VectorIndex, error)

// LLMFactory constructs the LLM collaborator used to synthesize answers.
type LLMFactory func(cfg domain.LLMConfig) (driven.LLMClient, error)

var _ driving.RagOrchestrator = (*RagOrchestrator)(nil)

// RagOrchestrator coordinates learn, ask, clean, and stats for every base in
// a workspace, matching the teacher's constructor-injected-ports shape.
type RagOrchestrator struct {
	paths      driven.WorkspacePaths
	configs    *baseconfig.Store
	engine     *embedding.Engine
	openIndex  IndexOpener
	llmFactory LLMFactory
	prompts    driven.PromptProvider
	runner     parse.CommandRunner
}

// NewRagOrchestrator builds a RagOrchestrator from its collaborators.
func NewRagOrchestrator(
	paths driven.WorkspacePaths,
	configs *baseconfig.Store,
	engine *embedding.Engine,
	openIndex IndexOpener,
	llmFactory LLMFactory,
	prompts driven.PromptProvider,
	runner parse.CommandRunner,
) *RagOrchestrator {
	return &RagOrchestrator{
		paths:      paths,
		configs:    configs,
		engine:     engine,
		openIndex:  openIndex,
		llmFactory: llmFactory,
		prompts:    prompts,
		runner:     runner,
	}
}

// pendingSource tracks how many of a freshly-chunked source's chunks are
// still waiting in the flush buffer; its source record is appended to
// sources.jsonl only once every one of its chunks has been embedded and
// upserted.
type pendingSource struct {
	source    domain.KnowledgeSource
	remaining int
}

// Learn implements the learn flow (spec §4.7): discover, parse, chunk,
// embed, and index every source named by req, isolating per-source
// failures so one bad file does not abort the whole pass.
func (o *RagOrchestrator) Learn(ctx context.Context, req driving.LearnRequest) (driving.LearnResult, error) {
	var result driving.LearnResult

	basePath := o.paths.BasePath(req.Base)
	fileLock := lock.New(filepath.Join(basePath, lockFileName))
	if err := fileLock.Acquire(ctx); err != nil {
		return result, err
	}
	defer fileLock.Release()

	cfg, err := o.configs.LoadBase(req.Base)
	if err != nil {
		return result, err
	}
	if req.Embedding != nil {
		cfg.Embedding = *req.Embedding
	}
	applyConfigDefaults(&cfg)

	if err := o.engine.Validate(req.Base, cfg.Embedding); err != nil {
		return result, err
	}

	tracker := sourcetracker.New(basePath)
	dbPath := filepath.Join(o.paths.IndexPath(req.Base), indexFileName)

	if req.Reset {
		idx, err := o.openIndex(dbPath)
		if err != nil {
			return result, err
		}
		resetErr := idx.Reset(ctx)
		closeErr := idx.Close()
		if resetErr != nil {
			return result, resetErr
		}
		if closeErr != nil {
			return result, closeErr
		}
		if err := tracker.Clear(); err != nil {
			return result, err
		}
		if err := os.Remove(o.paths.StatsPath(req.Base)); err != nil && !os.IsNotExist(err) {
			return result, ragerr.Wrap(ragerr.KindIO, "delete stats", err)
		}
	}

	if err := o.configs.SaveBase(cfg); err != nil {
		return result, err
	}

	idx, err := o.openIndex(dbPath)
	if err != nil {
		return result, err
	}
	defer idx.Close()

	reporter := progress.New(req.Progress)

	candidates, err := discover.Sources(ctx, req.Args, discover.Options{Include: req.Include, Exclude: req.Exclude})
	if err != nil {
		return result, err
	}
	total := uint64(len(candidates))
	reporter.Discover(total, &total, strings.Join(req.Args, ", "))

	pipelineCfg := chunk.DefaultConfig()
	pipelineCfg.TargetChunkSize = cfg.ChunkSize
	pipelineCfg.Overlap = cfg.ChunkOverlap
	pipeline := chunk.NewPipeline(pipelineCfg)

	pendingMeta := make(map[string]*pendingSource)
	var pendingOrder []string
	var pendingChunks []domain.Chunk

	flush := func(n int) error {
		if n <= 0 || n > len(pendingChunks) {
			n = len(pendingChunks)
		}
		if n == 0 {
			return nil
		}
		batch := pendingChunks[:n]

		embedded, err := o.engine.EmbedChunks(ctx, req.Base, cfg.Embedding, batch)
		if err != nil {
			return err
		}
		if err := idx.Upsert(ctx, embedded); err != nil {
			return err
		}
		reporter.Embed(uint64(len(embedded)), nil, cfg.Embedding.Model)
		reporter.Index(uint64(len(embedded)), nil)
		result.ChunksIndexed += len(embedded)

		for _, c := range embedded {
			if meta, ok := pendingMeta[c.SourceID]; ok {
				meta.remaining--
			}
		}

		// Sources become fully embedded strictly in the order their chunks
		// were appended to pendingChunks (a FIFO queue drained by prefix),
		// so draining pendingOrder front-to-back and stopping at the first
		// not-yet-complete source tracks every finished source in candidate
		// order, never map-iteration order.
		for len(pendingOrder) > 0 {
			id := pendingOrder[0]
			meta, ok := pendingMeta[id]
			if !ok || meta.remaining > 0 {
				break
			}
			if err := tracker.Track(meta.source); err != nil {
				return err
			}
			result.SourcesLearned++
			delete(pendingMeta, id)
			pendingOrder = pendingOrder[1:]
		}

		pendingChunks = pendingChunks[n:]
		return nil
	}

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return result, ragerr.Wrap(ragerr.KindCancelled, "learn", err)
		}

		current := uint64(i + 1)
		reporter.Parse(current, &total, cand.Path)

		raw, err := cand.Read()
		if err != nil {
			logger.Debug("skipping %s: %v", cand.Path, err)
			result.SourcesFailed++
			continue
		}

		ct := chunk.DetectContentType(cand.Path, raw)
		text, err := parse.Extract(ctx, o.runner, cand.Path, ct, raw)
		if err != nil {
			logger.Debug("skipping %s: %v", cand.Path, err)
			result.SourcesFailed++
			continue
		}

		logicalPath := cand.Path
		if cand.CustomSourcePath != "" {
			logicalPath = cand.CustomSourcePath
		}

		sourceID := uuid.New().String()
		chunks, err := pipeline.Process(sourceID, chunk.SourceInfo{
			Path:       logicalPath,
			SizeBytes:  cand.SizeBytes,
			ModifiedAt: cand.ModifiedAt,
		}, text)
		if err != nil {
			logger.Debug("skipping %s: %v", cand.Path, err)
			result.SourcesFailed++
			continue
		}
		if len(chunks) == 0 {
			continue
		}

		if cand.CustomSourcePath != "" {
			for j := range chunks {
				if chunks[j].Metadata.Custom == nil {
					chunks[j].Metadata.Custom = map[string]string{}
				}
				chunks[j].Metadata.Custom["source_path"] = cand.CustomSourcePath
				chunks[j].Metadata.Custom["archive_path"] = cand.Path
			}
		}

		reporter.Chunk(current, &total, len(chunks))

		pendingMeta[sourceID] = &pendingSource{
			remaining: len(chunks),
			source: domain.KnowledgeSource{
				SourceID:   sourceID,
				Path:       logicalPath,
				Type:       cand.Kind,
				IndexedAt:  time.Now().UTC(),
				ChunkCount: len(chunks),
				ByteCount:  cand.SizeBytes,
			},
		}
		pendingOrder = append(pendingOrder, sourceID)
		pendingChunks = append(pendingChunks, chunks...)

		for len(pendingChunks) >= batchSize {
			if err := flush(batchSize); err != nil {
				return result, err
			}
		}
	}

	if err := flush(len(pendingChunks)); err != nil {
		return result, err
	}

	allSources, err := tracker.List()
	if err != nil {
		return result, err
	}
	var totalBytes int64
	for _, s := range allSources {
		totalBytes += s.ByteCount
	}
	count, err := idx.Count(ctx)
	if err != nil {
		return result, err
	}
	diskBytes, err := diskUsage(basePath)
	if err != nil {
		return result, err
	}

	stats := domain.BaseStats{
		BaseName:          req.Base,
		LastLearnAt:       time.Now().UTC(),
		TotalSources:      len(allSources),
		TotalChunks:       count,
		TotalBytes:        totalBytes,
		EmbeddingProvider: cfg.Embedding.Provider,
		EmbeddingModel:    cfg.Embedding.Model,
		DiskBytes:         diskBytes,
	}
	if err := o.configs.SaveStats(stats); err != nil {
		return result, err
	}

	processed := result.SourcesLearned + result.SourcesFailed
	if processed > 0 && float64(result.SourcesFailed) > float64(processed)*failureAbortRatio {
		return result, ragerr.Wrap(ragerr.KindIO, "more than half of the sources in this pass failed", ragerr.ErrTooManyFailures)
	}

	return result, nil
}

// Ask implements the ask flow (spec §4.7): embed the query, search, filter
// by relevance, and synthesize an answer through the LLM collaborator, or
// return the canonical no-information answer when nothing survives.
func (o *RagOrchestrator) Ask(ctx context.Context, req driving.AskRequest) (domain.RagResponse, error) {
	cfg, err := o.configs.LoadBase(req.Base)
	if err != nil {
		return domain.RagResponse{}, err
	}
	applyConfigDefaults(&cfg)

	filters := driven.Filters{}
	if req.Filters != nil {
		filters = *req.Filters
	} else {
		filters = defaultFilters(req.Query)
	}

	vecs, err := o.engine.EmbedTexts(ctx, req.Base, cfg.Embedding, []string{req.Query})
	if err != nil {
		return domain.RagResponse{}, err
	}

	dbPath := filepath.Join(o.paths.IndexPath(req.Base), indexFileName)
	idx, err := o.openIndex(dbPath)
	if err != nil {
		return domain.RagResponse{}, err
	}
	defer idx.Close()

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	scored, err := idx.Search(ctx, vecs[0], topK, filters)
	if err != nil {
		return domain.RagResponse{}, err
	}

	minScore := minRelevanceScore(cfg)
	maxScore := -1.0
	var survivors []driven.ScoredChunk
	for _, s := range scored {
		if s.Score > maxScore {
			maxScore = s.Score
		}
		if s.Score >= minScore {
			survivors = append(survivors, s)
		}
	}
	if len(scored) == 0 {
		maxScore = 0
	}
	lowConfidence := maxScore < confidenceThreshold

	if len(survivors) == 0 {
		return domain.RagResponse{
			Answer:        noInformationAnswer,
			Sources:       []domain.RagSourceRef{},
			MaxScore:      maxScore,
			LowConfidence: lowConfidence,
		}, nil
	}

	texts := make([]string, len(survivors))
	for i, s := range survivors {
		texts[i] = s.Chunk.Text
	}
	renderedContext := strings.Join(texts, "\n---\n")

	system, user, err := o.prompts.Render(driven.RagSynthesisTemplate, map[string]any{
		"query":          req.Query,
		"context":        renderedContext,
		"low_confidence": lowConfidence,
	})
	if err != nil {
		return domain.RagResponse{}, err
	}

	global, err := o.configs.LoadGlobal()
	if err != nil {
		return domain.RagResponse{}, err
	}

	llm, err := o.llmFactory(global.LLM)
	if err != nil {
		return domain.RagResponse{}, err
	}
	defer llm.Close()

	completion := driven.CompletionRequest{
		System:      system,
		User:        user,
		Model:       global.LLM.Model,
		MaxTokens:   cfg.MaxContextTokens,
		Temperature: global.LLM.Temperature,
	}

	var answer string
	if req.Stream && req.StreamSink != nil {
		var sb strings.Builder
		err = llm.CompleteStream(ctx, completion, func(delta string, usage *driven.Usage) error {
			if delta == "" {
				return nil
			}
			sb.WriteString(delta)
			return req.StreamSink(delta)
		})
		if err != nil {
			return domain.RagResponse{}, err
		}
		answer = sb.String()
	} else {
		res, err := llm.Complete(ctx, completion)
		if err != nil {
			return domain.RagResponse{}, err
		}
		answer = res.Content
	}

	return domain.RagResponse{
		Answer:        answer,
		Sources:       mapChunksToSources(survivors),
		MaxScore:      maxScore,
		LowConfidence: lowConfidence,
	}, nil
}

// Clean implements the clean flow: drop the index table, delete the source
// log and stats file, preserve config.yaml so a subsequent learn reuses it.
func (o *RagOrchestrator) Clean(ctx context.Context, base string) error {
	fileLock := lock.New(filepath.Join(o.paths.BasePath(base), lockFileName))
	if err := fileLock.Acquire(ctx); err != nil {
		return err
	}
	defer fileLock.Release()

	dbPath := filepath.Join(o.paths.IndexPath(base), indexFileName)
	idx, err := o.openIndex(dbPath)
	if err != nil {
		return err
	}
	resetErr := idx.Reset(ctx)
	closeErr := idx.Close()
	if resetErr != nil {
		return resetErr
	}
	if closeErr != nil {
		return closeErr
	}

	if err := sourcetracker.New(o.paths.BasePath(base)).Clear(); err != nil {
		return err
	}
	if err := os.Remove(o.paths.StatsPath(base)); err != nil && !os.IsNotExist(err) {
		return ragerr.Wrap(ragerr.KindIO, "delete stats", err)
	}
	return nil
}

// Stats implements the stats flow: aggregate the index, the source log, the
// stats file, and on-disk size for base.
func (o *RagOrchestrator) Stats(ctx context.Context, base string) (domain.BaseStats, []domain.KnowledgeSource, error) {
	stats, err := o.configs.LoadStats(base)
	if err != nil {
		return domain.BaseStats{}, nil, err
	}

	sources, err := sourcetracker.New(o.paths.BasePath(base)).List()
	if err != nil {
		return domain.BaseStats{}, nil, err
	}

	dbPath := filepath.Join(o.paths.IndexPath(base), indexFileName)
	idx, err := o.openIndex(dbPath)
	if err != nil {
		return domain.BaseStats{}, nil, err
	}
	defer idx.Close()

	count, err := idx.Count(ctx)
	if err != nil {
		return domain.BaseStats{}, nil, err
	}
	stats.TotalChunks = count
	stats.TotalSources = len(sources)

	diskBytes, err := diskUsage(o.paths.BasePath(base))
	if err != nil {
		return domain.BaseStats{}, nil, err
	}
	stats.DiskBytes = diskBytes

	return stats, sources, nil
}

func applyConfigDefaults(cfg *domain.BaseConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = baseconfig.DefaultChunkSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = baseconfig.DefaultChunkOverlap
	}
	if cfg.MaxContextTokens == 0 {
		cfg.MaxContextTokens = baseconfig.DefaultMaxContextTokens
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = baseconfig.DefaultEmbeddingDim
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 100
	}
}

func minRelevanceScore(cfg domain.BaseConfig) float64 {
	if cfg.MinRelevanceScore > 0 {
		return cfg.MinRelevanceScore
	}
	if cfg.Embedding.Provider == "" || cfg.Embedding.Provider == "trigram" {
		return minRelevanceScoreDeterministic
	}
	return minRelevanceScoreModelBacked
}

// codeIndicators and docIndicators mirror detect_query_filters' keyword
// lists. ptIndicators are the same function's Portuguese question-word
// indicators; a query matching one of these is the only case that sets a
// language filter, so an English (or otherwise undetected) query imposes no
// language restriction and still matches code chunks (language "unknown").
var (
	codeIndicators = []string{"function", "class", "method", "code", "implementation", "api"}
	docIndicators  = []string{"how to", "what is", "explain", "guide", "tutorial", "documentation"}
	ptIndicators   = []string{"como", "qual", "o que", "por que", "onde", "quando"}
)

// defaultFilters ports detect_query_filters: keyword indicators pick a
// file-type preference (code vs. documentation), and a small set of
// Portuguese question words is the only trigger for a language filter, per
// step 2 of the ask flow.
func defaultFilters(query string) driven.Filters {
	var filters driven.Filters

	lower := strings.ToLower(query)

	if containsAny(lower, codeIndicators) {
		filters.FileTypes = []string{string(domain.ContentCode)}
	}
	if containsAny(lower, docIndicators) {
		filters.FileTypes = []string{string(domain.ContentMarkdown), string(domain.ContentText)}
	}
	if containsAny(lower, ptIndicators) {
		filters.Languages = []string{string(domain.LanguagePortuguese)}
	}

	return filters
}

func containsAny(s string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(s, ind) {
			return true
		}
	}
	return false
}

// mapChunksToSources builds RagSourceRefs from scored chunks, deduplicating
// by (source, location) via an order-preserving map so the first-seen
// snippet for a given location wins.
func mapChunksToSources(scored []driven.ScoredChunk) []domain.RagSourceRef {
	seen := make(map[string]bool)
	refs := make([]domain.RagSourceRef, 0, len(scored))
	for _, s := range scored {
		name := extractSourceName(s.Chunk)
		location := extractLocation(s.Chunk)
		key := name + "\x00" + location
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, domain.RagSourceRef{
			Source:   name,
			Location: location,
			Snippet:  truncateSnippet(s.Chunk.Text),
		})
	}
	return refs
}

// extractSourceName prefers the chunk's custom source-path override (set
// for zip-extracted content), then its resolved file name, then a
// filename-shaped fallback parsed off the chunk's source id, else the id's
// first 12 characters with an ellipsis.
func extractSourceName(c domain.Chunk) string {
	if custom := c.Metadata.Custom["source_path"]; custom != "" {
		return custom
	}
	if c.Metadata.FileName != "" {
		return c.Metadata.FileName
	}
	if strings.Contains(c.SourceID, ".") {
		return c.SourceID
	}
	if len(c.SourceID) > 12 {
		return c.SourceID[:12] + "..."
	}
	return c.SourceID
}

// extractLocation prefers a line range, then a byte range, else the
// chunk's position within its source.
func extractLocation(c domain.Chunk) string {
	if c.Metadata.LineRange != nil {
		return fmt.Sprintf("lines %d-%d", c.Metadata.LineRange.Start, c.Metadata.LineRange.End)
	}
	if c.Metadata.ByteRange.Start != 0 || c.Metadata.ByteRange.End != 0 {
		return fmt.Sprintf("byte offset %d-%d", c.Metadata.ByteRange.Start, c.Metadata.ByteRange.End)
	}
	return fmt.Sprintf("position %d", c.Position)
}

// truncateSnippet breaks at the last whitespace at or before
// maxSnippetLength, falling back to a hard rune-boundary cut when no
// whitespace exists in range.
func truncateSnippet(text string) string {
	if len(text) <= maxSnippetLength {
		return text
	}

	cut := maxSnippetLength
	if idx := strings.LastIndexAny(text[:cut], " \t\n"); idx > 0 {
		cut = idx
	} else {
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	return strings.TrimRight(text[:cut], " \t\n") + "..."
}

func diskUsage(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, ragerr.Wrap(ragerr.KindIO, "walk base directory", err)
	}
	return total, nil
}
