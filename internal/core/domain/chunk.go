package domain

import "time"

// ByteRange is a half-open [Start, End) span within a source's byte content.
type ByteRange struct {
	Start int
	End   int
}

// LineRange is a 1-based, inclusive [Start, End] span within a source's
// lines. Populated only when the splitter can attribute chunk text to
// specific source lines (the code splitter always sets it).
type LineRange struct {
	Start int
	End   int
}

// SplitterUsed records provenance of which splitter strategy produced a
// chunk. The code path distinguishes three tiers so diagnostics can tell
// a syntax-node split from a hard fallback.
type SplitterUsed string

const (
	SplitterText       SplitterUsed = "text"
	SplitterCode       SplitterUsed = "code"
	SplitterCodeLarge  SplitterUsed = "code-large"
	SplitterCodeWhole  SplitterUsed = "code-whole"
	SplitterFallback   SplitterUsed = "fallback"
)

// ChunkMetadata is stored both as structured columns in the vector index and
// as a JSON extension blob for anything not promoted to a column.
type ChunkMetadata struct {
	// Classification.
	ContentType         ContentType
	Language            Language
	ProgrammingLanguage ProgrammingLanguage

	// Identity.
	SourcePath  string // logical path or URL
	FileName    string
	ContentHash string // sha256 hex of chunk text

	// Location.
	ByteRange  ByteRange
	LineRange  *LineRange
	CharCount  int
	TokenCount *int

	// File-level attributes.
	FileSizeBytes  int64
	FileLineCount  int
	FileModifiedAt time.Time

	// Tags derived from path conventions, e.g. "docs", "api", "test".
	Tags []string

	// Timestamps (Unix epoch, UTC).
	CreatedAt time.Time
	UpdatedAt time.Time

	// Provenance.
	SplitterUsed SplitterUsed

	// Custom is a free-form extension point, e.g. an override source path for
	// content extracted from a zip archive.
	Custom map[string]string
}

// Chunk is a contiguous piece of a source's text with identity and metadata.
// Invariant: for a given ingestion pass, (SourceID, Position) is unique and
// positions are contiguous starting at 0.
type Chunk struct {
	ID        string
	SourceID  string
	Position  int
	Text      string
	Metadata  ChunkMetadata
	Embedding []float32
}
