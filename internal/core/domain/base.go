package domain

import "time"

// SourceKind is the closed set of ways a knowledge source can be ingested.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
	SourceZip  SourceKind = "zip"
)

// KnowledgeSource is an append-only record of one ingested source. Once
// written to sources.jsonl it is never mutated.
type KnowledgeSource struct {
	SourceID   string     `json:"source_id"`
	Path       string     `json:"path"`
	Type       SourceKind `json:"type"`
	IndexedAt  time.Time  `json:"indexed_at"`
	ChunkCount int        `json:"chunk_count"`
	ByteCount  int64      `json:"byte_count"`
}

// EmbeddingConfig is the embedding portion of a BaseConfig.
type EmbeddingConfig struct {
	Provider       string         `yaml:"provider"`
	Model          string         `yaml:"model"`
	Dimensions     int            `yaml:"dimensions"`
	Normalize      bool           `yaml:"normalize"`
	BatchSize      int            `yaml:"batch_size"`
	ProviderConfig map[string]any `yaml:"provider_config,omitempty"`
}

// BaseConfig is a base's on-disk configuration. Immutable once an index
// exists for the base except via clean + re-learn.
type BaseConfig struct {
	Name             string          `yaml:"name"`
	Embedding        EmbeddingConfig `yaml:"embedding"`
	ChunkSize        int             `yaml:"chunk_size"`
	ChunkOverlap     int             `yaml:"chunk_overlap"`
	MaxContextTokens int             `yaml:"max_context_tokens"`

	// MinRelevanceScore overrides the retrieval cutoff for this base. Zero
	// means "use the provider-appropriate default" (see the rag package).
	MinRelevanceScore float64 `yaml:"min_relevance_score,omitempty"`
}

// BaseStats is a base's aggregate statistics, overwritten on every learn.
type BaseStats struct {
	BaseName          string    `json:"base_name"`
	LastLearnAt       time.Time `json:"last_learn_at"`
	TotalSources      int       `json:"total_sources"`
	TotalChunks       int       `json:"total_chunks"`
	TotalBytes        int64     `json:"total_bytes"`
	EmbeddingProvider string    `json:"embedding_provider"`
	EmbeddingModel    string    `json:"embedding_model"`

	// DiskBytes is the base directory's total on-disk size, computed fresh
	// on every stats flow rather than cached.
	DiskBytes int64 `json:"disk_bytes"`
}

// LLMConfig selects and configures the LLM collaborator used for the ask
// flow's synthesis step. APIKeyEnv names an environment variable rather
// than carrying the credential itself, matching the embedding provider's
// provider_config convention.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKeyEnv   string  `yaml:"api_key_env,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
}

// GlobalConfig is the workspace-wide config.yaml: which embedding provider
// is active by default, the LLM collaborator configuration, and where each
// provider's credential lives (an environment variable name, never the
// secret itself).
type GlobalConfig struct {
	ActiveEmbeddingProvider string            `yaml:"active_embedding_provider"`
	ProviderCredentialsRef  map[string]string `yaml:"provider_credentials_ref,omitempty"`
	LLM                     LLMConfig         `yaml:"llm"`
}

// RagSourceRef is one human-readable source reference backing an answer.
type RagSourceRef struct {
	Source   string `json:"source"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
}

// RagResponse is the result of an ask flow. MaxScore and LowConfidence are
// diagnostics excluded from user-facing JSON serialization.
type RagResponse struct {
	Answer        string         `json:"answer"`
	Sources       []RagSourceRef `json:"sources"`
	MaxScore      float64        `json:"-"`
	LowConfidence bool           `json:"-"`
}
