package driven

// WorkspacePaths exposes the workspace root and constructs the per-base and
// ambient paths described by the on-disk layout: a global config file, one
// directory per knowledge base, and a shared prompts directory.
type WorkspacePaths interface {
	// Root returns the workspace's root directory.
	Root() string

	// ConfigPath returns the path to the global config.yaml.
	ConfigPath() string

	// BasePath returns the directory for the named knowledge base,
	// "<root>/knowledge/<name>".
	BasePath(name string) string

	// BaseConfigPath returns "<root>/knowledge/<name>/config.yaml".
	BaseConfigPath(name string) string

	// SourcesPath returns "<root>/knowledge/<name>/sources.jsonl".
	SourcesPath(name string) string

	// StatsPath returns "<root>/knowledge/<name>/stats.json".
	StatsPath(name string) string

	// IndexPath returns the opaque vector-store directory for the named
	// base, "<root>/knowledge/<name>/index".
	IndexPath(name string) string

	// PromptsDir returns "<root>/prompts".
	PromptsDir() string

	// TasksDir returns "<root>/operation", the reserved directory for the
	// background task scheduler.
	TasksDir() string
}
