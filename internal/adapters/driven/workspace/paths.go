// Package workspace provides the file-based WorkspacePaths adapter: a small
// struct wrapping a workspace root that joins together the on-disk layout
// consumed by every other file-based adapter.
package workspace

import (
	"path/filepath"

	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
)

var _ driven.WorkspacePaths = (*Paths)(nil)

// Paths resolves the workspace layout rooted at a single directory.
type Paths struct {
	root string
}

// New returns a Paths rooted at root. root is not created here; callers
// create directories lazily as they're written to.
func New(root string) *Paths {
	return &Paths{root: root}
}

func (p *Paths) Root() string {
	return p.root
}

func (p *Paths) ConfigPath() string {
	return filepath.Join(p.root, "config.yaml")
}

func (p *Paths) BasePath(name string) string {
	return filepath.Join(p.root, "knowledge", name)
}

func (p *Paths) BaseConfigPath(name string) string {
	return filepath.Join(p.BasePath(name), "config.yaml")
}

func (p *Paths) SourcesPath(name string) string {
	return filepath.Join(p.BasePath(name), "sources.jsonl")
}

func (p *Paths) StatsPath(name string) string {
	return filepath.Join(p.BasePath(name), "stats.json")
}

func (p *Paths) IndexPath(name string) string {
	return filepath.Join(p.BasePath(name), "index")
}

func (p *Paths) PromptsDir() string {
	return filepath.Join(p.root, "prompts")
}

func (p *Paths) TasksDir() string {
	return filepath.Join(p.root, "operation")
}
