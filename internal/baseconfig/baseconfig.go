// Package baseconfig loads and persists the workspace's global config.yaml,
// each base's config.yaml, and each base's stats.json, using the
// write-temp-then-rename idiom for atomicity on every update to an
// existing file.
package baseconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/core/ports/driven"
	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

const (
	DefaultChunkSize        = 512
	DefaultChunkOverlap     = 64
	DefaultMaxContextTokens = 2048
	DefaultEmbeddingDim     = 384
)

// Store reads and writes config.yaml, per-base config.yaml, and stats.json
// under a workspace, resolving paths via a WorkspacePaths collaborator.
type Store struct {
	paths driven.WorkspacePaths
}

// New builds a Store rooted at paths.
func New(paths driven.WorkspacePaths) *Store {
	return &Store{paths: paths}
}

// LoadGlobal reads config.yaml, returning a zero-value GlobalConfig if the
// file does not yet exist.
func (s *Store) LoadGlobal() (domain.GlobalConfig, error) {
	var cfg domain.GlobalConfig
	data, err := os.ReadFile(s.paths.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, ragerr.Wrap(ragerr.KindIO, "read global config", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, ragerr.Wrap(ragerr.KindParse, "parse global config", err)
	}
	return cfg, nil
}

// SaveGlobal writes config.yaml atomically.
func (s *Store) SaveGlobal(cfg domain.GlobalConfig) error {
	return writeYAMLAtomic(s.paths.ConfigPath(), cfg)
}

// LoadBase reads a base's config.yaml. If the file does not exist, it
// returns defaultBaseConfig(name): the name plus the default chunking,
// context and embedding settings.
func (s *Store) LoadBase(name string) (domain.BaseConfig, error) {
	path := s.paths.BaseConfigPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultBaseConfig(name), nil
		}
		return domain.BaseConfig{}, ragerr.Wrap(ragerr.KindIO, "read base config for "+name, err)
	}

	cfg := defaultBaseConfig(name)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.BaseConfig{}, ragerr.Wrap(ragerr.KindParse, "parse base config for "+name, err)
	}
	cfg.Name = name
	return cfg, nil
}

// SaveBase writes a base's config.yaml atomically, creating the base
// directory if needed.
func (s *Store) SaveBase(cfg domain.BaseConfig) error {
	if err := os.MkdirAll(s.paths.BasePath(cfg.Name), 0o755); err != nil {
		return ragerr.Wrap(ragerr.KindIO, "create base directory for "+cfg.Name, err)
	}
	return writeYAMLAtomic(s.paths.BaseConfigPath(cfg.Name), cfg)
}

// LoadStats reads a base's stats.json, returning a zero-value BaseStats
// carrying the base name if the file does not exist.
func (s *Store) LoadStats(name string) (domain.BaseStats, error) {
	stats := domain.BaseStats{BaseName: name}
	data, err := os.ReadFile(s.paths.StatsPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, ragerr.Wrap(ragerr.KindIO, "read stats for "+name, err)
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		return stats, ragerr.Wrap(ragerr.KindParse, "parse stats for "+name, err)
	}
	return stats, nil
}

// SaveStats overwrites a base's stats.json atomically.
func (s *Store) SaveStats(stats domain.BaseStats) error {
	if err := os.MkdirAll(s.paths.BasePath(stats.BaseName), 0o755); err != nil {
		return ragerr.Wrap(ragerr.KindIO, "create base directory for "+stats.BaseName, err)
	}
	return writeJSONAtomic(s.paths.StatsPath(stats.BaseName), stats)
}

func defaultBaseConfig(name string) domain.BaseConfig {
	return domain.BaseConfig{
		Name:             name,
		ChunkSize:        DefaultChunkSize,
		ChunkOverlap:     DefaultChunkOverlap,
		MaxContextTokens: DefaultMaxContextTokens,
		Embedding: domain.EmbeddingConfig{
			Dimensions: DefaultEmbeddingDim,
			BatchSize:  100,
		},
	}
}

func writeYAMLAtomic(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return ragerr.Wrap(ragerr.KindParse, "marshal "+path, err)
	}
	return writeFileAtomic(path, data)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ragerr.Wrap(ragerr.KindParse, "marshal "+path, err)
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to a temp file in the same directory as path,
// then renames it into place, so a reader never observes a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ragerr.Wrap(ragerr.KindIO, "create directory for "+path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return ragerr.Wrap(ragerr.KindIO, "create temp file for "+path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ragerr.Wrap(ragerr.KindIO, "write temp file for "+path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ragerr.Wrap(ragerr.KindIO, "sync temp file for "+path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ragerr.Wrap(ragerr.KindIO, "close temp file for "+path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ragerr.Wrap(ragerr.KindIO, "rename temp file into "+path, err)
	}
	return nil
}
