// Package sourcetracker manages a base's append-only sources.jsonl file:
// one JSON line per ingested source, written once and never mutated.
package sourcetracker

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

// Tracker manages sources.jsonl for a single base directory.
type Tracker struct {
	path string
}

// New builds a Tracker that reads/writes baseDir/sources.jsonl.
func New(baseDir string) *Tracker {
	return &Tracker{path: filepath.Join(baseDir, "sources.jsonl")}
}

// Track appends source as one JSON line, fsyncing before returning so the
// record survives a crash immediately after a successful learn.
func (t *Tracker) Track(source domain.KnowledgeSource) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return ragerr.Wrap(ragerr.KindIO, "create base directory", err)
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return ragerr.Wrap(ragerr.KindIO, "open sources.jsonl", err)
	}
	defer f.Close()

	line, err := json.Marshal(source)
	if err != nil {
		return ragerr.Wrap(ragerr.KindIO, "marshal source record", err)
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		return ragerr.Wrap(ragerr.KindIO, "write sources.jsonl", err)
	}
	return f.Sync()
}

// List returns every tracked source in file order, or an empty slice if
// sources.jsonl does not exist yet.
func (t *Tracker) List() ([]domain.KnowledgeSource, error) {
	f, err := os.Open(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, ragerr.Wrap(ragerr.KindIO, "open sources.jsonl", err)
	}
	defer f.Close()

	var sources []domain.KnowledgeSource
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var source domain.KnowledgeSource
		if err := json.Unmarshal(line, &source); err != nil {
			return nil, ragerr.Wrap(ragerr.KindParse, "parse sources.jsonl line", err)
		}
		sources = append(sources, source)
	}
	if err := scanner.Err(); err != nil {
		return nil, ragerr.Wrap(ragerr.KindIO, "read sources.jsonl", err)
	}
	return sources, nil
}

// Clear deletes sources.jsonl. A missing file is not an error.
func (t *Tracker) Clear() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return ragerr.Wrap(ragerr.KindIO, "delete sources.jsonl", err)
	}
	return nil
}

