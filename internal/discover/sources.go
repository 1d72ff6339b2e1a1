package discover

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

// Candidate is one source ready to be parsed and chunked. Path is the
// logical identity recorded in sources.jsonl; CustomSourcePath is set only
// when Path (a synthetic zip-entry locator) differs from the path a human
// would recognise, per the metadata.custom["source_path"] convention.
type Candidate struct {
	Kind             domain.SourceKind
	Path             string
	CustomSourcePath string
	SizeBytes        int64
	ModifiedAt       time.Time
	Read             func() ([]byte, error)
}

// httpTimeout bounds a single URL source fetch.
const httpTimeout = 30 * time.Second

// Sources resolves every learn argument (local path, URL, or .zip archive)
// into a candidate list sorted by path; duplicate paths are kept. Directories
// are walked with opts; files, URLs, and zip entries each become one
// candidate. Arguments are independent of one another, so resolution fans
// out across an errgroup and the first failure is returned. URL candidates
// keep ctx for their deferred fetch.
func Sources(ctx context.Context, args []string, opts Options) ([]Candidate, error) {
	results := make([][]Candidate, len(args))

	var g errgroup.Group
	var mu sync.Mutex
	for i, arg := range args {
		i, arg := i, arg
		g.Go(func() error {
			cs, err := resolveArg(ctx, arg, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = cs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Candidate
	for _, cs := range results {
		all = append(all, cs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return all, nil
}

func resolveArg(ctx context.Context, arg string, opts Options) ([]Candidate, error) {
	switch {
	case isURL(arg):
		c, err := urlCandidate(ctx, arg)
		if err != nil {
			return nil, err
		}
		return []Candidate{c}, nil

	case strings.HasSuffix(strings.ToLower(arg), ".zip"):
		return zipCandidates(arg)

	default:
		return fileOrDirCandidates(arg, opts)
	}
}

func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

func urlCandidate(ctx context.Context, rawURL string) (Candidate, error) {
	client := &http.Client{Timeout: httpTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Candidate{}, ragerr.Wrap(ragerr.KindIO, "build request for "+rawURL, err)
	}

	return Candidate{
		Kind:       domain.SourceURL,
		Path:       rawURL,
		ModifiedAt: time.Now(),
		Read: func() ([]byte, error) {
			resp, err := client.Do(req)
			if err != nil {
				return nil, ragerr.Wrap(ragerr.KindIO, "fetch "+rawURL, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, ragerr.New(ragerr.KindIO, fmt.Sprintf("fetch %s: status %d", rawURL, resp.StatusCode))
			}
			return io.ReadAll(resp.Body)
		},
	}, nil
}

func zipCandidates(archivePath string) ([]Candidate, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.KindIO, "open zip "+archivePath, err)
	}
	defer r.Close()

	var out []Candidate
	for i, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entry, index := f, i
		out = append(out, Candidate{
			Kind:             domain.SourceZip,
			Path:             archivePath + "#" + entry.Name,
			CustomSourcePath: entry.Name,
			SizeBytes:        int64(entry.UncompressedSize64),
			ModifiedAt:       entry.Modified,
			Read: func() ([]byte, error) {
				zr, err := zip.OpenReader(archivePath)
				if err != nil {
					return nil, ragerr.Wrap(ragerr.KindIO, "open zip "+archivePath, err)
				}
				defer zr.Close()
				rc, err := zr.File[index].Open()
				if err != nil {
					return nil, ragerr.Wrap(ragerr.KindIO, "open zip entry "+entry.Name, err)
				}
				defer rc.Close()
				return io.ReadAll(rc)
			},
		})
	}
	return out, nil
}

func fileOrDirCandidates(path string, opts Options) ([]Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ragerr.Wrap(ragerr.KindIO, "stat "+path, err)
	}

	if !info.IsDir() {
		return []Candidate{fileCandidate(path, info)}, nil
	}

	paths, err := Walk(path, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, ragerr.Wrap(ragerr.KindIO, "stat "+p, err)
		}
		out = append(out, fileCandidate(p, fi))
	}
	return out, nil
}

func fileCandidate(path string, info os.FileInfo) Candidate {
	return Candidate{
		Kind:       domain.SourceFile,
		Path:       path,
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime(),
		Read: func() ([]byte, error) {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, ragerr.Wrap(ragerr.KindIO, "read "+path, err)
			}
			return b, nil
		},
	}
}
