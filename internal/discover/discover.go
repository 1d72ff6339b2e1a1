// Package discover walks learn source arguments into a deterministically
// ordered list of candidate files, applying the default exclusion list plus
// caller-supplied include/exclude patterns.
package discover

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

// defaultExcludes are always applied, regardless of caller options: VCS
// metadata, dependency caches, build output, lockfiles, and generated
// binary/minified artifacts that never carry useful natural-language or
// source content.
var defaultExcludes = []string{
	"/.git/", "/.svn/", "/.hg/",
	"/node_modules/", "/vendor/",
	"/.next/", "/dist/", "/build/", "/target/",
	"/.venv/", "/__pycache__/", "/.pytest_cache/", "/.mypy_cache/",
	"/.idea/", "/.vscode/",
	"/.DS_Store",
	".min.js", ".min.css", ".map",
	".lock", ".log", ".tmp", ".temp", ".cache",
	".png", ".jpg", ".jpeg", ".gif", ".ico",
}

// Options narrows discovery beyond the default exclusion list.
type Options struct {
	Include []string
	Exclude []string
}

// Walk returns every regular file under root passing the exclusion rules,
// sorted by path so learn passes over identical inputs produce identical
// source order (§4.7 P2).
func Walk(root string, opts Options) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if shouldInclude(path, opts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, ragerr.Wrap(ragerr.KindIO, "walk "+root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// shouldInclude ports the original's should_include: default excludes
// always apply, then user excludes, then (if any includes are given) the
// path must match at least one.
func shouldInclude(path string, opts Options) bool {
	normalized := filepath.ToSlash(path)

	for _, pattern := range defaultExcludes {
		if matches(normalized, pattern) {
			return false
		}
	}

	for _, pattern := range opts.Exclude {
		if matches(normalized, pattern) {
			return false
		}
	}

	if len(opts.Include) == 0 {
		return true
	}
	for _, pattern := range opts.Include {
		if matches(normalized, pattern) {
			return true
		}
	}
	return false
}

// matches treats pattern as a glob against the file's base name when it
// contains wildcard characters, and as a plain substring of the full path
// otherwise (covering directory-style exclusions like "/vendor/").
func matches(path, pattern string) bool {
	if strings.ContainsAny(pattern, "*?[") {
		if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
			return true
		}
	}
	return strings.Contains(path, pattern)
}
