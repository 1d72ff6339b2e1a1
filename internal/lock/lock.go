// Package lock implements the per-base single-writer advisory lock required
// by the concurrency model: at most one learn or clean runs against a base
// at a time. No third-party advisory-locking library appears anywhere in
// the example pack, so this is a deliberate stdlib-only component (see
// DESIGN.md) built on the portable os.O_EXCL create-exclusive idiom rather
// than flock, which does not behave uniformly across platforms.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

const retryInterval = 50 * time.Millisecond

// FileLock is an exclusive, advisory, process-scoped lock backed by the
// atomicity of O_CREATE|O_EXCL on a sentinel file. It is advisory: only
// other FileLock callers observe it.
type FileLock struct {
	path string
}

// New builds a FileLock guarding path. The caller chooses the path, typically
// "<base directory>/.lock".
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Acquire blocks until the lock is obtained or ctx is cancelled, retrying on
// a short interval when the sentinel file already exists. The sentinel's
// parent directory is created if it is absent.
func (l *FileLock) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return ragerr.Wrap(ragerr.KindIO, fmt.Sprintf("acquire lock %s", l.path), err)
	}
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			return f.Close()
		}
		if !os.IsExist(err) {
			return ragerr.Wrap(ragerr.KindIO, fmt.Sprintf("acquire lock %s", l.path), err)
		}

		select {
		case <-ctx.Done():
			return ragerr.Wrap(ragerr.KindCancelled, fmt.Sprintf("acquire lock %s", l.path), ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

// Release removes the sentinel file. A missing file is not an error, so a
// caller may safely defer Release after a failed Acquire.
func (l *FileLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return ragerr.Wrap(ragerr.KindIO, fmt.Sprintf("release lock %s", l.path), err)
	}
	return nil
}
