// Package exec provides the os/exec-backed CommandRunner adapter used by
// the PDF text extraction step.
package exec

import (
	"context"
	"os/exec"

	"github.com/ragbase-labs/ragbase/internal/parse"
)

var _ parse.CommandRunner = (*Runner)(nil)

// Runner runs external commands via os/exec.
type Runner struct{}

// New builds a Runner.
func New() *Runner {
	return &Runner{}
}

// Run executes name with args, returning its stdout. Stderr is
// discarded from the return value but still visible if the caller wants
// to wrap the error for diagnostics.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}
