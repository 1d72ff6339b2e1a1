// Package parse turns a source's raw bytes into the plain text the chunk
// pipeline expects. Most content types pass through unchanged — Markdown
// and code are chunked directly so fenced code blocks and syntax survive
// as atomic units — but HTML and PDF need format-specific extraction
// first.
package parse

import (
	"context"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// CommandRunner executes an external command and returns its stdout.
// Abstracted so PDF extraction can be tested without shelling out.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Extract converts raw source bytes to text appropriate for the chunk
// pipeline, given the content type detected for path. HTML tags are
// stripped; PDF text is extracted via runner (pdftotext); every other
// content type is returned as-is.
func Extract(ctx context.Context, runner CommandRunner, path string, ct domain.ContentType, raw []byte) (string, error) {
	switch ct.Kind {
	case domain.ContentHTML:
		return StripHTML(string(raw)), nil
	case domain.ContentPDF:
		return ExtractPDF(ctx, runner, path)
	default:
		return string(raw), nil
	}
}
