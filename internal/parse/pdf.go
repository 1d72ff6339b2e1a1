package parse

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragbase-labs/ragbase/internal/ragerr"
)

// ExtractPDF shells out to pdftotext (poppler-utils) to pull plain text
// from the PDF at path, writing to stdout ("-") so no temp file is needed.
func ExtractPDF(ctx context.Context, runner CommandRunner, path string) (string, error) {
	if runner == nil {
		return "", ragerr.New(ragerr.KindParse, "no PDF text extraction command configured")
	}

	out, err := runner.Run(ctx, "pdftotext", path, "-")
	if err != nil {
		return "", ragerr.Wrap(ragerr.KindParse, fmt.Sprintf("extract text from %s", path), err)
	}

	return strings.TrimRight(string(out), "\n"), nil
}
