package parse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestExtractPDF_RunsPdftotextWithStdout(t *testing.T) {
	runner := &mockRunner{output: []byte("extracted text\n")}

	text, err := ExtractPDF(context.Background(), runner, "/docs/file.pdf")
	require.NoError(t, err)
	assert.Equal(t, "extracted text", text)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, []string{"/docs/file.pdf", "-"}, runner.args)
}

func TestExtractPDF_SurfacesRunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("command not found")}

	_, err := ExtractPDF(context.Background(), runner, "/docs/file.pdf")
	assert.ErrorContains(t, err, "command not found")
}

func TestExtractPDF_NilRunnerErrors(t *testing.T) {
	_, err := ExtractPDF(context.Background(), nil, "/docs/file.pdf")
	assert.Error(t, err)
}
