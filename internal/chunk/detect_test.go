package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

func TestDetectContentTypeByExtension(t *testing.T) {
	cases := map[string]domain.ContentType{
		"README.md":   {Kind: domain.ContentMarkdown},
		"index.html":  {Kind: domain.ContentHTML},
		"main.go":     domain.Code(domain.LangGo),
		"script.py":   domain.Code(domain.LangPython),
		"app.ts":      domain.Code(domain.LangTypeScript),
		"app.jsx":     domain.Code(domain.LangJavaScript),
		"lib.rs":      domain.Code(domain.LangRust),
		"data.json":   {Kind: domain.ContentJSON},
		"config.yaml": {Kind: domain.ContentYAML},
	}

	for path, want := range cases {
		got := DetectContentType(path, nil)
		assert.Equal(t, want, got, "path %s", path)
	}
}

func TestDetectContentTypeSniffsWithoutExtension(t *testing.T) {
	html := []byte("<!doctype html><html><body>hi</body></html>")
	assert.Equal(t, domain.ContentHTML, DetectContentType("", html).Kind)

	shebang := []byte("#!/usr/bin/env bash\necho hi\n")
	assert.Equal(t, domain.ContentCode, DetectContentType("", shebang).Kind)

	md := []byte("# Title\n\nSome *text* with a [link](http://x) and\n```\ncode\n```\n")
	assert.Equal(t, domain.ContentMarkdown, DetectContentType("", md).Kind)

	plain := []byte("just some plain sentences with no markup at all.")
	assert.Equal(t, domain.ContentText, DetectContentType("", plain).Kind)
}

func TestDetectLanguagePortuguese(t *testing.T) {
	ct := domain.ContentType{Kind: domain.ContentMarkdown}
	sample := []byte("Gamedex é um aplicativo brasileiro para gerenciar coleção de games")
	assert.Equal(t, domain.LanguagePortuguese, DetectLanguage(ct, sample))
}

func TestDetectLanguageDefaultsToEnglish(t *testing.T) {
	ct := domain.ContentType{Kind: domain.ContentText}
	assert.Equal(t, domain.LanguageEnglish, DetectLanguage(ct, []byte("hello world")))
	assert.Equal(t, domain.LanguageUnknown, DetectLanguage(ct, nil))
}

func TestDetectLanguageCodeIsAlwaysUnknown(t *testing.T) {
	assert.Equal(t, domain.LanguageUnknown, DetectLanguage(domain.Code(domain.LangGo), []byte("é")))
}

func TestDeriveTags(t *testing.T) {
	assert.Equal(t, []string{"api", "docs"}, DeriveTags("docs/api/reference.md"))
	assert.Equal(t, []string{"internal", "service", "test"}, DeriveTags("internal/service/handler_test.go"))
	assert.Empty(t, DeriveTags("main.go"))
	assert.Equal(t, []string{"pkg", "utils"}, DeriveTags("pkg/utils/helper.go"))
}
