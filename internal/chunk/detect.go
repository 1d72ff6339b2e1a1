// Package chunk implements content detection, the three splitter strategies,
// and the post-processing pipeline that turns a source's text into an
// ordered sequence of domain.Chunk values.
package chunk

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// extensionTypes maps a lowercased file extension (without the dot) to a
// ContentType. Ported from the original detector's extension switch.
var extensionTypes = map[string]domain.ContentType{
	"md":       {Kind: domain.ContentMarkdown},
	"markdown": {Kind: domain.ContentMarkdown},
	"html":     {Kind: domain.ContentHTML},
	"htm":      {Kind: domain.ContentHTML},
	"pdf":      {Kind: domain.ContentPDF},
	"json":     {Kind: domain.ContentJSON},
	"yaml":     {Kind: domain.ContentYAML},
	"yml":      {Kind: domain.ContentYAML},
	"xml":      {Kind: domain.ContentText},
	"txt":      {Kind: domain.ContentText},
	"rs":       domain.Code(domain.LangRust),
	"ts":       domain.Code(domain.LangTypeScript),
	"tsx":      domain.Code(domain.LangTypeScript),
	"js":       domain.Code(domain.LangJavaScript),
	"jsx":      domain.Code(domain.LangJavaScript),
	"py":       domain.Code(domain.LangPython),
	"go":       domain.Code(domain.LangGo),
}

// DetectContentType classifies a byte sample given an optional path.
// Extension takes precedence; when the extension is absent or ".txt"-like
// and the sample doesn't obviously match, a cheap heuristic on the first
// ~4KiB decides between Code/HTML/Markdown/Text.
func DetectContentType(path string, sample []byte) domain.ContentType {
	if path != "" {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if ct, ok := extensionTypes[ext]; ok {
			return ct
		}
	}
	return sniffContentType(sample)
}

const sniffWindow = 4096

func sniffContentType(sample []byte) domain.ContentType {
	if len(sample) > sniffWindow {
		sample = sample[:sniffWindow]
	}
	text := string(sample)
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "#!") {
		return domain.ContentType{Kind: domain.ContentCode, Lang: domain.LangUnknown}
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return domain.ContentType{Kind: domain.ContentHTML}
	}

	if looksLikeMarkdown(text) {
		return domain.ContentType{Kind: domain.ContentMarkdown}
	}

	return domain.ContentType{Kind: domain.ContentText}
}

func looksLikeMarkdown(text string) bool {
	lines := strings.Split(text, "\n")
	markers := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			markers++
		case strings.HasPrefix(trimmed, "```"):
			markers++
		case mdLinkPattern(trimmed):
			markers++
		}
	}
	return markers > 0 && markers*10 >= len(lines)
}

// mdLinkPattern does a cheap scan for "[...]( ...)" without a regexp —
// markdown links are common enough signal, rare enough elsewhere, that a
// substring scan suffices for the heuristic tier.
func mdLinkPattern(line string) bool {
	open := strings.Index(line, "[")
	if open < 0 {
		return false
	}
	closeBracket := strings.Index(line[open:], "]")
	if closeBracket < 0 {
		return false
	}
	rest := line[open+closeBracket:]
	return strings.HasPrefix(rest, "](")
}

// DetectLanguage derives the natural-language tag. Code files derive it
// trivially from Unknown; text files are sampled and scored against small
// indicator word lists.
func DetectLanguage(ct domain.ContentType, sample []byte) domain.Language {
	if ct.Kind == domain.ContentCode {
		return domain.LanguageUnknown
	}
	return detectNaturalLanguage(sample)
}

const naturalSampleWindow = 500

// Indicator words for the three supported natural languages. Ported from
// the original detector's word lists.
var (
	portugueseIndicators = []string{"é", "um", "uma", "para", "com", "que", "não", "ção", "ões"}
	spanishIndicators    = []string{"el", "la", "los", "las", "es", "para", "con", "qué", "ción"}
	englishIndicators    = []string{"the", "is", "are", "and", "for", "with", "that", "this"}
)

func detectNaturalLanguage(sample []byte) domain.Language {
	if len(sample) == 0 {
		return domain.LanguageUnknown
	}
	if len(sample) > naturalSampleWindow {
		sample = sample[:naturalSampleWindow]
	}
	lower := strings.ToLower(string(sample))

	scores := map[domain.Language]int{
		domain.LanguagePortuguese: scoreIndicators(lower, portugueseIndicators),
		domain.LanguageSpanish:    scoreIndicators(lower, spanishIndicators),
		domain.LanguageEnglish:    scoreIndicators(lower, englishIndicators),
	}

	best := domain.LanguageEnglish
	bestScore := scores[domain.LanguageEnglish]
	for lang, score := range scores {
		if score > bestScore {
			best = lang
			bestScore = score
		}
	}
	return best
}

// scoreIndicators counts, per word of lower, the indicators it matches: a
// word matches an indicator equal to it, or one of three or more runes that
// it ends with (suffixes such as "ção" and "ción").
func scoreIndicators(lower string, indicators []string) int {
	score := 0
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		for _, ind := range indicators {
			if w == ind || (utf8.RuneCountInString(ind) >= 3 && strings.HasSuffix(w, ind)) {
				score++
			}
		}
	}
	return score
}

// excludedSegments lists path segments that never contribute a tag.
var excludedSegments = map[string]bool{
	".": true, "..": true, "": true,
	"src": true, "lib": true, "target": true, "node_modules": true,
}

// specialTagSubstrings maps a substring to the derived tag it adds when any
// path segment contains it.
var specialTagSubstrings = []struct {
	substr string
	tag    string
}{
	{"test", "test"},
	{"doc", "docs"},
	{"api", "api"},
	{"util", "utils"},
	{"helper", "utils"},
	{"config", "config"},
}

// DeriveTags builds the ordered, deduplicated tag list for a source path:
// lowercase path segments (skipping VCS/build noise) plus special tags
// triggered by substring match.
func DeriveTags(path string) []string {
	seen := map[string]bool{}
	var tags []string

	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	segments := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	for _, seg := range segments {
		lower := strings.ToLower(seg)
		if excludedSegments[lower] {
			continue
		}
		add(lower)
		for _, special := range specialTagSubstrings {
			if strings.Contains(lower, special.substr) {
				add(special.tag)
			}
		}
	}

	base := strings.ToLower(filepath.Base(path))
	for _, special := range specialTagSubstrings {
		if strings.Contains(base, special.substr) {
			add(special.tag)
		}
	}

	sort.Strings(tags)
	return tags
}
