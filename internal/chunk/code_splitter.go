package chunk

import (
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// codeSplitter is the syntax-aware strategy: prefer boundaries at top-level
// declarations, falling back to greedy line-based splitting within any
// declaration that exceeds the hard maximum. Always records LineRange.
type codeSplitter struct {
	lang domain.ProgrammingLanguage
}

// declAnchors maps each language without a native Go parser available to a
// line-start regexp marking a plausible top-level declaration boundary.
var declAnchors = map[domain.ProgrammingLanguage]*regexp.Regexp{
	domain.LangPython:     regexp.MustCompile(`(?m)^(def |class |async def )`),
	domain.LangJavaScript: regexp.MustCompile(`(?m)^(function |class |export function |export class |export default |const \w+ = \()`),
	domain.LangTypeScript: regexp.MustCompile(`(?m)^(function |class |export function |export class |export default |interface |type |const \w+ = \()`),
	domain.LangRust:       regexp.MustCompile(`(?m)^(fn |pub fn |struct |pub struct |enum |pub enum |impl |trait |mod |pub mod )`),
}

func (s *codeSplitter) split(text string, cfg Config) ([]splitResult, error) {
	if text == "" {
		return nil, nil
	}

	var nodes []codeNode
	if s.lang == domain.LangGo {
		nodes = goDeclarationNodes(text)
	} else if anchor, ok := declAnchors[s.lang]; ok {
		nodes = anchorDeclarationNodes(text, anchor)
	}

	if len(nodes) == 0 {
		return []splitResult{wholeFileResult(text)}, nil
	}

	var results []splitResult
	for _, node := range nodes {
		nodeText := text[node.start:node.end]
		if len(nodeText) < cfg.MinChunkSize && node.end != len(text) {
			continue
		}
		if len(nodeText) > cfg.MaxChunkSize {
			results = append(results, splitLargeNode(text, node, cfg)...)
			continue
		}
		results = append(results, splitResult{
			Text:         nodeText,
			ByteStart:    node.start,
			ByteEnd:      node.end,
			LineRange:    &domain.LineRange{Start: node.startLine, End: node.endLine},
			SplitterUsed: domain.SplitterCode,
		})
	}

	if len(results) == 0 {
		return []splitResult{wholeFileResult(text)}, nil
	}
	return results, nil
}

func wholeFileResult(text string) splitResult {
	return splitResult{
		Text:         text,
		ByteStart:    0,
		ByteEnd:      len(text),
		LineRange:    &domain.LineRange{Start: 1, End: strings.Count(text, "\n") + 1},
		SplitterUsed: domain.SplitterCodeWhole,
	}
}

type codeNode struct {
	start, end           int
	startLine, endLine   int
}

// goDeclarationNodes walks the root of a parsed Go file, producing one node
// per top-level declaration (func, type, var, const block). Parse errors or
// non-Go-shaped input yield zero nodes, triggering the whole-file fallback.
func goDeclarationNodes(text string) []codeNode {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", text, parser.ParseComments)
	if err != nil || file == nil {
		return nil
	}

	lineOffsets := computeLineOffsets(text)
	var nodes []codeNode
	prevEnd := 0
	for _, decl := range file.Decls {
		start := fset.Position(decl.Pos()).Offset
		end := fset.Position(decl.End()).Offset
		if start < prevEnd {
			start = prevEnd
		}
		if end <= start || end > len(text) {
			continue
		}
		nodes = append(nodes, codeNode{
			start:     start,
			end:       end,
			startLine: lineForOffset(lineOffsets, start),
			endLine:   lineForOffset(lineOffsets, end),
		})
		prevEnd = end
	}
	return nodes
}

// anchorDeclarationNodes finds line-start matches for a language's
// declaration anchor regexp and slices the text between consecutive
// matches (and from the last match to EOF) into nodes.
func anchorDeclarationNodes(text string, anchor *regexp.Regexp) []codeNode {
	locs := anchor.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	lineOffsets := computeLineOffsets(text)
	var nodes []codeNode
	for i, loc := range locs {
		start := loc[0]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		nodes = append(nodes, codeNode{
			start:     start,
			end:       end,
			startLine: lineForOffset(lineOffsets, start),
			endLine:   lineForOffset(lineOffsets, end),
		})
	}
	return nodes
}

// splitLargeNode greedily line-splits a node that exceeds the hard maximum,
// walking in TargetChunkSize steps and breaking at the last newline within
// the window so lines are never torn mid-character.
func splitLargeNode(text string, node codeNode, cfg Config) []splitResult {
	target := cfg.TargetChunkSize
	if target <= 0 {
		target = DefaultConfig().TargetChunkSize
	}
	lineOffsets := computeLineOffsets(text)

	var results []splitResult
	start := node.start
	for start < node.end {
		end := start + target
		if end >= node.end {
			end = node.end
		} else if idx := strings.LastIndexByte(text[start:end], '\n'); idx > 0 {
			end = start + idx + 1
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
		}
		if end <= start {
			end = node.end
		}
		results = append(results, splitResult{
			Text:         text[start:end],
			ByteStart:    start,
			ByteEnd:      end,
			LineRange:    &domain.LineRange{Start: lineForOffset(lineOffsets, start), End: lineForOffset(lineOffsets, end)},
			SplitterUsed: domain.SplitterCodeLarge,
		})
		start = end
	}
	return results
}

func computeLineOffsets(text string) []int {
	offsets := []int{0}
	for i, r := range text {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func lineForOffset(offsets []int, offset int) int {
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}
