package chunk

import (
	"strings"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// textSplitter implements the semantic text strategy used for
// Text/Markdown/Html/Pdf content: prefer boundaries in the order
// paragraph break > sentence break > whitespace > hard cut.
type textSplitter struct{}

func (s *textSplitter) split(text string, cfg Config) ([]splitResult, error) {
	if text == "" {
		return nil, nil
	}

	target := cfg.TargetChunkSize
	if target <= 0 {
		target = DefaultConfig().TargetChunkSize
	}
	overlap := cfg.Overlap
	if overlap < 0 || overlap >= target {
		overlap = target / 4
	}

	var results []splitResult
	runes := []rune(text)
	n := len(runes)
	start := 0

	for start < n {
		end := start + target
		if end >= n {
			end = n
		} else {
			end = bestBoundary(runes, start, end, cfg)
		}
		if end <= start {
			end = start + 1
		}

		piece := strings.TrimRight(string(runes[start:end]), " \t")
		if strings.TrimSpace(piece) != "" {
			byteStart := len(string(runes[:start]))
			byteEnd := byteStart + len(piece)
			results = append(results, splitResult{
				Text:         piece,
				ByteStart:    byteStart,
				ByteEnd:      byteEnd,
				SplitterUsed: domain.SplitterText,
			})
		}

		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return results, nil
}

// bestBoundary looks for the best split point in (start, end], preferring
// (in order) a paragraph break, a sentence break, a whitespace run, falling
// back to a hard cut at end. Among candidates of the same rank, the latest
// one in the window is used; earlier candidates of that rank are not chosen.
func bestBoundary(runes []rune, start, end int, cfg Config) int {
	if end >= len(runes) {
		return len(runes)
	}

	window := runes[start:end]

	if cfg.PreserveCodeBlocks {
		if fenceIdx := lastFenceBoundary(window); fenceIdx > 0 {
			return start + fenceIdx
		}
	}

	if idx := lastParagraphBreak(window); idx > 0 {
		return start + idx
	}
	if idx := lastSentenceBreak(window); idx > 0 {
		return start + idx
	}
	if idx := lastWhitespace(window); idx > 0 {
		return start + idx
	}
	return end
}

func lastParagraphBreak(window []rune) int {
	s := string(window)
	idx := strings.LastIndex(s, "\n\n")
	if idx < 0 {
		return -1
	}
	return len([]rune(s[:idx])) + 2
}

func lastSentenceBreak(window []rune) int {
	best := -1
	for i, r := range window {
		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(window) && (window[i+1] == ' ' || window[i+1] == '\n') {
				best = i + 1
			}
		}
	}
	return best
}

func lastWhitespace(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' || window[i] == '\n' || window[i] == '\t' {
			return i + 1
		}
	}
	return -1
}

// lastFenceBoundary returns an offset just before a fenced code block
// ("```") that starts inside the window, so the block is not split across
// chunks when a cleaner boundary is available earlier in the window.
func lastFenceBoundary(window []rune) int {
	s := string(window)
	idx := strings.LastIndex(s, "```")
	if idx <= 0 {
		return -1
	}
	// Only treat this as a boundary if there's meaningful content before it.
	before := strings.TrimSpace(s[:idx])
	if before == "" {
		return -1
	}
	return len([]rune(s[:idx]))
}
