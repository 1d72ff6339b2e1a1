package chunk

import (
	"unicode"
	"unicode/utf8"

	"github.com/ragbase-labs/ragbase/internal/core/domain"
)

// fallbackSplitter iterates by rune (Go has no grapheme-cluster package in
// the standard library; rune boundaries are the safe, dependency-free unit
// here) with a preference for word boundaries. Used for
// Unknown content and whenever a preferred splitter errors.
type fallbackSplitter struct{}

func (s *fallbackSplitter) split(text string, cfg Config) ([]splitResult, error) {
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

	runes := []rune(text)
	n := len(runes)
	var results []splitResult
	start := 0

	for start < n {
		end := start + target
		if end >= n {
			end = n
		} else {
			end = preferWordBoundary(runes, start, end)
		}
		if end <= start {
			end = start + 1
		}

		piece := string(runes[start:end])
		if !utf8.ValidString(piece) {
			// Should be unreachable since we slice by rune, but guard anyway:
			// never emit invalid UTF-8 (P8).
			end = validTail(runes, start, end)
			piece = string(runes[start:end])
		}

		byteStart := len(string(runes[:start]))
		results = append(results, splitResult{
			Text:         piece,
			ByteStart:    byteStart,
			ByteEnd:      byteStart + len(piece),
			SplitterUsed: domain.SplitterFallback,
		})

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

// preferWordBoundary nudges end back to the nearest preceding whitespace
// run within a small lookback window, so words aren't split mid-token.
func preferWordBoundary(runes []rune, start, end int) int {
	lookback := (end - start) / 4
	minBound := start + 1
	for i := end; i > minBound && i > end-lookback; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

// validTail shrinks end until runes[start:end] round-trips through
// string() as valid UTF-8. Runes decoded from a valid input string are
// always individually valid, so this is a defensive no-op in practice.
func validTail(runes []rune, start, end int) int {
	for end > start {
		if utf8.ValidString(string(runes[start:end])) {
			return end
		}
		end--
	}
	return start
}
