// Package trigram implements a deterministic, offline embedding provider
// based on character trigrams and word frequencies. It produces consistent,
// content-dependent vectors suitable for development and offline use; it is
// not a semantic model.
package trigram

import (
	"context"
	"math"
	"strings"
)

// Provider is the deterministic local embedding provider.
type Provider struct {
	dimensions int
}

// New builds a Provider that emits vectors of the given dimension.
func New(dimensions int) *Provider {
	return &Provider{dimensions: dimensions}
}

func (p *Provider) ProviderName() string { return "trigram" }
func (p *Provider) ModelName() string    { return "trigram-v1" }
func (p *Provider) Dimensions() int      { return p.dimensions }

func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = p.embed(text)
	}
	return out, nil
}

var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "a": {}, "an": {},
	"as": {}, "are": {}, "was": {}, "were": {}, "for": {}, "to": {}, "of": {},
	"in": {}, "and": {}, "or": {}, "but": {}, "with": {}, "by": {}, "from": {},
	"this": {}, "that": {}, "be": {}, "have": {}, "has": {}, "had": {}, "it": {},
	"its": {}, "their": {}, "they": {}, "them": {},
}

// embed ports the original's generate_trigram_embedding: trigram hashes
// (mul 37) accumulate sqrt(freq) into a bucket, whole-word hashes (mul 31)
// accumulate freq into another bucket, then the vector is L2-normalized.
func (p *Provider) embed(text string) []float32 {
	vec := make([]float32, p.dimensions)
	if p.dimensions == 0 {
		return vec
	}

	lower := strings.ToLower(text)
	freq := make(map[string]int)
	for _, w := range strings.Fields(lower) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		freq[w]++
	}

	for word, count := range freq {
		runes := []rune(word)
		for i := 0; i <= len(runes)-3; i++ {
			var tri [3]rune
			tri[0], tri[1] = runes[i], runes[i+1]
			if i+2 < len(runes) {
				tri[2] = runes[i+2]
			} else {
				tri[2] = ' '
			}
			h := trigramHash(tri)
			dim := int(h % uint64(p.dimensions))
			vec[dim] += float32(math.Sqrt(float64(count)))
		}

		wh := wordHash(word)
		base := int(wh % uint64(p.dimensions))
		vec[base] += float32(count)
	}

	normalize(vec)
	return vec
}

func trigramHash(tri [3]rune) uint64 {
	var h uint64
	for _, b := range []byte(string(tri[:])) {
		h = h*37 + uint64(b)
	}
	return h
}

func wordHash(word string) uint64 {
	var h uint64
	for _, b := range []byte(word) {
		h = h*31 + uint64(b)
	}
	return h
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
