package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder is a dependency-free feature-hashing embedder: each token
// is hashed into a bucket of a fixed-size vector, which is then L2
// normalized. It is fully deterministic and needs no network, which makes
// it the default for development setups and the reference embedder in
// tests. It captures lexical overlap, not semantics.
type LocalEmbedder struct {
	dimensions int
}

// NewLocalEmbedder creates a feature-hashing embedder of the given
// dimension.
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &LocalEmbedder{dimensions: dimensions}
}

func (e *LocalEmbedder) Name() string { return "local-feature-hash" }

func (e *LocalEmbedder) Dimensions() int { return e.dimensions }

func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *LocalEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimensions)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(e.dimensions))
		// Sign bit from the hash spreads tokens to both directions.
		if sum&0x80000000 != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}
