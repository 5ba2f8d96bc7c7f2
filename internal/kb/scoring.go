package kb

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it on anything that is not a letter or
// digit. Both index building and query parsing use the same tokenizer so
// matches line up.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// KeywordScore rates how well text matches the query terms: term frequency
// summed over matched terms, with a small bonus for matches near the start
// of the text. This is a containment heuristic, not full-text relevance
// scoring; ties are broken by insertion order at the call site.
func KeywordScore(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	var score float64
	for _, term := range terms {
		if term == "" {
			continue
		}
		n := strings.Count(lower, term)
		if n == 0 {
			continue
		}
		score += float64(n)
		if idx := strings.Index(lower, term); idx >= 0 {
			score += 1.0 / (1.0 + float64(idx)/64.0)
		}
	}
	return score
}

// CosineSimilarity computes cosine similarity between two vectors,
// returning a value in [-1, 1]. Mismatched lengths and zero vectors score
// 0 rather than erroring; dimension validation happens at write time.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ChunkID derives the stable chunk id from its document and position.
func ChunkID(documentID string, sequence int) string {
	return documentID + ":" + strconv.Itoa(sequence)
}
