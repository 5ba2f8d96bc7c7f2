package kb

import (
	"context"
	"sort"
)

// Searcher is the dual-index lookup contract the query engine runs against.
// Both the durable store (brute force over SQLite rows) and the in-memory
// index projections implement it; results are ranked, score-descending,
// with insertion order breaking ties.
type Searcher interface {
	// FindByKeyword returns chunks and notes whose text contains the query
	// terms, restricted to scope, at most limit results.
	FindByKeyword(ctx context.Context, text string, scope Filter, limit int) ([]Hit, error)

	// FindByVector returns the top-limit items by cosine similarity to
	// vector, restricted to scope. Items without a stored vector never
	// participate.
	FindByVector(ctx context.Context, vector []float32, scope Filter, limit int) ([]Hit, error)
}

// SortHits orders hits in place, score-descending, insertion order
// breaking ties so repeated searches stay deterministic.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Order < hits[j].Order
	})
}

// TruncateHits caps hits at limit. A non-positive limit leaves hits as is.
func TruncateHits(hits []Hit, limit int) []Hit {
	if limit > 0 && len(hits) > limit {
		return hits[:limit]
	}
	return hits
}
