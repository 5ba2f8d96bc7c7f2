// Package query blends structured filters with keyword and vector
// ranking into one result set with provenance.
package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/lab271/sensorkb/internal/config"
	"github.com/lab271/sensorkb/internal/embeddings"
	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/store"
)

const snippetLen = 240

// Request is one query. At least one of Filter, Text, or Vector must be
// set. Semantic asks for similarity ranking even when only Text is given
// (the text is embedded first); Text plus similarity means hybrid mode.
type Request struct {
	Filter   kb.Filter
	Text     string
	Vector   []float32
	Semantic bool
	Limit    int
}

// Engine executes queries against the store (structured lookups) and a
// Searcher (ranked lookups, usually the index projections).
type Engine struct {
	store    *store.Store
	searcher kb.Searcher
	embedder embeddings.Embedder
	cfg      *config.Config
}

// New creates an Engine.
func New(st *store.Store, searcher kb.Searcher, em embeddings.Embedder, cfg *config.Config) *Engine {
	return &Engine{store: st, searcher: searcher, embedder: em, cfg: cfg}
}

// Query returns at most limit results in non-increasing score order. An
// empty scope yields an empty list; a query with nothing to retrieve at
// all is rejected.
//
// A filter without text or vector is a structured lookup: a document
// scope lists that document's chunks, and a filter carrying only an
// owner or a time window lists matching notes. Document chunks are not
// filtered by time; scope them with DocumentID or SourceType instead.
func (e *Engine) Query(ctx context.Context, req Request) ([]kb.Result, error) {
	hasText := req.Text != ""
	hasVector := req.Vector != nil
	if !hasText && !hasVector && req.Filter.Empty() {
		return nil, kb.ErrAmbiguousQuery
	}

	limit := e.clampLimit(req.Limit)

	if !hasText && !hasVector {
		return e.structuredLookup(ctx, req.Filter, limit)
	}

	vector := req.Vector
	if vector == nil && req.Semantic {
		vecs, err := e.embedder.Embed(ctx, []string{req.Text})
		if err != nil || len(vecs) != 1 {
			return nil, fmt.Errorf("%w: embedding query text: %v", kb.ErrEmbeddingUnavailable, err)
		}
		vector = vecs[0]
	}

	switch {
	case hasText && vector != nil:
		return e.hybrid(ctx, req.Text, vector, req.Filter, limit)
	case vector != nil:
		hits, err := e.searcher.FindByVector(ctx, vector, req.Filter, limit)
		if err != nil {
			return nil, err
		}
		return toResults(hits, kb.ScoreVector), nil
	default:
		hits, err := e.searcher.FindByKeyword(ctx, req.Text, req.Filter, limit)
		if err != nil {
			return nil, err
		}
		return toResults(hits, kb.ScoreKeyword), nil
	}
}

// hybrid unions keyword and vector candidates, re-ranks by the weighted
// sum of normalized scores, and deduplicates by id keeping the higher
// combined score.
func (e *Engine) hybrid(ctx context.Context, text string, vector []float32, scope kb.Filter, limit int) ([]kb.Result, error) {
	fetch := limit * 2

	kwHits, err := e.searcher.FindByKeyword(ctx, text, scope, fetch)
	if err != nil {
		return nil, err
	}
	vecHits, err := e.searcher.FindByVector(ctx, vector, scope, fetch)
	if err != nil {
		return nil, err
	}

	kwNorm := normalize(kwHits)
	vecNorm := normalize(vecHits)

	type candidate struct {
		hit      kb.Hit
		combined float64
	}
	merged := make(map[string]*candidate)
	addSide := func(hits []kb.Hit, norms []float64, weight float64) {
		for i, h := range hits {
			score := weight * norms[i]
			if c, ok := merged[h.ID]; ok {
				c.combined += score
			} else {
				merged[h.ID] = &candidate{hit: h, combined: score}
			}
		}
	}
	addSide(kwHits, kwNorm, e.cfg.KeywordWeight)
	addSide(vecHits, vecNorm, e.cfg.VectorWeight)

	candidates := make([]*candidate, 0, len(merged))
	for _, c := range merged {
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].combined != candidates[j].combined {
			return candidates[i].combined > candidates[j].combined
		}
		return candidates[i].hit.Order < candidates[j].hit.Order
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]kb.Result, len(candidates))
	for i, c := range candidates {
		results[i] = hitToResult(c.hit, kb.ScoreHybrid)
		results[i].Score = c.combined
	}
	return results, nil
}

// structuredLookup answers filter-only queries: chunks of a document in
// sequence order, or notes of a sensor (optionally windowed) in creation
// order.
func (e *Engine) structuredLookup(ctx context.Context, scope kb.Filter, limit int) ([]kb.Result, error) {
	var results []kb.Result

	switch {
	case scope.DocumentID != "":
		chunks, err := e.store.GetChunks(ctx, scope.DocumentID)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			results = append(results, kb.Result{
				ChunkID:    c.ID,
				DocumentID: c.DocumentID,
				Kind:       kb.KindChunk,
				Snippet:    snippet(c.Text),
				ScoreKind:  kb.ScoreStructured,
			})
		}
	case scope.OwnerID != "" || !scope.From.IsZero() || !scope.To.IsZero():
		notes, err := e.store.ListNotes(ctx, scope.OwnerID, scope.From, scope.To)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			results = append(results, kb.Result{
				ChunkID:   n.ID,
				OwnerID:   n.OwnerID,
				Kind:      kb.KindNote,
				Snippet:   snippet(n.Content),
				ScoreKind: kb.ScoreStructured,
			})
		}
	default:
		// Source-type scope: all chunks of matching documents, in
		// document insertion order.
		docs, err := e.store.ListDocuments(ctx)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if scope.SourceType != "" && doc.SourceType != scope.SourceType {
				continue
			}
			chunks, err := e.store.GetChunks(ctx, doc.ID)
			if err != nil {
				return nil, err
			}
			for _, c := range chunks {
				results = append(results, kb.Result{
					ChunkID:    c.ID,
					DocumentID: c.DocumentID,
					Kind:       kb.KindChunk,
					Snippet:    snippet(c.Text),
					ScoreKind:  kb.ScoreStructured,
				})
			}
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// clampLimit applies the configured default and maximum. Requesting more
// than the maximum is clamped, not an error.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

// normalize min-max scales hit scores into [0,1] within the candidate
// set. A uniform list normalizes to all ones.
func normalize(hits []kb.Hit) []float64 {
	norms := make([]float64, len(hits))
	if len(hits) == 0 {
		return norms
	}
	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}
	for i, h := range hits {
		if hi == lo {
			norms[i] = 1
		} else {
			norms[i] = (h.Score - lo) / (hi - lo)
		}
	}
	return norms
}

func toResults(hits []kb.Hit, kind kb.ScoreKind) []kb.Result {
	results := make([]kb.Result, len(hits))
	for i, h := range hits {
		results[i] = hitToResult(h, kind)
	}
	return results
}

func hitToResult(h kb.Hit, kind kb.ScoreKind) kb.Result {
	r := kb.Result{
		ChunkID:   h.ID,
		Kind:      h.Kind,
		Snippet:   snippet(h.Text),
		Score:     h.Score,
		ScoreKind: kind,
	}
	if h.Kind == kb.KindNote {
		r.OwnerID = h.ParentID
	} else {
		r.DocumentID = h.ParentID
	}
	return r
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "…"
}
