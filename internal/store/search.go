package store

import (
	"context"
	"fmt"

	"github.com/lab271/sensorkb/internal/kb"
)

// The store's search path is the brute-force reference implementation:
// scan the scoped rows and score in Go. Fine for corpora well below a few
// hundred thousand chunks; the in-memory index projections exist for the
// fast path and must agree with these results in kind.

// FindByKeyword scans scoped chunks and notes for term containment,
// ranked by the shared frequency/position heuristic, ties broken by
// insertion order.
func (s *Store) FindByKeyword(ctx context.Context, text string, scope kb.Filter, limit int) ([]kb.Hit, error) {
	terms := kb.Tokenize(text)
	if len(terms) == 0 {
		return nil, nil
	}

	candidates, err := s.scopedEntries(ctx, scope, false)
	if err != nil {
		return nil, err
	}

	var hits []kb.Hit
	for _, e := range candidates {
		score := kb.KeywordScore(e.text, terms)
		if score <= 0 {
			continue
		}
		hits = append(hits, kb.Hit{
			Kind:     e.kind,
			ID:       e.id,
			ParentID: e.parent,
			Text:     e.text,
			Score:    score,
			Order:    e.order,
		})
	}

	kb.SortHits(hits)
	return kb.TruncateHits(hits, limit), nil
}

// FindByVector ranks scoped items by cosine similarity to vector. Items
// without a stored vector never participate. The query vector must match
// the store dimension.
func (s *Store) FindByVector(ctx context.Context, vector []float32, scope kb.Filter, limit int) ([]kb.Hit, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: got %d, store requires %d", kb.ErrInvalidDimension, len(vector), s.dim)
	}

	candidates, err := s.scopedEntries(ctx, scope, true)
	if err != nil {
		return nil, err
	}

	var hits []kb.Hit
	for _, e := range candidates {
		sim := kb.CosineSimilarity(vector, e.vector)
		hits = append(hits, kb.Hit{
			Kind:     e.kind,
			ID:       e.id,
			ParentID: e.parent,
			Text:     e.text,
			Score:    sim,
			Order:    e.order,
		})
	}

	kb.SortHits(hits)
	return kb.TruncateHits(hits, limit), nil
}

type searchEntry struct {
	kind   kb.EntryKind
	id     string
	parent string
	text   string
	vector []float32
	order  int64
}

// scopedEntries loads the chunk and note rows a filter selects. Chunks are
// excluded when the filter names a sensor; notes are excluded when it
// names a document or source type. vectorOnly skips rows without a stored
// vector.
func (s *Store) scopedEntries(ctx context.Context, scope kb.Filter, vectorOnly bool) ([]searchEntry, error) {
	var entries []searchEntry

	if scope.OwnerID == "" {
		query := `SELECT c.id, c.document_id, c.body, c.vector, c.rowid
		          FROM chunks c JOIN documents d ON c.document_id = d.id WHERE 1=1`
		var args []any
		if scope.DocumentID != "" {
			query += ` AND c.document_id = ?`
			args = append(args, scope.DocumentID)
		}
		if scope.SourceType != "" {
			query += ` AND d.source_type = ?`
			args = append(args, string(scope.SourceType))
		}
		if !scope.From.IsZero() {
			query += ` AND d.created_at >= ?`
			args = append(args, scope.From)
		}
		if !scope.To.IsZero() {
			query += ` AND d.created_at <= ?`
			args = append(args, scope.To)
		}
		if vectorOnly {
			query += ` AND c.vector IS NOT NULL`
		}

		chunkEntries, err := s.queryEntries(ctx, kb.KindChunk, query, args)
		if err != nil {
			return nil, err
		}
		entries = append(entries, chunkEntries...)
	}

	if scope.DocumentID == "" && scope.SourceType == "" {
		query := `SELECT id, sensor_id, content, vector, rowid FROM notes WHERE 1=1`
		var args []any
		if scope.OwnerID != "" {
			query += ` AND sensor_id = ?`
			args = append(args, scope.OwnerID)
		}
		if !scope.From.IsZero() {
			query += ` AND created_at >= ?`
			args = append(args, scope.From)
		}
		if !scope.To.IsZero() {
			query += ` AND created_at <= ?`
			args = append(args, scope.To)
		}
		if vectorOnly {
			query += ` AND vector IS NOT NULL`
		}

		noteEntries, err := s.queryEntries(ctx, kb.KindNote, query, args)
		if err != nil {
			return nil, err
		}
		entries = append(entries, noteEntries...)
	}

	return entries, nil
}

func (s *Store) queryEntries(ctx context.Context, kind kb.EntryKind, query string, args []any) ([]searchEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, kb.WrapStorage("search scan", err)
	}
	defer rows.Close()

	var entries []searchEntry
	for rows.Next() {
		e := searchEntry{kind: kind}
		var blob []byte
		if err := rows.Scan(&e.id, &e.parent, &e.text, &blob, &e.order); err != nil {
			return nil, kb.WrapStorage("search scan", err)
		}
		if len(blob) > 0 {
			vec, err := decodeVector(blob)
			if err != nil {
				return nil, kb.WrapStorage("decode vector", err)
			}
			e.vector = vec
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

