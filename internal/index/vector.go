package index

import (
	"context"
	"fmt"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lab271/sensorkb/internal/kb"
)

const collectionName = "knowledge"

// vectorIndex wraps a chromem-go collection holding one entry per
// embedded chunk or note. Entries without a vector never enter here.
type vectorIndex struct {
	db        *chromem.DB
	col       *chromem.Collection
	embedFunc chromem.EmbeddingFunc
}

func newVectorIndex(ef chromem.EmbeddingFunc) (*vectorIndex, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &vectorIndex{db: db, col: col, embedFunc: ef}, nil
}

func (v *vectorIndex) add(ctx context.Context, e *indexEntry, vector []float32) error {
	doc := chromem.Document{
		ID:        e.id,
		Content:   e.text,
		Embedding: vector,
		Metadata: map[string]string{
			"kind":        string(e.kind),
			"parent":      e.parent,
			"source_type": string(e.source),
			"created_at":  e.created.UTC().Format(time.RFC3339),
		},
	}
	return v.col.AddDocuments(ctx, []chromem.Document{doc}, 1)
}

func (v *vectorIndex) removeParent(ctx context.Context, kind kb.EntryKind, parent string) error {
	if v.col.Count() == 0 {
		return nil
	}
	where := map[string]string{"kind": string(kind), "parent": parent}
	return v.col.Delete(ctx, where, nil)
}

func (v *vectorIndex) removeIDs(ctx context.Context, ids ...string) error {
	if v.col.Count() == 0 || len(ids) == 0 {
		return nil
	}
	return v.col.Delete(ctx, nil, nil, ids...)
}

// query returns the top-n entries by similarity within the metadata
// scope. Time-window filtering happens on the decoded metadata afterward,
// so callers needing a window should pass n = count.
func (v *vectorIndex) query(ctx context.Context, vector []float32, n int, scope kb.Filter) ([]chromem.Result, error) {
	count := v.col.Count()
	if count == 0 {
		return nil, nil
	}
	if n <= 0 || !scope.From.IsZero() || !scope.To.IsZero() {
		// No limit, or a post-filtered window: rank everything in scope.
		n = count
	}
	if n > count {
		n = count
	}

	results, err := v.col.QueryEmbedding(ctx, vector, n, whereFor(scope), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	if scope.From.IsZero() && scope.To.IsZero() {
		return results, nil
	}
	filtered := results[:0]
	for _, r := range results {
		created, err := time.Parse(time.RFC3339, r.Metadata["created_at"])
		if err != nil {
			continue
		}
		if !scope.From.IsZero() && created.Before(scope.From) {
			continue
		}
		if !scope.To.IsZero() && created.After(scope.To) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

func whereFor(scope kb.Filter) map[string]string {
	where := make(map[string]string)
	if scope.DocumentID != "" {
		where["kind"] = string(kb.KindChunk)
		where["parent"] = scope.DocumentID
	}
	if scope.OwnerID != "" {
		where["kind"] = string(kb.KindNote)
		where["parent"] = scope.OwnerID
	}
	if scope.SourceType != "" {
		where["kind"] = string(kb.KindChunk)
		where["source_type"] = string(scope.SourceType)
	}
	if len(where) == 0 {
		return nil
	}
	return where
}
