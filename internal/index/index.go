// Package index maintains the two retrieval projections over the store:
// an inverted keyword index and a chromem-go nearest-neighbor structure
// over vectors. Both are caches, never the source of truth, and can be
// rebuilt from the store at any time.
package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lab271/sensorkb/internal/kb"
)

// Source is the slice of the store the indexer needs for a full rebuild.
type Source interface {
	ListDocuments(ctx context.Context) ([]kb.Document, error)
	GetChunks(ctx context.Context, documentID string) ([]kb.Chunk, error)
	ListNotes(ctx context.Context, ownerID string, from, to time.Time) ([]kb.KnowledgeNote, error)
}

// Indexer keeps the keyword and vector projections in sync with the
// store, incrementally per document/note. Safe for concurrent use;
// queries take a read lock, updates a write lock.
type Indexer struct {
	mu        sync.RWMutex
	kw        *keywordIndex
	vec       *vectorIndex
	embedFunc chromem.EmbeddingFunc
	nextOrder int64
}

// New creates an empty Indexer. ef is only invoked if a document ever
// reaches chromem without a precomputed vector, which the indexer itself
// never does.
func New(ef chromem.EmbeddingFunc) (*Indexer, error) {
	vec, err := newVectorIndex(ef)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		kw:        newKeywordIndex(),
		vec:       vec,
		embedFunc: ef,
	}, nil
}

// AddDocument indexes a document's chunk set: every chunk enters the
// keyword index, chunks with vectors also enter the vector index. Any
// previous entries for the document are dropped first.
func (ix *Indexer) AddDocument(ctx context.Context, doc kb.Document, chunks []kb.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.kw.removeParent(kb.KindChunk, doc.ID)
	if err := ix.vec.removeParent(ctx, kb.KindChunk, doc.ID); err != nil {
		return fmt.Errorf("drop old vector entries: %w", err)
	}

	for _, c := range chunks {
		e := &indexEntry{
			id:      c.ID,
			kind:    kb.KindChunk,
			parent:  doc.ID,
			source:  doc.SourceType,
			created: doc.CreatedAt,
			text:    c.Text,
			order:   ix.nextOrder,
		}
		ix.nextOrder++
		ix.kw.add(e)
		if c.Vector != nil {
			if err := ix.vec.add(ctx, e, c.Vector); err != nil {
				return fmt.Errorf("index chunk %s: %w", c.ID, err)
			}
		}
	}
	return nil
}

// RemoveDocument drops every index entry of a document from both
// projections. Unknown ids are a no-op: the index is a projection and
// deletion must be idempotent.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.kw.removeParent(kb.KindChunk, documentID)
	return ix.vec.removeParent(ctx, kb.KindChunk, documentID)
}

// AddNote indexes a single knowledge note.
func (ix *Indexer) AddNote(ctx context.Context, note kb.KnowledgeNote) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e := &indexEntry{
		id:      note.ID,
		kind:    kb.KindNote,
		parent:  note.OwnerID,
		source:  kb.SourceNote,
		created: note.CreatedAt,
		text:    note.Content,
		order:   ix.nextOrder,
	}
	ix.nextOrder++
	ix.kw.add(e)
	if note.Vector != nil {
		if err := ix.vec.add(ctx, e, note.Vector); err != nil {
			return fmt.Errorf("index note %s: %w", note.ID, err)
		}
	}
	return nil
}

// RemoveNote drops a note from both projections.
func (ix *Indexer) RemoveNote(ctx context.Context, id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.kw.remove(id)
	return ix.vec.removeIDs(ctx, id)
}

// FindByKeyword implements kb.Searcher over the inverted index.
func (ix *Indexer) FindByKeyword(_ context.Context, text string, scope kb.Filter, limit int) ([]kb.Hit, error) {
	terms := kb.Tokenize(text)
	if len(terms) == 0 {
		return nil, nil
	}

	ix.mu.RLock()
	hits := ix.kw.search(terms, scope)
	ix.mu.RUnlock()

	kb.SortHits(hits)
	return kb.TruncateHits(hits, limit), nil
}

// FindByVector implements kb.Searcher over the chromem projection.
func (ix *Indexer) FindByVector(ctx context.Context, vector []float32, scope kb.Filter, limit int) ([]kb.Hit, error) {
	ix.mu.RLock()
	results, err := ix.vec.query(ctx, vector, limit, scope)
	if err != nil {
		ix.mu.RUnlock()
		return nil, err
	}

	hits := make([]kb.Hit, 0, len(results))
	for _, r := range results {
		var order int64
		if e := ix.kw.entries[r.ID]; e != nil {
			order = e.order
		}
		hits = append(hits, kb.Hit{
			Kind:     kb.EntryKind(r.Metadata["kind"]),
			ID:       r.ID,
			ParentID: r.Metadata["parent"],
			Text:     r.Content,
			Score:    float64(r.Similarity),
			Order:    order,
		})
	}
	ix.mu.RUnlock()

	kb.SortHits(hits)
	return kb.TruncateHits(hits, limit), nil
}

// Rebuild wipes both projections and reloads them from the store.
func (ix *Indexer) Rebuild(ctx context.Context, src Source) error {
	ix.mu.Lock()
	vec, err := newVectorIndex(ix.embedFunc)
	if err != nil {
		ix.mu.Unlock()
		return err
	}
	ix.kw = newKeywordIndex()
	ix.vec = vec
	ix.nextOrder = 0
	ix.mu.Unlock()

	docs, err := src.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	for _, doc := range docs {
		chunks, err := src.GetChunks(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("rebuild %s: %w", doc.ID, err)
		}
		if err := ix.AddDocument(ctx, doc, chunks); err != nil {
			return fmt.Errorf("rebuild %s: %w", doc.ID, err)
		}
	}

	notes, err := src.ListNotes(ctx, "", time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("rebuild notes: %w", err)
	}
	for _, note := range notes {
		if err := ix.AddNote(ctx, note); err != nil {
			return fmt.Errorf("rebuild note %s: %w", note.ID, err)
		}
	}
	return nil
}

// Counts returns the number of keyword-indexed and vector-indexed
// entries, mainly for diagnostics.
func (ix *Indexer) Counts() (keyword, vector int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.kw.entries), ix.vec.col.Count()
}
