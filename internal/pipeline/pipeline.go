// Package pipeline orchestrates ingestion: chunk, embed, persist, index.
// Each document moves through Pending, Chunked, Embedding, and Indexed
// (or Failed); a chunk whose embedding call fails is still persisted and
// keyword-searchable, just absent from similarity results.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lab271/sensorkb/internal/chunker"
	"github.com/lab271/sensorkb/internal/config"
	"github.com/lab271/sensorkb/internal/embeddings"
	"github.com/lab271/sensorkb/internal/index"
	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/store"
)

// Pipeline runs document and note ingestion against an explicitly
// injected store, indexer, and embedder.
type Pipeline struct {
	store      *store.Store
	idx        *index.Indexer
	embedder   embeddings.Embedder
	cfg        *config.Config
	locks      *docLocks
	onProgress ProgressFunc
}

// New creates a Pipeline. The embedder's dimension must match the
// store's; anything else would poison every vector written.
func New(st *store.Store, ix *index.Indexer, em embeddings.Embedder, cfg *config.Config) (*Pipeline, error) {
	if em.Dimensions() != st.Dimension() {
		return nil, fmt.Errorf("%w: embedder %q produces %d dimensions, store requires %d",
			kb.ErrInvalidDimension, em.Name(), em.Dimensions(), st.Dimension())
	}
	return &Pipeline{
		store:    st,
		idx:      ix,
		embedder: em,
		cfg:      cfg,
		locks:    newDocLocks(),
	}, nil
}

// SetProgressFunc sets the progress callback.
func (p *Pipeline) SetProgressFunc(fn ProgressFunc) {
	p.onProgress = fn
}

func (p *Pipeline) progress(id string, state DocState, done, total int) {
	if p.onProgress != nil {
		p.onProgress(id, state, done, total)
	}
}

// Ingest runs one document through the full pipeline. Ingestion of the
// same document id is serialized; independent ids run concurrently. On a
// re-ingestion readers observe either the old chunk set or the new one,
// never a mix.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	start := time.Now()

	if req.DocumentID == "" {
		return nil, fmt.Errorf("document id is required")
	}
	sourceType := kb.SourceType(req.SourceType)
	if sourceType == "" {
		sourceType = kb.SourceText
	}

	unlock := p.locks.acquire(req.DocumentID)
	defer unlock()

	result := &IngestResult{DocumentID: req.DocumentID, State: StatePending}
	p.progress(req.DocumentID, StatePending, 0, 0)

	// Chunk. A config error here is a validation failure: nothing has
	// been written yet.
	text := req.Text
	if sourceType == kb.SourceMarkdown {
		text = chunker.ExtractMarkdownText([]byte(req.Text))
	}
	pieces, err := chunker.Split(text, p.cfg.ChunkMaxLen, p.cfg.ChunkOverlap)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	result.State = StateChunked
	result.ChunksCreated = len(pieces)
	p.progress(req.DocumentID, StateChunked, 0, len(pieces))

	// Embed through the worker pool. Per-chunk failures are absorbed;
	// cancellation of the whole run is not.
	result.State = StateEmbedding
	outcomes := p.embedAll(ctx, pieces)
	if err := ctx.Err(); err != nil {
		// Cancelled mid-flight: leave the store in its pre-ingestion state.
		result.State = StateFailed
		return result, err
	}

	doc := kb.Document{
		ID:         req.DocumentID,
		Title:      req.Title,
		SourceType: sourceType,
		Content:    req.Text,
		CreatedAt:  time.Now().UTC(),
	}
	chunks := make([]kb.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = kb.Chunk{
			ID:         kb.ChunkID(req.DocumentID, i),
			DocumentID: req.DocumentID,
			Sequence:   i,
			Text:       piece,
		}
		if outcomes[i].err != nil {
			result.ChunksFailed++
			log.Printf("pipeline: embed chunk %s: %v", chunks[i].ID, outcomes[i].err)
			continue
		}
		chunks[i].Vector = outcomes[i].vector
		result.ChunksEmbedded++
	}
	p.progress(req.DocumentID, StateEmbedding, result.ChunksEmbedded, len(pieces))

	// Persist document and chunks in one transaction, then refresh the
	// index projections.
	if err := p.store.ReplaceDocument(ctx, doc, chunks); err != nil {
		result.State = StateFailed
		return result, err
	}
	if err := p.idx.AddDocument(ctx, doc, chunks); err != nil {
		// The store committed; the projection can be rebuilt.
		result.State = StateFailed
		return result, fmt.Errorf("index update (rebuildable): %w", err)
	}

	if result.ChunksCreated > 0 && result.ChunksEmbedded == 0 {
		// Every chunk failed to embed. The chunks are persisted and
		// keyword-searchable, but the run is reported as failed.
		result.State = StateFailed
	} else {
		result.State = StateIndexed
	}
	result.Duration = time.Since(start)
	p.progress(req.DocumentID, result.State, result.ChunksEmbedded, len(pieces))
	return result, nil
}

// IngestNote embeds and stores a knowledge note for an existing sensor.
// Embedding failure degrades to a vectorless, keyword-only note.
func (p *Pipeline) IngestNote(ctx context.Context, ownerID, content string) (*kb.KnowledgeNote, error) {
	note := kb.KnowledgeNote{OwnerID: ownerID, Content: content}

	outcome := p.embedOne(ctx, content)
	if outcome.err != nil {
		log.Printf("pipeline: embed note for sensor %s: %v", ownerID, outcome.err)
	} else {
		note.Vector = outcome.vector
	}

	stored, err := p.store.AddNote(ctx, note)
	if err != nil {
		return nil, err
	}
	if err := p.idx.AddNote(ctx, *stored); err != nil {
		return stored, fmt.Errorf("index update (rebuildable): %w", err)
	}
	return stored, nil
}

// Delete removes a document, its chunks, and their index entries. Queries
// for any of its content return empty afterward.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	unlock := p.locks.acquire(documentID)
	defer unlock()

	if err := p.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	return p.idx.RemoveDocument(ctx, documentID)
}
