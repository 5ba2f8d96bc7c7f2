package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lab271/sensorkb/internal/config"
	"github.com/lab271/sensorkb/internal/embeddings"
	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/store"
)

const testDim = 8

// fakeSearcher returns canned hits so fusion arithmetic can be asserted
// exactly.
type fakeSearcher struct {
	kwHits  []kb.Hit
	vecHits []kb.Hit
}

func (f *fakeSearcher) FindByKeyword(_ context.Context, _ string, _ kb.Filter, limit int) ([]kb.Hit, error) {
	if limit < len(f.kwHits) {
		return f.kwHits[:limit], nil
	}
	return f.kwHits, nil
}

func (f *fakeSearcher) FindByVector(_ context.Context, _ []float32, _ kb.Filter, limit int) ([]kb.Hit, error) {
	if limit < len(f.vecHits) {
		return f.vecHits[:limit], nil
	}
	return f.vecHits, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.VectorDim = testDim
	cfg.DefaultLimit = 5
	cfg.MaxLimit = 20
	return cfg
}

func newTestEngine(t *testing.T, searcher kb.Searcher) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory(testDim)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if searcher == nil {
		searcher = st
	}
	return New(st, searcher, embeddings.NewLocalEmbedder(testDim), testConfig()), st
}

func chunkHit(id, doc string, score float64, order int64) kb.Hit {
	return kb.Hit{Kind: kb.KindChunk, ID: id, ParentID: doc, Text: "text of " + id, Score: score, Order: order}
}

func TestQueryRejectsEmptyRequest(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeSearcher{})
	_, err := eng.Query(context.Background(), Request{})
	if !errors.Is(err, kb.ErrAmbiguousQuery) {
		t.Fatalf("err = %v, want ErrAmbiguousQuery", err)
	}
}

func TestQueryKeywordOnly(t *testing.T) {
	searcher := &fakeSearcher{kwHits: []kb.Hit{
		chunkHit("d:0", "d", 2.0, 0),
		chunkHit("d:1", "d", 1.0, 1),
	}}
	eng, _ := newTestEngine(t, searcher)

	results, err := eng.Query(context.Background(), Request{Text: "valve"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ChunkID != "d:0" || results[0].ScoreKind != kb.ScoreKeyword {
		t.Errorf("top result = %+v", results[0])
	}
	if results[0].DocumentID != "d" {
		t.Errorf("DocumentID = %q, want d", results[0].DocumentID)
	}
}

func TestQueryVectorOnly(t *testing.T) {
	searcher := &fakeSearcher{vecHits: []kb.Hit{
		chunkHit("d:0", "d", 0.9, 0),
	}}
	eng, _ := newTestEngine(t, searcher)

	vec := make([]float32, testDim)
	vec[0] = 1
	results, err := eng.Query(context.Background(), Request{Vector: vec})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].ScoreKind != kb.ScoreVector {
		t.Fatalf("results = %+v", results)
	}
}

func TestQuerySemanticEmbedsText(t *testing.T) {
	// The searcher only has vector hits, so a result proves the text was
	// embedded and routed through hybrid mode.
	searcher := &fakeSearcher{vecHits: []kb.Hit{
		chunkHit("d:0", "d", 0.8, 0),
	}}
	eng, _ := newTestEngine(t, searcher)

	results, err := eng.Query(context.Background(), Request{Text: "pressure drop", Semantic: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].ScoreKind != kb.ScoreHybrid {
		t.Fatalf("results = %+v, want one hybrid result", results)
	}
}

func TestHybridFusion(t *testing.T) {
	// d:0 appears on both sides and must outrank single-side candidates.
	// Within each side scores min-max normalize to [0,1].
	searcher := &fakeSearcher{
		kwHits: []kb.Hit{
			chunkHit("d:0", "d", 3.0, 0),
			chunkHit("d:1", "d", 1.0, 1),
		},
		vecHits: []kb.Hit{
			chunkHit("d:0", "d", 0.9, 0),
			chunkHit("d:2", "d", 0.3, 2),
		},
	}
	eng, _ := newTestEngine(t, searcher)

	vec := make([]float32, testDim)
	vec[0] = 1
	results, err := eng.Query(context.Background(), Request{Text: "q", Vector: vec})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	// d:0 normalizes to 1.0 on both sides: combined 0.4 + 0.6 = 1.0. The
	// others normalize to 0 on their single side.
	if results[0].ChunkID != "d:0" {
		t.Errorf("top result = %s, want d:0", results[0].ChunkID)
	}
	if results[0].Score != 1.0 {
		t.Errorf("top score = %v, want 1.0", results[0].Score)
	}
	for _, r := range results {
		if r.ScoreKind != kb.ScoreHybrid {
			t.Errorf("result %s has ScoreKind %s, want hybrid", r.ChunkID, r.ScoreKind)
		}
	}
	// Ties at 0 fall back to insertion order: d:1 before d:2.
	if results[1].ChunkID != "d:1" || results[2].ChunkID != "d:2" {
		t.Errorf("tie order = %s, %s; want d:1, d:2", results[1].ChunkID, results[2].ChunkID)
	}
}

func TestLimitClamping(t *testing.T) {
	hits := make([]kb.Hit, 30)
	for i := range hits {
		hits[i] = chunkHit(kb.ChunkID("d", i), "d", float64(30-i), int64(i))
	}
	searcher := &fakeSearcher{kwHits: hits}
	eng, _ := newTestEngine(t, searcher)
	ctx := context.Background()

	// Zero limit falls back to the default.
	results, err := eng.Query(ctx, Request{Text: "q"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("default limit: got %d results, want 5", len(results))
	}

	// Oversized limit clamps to the maximum instead of erroring.
	results, err = eng.Query(ctx, Request{Text: "q", Limit: 500})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 20 {
		t.Errorf("max limit: got %d results, want 20", len(results))
	}
}

func TestStructuredDocumentLookup(t *testing.T) {
	eng, st := newTestEngine(t, nil)
	ctx := context.Background()

	doc := kb.Document{ID: "manual", SourceType: kb.SourceText, CreatedAt: time.Now().UTC()}
	chunks := []kb.Chunk{
		{ID: "manual:0", DocumentID: "manual", Sequence: 0, Text: "first part"},
		{ID: "manual:1", DocumentID: "manual", Sequence: 1, Text: "second part"},
	}
	if err := st.ReplaceDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}

	results, err := eng.Query(ctx, Request{Filter: kb.Filter{DocumentID: "manual"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ChunkID != "manual:0" || results[1].ChunkID != "manual:1" {
		t.Errorf("chunks out of sequence: %s, %s", results[0].ChunkID, results[1].ChunkID)
	}
	for _, r := range results {
		if r.ScoreKind != kb.ScoreStructured {
			t.Errorf("ScoreKind = %s, want structured", r.ScoreKind)
		}
	}

	// Unknown document surfaces the store's not-found error.
	_, err = eng.Query(ctx, Request{Filter: kb.Filter{DocumentID: "missing"}})
	if !errors.Is(err, kb.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStructuredNoteLookup(t *testing.T) {
	eng, st := newTestEngine(t, nil)
	ctx := context.Background()

	if err := st.AddSensor(ctx, kb.Sensor{ID: "temp-01", Name: "Boiler"}); err != nil {
		t.Fatalf("AddSensor: %v", err)
	}
	for _, content := range []string{"calibrated today", "drifts when cold"} {
		if _, err := st.AddNote(ctx, kb.KnowledgeNote{OwnerID: "temp-01", Content: content}); err != nil {
			t.Fatalf("AddNote: %v", err)
		}
	}

	results, err := eng.Query(ctx, Request{Filter: kb.Filter{OwnerID: "temp-01"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Kind != kb.KindNote || r.OwnerID != "temp-01" {
			t.Errorf("unexpected result %+v", r)
		}
	}
}

func TestStructuredTimeWindowLookup(t *testing.T) {
	eng, st := newTestEngine(t, nil)
	ctx := context.Background()

	if err := st.AddSensor(ctx, kb.Sensor{ID: "temp-01", Name: "Boiler"}); err != nil {
		t.Fatalf("AddSensor: %v", err)
	}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	notes := []kb.KnowledgeNote{
		{OwnerID: "temp-01", Content: "before the window", CreatedAt: base.Add(-48 * time.Hour)},
		{OwnerID: "temp-01", Content: "inside the window", CreatedAt: base},
	}
	for _, n := range notes {
		if _, err := st.AddNote(ctx, n); err != nil {
			t.Fatalf("AddNote: %v", err)
		}
	}
	doc := kb.Document{ID: "manual", SourceType: kb.SourceText, CreatedAt: base}
	chunks := []kb.Chunk{{ID: "manual:0", DocumentID: "manual", Sequence: 0, Text: "valve seat torque"}}
	if err := st.ReplaceDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}

	// A bare time window scopes notes; document chunks stay out even
	// when the document falls inside the window.
	results, err := eng.Query(ctx, Request{Filter: kb.Filter{
		From: base.Add(-time.Hour),
		To:   base.Add(time.Hour),
	}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	if results[0].Kind != kb.KindNote || results[0].Snippet != "inside the window" {
		t.Errorf("unexpected result %+v", results[0])
	}
}

func TestStructuredSourceTypeLookup(t *testing.T) {
	eng, st := newTestEngine(t, nil)
	ctx := context.Background()

	docs := []struct {
		id     string
		source kb.SourceType
	}{
		{"readme", kb.SourceMarkdown},
		{"log", kb.SourceText},
	}
	for _, d := range docs {
		doc := kb.Document{ID: d.id, SourceType: d.source}
		chunks := []kb.Chunk{{ID: d.id + ":0", DocumentID: d.id, Sequence: 0, Text: "body of " + d.id}}
		if err := st.ReplaceDocument(ctx, doc, chunks); err != nil {
			t.Fatalf("ReplaceDocument(%s): %v", d.id, err)
		}
	}

	results, err := eng.Query(ctx, Request{Filter: kb.Filter{SourceType: kb.SourceMarkdown}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].DocumentID != "readme" {
		t.Fatalf("results = %+v, want only readme's chunk", results)
	}
}

func TestSnippetTruncation(t *testing.T) {
	long := strings.Repeat("ü", snippetLen+50)
	searcher := &fakeSearcher{kwHits: []kb.Hit{
		{Kind: kb.KindChunk, ID: "d:0", ParentID: "d", Text: long, Score: 1},
	}}
	eng, _ := newTestEngine(t, searcher)

	results, err := eng.Query(context.Background(), Request{Text: "q"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	got := []rune(results[0].Snippet)
	if len(got) != snippetLen+1 || got[len(got)-1] != '…' {
		t.Errorf("snippet has %d runes ending %q, want %d plus ellipsis", len(got), got[len(got)-1], snippetLen)
	}
}
