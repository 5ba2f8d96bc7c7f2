package pipeline

import "time"

// DocState tracks a document through the ingestion state machine.
type DocState string

const (
	StatePending   DocState = "pending"
	StateChunked   DocState = "chunked"
	StateEmbedding DocState = "embedding"
	StateIndexed   DocState = "indexed"
	StateFailed    DocState = "failed"
)

// IngestRequest describes one document to ingest. Re-using an existing
// DocumentID replaces the prior version wholesale.
type IngestRequest struct {
	DocumentID string
	Title      string
	Text       string
	SourceType string // text, markdown, pdf, note; defaults to text
}

// IngestResult reports the outcome per document. Partial embedding
// success is explicit: ChunksFailed chunks were persisted without a
// vector and stay keyword-searchable.
type IngestResult struct {
	DocumentID     string
	State          DocState
	ChunksCreated  int
	ChunksEmbedded int
	ChunksFailed   int
	Duration       time.Duration
}

// ProgressFunc is called as a document moves through the pipeline.
type ProgressFunc func(documentID string, state DocState, done, total int)
