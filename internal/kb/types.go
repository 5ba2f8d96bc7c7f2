package kb

import "time"

// SourceType categorizes where a document's raw text came from.
type SourceType string

const (
	SourceText     SourceType = "text"
	SourceMarkdown SourceType = "markdown"
	SourcePDF      SourceType = "pdf"
	SourceNote     SourceType = "note"
)

// Document is an ingested piece of reference text (manual, sensor note,
// extracted PDF). It owns zero or more Chunks and is immutable once stored;
// re-ingestion replaces it wholesale under the same id.
type Document struct {
	ID         string
	Title      string
	SourceType SourceType
	Content    string
	CreatedAt  time.Time
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// embedding and retrieval. A nil Vector means embedding is still pending
// (or failed); such chunks stay keyword-searchable but never appear in
// similarity results.
type Chunk struct {
	ID         string
	DocumentID string
	Sequence   int
	Text       string
	Vector     []float32
}

// KnowledgeNote is an unstructured annotation attached to a sensor rather
// than a document. It gets the same embedding and indexing treatment as a
// Chunk.
type KnowledgeNote struct {
	ID        string
	OwnerID   string
	Content   string
	Vector    []float32
	CreatedAt time.Time
}

// Sensor is a structured record the notes hang off. Sensors are loaded at
// startup (CSV import) or registered through the service.
type Sensor struct {
	ID        string
	Name      string
	Type      string
	Location  string
	CreatedAt time.Time
}

// Reading is a single time-series measurement for a sensor.
type Reading struct {
	ID         int64
	SensorID   string
	Value      float64
	RecordedAt time.Time
}

// EntryKind tells apart the two embeddable item kinds in search results.
type EntryKind string

const (
	KindChunk EntryKind = "chunk"
	KindNote  EntryKind = "note"
)

// ScoreKind reports which ranking produced a result's score.
type ScoreKind string

const (
	ScoreStructured ScoreKind = "structured"
	ScoreKeyword    ScoreKind = "keyword"
	ScoreVector     ScoreKind = "vector"
	ScoreHybrid     ScoreKind = "hybrid"
)

// Filter narrows a search to a document, a sensor, a source type, or a
// creation-time window. The zero value means "all".
type Filter struct {
	DocumentID string
	OwnerID    string
	SourceType SourceType
	From       time.Time
	To         time.Time
}

// Empty reports whether the filter places no restriction at all.
func (f Filter) Empty() bool {
	return f.DocumentID == "" && f.OwnerID == "" && f.SourceType == "" &&
		f.From.IsZero() && f.To.IsZero()
}

// Hit is a single scored match from keyword or vector search.
type Hit struct {
	Kind     EntryKind
	ID       string
	ParentID string // document id for chunks, sensor id for notes
	Text     string
	Score    float64
	Order    int64 // insertion order, used as the final tiebreak
}

// Result is what the query engine hands back to callers: a scored match
// with provenance.
type Result struct {
	ChunkID    string
	DocumentID string
	OwnerID    string
	Kind       EntryKind
	Snippet    string
	Score      float64
	ScoreKind  ScoreKind
}

// Stats summarizes the corpus.
type Stats struct {
	Documents       int
	Chunks          int
	Notes           int
	Sensors         int
	Readings        int
	VectorDimension int
}
