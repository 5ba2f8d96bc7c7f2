package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/pipeline"
	"github.com/lab271/sensorkb/internal/query"
)

// ingestRequest is the JSON body for POST /api/documents.
type ingestRequest struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	SourceType string `json:"source_type"`
}

// ingestResponse mirrors pipeline.IngestResult.
type ingestResponse struct {
	DocumentID     string `json:"document_id"`
	State          string `json:"state"`
	ChunksCreated  int    `json:"chunks_created"`
	ChunksEmbedded int    `json:"chunks_embedded"`
	ChunksFailed   int    `json:"chunks_failed"`
}

// queryRequest is the JSON body for POST /api/query.
type queryRequest struct {
	Query      string `json:"query"`
	Semantic   bool   `json:"semantic"`
	DocumentID string `json:"document_id"`
	SensorID   string `json:"sensor_id"`
	SourceType string `json:"source_type"`
	From       string `json:"from"` // RFC3339, optional
	To         string `json:"to"`   // RFC3339, optional
	Limit      int    `json:"limit"`
}

type resultResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id,omitempty"`
	SensorID   string  `json:"sensor_id,omitempty"`
	Kind       string  `json:"kind"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
	ScoreKind  string  `json:"score_kind"`
}

type documentResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	SourceType string    `json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
}

type chunkResponse struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
	Text     string `json:"text"`
	Embedded bool   `json:"embedded"`
}

type sensorRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

type readingRequest struct {
	Value      float64 `json:"value"`
	RecordedAt string  `json:"recorded_at"` // RFC3339, optional
}

type readingResponse struct {
	SensorID   string    `json:"sensor_id"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

type knowledgeRequest struct {
	Content string `json:"content"`
}

type statsResponse struct {
	Documents       int `json:"documents"`
	Chunks          int `json:"chunks"`
	Notes           int `json:"notes"`
	Sensors         int `json:"sensors"`
	Readings        int `json:"readings"`
	VectorDimension int `json:"vector_dimension"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DocumentID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "document_id and text are required")
		return
	}

	result, err := s.svc.Ingest(r.Context(), pipeline.IngestRequest{
		DocumentID: req.DocumentID,
		Title:      req.Title,
		Text:       req.Text,
		SourceType: req.SourceType,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		DocumentID:     result.DocumentID,
		State:          string(result.State),
		ChunksCreated:  result.ChunksCreated,
		ChunksEmbedded: result.ChunksEmbedded,
		ChunksFailed:   result.ChunksFailed,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.ListDocuments(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{
			ID:         d.ID,
			Title:      d.Title,
			SourceType: string(d.SourceType),
			CreatedAt:  d.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetChunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.svc.GetChunks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]chunkResponse, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, chunkResponse{
			ID:       c.ID,
			Sequence: c.Sequence,
			Text:     c.Text,
			Embedded: c.Vector != nil,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	filter := kb.Filter{
		DocumentID: req.DocumentID,
		OwnerID:    req.SensorID,
		SourceType: kb.SourceType(req.SourceType),
	}
	var err error
	if filter.From, err = parseTime(req.From); err != nil {
		writeError(w, http.StatusBadRequest, "from: expected RFC3339 timestamp")
		return
	}
	if filter.To, err = parseTime(req.To); err != nil {
		writeError(w, http.StatusBadRequest, "to: expected RFC3339 timestamp")
		return
	}

	results, err := s.svc.Query(r.Context(), query.Request{
		Filter:   filter,
		Text:     req.Query,
		Semantic: req.Semantic,
		Limit:    req.Limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, resultResponse{
			ChunkID:    res.ChunkID,
			DocumentID: res.DocumentID,
			SensorID:   res.OwnerID,
			Kind:       string(res.Kind),
			Snippet:    res.Snippet,
			Score:      res.Score,
			ScoreKind:  string(res.ScoreKind),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Documents:       stats.Documents,
		Chunks:          stats.Chunks,
		Notes:           stats.Notes,
		Sensors:         stats.Sensors,
		Readings:        stats.Readings,
		VectorDimension: stats.VectorDimension,
	})
}

func (s *Server) handleAddSensor(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required")
		return
	}

	err := s.svc.AddSensor(r.Context(), kb.Sensor{
		ID:       req.ID,
		Name:     req.Name,
		Type:     req.Type,
		Location: req.Location,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := s.svc.ListSensors(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]sensorRequest, 0, len(sensors))
	for _, sn := range sensors {
		out = append(out, sensorRequest{ID: sn.ID, Name: sn.Name, Type: sn.Type, Location: sn.Location})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	at, err := parseTime(req.RecordedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "recorded_at: expected RFC3339 timestamp")
		return
	}

	reading, err := s.svc.AddReading(r.Context(), chi.URLParam(r, "id"), req.Value, at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, readingResponse{
		SensorID:   reading.SensorID,
		Value:      reading.Value,
		RecordedAt: reading.RecordedAt,
	})
}

func (s *Server) handleGetReadings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	from, err := parseTime(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: expected RFC3339 timestamp")
		return
	}
	to, err := parseTime(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: expected RFC3339 timestamp")
		return
	}

	readings, err := s.svc.GetReadings(r.Context(), chi.URLParam(r, "id"), limit, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]readingResponse, 0, len(readings))
	for _, rd := range readings {
		out = append(out, readingResponse{SensorID: rd.SensorID, Value: rd.Value, RecordedAt: rd.RecordedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req knowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	note, err := s.svc.AddKnowledge(r.Context(), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        note.ID,
		"sensor_id": note.OwnerID,
		"embedded":  note.Vector != nil,
	})
}

func (s *Server) handleImportSensors(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ImportSensorsCSV(r.Context(), r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Imported: n})
}

func (s *Server) handleImportReadings(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ImportReadingsCSV(r.Context(), r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Imported: n})
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, kb.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, kb.ErrAmbiguousQuery), errors.Is(err, kb.ErrInvalidDimension):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
