// Package service is the transport-independent operation table of the
// knowledge base. Every surface (CLI, HTTP, MCP) calls through here; the
// store, indexer, and embedder are injected rather than global.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lab271/sensorkb/internal/config"
	"github.com/lab271/sensorkb/internal/embeddings"
	"github.com/lab271/sensorkb/internal/index"
	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/pipeline"
	"github.com/lab271/sensorkb/internal/query"
	"github.com/lab271/sensorkb/internal/store"
)

// Service bundles the pipeline, query engine, and store behind the fixed
// operation set.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	idx      *index.Indexer
	pipe     *pipeline.Pipeline
	engine   *query.Engine
	embedder embeddings.Embedder
}

// New wires a Service from explicit dependencies. The index projections
// are rebuilt from the store so they start consistent.
func New(ctx context.Context, cfg *config.Config, st *store.Store, em embeddings.Embedder) (*Service, error) {
	idx, err := index.New(embeddings.ToChromemFunc(em))
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	if err := idx.Rebuild(ctx, st); err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}

	pipe, err := pipeline.New(st, idx, em, cfg)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		store:    st,
		idx:      idx,
		pipe:     pipe,
		engine:   query.New(st, idx, em, cfg),
		embedder: em,
	}, nil
}

// Open is the production constructor: it validates the config, opens the
// database, and builds the embedder from configuration.
func Open(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	em, err := embeddings.New(string(cfg.EmbedProvider), cfg.EmbedModel, cfg.VectorDim, cfg.EmbedBaseURL)
	if err != nil {
		return nil, err
	}
	if em.Dimensions() != cfg.VectorDim {
		return nil, fmt.Errorf("%w: embedder %q produces %d dimensions, config says %d",
			kb.ErrInvalidDimension, em.Name(), em.Dimensions(), cfg.VectorDim)
	}

	st, err := store.Open(cfg.DBPath, cfg.VectorDim)
	if err != nil {
		return nil, err
	}

	svc, err := New(ctx, cfg, st, em)
	if err != nil {
		st.Close()
		return nil, err
	}
	return svc, nil
}

// Close releases the underlying database.
func (s *Service) Close() error { return s.store.Close() }

// SetProgressFunc forwards ingestion progress events, e.g. to a progress
// bar or a websocket stream.
func (s *Service) SetProgressFunc(fn pipeline.ProgressFunc) {
	s.pipe.SetProgressFunc(fn)
}

// Ingest chunks, embeds, persists, and indexes one document.
func (s *Service) Ingest(ctx context.Context, req pipeline.IngestRequest) (*pipeline.IngestResult, error) {
	return s.pipe.Ingest(ctx, req)
}

// Delete removes a document and all derived state.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	return s.pipe.Delete(ctx, documentID)
}

// Query runs a structured, keyword, vector, or hybrid query.
func (s *Service) Query(ctx context.Context, req query.Request) ([]kb.Result, error) {
	return s.engine.Query(ctx, req)
}

// Stats summarizes the corpus.
func (s *Service) Stats(ctx context.Context) (kb.Stats, error) {
	return s.store.Stats(ctx)
}

// ListDocuments returns all documents in insertion order.
func (s *Service) ListDocuments(ctx context.Context) ([]kb.Document, error) {
	return s.store.ListDocuments(ctx)
}

// GetChunks returns a document's chunks in sequence order.
func (s *Service) GetChunks(ctx context.Context, documentID string) ([]kb.Chunk, error) {
	return s.store.GetChunks(ctx, documentID)
}

// AddSensor registers a structured sensor record.
func (s *Service) AddSensor(ctx context.Context, sensor kb.Sensor) error {
	return s.store.AddSensor(ctx, sensor)
}

// ListSensors returns all sensors ordered by name.
func (s *Service) ListSensors(ctx context.Context) ([]kb.Sensor, error) {
	return s.store.ListSensors(ctx)
}

// AddReading records a measurement for an existing sensor.
func (s *Service) AddReading(ctx context.Context, sensorID string, value float64, at time.Time) (*kb.Reading, error) {
	return s.store.AddReading(ctx, sensorID, value, at)
}

// GetReadings returns recent readings for a sensor, newest first.
func (s *Service) GetReadings(ctx context.Context, sensorID string, limit int, from, to time.Time) ([]kb.Reading, error) {
	return s.store.GetReadings(ctx, sensorID, limit, from, to)
}

// AddKnowledge embeds and stores a knowledge note for a sensor.
func (s *Service) AddKnowledge(ctx context.Context, sensorID, content string) (*kb.KnowledgeNote, error) {
	return s.pipe.IngestNote(ctx, sensorID, content)
}

// ImportSensorsCSV bulk-loads sensors from CSV.
func (s *Service) ImportSensorsCSV(ctx context.Context, r io.Reader) (int, error) {
	return s.store.ImportSensorsCSV(ctx, r)
}

// ImportReadingsCSV bulk-loads readings from CSV.
func (s *Service) ImportReadingsCSV(ctx context.Context, r io.Reader) (int, error) {
	return s.store.ImportReadingsCSV(ctx, r)
}
