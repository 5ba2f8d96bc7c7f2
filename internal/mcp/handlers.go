package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lab271/sensorkb/internal/kb"
	"github.com/lab271/sensorkb/internal/pipeline"
	"github.com/lab271/sensorkb/internal/query"
)

func (s *Server) handleIngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: document_id"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	result, err := s.svc.Ingest(ctx, pipeline.IngestRequest{
		DocumentID: docID,
		Title:      request.GetString("title", ""),
		Text:       text,
		SourceType: request.GetString("source_type", "text"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingest failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Document %q ingested: %d chunks created, %d embedded, %d failed (state: %s).",
		docID, result.ChunksCreated, result.ChunksEmbedded, result.ChunksFailed, result.State,
	)), nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: document_id"), nil
	}

	if err := s.svc.Delete(ctx, docID); err != nil {
		if errors.Is(err, kb.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("document %q not found", docID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Document %q deleted.", docID)), nil
}

func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	results, err := s.svc.Query(ctx, query.Request{
		Text:     q,
		Semantic: request.GetBool("semantic", false),
		Limit:    request.GetInt("limit", 0),
		Filter: kb.Filter{
			DocumentID: request.GetString("document_id", ""),
			OwnerID:    request.GetString("sensor_id", ""),
		},
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No relevant knowledge found."), nil
	}
	return mcp.NewToolResultText(formatResults(results)), nil
}

func (s *Server) handleAddSensor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("sensor_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: sensor_id"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	sensor := kb.Sensor{
		ID:       id,
		Name:     name,
		Type:     request.GetString("type", ""),
		Location: request.GetString("location", ""),
	}
	if err := s.svc.AddSensor(ctx, sensor); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add sensor failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Sensor %q (%s) added successfully.", name, id)), nil
}

func (s *Server) handleListSensors(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sensors, err := s.svc.ListSensors(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list sensors failed: %v", err)), nil
	}
	if len(sensors) == 0 {
		return mcp.NewToolResultText("No sensors registered."), nil
	}

	var sb strings.Builder
	sb.WriteString("Registered Sensors:\n")
	for _, s := range sensors {
		fmt.Fprintf(&sb, "- ID: %s, Name: %s, Type: %s, Location: %s\n", s.ID, s.Name, s.Type, s.Location)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleAddReading(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sensorID, err := request.RequireString("sensor_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: sensor_id"), nil
	}
	value, err := request.RequireFloat("value")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: value"), nil
	}

	if _, err := s.svc.AddReading(ctx, sensorID, value, time.Time{}); err != nil {
		if errors.Is(err, kb.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("sensor %q not found", sensorID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("add reading failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reading %g recorded for %s.", value, sensorID)), nil
}

func (s *Server) handleGetReadings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sensorID, err := request.RequireString("sensor_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: sensor_id"), nil
	}

	readings, err := s.svc.GetReadings(ctx, sensorID, request.GetInt("limit", 10), time.Time{}, time.Time{})
	if err != nil {
		if errors.Is(err, kb.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("sensor %q not found", sensorID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("get readings failed: %v", err)), nil
	}
	if len(readings) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No readings found for %s.", sensorID)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Recent readings for %s:\n", sensorID)
	for _, r := range readings {
		fmt.Fprintf(&sb, "- %s: %g\n", r.RecordedAt.Format(time.RFC3339), r.Value)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleAddKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sensorID, err := request.RequireString("sensor_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: sensor_id"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	note, err := s.svc.AddKnowledge(ctx, sensorID, content)
	if err != nil {
		if errors.Is(err, kb.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("sensor %q not found", sensorID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("add knowledge failed: %v", err)), nil
	}

	if note.Vector == nil {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Knowledge added for %s (embedding unavailable; note is keyword-searchable only).", sensorID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Knowledge added for %s (embedding size: %d).", sensorID, len(note.Vector))), nil
}

func (s *Server) handleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Documents: %d\nChunks: %d\nNotes: %d\nSensors: %d\nReadings: %d\nVector dimension: %d",
		stats.Documents, stats.Chunks, stats.Notes, stats.Sensors, stats.Readings, stats.VectorDimension,
	)), nil
}

// formatResults renders query results as human-readable text.
func formatResults(results []kb.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d (%s score: %.4f) ---\n", i+1, r.ScoreKind, r.Score)
		if r.DocumentID != "" {
			fmt.Fprintf(&sb, "Document: %s (chunk %s)\n", r.DocumentID, r.ChunkID)
		}
		if r.OwnerID != "" {
			fmt.Fprintf(&sb, "Sensor: %s (note %s)\n", r.OwnerID, r.ChunkID)
		}
		sb.WriteString(r.Snippet)
		sb.WriteString("\n")
	}
	return sb.String()
}
