package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lab271/sensorkb/internal/config"
	"github.com/lab271/sensorkb/internal/embeddings"
	"github.com/lab271/sensorkb/internal/service"
	"github.com/lab271/sensorkb/internal/store"
)

func newTestMCPServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.VectorDim = 32
	cfg.ChunkMaxLen = 64
	cfg.ChunkOverlap = 8

	st, err := store.OpenMemory(cfg.VectorDim)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc, err := service.New(context.Background(), cfg, st, embeddings.NewLocalEmbedder(cfg.VectorDim))
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	return NewServer(svc)
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	tools := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{ingestDocumentTool, "ingest_document"},
		{deleteDocumentTool, "delete_document"},
		{searchKnowledgeTool, "search_knowledge"},
		{addSensorTool, "add_sensor"},
		{listSensorsTool, "list_sensors"},
		{addReadingTool, "add_reading"},
		{getReadingsTool, "get_readings"},
		{addKnowledgeTool, "add_knowledge"},
		{statsTool, "kb_stats"},
	}

	for _, tt := range tools {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestMCPServer(t)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.svc == nil {
		t.Fatal("service not set")
	}
}

func TestHandleIngestAndSearch(t *testing.T) {
	srv := newTestMCPServer(t)
	ctx := context.Background()

	t.Run("ingest", func(t *testing.T) {
		result, err := srv.handleIngestDocument(ctx, callReq(map[string]any{
			"document_id": "manual",
			"title":       "Pump Manual",
			"text":        "The coolant valve sticks when the intake pressure drops below two bar.",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if text := textOf(t, result); !strings.Contains(text, "indexed") {
			t.Errorf("result text = %q, want final state mentioned", text)
		}
	})

	t.Run("missing text", func(t *testing.T) {
		result, err := srv.handleIngestDocument(ctx, callReq(map[string]any{"document_id": "x"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing text")
		}
	})

	t.Run("keyword search", func(t *testing.T) {
		result, err := srv.handleSearchKnowledge(ctx, callReq(map[string]any{"query": "coolant valve"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if text := textOf(t, result); !strings.Contains(text, "manual") {
			t.Errorf("search output missing document id:\n%s", text)
		}
	})

	t.Run("semantic search", func(t *testing.T) {
		result, err := srv.handleSearchKnowledge(ctx, callReq(map[string]any{
			"query":    "coolant valve",
			"semantic": true,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		result, err := srv.handleSearchKnowledge(ctx, callReq(map[string]any{"query": "zzzzunmatched"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatal("empty results should not be an error")
		}
		if text := textOf(t, result); !strings.Contains(text, "No relevant knowledge") {
			t.Errorf("unexpected empty-result text: %q", text)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		result, err := srv.handleSearchKnowledge(ctx, callReq(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}

func TestHandleDeleteDocument(t *testing.T) {
	srv := newTestMCPServer(t)
	ctx := context.Background()

	if result, err := srv.handleIngestDocument(ctx, callReq(map[string]any{
		"document_id": "doomed",
		"text":        "short lived",
	})); err != nil || result.IsError {
		t.Fatalf("ingest: err = %v, result = %+v", err, result)
	}

	result, err := srv.handleDeleteDocument(ctx, callReq(map[string]any{"document_id": "doomed"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	result, err = srv.handleDeleteDocument(ctx, callReq(map[string]any{"document_id": "doomed"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for already-deleted document")
	}
}

func TestHandleSensors(t *testing.T) {
	srv := newTestMCPServer(t)
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		result, err := srv.handleListSensors(ctx, callReq(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text := textOf(t, result); !strings.Contains(text, "No sensors") {
			t.Errorf("unexpected empty-list text: %q", text)
		}
	})

	t.Run("add and list", func(t *testing.T) {
		result, err := srv.handleAddSensor(ctx, callReq(map[string]any{
			"sensor_id": "temp-01",
			"name":      "Boiler Temperature",
			"type":      "temperature",
			"location":  "boiler room",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		result, err = srv.handleListSensors(ctx, callReq(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text := textOf(t, result); !strings.Contains(text, "temp-01") {
			t.Errorf("list output missing sensor:\n%s", text)
		}
	})

	t.Run("reading for unknown sensor", func(t *testing.T) {
		result, err := srv.handleAddReading(ctx, callReq(map[string]any{
			"sensor_id": "ghost",
			"value":     21.5,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown sensor")
		}
	})

	t.Run("add and get readings", func(t *testing.T) {
		result, err := srv.handleAddReading(ctx, callReq(map[string]any{
			"sensor_id": "temp-01",
			"value":     72.4,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		result, err = srv.handleGetReadings(ctx, callReq(map[string]any{"sensor_id": "temp-01"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text := textOf(t, result); !strings.Contains(text, "72.4") {
			t.Errorf("readings output missing value:\n%s", text)
		}
	})

	t.Run("knowledge note", func(t *testing.T) {
		result, err := srv.handleAddKnowledge(ctx, callReq(map[string]any{
			"sensor_id": "temp-01",
			"content":   "Reads two degrees high after a washdown.",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		result, err = srv.handleSearchKnowledge(ctx, callReq(map[string]any{
			"query":     "washdown",
			"sensor_id": "temp-01",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text := textOf(t, result); !strings.Contains(text, "temp-01") {
			t.Errorf("scoped search missing note:\n%s", text)
		}
	})
}

func TestHandleStats(t *testing.T) {
	srv := newTestMCPServer(t)

	result, err := srv.handleStats(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	text := textOf(t, result)
	for _, want := range []string{"Documents: 0", "Sensors: 0", "Vector dimension: 32"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats output missing %q:\n%s", want, text)
		}
	}
}
