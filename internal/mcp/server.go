package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/lab271/sensorkb/internal/service"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes knowledge-base tools.
type Server struct {
	svc *service.Service
	mcp *server.MCPServer
}

// NewServer creates an MCP server over the given service.
func NewServer(svc *service.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"sensorkb",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(ingestDocumentTool, s.handleIngestDocument)
	s.mcp.AddTool(deleteDocumentTool, s.handleDeleteDocument)
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(addSensorTool, s.handleAddSensor)
	s.mcp.AddTool(listSensorsTool, s.handleListSensors)
	s.mcp.AddTool(addReadingTool, s.handleAddReading)
	s.mcp.AddTool(getReadingsTool, s.handleGetReadings)
	s.mcp.AddTool(addKnowledgeTool, s.handleAddKnowledge)
	s.mcp.AddTool(statsTool, s.handleStats)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
