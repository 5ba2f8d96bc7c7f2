package mcp

import "github.com/mark3labs/mcp-go/mcp"

var ingestDocumentTool = mcp.NewTool("ingest_document",
	mcp.WithDescription("Ingest a document into the knowledge base: it is chunked, embedded, and made searchable. Re-using a document_id replaces the previous version."),
	mcp.WithString("document_id",
		mcp.Required(),
		mcp.Description("Stable identifier for the document"),
	),
	mcp.WithString("title",
		mcp.Description("Human-readable title"),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Raw document text"),
	),
	mcp.WithString("source_type",
		mcp.Description("Kind of source text"),
		mcp.Enum("text", "markdown", "pdf", "note"),
	),
)

var deleteDocumentTool = mcp.NewTool("delete_document",
	mcp.WithDescription("Delete a document and all of its chunks from the knowledge base and its indexes."),
	mcp.WithString("document_id",
		mcp.Required(),
		mcp.Description("Identifier of the document to delete"),
	),
)

var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Search the knowledge base. Keyword match by default; set semantic for similarity or hybrid ranking. Optionally scoped to a document or sensor."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search text"),
	),
	mcp.WithBoolean("semantic",
		mcp.Description("Rank by embedding similarity combined with keyword match"),
	),
	mcp.WithString("document_id",
		mcp.Description("Restrict to one document"),
	),
	mcp.WithString("sensor_id",
		mcp.Description("Restrict to one sensor's knowledge notes"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results"),
	),
)

var addSensorTool = mcp.NewTool("add_sensor",
	mcp.WithDescription("Register a new sensor in the system."),
	mcp.WithString("sensor_id", mcp.Required(), mcp.Description("Unique sensor identifier")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Sensor name")),
	mcp.WithString("type", mcp.Description("Sensor type, e.g. temperature")),
	mcp.WithString("location", mcp.Description("Physical location")),
)

var listSensorsTool = mcp.NewTool("list_sensors",
	mcp.WithDescription("List all registered sensors."),
)

var addReadingTool = mcp.NewTool("add_reading",
	mcp.WithDescription("Record a new reading for a sensor."),
	mcp.WithString("sensor_id", mcp.Required(), mcp.Description("Sensor the reading belongs to")),
	mcp.WithNumber("value", mcp.Required(), mcp.Description("Measured value")),
)

var getReadingsTool = mcp.NewTool("get_readings",
	mcp.WithDescription("Get the most recent readings for a sensor."),
	mcp.WithString("sensor_id", mcp.Required(), mcp.Description("Sensor to read")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of readings (default 10)")),
)

var addKnowledgeTool = mcp.NewTool("add_knowledge",
	mcp.WithDescription("Attach unstructured knowledge (manual excerpt, note, description) to a sensor. It is embedded and becomes searchable."),
	mcp.WithString("sensor_id", mcp.Required(), mcp.Description("Sensor the knowledge belongs to")),
	mcp.WithString("content", mcp.Required(), mcp.Description("Knowledge text")),
)

var statsTool = mcp.NewTool("kb_stats",
	mcp.WithDescription("Corpus statistics: documents, chunks, notes, sensors, readings, and the vector dimension."),
)
