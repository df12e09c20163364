// ABOUTME: MCP tool definitions and registration for the health copilot server
// ABOUTME: Exposes ingestion, search, context assembly and document management as tools
package mcp

import (
	"github.com/harper/health-copilot/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Tool names
const (
	ToolIngestDocument  = "ingest_document"
	ToolSearchDocuments = "search_documents"
	ToolGetContext      = "get_context"
	ToolAskQuestion     = "ask_health_question"
	ToolListDocuments   = "list_documents"
	ToolGetDocument     = "get_document"
	ToolDeleteDocument  = "delete_document"
)

// RegisterTools registers all MCP tools with the server. copilot may be nil,
// in which case ask_health_question is not offered.
func RegisterTools(server *mcpserver.MCPServer, engine *core.Engine, copilot *core.Copilot) *Handlers {
	handlers := NewHandlers(engine, copilot)

	// 1. ingest_document - Add or replace a health record
	server.AddTool(mcp.Tool{
		Name:        ToolIngestDocument,
		Description: "Add a health record to the knowledge base. Re-ingesting the same document_id replaces its previous content.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable document ID (generated if omitted)",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Human-readable title, used in citations",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full text of the record",
				},
				"document_type": map[string]interface{}{
					"type":        "string",
					"description": "One of medical_record, lab_result, prescription, imaging_report, note, wearable_summary",
					"default":     "medical_record",
				},
				"source_file": map[string]interface{}{
					"type":        "string",
					"description": "Optional original file name",
				},
			},
			Required: []string{"title", "content"},
		},
	}, handlers.IngestDocument)

	// 2. search_documents - Ranked chunk search
	server.AddTool(mcp.Tool{
		Name:        ToolSearchDocuments,
		Description: "Semantic search over health records. Returns the best matching passages with relevance scores and citations.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language search query",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results (default: configured search limit)",
					"default":     engine.SearchLimit(),
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum relevance score between -1 and 1 (default: configured search threshold)",
					"default":     engine.SearchThreshold(),
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchDocuments)

	// 3. get_context - Token-bounded cited context
	server.AddTool(mcp.Tool{
		Name:        ToolGetContext,
		Description: "Assemble the most relevant passages into a single cited context block that fits within a token budget.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question or topic to gather context for",
				},
				"max_tokens": map[string]interface{}{
					"type":        "number",
					"description": "Token budget for the context (default: configured budget)",
					"default":     engine.ContextMaxTokens(),
				},
			},
			Required: []string{"query"},
		},
	}, handlers.GetContext)

	// 4. ask_health_question - Answer with citations
	if copilot != nil && copilot.CanComplete() {
		server.AddTool(mcp.Tool{
			Name:        ToolAskQuestion,
			Description: "Answer a health question from the user's own records, citing the sources used.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"question": map[string]interface{}{
						"type":        "string",
						"description": "The question to answer",
					},
					"max_tokens": map[string]interface{}{
						"type":        "number",
						"description": "Token budget for retrieved context (default: configured budget)",
						"default":     engine.ContextMaxTokens(),
					},
				},
				Required: []string{"question"},
			},
		}, handlers.AskQuestion)
	}

	// 5. list_documents - All ingested documents
	server.AddTool(mcp.Tool{
		Name:        ToolListDocuments,
		Description: "List every document in the knowledge base with its type and chunk count.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListDocuments)

	// 6. get_document - Metadata for one document
	server.AddTool(mcp.Tool{
		Name:        ToolGetDocument,
		Description: "Get metadata for a single document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Document ID",
				},
			},
			Required: []string{"document_id"},
		},
	}, handlers.GetDocument)

	// 7. delete_document - Remove a document and its chunks
	server.AddTool(mcp.Tool{
		Name:        ToolDeleteDocument,
		Description: "Delete a document together with all of its chunks and embeddings.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Document ID to delete",
				},
			},
			Required: []string{"document_id"},
		},
	}, handlers.DeleteDocument)

	return handlers
}
