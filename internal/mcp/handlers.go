// ABOUTME: MCP tool handler implementations for the health copilot server
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/health-copilot/internal/core"
	"github.com/harper/health-copilot/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine  *core.Engine
	copilot *core.Copilot
}

// NewHandlers creates Handlers. copilot may be nil.
func NewHandlers(engine *core.Engine, copilot *core.Copilot) *Handlers {
	return &Handlers{engine: engine, copilot: copilot}
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required and must be a string"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}

	docType := models.DocumentType(request.GetString("document_type", string(models.DocumentTypeMedicalRecord)))
	if !docType.IsKnown() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown document_type %q", docType)), nil
	}

	id := strings.TrimSpace(request.GetString("document_id", ""))
	if id == "" {
		id = uuid.New().String()
	}

	doc := &models.Document{
		ID:         id,
		Title:      title,
		Content:    content,
		Type:       docType,
		SourceFile: request.GetString("source_file", ""),
	}

	result, err := h.engine.Ingest(ctx, doc)
	if err != nil {
		log.Printf("[MCP] %v", err)
		var ingestErr *core.IngestionError
		if errors.As(err, &ingestErr) && !errors.Is(err, core.ErrInvalidDocument) {
			return mcp.NewToolResultError(ingestErr.UserMessage()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"document_id":    id,
		"success":        result.Success,
		"chunks_created": result.ChunksCreated,
	})
}

// SearchDocuments handles the search_documents tool
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	limit := request.GetInt("limit", h.engine.SearchLimit())
	threshold := request.GetFloat("threshold", h.engine.SearchThreshold())

	results := h.engine.Search(ctx, query, limit, threshold)

	return jsonResult(map[string]interface{}{
		"results": results,
	})
}

// GetContext handles the get_context tool
func (h *Handlers) GetContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	maxTokens := request.GetInt("max_tokens", h.engine.ContextMaxTokens())

	return jsonResult(h.engine.GetContext(ctx, query, maxTokens))
}

// AskQuestion handles the ask_health_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.copilot == nil || !h.copilot.CanComplete() {
		return mcp.NewToolResultError("no chat model configured"), nil
	}

	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	maxTokens := request.GetInt("max_tokens", h.engine.ContextMaxTokens())

	answer, err := h.copilot.Ask(ctx, question, maxTokens)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	return jsonResult(answer)
}

// ListDocuments handles the list_documents tool
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := h.engine.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}
	if docs == nil {
		docs = []models.DocumentInfo{}
	}

	return jsonResult(map[string]interface{}{
		"documents": docs,
	})
}

// GetDocument handles the get_document tool
func (h *Handlers) GetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id argument is required and must be a string"), nil
	}

	doc, err := h.engine.GetDocument(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get document: %v", err)), nil
	}
	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("document %s not found", id)), nil
	}

	return jsonResult(doc)
}

// DeleteDocument handles the delete_document tool
func (h *Handlers) DeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError("document_id argument is required and must be a string"), nil
	}

	deleted, err := h.engine.DeleteDocument(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete document: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"document_id": id,
		"deleted":     deleted,
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
