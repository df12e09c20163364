// ABOUTME: Search, citation, and context result structures
// ABOUTME: Returned by the context engine to the chat and MCP layers
package models

import "fmt"

// SearchResult is one scored, cited chunk returned by a similarity search
type SearchResult struct {
	ChunkID        string       `json:"chunk_id"`
	DocumentID     string       `json:"document_id"`
	DocumentTitle  string       `json:"document_title"`
	ChunkText      string       `json:"chunk_text"`
	ChunkIndex     int          `json:"chunk_index"`
	DocumentType   DocumentType `json:"document_type"`
	SourceFile     string       `json:"source_file,omitempty"`
	RelevanceScore float64      `json:"relevance_score"`
	Citation       string       `json:"citation"`
}

// Citation is the provenance of a chunk included in an assembled context
type Citation struct {
	ChunkID        string       `json:"chunk_id"`
	DocumentID     string       `json:"document_id"`
	DocumentTitle  string       `json:"document_title"`
	DocumentType   DocumentType `json:"document_type"`
	SourceFile     string       `json:"source_file,omitempty"`
	ChunkIndex     int          `json:"chunk_index"`
	RelevanceScore float64      `json:"relevance_score"`
	Label          string       `json:"label"`
}

// ContextResult is a token-bounded context block with its citations
type ContextResult struct {
	Context    string     `json:"context"`
	Citations  []Citation `json:"citations"`
	TokenCount int        `json:"token_count"`
}

// IngestResult reports the outcome of ingesting one document
type IngestResult struct {
	Success       bool `json:"success"`
	ChunksCreated int  `json:"chunks_created"`
}

// FormatCitation renders "{title} ({sourceFile or type}, section {index+1})"
func FormatCitation(title, sourceFile string, docType DocumentType, index int) string {
	origin := sourceFile
	if origin == "" {
		origin = string(docType)
	}
	return fmt.Sprintf("%s (%s, section %d)", title, origin, index+1)
}

// CitationFor builds the Citation for a search result
func CitationFor(r SearchResult) Citation {
	return Citation{
		ChunkID:        r.ChunkID,
		DocumentID:     r.DocumentID,
		DocumentTitle:  r.DocumentTitle,
		DocumentType:   r.DocumentType,
		SourceFile:     r.SourceFile,
		ChunkIndex:     r.ChunkIndex,
		RelevanceScore: r.RelevanceScore,
		Label:          r.Citation,
	}
}
