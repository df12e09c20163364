// ABOUTME: Chunker splits document text into overlapping word windows for embedding
// ABOUTME: Window ordinals and ids are stable so re-ingesting a document upserts in place
package core

import (
	"strings"
	"time"

	"github.com/harper/health-copilot/internal/models"
)

const (
	// DefaultChunkSize is the target window length in words
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of words shared by adjacent windows
	DefaultChunkOverlap = 200
)

// Chunker handles word-window text chunking
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. A non-positive size selects the default, and an
// overlap that would stall the window is clamped to a quarter of the size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Chunker{size: size, overlap: overlap}
}

// Size returns the window length in words
func (c *Chunker) Size() int {
	return c.size
}

// Overlap returns the number of words shared by adjacent windows
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split returns the word windows of text, each joined with single spaces.
// The last window is the first one that reaches the final word.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var windows []string
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}

		windows = append(windows, strings.Join(words[start:end], " "))

		if end == len(words) {
			break
		}
	}

	return windows
}

// ChunkDocument splits a document's content into chunks with ordinals 0..n-1
func (c *Chunker) ChunkDocument(doc *models.Document) []models.Chunk {
	windows := c.Split(doc.Content)
	chunks := make([]models.Chunk, 0, len(windows))
	now := time.Now()

	for i, text := range windows {
		chunks = append(chunks, models.Chunk{
			ChunkID:    models.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Content:    text,
			CreatedAt:  now,
		})
	}

	return chunks
}
