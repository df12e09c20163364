// ABOUTME: Error types returned by the context engine
// ABOUTME: Ingestion is the only operation that surfaces errors to callers
package core

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument is wrapped when a document is missing required fields
var ErrInvalidDocument = errors.New("invalid document")

// IngestionUserMessage is what end users see when a document fails to ingest
const IngestionUserMessage = "document could not be added to your knowledge base, please retry"

// IngestionError aborts ingestion of one document. Chunks written before the
// failure stay in the store; retrying the whole ingest is safe.
type IngestionError struct {
	DocumentID string
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to ingest document %s: %v", e.DocumentID, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// UserMessage returns the user-facing description of the failure
func (e *IngestionError) UserMessage() string {
	return IngestionUserMessage
}
