// ABOUTME: Tests for Chunk model and stable chunk IDs
// ABOUTME: Verifies chunk IDs are deterministic per document and ordinal
package models

import "testing"

func TestChunkID(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		index      int
		want       string
	}{
		{"first chunk", "doc1", 0, "doc1_chunk_0"},
		{"later chunk", "doc1", 12, "doc1_chunk_12"},
		{"id with separators", "lab-2024_03", 2, "lab-2024_03_chunk_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkID(tt.documentID, tt.index)
			if got != tt.want {
				t.Errorf("ChunkID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	if ChunkID("doc1", 3) != ChunkID("doc1", 3) {
		t.Error("ChunkID should return the same id for the same inputs")
	}
	if ChunkID("doc1", 3) == ChunkID("doc2", 3) {
		t.Error("ChunkID should differ across documents")
	}
}

func TestStoredChunk_EmbedsChunk(t *testing.T) {
	sc := StoredChunk{
		Chunk: Chunk{
			ChunkID:    "doc1_chunk_0",
			DocumentID: "doc1",
			Index:      0,
			Content:    "Patient is allergic to penicillin.",
		},
		DocumentTitle: "Allergy List",
		DocumentType:  DocumentTypeMedicalRecord,
	}

	if sc.ChunkID != "doc1_chunk_0" {
		t.Errorf("ChunkID = %q, want doc1_chunk_0", sc.ChunkID)
	}
	if sc.DocumentID != "doc1" {
		t.Errorf("DocumentID = %q, want doc1", sc.DocumentID)
	}
}
