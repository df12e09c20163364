// ABOUTME: Tests for Embedding model and dimension validation
// ABOUTME: Verifies vector dimension checking for embedding consistency
package models

import (
	"strings"
	"testing"
)

func TestEmbedding_ValidateDimension(t *testing.T) {
	tests := []struct {
		name        string
		embedding   Embedding
		expectedDim int
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid dimension match",
			embedding:   Embedding{ChunkID: "c1", Vector: []float64{0.1, 0.2, 0.3, 0.4}},
			expectedDim: 4,
		},
		{
			name:        "empty vector",
			embedding:   Embedding{ChunkID: "c2", Vector: []float64{}},
			expectedDim: 4,
			wantErr:     true,
			errContains: "cannot be empty",
		},
		{
			name:        "nil vector",
			embedding:   Embedding{ChunkID: "c3"},
			expectedDim: 4,
			wantErr:     true,
			errContains: "cannot be empty",
		},
		{
			name:        "dimension mismatch - too short",
			embedding:   Embedding{ChunkID: "c4", Vector: []float64{0.1, 0.2}},
			expectedDim: 4,
			wantErr:     true,
			errContains: "dimension mismatch",
		},
		{
			name:        "dimension mismatch - too long",
			embedding:   Embedding{ChunkID: "c5", Vector: []float64{0.1, 0.2, 0.3, 0.4, 0.5}},
			expectedDim: 4,
			wantErr:     true,
			errContains: "dimension mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.embedding.ValidateDimension(tt.expectedDim)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDimension() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.errContains)
			}
		})
	}
}
