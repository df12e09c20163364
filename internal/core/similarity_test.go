// ABOUTME: Tests for cosine similarity scoring
// ABOUTME: Verifies bounds, self-similarity, and zero-vector guards

package core

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, -2}, []float64{-1, 2}, -1},
		{"zero query", []float64{0, 0, 0}, []float64{1, 2, 3}, 0},
		{"zero stored", []float64{1, 2, 3}, []float64{0, 0, 0}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		a := make([]float64, 64)
		b := make([]float64, 64)
		for j := range a {
			a[j] = rng.NormFloat64() * 1e3
			b[j] = rng.NormFloat64() * 1e-3
		}

		sim := CosineSimilarity(a, b)
		if sim < -1 || sim > 1 {
			t.Fatalf("CosineSimilarity() = %v, outside [-1, 1]", sim)
		}

		self := CosineSimilarity(a, a)
		if math.Abs(self-1) > 1e-9 {
			t.Fatalf("self similarity = %v, want 1", self)
		}
	}
}
