// ABOUTME: Vector similarity math for ranking chunks against a query
// ABOUTME: Cosine similarity with guards for mismatched lengths and zero norms
package core

import "math"

// CosineSimilarity returns dot(a,b)/(|a||b|) clamped to [-1, 1].
// Vectors of different length, and zero vectors, score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(-1, math.Min(1, sim))
}
