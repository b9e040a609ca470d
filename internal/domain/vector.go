package domain

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b in [-1, 1].
// A zero-magnitude vector is defined as orthogonal to everything and yields 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("got %d and %d: %w", len(a), len(b), ErrVectorDimMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// RoundSimilarity rounds a similarity score to 2 decimal places for presentation.
// Internal ranking always uses full precision.
func RoundSimilarity(sim float64) float64 {
	return math.Round(sim*100) / 100
}

// SimilarityPercent converts a similarity score to a whole percentage.
func SimilarityPercent(sim float64) int {
	return int(math.Round(sim * 100))
}
