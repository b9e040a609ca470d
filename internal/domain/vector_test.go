package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity_Identity(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5}
	got, err := CosineSimilarity(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("similarity(a,a) = %f, want 1.0", got)
	}
}

func TestCosineSimilarity_Symmetry(t *testing.T) {
	a := []float32{1, 0, 2}
	b := []float32{-0.5, 3, 1}

	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ab != ba {
		t.Errorf("similarity not symmetric: %f vs %f", ab, ba)
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	x := []float32{1, 2, 3}

	got, err := CosineSimilarity(zero, x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("similarity(zero, x) = %f, want 0", got)
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	got, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("similarity of orthogonal vectors = %f, want 0", got)
	}
}

func TestRoundSimilarity(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.70710678, 0.71},
		{1.0, 1.0},
		{0.004, 0.0},
		{-0.125, -0.13},
	}
	for _, tt := range tests {
		if got := RoundSimilarity(tt.in); got != tt.want {
			t.Errorf("RoundSimilarity(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestSimilarityPercent(t *testing.T) {
	if got := SimilarityPercent(0.706); got != 71 {
		t.Errorf("SimilarityPercent(0.706) = %d, want 71", got)
	}
}
