package domain

import (
	"fmt"
	"math"
)

// EmbeddingDimensions is the fixed embedding width produced by the configured
// model family (text-embedding-3-small and ada-002 compatible).
const EmbeddingDimensions = 1536

// NormalizeVector scales v to unit length. Returns ErrZeroVector when the
// input has no magnitude, since a zero vector has no meaningful direction.
func NormalizeVector(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil, fmt.Errorf("normalize %d-dim vector: %w", len(v), ErrZeroVector)
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// CosineSimilarity computes the cosine of the angle between a and b.
// Returns ErrVectorDimMismatch when lengths differ and ErrZeroVector when
// either vector has no magnitude.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity %d vs %d: %w", len(a), len(b), ErrVectorDimMismatch)
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("cosine similarity: %w", ErrZeroVector)
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
