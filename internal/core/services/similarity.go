package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value in [-1, 1]; with non-negative embedding models the
// practical range is [0, 1]. Returns domain.ErrDimensionMismatch when
// the vectors differ in length, and 0 when either vector has zero norm.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
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
