// Package semantic provides the embedding index: deterministic text
// embeddings plus k-nearest-neighbour search by Euclidean distance.
package semantic

import (
	"context"
	"errors"
)

// Hit is a single nearest-neighbour result. Ordinal is the zero-based
// insertion position of the matched vector, which callers resolve back
// to their own records.
type Hit struct {
	Ordinal  int     `json:"ordinal"`
	Distance float32 `json:"distance"`
}

// Index is a fixed-dimension vector index. Vectors are addressed by
// insertion order: the Nth inserted vector has ordinal N-1.
type Index interface {
	// Insert appends a vector at the next ordinal slot.
	Insert(ctx context.Context, vec []float32) error

	// Search returns up to k hits ordered by ascending Euclidean
	// distance; ties resolve to the earlier ordinal. An empty index
	// yields an empty result, not an error.
	Search(ctx context.Context, vec []float32, k int) ([]Hit, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)
}

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
