package semantic

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FlatIndex is an in-memory brute-force index. Every query scans all
// stored vectors, which is exact and fast enough for catalog-sized
// data. Safe for concurrent use.
type FlatIndex struct {
	mu   sync.RWMutex
	dim  int
	vecs [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Insert appends a vector at the next ordinal slot.
func (f *FlatIndex) Insert(_ context.Context, vec []float32) error {
	if len(vec) != f.dim {
		return fmt.Errorf("semantic: insert dim %d into index dim %d: %w", len(vec), f.dim, ErrDimensionMismatch)
	}
	cp := make([]float32, len(vec))
	copy(cp, vec)

	f.mu.Lock()
	f.vecs = append(f.vecs, cp)
	f.mu.Unlock()
	return nil
}

// Search returns up to k hits by ascending Euclidean distance. Ties
// keep insertion order.
func (f *FlatIndex) Search(_ context.Context, vec []float32, k int) ([]Hit, error) {
	if len(vec) != f.dim {
		return nil, fmt.Errorf("semantic: search dim %d against index dim %d: %w", len(vec), f.dim, ErrDimensionMismatch)
	}
	if k < 1 {
		return []Hit{}, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	hits := make([]Hit, len(f.vecs))
	for i, v := range f.vecs {
		hits[i] = Hit{Ordinal: i, Distance: EuclideanDistance(vec, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (f *FlatIndex) Count(_ context.Context) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vecs), nil
}
