package semantic

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimension is the embedding width used across the engine.
const DefaultDimension = 256

// Embedder turns text into a fixed-length vector. The same text always
// yields the same vector.
type Embedder interface {
	Embed(text string) []float32
	Dimension() int
}

// HashingEmbedder is a deterministic bag-of-tokens embedder: each token
// (and each adjacent token pair, at half weight) is hashed into one of
// dim buckets, and the resulting vector is L2-normalised. It needs no
// model files or network calls, so index contents are reproducible
// across restarts.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates an embedder of the given dimension.
// Non-positive dimensions fall back to DefaultDimension.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashingEmbedder{dim: dim}
}

// Dimension returns the embedding width.
func (e *HashingEmbedder) Dimension() int { return e.dim }

// Embed maps text to a unit-length vector. Empty or all-punctuation
// text yields the zero vector.
func (e *HashingEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dim)
	tokens := tokenize(text)
	for i, tok := range tokens {
		vec[bucket(tok, e.dim)]++
		if i+1 < len(tokens) {
			vec[bucket(tok+" "+tokens[i+1], e.dim)] += 0.5
		}
	}
	normalize(vec)
	return vec
}

// tokenize lower-cases and splits on anything that is not a letter or
// digit. Part numbers like PS12345678 survive as single tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func bucket(tok string, dim int) int {
	h := fnv.New32a()
	h.Write([]byte(tok))
	return int(h.Sum32() % uint32(dim))
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// EuclideanDistance computes the L2 distance between two vectors of the
// same dimension.
func EuclideanDistance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
