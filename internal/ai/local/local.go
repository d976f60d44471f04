// Package local provides a hashed bag-of-tokens embedder that needs no
// network access or credentials. Vectors are deterministic for identical
// input, so an index built with it can be queried offline forever.
package local

import (
	"context"
	"strings"

	"github.com/spigell/shl-recommender/internal/ai"
)

const (
	// ModelName tags indexes built with this embedder.
	ModelName = "local-hash-v1"
	// DefaultDim is the vector length used when none is configured.
	DefaultDim = 256
)

// Embedder hashes tokens into a fixed number of buckets and L2-normalizes the
// bucket counts.
type Embedder struct {
	dim int
}

// New returns an Embedder producing vectors of the given length. Non-positive
// dimensions fall back to DefaultDim.
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Embedder{dim: dim}
}

func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	counts := make([]float32, e.dim)
	for _, token := range tokenize(text) {
		counts[e.bucket(token)]++
	}
	return ai.NormalizeL2(counts), nil
}

func (e *Embedder) Model() string { return ModelName }

func (e *Embedder) Dim() int { return e.dim }

// tokenize lower-cases the text, replaces every character outside
// [a-z0-9+.#/ ] with a space, and splits on whitespace. The kept punctuation
// preserves tech tokens such as "c++", "c#", ".net" and "ci/cd".
func tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '+', r == '.', r == '#', r == '/':
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))

	return strings.Fields(mapped)
}

// bucket maps a token to a vector index with a djb2-style hash: seed 5381,
// then hash = hash*33 XOR byte at each step, wrapping in int32. The absolute
// value is taken in 64 bits so math.MinInt32 cannot stay negative.
func (e *Embedder) bucket(token string) int {
	h := int32(5381)
	for i := 0; i < len(token); i++ {
		h = h*33 ^ int32(token[i])
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(e.dim))
}
