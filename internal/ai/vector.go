package ai

import "math"

// NormalizeL2 returns a new vector scaled to unit L2 norm. The all-zero
// vector is returned as an (independent) all-zero copy so callers can always
// treat the result as owned.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	n := math.Sqrt(sum)
	if n == 0 {
		copy(out, v)
		return out
	}

	inv := float32(1.0 / n)
	for i := range v {
		out[i] = v[i] * inv
	}
	return out
}

// Dot computes the dot product of two vectors. For unit-length inputs this is
// the cosine similarity. Vectors of different lengths score zero rather than
// panicking, since a dimension mismatch is caught upfront by index validation.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
