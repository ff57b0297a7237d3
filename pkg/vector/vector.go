// Package vector provides the small float32 vector kernels shared by the
// voice identity components: L2 normalisation, cosine similarity, and
// component-wise averaging.
//
// All similarity maths in this codebase operates on unit-norm vectors, so
// cosine similarity reduces to a plain dot product. Callers are responsible
// for normalising both operands before comparing them; [Normalize] reports
// degenerate (zero-norm) inputs instead of producing NaNs.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// zeroNormEpsilon is the squared-norm floor below which a vector is treated
// as degenerate. Normalising anything smaller would amplify float noise into
// a meaningless direction.
const zeroNormEpsilon = 1e-12

// ErrZeroNorm is returned by [Normalize] when the input vector has (near-)zero
// magnitude and therefore no defined direction.
var ErrZeroNorm = errors.New("vector: zero-norm vector cannot be normalised")

// DimensionError reports a vector whose length disagrees with the expected
// dimensionality.
type DimensionError struct {
	// Want is the expected dimension.
	Want int

	// Got is the actual length of the offending vector.
	Got int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector: dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// Norm returns the L2 (Euclidean) norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a new vector with the same direction as v and unit L2
// norm. The input is not modified.
//
// Returns [ErrZeroNorm] if v has no defined direction (all components zero or
// vanishingly small).
func Normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum < zeroNormEpsilon {
		return nil, ErrZeroNorm
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// Dot returns the dot product of a and b. For unit-norm operands this is
// their cosine similarity in [-1, 1].
//
// Returns a [*DimensionError] if the operands have different lengths.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionError{Want: len(a), Got: len(b)}
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Mean returns the component-wise arithmetic mean of the given vectors.
// Every vector must have length dim.
//
// Returns a [*DimensionError] naming the first vector whose length disagrees.
// An empty input yields a zero vector of length dim; callers that require at
// least one sample must check before calling.
func Mean(dim int, vectors ...[]float32) ([]float32, error) {
	acc := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, &DimensionError{Want: dim, Got: len(v)}
		}
		for i, x := range v {
			acc[i] += float64(x)
		}
	}

	out := make([]float32, dim)
	if len(vectors) == 0 {
		return out, nil
	}
	n := float64(len(vectors))
	for i, x := range acc {
		out[i] = float32(x / n)
	}
	return out, nil
}
