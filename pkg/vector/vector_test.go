package vector_test

import (
	"errors"
	"math"
	"testing"

	"github.com/vaani-labs/vaani/pkg/vector"
)

const epsilon = 1e-6

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("produces unit norm", func(t *testing.T) {
		t.Parallel()
		v := []float32{3, 4}
		got, err := vector.Normalize(v)
		if err != nil {
			t.Fatalf("Normalize: unexpected error: %v", err)
		}
		if n := vector.Norm(got); math.Abs(n-1) > epsilon {
			t.Fatalf("Normalize: norm = %v, want 1", n)
		}
		if math.Abs(float64(got[0])-0.6) > epsilon || math.Abs(float64(got[1])-0.8) > epsilon {
			t.Fatalf("Normalize: got %v, want [0.6 0.8]", got)
		}
	})

	t.Run("does not modify input", func(t *testing.T) {
		t.Parallel()
		v := []float32{3, 4}
		if _, err := vector.Normalize(v); err != nil {
			t.Fatalf("Normalize: unexpected error: %v", err)
		}
		if v[0] != 3 || v[1] != 4 {
			t.Fatalf("Normalize: input mutated to %v", v)
		}
	})

	t.Run("zero vector returns ErrZeroNorm", func(t *testing.T) {
		t.Parallel()
		_, err := vector.Normalize(make([]float32, 8))
		if !errors.Is(err, vector.ErrZeroNorm) {
			t.Fatalf("Normalize: expected ErrZeroNorm, got %v", err)
		}
	})

	t.Run("near-zero vector returns ErrZeroNorm", func(t *testing.T) {
		t.Parallel()
		_, err := vector.Normalize([]float32{1e-10, -1e-10})
		if !errors.Is(err, vector.ErrZeroNorm) {
			t.Fatalf("Normalize: expected ErrZeroNorm, got %v", err)
		}
	})
}

func TestDot(t *testing.T) {
	t.Parallel()

	t.Run("orthogonal vectors", func(t *testing.T) {
		t.Parallel()
		got, err := vector.Dot([]float32{1, 0}, []float32{0, 1})
		if err != nil {
			t.Fatalf("Dot: unexpected error: %v", err)
		}
		if math.Abs(got) > epsilon {
			t.Fatalf("Dot: got %v, want 0", got)
		}
	})

	t.Run("identical unit vectors score 1", func(t *testing.T) {
		t.Parallel()
		u, _ := vector.Normalize([]float32{1, 2, 3})
		got, err := vector.Dot(u, u)
		if err != nil {
			t.Fatalf("Dot: unexpected error: %v", err)
		}
		if math.Abs(got-1) > epsilon {
			t.Fatalf("Dot: got %v, want 1", got)
		}
	})

	t.Run("length mismatch returns DimensionError", func(t *testing.T) {
		t.Parallel()
		_, err := vector.Dot([]float32{1, 2}, []float32{1, 2, 3})
		var dimErr *vector.DimensionError
		if !errors.As(err, &dimErr) {
			t.Fatalf("Dot: expected DimensionError, got %v", err)
		}
	})
}

func TestMean(t *testing.T) {
	t.Parallel()

	t.Run("component-wise average", func(t *testing.T) {
		t.Parallel()
		got, err := vector.Mean(2, []float32{1, 2}, []float32{3, 4}, []float32{5, 6})
		if err != nil {
			t.Fatalf("Mean: unexpected error: %v", err)
		}
		if math.Abs(float64(got[0])-3) > epsilon || math.Abs(float64(got[1])-4) > epsilon {
			t.Fatalf("Mean: got %v, want [3 4]", got)
		}
	})

	t.Run("order independent", func(t *testing.T) {
		t.Parallel()
		a := []float32{0.2, -1.5, 3}
		b := []float32{1.1, 0.4, -0.7}
		c := []float32{-2, 0, 0.5}

		m1, err := vector.Mean(3, a, b, c)
		if err != nil {
			t.Fatalf("Mean: unexpected error: %v", err)
		}
		m2, err := vector.Mean(3, c, a, b)
		if err != nil {
			t.Fatalf("Mean: unexpected error: %v", err)
		}
		for i := range m1 {
			if math.Abs(float64(m1[i])-float64(m2[i])) > epsilon {
				t.Fatalf("Mean: permutation changed result: %v vs %v", m1, m2)
			}
		}
	})

	t.Run("dimension mismatch reports offender", func(t *testing.T) {
		t.Parallel()
		_, err := vector.Mean(3, []float32{1, 2, 3}, []float32{1, 2})
		var dimErr *vector.DimensionError
		if !errors.As(err, &dimErr) {
			t.Fatalf("Mean: expected DimensionError, got %v", err)
		}
		if dimErr.Want != 3 || dimErr.Got != 2 {
			t.Fatalf("Mean: DimensionError = %+v, want Want=3 Got=2", dimErr)
		}
	})
}
