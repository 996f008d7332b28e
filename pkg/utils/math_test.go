package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	norm := math.Sqrt(float64(v[0]*v[0] + v[1]*v[1]))
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("norm = %f, want 1.0", norm)
	}

	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Error("zero vector should be unchanged")
	}
}

func TestCosine(t *testing.T) {
	a := []float32{0.3, 0.7, 0.1}
	if got := Cosine(a, a); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Cosine(a,a) = %f, want 1.0", got)
	}
	b := []float32{0.5, 0.2, 0.9}
	if Cosine(a, b) != Cosine(b, a) {
		t.Error("cosine should be symmetric")
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal cosine = %f", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("length mismatch cosine = %f", got)
	}
}
