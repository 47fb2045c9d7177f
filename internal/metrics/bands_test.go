package metrics

import (
	"testing"
)

func TestCurveBands(t *testing.T) {
	curves := [][]float64{
		{0, 1, 2},
		{0, 2, 4},
		{0, 3, 6},
	}

	bands, err := CurveBands(curves, []float64{0.5})
	if err != nil {
		t.Fatalf("CurveBands failed: %v", err)
	}
	if len(bands) != 1 {
		t.Fatalf("got %d bands, want 1", len(bands))
	}

	want := []float64{0, 2, 4}
	for i, v := range want {
		if bands[0].Curve[i] != v {
			t.Errorf("median band[%d] = %f, want %f", i, bands[0].Curve[i], v)
		}
	}
}

func TestCurveBands_Empty(t *testing.T) {
	bands, err := CurveBands(nil, []float64{0.5})
	if err != nil || bands != nil {
		t.Errorf("CurveBands(nil) = (%v, %v), want (nil, nil)", bands, err)
	}
}

func TestCurveBands_MismatchedLengths(t *testing.T) {
	curves := [][]float64{
		{0, 1, 2},
		{0, 1},
	}
	if _, err := CurveBands(curves, []float64{0.5}); err == nil {
		t.Error("expected error for mismatched curve lengths")
	}
}
