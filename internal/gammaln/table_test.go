package gammaln

import (
	"math"
	"testing"
)

func TestAtMatchesLgammaForIntegers(t *testing.T) {
	tbl := NewTable(20)
	for n := 1; n <= 20; n++ {
		want, _ := math.Lgamma(float64(n))
		got := tbl.At(float64(n))
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("At(%d) = %f, want %f", n, got, want)
		}
	}
}

func TestAtMatchesLgammaForHalfIntegers(t *testing.T) {
	tbl := NewTable(20)
	for n := 1; n <= 20; n++ {
		x := float64(n) + 0.5
		want, _ := math.Lgamma(x)
		got := tbl.At(x)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("At(%f) = %f, want %f", x, got, want)
		}
	}
}

func TestAtFallsBackOutsideRange(t *testing.T) {
	tbl := NewTable(2)
	x := 1000.25
	want, _ := math.Lgamma(x)
	got := tbl.At(x)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("At(%f) = %f, want %f", x, got, want)
	}
}
