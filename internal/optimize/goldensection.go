// Package optimize implements the single 1-D golden-section minimiser
// shared by the multinomial concentration search and the time-course
// hyperparameter sweeps.
package optimize

import (
	"fmt"
	"math"
)

// invPhi and invPhi2 are 1/phi and 1/phi^2 for the golden-section ratio.
const (
	invPhi  = 0.6180339887498949
	invPhi2 = 0.3819660112501051
)

// NonFiniteError reports that the objective produced a non-finite value
// during a golden-section search.
type NonFiniteError struct {
	X float64
	Y float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("optimize: objective returned non-finite value %v at x=%v", e.Y, e.X)
}

// GoldenSectionMinimize finds an approximate minimiser of f over the closed
// bracket [lo, hi], iterating until the bracket width is below tol or
// maxIter iterations (one evaluation each, after two initial evaluations)
// have been spent. Returns a *NonFiniteError if f ever
// produces a non-finite value.
func GoldenSectionMinimize(lo, hi, tol float64, maxIter int, f func(float64) float64) (float64, error) {
	if hi < lo {
		lo, hi = hi, lo
	}

	a, b := lo, hi
	eval := func(x float64) (float64, error) {
		y := f(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return 0, &NonFiniteError{X: x, Y: y}
		}
		return y, nil
	}

	h := b - a
	if h <= tol {
		mid := (a + b) / 2
		if _, err := eval(mid); err != nil {
			return 0, err
		}
		return mid, nil
	}

	c := a + invPhi2*h
	d := a + invPhi*h
	yc, err := eval(c)
	if err != nil {
		return 0, err
	}
	yd, err := eval(d)
	if err != nil {
		return 0, err
	}

	for i := 0; i < maxIter && h > tol; i++ {
		if yc < yd {
			b, d, yd = d, c, yc
			h = b - a
			c = a + invPhi2*h
			yc, err = eval(c)
		} else {
			a, c, yc = c, d, yd
			h = b - a
			d = a + invPhi*h
			yd, err = eval(d)
		}
		if err != nil {
			return 0, err
		}
	}

	if yc < yd {
		return c, nil
	}
	return d, nil
}
