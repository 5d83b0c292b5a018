// Package gammaln provides a small cache of log-Gamma values over the
// integer and half-integer arguments the BHC recurrence actually needs
// (cluster-size sums, bounded above by the total item count), matching the
// original C++ engine's fast_gammaln.
package gammaln

import "math"

// Table caches lgamma(k/2) for k = 1..max, where max is set large enough to
// cover every integer and half-integer argument a run can produce (cluster
// sizes up to N, plus a small margin for Dirichlet-hyperparameter shifts).
type Table struct {
	values []float64
}

// NewTable builds a cache covering arguments up to maxArg (inclusive).
// maxArg should be at least the largest cluster size a run can produce (N).
func NewTable(maxArg int) *Table {
	if maxArg < 1 {
		maxArg = 1
	}
	max2 := 2*maxArg + 4
	values := make([]float64, max2+1)
	for k := 1; k <= max2; k++ {
		v, _ := math.Lgamma(float64(k) / 2.0)
		values[k] = v
	}
	return &Table{values: values}
}

// At returns log Gamma(x). When x lands on a cached integer or half-integer
// within range, the cached value is returned; otherwise it falls back to
// math.Lgamma directly.
func (t *Table) At(x float64) float64 {
	k := int(math.Round(x * 2))
	if k < 1 || k >= len(t.values) || float64(k) != x*2 {
		v, _ := math.Lgamma(x)
		return v
	}
	return t.values[k]
}
