// Package multinomial implements the Dirichlet-multinomial marginal
// likelihood used by the BHC engine's discrete (categorical) item mode.
package multinomial

import (
	"math"

	"github.com/rsavage/bhc/internal/optimize"
)

// Likelihood owns the per-node D x V count tables and the Dirichlet
// hyperparameters needed to evaluate binEvidence for any pair of nodes in
// the arena. Dat is indexed by node id across the full 2N-1 node range;
// leaves are initialised from the input, internal nodes are filled in by
// Merge as the driver runs.
type Likelihood struct {
	D, V  int
	Hyper *HyperParameters
	Dat   [][]float64 // Dat[node] has length D*V
}

// NewLikelihood allocates the per-node count tables for nSlots node slots
// (2N-1) and initialises the N leaves from items (each items[i][d] in
// [0,V)).
func NewLikelihood(items [][]int, d, v, nSlots int, hyper *HyperParameters) *Likelihood {
	lk := &Likelihood{
		D:     d,
		V:     v,
		Hyper: hyper,
		Dat:   make([][]float64, nSlots),
	}
	for i := range lk.Dat {
		lk.Dat[i] = make([]float64, d*v)
	}
	for i, row := range items {
		for dim := 0; dim < d; dim++ {
			lk.Dat[i][dim*v+row[dim]] = 1
		}
	}
	return lk
}

// Merge sets the count table of the merged node to the elementwise sum of
// its two children's tables.
func (lk *Likelihood) Merge(merged, left, right int) {
	dst := lk.Dat[merged]
	l, r := lk.Dat[left], lk.Dat[right]
	for k := range dst {
		dst[k] = l[k] + r[k]
	}
}

// BinEvidence computes log p(D_{i (union) j} | H1) using the
// Dirichlet-multinomial marginal likelihood. When j == -1 this is the leaf
// evidence for node i alone.
func (lk *Likelihood) BinEvidence(i, j int) float64 {
	if j == -1 {
		return lk.evidenceForCounts(lk.Dat[i])
	}
	d, v := lk.D, lk.V
	combined := make([]float64, d*v)
	li, lj := lk.Dat[i], lk.Dat[j]
	for k := range combined {
		combined[k] = li[k] + lj[k]
	}
	return lk.evidenceForCounts(combined)
}

func (lk *Likelihood) evidenceForCounts(counts []float64) float64 {
	d, v := lk.D, lk.V
	logp := 0.0
	for dim := 0; dim < d; dim++ {
		sumBeta, sumCount, inner := 0.0, 0.0, 0.0
		for val := 0; val < v; val++ {
			beta := lk.Hyper.At(dim, val)
			c := counts[dim*v+val]
			sumBeta += beta
			sumCount += c
			lb, _ := math.Lgamma(beta)
			lbc, _ := math.Lgamma(beta + c)
			inner += lbc - lb
		}
		lsb, _ := math.Lgamma(sumBeta)
		lsbn, _ := math.Lgamma(sumBeta + sumCount)
		logp += lsb - lsbn + inner
	}
	return logp
}

// OptimalConcentration chooses the global Dirichlet concentration cc by
// maximising the leaves' summed log-evidence over a 1-D bracket via the
// shared golden-section routine.
func OptimalConcentration(items [][]int, d, v int, bracket [2]float64, tol float64, maxIter int) (float64, error) {
	objective := func(cc float64) float64 {
		if cc <= 0 {
			return math.Inf(1)
		}
		hyper := CalculateHyperparameters(items, d, v, cc)
		lk := &Likelihood{D: d, V: v, Hyper: hyper}
		sum := 0.0
		row := make([]float64, d*v)
		for _, item := range items {
			for k := range row {
				row[k] = 0
			}
			for dim := 0; dim < d; dim++ {
				row[dim*v+item[dim]] = 1
			}
			sum += lk.evidenceForCounts(row)
		}
		return -sum
	}
	return optimize.GoldenSectionMinimize(bracket[0], bracket[1], tol, maxIter, objective)
}
