package multinomial

// HyperParameters holds the D x V symmetric Dirichlet hyperparameters
// beta[d][v], stored as a single contiguous row-major block (allocated once
// per run and read-only thereafter).
type HyperParameters struct {
	D, V int
	Beta []float64 // length D*V, row d occupies Beta[d*V : (d+1)*V]
}

// At returns beta_{d,v}.
func (h *HyperParameters) At(d, v int) float64 {
	return h.Beta[d*h.V+v]
}

// CalculateHyperparameters builds symmetric Dirichlet hyperparameters
// beta_{d,v} = cc * p_{d,v}, where p_{d,v} is the empirical marginal
// frequency of value v in dimension d across the full dataset. A value
// never observed for a dimension is given a small floor instead of an
// exact zero, so that it still contributes a well-defined (if small)
// prior mass to binEvidence.
func CalculateHyperparameters(items [][]int, d, v int, cc float64) *HyperParameters {
	counts := make([]float64, d*v)
	for _, row := range items {
		for dim := 0; dim < d; dim++ {
			counts[dim*v+row[dim]]++
		}
	}

	n := float64(len(items))
	floor := 1.0 / (n * float64(v))

	beta := make([]float64, d*v)
	for dim := 0; dim < d; dim++ {
		for val := 0; val < v; val++ {
			p := counts[dim*v+val] / n
			if p <= 0 {
				p = floor
			}
			beta[dim*v+val] = cc * p
		}
	}
	return &HyperParameters{D: d, V: v, Beta: beta}
}
