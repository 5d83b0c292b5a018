package timecourse

// ClusterLikelihood adapts Likelihood to the merge driver's generic
// evidence interface by tracking, per node slot, the set of original leaf
// item indices under that node (mirroring multinomial.Likelihood's
// cumulative per-node count table, but for data that must be recomputed
// from the raw item rows rather than summed). It holds no other mutable
// state: BinEvidence is safe to call concurrently across distinct (i,j)
// pairs, since the merge driver's partner update fans it out across
// goroutines.
type ClusterLikelihood struct {
	engine *Likelihood
	data   [][]float64
	items  [][]int
}

// NewClusterLikelihood allocates a ClusterLikelihood over nSlots node slots
// (2N-1) for the given item matrix, seeding leaf i's item set to {i}.
func NewClusterLikelihood(engine *Likelihood, data [][]float64, nSlots int) *ClusterLikelihood {
	cl := &ClusterLikelihood{
		engine: engine,
		data:   data,
		items:  make([][]int, nSlots),
	}
	for i := range data {
		cl.items[i] = []int{i}
	}
	return cl
}

// BinEvidence returns the robust log-evidence for node i alone (j == -1) or
// for the union of nodes i and j, without mutating either node's item set or
// any other shared state.
func (cl *ClusterLikelihood) BinEvidence(i, j int) (float64, error) {
	ev, _, err := cl.evidenceAndFit(i, j)
	return ev, err
}

// BinEvidenceFit re-evaluates the pair's evidence and returns the
// hyperparameters that produced it. The merge driver calls this once,
// single-threaded, immediately after choosing the winning pair.
func (cl *ClusterLikelihood) BinEvidenceFit(i, j int) (float64, interface{}, error) {
	ev, fit, err := cl.evidenceAndFit(i, j)
	if err != nil {
		return 0, nil, err
	}
	return ev, fit, nil
}

func (cl *ClusterLikelihood) evidenceAndFit(i, j int) (float64, Fit, error) {
	var idx []int
	if j == -1 {
		idx = cl.items[i]
	} else {
		idx = make([]int, 0, len(cl.items[i])+len(cl.items[j]))
		idx = append(idx, cl.items[i]...)
		idx = append(idx, cl.items[j]...)
	}

	return cl.engine.SingleClusterLogEvidence(cl.data, idx)
}

// Merge commits left and right's item sets into merged's slot.
func (cl *ClusterLikelihood) Merge(merged, left, right int) {
	idx := make([]int, 0, len(cl.items[left])+len(cl.items[right]))
	idx = append(idx, cl.items[left]...)
	idx = append(idx, cl.items[right]...)
	cl.items[merged] = idx
}
