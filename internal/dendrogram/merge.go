package dendrogram

import (
	"math"
	"sync"

	"github.com/rsavage/bhc/internal/bhcerr"
	"github.com/rsavage/bhc/internal/gammaln"
	"github.com/rsavage/bhc/internal/node"
)

// MergeRecord describes one winning merge: the two consumed nodes, the new
// node's index, the log posterior odds that won the merge, and (time-course
// mode only) the best-fit hyperparameters used to evaluate it.
type MergeRecord struct {
	Left, Right, Merged int
	Wt                  float64
	Fit                 interface{}
}

// Driver runs the BHC merge loop over a fixed node arena and pair table.
type Driver struct {
	arena   *node.Arena
	pairs   *node.PairTable
	lk      Likelihood
	alpha   float64
	workers int
}

// NewDriver allocates a Driver for n leaves, evaluating evidence through lk
// under Dirichlet-process concentration alpha. workers <= 1 runs the
// partner-update loop sequentially; workers > 1 splits it across a fixed
// goroutine partition.
func NewDriver(n int, lk Likelihood, alpha float64, workers int) *Driver {
	arena := node.NewArena(n)
	return &Driver{
		arena:   arena,
		pairs:   node.NewPairTable(arena.Size()),
		lk:      lk,
		alpha:   alpha,
		workers: workers,
	}
}

// Arena returns the underlying node arena, populated after Run succeeds.
func (d *Driver) Arena() *node.Arena { return d.arena }

// Root returns the index of the final, all-items node.
func (d *Driver) Root() int { return d.arena.Size() - 1 }

// GlobalEvidence returns the root node's den: the global log-evidence.
func (d *Driver) GlobalEvidence() float64 { return d.arena.Den[d.Root()] }

// Run executes pair initialisation followed by N-1 greedy merges, returning
// one MergeRecord per merge in the order merges were committed.
func (d *Driver) Run() ([]MergeRecord, error) {
	n := d.arena.N
	if n < 2 {
		return nil, bhcerr.New(bhcerr.InvalidInput, "need at least 2 items to build a dendrogram, got %d", n)
	}
	if d.alpha <= 0 {
		return nil, bhcerr.New(bhcerr.InvalidHyperparameter, "alpha must be positive, got %v", d.alpha)
	}

	logAlpha := math.Log(d.alpha)
	gt := gammaln.NewTable(n + 2)

	for i := 0; i < n; i++ {
		ev, err := d.lk.BinEvidence(i, -1)
		if err != nil {
			return nil, bhcerr.Wrap(bhcerr.NumericFailure, err, "leaf evidence failed for item %d", i).WithCluster([]int{i})
		}
		d.arena.CK[i] = logAlpha
		d.arena.NK[i] = 1
		d.arena.Den[i] = ev
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if err := d.computePair(i, j, logAlpha, gt); err != nil {
				return nil, err
			}
		}
	}

	records := make([]MergeRecord, 0, n-1)
	mergedNode := n - 1

	for step := 0; step < n-1; step++ {
		mergedNode++

		besti, bestj, bestWt := -1, -1, math.Inf(-1)
		for i := 0; i < mergedNode; i++ {
			if d.arena.Flag[i] {
				continue
			}
			for j := i + 1; j < mergedNode; j++ {
				if d.arena.Flag[j] {
					continue
				}
				wt := d.pairs.Wt(i, j)
				if wt > bestWt {
					bestWt, besti, bestj = wt, i, j
				}
			}
		}
		if besti < 0 {
			return nil, bhcerr.New(bhcerr.NumericFailure, "no active pair available at merge %d", step)
		}

		num1 := d.pairs.Num1(besti, bestj)
		num2 := d.pairs.Num2(besti, bestj)

		tr1 := logAlpha + gt.At(d.arena.NK[besti]+d.arena.NK[bestj])
		tr2 := d.arena.CK[besti] + d.arena.CK[bestj]
		ckt := node.LogSumExp(tr1, tr2)

		d.arena.Merge(mergedNode, besti, bestj)
		d.lk.Merge(mergedNode, besti, bestj)

		d.arena.CK[mergedNode] = ckt
		d.arena.Den[mergedNode] = node.LogSumExp(num1, num2)
		d.arena.WtAtMerge[mergedNode] = bestWt

		rec := MergeRecord{Left: besti, Right: bestj, Merged: mergedNode, Wt: bestWt}
		if fr, ok := d.lk.(fitter); ok {
			_, fit, err := fr.BinEvidenceFit(besti, bestj)
			if err != nil {
				return nil, bhcerr.Wrap(bhcerr.NumericFailure, err, "re-evaluating winning pair (%d,%d) failed", besti, bestj).WithMerge(besti, bestj)
			}
			rec.Fit = fit
		}
		records = append(records, rec)

		if err := d.updatePartners(mergedNode, besti, bestj, logAlpha, gt); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// computePair evaluates and stores (num1, num2, wt) for the pair (i,j),
// i<j, following spec's pair-initialisation recurrence.
func (d *Driver) computePair(i, j int, logAlpha float64, gt *gammaln.Table) error {
	tr1 := logAlpha + gt.At(d.arena.NK[i]+d.arena.NK[j])
	tr2 := d.arena.CK[i] + d.arena.CK[j]
	ckt := node.LogSumExp(tr1, tr2)
	piK := tr1 - ckt

	gell, err := d.lk.BinEvidence(i, j)
	if err != nil {
		return bhcerr.Wrap(bhcerr.NumericFailure, err, "pair evidence failed for (%d,%d)", i, j).WithMerge(i, j)
	}

	num1 := piK + gell
	num2 := (tr2 - ckt) + d.arena.Den[i] + d.arena.Den[j]
	d.pairs.Set(i, j, num1, num2)
	return nil
}

// updatePartners recomputes (num1, num2, wt) between the newly merged node
// and every other still-active node, optionally split across a fixed
// goroutine partition: each worker owns a disjoint slice of partner
// indices, so no locking is needed beyond the join barrier below.
func (d *Driver) updatePartners(mergedNode, besti, bestj int, logAlpha float64, gt *gammaln.Table) error {
	active := make([]int, 0, mergedNode)
	for k := 0; k < mergedNode; k++ {
		if k == besti || k == bestj || d.arena.Flag[k] {
			continue
		}
		active = append(active, k)
	}
	if len(active) == 0 {
		return nil
	}

	workers := d.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(active) {
		workers = len(active)
	}

	if workers == 1 {
		for _, k := range active {
			if err := d.computePair(k, mergedNode, logAlpha, gt); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	chunk := (len(active) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(active) {
			break
		}
		end := start + chunk
		if end > len(active) {
			end = len(active)
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			for _, k := range active[start:end] {
				if err := d.computePair(k, mergedNode, logAlpha, gt); err != nil {
					errs[w] = err
					return
				}
			}
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
