// Package node implements the flat node arena and triangular pair table
// shared by the BHC merge driver. Nodes are addressed by index rather than
// pointer: leaves occupy indices 0..N-1, internal (merged) nodes occupy
// N..2N-2, and a node's children always have strictly smaller indices.
package node

import "math"

// NoParent is the sentinel stored in PLeft/PRight for leaf nodes.
const NoParent = -1

// Arena holds the 2N-1 node records for a run of N items. All slots are
// allocated once at construction; leaves are populated immediately, internal
// slots are populated in merge order as the driver runs.
type Arena struct {
	N int // number of leaves

	PLeft  []int     // child index, or NoParent for leaves
	PRight []int     // child index, or NoParent for leaves
	Flag   []bool    // true once a node has been consumed by a merge
	NK     []float64 // number of items under this node
	CK     []float64 // log normaliser c_k
	Den    []float64 // log p(D_k | T_k), the subtree marginal likelihood

	// WtAtMerge is the log posterior odds that won the merge producing this
	// node. It is left at 0 for leaves, which are never themselves the
	// product of a merge.
	WtAtMerge []float64
}

// NewArena allocates the 2N-1 node slots for n leaves. Internal slots start
// with Flag=true (consumed) so the merge loop's scan never spuriously
// selects an unpopulated internal node as a merge candidate; Merge clears
// the flag once a slot is populated.
func NewArena(n int) *Arena {
	size := 2*n - 1
	if size < 1 {
		size = 1
	}
	a := &Arena{
		N:         n,
		PLeft:     make([]int, size),
		PRight:    make([]int, size),
		Flag:      make([]bool, size),
		NK:        make([]float64, size),
		CK:        make([]float64, size),
		Den:       make([]float64, size),
		WtAtMerge: make([]float64, size),
	}
	for i := range a.PLeft {
		a.PLeft[i] = NoParent
		a.PRight[i] = NoParent
	}
	for i := n; i < size; i++ {
		a.Flag[i] = true
	}
	return a
}

// Size returns the total number of allocated node slots (2N-1).
func (a *Arena) Size() int {
	return len(a.PLeft)
}

// Merge records node `merged` as the product of consuming `left` and
// `right`: sets PLeft/PRight/NK, marks the children consumed, and marks the
// new node active so later merges can select it. The caller is responsible
// for setting CK, Den, and WtAtMerge with the merge driver's log-space
// arithmetic.
func (a *Arena) Merge(merged, left, right int) {
	a.PLeft[merged] = left
	a.PRight[merged] = right
	a.NK[merged] = a.NK[left] + a.NK[right]
	a.Flag[left] = true
	a.Flag[right] = true
	a.Flag[merged] = false
}

// PairTable is an upper-triangular table of (num1, num2, wt) triples over
// the full 2N-1 node index range, so that both the initial leaf pairs and
// the merged-node-vs-partner pairs created during the run share one backing
// store. Only entries with i < j are meaningful.
type PairTable struct {
	m              int
	num1, num2, wt []float64
}

// NewPairTable allocates a table over m node slots (m = Arena.Size()).
func NewPairTable(m int) *PairTable {
	if m < 2 {
		m = 2
	}
	size := m * (m - 1) / 2
	return &PairTable{
		m:    m,
		num1: make([]float64, size),
		num2: make([]float64, size),
		wt:   make([]float64, size),
	}
}

// index maps (i,j), i<j, onto the flat triangular storage offset.
func (t *PairTable) index(i, j int) int {
	return i*t.m - i*(i+1)/2 + (j - i - 1)
}

func (t *PairTable) Num1(i, j int) float64 { return t.num1[t.index(i, j)] }
func (t *PairTable) Num2(i, j int) float64 { return t.num2[t.index(i, j)] }
func (t *PairTable) Wt(i, j int) float64   { return t.wt[t.index(i, j)] }

// Set stores a full (num1, num2, wt) triple for the pair (i,j), i<j.
func (t *PairTable) Set(i, j int, num1, num2 float64) {
	k := t.index(i, j)
	t.num1[k] = num1
	t.num2[k] = num2
	t.wt[k] = num1 - num2
}

// LogSumExp computes log(exp(a)+exp(b)) in a numerically stable way. Every
// sum of log-space quantities in the BHC recurrence must go through this
// helper rather than the naive log(exp(a)+exp(b)) form.
func LogSumExp(a, b float64) float64 {
	if math.IsInf(a, -1) && math.IsInf(b, -1) {
		return math.Inf(-1)
	}
	hi, lo := a, b
	if b > a {
		hi, lo = b, a
	}
	return hi + math.Log1p(math.Exp(lo-hi))
}
