// Package dendrogram implements the Bayesian hierarchical clustering merge
// driver: pair initialisation, the greedy maximal-weight merge loop, and the
// optional data-parallel partner update, generic over any evidence source
// that satisfies Likelihood.
package dendrogram

import "github.com/rsavage/bhc/internal/multinomial"

// Likelihood is the evidence source the merge driver operates over. An
// implementation owns whatever per-node data (count tables, item-index
// sets) it needs to answer binEvidence for any pair of existing nodes and
// to commit a winning merge's data into the new node's slot.
type Likelihood interface {
	// BinEvidence returns log p(D | H1): the evidence for node i alone when
	// j == -1, or for the union of i and j when j >= 0. It must not mutate
	// any node's stored data.
	BinEvidence(i, j int) (float64, error)
	// Merge commits left and right's data into merged's slot.
	Merge(merged, left, right int)
}

// fitter is implemented by Likelihoods that produce per-merge best-fit
// hyperparameters (the time-course family); multinomial's Likelihood does
// not implement it, so MergeRecord.Fit stays nil for that mode.
//
// BinEvidenceFit re-evaluates the pair's evidence and returns the
// hyperparameters that produced it alongside, rather than caching them in
// mutable node state: the driver calls it once, single-threaded, right
// after selecting the winning pair, so no synchronisation is needed even
// though BinEvidence itself may run concurrently across partner updates.
type fitter interface {
	BinEvidenceFit(i, j int) (float64, interface{}, error)
}

// MultinomialAdapter wraps multinomial.Likelihood's (float64)-returning
// BinEvidence (the Dirichlet-multinomial marginal likelihood never fails
// given finite input) in the (float64, error) shape the driver expects.
type MultinomialAdapter struct {
	*multinomial.Likelihood
}

func (a MultinomialAdapter) BinEvidence(i, j int) (float64, error) {
	return a.Likelihood.BinEvidence(i, j), nil
}
