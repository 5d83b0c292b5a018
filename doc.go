// Package bhc implements Bayesian Hierarchical Clustering (BHC): a
// bottom-up agglomerative algorithm that greedily merges the pair of
// clusters maximizing the posterior odds of a Dirichlet-process mixture
// model, rather than merging by distance.
//
// Two item likelihoods are supported: a Dirichlet-multinomial marginal
// likelihood for categorical items (ModeMultinomial), and a robust
// Gaussian-process marginal likelihood with a squared-exponential kernel
// for time-course items (ModeTimecourseGlobalNoise,
// ModeTimecourseEstimatedNoise).
//
// Basic usage:
//
//	cfg := bhc.DefaultConfig()
//	cfg.ValueDomain = 2
//	result, err := bhc.Run(items, cfg)
//	// result.LogEvidence is the root node's marginal log-likelihood
//	// result.Nodes[i] describes node i's children, item count, and evidence
//
// For time-course items:
//
//	cfg := bhc.DefaultConfig()
//	cfg.Mode = bhc.ModeTimecourseGlobalNoise
//	cfg.ElementKind = bhc.Real
//	cfg.TimePoints = []float64{0, 1, 2, 3, 4}
//	result, err := bhc.Run(items, cfg)
//	// result.MergeFits[i] holds the length-scale, noise-free scale, noise
//	// sigma, and outlier mixture weight fitted for merge i
package bhc
