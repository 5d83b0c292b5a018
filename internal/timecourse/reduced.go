package timecourse

// ReducedBlockCovarianceMatrix is the (T*B-1)x(T*B-1) matrix obtained from a
// full BlockCovarianceMatrix by deleting one row/column from block k (one
// missing observation at time index k). It shares the same T*T coefficient
// matrices as the source; only block k's size shrinks from B to B-1, so
// LogDeterminant and QuadraticForm on the embedded BlockCovarianceMatrix
// already handle it via their general variable-block-size support.
type ReducedBlockCovarianceMatrix struct {
	BlockCovarianceMatrix
	MissingBlock int // k
}

// CovarianceMissingSingleObservation builds the reduced covariance matrix
// for a single observation missing from time index k, given the source
// matrix's per-block-size B.
func CovarianceMissingSingleObservation(base *BlockCovarianceMatrix, blockSize, k int) *ReducedBlockCovarianceMatrix {
	sizes := append([]int(nil), base.BlockSizes...)
	sizes[k] = blockSize - 1

	return &ReducedBlockCovarianceMatrix{
		BlockCovarianceMatrix: BlockCovarianceMatrix{
			T:              base.T,
			BlockSizes:     sizes,
			NoiseFreeCoeff: base.NoiseFreeCoeff,
			NoisyCoeff:     base.NoisyCoeff,
		},
		MissingBlock: k,
	}
}
