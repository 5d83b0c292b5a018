// Package timecourse implements the Gaussian-process marginal likelihood
// used by the BHC engine's real-valued, time-course item mode: a
// block-structured covariance matrix built from a squared-exponential
// kernel, golden-section hyperparameter optimisation, and a robust
// leave-one-observation-out log-evidence.
package timecourse

import (
	"math"

	"github.com/rsavage/bhc/internal/bhcerr"
	"gonum.org/v1/gonum/mat"
)

// BlockCovarianceMatrix represents a (sum(BlockSizes))x(sum(BlockSizes))
// covariance matrix composed of T*T blocks, where block (i,j) equals
// NoiseFreeCoeff[i][j] * J (all-ones) plus, on the diagonal (i==j) only,
// NoisyCoeff[i] * I. This structure arises because all replicates sharing a
// time index see the same squared-exponential kernel value.
//
// BlockSizes is normally uniform (every block has the same replicate count
// B), except for the reduced form produced by
// CovarianceMissingSingleObservation, where exactly one block has size B-1.
type BlockCovarianceMatrix struct {
	T              int
	BlockSizes     []int
	NoiseFreeCoeff [][]float64 // T x T
	NoisyCoeff     []float64   // length T
}

// BuildFromKernel constructs the noise-free part of a BlockCovarianceMatrix
// from a squared-exponential kernel over T time indices:
// noiseFreeCoeff[i][j] = noiseFreeScale * exp(-(t_i-t_j)^2 / (2*lengthScale^2)).
// NoisyCoeff starts at zero; call AddObservationNoise to populate it.
func BuildFromKernel(lengthScale, noiseFreeScale float64, blockSize int, timePoints []float64) (*BlockCovarianceMatrix, error) {
	if lengthScale <= 0 {
		return nil, bhcerr.New(bhcerr.InvalidHyperparameter, "length scale must be positive, got %v", lengthScale)
	}
	if noiseFreeScale <= 0 {
		return nil, bhcerr.New(bhcerr.InvalidHyperparameter, "noise-free scale must be positive, got %v", noiseFreeScale)
	}
	if blockSize <= 0 {
		return nil, bhcerr.New(bhcerr.InvalidInput, "block size must be positive, got %d", blockSize)
	}

	t := len(timePoints)
	blockSizes := make([]int, t)
	coeff := make([][]float64, t)
	for i := range coeff {
		blockSizes[i] = blockSize
		coeff[i] = make([]float64, t)
	}
	for i := 0; i < t; i++ {
		for j := 0; j < t; j++ {
			coeff[i][j] = squaredExponential(timePoints[i], timePoints[j], lengthScale, noiseFreeScale)
		}
	}

	return &BlockCovarianceMatrix{
		T:              t,
		BlockSizes:     blockSizes,
		NoiseFreeCoeff: coeff,
		NoisyCoeff:     make([]float64, t),
	}, nil
}

// AddObservationNoise adds sigma^2 to every diagonal block's noisy
// coefficient (uniform noise mode).
func (m *BlockCovarianceMatrix) AddObservationNoise(sigma float64) error {
	if sigma < 0 {
		return bhcerr.New(bhcerr.InvalidHyperparameter, "noise sigma must be >= 0, got %v", sigma)
	}
	sigma2 := sigma * sigma
	for i := range m.NoisyCoeff {
		m.NoisyCoeff[i] += sigma2
	}
	return nil
}

// AddPerTimeObservationNoise adds a distinct variance to each time index's
// diagonal block (estimated-noise mode), where variances[i] is the
// per-time-point noise variance.
func (m *BlockCovarianceMatrix) AddPerTimeObservationNoise(variances []float64) error {
	if len(variances) != m.T {
		return bhcerr.New(bhcerr.InvalidInput, "per-time noise length %d does not match T=%d", len(variances), m.T)
	}
	for i, v := range variances {
		if v < 0 {
			return bhcerr.New(bhcerr.InvalidHyperparameter, "per-time noise variance must be >= 0, got %v at index %d", v, i)
		}
		m.NoisyCoeff[i] += v
	}
	return nil
}

// activeBlocks returns the indices of blocks holding at least one
// observation. A block emptied by CovarianceMissingSingleObservation (the
// leave-one-out reduction applied to a singleton cluster) carries no
// eigenvalues at all and must be dropped from the reduction entirely, not
// left as a degenerate entry.
func (m *BlockCovarianceMatrix) activeBlocks() []int {
	active := make([]int, 0, m.T)
	for i := 0; i < m.T; i++ {
		if m.BlockSizes[i] > 0 {
			active = append(active, i)
		}
	}
	return active
}

// rankMatrix builds the rank-matrix reduction R[i][j] = sqrt(bi*bj) *
// NoiseFreeCoeff[i][j] + delta_ij * NoisyCoeff[i] over the active (non-empty)
// blocks only, whose eigenvalues together with the (bi-1) repeated
// NoisyCoeff[i] eigenvalues per block give the full spectrum of K (see
// BlockCovarianceMatrix doc).
func (m *BlockCovarianceMatrix) rankMatrix(active []int) *mat.Dense {
	n := len(active)
	r := mat.NewDense(n, n, nil)
	for ii, i := range active {
		bi := float64(m.BlockSizes[i])
		for jj, j := range active {
			bj := float64(m.BlockSizes[j])
			v := math.Sqrt(bi*bj) * m.NoiseFreeCoeff[i][j]
			if i == j {
				v += m.NoisyCoeff[i]
			}
			r.Set(ii, jj, v)
		}
	}
	return r
}

// LogDeterminant returns log det K via the rank-matrix reduction:
// log det K = sum_i (b_i - 1) * log(NoisyCoeff[i]) + log det(R), summing only
// over blocks with b_i > 0 (an empty block contributes nothing).
func (m *BlockCovarianceMatrix) LogDeterminant() (float64, error) {
	sum := 0.0
	for i := 0; i < m.T; i++ {
		if m.BlockSizes[i] == 0 {
			continue
		}
		if m.NoisyCoeff[i] <= 0 {
			return 0, bhcerr.New(bhcerr.NumericFailure, "non-positive noisy coefficient at block %d: %v", i, m.NoisyCoeff[i])
		}
		sum += float64(m.BlockSizes[i]-1) * math.Log(m.NoisyCoeff[i])
	}

	active := m.activeBlocks()
	if len(active) == 0 {
		return sum, nil
	}

	r := m.rankMatrix(active)
	var lu mat.LU
	lu.Factorize(r)
	logDetR, sign := lu.LogDet()
	if sign == 0 || math.IsNaN(logDetR) || math.IsInf(logDetR, 0) {
		return 0, bhcerr.New(bhcerr.NumericFailure, "singular rank matrix while computing log-determinant")
	}

	total := sum + logDetR
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, bhcerr.New(bhcerr.NumericFailure, "non-finite log-determinant")
	}
	return total, nil
}

// QuadraticForm computes y . K^-1 . y using the same block decomposition:
// partition y into T groups following BlockSizes; let ybar_i be the mean of
// group i. Then
//
//	y.K^-1.y = sum_i (||y_i||^2 - b_i*ybar_i^2) / NoisyCoeff[i] + g.R^-1.g
//
// where g_i = sqrt(b_i) * ybar_i projects the block-mean component onto the
// same normalised basis used to build R, keeping the two terms in
// consistent units.
func (m *BlockCovarianceMatrix) QuadraticForm(y []float64) (float64, error) {
	expected := 0
	for _, b := range m.BlockSizes {
		expected += b
	}
	if len(y) != expected {
		return 0, bhcerr.New(bhcerr.InvalidInput, "y length %d does not match block structure total %d", len(y), expected)
	}

	active := m.activeBlocks()
	within := 0.0
	g := make([]float64, len(active))
	offset := 0
	gi := 0
	for i := 0; i < m.T; i++ {
		b := m.BlockSizes[i]
		sum, sumSq := 0.0, 0.0
		for k := 0; k < b; k++ {
			v := y[offset+k]
			sum += v
			sumSq += v * v
		}
		offset += b
		if b == 0 {
			continue
		}
		ybar := sum / float64(b)
		if m.NoisyCoeff[i] <= 0 {
			return 0, bhcerr.New(bhcerr.NumericFailure, "non-positive noisy coefficient at block %d: %v", i, m.NoisyCoeff[i])
		}
		within += (sumSq - float64(b)*ybar*ybar) / m.NoisyCoeff[i]
		g[gi] = math.Sqrt(float64(b)) * ybar
		gi++
	}

	if len(active) == 0 {
		if math.IsNaN(within) || math.IsInf(within, 0) {
			return 0, bhcerr.New(bhcerr.NumericFailure, "non-finite quadratic form")
		}
		return within, nil
	}

	r := m.rankMatrix(active)
	gVec := mat.NewVecDense(len(active), g)
	var lu mat.LU
	lu.Factorize(r)
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, gVec); err != nil {
		return 0, bhcerr.Wrap(bhcerr.NumericFailure, err, "singular rank matrix while solving quadratic form")
	}
	between := mat.Dot(gVec, &x)

	total := within + between
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, bhcerr.New(bhcerr.NumericFailure, "non-finite quadratic form")
	}
	return total, nil
}
