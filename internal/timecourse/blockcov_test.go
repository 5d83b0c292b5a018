package timecourse

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// denseFromBlocks builds the dense (T*B)x(T*B) reference matrix directly
// from the block structure, for cross-checking LogDeterminant/QuadraticForm.
func denseFromBlocks(m *BlockCovarianceMatrix) *mat.Dense {
	total := 0
	offsets := make([]int, m.T)
	for i, b := range m.BlockSizes {
		offsets[i] = total
		total += b
	}
	dense := mat.NewDense(total, total, nil)
	for i := 0; i < m.T; i++ {
		for j := 0; j < m.T; j++ {
			for bi := 0; bi < m.BlockSizes[i]; bi++ {
				for bj := 0; bj < m.BlockSizes[j]; bj++ {
					v := m.NoiseFreeCoeff[i][j]
					if i == j && bi == bj {
						v += m.NoisyCoeff[i]
					}
					dense.Set(offsets[i]+bi, offsets[j]+bj, v)
				}
			}
		}
	}
	return dense
}

func buildTestMatrix(t *testing.T, timePoints []float64, blockSize int, lengthScale, noiseFreeScale, sigma float64) *BlockCovarianceMatrix {
	t.Helper()
	m, err := BuildFromKernel(lengthScale, noiseFreeScale, blockSize, timePoints)
	if err != nil {
		t.Fatalf("BuildFromKernel: %v", err)
	}
	if err := m.AddObservationNoise(sigma); err != nil {
		t.Fatalf("AddObservationNoise: %v", err)
	}
	return m
}

func TestLogDeterminantMatchesDenseReference(t *testing.T) {
	timePoints := []float64{0, 1, 2, 3}
	m := buildTestMatrix(t, timePoints, 3, 1.5, 1.0, 0.3)

	got, err := m.LogDeterminant()
	if err != nil {
		t.Fatalf("LogDeterminant: %v", err)
	}

	dense := denseFromBlocks(m)
	want, sign := mat.LogDet(dense)
	if sign <= 0 {
		t.Fatalf("dense reference matrix is singular or not PD")
	}
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("LogDeterminant() = %f, want %f", got, want)
	}
}

func TestQuadraticFormMatchesDenseReference(t *testing.T) {
	timePoints := []float64{0, 1, 2, 3, 4}
	m := buildTestMatrix(t, timePoints, 2, 2.0, 1.0, 0.5)

	rng := rand.New(rand.NewSource(7))
	y := make([]float64, 10)
	for i := range y {
		y[i] = rng.NormFloat64()
	}

	got, err := m.QuadraticForm(y)
	if err != nil {
		t.Fatalf("QuadraticForm: %v", err)
	}

	dense := denseFromBlocks(m)
	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(10, dense.RawMatrix().Data)); !ok {
		t.Fatalf("dense reference matrix is not positive definite")
	}
	yVec := mat.NewVecDense(10, y)
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, yVec); err != nil {
		t.Fatalf("dense solve: %v", err)
	}
	want := mat.Dot(yVec, &x)

	if math.Abs(got-want) > 1e-8 {
		t.Errorf("QuadraticForm() = %f, want %f", got, want)
	}
}

func TestLogDeterminantRejectsNonPositiveNoisyCoeff(t *testing.T) {
	m := &BlockCovarianceMatrix{
		T:              2,
		BlockSizes:     []int{2, 2},
		NoiseFreeCoeff: [][]float64{{1, 0.5}, {0.5, 1}},
		NoisyCoeff:     []float64{0, 1},
	}
	if _, err := m.LogDeterminant(); err == nil {
		t.Fatal("expected error for non-positive noisy coefficient")
	}
}

func TestBuildFromKernelRejectsInvalidHyperparameters(t *testing.T) {
	if _, err := BuildFromKernel(0, 1, 2, []float64{0, 1}); err == nil {
		t.Error("expected error for non-positive length scale")
	}
	if _, err := BuildFromKernel(1, -1, 2, []float64{0, 1}); err == nil {
		t.Error("expected error for non-positive noise-free scale")
	}
}

func TestCovarianceMissingSingleObservationShrinksBlock(t *testing.T) {
	m := buildTestMatrix(t, []float64{0, 1, 2}, 4, 1.0, 1.0, 0.2)
	red := CovarianceMissingSingleObservation(m, 4, 1)
	if red.BlockSizes[1] != 3 {
		t.Errorf("BlockSizes[1] = %d, want 3", red.BlockSizes[1])
	}
	if red.BlockSizes[0] != 4 || red.BlockSizes[2] != 4 {
		t.Errorf("unaffected blocks changed: %v", red.BlockSizes)
	}

	if _, err := red.LogDeterminant(); err != nil {
		t.Fatalf("LogDeterminant on reduced matrix: %v", err)
	}
}

// TestEmptyBlockMatchesDenseReference exercises the singleton-cluster
// (M=1) leave-one-out reduction, where erasing the only replicate at one
// time index drives that block's size to 0. LogDeterminant and
// QuadraticForm must drop the empty block from the reduction rather than
// dividing by its size.
func TestEmptyBlockMatchesDenseReference(t *testing.T) {
	timePoints := []float64{0, 1, 2}
	m := buildTestMatrix(t, timePoints, 1, 1.0, 1.0, 0.2)
	red := CovarianceMissingSingleObservation(m, 1, 1)
	if red.BlockSizes[1] != 0 {
		t.Fatalf("BlockSizes[1] = %d, want 0", red.BlockSizes[1])
	}

	dense := denseFromBlocks(&red.BlockCovarianceMatrix)
	if dense.RawMatrix().Rows != 2 {
		t.Fatalf("dense reference has %d rows, want 2", dense.RawMatrix().Rows)
	}

	var lu mat.LU
	lu.Factorize(dense)
	wantLogDet, sign := lu.LogDet()
	if sign <= 0 {
		t.Fatalf("dense reference is not positive definite")
	}

	gotLogDet, err := red.LogDeterminant()
	if err != nil {
		t.Fatalf("LogDeterminant: %v", err)
	}
	if math.Abs(gotLogDet-wantLogDet) > 1e-8 {
		t.Errorf("LogDeterminant() = %f, want %f", gotLogDet, wantLogDet)
	}

	y := []float64{0.5, -0.3}
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(2, y)); err != nil {
		t.Fatalf("dense solve: %v", err)
	}
	wantQuad := mat.Dot(mat.NewVecDense(2, y), &x)

	gotQuad, err := red.QuadraticForm(y)
	if err != nil {
		t.Fatalf("QuadraticForm: %v", err)
	}
	if math.Abs(gotQuad-wantQuad) > 1e-8 {
		t.Errorf("QuadraticForm() = %f, want %f", gotQuad, wantQuad)
	}
}
