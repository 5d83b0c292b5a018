package bhc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func multinomialConfig(valueDomain int) Config {
	cfg := DefaultConfig()
	cfg.ValueDomain = valueDomain
	return cfg
}

func timecourseConfig(mode Mode, timePoints []float64) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.ElementKind = Real
	cfg.TimePoints = timePoints
	return cfg
}

// S1: four identical categorical items; every merge should have strictly
// positive wt and the root evidence should exceed the sum of leaf evidences.
func TestScenarioS1IdenticalItems(t *testing.T) {
	items := [][]float64{{0, 1}, {0, 1}, {0, 1}, {0, 1}}
	result, err := Run(items, multinomialConfig(2))
	require.NoError(t, err)
	require.Len(t, result.Nodes, 2*len(items)-1)

	leafDen := result.Nodes[0].Den
	for i := len(items); i < len(result.Nodes); i++ {
		require.Greater(t, result.Nodes[i].WtAtMerge, 0.0, "node %d: expected strictly positive merge weight", i)
	}
	require.Greater(t, result.LogEvidence, 4*leafDen)
}

// S2: two pure subclusters of three items each; the final merge (the root)
// should have a strictly negative weight.
func TestScenarioS2TwoClusters(t *testing.T) {
	items := [][]float64{
		{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		{1, 1, 0}, {1, 1, 0}, {1, 1, 0},
	}
	result, err := Run(items, multinomialConfig(2))
	require.NoError(t, err)

	root := result.Nodes[len(result.Nodes)-1]
	require.Less(t, root.WtAtMerge, 0.0)
	require.Equal(t, float64(len(items)), root.NK)
}

// S3: a single smooth, noise-free trend shared by all items; the mixture
// weight should be clipped to exactly 1, since no replicate looks like an
// outlier.
func TestScenarioS3TimecourseSingleTrend(t *testing.T) {
	timePoints := []float64{0, 1, 2, 3, 4}
	items := make([][]float64, 3)
	for i := range items {
		items[i] = []float64{0, 1, 2, 3, 4}
	}
	result, err := Run(items, timecourseConfig(ModeTimecourseGlobalNoise, timePoints))
	require.NoError(t, err)
	require.NotNil(t, result.MergeFits)

	last := result.MergeFits[len(result.MergeFits)-1]
	require.Equal(t, 1.0, last.MixtureWeight)
}

// S4: one item spikes far outside the trend at a single time point; the
// mixture weight should land strictly inside (0,1).
func TestScenarioS4TimecourseOutlier(t *testing.T) {
	timePoints := []float64{0, 1, 2, 3, 4}
	items := [][]float64{
		{0, 1, 20, 3, 4},
		{0, 1, 2, 3, 4},
		{0, 1, 2, 3, 4},
	}
	result, err := Run(items, timecourseConfig(ModeTimecourseGlobalNoise, timePoints))
	require.NoError(t, err)

	last := result.MergeFits[len(result.MergeFits)-1]
	require.Greater(t, last.MixtureWeight, 0.0)
	require.Less(t, last.MixtureWeight, 1.0)
}

// S5: two runs under different alpha on the same S2 inputs should choose
// the same merge sequence but report different root evidence.
func TestScenarioS5AlphaSensitivity(t *testing.T) {
	items := [][]float64{
		{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		{1, 1, 0}, {1, 1, 0}, {1, 1, 0},
	}
	cfgSmall := multinomialConfig(2)
	cfgSmall.Alpha = 0.001
	cfgLarge := multinomialConfig(2)
	cfgLarge.Alpha = 1.0

	rSmall, err := Run(items, cfgSmall)
	require.NoError(t, err)
	rLarge, err := Run(items, cfgLarge)
	require.NoError(t, err)

	for i := range rSmall.Nodes {
		require.Equal(t, rSmall.Nodes[i].PLeft, rLarge.Nodes[i].PLeft, "node %d", i)
		require.Equal(t, rSmall.Nodes[i].PRight, rLarge.Nodes[i].PRight, "node %d", i)
	}
	require.NotEqual(t, rSmall.LogEvidence, rLarge.LogEvidence)
}

// S6: two runs on identical input produce bit-identical node arrays.
func TestScenarioS6Determinism(t *testing.T) {
	items := [][]float64{{0, 1}, {1, 0}, {0, 0}, {1, 1}, {0, 1}, {1, 0}}
	cfg := multinomialConfig(2)

	r1, err := Run(items, cfg)
	require.NoError(t, err)
	r2, err := Run(items, cfg)
	require.NoError(t, err)

	require.Equal(t, r1.Nodes, r2.Nodes)
	require.Equal(t, r1.LogEvidence, r2.LogEvidence)
}

func TestRunRejectsTooFewItems(t *testing.T) {
	_, err := Run([][]float64{{0, 1}}, multinomialConfig(2))
	require.True(t, IsKind(err, InvalidInput))
}

func TestRunRejectsOutOfDomainCategory(t *testing.T) {
	_, err := Run([][]float64{{0, 1}, {2, 0}}, multinomialConfig(2))
	require.True(t, IsKind(err, InvalidInput))
}

func TestRunRejectsNonFiniteValue(t *testing.T) {
	_, err := Run([][]float64{{0, 1}, {math.NaN(), 0}}, multinomialConfig(2))
	require.True(t, IsKind(err, InvalidInput))
}

func TestRunRejectsTimePointsWidthMismatch(t *testing.T) {
	cfg := timecourseConfig(ModeTimecourseGlobalNoise, []float64{0, 1, 2})
	_, err := Run([][]float64{{0, 1}, {1, 2}}, cfg)
	require.True(t, IsKind(err, InvalidInput))
}
