package bhc

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/rsavage/bhc/internal/dendrogram"
	"github.com/rsavage/bhc/internal/multinomial"
	"github.com/rsavage/bhc/internal/timecourse"
)

// NodeSummary is one node of the reported dendrogram: PLeft and PRight are
// -1 for leaves, NK is the item count under this node, Den is the log
// marginal likelihood p(D|T) of the subtree rooted here, and WtAtMerge is
// the log posterior odds that won the merge producing this node (0 for
// leaves).
type NodeSummary struct {
	PLeft, PRight int
	NK            float64
	Den           float64
	WtAtMerge     float64
}

// MergeFit is the best-fit time-course hyperparameters used to evaluate one
// merge. Zero-valued for multinomial runs.
type MergeFit struct {
	LengthScale    float64
	NoiseFreeScale float64
	NoiseSigma     float64
	MixtureWeight  float64
}

// Result is the outcome of a successful Run.
type Result struct {
	// Nodes has length 2N-1: indices 0..N-1 are leaves, N..2N-2 are internal
	// nodes in merge order.
	Nodes []NodeSummary
	// LogEvidence is the root node's Den: the global log-evidence.
	LogEvidence float64
	// MergeFits has length N-1, one entry per merge in commit order. Nil for
	// ModeMultinomial.
	MergeFits []MergeFit
}

// Run builds the BHC dendrogram for an N x D item matrix under cfg.
// Categorical items must be non-negative integers below cfg.ValueDomain
// (values are rounded to the nearest integer); real items are used as-is.
func Run(data [][]float64, cfg Config) (*Result, error) {
	return RunWithLogger(data, cfg, logrus.StandardLogger())
}

// RunWithLogger behaves like Run but reports per-merge diagnostics through
// the given logger instead of logrus's package-level standard logger.
func RunWithLogger(data [][]float64, cfg Config, logger *logrus.Logger) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if err := validateData(data, cfg); err != nil {
		return nil, err
	}

	n := len(data)
	lk, err := buildLikelihood(data, cfg, logger)
	if err != nil {
		return nil, err
	}

	driver := dendrogram.NewDriver(n, lk, cfg.Alpha, cfg.Workers)
	records, err := driver.Run()
	if err != nil {
		logger.WithError(err).Error("bhc: run aborted")
		return nil, err
	}
	for step, rec := range records {
		logMerge(logger, step, rec.Left, rec.Right, rec.Merged, rec.Wt)
	}

	arena := driver.Arena()
	nodes := make([]NodeSummary, arena.Size())
	for i := range nodes {
		nodes[i] = NodeSummary{
			PLeft:     arena.PLeft[i],
			PRight:    arena.PRight[i],
			NK:        arena.NK[i],
			Den:       arena.Den[i],
			WtAtMerge: arena.WtAtMerge[i],
		}
	}

	var mergeFits []MergeFit
	if cfg.Mode != ModeMultinomial {
		mergeFits = make([]MergeFit, len(records))
		for i, rec := range records {
			if fit, ok := rec.Fit.(timecourse.Fit); ok {
				mergeFits[i] = MergeFit{
					LengthScale:    fit.LengthScale,
					NoiseFreeScale: fit.NoiseFreeScale,
					NoiseSigma:     fit.NoiseSigma,
					MixtureWeight:  fit.MixtureWeight,
				}
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"items":       n,
		"logEvidence": driver.GlobalEvidence(),
	}).Info("bhc: run complete")

	return &Result{
		Nodes:       nodes,
		LogEvidence: driver.GlobalEvidence(),
		MergeFits:   mergeFits,
	}, nil
}

func buildLikelihood(data [][]float64, cfg Config, logger *logrus.Logger) (dendrogram.Likelihood, error) {
	n := len(data)
	nSlots := 2*n - 1

	switch cfg.Mode {
	case ModeMultinomial:
		d := len(data[0])
		items := make([][]int, n)
		for i, row := range data {
			items[i] = make([]int, d)
			for j, v := range row {
				items[i][j] = int(math.Round(v))
			}
		}
		cc, err := multinomial.OptimalConcentration(items, d, cfg.ValueDomain, cfg.ConcentrationBracket, cfg.GoldenSectionTol, cfg.GoldenSectionMaxIter)
		if err != nil {
			return nil, newError(NumericFailure, "concentration search failed: %v", err)
		}
		hyper := multinomial.CalculateHyperparameters(items, d, cfg.ValueDomain, cc)
		mlk := multinomial.NewLikelihood(items, d, cfg.ValueDomain, nSlots, hyper)
		logger.WithField("concentration", cc).Debug("bhc: fitted Dirichlet concentration")
		return dendrogram.MultinomialAdapter{Likelihood: mlk}, nil

	case ModeTimecourseGlobalNoise, ModeTimecourseEstimatedNoise:
		noiseMode := timecourse.NoiseModeGlobal
		if cfg.Mode == ModeTimecourseEstimatedNoise {
			noiseMode = timecourse.NoiseModeEstimated
		}
		tcfg := timecourse.Config{
			TimePoints:            cfg.TimePoints,
			LengthScaleBracket:    cfg.LengthScaleBracket,
			NoiseFreeScaleBracket: cfg.NoiseFreeScaleBracket,
			NoiseSigmaBracket:     cfg.NoiseSigmaBracket,
			GoldenSectionTol:      cfg.GoldenSectionTol,
			GoldenSectionMaxIter:  cfg.GoldenSectionMaxIter,
			Sweeps:                cfg.Sweeps,
			Mode:                  noiseMode,
			DataRange:             dataRangeOf(data),
		}
		engine := timecourse.NewLikelihood(tcfg)
		return timecourse.NewClusterLikelihood(engine, data, nSlots), nil

	default:
		return nil, newError(Unsupported, "unknown Mode %d", cfg.Mode)
	}
}

// validateData checks the item matrix's shape and finiteness, and (for
// categorical items) that every value is a non-negative integer below
// ValueDomain.
func validateData(data [][]float64, cfg Config) error {
	n := len(data)
	if n < 2 {
		return newError(InvalidInput, "need at least 2 items, got %d", n)
	}

	width := len(data[0])
	if width == 0 {
		return newError(InvalidInput, "items must have at least one dimension")
	}
	if cfg.Mode != ModeMultinomial && width != len(cfg.TimePoints) {
		return newError(InvalidInput, "item width %d does not match len(TimePoints)=%d", width, len(cfg.TimePoints))
	}

	for i, row := range data {
		if len(row) != width {
			return newError(InvalidInput, "item %d has width %d, want %d", i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return newError(InvalidInput, "item %d dimension %d is not finite: %v", i, j, v)
			}
			if cfg.Mode == ModeMultinomial {
				rounded := math.Round(v)
				if math.Abs(v-rounded) > 1e-9 || rounded < 0 || rounded >= float64(cfg.ValueDomain) {
					return newError(InvalidInput, "item %d dimension %d value %v is not an integer in [0,%d)", i, j, v, cfg.ValueDomain)
				}
			}
		}
	}
	return nil
}

func dataRangeOf(data [][]float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range data {
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo {
		return 1
	}
	return hi - lo
}
