package bhc

import "runtime"

// ElementKind declares how an item matrix's values should be interpreted.
type ElementKind int

const (
	// Categorical values are integers in [0, ValueDomain).
	Categorical ElementKind = iota
	// Real values are continuous time-course observations.
	Real
)

func (k ElementKind) String() string {
	if k == Real {
		return "Real"
	}
	return "Categorical"
}

// Mode selects the likelihood family the engine evaluates merges under.
type Mode int

const (
	// ModeMultinomial uses the Dirichlet-multinomial marginal likelihood
	// over categorical items.
	ModeMultinomial Mode = iota
	// ModeTimecourseGlobalNoise fits a single noise variance jointly with
	// the kernel hyperparameters.
	ModeTimecourseGlobalNoise
	// ModeTimecourseEstimatedNoise holds the noise variance fixed at an
	// empirical per-cluster estimate.
	ModeTimecourseEstimatedNoise
)

func (m Mode) String() string {
	switch m {
	case ModeMultinomial:
		return "ModeMultinomial"
	case ModeTimecourseGlobalNoise:
		return "ModeTimecourseGlobalNoise"
	case ModeTimecourseEstimatedNoise:
		return "ModeTimecourseEstimatedNoise"
	default:
		return "ModeUnknown"
	}
}

// Config controls a BHC run. Start with [DefaultConfig] and override the
// fields you need.
type Config struct {
	// Mode selects the likelihood family. Default: ModeMultinomial.
	Mode Mode

	// ElementKind must agree with Mode: Categorical for ModeMultinomial,
	// Real for either time-course mode. Default: Categorical.
	ElementKind ElementKind

	// ValueDomain is V, the number of categorical values per dimension.
	// Multinomial mode only. Must be >= 2.
	ValueDomain int

	// TimePoints is the T time coordinates shared by every item. Time-course
	// modes only. Must have length >= 2.
	TimePoints []float64

	// Alpha is the Dirichlet-process concentration. Must be > 0. Default: 0.001.
	Alpha float64

	// LengthScaleBracket, NoiseFreeScaleBracket, and NoiseSigmaBracket bound
	// the golden-section search for the squared-exponential kernel's
	// hyperparameters. Time-course modes only.
	LengthScaleBracket    [2]float64
	NoiseFreeScaleBracket [2]float64
	NoiseSigmaBracket     [2]float64

	// ConcentrationBracket bounds the golden-section search for the
	// Dirichlet concentration cc. Multinomial mode only.
	ConcentrationBracket [2]float64

	// GoldenSectionTol and GoldenSectionMaxIter bound every hyperparameter
	// search in the engine. Default: 1e-4, 100.
	GoldenSectionTol     float64
	GoldenSectionMaxIter int

	// Sweeps is the number of coordinate-wise golden-section passes used by
	// the time-course hyperparameter optimiser. Default: 3.
	Sweeps int

	// Workers controls the number of goroutines used for the merge driver's
	// partner-update loop. 0 means use runtime.NumCPU(). 1 disables
	// parallelism.
	Workers int
}

// DefaultConfig returns a Config with reasonable defaults for multinomial
// mode. Time-course callers must still set TimePoints.
func DefaultConfig() Config {
	return Config{
		Mode:                  ModeMultinomial,
		ElementKind:           Categorical,
		Alpha:                 0.001,
		LengthScaleBracket:    [2]float64{0.1, 10},
		NoiseFreeScaleBracket: [2]float64{0.1, 10},
		NoiseSigmaBracket:     [2]float64{0.01, 5},
		ConcentrationBracket:  [2]float64{0.01, 50},
		GoldenSectionTol:      1e-4,
		GoldenSectionMaxIter:  100,
		Sweeps:                3,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive
// typed error if not.
func validateConfig(cfg *Config) error {
	switch cfg.Mode {
	case ModeMultinomial, ModeTimecourseGlobalNoise, ModeTimecourseEstimatedNoise:
	default:
		return newError(Unsupported, "unknown Mode %d", cfg.Mode)
	}

	wantKind := Categorical
	if cfg.Mode != ModeMultinomial {
		wantKind = Real
	}
	if cfg.ElementKind != wantKind {
		return newError(Unsupported, "Mode %s requires ElementKind %s, got %s", cfg.Mode, wantKind, cfg.ElementKind)
	}

	if cfg.Mode == ModeMultinomial && cfg.ValueDomain <= 1 {
		return newError(InvalidInput, "ValueDomain must be >= 2, got %d", cfg.ValueDomain)
	}
	if cfg.Mode != ModeMultinomial && len(cfg.TimePoints) < 2 {
		return newError(InvalidInput, "TimePoints must have length >= 2, got %d", len(cfg.TimePoints))
	}
	if cfg.Alpha <= 0 {
		return newError(InvalidHyperparameter, "Alpha must be > 0, got %v", cfg.Alpha)
	}
	if cfg.GoldenSectionTol <= 0 {
		return newError(InvalidHyperparameter, "GoldenSectionTol must be > 0, got %v", cfg.GoldenSectionTol)
	}
	if cfg.GoldenSectionMaxIter < 1 {
		return newError(InvalidHyperparameter, "GoldenSectionMaxIter must be >= 1, got %d", cfg.GoldenSectionMaxIter)
	}
	if cfg.Sweeps < 0 {
		return newError(InvalidHyperparameter, "Sweeps must be >= 0, got %d", cfg.Sweeps)
	}
	if cfg.Mode != ModeMultinomial {
		if err := validateBracket("LengthScaleBracket", cfg.LengthScaleBracket, true); err != nil {
			return err
		}
		if err := validateBracket("NoiseFreeScaleBracket", cfg.NoiseFreeScaleBracket, true); err != nil {
			return err
		}
		if err := validateBracket("NoiseSigmaBracket", cfg.NoiseSigmaBracket, false); err != nil {
			return err
		}
	}
	if cfg.Mode == ModeMultinomial {
		if err := validateBracket("ConcentrationBracket", cfg.ConcentrationBracket, true); err != nil {
			return err
		}
	}
	return nil
}

func validateBracket(name string, b [2]float64, strictlyPositive bool) error {
	if b[0] > b[1] {
		return newError(InvalidHyperparameter, "%s must have lo <= hi, got %v", name, b)
	}
	floor := 0.0
	if strictlyPositive {
		floor = 1e-12
	}
	if b[0] < floor {
		return newError(InvalidHyperparameter, "%s lower bound must be >= %v, got %v", name, floor, b[0])
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Alpha == 0 {
		cfg.Alpha = 0.001
	}
	if cfg.GoldenSectionTol == 0 {
		cfg.GoldenSectionTol = 1e-4
	}
	if cfg.GoldenSectionMaxIter == 0 {
		cfg.GoldenSectionMaxIter = 100
	}
	if cfg.Sweeps == 0 {
		cfg.Sweeps = 3
	}
	if cfg.LengthScaleBracket == ([2]float64{}) {
		cfg.LengthScaleBracket = [2]float64{0.1, 10}
	}
	if cfg.NoiseFreeScaleBracket == ([2]float64{}) {
		cfg.NoiseFreeScaleBracket = [2]float64{0.1, 10}
	}
	if cfg.NoiseSigmaBracket == ([2]float64{}) {
		cfg.NoiseSigmaBracket = [2]float64{0.01, 5}
	}
	if cfg.ConcentrationBracket == ([2]float64{}) {
		cfg.ConcentrationBracket = [2]float64{0.01, 50}
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
}
