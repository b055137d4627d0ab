package hdr

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// CentralCurve selects the representative curve of a functional result.
type CentralCurve string

const (
	// CentralMode uses the observed trajectory with the highest density in
	// the reduced space.
	CentralMode CentralCurve = "mode"

	// CentralMean uses the pointwise mean of all trajectories.
	CentralMean CentralCurve = "mean"
)

// FunctionalConfig controls functional (trajectory) classification.
// Start with [DefaultFunctionalConfig] and override the fields you need.
type FunctionalConfig struct {
	// Reducer selects the number of spectral components kept before the
	// density is fitted. Default: two components.
	Reducer ReducerConfig

	// Levels are the alpha levels of the contour ladder. The largest one is
	// the outlier level. Default: {0.9, 0.5}.
	Levels []float64

	// Central chooses the central curve. Default: CentralMode.
	Central CentralCurve

	// Logger overrides the package logger for this classifier. Default: nil.
	Logger *logrus.Logger
}

// DefaultFunctionalConfig returns a FunctionalConfig with reasonable defaults.
func DefaultFunctionalConfig() FunctionalConfig {
	return FunctionalConfig{
		Reducer: DefaultReducerConfig(),
		Levels:  []float64{0.9, 0.5},
		Central: CentralMode,
	}
}

func applyFunctionalDefaults(cfg *FunctionalConfig) {
	if cfg.Reducer == (ReducerConfig{}) {
		cfg.Reducer = DefaultReducerConfig()
	}
	if cfg.Central == "" {
		cfg.Central = CentralMode
	}
}

func validateFunctionalConfig(cfg *FunctionalConfig) error {
	if err := validateReducerConfig(cfg.Reducer); err != nil {
		return err
	}
	if cfg.Central != CentralMode && cfg.Central != CentralMean {
		return fmt.Errorf("%w: Central must be %q or %q, got %q", ErrInvalidConfig, CentralMode, CentralMean, cfg.Central)
	}
	return nil
}

// FunctionalClassifier finds atypical trajectories. It reduces the curves to
// a few spectral components, fits a density there with the supplied fitter
// and classifies the reduced points with a Classifier. Trajectories map 1:1
// to reduced points, so the index sets apply to the curves unchanged.
type FunctionalClassifier struct {
	fitter     DensityFitter
	reducer    ReducerConfig
	classifier *Classifier
	central    CentralCurve
	logger     *logrus.Logger
}

// NewFunctionalClassifier returns a classifier that fits densities with fitter.
func NewFunctionalClassifier(fitter DensityFitter, cfg FunctionalConfig) (*FunctionalClassifier, error) {
	if fitter == nil {
		return nil, fmt.Errorf("%w: nil DensityFitter", ErrInvalidConfig)
	}
	applyFunctionalDefaults(&cfg)
	if err := validateFunctionalConfig(&cfg); err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(cfg.Levels...)
	if err != nil {
		return nil, err
	}
	classifier.logger = cfg.Logger
	return &FunctionalClassifier{
		fitter:     fitter,
		reducer:    cfg.Reducer,
		classifier: classifier,
		central:    cfg.Central,
		logger:     cfg.Logger,
	}, nil
}

// Classify runs reduction, density fit and HDR classification in sequence.
// Errors from any step are returned as is; collaborator failures are wrapped
// in a CollaboratorError.
func (f *FunctionalClassifier) Classify(set *TrajectorySet) (*FunctionalResult, error) {
	reduced, err := reduce(set, f.reducer, f.log())
	if err != nil {
		return nil, err
	}
	features := reduced.Features()

	model, err := f.fitter.Fit(features)
	if err != nil {
		return nil, collaboratorError("density fit", err)
	}

	result, err := f.classifier.Run(features, model)
	if err != nil {
		return nil, err
	}

	fr := &FunctionalResult{
		set:            set,
		reduced:        reduced,
		classification: result,
	}
	switch f.central {
	case CentralMean:
		fr.central = set.Mean()
	default:
		fr.central = set.Trajectory(result.Mode())
	}
	fr.envelope, fr.hasEnvelope = set.Subset(result.Inliers()).Envelope()

	f.log().WithFields(logrus.Fields{
		"trajectories": set.Len(),
		"components":   reduced.Components(),
		"ratios":       reduced.Ratios(),
		"alpha":        result.OutlierLevel(),
		"outliers":     len(result.outliers),
		"central":      string(f.central),
	}).Debug("hdr: classified trajectories")

	return fr, nil
}

func (f *FunctionalClassifier) log() *logrus.Logger {
	if f.logger != nil {
		return f.logger
	}
	return Logger()
}

// Classifier returns the underlying point classifier. It can be
// reconfigured with new alpha levels between calls to Classify.
func (f *FunctionalClassifier) Classifier() *Classifier { return f.classifier }

// FunctionalResult is the outcome of classifying a TrajectorySet.
type FunctionalResult struct {
	set            *TrajectorySet
	reduced        *ReducedSample
	classification *Result
	envelope       Envelope
	hasEnvelope    bool
	central        []float64
}

// Reduced returns the reduced sample the density was fitted on.
func (r *FunctionalResult) Reduced() *ReducedSample { return r.reduced }

// Classification returns the point classification in the reduced space.
func (r *FunctionalResult) Classification() *Result { return r.classification }

// OutlierLevel returns the alpha used for the inlier/outlier boundary.
func (r *FunctionalResult) OutlierLevel() float64 { return r.classification.OutlierLevel() }

// Inliers returns the inlier trajectories.
func (r *FunctionalResult) Inliers() *TrajectorySet {
	return r.set.Subset(r.classification.inliers)
}

// Outliers returns the outlier trajectories.
func (r *FunctionalResult) Outliers() *TrajectorySet {
	return r.set.Subset(r.classification.outliers)
}

// Envelope returns the pointwise min/max of the inlier trajectories. The
// boolean is false when there are no inliers.
func (r *FunctionalResult) Envelope() (Envelope, bool) {
	if !r.hasEnvelope {
		return Envelope{}, false
	}
	return Envelope{
		Lower: append([]float64(nil), r.envelope.Lower...),
		Upper: append([]float64(nil), r.envelope.Upper...),
	}, true
}

// Central returns the central curve chosen by FunctionalConfig.Central.
func (r *FunctionalResult) Central() []float64 { return append([]float64(nil), r.central...) }

// Grid returns the index grid shared by every curve of the result.
func (r *FunctionalResult) Grid() []float64 { return r.set.Grid() }
