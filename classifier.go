package hdr

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// LevelSet is a minimum-volume level set solved for one alpha level.
// Threshold is the density value on the region boundary.
type LevelSet struct {
	Alpha     float64
	Threshold float64
	Region    Region
}

// Result is the outcome of one classification run. It is immutable:
// accessors return copies.
type Result struct {
	levelSets []LevelSet // one per configured alpha, descending alpha
	outlier   LevelSet
	inliers   []int
	outliers  []int
	mode      int
	n         int
}

// Len returns the number of classified points.
func (r *Result) Len() int { return r.n }

// Inliers returns the ascending indices of points inside the outlier level set.
func (r *Result) Inliers() []int { return append([]int{}, r.inliers...) }

// Outliers returns the ascending indices of points outside the outlier level set.
func (r *Result) Outliers() []int { return append([]int{}, r.outliers...) }

// Mode returns the index of the point with the highest density. Ties go to
// the first point in sample order.
func (r *Result) Mode() int { return r.mode }

// LevelSets returns the contour ladder, one entry per configured alpha in
// descending alpha order.
func (r *Result) LevelSets() []LevelSet { return append([]LevelSet(nil), r.levelSets...) }

// Thresholds returns the boundary density of each level set, aligned with
// LevelSets.
func (r *Result) Thresholds() []float64 {
	out := make([]float64, len(r.levelSets))
	for i, ls := range r.levelSets {
		out[i] = ls.Threshold
	}
	return out
}

// OutlierLevel returns the alpha used as the inlier/outlier boundary.
func (r *Result) OutlierLevel() float64 { return r.outlier.Alpha }

// OutlierThreshold returns the boundary density of the outlier level set.
func (r *Result) OutlierThreshold() float64 { return r.outlier.Threshold }

// OutlierRegion returns the region used for the inlier/outlier decision.
func (r *Result) OutlierRegion() Region { return r.outlier.Region }

// Classifier partitions a sample into inliers and outliers with the High
// Density Region criterion. A point is an outlier when it falls outside the
// minimum-volume level set of the density at the outlier level, which is the
// largest configured alpha.
//
// The zero value is unconfigured. A Classifier is not safe for concurrent
// use; run independent instances in parallel instead.
type Classifier struct {
	levels []float64 // descending
	last   *Result
	logger *logrus.Logger
}

// NewClassifier returns a Classifier configured with the given alpha levels.
func NewClassifier(levels ...float64) (*Classifier, error) {
	c := &Classifier{}
	if err := c.Configure(levels); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure validates and stores the alpha levels. Every level must lie in
// (0, 1). On error the previous configuration is kept. Reconfiguring does not
// require refitting the density; the next Run uses the new levels.
func (c *Classifier) Configure(levels []float64) error {
	sorted, err := validateLevels(levels)
	if err != nil {
		return err
	}
	c.levels = sorted
	return nil
}

// validateLevels returns a descending copy of levels.
func validateLevels(levels []float64) ([]float64, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no alpha levels", ErrEmptyInput)
	}
	for _, a := range levels {
		if !(a > 0 && a < 1) {
			return nil, fmt.Errorf("%w, got %g", ErrInvalidAlpha, a)
		}
	}
	sorted := append([]float64(nil), levels...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted, nil
}

// Levels returns the configured alpha levels in descending order, or nil if
// the classifier is unconfigured.
func (c *Classifier) Levels() []float64 { return append([]float64(nil), c.levels...) }

// OutlierLevel returns the largest configured alpha, or 0 if unconfigured.
func (c *Classifier) OutlierLevel() float64 {
	if len(c.levels) == 0 {
		return 0
	}
	return c.levels[0]
}

// Run classifies sample against model. The regions of the returned Result
// may reference model. Every run starts from scratch; on error no result is
// produced and the previous result is kept.
func (c *Classifier) Run(sample [][]float64, model DensityModel) (*Result, error) {
	if len(c.levels) == 0 {
		return nil, ErrNotConfigured
	}
	if model == nil {
		return nil, fmt.Errorf("%w: nil DensityModel", ErrInvalidConfig)
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("%w: sample has no points", ErrEmptyInput)
	}
	dims := model.Dimension()
	for i, p := range sample {
		if len(p) != dims {
			return nil, fmt.Errorf("%w: point %d has dimension %d but the density has dimension %d",
				ErrDimensionMismatch, i, len(p), dims)
		}
	}

	ladder := make([]LevelSet, len(c.levels))
	for i, alpha := range c.levels {
		region, threshold, err := model.MinimumVolumeLevelSet(alpha)
		if err != nil {
			return nil, collaboratorError(fmt.Sprintf("minimum volume level set at alpha=%g", alpha), err)
		}
		ladder[i] = LevelSet{Alpha: alpha, Threshold: threshold, Region: region}
	}

	outlierAlpha := c.levels[0]
	region, threshold, err := model.MinimumVolumeLevelSet(outlierAlpha)
	if err != nil {
		return nil, collaboratorError(fmt.Sprintf("outlier level set at alpha=%g", outlierAlpha), err)
	}

	r := &Result{
		levelSets: ladder,
		outlier:   LevelSet{Alpha: outlierAlpha, Threshold: threshold, Region: region},
		inliers:   []int{},
		outliers:  []int{},
		mode:      modeIndex(sample, model),
		n:         len(sample),
	}
	for i, p := range sample {
		if region.Contains(p) {
			r.inliers = append(r.inliers, i)
		} else {
			r.outliers = append(r.outliers, i)
		}
	}

	c.log().WithFields(logrus.Fields{
		"points":    r.n,
		"alpha":     outlierAlpha,
		"threshold": threshold,
		"outliers":  len(r.outliers),
		"mode":      r.mode,
	}).Debug("hdr: classified sample")

	c.last = r
	return r, nil
}

func (c *Classifier) log() *logrus.Logger {
	if c.logger != nil {
		return c.logger
	}
	return Logger()
}

// modeIndex returns the index of the highest density point, keeping the
// first one on ties.
func modeIndex(sample [][]float64, model DensityModel) int {
	best := 0
	bestDensity := math.Inf(-1)
	for i, p := range sample {
		if d := model.Density(p); d > bestDensity {
			best, bestDensity = i, d
		}
	}
	return best
}

// LastResult returns the result of the most recent successful Run.
func (c *Classifier) LastResult() (*Result, error) {
	if c.last == nil {
		return nil, ErrNotRun
	}
	return c.last, nil
}

// InlierIndices returns the inliers of the most recent successful Run.
func (c *Classifier) InlierIndices() ([]int, error) {
	r, err := c.LastResult()
	if err != nil {
		return nil, err
	}
	return r.Inliers(), nil
}

// OutlierIndices returns the outliers of the most recent successful Run.
func (c *Classifier) OutlierIndices() ([]int, error) {
	r, err := c.LastResult()
	if err != nil {
		return nil, err
	}
	return r.Outliers(), nil
}

// ModalIndex returns the mode of the most recent successful Run.
func (c *Classifier) ModalIndex() (int, error) {
	r, err := c.LastResult()
	if err != nil {
		return -1, err
	}
	return r.Mode(), nil
}

// Thresholds returns the level-set thresholds of the most recent successful Run.
func (c *Classifier) Thresholds() ([]float64, error) {
	r, err := c.LastResult()
	if err != nil {
		return nil, err
	}
	return r.Thresholds(), nil
}
