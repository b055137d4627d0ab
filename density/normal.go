package density

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/TrevorS/hdr"
)

// Normal fits a multivariate normal distribution by sample mean and
// covariance. Its level sets are ellipsoids solved in closed form, so
// Config.Kernel, Config.SamplingSize and Config.Seed are not used.
type Normal struct {
	cfg Config
}

// NewNormal returns a multivariate normal fitter.
func NewNormal(cfg Config) *Normal {
	return &Normal{cfg: cfg}
}

// Fit implements hdr.DensityFitter.
func (nf *Normal) Fit(sample [][]float64) (hdr.DensityModel, error) {
	nd, err := nf.Build(sample)
	if err != nil {
		return nil, err
	}
	return nd, nil
}

// Build fits a normal distribution to sample. The sample covariance must be
// positive definite.
func (nf *Normal) Build(sample [][]float64) (*NormalDensity, error) {
	cfg := nf.cfg
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	data, n, dims, err := flatten(sample)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: covariance needs at least 2 points, got %d", ErrDegenerateSample, n)
	}

	x := mat.NewDense(n, dims, data)
	mean := make([]float64, dims)
	col := make([]float64, n)
	for j := range mean {
		mat.Col(col, j, x)
		mean[j] = stat.Mean(col, nil)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	dist, ok := distmv.NewNormal(mean, &cov, nil)
	if !ok {
		return nil, fmt.Errorf("%w: sample covariance is not positive definite", ErrDegenerateSample)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"points": n,
		"dims":   dims,
		"mean":   mean,
	}).Debug("density: fitted normal")

	return &NormalDensity{
		dist:    dist,
		dims:    dims,
		logPeak: dist.LogProb(mean),
	}, nil
}

// NormalDensity is a fitted multivariate normal distribution. It implements
// hdr.DensityModel.
type NormalDensity struct {
	dist    *distmv.Normal
	dims    int
	logPeak float64 // log density at the mean
}

// Dimension implements hdr.DensityModel.
func (nd *NormalDensity) Dimension() int { return nd.dims }

// Mean returns the fitted mean.
func (nd *NormalDensity) Mean() []float64 { return nd.dist.Mean(nil) }

// Covariance returns the fitted covariance matrix.
func (nd *NormalDensity) Covariance() *mat.SymDense {
	var cov mat.SymDense
	nd.dist.CovarianceMatrix(&cov)
	return &cov
}

// Density implements hdr.DensityModel. A point of the wrong dimension has
// density 0.
func (nd *NormalDensity) Density(point []float64) float64 {
	if len(point) != nd.dims {
		return 0
	}
	return math.Exp(nd.dist.LogProb(point))
}

// Sample draws count points from the fitted distribution with src.
func (nd *NormalDensity) Sample(count int, src rand.Source) [][]float64 {
	dist, _ := distmv.NewNormal(nd.dist.Mean(nil), nd.Covariance(), src)
	out := make([][]float64, count)
	for i := range out {
		out[i] = dist.Rand(nil)
	}
	return out
}

// MinimumVolumeLevelSet implements hdr.DensityModel. The set holding mass
// alpha is the ellipsoid whose squared Mahalanobis radius is the alpha
// quantile of a chi-squared distribution with d degrees of freedom.
func (nd *NormalDensity) MinimumVolumeLevelSet(alpha float64) (hdr.Region, float64, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, 0, err
	}
	radius2 := distuv.ChiSquared{K: float64(nd.dims)}.Quantile(alpha)
	logThreshold := nd.logPeak - radius2/2
	region := hdr.RegionFunc(func(point []float64) bool {
		return len(point) == nd.dims && nd.dist.LogProb(point) >= logThreshold
	})
	return region, math.Exp(logThreshold), nil
}
