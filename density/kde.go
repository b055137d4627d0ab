package density

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/hdr"
)

// KernelSmoothing fits product-kernel density estimates. Bandwidths follow
// Scott's rule, h_j = σ_j n^(-1/(d+4)).
type KernelSmoothing struct {
	cfg Config
}

// NewKernelSmoothing returns a kernel smoothing fitter. The config is
// validated when a density is built.
func NewKernelSmoothing(cfg Config) *KernelSmoothing {
	return &KernelSmoothing{cfg: cfg}
}

// Fit implements hdr.DensityFitter.
func (ks *KernelSmoothing) Fit(sample [][]float64) (hdr.DensityModel, error) {
	kd, err := ks.Build(sample)
	if err != nil {
		return nil, err
	}
	return kd, nil
}

// Build fits a kernel density to sample. The sample needs at least two
// points and a non-zero spread along every dimension.
func (ks *KernelSmoothing) Build(sample [][]float64) (*KernelDensity, error) {
	cfg := ks.cfg
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	data, n, dims, err := flatten(sample)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: kernel smoothing needs at least 2 points, got %d", ErrDegenerateSample, n)
	}

	bandwidth, err := scottBandwidth(data, n, dims, kernelScale(cfg.Kernel))
	if err != nil {
		return nil, err
	}

	kd := &KernelDensity{
		cfg:       cfg,
		data:      data,
		n:         n,
		dims:      dims,
		bandwidth: bandwidth,
	}

	norm := float64(n)
	for _, h := range bandwidth {
		norm *= h
	}
	switch cfg.Kernel {
	case KernelEpanechnikov:
		kd.norm = 1 / norm
		scaled := make([]float64, len(data))
		for i := 0; i < n; i++ {
			for j := 0; j < dims; j++ {
				scaled[i*dims+j] = data[i*dims+j] / bandwidth[j]
			}
		}
		kd.tree = NewKDTree(scaled, n, dims, ChebyshevMetric{}, cfg.LeafSize)
	default:
		kd.norm = 1 / (norm * math.Pow(2*math.Pi, float64(dims)/2))
	}

	cfg.Logger.WithFields(logrus.Fields{
		"points":    n,
		"dims":      dims,
		"kernel":    string(cfg.Kernel),
		"bandwidth": bandwidth,
	}).Debug("density: fitted kernel smoothing")

	return kd, nil
}

// scottBandwidth returns scale·σ_j·n^(-1/(d+4)) for every dimension j.
func scottBandwidth(data []float64, n, dims int, scale float64) ([]float64, error) {
	factor := scale * math.Pow(float64(n), -1/float64(dims+4))
	bandwidth := make([]float64, dims)
	col := make([]float64, n)
	for j := 0; j < dims; j++ {
		for i := 0; i < n; i++ {
			col[i] = data[i*dims+j]
		}
		sd := stat.StdDev(col, nil)
		if !(sd > 0) || math.IsInf(sd, 0) {
			return nil, fmt.Errorf("%w: dimension %d has standard deviation %g", ErrDegenerateSample, j, sd)
		}
		bandwidth[j] = factor * sd
	}
	return bandwidth, nil
}

// KernelDensity is a fitted kernel density estimate. It implements
// hdr.DensityModel and is safe for concurrent use.
type KernelDensity struct {
	cfg       Config
	data      []float64 // flat row-major sample (n * dims)
	n         int
	dims      int
	bandwidth []float64
	norm      float64
	tree      *KDTree // bandwidth-scaled sample, Epanechnikov only
	levels    sampledLevelSets
}

// Dimension implements hdr.DensityModel.
func (kd *KernelDensity) Dimension() int { return kd.dims }

// Bandwidth returns the per-dimension kernel bandwidths.
func (kd *KernelDensity) Bandwidth() []float64 { return append([]float64(nil), kd.bandwidth...) }

// Kernel returns the smoothing kernel.
func (kd *KernelDensity) Kernel() Kernel { return kd.cfg.Kernel }

// Density implements hdr.DensityModel. A point of the wrong dimension has
// density 0.
func (kd *KernelDensity) Density(point []float64) float64 {
	if len(point) != kd.dims {
		return 0
	}
	if kd.cfg.Kernel == KernelEpanechnikov {
		return kd.epanechnikovDensity(point)
	}
	return kd.gaussianDensity(point)
}

func (kd *KernelDensity) gaussianDensity(point []float64) float64 {
	var sum float64
	for i := 0; i < kd.n; i++ {
		row := kd.data[i*kd.dims : (i+1)*kd.dims]
		var q float64
		for j, x := range point {
			u := (x - row[j]) / kd.bandwidth[j]
			q += u * u
		}
		sum += math.Exp(-0.5 * q)
	}
	return sum * kd.norm
}

func (kd *KernelDensity) epanechnikovDensity(point []float64) float64 {
	query := make([]float64, kd.dims)
	for j, x := range point {
		query[j] = x / kd.bandwidth[j]
	}
	var sum float64
	kd.tree.QueryRadius(query, 1, func(index int) {
		w := 1.0
		for j, u := range kd.tree.Point(index) {
			d := query[j] - u
			w *= 0.75 * (1 - d*d)
		}
		sum += w
	})
	return sum * kd.norm
}

// Sample draws count points from the density with src.
func (kd *KernelDensity) Sample(count int, src rand.Source) [][]float64 {
	flat := kd.draw(count, src)
	out := make([][]float64, count)
	for s := range out {
		out[s] = flat[s*kd.dims : (s+1)*kd.dims : (s+1)*kd.dims]
	}
	return out
}

// draw picks a sample point uniformly and perturbs it by one kernel deviate
// per dimension. The result is flat row-major.
func (kd *KernelDensity) draw(count int, src rand.Source) []float64 {
	rng := rand.New(src)
	deviate := newKernelSampler(kd.cfg.Kernel, src)
	out := make([]float64, count*kd.dims)
	for s := 0; s < count; s++ {
		i := rng.IntN(kd.n)
		for j := 0; j < kd.dims; j++ {
			out[s*kd.dims+j] = kd.data[i*kd.dims+j] + kd.bandwidth[j]*deviate()
		}
	}
	return out
}

// MinimumVolumeLevelSet implements hdr.DensityModel. Thresholds are
// estimated from Config.SamplingSize points drawn with Config.Seed.
func (kd *KernelDensity) MinimumVolumeLevelSet(alpha float64) (hdr.Region, float64, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, 0, err
	}
	threshold := kd.levels.threshold(alpha, func() []float64 {
		points := kd.draw(kd.cfg.SamplingSize, rand.NewPCG(kd.cfg.Seed, kd.cfg.Seed))
		densities := evaluateParallel(points, kd.dims, kd.Density, kd.cfg.Workers)
		kd.cfg.Logger.WithFields(logrus.Fields{
			"samples": kd.cfg.SamplingSize,
			"seed":    kd.cfg.Seed,
		}).Debug("density: sampled level-set thresholds")
		return densities
	})
	return superLevelSet(kd.Density, threshold), threshold, nil
}
