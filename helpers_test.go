package hdr

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// radialModel is a standard normal density in dims dimensions (up to a
// constant). Its minimum-volume level sets are balls whose squared radius is
// the chi-squared quantile, so expected classifications are exact.
type radialModel struct {
	dims      int
	failAlpha float64 // MinimumVolumeLevelSet fails at this alpha when non-zero
	calls     []float64
}

func (m *radialModel) Dimension() int { return m.dims }

func (m *radialModel) Density(point []float64) float64 {
	return math.Exp(-squaredNorm(point) / 2)
}

func (m *radialModel) MinimumVolumeLevelSet(alpha float64) (Region, float64, error) {
	m.calls = append(m.calls, alpha)
	if m.failAlpha != 0 && alpha == m.failAlpha {
		return nil, 0, errLevelSet
	}
	r2 := distuv.ChiSquared{K: float64(m.dims)}.Quantile(alpha)
	region := RegionFunc(func(point []float64) bool { return squaredNorm(point) <= r2 })
	return region, math.Exp(-r2 / 2), nil
}

var errLevelSet = errors.New("level set solver diverged")

func squaredNorm(p []float64) float64 {
	var s float64
	for _, v := range p {
		s += v * v
	}
	return s
}

// normalSample draws n standard normal points of dimension dims.
func normalSample(n, dims int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dims)
		for j := range out[i] {
			out[i][j] = rng.NormFloat64()
		}
	}
	return out
}

// radialFitter fits a radialModel of the sample's dimension.
func radialFitter() DensityFitter {
	return DensityFitterFunc(func(sample [][]float64) (DensityModel, error) {
		return &radialModel{dims: len(sample[0])}, nil
	})
}
