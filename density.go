package hdr

// Region is a subset of the observation space, typically a minimum-volume
// level set returned by a DensityModel.
type Region interface {
	Contains(point []float64) bool
}

// RegionFunc adapts a plain membership function into a Region.
type RegionFunc func(point []float64) bool

func (f RegionFunc) Contains(point []float64) bool { return f(point) }

// DensityModel is a fitted probability density over a vector space.
// The classifier only queries a model during a Run, but the regions kept in
// the Result may still reference it.
type DensityModel interface {
	// Dimension returns the dimensionality of the space the density lives in.
	Dimension() int

	// Density evaluates the (non-negative) density at point.
	Density(point []float64) float64

	// MinimumVolumeLevelSet returns the smallest-volume region holding
	// probability mass alpha, together with the density value on its
	// boundary. Regions must be monotone in alpha: a larger alpha yields a
	// superset-or-equal region and a lower-or-equal threshold.
	MinimumVolumeLevelSet(alpha float64) (Region, float64, error)
}

// DensityFitter builds a DensityModel from a sample. The sample is n rows of
// equal dimension with finite values.
type DensityFitter interface {
	Fit(sample [][]float64) (DensityModel, error)
}

// DensityFitterFunc adapts a plain function into a DensityFitter.
type DensityFitterFunc func(sample [][]float64) (DensityModel, error)

func (f DensityFitterFunc) Fit(sample [][]float64) (DensityModel, error) { return f(sample) }
