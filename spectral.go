package hdr

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ReducerConfig selects how many spectral components are kept.
// Exactly one of Components and VarianceThreshold must be set.
type ReducerConfig struct {
	// Components keeps a fixed number k of leading components.
	// Must satisfy 1 <= k < min(n, m) for n trajectories of m grid points.
	Components int

	// VarianceThreshold keeps the smallest k whose cumulative explained
	// variance ratio exceeds 1 - VarianceThreshold. Must be in (0, 1).
	VarianceThreshold float64
}

// DefaultReducerConfig keeps two components, the usual choice for a
// bivariate density fit in the reduced space.
func DefaultReducerConfig() ReducerConfig {
	return ReducerConfig{Components: 2}
}

func validateReducerConfig(cfg ReducerConfig) error {
	if cfg.Components < 0 {
		return fmt.Errorf("%w: Components must be >= 0, got %d", ErrInvalidConfig, cfg.Components)
	}
	if cfg.VarianceThreshold < 0 || cfg.VarianceThreshold >= 1 || math.IsNaN(cfg.VarianceThreshold) {
		return fmt.Errorf("%w: VarianceThreshold must be in (0, 1), got %g", ErrInvalidConfig, cfg.VarianceThreshold)
	}
	if cfg.Components > 0 && cfg.VarianceThreshold > 0 {
		return fmt.Errorf("%w: set either Components or VarianceThreshold, not both", ErrInvalidConfig)
	}
	if cfg.Components == 0 && cfg.VarianceThreshold == 0 {
		return fmt.Errorf("%w: one of Components or VarianceThreshold must be set", ErrInvalidConfig)
	}
	return nil
}

// ReducedSample is the projection of a TrajectorySet onto its leading
// spectral components. It is immutable; accessors return copies.
type ReducedSample struct {
	mean     []float64  // column mean trajectory, length m
	basis    *mat.Dense // m×k, columns are the retained right singular vectors
	features *mat.Dense // n×k
	singular []float64  // all min(n, m) singular values, descending
	ratios   []float64  // explained variance ratios, length k
	variance []float64  // explained variances, length k
}

// Len returns the number of reduced points (one per trajectory).
func (r *ReducedSample) Len() int {
	n, _ := r.features.Dims()
	return n
}

// Components returns the reduced dimension k.
func (r *ReducedSample) Components() int { return len(r.ratios) }

// Features returns the n×k reduced coordinates, one row per trajectory.
// The result is a valid Sample for a DensityFitter.
func (r *ReducedSample) Features() [][]float64 {
	n, k := r.features.Dims()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, k)
		mat.Row(out[i], i, r.features)
	}
	return out
}

// Ratios returns the explained variance ratio of each retained component.
// Entries lie in [0, 1], are non-increasing and sum to at most 1.
func (r *ReducedSample) Ratios() []float64 { return append([]float64(nil), r.ratios...) }

// ExplainedVariance returns s_i²/(n-1) for each retained component.
func (r *ReducedSample) ExplainedVariance() []float64 {
	return append([]float64(nil), r.variance...)
}

// SingularValues returns every singular value of the centered data, not
// only the retained ones.
func (r *ReducedSample) SingularValues() []float64 {
	return append([]float64(nil), r.singular...)
}

// Mean returns the column mean trajectory subtracted before decomposition.
func (r *ReducedSample) Mean() []float64 { return append([]float64(nil), r.mean...) }

// Basis returns the k retained directions, one row of length m per component.
func (r *ReducedSample) Basis() [][]float64 {
	m, k := r.basis.Dims()
	out := make([][]float64, k)
	for c := range out {
		out[c] = make([]float64, m)
		mat.Col(out[c], c, r.basis)
	}
	return out
}

// Project maps a trajectory sampled on the same grid into the reduced space.
func (r *ReducedSample) Project(trajectory []float64) ([]float64, error) {
	m, k := r.basis.Dims()
	if len(trajectory) != m {
		return nil, fmt.Errorf("%w: trajectory has %d values, want %d", ErrDimensionMismatch, len(trajectory), m)
	}
	centered := make([]float64, m)
	floats.SubTo(centered, trajectory, r.mean)
	var coords mat.VecDense
	coords.MulVec(r.basis.T(), mat.NewVecDense(m, centered))
	out := make([]float64, k)
	for c := range out {
		out[c] = coords.AtVec(c)
	}
	return out, nil
}

// Reconstruct rebuilds trajectory i from its reduced coordinates. With k
// equal to the full rank the result matches the original trajectory up to
// rounding.
func (r *ReducedSample) Reconstruct(i int) []float64 {
	m, _ := r.basis.Dims()
	var approx mat.VecDense
	approx.MulVec(r.basis, r.features.RowView(i))
	out := make([]float64, m)
	for j := range out {
		out[j] = r.mean[j] + approx.AtVec(j)
	}
	return out
}

// Reduce projects every trajectory of set onto its leading spectral
// (Karhunen–Loève) components. Trajectories are centered on the mean curve,
// the n×m matrix is decomposed by SVD and the first k right singular vectors
// form the basis. Component i explains s_i²/(n-1) of the variance.
func Reduce(set *TrajectorySet, cfg ReducerConfig) (*ReducedSample, error) {
	return reduce(set, cfg, Logger())
}

func reduce(set *TrajectorySet, cfg ReducerConfig, log *logrus.Logger) (*ReducedSample, error) {
	if err := validateReducerConfig(cfg); err != nil {
		return nil, err
	}
	if set == nil || set.Len() == 0 {
		return nil, fmt.Errorf("%w: trajectory set has no trajectories", ErrEmptyInput)
	}
	n, m := set.Len(), set.GridLen()
	if n < 2 {
		return nil, ErrTooFewTrajectories
	}
	maxK := min(n, m) - 1
	if cfg.Components > 0 && cfg.Components > maxK {
		return nil, fmt.Errorf("%w: Components must be < min(n, m) = %d, got %d", ErrDimensionMismatch, maxK+1, cfg.Components)
	}
	if maxK < 1 {
		return nil, fmt.Errorf("%w: need at least 2 grid points to reduce, got %d", ErrDimensionMismatch, m)
	}

	x := mat.NewDense(n, m, nil)
	for i, row := range set.values {
		x.SetRow(i, row)
	}
	mean := make([]float64, m)
	col := make([]float64, n)
	for j := range mean {
		mat.Col(col, j, x)
		mean[j] = stat.Mean(col, nil)
	}
	for i := 0; i < n; i++ {
		floats.Sub(x.RawRowView(i), mean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, ErrDecomposition
	}
	singular := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	denom := float64(n - 1)
	variance := make([]float64, len(singular))
	for i, s := range singular {
		variance[i] = s * s / denom
	}
	total := floats.Sum(variance)
	ratios := make([]float64, len(variance))
	if total > 0 {
		for i := range variance {
			ratios[i] = variance[i] / total
		}
	}

	k := cfg.Components
	if k == 0 {
		k = varianceComponents(ratios, cfg.VarianceThreshold, maxK)
	}

	basis := mat.NewDense(m, k, nil)
	basis.Copy(v.Slice(0, m, 0, k))
	orientBasis(basis)

	features := mat.NewDense(n, k, nil)
	features.Mul(x, basis)

	r := &ReducedSample{
		mean:     mean,
		basis:    basis,
		features: features,
		singular: singular,
		ratios:   append([]float64(nil), ratios[:k]...),
		variance: append([]float64(nil), variance[:k]...),
	}

	log.WithFields(logrus.Fields{
		"trajectories": n,
		"grid":         m,
		"components":   k,
		"retained":     floats.Sum(r.ratios),
	}).Debug("hdr: reduced trajectories")

	return r, nil
}

// varianceComponents returns the smallest k whose cumulative ratio exceeds
// 1 - threshold, capped at maxK.
func varianceComponents(ratios []float64, threshold float64, maxK int) int {
	var cumulative float64
	for i := 0; i < maxK; i++ {
		cumulative += ratios[i]
		if cumulative > 1-threshold {
			return i + 1
		}
	}
	return maxK
}

// orientBasis flips each column so that its largest-magnitude entry is
// positive. Singular vectors are only defined up to sign.
func orientBasis(basis *mat.Dense) {
	m, k := basis.Dims()
	col := make([]float64, m)
	for c := 0; c < k; c++ {
		mat.Col(col, c, basis)
		best := 0
		for j := range col {
			if math.Abs(col[j]) > math.Abs(col[best]) {
				best = j
			}
		}
		if col[best] < 0 {
			floats.Scale(-1, col)
			basis.SetCol(c, col)
		}
	}
}
