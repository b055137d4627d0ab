package hdr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// TrajectorySet is a batch of n scalar curves sampled on one shared index
// grid of length m. It is immutable once built: constructors copy their
// input and accessors return copies.
type TrajectorySet struct {
	grid   []float64
	values [][]float64 // n rows of length m
}

// NewTrajectorySet builds a set from values[i][j], the value of trajectory i
// at grid point j. A nil grid defaults to a regular grid over [0, 1] with one
// node per column.
func NewTrajectorySet(grid []float64, values [][]float64) (*TrajectorySet, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: trajectory set has no trajectories", ErrEmptyInput)
	}
	m := len(values[0])
	if m == 0 {
		return nil, fmt.Errorf("%w: trajectories have no grid points", ErrEmptyInput)
	}
	if grid == nil {
		grid = regularGrid(m)
	}
	if len(grid) != m {
		return nil, fmt.Errorf("%w: grid has %d points but trajectories have %d", ErrDimensionMismatch, len(grid), m)
	}
	if j := firstNonFinite(grid); j >= 0 {
		return nil, fmt.Errorf("%w: grid point %d is %g", ErrNonFinite, j, grid[j])
	}

	s := &TrajectorySet{
		grid:   append([]float64(nil), grid...),
		values: make([][]float64, len(values)),
	}
	for i, row := range values {
		if len(row) != m {
			return nil, fmt.Errorf("%w: trajectory %d has %d values, want %d", ErrDimensionMismatch, i, len(row), m)
		}
		if j := firstNonFinite(row); j >= 0 {
			return nil, fmt.Errorf("%w: trajectory %d is %g at grid point %d", ErrNonFinite, i, row[j], j)
		}
		s.values[i] = append([]float64(nil), row...)
	}
	return s, nil
}

// firstNonFinite returns the index of the first NaN or infinite value, or -1.
func firstNonFinite(v []float64) int {
	for j, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return j
		}
	}
	return -1
}

// NewTrajectorySetFromFields builds a set from fields[i][j], the value vector
// of trajectory i at grid point j. Only fields with one component per grid
// point are supported; anything else fails with ErrUnsupportedShape.
func NewTrajectorySetFromFields(grid []float64, fields [][][]float64) (*TrajectorySet, error) {
	values := make([][]float64, len(fields))
	for i, field := range fields {
		values[i] = make([]float64, len(field))
		for j, v := range field {
			if len(v) != 1 {
				return nil, fmt.Errorf("%w: trajectory %d has %d components at grid point %d", ErrUnsupportedShape, i, len(v), j)
			}
			values[i][j] = v[0]
		}
	}
	return NewTrajectorySet(grid, values)
}

// regularGrid returns m evenly spaced nodes over [0, 1].
func regularGrid(m int) []float64 {
	grid := make([]float64, m)
	if m == 1 {
		return grid
	}
	step := 1.0 / float64(m-1)
	for j := range grid {
		grid[j] = float64(j) * step
	}
	grid[m-1] = 1.0
	return grid
}

// Len returns the number of trajectories.
func (s *TrajectorySet) Len() int { return len(s.values) }

// GridLen returns the number of grid points per trajectory.
func (s *TrajectorySet) GridLen() int { return len(s.grid) }

// Grid returns a copy of the shared index grid.
func (s *TrajectorySet) Grid() []float64 { return append([]float64(nil), s.grid...) }

// Trajectory returns a copy of trajectory i.
func (s *TrajectorySet) Trajectory(i int) []float64 {
	return append([]float64(nil), s.values[i]...)
}

// Values returns a copy of all trajectories, one row per trajectory.
func (s *TrajectorySet) Values() [][]float64 {
	out := make([][]float64, len(s.values))
	for i, row := range s.values {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Subset returns the trajectories at the given indices, in the given order,
// on the same grid. An empty index list yields an empty set.
func (s *TrajectorySet) Subset(indices []int) *TrajectorySet {
	sub := &TrajectorySet{
		grid:   s.grid,
		values: make([][]float64, len(indices)),
	}
	for k, i := range indices {
		sub.values[k] = s.values[i]
	}
	return sub
}

// Mean returns the pointwise arithmetic mean of all trajectories. It returns
// nil for an empty set.
func (s *TrajectorySet) Mean() []float64 {
	if len(s.values) == 0 {
		return nil
	}
	mean := make([]float64, len(s.grid))
	for _, row := range s.values {
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(len(s.values)), mean)
	return mean
}

// Envelope holds the pointwise minimum and maximum of a group of trajectories.
type Envelope struct {
	Lower []float64
	Upper []float64
}

// Envelope returns the pointwise min/max over all trajectories of the set.
// The boolean is false for an empty set.
func (s *TrajectorySet) Envelope() (Envelope, bool) {
	if len(s.values) == 0 {
		return Envelope{}, false
	}
	m := len(s.grid)
	env := Envelope{Lower: make([]float64, m), Upper: make([]float64, m)}
	for j := 0; j < m; j++ {
		env.Lower[j] = math.Inf(1)
		env.Upper[j] = math.Inf(-1)
	}
	for _, row := range s.values {
		for j, v := range row {
			env.Lower[j] = math.Min(env.Lower[j], v)
			env.Upper[j] = math.Max(env.Upper[j], v)
		}
	}
	return env, true
}
