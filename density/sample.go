package density

import (
	"errors"
	"fmt"
	"math"

	"github.com/TrevorS/hdr"
)

// ErrDegenerateSample is returned when a sample has no spread in some
// direction, so no bandwidth or covariance can be estimated.
var ErrDegenerateSample = errors.New("density: degenerate sample")

// ErrNonFinite is returned when a sample holds NaN or infinite values.
var ErrNonFinite = errors.New("density: sample values must be finite")

// flatten checks that sample is non-empty, rectangular and finite and returns
// it as flat row-major data.
func flatten(sample [][]float64) (data []float64, n, dims int, err error) {
	n = len(sample)
	if n == 0 {
		return nil, 0, 0, fmt.Errorf("%w: sample has no points", hdr.ErrEmptyInput)
	}
	dims = len(sample[0])
	if dims == 0 {
		return nil, 0, 0, fmt.Errorf("%w: sample points have dimension 0", hdr.ErrEmptyInput)
	}
	data = make([]float64, n*dims)
	for i, row := range sample {
		if len(row) != dims {
			return nil, 0, 0, fmt.Errorf("%w: point %d has dimension %d, want %d", hdr.ErrDimensionMismatch, i, len(row), dims)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, 0, 0, fmt.Errorf("%w: point %d, component %d is %g", ErrNonFinite, i, j, v)
			}
		}
		copy(data[i*dims:], row)
	}
	return data, n, dims, nil
}

// checkAlpha validates a level-set probability.
func checkAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("%w, got %g", hdr.ErrInvalidAlpha, alpha)
	}
	return nil
}
