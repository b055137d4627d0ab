package density

import "math"

// DistanceMetric measures the distance between two points and bounds the
// distance from a point to an axis-aligned box, which is what a KD-tree needs
// to prune nodes.
type DistanceMetric interface {
	Distance(a, b []float64) float64
	BoxDistance(point, lo, hi []float64) float64
}

// ChebyshevMetric computes the Chebyshev (L-infinity) distance. Its unit
// ball is the support of a product kernel in bandwidth-scaled coordinates.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 {
	var maxVal float64
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func (ChebyshevMetric) BoxDistance(point, lo, hi []float64) float64 {
	var maxVal float64
	for j := range point {
		if d := boxGap(point[j], lo[j], hi[j]); d > maxVal {
			maxVal = d
		}
	}
	return maxVal
}

// boxGap returns how far v lies outside [lo, hi], or 0 if inside.
func boxGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
