package density

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/hdr"
)

// sampledLevelSets estimates minimum-volume level sets of a density from a
// single draw of points. The minimum-volume set holding mass alpha is
// {x : f(x) >= t} where t is the (1-alpha) quantile of f(X), X ~ f. Every
// alpha reuses the same draw, so thresholds are monotone in alpha.
type sampledLevelSets struct {
	once      sync.Once
	densities []float64 // ascending
}

// threshold returns the density threshold for alpha, drawing the sample on
// first use. draw must return the densities of the sampled points.
func (s *sampledLevelSets) threshold(alpha float64, draw func() []float64) float64 {
	s.once.Do(func() {
		s.densities = draw()
		sort.Float64s(s.densities)
	})
	return stat.Quantile(1-alpha, stat.Empirical, s.densities, nil)
}

// superLevelSet returns the region where density is at least threshold.
func superLevelSet(density func([]float64) float64, threshold float64) hdr.Region {
	return hdr.RegionFunc(func(point []float64) bool {
		return density(point) >= threshold
	})
}
