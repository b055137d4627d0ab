package density

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// kernelSampler draws standardized kernel deviates.
type kernelSampler func() float64

// newKernelSampler returns a sampler for kernel backed by src.
func newKernelSampler(kernel Kernel, src rand.Source) kernelSampler {
	if kernel == KernelEpanechnikov {
		rng := rand.New(src)
		return func() float64 { return epanechnikovRand(rng) }
	}
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	return unit.Rand
}

// epanechnikovRand draws from the density 3/4(1-u²) on [-1, 1]: of three
// uniform deviates, take the second if the third has the largest magnitude,
// the third otherwise.
func epanechnikovRand(rng *rand.Rand) float64 {
	u1 := 2*rng.Float64() - 1
	u2 := 2*rng.Float64() - 1
	u3 := 2*rng.Float64() - 1
	if math.Abs(u3) >= math.Abs(u2) && math.Abs(u3) >= math.Abs(u1) {
		return u2
	}
	return u3
}

// kernelScale converts a Gaussian-equivalent bandwidth into the bandwidth of
// kernel, so that both kernels smooth with the same standard deviation.
func kernelScale(kernel Kernel) float64 {
	if kernel == KernelEpanechnikov {
		return math.Sqrt(5)
	}
	return 1
}
