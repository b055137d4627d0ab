package density

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/TrevorS/hdr"
)

// Kernel selects the smoothing kernel of a KernelSmoothing estimator.
type Kernel string

const (
	// KernelGaussian uses the standard normal kernel. Densities are exact
	// sums over every sample point.
	KernelGaussian Kernel = "gaussian"

	// KernelEpanechnikov uses the compact-support kernel 3/4(1-u²).
	// Densities only visit the sample points inside the kernel support,
	// found with a KD-tree.
	KernelEpanechnikov Kernel = "epanechnikov"
)

// Config controls density fitting and level-set solving.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Kernel is the smoothing kernel used by KernelSmoothing. Ignored by
	// Normal. Default: KernelGaussian.
	Kernel Kernel

	// SamplingSize is the number of points drawn from a fitted kernel density
	// to estimate its level-set thresholds. Larger values give more stable
	// thresholds at a linear cost. Must be >= 1. Default: 500.
	SamplingSize int

	// Seed seeds the level-set sampling draw. Default: 0.
	Seed uint64

	// LeafSize controls the maximum number of points in a KD-tree leaf node.
	// Only used with KernelEpanechnikov. Default: 40.
	LeafSize int

	// Workers controls the number of goroutines evaluating densities over
	// the sampling draw. 0 means use runtime.NumCPU(). Results do not depend
	// on the number of workers. Default: 0 (auto).
	Workers int

	// Logger overrides the hdr package logger. Default: nil.
	Logger *logrus.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Kernel:       KernelGaussian,
		SamplingSize: 500,
		LeafSize:     40,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Kernel == "" {
		cfg.Kernel = KernelGaussian
	}
	if cfg.SamplingSize == 0 {
		cfg.SamplingSize = 500
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 40
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = hdr.Logger()
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.Kernel != KernelGaussian && cfg.Kernel != KernelEpanechnikov {
		return fmt.Errorf("density: invalid Kernel %q", cfg.Kernel)
	}
	if cfg.SamplingSize < 1 {
		return fmt.Errorf("density: SamplingSize must be >= 1, got %d", cfg.SamplingSize)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("density: LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("density: Workers must be >= 0, got %d", cfg.Workers)
	}
	return nil
}
