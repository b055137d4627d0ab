// Package density provides density collaborators for package hdr: a kernel
// smoothing estimator and a multivariate normal fit. Both solve
// minimum-volume level sets, the kernel estimator by sampling and the normal
// fit in closed form.
//
// Every source of randomness is explicit. The level-set sampling size and
// seed live in Config, so identical inputs always give identical thresholds:
//
//	cfg := density.DefaultConfig()
//	cfg.SamplingSize = 2000
//	model, err := density.NewKernelSmoothing(cfg).Build(sample)
//	region, threshold, err := model.MinimumVolumeLevelSet(0.9)
package density
