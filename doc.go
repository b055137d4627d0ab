// Package hdr classifies observations as typical (inliers) or atypical
// (outliers) with the High Density Region criterion. A point is an outlier
// when it falls outside the minimum-volume region of a fitted density that
// holds probability mass alpha.
//
// Point samples are classified directly:
//
//	model, err := density.NewKernelSmoothing(density.DefaultConfig()).Fit(sample)
//	c, err := hdr.NewClassifier(0.9, 0.5, 0.1)
//	result, err := c.Run(sample, model)
//	// result.Outliers() are the points outside the 90% level set
//	// result.Mode() is the most typical point
//
// Curves sampled on a shared grid are first reduced to a few spectral
// (Karhunen–Loève) components, where a density can be fitted:
//
//	set, err := hdr.NewTrajectorySet(grid, curves)
//	fc, err := hdr.NewFunctionalClassifier(density.NewKernelSmoothing(density.DefaultConfig()), hdr.DefaultFunctionalConfig())
//	fr, err := fc.Classify(set)
//	// fr.Outliers() are the atypical curves
//	// fr.Envelope() bounds the inliers, fr.Central() is the central curve
//
// Density estimation and level-set solving are delegated to a DensityFitter.
// Package density provides kernel smoothing and Gaussian implementations.
package hdr
