package hdr

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkPartition asserts that inliers and outliers are disjoint, ascending
// and cover exactly 0..n-1.
func checkPartition(t *testing.T, r *Result, n int) {
	t.Helper()
	seen := make([]int, n)
	for _, list := range [][]int{r.Inliers(), r.Outliers()} {
		for k, i := range list {
			require.True(t, i >= 0 && i < n, "index %d out of range", i)
			if k > 0 {
				assert.Less(t, list[k-1], i, "indices must be ascending")
			}
			seen[i]++
		}
	}
	for i, c := range seen {
		assert.Equal(t, 1, c, "index %d appears %d times", i, c)
	}
}

func TestConfigure_Validation(t *testing.T) {
	tests := []struct {
		name   string
		levels []float64
		want   error
	}{
		{"empty", nil, ErrEmptyInput},
		{"empty slice", []float64{}, ErrEmptyInput},
		{"zero", []float64{0.5, 0}, ErrInvalidAlpha},
		{"one", []float64{1, 0.5}, ErrInvalidAlpha},
		{"negative", []float64{-0.1}, ErrInvalidAlpha},
		{"above one", []float64{1.5}, ErrInvalidAlpha},
		{"nan", []float64{math.NaN()}, ErrInvalidAlpha},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassifier(tt.levels...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfigure_SortsDescending(t *testing.T) {
	c, err := NewClassifier(0.1, 0.9, 0.5)
	require.NoError(t, err)

	if diff := cmp.Diff([]float64{0.9, 0.5, 0.1}, c.Levels()); diff != "" {
		t.Errorf("Levels() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.9, c.OutlierLevel())
}

func TestConfigure_FailureKeepsPreviousLevels(t *testing.T) {
	c, err := NewClassifier(0.8, 0.5)
	require.NoError(t, err)

	require.ErrorIs(t, c.Configure([]float64{0.3, 1}), ErrInvalidAlpha)
	assert.Equal(t, []float64{0.8, 0.5}, c.Levels())
}

func TestConfigure_DoesNotAliasInput(t *testing.T) {
	levels := []float64{0.2, 0.7}
	c, err := NewClassifier(levels...)
	require.NoError(t, err)

	levels[0] = 0.99
	assert.Equal(t, []float64{0.7, 0.2}, c.Levels())
}

func TestRun_NotConfigured(t *testing.T) {
	var c Classifier
	_, err := c.Run([][]float64{{0}}, &radialModel{dims: 1})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0.0, c.OutlierLevel())
}

func TestReaders_BeforeRun(t *testing.T) {
	c, err := NewClassifier(0.9)
	require.NoError(t, err)

	_, err = c.InlierIndices()
	assert.ErrorIs(t, err, ErrNotRun)
	_, err = c.OutlierIndices()
	assert.ErrorIs(t, err, ErrNotRun)
	_, err = c.ModalIndex()
	assert.ErrorIs(t, err, ErrNotRun)
	_, err = c.Thresholds()
	assert.ErrorIs(t, err, ErrNotRun)
	_, err = c.LastResult()
	assert.ErrorIs(t, err, ErrNotRun)
}

func TestRun_NilModel(t *testing.T) {
	c, err := NewClassifier(0.9)
	require.NoError(t, err)

	r, err := c.Run([][]float64{{0, 0}}, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, r)

	_, err = c.LastResult()
	assert.ErrorIs(t, err, ErrNotRun)
}

func TestRun_EmptySample(t *testing.T) {
	c, err := NewClassifier(0.9)
	require.NoError(t, err)

	_, err = c.Run(nil, &radialModel{dims: 2})
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestRun_DimensionMismatch(t *testing.T) {
	c, err := NewClassifier(0.9)
	require.NoError(t, err)

	sample := [][]float64{{0, 0}, {1, 1, 1}}
	_, err = c.Run(sample, &radialModel{dims: 2})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = c.Run([][]float64{{0, 0}}, &radialModel{dims: 3})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRun_KnownClassification(t *testing.T) {
	// 2D chi-squared quantile at 0.9 is 4.605, so the inlier ball has radius ~2.146.
	sample := [][]float64{
		{0, 0},     // inside, mode
		{1, 1},     // r² = 2, inside
		{3, 0},     // r² = 9, outside
		{-2, -0.5}, // r² = 4.25, inside
		{0, -2.2},  // r² = 4.84, outside
	}
	c, err := NewClassifier(0.5, 0.9)
	require.NoError(t, err)

	r, err := c.Run(sample, &radialModel{dims: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 3}, r.Inliers())
	assert.Equal(t, []int{2, 4}, r.Outliers())
	assert.Equal(t, 0, r.Mode())
	assert.Equal(t, 0.9, r.OutlierLevel())
	assert.InDelta(t, math.Exp(-4.605170185988091/2), r.OutlierThreshold(), 1e-9)
	assert.Equal(t, 5, r.Len())
	checkPartition(t, r, len(sample))

	ladder := r.LevelSets()
	require.Len(t, ladder, 2)
	assert.Equal(t, 0.9, ladder[0].Alpha)
	assert.Equal(t, 0.5, ladder[1].Alpha)
	assert.True(t, ladder[1].Region.Contains([]float64{1, 0}))
	assert.False(t, ladder[1].Region.Contains([]float64{1, 1}))
}

func TestRun_RequestsLadderThenOutlierLevel(t *testing.T) {
	m := &radialModel{dims: 1}
	c, err := NewClassifier(0.1, 0.5, 0.9)
	require.NoError(t, err)

	_, err = c.Run([][]float64{{0}, {1}}, m)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.5, 0.1, 0.9}, m.calls)
}

func TestRun_ThresholdsMonotone(t *testing.T) {
	c, err := NewClassifier(0.2, 0.95, 0.5, 0.7)
	require.NoError(t, err)

	r, err := c.Run(normalSample(50, 3, 1), &radialModel{dims: 3})
	require.NoError(t, err)

	th := r.Thresholds()
	require.Len(t, th, 4)
	for i := 1; i < len(th); i++ {
		// Descending alpha means ascending threshold.
		assert.LessOrEqual(t, th[i-1], th[i])
	}
}

func TestRun_PartitionProperty(t *testing.T) {
	for _, dims := range []int{1, 2, 5} {
		sample := normalSample(300, dims, uint64(dims))
		c, err := NewClassifier(0.9, 0.5)
		require.NoError(t, err)

		r, err := c.Run(sample, &radialModel{dims: dims})
		require.NoError(t, err)
		checkPartition(t, r, len(sample))
	}
}

func TestRun_Monotonicity(t *testing.T) {
	sample := normalSample(500, 2, 7)
	model := &radialModel{dims: 2}

	var prev []int
	for _, alpha := range []float64{0.3, 0.5, 0.8, 0.95, 0.99} {
		c, err := NewClassifier(alpha)
		require.NoError(t, err)
		r, err := c.Run(sample, model)
		require.NoError(t, err)

		outliers := r.Outliers()
		if prev != nil {
			assert.LessOrEqual(t, len(outliers), len(prev), "alpha=%g", alpha)
			assert.Subset(t, prev, outliers, "alpha=%g", alpha)
		}
		prev = outliers
	}
}

func TestRun_Deterministic(t *testing.T) {
	sample := normalSample(200, 2, 3)
	model := &radialModel{dims: 2}
	c, err := NewClassifier(0.9, 0.5, 0.1)
	require.NoError(t, err)

	r1, err := c.Run(sample, model)
	require.NoError(t, err)
	r2, err := c.Run(sample, model)
	require.NoError(t, err)

	if diff := cmp.Diff(r1.Outliers(), r2.Outliers()); diff != "" {
		t.Errorf("outliers differ between runs:\n%s", diff)
	}
	assert.Equal(t, r1.Inliers(), r2.Inliers())
	assert.Equal(t, r1.Mode(), r2.Mode())
	assert.Equal(t, r1.Thresholds(), r2.Thresholds())
}

func TestRun_ModeInvariant(t *testing.T) {
	sample := normalSample(400, 3, 11)
	model := &radialModel{dims: 3}
	c, err := NewClassifier(0.9)
	require.NoError(t, err)

	r, err := c.Run(sample, model)
	require.NoError(t, err)

	best := model.Density(sample[r.Mode()])
	for i, p := range sample {
		assert.GreaterOrEqual(t, best, model.Density(p), "point %d", i)
	}
}

func TestRun_ModeTieKeepsFirst(t *testing.T) {
	sample := [][]float64{{2}, {1}, {-1}, {1}}
	c, err := NewClassifier(0.9)
	require.NoError(t, err)

	r, err := c.Run(sample, &radialModel{dims: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Mode())
}

func TestRun_CollaboratorFailure(t *testing.T) {
	sample := normalSample(20, 2, 5)
	c, err := NewClassifier(0.9, 0.5)
	require.NoError(t, err)

	first, err := c.Run(sample, &radialModel{dims: 2})
	require.NoError(t, err)

	r, err := c.Run(sample, &radialModel{dims: 2, failAlpha: 0.5})
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrCollaboratorFailure)
	assert.ErrorIs(t, err, errLevelSet)

	var ce *CollaboratorError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Op, "alpha=0.5")

	// The previous result survives the failed run.
	last, err := c.LastResult()
	require.NoError(t, err)
	assert.Same(t, first, last)
}

func TestRun_ReconfigureWithoutRefit(t *testing.T) {
	sample := normalSample(300, 2, 9)
	model := &radialModel{dims: 2}
	c, err := NewClassifier(0.99)
	require.NoError(t, err)

	loose, err := c.Run(sample, model)
	require.NoError(t, err)

	require.NoError(t, c.Configure([]float64{0.5}))
	tight, err := c.Run(sample, model)
	require.NoError(t, err)

	assert.Greater(t, len(tight.Outliers()), len(loose.Outliers()))

	got, err := c.OutlierIndices()
	require.NoError(t, err)
	assert.Equal(t, tight.Outliers(), got)

	mode, err := c.ModalIndex()
	require.NoError(t, err)
	assert.Equal(t, tight.Mode(), mode)
}

func TestResult_AccessorsReturnCopies(t *testing.T) {
	c, err := NewClassifier(0.9)
	require.NoError(t, err)
	r, err := c.Run([][]float64{{0}, {5}}, &radialModel{dims: 1})
	require.NoError(t, err)

	in := r.Inliers()
	in[0] = 42
	assert.Equal(t, []int{0}, r.Inliers())

	out := r.Outliers()
	out[0] = 42
	assert.Equal(t, []int{1}, r.Outliers())
}

func TestRun_AllInliersAndAllOutliers(t *testing.T) {
	c, err := NewClassifier(0.9)
	require.NoError(t, err)

	r, err := c.Run([][]float64{{0}, {0.1}, {-0.1}}, &radialModel{dims: 1})
	require.NoError(t, err)
	assert.Empty(t, r.Outliers())
	assert.NotNil(t, r.Outliers())

	r, err = c.Run([][]float64{{10}, {-20}}, &radialModel{dims: 1})
	require.NoError(t, err)
	assert.Empty(t, r.Inliers())
	assert.NotNil(t, r.Inliers())
	assert.Equal(t, 0, r.Mode())
}
