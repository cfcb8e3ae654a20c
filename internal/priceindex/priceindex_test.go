package priceindex_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symrange/symrange/internal/errs"
	"github.com/symrange/symrange/internal/priceindex"
)

func TestAppendAndSuffixStats_WorkedExample(t *testing.T) {
	ix := priceindex.New(1024)
	values := []float64{150.1, 150.5, 151.0, 149.8, 150.2, 151.1, 151.2, 152.0, 151.5, 151.9}

	require.NoError(t, ix.Append(values))

	stats, err := ix.SuffixStats(10)
	require.NoError(t, err)

	assert.InDelta(t, 149.8, stats.Min, 1e-9)
	assert.InDelta(t, 152.0, stats.Max, 1e-9)
	assert.InDelta(t, 151.9, stats.Last, 1e-9)
	assert.InDelta(t, 150.93, stats.Mean, 1e-9)
	assert.InDelta(t, 0.5201, stats.Variance, 1e-9)
}

func TestSuffixStats_MatchesNaiveComputation(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

	ix := priceindex.New(1024)
	require.NoError(t, ix.Append(values))

	for k := uint64(1); k <= uint64(len(values)); k++ {
		got, err := ix.SuffixStats(k)
		require.NoError(t, err)

		window := values[uint64(len(values))-k:]
		wantMin, wantMax, wantSum, wantSumSq := window[0], window[0], 0.0, 0.0
		for _, v := range window {
			wantMin = math.Min(wantMin, v)
			wantMax = math.Max(wantMax, v)
			wantSum += v
			wantSumSq += v * v
		}
		wantMean := wantSum / float64(k)
		wantVar := wantSumSq/float64(k) - wantMean*wantMean

		assert.InDelta(t, wantMin, got.Min, 1e-9)
		assert.InDelta(t, wantMax, got.Max, 1e-9)
		assert.InDelta(t, wantMean, got.Mean, 1e-9)
		assert.InDelta(t, wantVar, got.Variance, 1e-9)
		assert.InDelta(t, window[len(window)-1], got.Last, 1e-9)
	}
}

func TestAppend_BatchPartitioningIsIdempotent(t *testing.T) {
	a := priceindex.New(1024)
	require.NoError(t, a.Append([]float64{1, 2, 3}))

	b := priceindex.New(1024)
	require.NoError(t, b.Append([]float64{1}))
	require.NoError(t, b.Append([]float64{2, 3}))

	sa, err := a.SuffixStats(3)
	require.NoError(t, err)
	sb, err := b.SuffixStats(3)
	require.NoError(t, err)

	assert.Equal(t, sa, sb)
}

func TestAppend_RejectsEmptyBatch(t *testing.T) {
	ix := priceindex.New(16)
	err := ix.Append(nil)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.EmptyBatch, kind)
}

func TestAppend_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
	}{
		{"negative", []float64{-1.0}},
		{"nan", []float64{math.NaN(), 1.0, 2.0}},
		{"positive infinity", []float64{math.Inf(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ix := priceindex.New(16)
			err := ix.Append(tc.values)
			require.Error(t, err)
			kind, ok := errs.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, errs.InvalidValue, kind)
			assert.Equal(t, uint64(0), ix.N())
		})
	}
}

func TestAppend_InvalidBatchLeavesIndexUntouched(t *testing.T) {
	ix := priceindex.New(16)
	require.NoError(t, ix.Append([]float64{1, 2, 3}))

	err := ix.Append([]float64{4, math.NaN()})
	require.Error(t, err)
	assert.Equal(t, uint64(3), ix.N())

	stats, err := ix.SuffixStats(3)
	require.NoError(t, err)
	assert.InDelta(t, 3, stats.Last, 1e-9)
}

func TestAppend_CapacityBoundary(t *testing.T) {
	ix := priceindex.New(4)
	require.NoError(t, ix.Append([]float64{1, 2, 3, 4}))

	err := ix.Append([]float64{5})
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.CapacityExceeded, kind)

	// room remaining is still usable after a batch is rejected as too
	// large, as long as it fits in what's left.
	ix2 := priceindex.New(4)
	require.NoError(t, ix2.Append([]float64{1, 2, 3}))
	err = ix2.Append([]float64{4, 5})
	require.Error(t, err)
	assert.NoError(t, ix2.Append([]float64{4}))
	assert.Equal(t, uint64(4), ix2.N())
}

func TestSuffixStats_Boundaries(t *testing.T) {
	ix := priceindex.New(16)
	require.NoError(t, ix.Append([]float64{1, 2, 3, 4, 5}))

	_, err := ix.SuffixStats(5)
	require.NoError(t, err)

	_, err = ix.SuffixStats(6)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.InsufficientData, kind)
}

func TestSuffixStats_VarianceNeverNegative(t *testing.T) {
	ix := priceindex.New(16)
	require.NoError(t, ix.Append([]float64{5, 5, 5, 5}))

	stats, err := ix.SuffixStats(4)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Variance, 0.0)
	assert.InDelta(t, 0, stats.Variance, 1e-12)
}

func TestSuffixStats_RepeatedQueryIsIdempotent(t *testing.T) {
	ix := priceindex.New(16)
	require.NoError(t, ix.Append([]float64{1, 2, 3}))

	first, err := ix.SuffixStats(2)
	require.NoError(t, err)
	second, err := ix.SuffixStats(2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestErrorsKindOf_RejectsUnrelatedErrors(t *testing.T) {
	_, ok := errs.KindOf(errors.New("boom"))
	assert.False(t, ok)
}
