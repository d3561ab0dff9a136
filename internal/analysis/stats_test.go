package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileInterpolates(t *testing.T) {
	x := []float64{4, 1, math.NaN(), 3, 2}

	q, ok := Quantile(x, 0.5)
	require.True(t, ok)
	assert.InDelta(t, 2.5, q, 1e-12)

	q, ok = Quantile(x, 0.95)
	require.True(t, ok)
	assert.InDelta(t, 3.85, q, 1e-12)

	q, _ = Quantile(x, 0)
	assert.Equal(t, 1.0, q)
	q, _ = Quantile(x, 1)
	assert.Equal(t, 4.0, q)

	_, ok = Quantile([]float64{math.NaN()}, 0.5)
	assert.False(t, ok)
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, ok = Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok)
	_, ok = Pearson([]float64{1, 2}, []float64{1, 2, 3})
	assert.False(t, ok)
}

func TestShapeMoments(t *testing.T) {
	s, ok := Skewness([]float64{5, 5, 5, 5})
	require.True(t, ok)
	assert.Equal(t, 0.0, s)

	k, ok := ExcessKurtosis([]float64{5, 5, 5, 5})
	require.True(t, ok)
	assert.Equal(t, 0.0, k)

	_, ok = Skewness([]float64{1, 2})
	assert.False(t, ok)
	_, ok = ExcessKurtosis([]float64{1, 2, 3})
	assert.False(t, ok)

	// Symmetric sample: zero skew.
	s, ok = Skewness([]float64{1, 2, 3, 4, 5})
	require.True(t, ok)
	assert.InDelta(t, 0.0, s, 1e-12)

	// pandas: Series([1, 2, 3, 4, 5]).kurt() == -1.2
	k, ok = ExcessKurtosis([]float64{1, 2, 3, 4, 5})
	require.True(t, ok)
	assert.InDelta(t, -1.2, k, 1e-9)

	// pandas: Series([1, 2, 3, 10]).skew() == 1.7636...
	s, ok = Skewness([]float64{1, 2, 3, 10})
	require.True(t, ok)
	assert.InDelta(t, 1.7636, s, 1e-3)
}

func TestRoundAndDiff(t *testing.T) {
	assert.Equal(t, 0.1, Round(0.1234, 1))
	assert.Equal(t, 12.35, Round(12.346, 2))
	assert.Equal(t, -2.0, Round(-1.5, 0))
	assert.True(t, math.IsNaN(Round(math.NaN(), 1)))

	assert.Equal(t, []float64{1, -3, 0}, Diff([]float64{1, 2, -1, -1}))
	assert.Nil(t, Diff([]float64{1}))

	p, ok := Percent(1, 4)
	require.True(t, ok)
	assert.Equal(t, 25.0, p)
	_, ok = Percent(1, 0)
	assert.False(t, ok)
}

func TestSummarizeAndRank(t *testing.T) {
	s := Summarize("a", []float64{1, 2, 3, 4, 5, math.NaN()})
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Mean)
	assert.InDelta(t, 1.2, s.P05, 1e-9)
	assert.InDelta(t, 4.8, s.P95, 1e-9)
	assert.InDelta(t, 3.6, s.Spread, 1e-9)

	ranked := RankByMean(map[string][]float64{
		"low":   {1, 1},
		"high":  {9, 9},
		"empty": nil,
	})
	require.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].Name)
	assert.Equal(t, "low", ranked[1].Name)
	assert.Equal(t, "empty", ranked[2].Name)
}

func TestPearsonSkipsNaNPairs(t *testing.T) {
	r, ok := Pearson([]float64{1, math.NaN(), 2, 3}, []float64{2, 100, 4, 6})
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)
}
