// Package analysis holds the statistical primitives the KPI routines are
// built from. Functions never panic on degenerate input; they report
// ok=false instead and let callers decide how to record it.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Finite returns the non-NaN, non-infinite values of x in order.
func Finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// Quantile returns the q-quantile of x using linear interpolation between
// order statistics. NaN values are ignored; ok is false when nothing is left.
func Quantile(x []float64, q float64) (float64, bool) {
	vals := Finite(x)
	if len(vals) == 0 {
		return math.NaN(), false
	}
	sort.Float64s(vals)
	return percentileSorted(vals, q), true
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Pearson is the Pearson correlation of x and y over the pairs where both
// values are finite. ok is false when the lengths differ, fewer than two
// pairs remain, or either side has zero variance.
func Pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) {
		return math.NaN(), false
	}
	x, y = finitePairs(x, y)
	if len(x) < 2 || Constant(x) || Constant(y) {
		return math.NaN(), false
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return r, false
	}
	// Guard against rounding just outside [-1, 1].
	return math.Max(-1, math.Min(1, r)), true
}

func finitePairs(x, y []float64) ([]float64, []float64) {
	clean := true
	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			clean = false
			break
		}
	}
	if clean {
		return x, y
	}
	fx := make([]float64, 0, len(x))
	fy := make([]float64, 0, len(y))
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			fx = append(fx, x[i])
			fy = append(fy, y[i])
		}
	}
	return fx, fy
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Skewness is the bias-corrected sample skewness. A constant series has
// skewness 0; fewer than three values are not enough.
func Skewness(x []float64) (float64, bool) {
	if len(x) < 3 {
		return math.NaN(), false
	}
	if Constant(x) {
		return 0, true
	}
	return stat.Skew(x, nil), true
}

// ExcessKurtosis is the bias-corrected sample excess kurtosis. A constant
// series gives 0; fewer than four values are not enough.
func ExcessKurtosis(x []float64) (float64, bool) {
	if len(x) < 4 {
		return math.NaN(), false
	}
	if Constant(x) {
		return 0, true
	}
	return stat.ExKurtosis(x, nil), true
}

// Constant reports whether all values of x are equal (true for empty x).
func Constant(x []float64) bool {
	if len(x) == 0 {
		return true
	}
	return floats.Max(x) == floats.Min(x)
}

// Mean of x, NaN for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Sum of x.
func Sum(x []float64) float64 {
	return floats.Sum(x)
}

// Max of x, NaN for an empty slice.
func Max(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Max(x)
}

// Diff returns the first difference x[i]-x[i-1]; the result has len(x)-1
// values.
func Diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}

// Round rounds v half away from zero to the given number of decimals. NaN
// and infinities pass through.
func Round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// Percent returns 100*num/den, ok=false when den is zero.
func Percent(num, den float64) (float64, bool) {
	if den == 0 {
		return math.NaN(), false
	}
	return 100 * num / den, true
}
