package analysis

import (
	"math"
	"sort"
)

// Summary is a distribution summary of one series, used by data checks and
// the CSV report.
type Summary struct {
	Name  string
	Count int

	Min  float64
	Max  float64
	Mean float64
	P05  float64
	P95  float64

	// Spread is P95 - P05.
	Spread float64
}

// Summarize computes a Summary over the finite values of x.
func Summarize(name string, x []float64) Summary {
	s := Summary{Name: name}
	vals := Finite(x)
	if len(vals) == 0 {
		s.Min, s.Max, s.Mean = math.NaN(), math.NaN(), math.NaN()
		s.P05, s.P95, s.Spread = math.NaN(), math.NaN(), math.NaN()
		return s
	}
	sort.Float64s(vals)
	s.Count = len(vals)
	s.Min = vals[0]
	s.Max = vals[len(vals)-1]
	s.Mean = Mean(vals)
	s.P05 = percentileSorted(vals, 0.05)
	s.P95 = percentileSorted(vals, 0.95)
	s.Spread = s.P95 - s.P05
	return s
}

// RankByMean summarizes every named series and sorts descending by mean.
// Empty series sort last; ties keep name order.
func RankByMean(series map[string][]float64) []Summary {
	out := make([]Summary, 0, len(series))
	for name, x := range series {
		out = append(out, Summarize(name, x))
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := out[i].Mean, out[j].Mean
		if math.IsNaN(mi) != math.IsNaN(mj) {
			return math.IsNaN(mj)
		}
		if mi != mj && !math.IsNaN(mi) {
			return mi > mj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
