package kpi

import (
	"math"

	"go.uber.org/zap"

	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// NuclearResult holds aggregate nuclear production, its first difference
// and the monthly percentage of timestamps at exactly zero output.
type NuclearResult struct {
	RefAggregate []float64
	SynAggregate []float64
	RefLag       []float64
	SynLag       []float64

	RefMaintenance Values
	SynMaintenance Values
}

// NuclearKPI compares aggregate nuclear production distributions and
// monthly maintenance time. Results are only rendered, not stored.
func (v *Validator) NuclearKPI() *NuclearResult {
	ref := v.units(v.in.RefDispatch, model.CarrierNuclear, "reference")
	syn := v.units(v.in.SynDispatch, model.CarrierNuclear, "synthetic")

	res := &NuclearResult{
		RefAggregate: ref.RowSums(),
		SynAggregate: syn.RowSums(),
	}
	res.RefLag = analysis.Diff(res.RefAggregate)
	res.SynLag = analysis.Diff(res.SynAggregate)

	buckets := timeseries.MonthBuckets(v.in.RefDispatch.Index)
	res.RefMaintenance = maintenance(res.RefAggregate, buckets)
	res.SynMaintenance = maintenance(res.SynAggregate, buckets)

	v.histograms(DirNuclear, "production_distribution.png", "Distribution of aggregate nuclear production",
		res.RefAggregate, res.SynAggregate)
	v.histograms(DirNuclear, "lag_distribution.png", "Distribution of aggregate nuclear production variation",
		res.RefLag, res.SynLag)
	v.barCharts(DirNuclear, "maintenance_percentage_of_time_per_month.png", "% of time in maintenance per month",
		res.RefMaintenance, res.SynMaintenance)

	v.logger.Debug("nuclear KPI computed",
		zap.Int("reference_units", ref.Width()),
		zap.Int("synthetic_units", syn.Width()))
	return res
}

// maintenance returns the percentage of finite values equal to zero per
// month bucket.
func maintenance(agg []float64, buckets []timeseries.Bucket) Values {
	out := Values{Keys: make([]string, len(buckets)), Vals: make([]float64, len(buckets))}
	for i, b := range buckets {
		out.Keys[i] = b.Label
		var zeros, n float64
		for _, r := range b.Rows {
			x := agg[r]
			if math.IsNaN(x) {
				continue
			}
			n++
			if x == 0 {
				zeros++
			}
		}
		out.Vals[i] = percentOrUndefined(zeros, n)
	}
	return out
}
