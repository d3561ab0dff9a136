package kpi

import (
	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// WindResult holds the wind correlation matrices and the per-month shape
// tables (month x unit).
type WindResult struct {
	RefCorr Frame
	SynCorr Frame

	RefSkewness Frame
	SynSkewness Frame
	RefKurtosis Frame
	SynKurtosis Frame
}

// histogramBins is the bin count of every distribution artifact.
const histogramBins = 100

// WindKPI compares wind units: spatial correlation, and per month
// skewness and excess kurtosis of each unit's production. A constant month
// has skewness 0 and kurtosis 0; months with fewer than 3 (skewness) or 4
// (kurtosis) samples are Undefined.
func (v *Validator) WindKPI() *WindResult {
	ref := v.units(v.in.RefDispatch, model.CarrierWind, "reference")
	syn := v.units(v.in.SynDispatch, model.CarrierWind, "synthetic")
	buckets := timeseries.MonthBuckets(v.in.RefDispatch.Index)

	res := &WindResult{
		RefCorr:     PairwiseCorrelation(ref, ref),
		SynCorr:     PairwiseCorrelation(syn, syn),
		RefSkewness: bucketStat(ref, buckets, analysis.Skewness, shapePrecision),
		SynSkewness: bucketStat(syn, buckets, analysis.Skewness, shapePrecision),
		RefKurtosis: bucketStat(ref, buckets, analysis.ExcessKurtosis, shapePrecision),
		SynKurtosis: bucketStat(syn, buckets, analysis.ExcessKurtosis, shapePrecision),
	}

	v.results.Set(GroupWind, "corr_wind", res.SynCorr)
	v.results.Set(GroupWind, "corr_wind_reference", res.RefCorr)
	v.results.Set(GroupWind, "skewness_reference", res.RefSkewness)
	v.results.Set(GroupWind, "skewness_synthetic", res.SynSkewness)
	v.results.Set(GroupWind, "kurtosis_reference", res.RefKurtosis)
	v.results.Set(GroupWind, "kurtosis_synthetic", res.SynKurtosis)

	v.barCharts(DirWind, "skewness.png", "skewness per month", res.RefSkewness.RowSums(), res.SynSkewness.RowSums())
	v.barCharts(DirWind, "kurtosis.png", "kurtosis per month", res.RefKurtosis.RowSums(), res.SynKurtosis.RowSums())
	v.heatmaps(DirWind, "wind_corr_heatmap.png", "Wind correlation",
		Heat{Title: "Reference", Frame: res.RefCorr},
		Heat{Title: "Synthetic", Frame: res.SynCorr})
	v.histograms(DirWind, "histogram.png", "Distribution of aggregate wind production",
		ref.RowSums(), syn.RowSums())
	return res
}

func (v *Validator) heatmaps(dir, file, title string, panels ...Heat) {
	path := v.artifact(dir, file)
	if path == "" {
		return
	}
	v.plotErr(path, v.plotter.Heatmaps(path, title, panels...))
}

func (v *Validator) histograms(dir, file, title string, ref, syn []float64) {
	path := v.artifact(dir, file)
	if path == "" {
		return
	}
	v.plotErr(path, v.plotter.Histograms(path, title, histogramBins,
		Sample{Title: "Reference " + title, Values: ref},
		Sample{Title: "Synthetic " + title, Values: syn}))
}
