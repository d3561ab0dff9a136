package kpi

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// SolarParams tune the solar KPI. Zero quantile and factor take the
// defaults 0.95 and 0.57; nil Seasons falls back to the validator seasons.
type SolarParams struct {
	CloudQuantile float64
	CondFactor    float64
	Seasons       []model.Season
	// Aggregated sums every unit into one "total" column before the at
	// night KPI.
	Aggregated bool
}

// SolarResult holds solar correlations, at night percentages (unit x
// season) and monthly cloudiness percentages (month x unit).
type SolarResult struct {
	RefCorr Frame
	SynCorr Frame

	RefAtNight Frame
	SynAtNight Frame

	RefCloudiness Frame
	SynCloudiness Frame
}

// SolarKPI compares solar units: spatial correlation, production outside
// the seasonal daylight window, and the share of cloudy days per month.
func (v *Validator) SolarKPI(p SolarParams) *SolarResult {
	if p.CloudQuantile == 0 {
		p.CloudQuantile = 0.95
	}
	if p.CondFactor == 0 {
		p.CondFactor = 0.57
	}
	seasons := p.Seasons
	if len(seasons) == 0 {
		seasons = v.seasons
	}

	ref := v.units(v.in.RefDispatch, model.CarrierSolar, "reference")
	syn := v.units(v.in.SynDispatch, model.CarrierSolar, "synthetic")

	res := &SolarResult{
		RefCorr: PairwiseCorrelation(ref, ref),
		SynCorr: PairwiseCorrelation(syn, syn),
	}
	v.heatmaps(DirSolar, "solar_corr_heatmap.png", "Solar correlation",
		Heat{Title: "Reference", Frame: res.RefCorr},
		Heat{Title: "Synthetic", Frame: res.SynCorr})
	v.histograms(DirSolar, "histogram.png", "Distribution of aggregate solar production",
		ref.RowSums(), syn.RowSums())
	v.results.Set(GroupSolar, "solar_corr", res.SynCorr)
	v.results.Set(GroupSolar, "solar_corr_reference", res.RefCorr)

	res.RefAtNight = v.solarAtNight(ref, seasons, p.Aggregated)
	res.SynAtNight = v.solarAtNight(syn, seasons, p.Aggregated)
	v.barCharts(DirSolar, "solar_at_night.png", "Mean % of production at night per season",
		res.RefAtNight.ColMeans(), res.SynAtNight.ColMeans())
	v.results.Set(GroupSolar, "season_solar_at_night_reference", res.RefAtNight)
	v.results.Set(GroupSolar, "season_solar_at_night_synthetic", res.SynAtNight)

	res.RefCloudiness = cloudiness(ref, p.CloudQuantile, p.CondFactor)
	res.SynCloudiness = cloudiness(syn, p.CloudQuantile, p.CondFactor)
	v.barCharts(DirSolar, "cloudiness.png",
		fmt.Sprintf("Cloudiness per month (number of daily quantile %g below %g %% of general quantile %g)",
			p.CloudQuantile, math.Round(p.CondFactor*100), p.CloudQuantile),
		res.RefCloudiness.RowSums(), res.SynCloudiness.RowSums())
	v.results.Set(GroupSolar, "cloudiness_reference", res.RefCloudiness)
	v.results.Set(GroupSolar, "cloudiness_synthetic", res.SynCloudiness)
	return res
}

// solarAtNight returns, per unit and season, the percentage of the
// seasonal production made outside the season window. Seasons without
// rows are left out; a zero seasonal total gives Undefined.
func (v *Validator) solarAtNight(t *timeseries.Table, seasons []model.Season, aggregated bool) Frame {
	if aggregated {
		t = t.Sum("total").Table()
	}
	index := t.Index

	var cols []string
	var perSeason [][]float64
	for _, s := range seasons {
		var rows []int
		for i, m := range v.months {
			if s.HasMonth(m) {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			v.logger.Warn("season has no rows", zap.String("season", s.Name))
			continue
		}
		pcts := make([]float64, t.Width())
		for c, col := range t.Data {
			var total, night float64
			for _, r := range rows {
				x := col[r]
				if math.IsNaN(x) {
					continue
				}
				total += x
				if !s.Window.Contains(index[r]) {
					night += x
				}
			}
			pcts[c] = percentOrUndefined(night, total)
		}
		cols = append(cols, s.Name)
		perSeason = append(perSeason, pcts)
	}

	f := NewFrame(t.Columns, cols)
	for c := range cols {
		for r := range t.Columns {
			f.Values[r][c] = perSeason[c][r]
		}
	}
	return f
}

// cloudiness returns, per month and unit, the percentage of cloudy days. A
// day is cloudy when the quantile of its strictly positive values is at or
// below factor times the unit's global quantile. Days without production
// are not cloudy but still count.
func cloudiness(t *timeseries.Table, q, factor float64) Frame {
	days := timeseries.DayBuckets(t.Index)
	dayStarts := make([]time.Time, len(days))
	for i, d := range days {
		dayStarts[i] = d.Start
	}
	months := timeseries.MonthBuckets(dayStarts)

	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.Label
	}
	f := NewFrame(labels, t.Columns)

	for c, col := range t.Data {
		global, ok := analysis.Quantile(col, q)
		if !ok {
			for r := range labels {
				f.Values[r][c] = Undefined
			}
			continue
		}
		threshold := global * factor

		cloudy := make([]bool, len(days))
		for d, day := range days {
			positive := make([]float64, 0, len(day.Rows))
			for _, r := range day.Rows {
				if col[r] > 0 {
					positive = append(positive, col[r])
				}
			}
			dq, ok := analysis.Quantile(positive, q)
			cloudy[d] = ok && dq <= threshold
		}
		for r, m := range months {
			n := 0.0
			for _, d := range m.Rows {
				if cloudy[d] {
					n++
				}
			}
			f.Values[r][c] = percentOrUndefined(n, float64(len(m.Rows)))
		}
	}
	return f
}
