package kpi

import (
	"fmt"

	"go.uber.org/zap"

	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// HydroParams are the price regime quantiles and the capacity fraction
// caps. Zero fields take the defaults 0.95 / 0.05 / 0.9 / 0.1.
type HydroParams struct {
	UpperQuantile float64
	LowerQuantile float64
	UpperCap      float64
	LowerCap      float64
}

func (p HydroParams) withDefaults() HydroParams {
	if p.UpperQuantile == 0 {
		p.UpperQuantile = 0.95
	}
	if p.LowerQuantile == 0 {
		p.LowerQuantile = 0.05
	}
	if p.UpperCap == 0 {
		p.UpperCap = 0.9
	}
	if p.LowerCap == 0 {
		p.LowerCap = 0.1
	}
	return p
}

// HydroResult holds per-unit price regime percentages (empty without a
// price series) and monthly mean dispatch tables (month x unit).
type HydroResult struct {
	RefHighPrice Values
	RefLowPrice  Values
	SynHighPrice Values
	SynLowPrice  Values

	RefMonthly Frame
	SynMonthly Frame
}

// HydroKPI measures how hydro units follow prices: the share of high price
// timestamps spent near full capacity and of low price timestamps spent
// near empty. It also reports the monthly mean dispatch per unit.
func (v *Validator) HydroKPI(p HydroParams) (*HydroResult, error) {
	p = p.withDefaults()
	if p.LowerQuantile >= p.UpperQuantile || p.LowerCap >= p.UpperCap {
		return nil, fmt.Errorf("hydro thresholds out of order: %+v", p)
	}

	ref := v.units(v.in.RefDispatch, model.CarrierHydro, "reference")
	syn := v.units(v.in.SynDispatch, model.CarrierHydro, "synthetic")
	res := &HydroResult{}

	refPrices, synPrices := v.in.Prices, v.in.SynPrices
	if synPrices == nil {
		synPrices = refPrices
	}
	if refPrices != nil {
		res.RefHighPrice, res.RefLowPrice = v.hydroInPrices(ref, refPrices.Data[0], p, "reference")
		res.SynHighPrice, res.SynLowPrice = v.hydroInPrices(syn, synPrices.Data[0], p, "synthetic")

		v.barCharts(DirHydro, "high_price.png",
			fmt.Sprintf("%% of time production exceed %g*Pmax when prices are high (above quantile %g)", p.UpperCap, p.UpperQuantile*100),
			res.RefHighPrice, res.SynHighPrice)
		v.barCharts(DirHydro, "low_price.png",
			fmt.Sprintf("%% of time production is below %g*Pmax when prices are low (under quantile %g)", p.LowerCap, p.LowerQuantile*100),
			res.RefLowPrice, res.SynLowPrice)

		v.results.Set(GroupHydro, "high_price_for_ref", res.RefHighPrice)
		v.results.Set(GroupHydro, "low_price_for_ref", res.RefLowPrice)
		v.results.Set(GroupHydro, "high_price_for_syn", res.SynHighPrice)
		v.results.Set(GroupHydro, "low_price_for_syn", res.SynLowPrice)
	} else {
		v.logger.Debug("no price series, skipping hydro price regime KPIs")
	}

	res.RefMonthly = monthlyMean(ref, v.months, precision)
	res.SynMonthly = monthlyMean(syn, v.months, precision)
	v.barCharts(DirHydro, "hydro_per_month.png", "hydro mean production per month for all units",
		res.RefMonthly.RowSums(), res.SynMonthly.RowSums())

	v.results.Set(GroupHydro, "seasonal_month_for_ref", res.RefMonthly)
	v.results.Set(GroupHydro, "seasonal_month_for_syn", res.SynMonthly)
	return res, nil
}

// hydroInPrices computes, per unit, the high and low price regime
// percentages. Units that never produce have no capacity fraction and get
// Undefined.
func (v *Validator) hydroInPrices(units *timeseries.Table, prices []float64, p HydroParams, role string) (high, low Values) {
	high = Values{Keys: units.Columns, Vals: make([]float64, units.Width())}
	low = Values{Keys: units.Columns, Vals: make([]float64, units.Width())}

	upper, okU := analysis.Quantile(prices, p.UpperQuantile)
	lower, okL := analysis.Quantile(prices, p.LowerQuantile)

	for c, col := range units.Data {
		maxMW := analysis.Max(analysis.Finite(col))
		if !okU || !okL || !(maxMW > 0) {
			high.Vals[c], low.Vals[c] = Undefined, Undefined
			v.logger.Warn("hydro price KPI undefined",
				zap.String("unit", units.Columns[c]),
				zap.String("role", role),
				zap.Float64("max_mw", maxMW))
			continue
		}
		var nHigh, nHighFull, nLow, nLowEmpty float64
		for i, price := range prices {
			frac := col[i] / maxMW
			if price > upper {
				nHigh++
				if frac >= p.UpperCap {
					nHighFull++
				}
			}
			if price < lower {
				nLow++
				if frac <= p.LowerCap {
					nLowEmpty++
				}
			}
		}
		high.Vals[c] = percentOrUndefined(nHighFull, nHigh)
		low.Vals[c] = percentOrUndefined(nLowEmpty, nLow)
	}
	return high, low
}

func percentOrUndefined(num, den float64) float64 {
	pct, ok := analysis.Percent(num, den)
	if !ok {
		return Undefined
	}
	return analysis.Round(pct, precision)
}
