package kpi

import (
	"errors"

	"chronics-kpi/internal/model"
)

// ZoneCorrelation is the synthetic wind x consumption correlation of one
// zone (rows are wind units, columns are load nodes).
type ZoneCorrelation struct {
	Zone string
	Corr Frame
}

// WindLoadKPI correlates, zone by zone, synthetic wind production with
// consumption. Nothing is stored; one heatmap is rendered per zone.
func (v *Validator) WindLoadKPI() ([]ZoneCorrelation, error) {
	if v.in.Loads == nil {
		return nil, errors.New("load characteristics are required for the wind-load KPI")
	}
	out := make([]ZoneCorrelation, 0, len(v.zones))
	for _, zone := range v.zones {
		wind := v.selectNames(v.in.SynDispatch, v.in.Prods.NamesByCarrierAndZone(model.CarrierWind, zone), "wind "+zone, "synthetic")
		loads := v.selectNames(v.in.Consumption, v.in.Loads.NamesByZone(zone), "loads "+zone, "consumption")

		corr := PairwiseCorrelation(wind, loads)
		out = append(out, ZoneCorrelation{Zone: zone, Corr: corr})
		v.heatmaps(DirWindLoad, "syn_corr_wind_load_"+zone+".png", "Correlation Wind Load Region "+zone,
			Heat{Title: zone, Frame: corr})
	}
	return out, nil
}
