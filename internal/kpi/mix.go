package kpi

import (
	"fmt"
	"sort"

	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// Curve names accepted by CarrierProduction.
const (
	CurveSynthetic = "synthetic"
	CurveReference = "reference"
)

// EnergyMixResult holds energy per carrier (MWh) and its share of the
// total (%), for both datasets.
type EnergyMixResult struct {
	RefEnergy Values
	SynEnergy Values
	RefShare  Values
	SynShare  Values
}

// EnergyMix sums production per carrier over the horizon. Units absent
// from the characteristics are left out.
func (v *Validator) EnergyMix() *EnergyMixResult {
	stepHours := v.in.RefDispatch.Step().Hours()
	if stepHours == 0 {
		stepHours = 1
	}
	res := &EnergyMixResult{}
	res.RefEnergy, res.RefShare = v.mix(v.in.RefDispatch, stepHours)
	res.SynEnergy, res.SynShare = v.mix(v.in.SynDispatch, stepHours)

	v.results.Set(GroupEnergyMix, "reference", res.RefShare)
	v.results.Set(GroupEnergyMix, "synthetic", res.SynShare)
	v.results.Set(GroupEnergyMix, "reference_energy_mwh", res.RefEnergy)
	v.results.Set(GroupEnergyMix, "synthetic_energy_mwh", res.SynEnergy)

	v.barCharts(DirDispatchView, "energy_mix.png", "Energy Mix (%)", res.RefShare, res.SynShare)
	if path := v.artifact(DirDispatchView, "aggregated_dispatch.png"); path != "" {
		conso, ref, syn := v.Aggregates()
		v.plotErr(path, v.plotter.Lines(path, "Total consumption and production",
			Lines{Index: ref.Index, Names: []string{conso.Name, ref.Name, syn.Name}, Series: [][]float64{conso.Values, ref.Values, syn.Values}}))
	}
	return res
}

func (v *Validator) mix(t *timeseries.Table, stepHours float64) (energy, share Values) {
	byCarrier := map[string]float64{}
	for c, name := range t.Columns {
		u, ok := v.in.Prods.Lookup(name)
		if !ok {
			continue
		}
		byCarrier[string(u.Carrier)] += analysis.Sum(analysis.Finite(t.Data[c])) * stepHours
	}
	keys := make([]string, 0, len(byCarrier))
	total := 0.0
	for k, e := range byCarrier {
		keys = append(keys, k)
		total += e
	}
	sort.Strings(keys)

	energy = Values{Keys: keys, Vals: make([]float64, len(keys))}
	share = Values{Keys: keys, Vals: make([]float64, len(keys))}
	for i, k := range keys {
		energy.Vals[i] = analysis.Round(byCarrier[k], precision)
		share.Vals[i] = percentOrUndefined(byCarrier[k], total)
	}
	return energy, share
}

// CarrierProduction aggregates one dataset's production per carrier over
// time. windSolarOnly restricts the carriers to solar and wind.
func (v *Validator) CarrierProduction(curve string, windSolarOnly bool) (*timeseries.Table, error) {
	var src *timeseries.Table
	switch curve {
	case CurveSynthetic:
		src = v.in.SynDispatch
	case CurveReference:
		src = v.in.RefDispatch
	default:
		return nil, fmt.Errorf("unknown curve %q, expected %s or %s", curve, CurveSynthetic, CurveReference)
	}

	var carriers []model.Carrier
	for _, c := range v.in.Prods.Carriers() {
		if !windSolarOnly || c.Renewable() {
			carriers = append(carriers, c)
		}
	}
	names := make([]string, len(carriers))
	data := make([][]float64, len(carriers))
	for i, carrier := range carriers {
		names[i] = string(carrier)
		sel, _ := src.Select(v.in.Prods.NamesByCarrier(carrier))
		data[i] = sel.RowSums()
	}
	out, err := timeseries.FromColumns(src.Index, names, data)
	if err != nil {
		return nil, err
	}

	if path := v.artifact(DirDispatchView, curve+"_prod_per_carrier.png"); path != "" {
		v.plotErr(path, v.plotter.Lines(path, curve+" production per carrier",
			Lines{Index: out.Index, Names: out.Columns, Series: out.Data}))
	}
	return out, nil
}
