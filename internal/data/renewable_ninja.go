package data

import (
	"fmt"

	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// RenewableNinjaAdapter reads France wind/solar capacity factors per region
// and regional consumption. Regions maps a grid zone to a region column.
type RenewableNinjaAdapter struct {
	Regions map[string]string
}

func (a RenewableNinjaAdapter) Name() string { return RenewableNinjaFolder }

func (a RenewableNinjaAdapter) Load(dir string, year int, prods, loads *model.Characteristics) (*Reference, error) {
	solar, err := readBenchmark(dir, RenewableNinjaFolder, "solar.csv")
	if err != nil {
		return nil, err
	}
	wind, err := readBenchmark(dir, RenewableNinjaFolder, "wind.csv")
	if err != nil {
		return nil, err
	}
	load, err := readBenchmark(dir, RenewableNinjaFolder, "load.csv")
	if err != nil {
		return nil, err
	}
	aligned, err := timeseries.Intersect(solar, wind, load)
	if err != nil {
		return nil, fmt.Errorf("renewable_ninja files: %w", err)
	}
	solar, wind, load = aligned[0], aligned[1], aligned[2]

	ref := &Reference{}
	prod := &columns{}
	factors := map[model.Carrier]*timeseries.Table{
		model.CarrierSolar: solar,
		model.CarrierWind:  wind,
	}
	for _, u := range prods.Units {
		tbl, ok := factors[u.Carrier]
		if !ok {
			continue
		}
		cf, ok := tbl.Column(a.Regions[u.Zone])
		if !ok {
			ref.Missing = append(ref.Missing, u.Name)
			continue
		}
		prod.add(u.Name, timeseries.Scale(cf, u.Pmax))
	}

	loadCols, missing := splitLoads(loads, func(zone string) ([]float64, bool) {
		return load.Column(a.Regions[zone])
	})
	ref.Missing = append(ref.Missing, missing...)

	if ref.Prod, err = prod.table(solar.Index); err != nil {
		return nil, err
	}
	if ref.Load, err = loadCols.table(load.Index); err != nil {
		return nil, err
	}
	return finish(ref, year)
}
