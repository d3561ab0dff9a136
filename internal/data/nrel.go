package data

import (
	"fmt"

	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// NRELAdapter reads Texas wind/solar production per generator (MW) and
// zonal consumption.
type NRELAdapter struct{}

func (NRELAdapter) Name() string { return NRELFolder }

func (NRELAdapter) Load(dir string, year int, prods, loads *model.Characteristics) (*Reference, error) {
	solar, err := readBenchmark(dir, NRELFolder, "solar.csv")
	if err != nil {
		return nil, err
	}
	wind, err := readBenchmark(dir, NRELFolder, "wind.csv")
	if err != nil {
		return nil, err
	}
	load, err := readBenchmark(dir, NRELFolder, "load.csv")
	if err != nil {
		return nil, err
	}
	aligned, err := timeseries.Intersect(solar, wind, load)
	if err != nil {
		return nil, fmt.Errorf("nrel files: %w", err)
	}
	solar, wind, load = aligned[0], aligned[1], aligned[2]

	ref := &Reference{}
	prod := &columns{}
	for _, u := range prods.Units {
		var src *timeseries.Table
		switch u.Carrier {
		case model.CarrierSolar:
			src = solar
		case model.CarrierWind:
			src = wind
		default:
			continue
		}
		values, ok := src.Column(u.Name)
		if !ok {
			ref.Missing = append(ref.Missing, u.Name)
			continue
		}
		prod.add(u.Name, values)
	}
	loadCols, missing := splitLoads(loads, load.Column)
	ref.Missing = append(ref.Missing, missing...)

	if ref.Prod, err = prod.table(solar.Index); err != nil {
		return nil, err
	}
	if ref.Load, err = loadCols.table(load.Index); err != nil {
		return nil, err
	}
	return finish(ref, year)
}
