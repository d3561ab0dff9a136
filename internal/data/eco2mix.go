package data

import (
	"fmt"

	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

const consumptionColumn = "consumption"

// Eco2mixAdapter reads France regional production per carrier, regional
// consumption and national prices. A regional carrier series is spread over
// the zone's units of that carrier by Pmax share.
type Eco2mixAdapter struct {
	Regions map[string]string
}

func (a Eco2mixAdapter) Name() string { return Eco2mixFolder }

func (a Eco2mixAdapter) Load(dir string, year int, prods, loads *model.Characteristics) (*Reference, error) {
	zones := sortedZones(a.Regions)
	if len(zones) == 0 {
		return nil, fmt.Errorf("eco2mix: no region configured")
	}
	tables := make([]*timeseries.Table, 0, len(zones)+1)
	for _, z := range zones {
		t, err := readBenchmark(dir, Eco2mixFolder, a.Regions[z]+".csv")
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	prices, err := readBenchmark(dir, Eco2mixFolder, PricesFile)
	if err != nil {
		return nil, err
	}
	tables = append(tables, prices)

	aligned, err := timeseries.Intersect(tables...)
	if err != nil {
		return nil, fmt.Errorf("eco2mix files: %w", err)
	}
	byZone := make(map[string]*timeseries.Table, len(zones))
	for i, z := range zones {
		byZone[z] = aligned[i]
	}
	prices = aligned[len(aligned)-1]
	index := prices.Index

	ref := &Reference{}
	shares := shareIndex(prods.Units, carrierGroup)
	prod := &columns{}
	for _, u := range prods.Units {
		regional, ok := carrierColumn(byZone[u.Zone], u.Carrier)
		if !ok {
			ref.Missing = append(ref.Missing, u.Name)
			continue
		}
		prod.add(u.Name, timeseries.Scale(regional, shares[u.Name]))
	}
	loadCols, missing := splitLoads(loads, func(zone string) ([]float64, bool) {
		return byZone[zone].Column(consumptionColumn)
	})
	ref.Missing = append(ref.Missing, missing...)

	if prices.Width() == 0 {
		return nil, fmt.Errorf("eco2mix prices file has no column")
	}
	ref.Prices = prices.WithColumn(PriceColumn, prices.Data[0])
	if ref.Prod, err = prod.table(index); err != nil {
		return nil, err
	}
	if ref.Load, err = loadCols.table(index); err != nil {
		return nil, err
	}
	return finish(ref, year)
}

// carrierColumn finds the column of t whose header names carrier.
func carrierColumn(t *timeseries.Table, carrier model.Carrier) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	for c, name := range t.Columns {
		if model.ParseCarrier(name) == carrier {
			return t.Data[c], true
		}
	}
	return nil, false
}
