package data

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// Reference is a benchmark dataset normalized on the common schema.
type Reference struct {
	Prod   *timeseries.Table
	Load   *timeseries.Table
	Prices *timeseries.Table

	// Missing lists units for which the benchmark has no series.
	Missing []string
}

// ReferenceAdapter turns one benchmark source format into a Reference.
// dir is the KPI case input folder.
type ReferenceAdapter interface {
	Name() string
	Load(dir string, year int, prods, loads *model.Characteristics) (*Reference, error)
}

// Benchmark folder names under a KPI case input folder.
const (
	RenewableNinjaFolder = "renewable_ninja"
	Eco2mixFolder        = "eco2mix"
	NRELFolder           = "nrel"
)

// columns accumulates named columns over a shared index.
type columns struct {
	names []string
	data  [][]float64
}

func (c *columns) add(name string, values []float64) {
	c.names = append(c.names, name)
	c.data = append(c.data, values)
}

func (c *columns) table(index []time.Time) (*timeseries.Table, error) {
	return timeseries.FromColumns(index, c.names, c.data)
}

// shareIndex maps a unit name to its Pmax share among the units of the same
// zone and group (carrier for generators, "" for loads).
func shareIndex(units []model.Unit, group func(model.Unit) string) map[string]float64 {
	buckets := map[string][]model.Unit{}
	var keys []string
	for _, u := range units {
		k := u.Zone + "\x00" + group(u)
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], u)
	}
	out := make(map[string]float64, len(units))
	for _, k := range keys {
		us := buckets[k]
		for i, s := range model.PmaxShares(us) {
			out[us[i].Name] = s
		}
	}
	return out
}

func loadGroup(model.Unit) string { return "" }

func carrierGroup(u model.Unit) string { return string(u.Carrier) }

// splitLoads spreads zonal consumption over the load nodes of each zone by
// Pmax share. zonal returns the consumption column of a zone.
func splitLoads(loads *model.Characteristics, zonal func(zone string) ([]float64, bool)) (*columns, []string) {
	shares := shareIndex(loads.Units, loadGroup)
	out := &columns{}
	var missing []string
	for _, u := range loads.Units {
		values, ok := zonal(u.Zone)
		if !ok {
			missing = append(missing, u.Name)
			continue
		}
		out.add(u.Name, timeseries.Scale(values, shares[u.Name]))
	}
	return out, missing
}

func readBenchmark(dir, folder, file string) (*timeseries.Table, error) {
	path, err := ResolvePath(filepath.Join(dir, folder, file))
	if err != nil {
		return nil, err
	}
	return ReadTimeTable(path)
}

func sortedZones(regions map[string]string) []string {
	zones := make([]string, 0, len(regions))
	for z := range regions {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

func restamp(year int, tables ...*timeseries.Table) {
	for i, t := range tables {
		if t != nil {
			*tables[i] = *t.RestampYear(year)
		}
	}
}

func finish(ref *Reference, year int) (*Reference, error) {
	restamp(year, ref.Prod, ref.Load, ref.Prices)
	if ref.Prod.Len() == 0 {
		return nil, fmt.Errorf("reference data has no timestamp in %d", year)
	}
	return ref, nil
}
