package kpi

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

var day = time.Date(2012, 1, 10, 0, 0, 0, 0, time.UTC)

func hourlyIndex(start time.Time, n int) []time.Time {
	idx := make([]time.Time, n)
	for i := range idx {
		idx[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return idx
}

func table(t *testing.T, index []time.Time, cols map[string][]float64, order ...string) *timeseries.Table {
	t.Helper()
	data := make([][]float64, len(order))
	for i, name := range order {
		data[i] = cols[name]
	}
	tbl, err := timeseries.FromColumns(index, order, data)
	require.NoError(t, err)
	return tbl
}

func fill(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func prods(t *testing.T, units ...model.Unit) *model.Characteristics {
	t.Helper()
	c, err := model.NewCharacteristics(units)
	require.NoError(t, err)
	return c
}

type recordingPlotter struct {
	mu    sync.Mutex
	paths []string
}

func (p *recordingPlotter) record(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	return nil
}

func (p *recordingPlotter) BarCharts(path, _ string, _ ...Bars) error { return p.record(path) }
func (p *recordingPlotter) Heatmaps(path, _ string, _ ...Heat) error { return p.record(path) }
func (p *recordingPlotter) Histograms(path, _ string, _ int, _ ...Sample) error {
	return p.record(path)
}
func (p *recordingPlotter) Lines(path, _ string, _ Lines) error { return p.record(path) }

func TestPairwiseCorrelation(t *testing.T) {
	idx := hourlyIndex(day, 6)
	a := table(t, idx, map[string][]float64{
		"x": {1, 2, 3, 4, 5, 6},
		"y": {6, 5, 4, 3, 2, 1},
		"z": {1, 3, 2, 5, 4, 6},
		"k": {2, 2, 2, 2, 2, 2},
	}, "x", "y", "z", "k")
	b := table(t, idx, map[string][]float64{"w": {3, 1, 4, 1, 5, 9}}, "w")

	f := PairwiseCorrelation(a, b)
	assert.Equal(t, []string{"x", "y", "z", "k"}, f.Rows)
	assert.Equal(t, []string{"w"}, f.Cols)

	self := PairwiseCorrelation(a, a)
	require.Len(t, self.Values, 4)
	for i := range self.Rows {
		for j := range self.Cols {
			v := self.Values[i][j]
			if self.Rows[i] == "k" || self.Cols[j] == "k" {
				assert.True(t, IsUndefined(v))
				continue
			}
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
			assert.Equal(t, v, self.Values[j][i])
		}
	}
	for i, name := range self.Rows {
		if name != "k" {
			assert.Equal(t, 1.0, self.Values[i][i])
		}
	}
	v, _ := self.At("x", "y")
	assert.Equal(t, -1.0, v)
}

func TestNewChecksAlignmentAndCreatesFolders(t *testing.T) {
	idx := hourlyIndex(day, 3)
	ref := table(t, idx, map[string][]float64{"g": {1, 2, 3}}, "g")
	short := table(t, idx[:2], map[string][]float64{"g": {1, 2}}, "g")
	c := prods(t, model.Unit{Name: "g", Carrier: model.CarrierWind, Zone: "R1"})

	_, err := New(Inputs{Consumption: ref, RefDispatch: ref, SynDispatch: short, Prods: c})
	require.Error(t, err)

	dir := t.TempDir()
	in := Inputs{Consumption: ref, RefDispatch: ref, SynDispatch: ref, Prods: c, Year: 2012, Scenario: "0", ImagesDir: dir}
	v, err := New(in)
	require.NoError(t, err)
	for _, d := range artifactDirs {
		st, err := os.Stat(filepath.Join(dir, "2012", "Scenario_0", d))
		require.NoError(t, err)
		assert.True(t, st.IsDir())
	}
	assert.Equal(t, []int{1, 1, 1}, v.Months())

	// Second construction on the same folders is fine.
	_, err = New(in)
	require.NoError(t, err)
}

func TestHydroHighPriceZeroWhenNeverNearFull(t *testing.T) {
	idx := hourlyIndex(day, 24)
	// Peak at hour 0 (lowest price), 10% of max elsewhere.
	hydro := fill(24, func(i int) float64 {
		if i == 0 {
			return 10
		}
		return 1
	})
	dispatch := table(t, idx, map[string][]float64{"h": hydro}, "h")
	prices := table(t, idx, map[string][]float64{"price": fill(24, func(i int) float64 { return float64(i + 1) })}, "price")

	v, err := New(Inputs{
		Consumption: dispatch, RefDispatch: dispatch, SynDispatch: dispatch,
		Prods:  prods(t, model.Unit{Name: "h", Carrier: model.CarrierHydro, Zone: "R1", Pmax: 10}),
		Prices: prices,
	})
	require.NoError(t, err)

	res, err := v.HydroKPI(HydroParams{})
	require.NoError(t, err)
	high, ok := res.SynHighPrice.Get("h")
	require.True(t, ok)
	assert.Equal(t, 0.0, high)
	low, _ := res.SynLowPrice.Get("h")
	assert.Equal(t, 50.0, low)

	// Price regime and seasonal keys coexist.
	assert.Equal(t, []string{
		"high_price_for_ref", "low_price_for_ref", "high_price_for_syn", "low_price_for_syn",
		"seasonal_month_for_ref", "seasonal_month_for_syn",
	}, v.Results().Keys(GroupHydro))
}

func TestHydroUndefinedForIdleUnitAndNoPrices(t *testing.T) {
	idx := hourlyIndex(day, 4)
	dispatch := table(t, idx, map[string][]float64{"h": {0, 0, 0, 0}}, "h")
	prices := table(t, idx, map[string][]float64{"price": {1, 2, 3, 4}}, "price")
	c := prods(t, model.Unit{Name: "h", Carrier: model.CarrierHydro})

	v, err := New(Inputs{Consumption: dispatch, RefDispatch: dispatch, SynDispatch: dispatch, Prods: c, Prices: prices})
	require.NoError(t, err)
	res, err := v.HydroKPI(HydroParams{})
	require.NoError(t, err)
	high, _ := res.RefHighPrice.Get("h")
	assert.True(t, IsUndefined(high))

	v, err = New(Inputs{Consumption: dispatch, RefDispatch: dispatch, SynDispatch: dispatch, Prods: c})
	require.NoError(t, err)
	_, err = v.HydroKPI(HydroParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"seasonal_month_for_ref", "seasonal_month_for_syn"}, v.Results().Keys(GroupHydro))

	_, err = v.HydroKPI(HydroParams{UpperCap: 0.1, LowerCap: 0.5})
	assert.Error(t, err)
}

func TestSolarCloudinessConstantIsZero(t *testing.T) {
	idx := hourlyIndex(day, 48)
	solar := table(t, idx, map[string][]float64{"s": fill(48, func(int) float64 { return 5 })}, "s")
	v, err := New(Inputs{
		Consumption: solar, RefDispatch: solar, SynDispatch: solar,
		Prods: prods(t, model.Unit{Name: "s", Carrier: model.CarrierSolar}),
	})
	require.NoError(t, err)

	res := v.SolarKPI(SolarParams{})
	require.Equal(t, []string{"1"}, res.SynCloudiness.Rows)
	assert.Equal(t, []float64{0}, res.SynCloudiness.Column("s"))
}

func TestSolarCloudinessCountsIdleDays(t *testing.T) {
	// Day 1 sunny, day 2 dim, day 3 no production at all.
	idx := hourlyIndex(day, 72)
	values := fill(72, func(i int) float64 {
		h := i % 24
		if h < 10 || h > 14 {
			return 0
		}
		switch i / 24 {
		case 0:
			return 10
		case 1:
			return 2
		}
		return 0
	})
	solar := table(t, idx, map[string][]float64{"s": values}, "s")
	v, err := New(Inputs{
		Consumption: solar, RefDispatch: solar, SynDispatch: solar,
		Prods: prods(t, model.Unit{Name: "s", Carrier: model.CarrierSolar}),
	})
	require.NoError(t, err)

	res := v.SolarKPI(SolarParams{})
	pct, ok := res.RefCloudiness.At("1", "s")
	require.True(t, ok)
	assert.Equal(t, 33.3, pct)
}

func TestSolarAtNight(t *testing.T) {
	idx := hourlyIndex(day, 24)
	inWindow := fill(24, func(i int) float64 {
		if i >= 10 && i <= 16 {
			return 3
		}
		return 0
	})
	always := fill(24, func(int) float64 { return 1 })
	solar := table(t, idx, map[string][]float64{"day": inWindow, "flat": always}, "day", "flat")

	v, err := New(Inputs{
		Consumption: solar, RefDispatch: solar, SynDispatch: solar,
		Prods: prods(t,
			model.Unit{Name: "day", Carrier: model.CarrierSolar},
			model.Unit{Name: "flat", Carrier: model.CarrierSolar}),
	})
	require.NoError(t, err)

	res := v.SolarKPI(SolarParams{})
	// Only winter holds January.
	assert.Equal(t, []string{"winter"}, res.SynAtNight.Cols)
	pct, _ := res.SynAtNight.At("day", "winter")
	assert.Equal(t, 0.0, pct)
	// 09:30-16:30 keeps 10:00..16:00, 17 of 24 hours are outside.
	pct, _ = res.SynAtNight.At("flat", "winter")
	assert.Equal(t, 70.8, pct)

	agg := v.SolarKPI(SolarParams{Aggregated: true})
	assert.Equal(t, []string{"total"}, agg.RefAtNight.Rows)
}

func TestSolarAtNightWrappingWindow(t *testing.T) {
	idx := hourlyIndex(day, 24)
	solar := table(t, idx, map[string][]float64{"s": fill(24, func(int) float64 { return 1 })}, "s")
	v, err := New(Inputs{
		Consumption: solar, RefDispatch: solar, SynDispatch: solar,
		Prods: prods(t, model.Unit{Name: "s", Carrier: model.CarrierSolar}),
	})
	require.NoError(t, err)

	w, err := model.ParseClockWindow("22:00", "02:00")
	require.NoError(t, err)
	res := v.SolarKPI(SolarParams{Seasons: []model.Season{{Name: "odd", Months: []int{1}, Window: w}}})
	// 22, 23, 0, 1, 2 are inside: 19 of 24 outside.
	pct, _ := res.SynAtNight.At("s", "odd")
	assert.Equal(t, 79.2, pct)
}

func TestWindConstantShape(t *testing.T) {
	idx := hourlyIndex(day, 24)
	wind := table(t, idx, map[string][]float64{"w": fill(24, func(int) float64 { return 7 })}, "w")
	v, err := New(Inputs{
		Consumption: wind, RefDispatch: wind, SynDispatch: wind,
		Prods: prods(t, model.Unit{Name: "w", Carrier: model.CarrierWind}),
	})
	require.NoError(t, err)

	res := v.WindKPI()
	assert.Equal(t, []float64{0}, res.SynSkewness.Column("w"))
	assert.Equal(t, []float64{0}, res.SynKurtosis.Column("w"))
	c, _ := res.SynCorr.At("w", "w")
	assert.True(t, IsUndefined(c))
}

func TestWindShortMonthIsUndefined(t *testing.T) {
	idx := []time.Time{
		time.Date(2012, 1, 31, 22, 0, 0, 0, time.UTC),
		time.Date(2012, 1, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2012, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2012, 2, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2012, 2, 1, 2, 0, 0, 0, time.UTC),
	}
	wind := table(t, idx, map[string][]float64{"w": {1, 2, 1, 2, 4}}, "w")
	v, err := New(Inputs{
		Consumption: wind, RefDispatch: wind, SynDispatch: wind,
		Prods: prods(t, model.Unit{Name: "w", Carrier: model.CarrierWind}),
	})
	require.NoError(t, err)

	res := v.WindKPI()
	assert.Equal(t, []string{"1", "2"}, res.RefSkewness.Rows)
	jan, _ := res.RefSkewness.At("1", "w")
	assert.True(t, IsUndefined(jan))
	feb, _ := res.RefSkewness.At("2", "w")
	assert.False(t, IsUndefined(feb))
	febK, _ := res.RefKurtosis.At("2", "w")
	assert.True(t, IsUndefined(febK))
}

func endToEnd(t *testing.T, plotter Plotter, imagesDir string) (*Validator, *HydroResult, *WindResult) {
	t.Helper()
	idx := hourlyIndex(day, 24)
	ref := table(t, idx, map[string][]float64{
		"hydro_1": fill(24, func(i int) float64 { return float64(i % 12) }),
		"wind_1":  fill(24, func(i int) float64 { return float64((i * 7) % 11) }),
	}, "hydro_1", "wind_1")
	syn := table(t, idx, map[string][]float64{
		"hydro_1": fill(24, func(i int) float64 { return float64(23 - i) }),
		"wind_1":  fill(24, func(i int) float64 { return float64((i * 5) % 13) }),
	}, "hydro_1", "wind_1")
	load := table(t, idx, map[string][]float64{"load_1": fill(24, func(i int) float64 { return 50 + float64(i) })}, "load_1")
	prices := table(t, idx, map[string][]float64{"price": fill(24, func(i int) float64 { return float64((i * 3) % 24) })}, "price")

	v, err := New(Inputs{
		Consumption: load, RefDispatch: ref, SynDispatch: syn,
		Year: 2012, Scenario: "0", ImagesDir: imagesDir,
		Prods: prods(t,
			model.Unit{Name: "hydro_1", Carrier: model.CarrierHydro, Zone: "R1", Pmax: 30},
			model.Unit{Name: "wind_1", Carrier: model.CarrierWind, Zone: "R1", Pmax: 20}),
		Loads:  prods(t, model.Unit{Name: "load_1", Zone: "R1", Pmax: 100}),
		Prices: prices,
	}, WithPlotter(plotter))
	require.NoError(t, err)

	hydro, err := v.HydroKPI(HydroParams{})
	require.NoError(t, err)
	return v, hydro, v.WindKPI()
}

func TestEndToEndDay(t *testing.T) {
	plotter := &recordingPlotter{}
	dir := t.TempDir()
	v, hydro, wind := endToEnd(t, plotter, dir)

	for _, vals := range []Values{hydro.RefHighPrice, hydro.RefLowPrice, hydro.SynHighPrice, hydro.SynLowPrice} {
		assert.Equal(t, []string{"hydro_1"}, vals.Keys)
	}
	assert.Equal(t, []string{"1"}, hydro.RefMonthly.Rows)
	assert.Equal(t, []string{"hydro_1"}, hydro.SynMonthly.Cols)
	m, _ := hydro.SynMonthly.At("1", "hydro_1")
	assert.Equal(t, 11.5, m)

	assert.Equal(t, []string{"wind_1"}, wind.SynCorr.Rows)
	assert.Equal(t, []string{"wind_1"}, wind.SynCorr.Cols)
	assert.Equal(t, []string{"wind_1"}, wind.RefSkewness.Cols)
	assert.Equal(t, []string{"1"}, wind.RefKurtosis.Rows)

	assert.Contains(t, plotter.paths, filepath.Join(dir, "2012", "Scenario_0", DirHydro, "high_price.png"))
	assert.Contains(t, plotter.paths, filepath.Join(dir, "2012", "Scenario_0", DirWind, "wind_corr_heatmap.png"))

	zones, err := v.WindLoadKPI()
	require.NoError(t, err)
	require.Len(t, zones, 3)
	assert.Equal(t, "R1", zones[0].Zone)
	assert.Equal(t, []string{"wind_1"}, zones[0].Corr.Rows)
	assert.Equal(t, []string{"load_1"}, zones[0].Corr.Cols)
	assert.Empty(t, zones[1].Corr.Rows)
}

func TestRoutinesAreIdempotent(t *testing.T) {
	v, _, _ := endToEnd(t, NopPlotter{}, "")
	first, err := json.Marshal(v.Results())
	require.NoError(t, err)

	_, err = v.HydroKPI(HydroParams{})
	require.NoError(t, err)
	v.WindKPI()
	v.SolarKPI(SolarParams{})
	again, err := json.Marshal(v.Results())
	require.NoError(t, err)
	v.SolarKPI(SolarParams{})
	third, err := json.Marshal(v.Results())
	require.NoError(t, err)

	assert.Contains(t, string(again), string(first[:len(first)-1]))
	assert.Equal(t, string(again), string(third))
}

func TestNuclearMaintenance(t *testing.T) {
	idx := hourlyIndex(day, 4)
	nuc := table(t, idx, map[string][]float64{"n1": {0, 0, 900, 900}, "n2": {0, 5, 0, 0}}, "n1", "n2")
	v, err := New(Inputs{
		Consumption: nuc, RefDispatch: nuc, SynDispatch: nuc,
		Prods: prods(t,
			model.Unit{Name: "n1", Carrier: model.CarrierNuclear},
			model.Unit{Name: "n2", Carrier: model.CarrierNuclear}),
	})
	require.NoError(t, err)

	res := v.NuclearKPI()
	assert.Equal(t, []float64{0, 5, 900, 900}, res.SynAggregate)
	assert.Equal(t, []float64{5, 895, 0}, res.SynLag)
	pct, _ := res.SynMaintenance.Get("1")
	assert.Equal(t, 25.0, pct)
	assert.Empty(t, v.Results().Groups())
}

func TestEnergyMixAndCarrierProduction(t *testing.T) {
	idx := hourlyIndex(day, 2)
	dispatch := table(t, idx, map[string][]float64{
		"w": {1, 3},
		"s": {0, 2},
		"x": {100, 100},
	}, "w", "s", "x")
	v, err := New(Inputs{
		Consumption: dispatch, RefDispatch: dispatch, SynDispatch: dispatch,
		Prods: prods(t,
			model.Unit{Name: "w", Carrier: model.CarrierWind},
			model.Unit{Name: "s", Carrier: model.CarrierSolar}),
	})
	require.NoError(t, err)

	mix := v.EnergyMix()
	assert.Equal(t, []string{"solar", "wind"}, mix.SynShare.Keys)
	assert.Equal(t, []float64{33.3, 66.7}, mix.SynShare.Vals)
	assert.Equal(t, []float64{2, 4}, mix.RefEnergy.Vals)

	out, err := v.CarrierProduction(CurveReference, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"solar", "wind"}, out.Columns)
	assert.Equal(t, []float64{1, 3}, out.Data[1])

	_, err = v.CarrierProduction("forecast", false)
	assert.Error(t, err)
}

func TestResultsMergeAndEncode(t *testing.T) {
	r := NewResults()
	r.Set(GroupHydro, "a", Values{Keys: []string{"u"}, Vals: []float64{Undefined}})
	r.Set(GroupWind, "b", 1.5)
	r.Set(GroupHydro, "c", NewFrame([]string{"1"}, []string{"u"}))
	r.Set(GroupHydro, "a", Values{Keys: []string{"u"}, Vals: []float64{2}})

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Hydro": {"a": {"u": 2}, "c": {"u": {"1": 0}}}, "wind_kpi": {"b": 1.5}}`, string(raw))
	assert.Equal(t, []string{GroupHydro, GroupWind}, r.Groups())

	raw, err = json.Marshal(Values{Keys: []string{"u"}, Vals: []float64{Undefined}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"u": null}`, string(raw))
}
