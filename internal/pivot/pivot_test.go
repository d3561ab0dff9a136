package pivot

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronics-kpi/internal/config"
	"chronics-kpi/internal/data"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func characteristics(t *testing.T) (*model.Characteristics, *model.Characteristics) {
	t.Helper()
	prods, err := model.NewCharacteristics([]model.Unit{
		{Name: "wind_1", Carrier: model.CarrierWind, Zone: "R1", Pmax: 100},
		{Name: "solar_1", Carrier: model.CarrierSolar, Zone: "R1", Pmax: 50},
	})
	require.NoError(t, err)
	loads, err := model.NewCharacteristics([]model.Unit{
		{Name: "load_1", Zone: "R1", Pmax: 10},
	})
	require.NoError(t, err)
	return prods, loads
}

func texasFixture(t *testing.T, comparison string) (kpiDir, chronicsDir string) {
	root := t.TempDir()
	kpiDir = filepath.Join(root, "kpi")
	caseDir := filepath.Join(kpiDir, "texas")
	writeFile(t, filepath.Join(caseDir, data.KPIParamsFile), `{"comparison": "`+comparison+`", "timestep": "60min"}`)

	var wind, solar, load strings.Builder
	wind.WriteString("time,wind_1\n")
	solar.WriteString("time,solar_1\n")
	load.WriteString("time,R1\n")
	for h := 0; h < 6; h++ {
		ts := time.Date(2007, 1, 1, h, 0, 0, 0, time.UTC).Format("2006-01-02 15:04")
		wind.WriteString(ts + ",10\n")
		solar.WriteString(ts + ",1\n")
		load.WriteString(ts + ",100\n")
	}
	writeFile(t, filepath.Join(caseDir, data.NRELFolder, "wind.csv"), wind.String())
	writeFile(t, filepath.Join(caseDir, data.NRELFolder, "solar.csv"), solar.String())
	writeFile(t, filepath.Join(caseDir, data.NRELFolder, "load.csv"), load.String())

	chronicsDir = filepath.Join(root, "chronics", "2007", "Scenario_0")
	var prod, ld strings.Builder
	prod.WriteString("wind_1;solar_1;extra\n")
	ld.WriteString("load_1\n")
	for i := 0; i < 8; i++ {
		prod.WriteString("2;4;0\n")
		ld.WriteString("50\n")
	}
	writeFile(t, filepath.Join(chronicsDir, data.ProdFile), prod.String())
	writeFile(t, filepath.Join(chronicsDir, data.LoadFile), ld.String())
	writeFile(t, filepath.Join(chronicsDir, "start_datetime.info"), "2007-01-01 00:00")
	writeFile(t, filepath.Join(chronicsDir, "time_interval.info"), "00:30")
	return kpiDir, chronicsDir
}

func TestPivotTexasWindSolar(t *testing.T) {
	kpiDir, chronicsDir := texasFixture(t, "Texas")
	prods, loads := characteristics(t)

	res, err := Pivot(Request{
		ChronicsDir:   chronicsDir,
		KPIInputDir:   kpiDir,
		Case:          "texas",
		Year:          2007,
		Prods:         prods,
		Loads:         loads,
		WindSolarOnly: true,
	})
	require.NoError(t, err)

	// Synthetic half-hourly rows cover 4 hours, reference covers 6.
	assert.Equal(t, 4, res.RefProd.Len())
	assert.True(t, res.RefProd.Aligned(res.SynProd))
	assert.True(t, res.RefLoad.Aligned(res.SynLoad))
	assert.Equal(t, time.Hour, res.SynProd.Step())
	assert.Nil(t, res.RefPrices)
	assert.Nil(t, res.SynPrices)

	w, ok := res.SynProd.Column("wind_1")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 2, 2, 2}, w)
	l, _ := res.RefLoad.Column("load_1")
	assert.Equal(t, []float64{100, 100, 100, 100}, l)
	assert.Equal(t, config.ComparisonTexas, res.Config.Comparison)
	assert.Same(t, prods, res.Prods)
}

func franceFixture(t *testing.T) (kpiDir, chronicsDir string, prods, loads *model.Characteristics) {
	root := t.TempDir()
	kpiDir = filepath.Join(root, "kpi")
	caseDir := filepath.Join(kpiDir, "france")
	writeFile(t, filepath.Join(caseDir, data.KPIParamsFile),
		`{"comparison": "France", "timestep": "60min", "regions": {"R1": "North"}}`)

	var region, prices strings.Builder
	region.WriteString("time;Wind;Solar;Hydro;Nuclear;consumption\n")
	prices.WriteString("time;price\n")
	for h := 0; h < 6; h++ {
		ts := time.Date(2012, 1, 1, h, 0, 0, 0, time.UTC).Format("2006-01-02 15:04")
		region.WriteString(ts + ";300;" + strconv.Itoa(h) + ";" + strconv.Itoa(100*h) + ";900;1000\n")
		prices.WriteString(ts + ";" + strconv.Itoa(20+10*h) + "\n")
	}
	writeFile(t, filepath.Join(caseDir, data.Eco2mixFolder, "North.csv"), region.String())
	writeFile(t, filepath.Join(caseDir, data.Eco2mixFolder, data.PricesFile), prices.String())

	chronicsDir = filepath.Join(root, "chronics", "2012", "Scenario_0")
	var prod, ld, price strings.Builder
	prod.WriteString("wind_1;solar_1;hydro_1;nuc_1\n")
	ld.WriteString("load_1\n")
	price.WriteString("price\n")
	for i := 0; i < 8; i++ {
		prod.WriteString("2;4;" + strconv.Itoa(10*i) + ";800\n")
		ld.WriteString("50\n")
		price.WriteString(strconv.Itoa(40+i) + "\n")
	}
	writeFile(t, filepath.Join(chronicsDir, data.ProdFile), prod.String())
	writeFile(t, filepath.Join(chronicsDir, data.LoadFile), ld.String())
	writeFile(t, filepath.Join(chronicsDir, data.PricesFile), price.String())
	writeFile(t, filepath.Join(chronicsDir, "start_datetime.info"), "2012-01-01 00:00")
	writeFile(t, filepath.Join(chronicsDir, "time_interval.info"), "00:30")

	var err error
	prods, err = model.NewCharacteristics([]model.Unit{
		{Name: "wind_1", Carrier: model.CarrierWind, Zone: "R1", Pmax: 100},
		{Name: "solar_1", Carrier: model.CarrierSolar, Zone: "R1", Pmax: 50},
		{Name: "hydro_1", Carrier: model.CarrierHydro, Zone: "R1", Pmax: 500},
		{Name: "nuc_1", Carrier: model.CarrierNuclear, Zone: "R1", Pmax: 900},
	})
	require.NoError(t, err)
	loads, err = model.NewCharacteristics([]model.Unit{{Name: "load_1", Zone: "R1", Pmax: 10}})
	require.NoError(t, err)
	return kpiDir, chronicsDir, prods, loads
}

func TestPivotFranceFullMix(t *testing.T) {
	kpiDir, chronicsDir, prods, loads := franceFixture(t)

	res, err := Pivot(Request{
		ChronicsDir: chronicsDir,
		KPIInputDir: kpiDir,
		Case:        "france",
		Year:        2012,
		Prods:       prods,
		Loads:       loads,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"R1": "North"}, res.Config.Regions)

	// Synthetic half-hourly rows cover 4 hours, reference covers 6.
	require.Equal(t, 4, res.RefProd.Len())
	require.NotNil(t, res.RefPrices)
	require.NotNil(t, res.SynPrices)
	for _, tbl := range []*timeseries.Table{res.RefLoad, res.SynProd, res.SynLoad, res.RefPrices, res.SynPrices} {
		assert.True(t, res.RefProd.Aligned(tbl))
	}
	assert.Equal(t, time.Hour, res.SynPrices.Step())

	hydro, ok := res.RefProd.Column("hydro_1")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 100, 200, 300}, hydro)
	nuc, _ := res.RefProd.Column("nuc_1")
	assert.Equal(t, []float64{900, 900, 900, 900}, nuc)

	synHydro, _ := res.SynProd.Column("hydro_1")
	assert.Equal(t, []float64{5, 25, 45, 65}, synHydro)
	assert.Equal(t, []float64{20, 30, 40, 50}, res.RefPrices.Data[0])
	assert.Equal(t, []float64{40.5, 42.5, 44.5, 46.5}, res.SynPrices.Data[0])
}

func TestPivotTexasFullMixIsConfigError(t *testing.T) {
	kpiDir, chronicsDir := texasFixture(t, "Texas")
	prods, loads := characteristics(t)

	_, err := Pivot(Request{ChronicsDir: chronicsDir, KPIInputDir: kpiDir, Case: "texas", Year: 2007, Prods: prods, Loads: loads})
	require.Error(t, err)
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "comparison", cfgErr.Field)
	assert.Equal(t, "Texas", cfgErr.Value)
}

func TestPivotUnknownComparison(t *testing.T) {
	kpiDir, chronicsDir := texasFixture(t, "Mars")
	prods, loads := characteristics(t)

	_, err := Pivot(Request{ChronicsDir: chronicsDir, KPIInputDir: kpiDir, Case: "texas", Year: 2007, Prods: prods, Loads: loads, WindSolarOnly: true})
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "Mars")
}

func TestSelectAdapter(t *testing.T) {
	cfg := &config.KPIConfig{Comparison: config.ComparisonFrance, Regions: config.DefaultRegions()}

	a, err := SelectAdapter(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, data.RenewableNinjaFolder, a.Name())

	a, err = SelectAdapter(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, data.Eco2mixFolder, a.Name())
}
