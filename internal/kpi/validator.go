// Package kpi compares a reference dispatch against a synthetic one with
// descriptive statistics: correlation matrices, seasonal aggregates,
// quantile based cloudiness and price regimes, distribution shape metrics.
//
// A Validator serves one (year, scenario) pair. Each routine stores its
// values into a shared Results accumulator and hands finished tables to a
// Plotter; plotting failures are logged and never abort a routine.
package kpi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// Artifact sub-folders created under <images>/<year>/Scenario_<id>/.
const (
	DirDispatchView = "dispatch_view"
	DirWind         = "wind_kpi"
	DirWindLoad     = "wind_load_kpi"
	DirSolar        = "solar_kpi"
	DirNuclear      = "nuclear_kpi"
	DirHydro        = "hydro_kpi"
)

var artifactDirs = []string{DirDispatchView, DirWind, DirWindLoad, DirSolar, DirNuclear, DirHydro}

// Decimals used when rounding stored values.
const (
	precision      = 1
	shapePrecision = 2
)

// Inputs are the aligned tables of one comparison. Prices and SynPrices are
// nil in wind/solar only mode.
type Inputs struct {
	Consumption *timeseries.Table
	RefDispatch *timeseries.Table
	SynDispatch *timeseries.Table

	Year     int
	Scenario string
	// ImagesDir is the artifacts root; empty disables artifacts.
	ImagesDir string

	Prods *model.Characteristics
	Loads *model.Characteristics

	Prices    *timeseries.Table
	SynPrices *timeseries.Table
}

// Validator computes the KPIs of one (year, scenario).
type Validator struct {
	in       Inputs
	imageDir string

	aggConso  []float64
	aggRefDis []float64
	aggSynDis []float64
	months    []int

	seasons []model.Season
	zones   []string

	results *Results
	logger  *zap.Logger
	plotter Plotter
}

type Option func(*Validator)

func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

func WithPlotter(p Plotter) Option {
	return func(v *Validator) { v.plotter = p }
}

// WithSeasons sets the seasons used by the solar at night KPI when the call
// does not override them.
func WithSeasons(s []model.Season) Option {
	return func(v *Validator) { v.seasons = s }
}

// WithZones sets the zones of the wind-load coupling KPI.
func WithZones(z []string) Option {
	return func(v *Validator) { v.zones = z }
}

// WithResults makes the validator write into an existing accumulator.
func WithResults(r *Results) Option {
	return func(v *Validator) { v.results = r }
}

// New checks that every table shares one index and prepares the artifacts
// folders. Folder creation is idempotent.
func New(in Inputs, opts ...Option) (*Validator, error) {
	if in.Consumption == nil || in.RefDispatch == nil || in.SynDispatch == nil {
		return nil, errors.New("consumption, reference and synthetic dispatch are required")
	}
	if in.Prods == nil {
		return nil, errors.New("production characteristics are required")
	}
	for _, tb := range []struct {
		name string
		t    *timeseries.Table
	}{
		{"consumption", in.Consumption},
		{"synthetic dispatch", in.SynDispatch},
		{"prices", in.Prices},
		{"synthetic prices", in.SynPrices},
	} {
		if tb.t == nil {
			continue
		}
		if !tb.t.Aligned(in.RefDispatch) {
			return nil, fmt.Errorf("%s index differs from reference dispatch index", tb.name)
		}
	}
	for _, p := range []*timeseries.Table{in.Prices, in.SynPrices} {
		if p != nil && p.Width() == 0 {
			return nil, errors.New("price table has no column")
		}
	}

	v := &Validator{
		in:      in,
		seasons: model.DefaultSeasons(),
		zones:   []string{"R1", "R2", "R3"},
		logger:  zap.NewNop(),
		plotter: NopPlotter{},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.results == nil {
		v.results = NewResults()
	}
	v.logger = v.logger.With(zap.Int("year", in.Year), zap.String("scenario", in.Scenario))

	if in.ImagesDir != "" {
		v.imageDir = filepath.Join(in.ImagesDir, strconv.Itoa(in.Year), "Scenario_"+in.Scenario)
		for _, d := range artifactDirs {
			if err := os.MkdirAll(filepath.Join(v.imageDir, d), 0755); err != nil {
				return nil, fmt.Errorf("failed to create artifacts folder: %w", err)
			}
		}
	} else {
		v.plotter = NopPlotter{}
	}

	v.aggConso = in.Consumption.RowSums()
	v.aggRefDis = in.RefDispatch.RowSums()
	v.aggSynDis = in.SynDispatch.RowSums()
	v.months = timeseries.Months(in.RefDispatch.Index)
	return v, nil
}

// Results is the accumulator every routine writes into.
func (v *Validator) Results() *Results { return v.results }

// ImageDir is the artifacts folder of this (year, scenario), empty when
// artifacts are disabled.
func (v *Validator) ImageDir() string { return v.imageDir }

// Months is the calendar month of every row of the shared index.
func (v *Validator) Months() []int { return v.months }

// Aggregates returns the entity-summed consumption, reference and synthetic
// dispatch series.
func (v *Validator) Aggregates() (consumption, ref, syn *timeseries.Series) {
	idx := v.in.RefDispatch.Index
	return &timeseries.Series{Name: "consumption", Index: idx, Values: v.aggConso},
		&timeseries.Series{Name: "reference", Index: idx, Values: v.aggRefDis},
		&timeseries.Series{Name: "synthetic", Index: idx, Values: v.aggSynDis}
}

// PairwiseCorrelation correlates every column of a with every column of b
// over the shared index, rounded to one decimal. Degenerate pairs (zero
// variance, fewer than two points) are Undefined.
func PairwiseCorrelation(a, b *timeseries.Table) Frame {
	f := NewFrame(a.Columns, b.Columns)
	for i, x := range a.Data {
		for j, y := range b.Data {
			r, ok := analysis.Pearson(x, y)
			if !ok {
				f.Values[i][j] = Undefined
				continue
			}
			f.Values[i][j] = analysis.Round(r, precision)
		}
	}
	return f
}

// units selects the columns of t whose units have the given carrier, in
// characteristics order. Names absent from t are logged and skipped.
func (v *Validator) units(t *timeseries.Table, carrier model.Carrier, role string) *timeseries.Table {
	return v.selectNames(t, v.in.Prods.NamesByCarrier(carrier), string(carrier), role)
}

func (v *Validator) selectNames(t *timeseries.Table, names []string, what, role string) *timeseries.Table {
	sel, missing := t.Select(names)
	if len(missing) > 0 {
		v.logger.Warn("units missing from dispatch",
			zap.String("selection", what),
			zap.String("role", role),
			zap.Strings("units", missing))
	}
	return sel
}

// artifact returns the path of an artifact file, empty when disabled.
func (v *Validator) artifact(dir, file string) string {
	if v.imageDir == "" {
		return ""
	}
	return filepath.Join(v.imageDir, dir, file)
}

func (v *Validator) plotErr(path string, err error) {
	if err != nil {
		v.logger.Warn("failed to render artifact", zap.String("path", path), zap.Error(err))
	}
}

func (v *Validator) barCharts(dir, file, title string, ref, syn Values) {
	path := v.artifact(dir, file)
	if path == "" {
		return
	}
	v.plotErr(path, v.plotter.BarCharts(path, title,
		Bars{Title: "Reference " + title, Labels: ref.Keys, Values: ref.Vals},
		Bars{Title: "Synthetic " + title, Labels: syn.Keys, Values: syn.Vals}))
}

// monthlyMean averages every column per calendar month; rows are month
// labels in ascending order.
func monthlyMean(t *timeseries.Table, months []int, digits int) Frame {
	var present []int
	seen := map[int]bool{}
	for _, m := range months {
		if !seen[m] {
			seen[m] = true
			present = append(present, m)
		}
	}
	sort.Ints(present)
	labels := make([]string, len(present))
	for i, m := range present {
		labels[i] = timeseries.MonthLabel(m)
	}

	f := NewFrame(labels, t.Columns)
	for r, m := range present {
		for c, col := range t.Data {
			var vals []float64
			for i, mm := range months {
				if mm == m {
					vals = append(vals, col[i])
				}
			}
			vals = analysis.Finite(vals)
			if len(vals) == 0 {
				f.Values[r][c] = Undefined
				continue
			}
			f.Values[r][c] = analysis.Round(analysis.Mean(vals), digits)
		}
	}
	return f
}

// bucketStat applies fn to the finite values of every column in every
// bucket. Rows are bucket labels.
func bucketStat(t *timeseries.Table, buckets []timeseries.Bucket, fn func([]float64) (float64, bool), digits int) Frame {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
	}
	f := NewFrame(labels, t.Columns)
	for r, b := range buckets {
		for c, col := range t.Data {
			vals := make([]float64, len(b.Rows))
			for i, row := range b.Rows {
				vals[i] = col[row]
			}
			s, ok := fn(analysis.Finite(vals))
			if !ok {
				f.Values[r][c] = Undefined
				continue
			}
			f.Values[r][c] = analysis.Round(s, digits)
		}
	}
	return f
}
