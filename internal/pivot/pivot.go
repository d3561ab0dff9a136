// Package pivot reshapes a benchmark dataset and a generated scenario into
// aligned tables on the common schema, ready for KPI computation.
package pivot

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"chronics-kpi/internal/config"
	"chronics-kpi/internal/data"
	"chronics-kpi/internal/model"
	"chronics-kpi/internal/timeseries"
)

// Request selects the scenario and benchmark to compare.
type Request struct {
	// ChronicsDir is the generated scenario folder.
	ChronicsDir string
	// KPIInputDir holds one folder per case with paramsKPI.json.
	KPIInputDir   string
	Case          string
	Year          int
	Prods         *model.Characteristics
	Loads         *model.Characteristics
	WindSolarOnly bool
}

// Result holds aligned reference and synthetic tables. Prices are nil in
// wind/solar only mode.
type Result struct {
	RefProd *timeseries.Table
	RefLoad *timeseries.Table
	SynProd *timeseries.Table
	SynLoad *timeseries.Table

	Config *config.KPIConfig

	RefPrices *timeseries.Table
	SynPrices *timeseries.Table

	Prods *model.Characteristics
	Loads *model.Characteristics
}

type options struct {
	logger *zap.Logger
}

type Option func(*options)

// WithLogger sets the logger reporting degraded inputs.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Pivot loads paramsKPI.json of the case, normalizes the benchmark and the
// scenario, resamples both to the configured step and trims them to their
// common timestamps.
func Pivot(req Request, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if req.Prods == nil || req.Loads == nil {
		return nil, fmt.Errorf("pivot: characteristics are required")
	}

	caseDir := filepath.Join(req.KPIInputDir, req.Case)
	cfg, err := config.LoadKPIConfig(filepath.Join(caseDir, data.KPIParamsFile))
	if err != nil {
		return nil, err
	}
	adapter, err := SelectAdapter(cfg, req.WindSolarOnly)
	if err != nil {
		return nil, err
	}
	log := o.logger.With(zap.String("case", req.Case), zap.String("benchmark", adapter.Name()), zap.Int("year", req.Year))

	ref, err := adapter.Load(caseDir, req.Year, req.Prods, req.Loads)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s reference: %w", adapter.Name(), err)
	}
	if len(ref.Missing) > 0 {
		log.Warn("units without reference series", zap.Strings("units", ref.Missing))
	}

	syn, err := data.ChronicsAdapter{Thermal: !req.WindSolarOnly}.Load(req.ChronicsDir, req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load chronics %s: %w", req.ChronicsDir, err)
	}
	if unknown := unknownColumns(syn.Prod, req.Prods); len(unknown) > 0 {
		log.Warn("generated units missing from characteristics", zap.Strings("units", unknown))
	}
	if _, absent := syn.Prod.Select(req.Prods.Names()); len(absent) > 0 {
		log.Debug("characteristics units without generated series", zap.Strings("units", absent))
	}

	step := cfg.Timestep.Duration()
	tables := []*timeseries.Table{ref.Prod, ref.Load, syn.Prod, syn.Load, ref.Prices, syn.Prices}
	for i, t := range tables {
		if t == nil {
			continue
		}
		if tables[i], err = t.Resample(step); err != nil {
			return nil, err
		}
	}
	aligned, err := timeseries.Intersect(tables...)
	if err != nil {
		return nil, fmt.Errorf("reference and synthetic data do not overlap in %d: %w", req.Year, err)
	}
	log.Debug("pivot done",
		zap.Duration("timestep", step),
		zap.Int("rows", aligned[0].Len()),
		zap.Int("ref_units", aligned[0].Width()),
		zap.Int("syn_units", aligned[2].Width()))

	return &Result{
		RefProd:   aligned[0],
		RefLoad:   aligned[1],
		SynProd:   aligned[2],
		SynLoad:   aligned[3],
		RefPrices: aligned[4],
		SynPrices: aligned[5],
		Config:    cfg,
		Prods:     req.Prods,
		Loads:     req.Loads,
	}, nil
}

// SelectAdapter picks the benchmark adapter for a comparison and mode.
func SelectAdapter(cfg *config.KPIConfig, windSolarOnly bool) (data.ReferenceAdapter, error) {
	switch cfg.Comparison {
	case config.ComparisonFrance:
		if windSolarOnly {
			return data.RenewableNinjaAdapter{Regions: cfg.Regions}, nil
		}
		return data.Eco2mixAdapter{Regions: cfg.Regions}, nil
	case config.ComparisonTexas:
		if windSolarOnly {
			return data.NRELAdapter{}, nil
		}
		return nil, &config.Error{Field: "comparison", Value: cfg.Comparison, Reason: "no full energy mix benchmark available"}
	default:
		return nil, &config.Error{Field: "comparison", Value: cfg.Comparison, Reason: "unknown benchmark, expected France or Texas"}
	}
}

func unknownColumns(t *timeseries.Table, c *model.Characteristics) []string {
	var out []string
	for _, name := range t.Columns {
		if _, ok := c.Lookup(name); !ok {
			out = append(out, name)
		}
	}
	return out
}
