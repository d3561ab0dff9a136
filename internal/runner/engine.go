// Package runner chains characteristics loading, pivoting, KPI computation
// and reporting for every scenario of a run configuration.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"chronics-kpi/internal/config"
	"chronics-kpi/internal/data"
	"chronics-kpi/internal/kpi"
	"chronics-kpi/internal/pivot"
	"chronics-kpi/internal/report"
)

// Engine runs KPI comparisons. It holds no per-run state and can serve
// concurrent runs with different configurations.
type Engine struct {
	logger  *zap.Logger
	plotter kpi.Plotter
	observe func(scenario string, d time.Duration, err error)
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithPlotter(p kpi.Plotter) Option {
	return func(e *Engine) { e.plotter = p }
}

// WithObserver is called once per scenario with its duration and outcome.
func WithObserver(fn func(scenario string, d time.Duration, err error)) Option {
	return func(e *Engine) { e.observe = fn }
}

func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop(), plotter: kpi.NopPlotter{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ScenarioResult is the outcome of one (year, scenario) comparison.
type ScenarioResult struct {
	Scenario   string
	Benchmark  string
	Rows       int
	Results    *kpi.Results
	WindLoad   []kpi.ZoneCorrelation
	Summary    []report.SummaryRow
	ReportPath string
}

// Result gathers every scenario of a run, in configuration order.
type Result struct {
	Case      string
	Year      int
	Scenarios []ScenarioResult
}

// Run validates cfg and computes every KPI for each configured scenario.
// A failing scenario stops the run; reports already written are kept.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prods, loads, err := data.LoadCharacteristics(cfg.CharacteristicsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to load characteristics: %w", err)
	}

	out := &Result{Case: cfg.Case, Year: cfg.Year}
	for _, scenario := range cfg.Scenarios {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := time.Now()
		sr, err := e.runScenario(cfg, scenario, pivot.Request{
			ChronicsDir:   cfg.ScenarioDir(scenario),
			KPIInputDir:   cfg.Paths.KPIInput,
			Case:          cfg.Case,
			Year:          cfg.Year,
			Prods:         prods,
			Loads:         loads,
			WindSolarOnly: cfg.WindSolarOnly,
		})
		if e.observe != nil {
			e.observe(scenario, time.Since(start), err)
		}
		if err != nil {
			return out, fmt.Errorf("scenario %s: %w", scenario, err)
		}
		out.Scenarios = append(out.Scenarios, *sr)
	}
	return out, nil
}

func (e *Engine) runScenario(cfg *config.Config, scenario string, req pivot.Request) (*ScenarioResult, error) {
	log := e.logger.With(zap.String("case", cfg.Case), zap.Int("year", cfg.Year), zap.String("scenario", scenario))

	pr, err := pivot.Pivot(req, pivot.WithLogger(log))
	if err != nil {
		return nil, err
	}
	adapter, err := pivot.SelectAdapter(pr.Config, cfg.WindSolarOnly)
	if err != nil {
		return nil, err
	}
	seasons, err := pr.Config.Seasons()
	if err != nil {
		return nil, err
	}

	v, err := kpi.New(kpi.Inputs{
		Consumption: pr.SynLoad,
		RefDispatch: pr.RefProd,
		SynDispatch: pr.SynProd,
		Year:        cfg.Year,
		Scenario:    scenario,
		ImagesDir:   cfg.Paths.Images,
		Prods:       pr.Prods,
		Loads:       pr.Loads,
		Prices:      pr.RefPrices,
		SynPrices:   pr.SynPrices,
	},
		kpi.WithLogger(log),
		kpi.WithPlotter(e.plotter),
		kpi.WithSeasons(seasons),
		kpi.WithZones(pr.Config.Zones),
	)
	if err != nil {
		return nil, err
	}

	sr := &ScenarioResult{Scenario: scenario, Benchmark: adapter.Name(), Rows: pr.RefProd.Len()}

	v.EnergyMix()
	for _, curve := range []string{kpi.CurveReference, kpi.CurveSynthetic} {
		if _, err := v.CarrierProduction(curve, cfg.WindSolarOnly); err != nil {
			return nil, err
		}
	}
	if !cfg.WindSolarOnly {
		if _, err := v.HydroKPI(kpi.HydroParams(cfg.KPI.Hydro)); err != nil {
			return nil, err
		}
	}
	v.WindKPI()
	v.SolarKPI(kpi.SolarParams{
		CloudQuantile: cfg.KPI.Solar.CloudQuantile,
		CondFactor:    cfg.KPI.Solar.CondFactor,
		Aggregated:    cfg.KPI.Solar.Aggregated,
	})
	if sr.WindLoad, err = v.WindLoadKPI(); err != nil {
		log.Warn("wind-load KPI skipped", zap.Error(err))
	}
	if !cfg.WindSolarOnly {
		v.NuclearKPI()
	}
	sr.Results = v.Results()
	sr.Summary = append(report.Summaries(kpi.CurveReference, pr.RefProd), report.Summaries(kpi.CurveSynthetic, pr.SynProd)...)

	if sr.ReportPath, err = report.WriteResults(cfg.Paths.Report, cfg.Year, scenario, sr.Results); err != nil {
		return nil, err
	}
	summaryPath := filepath.Join(report.ScenarioDir(cfg.Paths.Report, cfg.Year, scenario), report.SummaryFile)
	if err := report.WriteSummaryCSV(summaryPath, sr.Summary); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}
	log.Info("scenario done",
		zap.String("benchmark", sr.Benchmark),
		zap.Int("rows", sr.Rows),
		zap.String("report", sr.ReportPath),
		zap.String("images", v.ImageDir()))
	return sr, nil
}
