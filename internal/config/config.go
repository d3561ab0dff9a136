package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk run configuration shape (YAML).
type Config struct {
	Case          string   `yaml:"case"`
	Year          int      `yaml:"year"`
	Scenarios     []string `yaml:"scenarios"`
	WindSolarOnly bool     `yaml:"wind_solar_only"`

	Paths PathsConfig `yaml:"paths"`

	// Optional: load KPI parameters from a separate YAML (e.g. examples/kpi/*.yaml).
	// If both KPIFile and KPI are provided, KPI overrides KPIFile.
	KPIFile string    `yaml:"kpi_file"`
	KPI     KPIParams `yaml:"kpi"`
}

type PathsConfig struct {
	// Chronics holds <year>/Scenario_<id>/ generated folders.
	Chronics string `yaml:"chronics"`
	// KPIInput holds <case>/paramsKPI.json and the benchmark folders.
	KPIInput string `yaml:"kpi_input"`
	// GenerationInput holds <case>/prods_charac.csv and loads_charac.csv.
	GenerationInput string `yaml:"generation_input"`
	Images          string `yaml:"images"`
	Report          string `yaml:"report"`
}

// KPIParams are the tunable thresholds of the KPI routines.
type KPIParams struct {
	Hydro HydroConfig `yaml:"hydro"`
	Solar SolarConfig `yaml:"solar"`
}

type HydroConfig struct {
	UpperQuantile float64 `yaml:"upper_quantile"`
	LowerQuantile float64 `yaml:"lower_quantile"`
	UpperCap      float64 `yaml:"upper_cap"`
	LowerCap      float64 `yaml:"lower_cap"`
}

type SolarConfig struct {
	CloudQuantile float64 `yaml:"cloud_quantile"`
	CondFactor    float64 `yaml:"cond_factor"`
	Aggregated    bool    `yaml:"aggregated"`
}

// DefaultKPIParams returns the standard thresholds.
func DefaultKPIParams() KPIParams {
	return KPIParams{
		Hydro: HydroConfig{UpperQuantile: 0.95, LowerQuantile: 0.05, UpperCap: 0.9, LowerCap: 0.1},
		Solar: SolarConfig{CloudQuantile: 0.95, CondFactor: 0.57},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.KPI = MergeKPIParams(DefaultKPIParams(), c.KPI)
	if c.Paths.Images == "" && c.Paths.Report != "" {
		c.Paths.Images = filepath.Join(c.Paths.Report, "images")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	if c.KPIFile != "" {
		loaded, err := loadKPIFile(resolve(base, c.KPIFile))
		if err != nil {
			return nil, err
		}
		c.KPI = MergeKPIParams(loaded, c.KPI)
	}
	c.Paths.Resolve(base)
	return &c, nil
}

// Resolve makes relative paths relative to base.
func (p *PathsConfig) Resolve(base string) {
	for _, f := range []*string{&p.Chronics, &p.KPIInput, &p.GenerationInput, &p.Images, &p.Report} {
		if *f != "" && !filepath.IsAbs(*f) {
			*f = filepath.Join(base, *f)
		}
	}
}

// resolve prefers interpreting relative paths as relative to the config file
// directory, but falls back to the provided path (relative to cwd).
func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(base, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Case == "" {
		return invalid("case", "", "is required")
	}
	if !isPathSegment(c.Case) {
		return invalid("case", c.Case, "must be a plain folder name")
	}
	if c.Year < 1900 || c.Year > 2200 {
		return invalid("year", strconv.Itoa(c.Year), "must be in 1900..2200")
	}
	if len(c.Scenarios) == 0 {
		return invalid("scenarios", "", "at least one scenario is required")
	}
	for _, s := range c.Scenarios {
		if s == "" {
			return invalid("scenarios", "", "scenario id must be non-empty")
		}
		if !isPathSegment(s) {
			return invalid("scenarios", s, "scenario id must be a plain folder name")
		}
	}
	for _, f := range []struct{ name, v string }{
		{"paths.chronics", c.Paths.Chronics},
		{"paths.kpi_input", c.Paths.KPIInput},
		{"paths.generation_input", c.Paths.GenerationInput},
		{"paths.report", c.Paths.Report},
	} {
		if f.v == "" {
			return invalid(f.name, "", "is required")
		}
	}
	if err := c.KPI.Validate(); err != nil {
		return fmt.Errorf("kpi params: %w", err)
	}
	return nil
}

// isPathSegment reports whether s names a single entry inside a folder.
func isPathSegment(s string) bool {
	if s == "." || s == ".." || strings.Contains(s, "..") {
		return false
	}
	if strings.ContainsAny(s, `/\`) {
		return false
	}
	return filepath.Base(s) == s
}

func (p KPIParams) Validate() error {
	h := p.Hydro
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"kpi.hydro.upper_quantile", h.UpperQuantile},
		{"kpi.hydro.lower_quantile", h.LowerQuantile},
		{"kpi.hydro.upper_cap", h.UpperCap},
		{"kpi.hydro.lower_cap", h.LowerCap},
		{"kpi.solar.cloud_quantile", p.Solar.CloudQuantile},
	} {
		if f.v < 0 || f.v > 1 {
			return invalid(f.name, strconv.FormatFloat(f.v, 'g', -1, 64), "must be in [0, 1]")
		}
	}
	if h.LowerQuantile >= h.UpperQuantile {
		return invalid("kpi.hydro.lower_quantile", strconv.FormatFloat(h.LowerQuantile, 'g', -1, 64), "must be < upper_quantile")
	}
	if h.LowerCap >= h.UpperCap {
		return invalid("kpi.hydro.lower_cap", strconv.FormatFloat(h.LowerCap, 'g', -1, 64), "must be < upper_cap")
	}
	if p.Solar.CondFactor <= 0 {
		return invalid("kpi.solar.cond_factor", strconv.FormatFloat(p.Solar.CondFactor, 'g', -1, 64), "must be > 0")
	}
	return nil
}

type kpiFileWrapper struct {
	KPI KPIParams `yaml:"kpi"`
}

func loadKPIFile(path string) (KPIParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return KPIParams{}, err
	}
	var w kpiFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return KPIParams{}, err
	}
	return w.KPI, nil
}

// MergeKPIParams overlays non-zero fields from override onto base.
// This is used when loading a KPI file and then applying overrides from the request.
func MergeKPIParams(base, override KPIParams) KPIParams {
	out := base
	if override.Hydro.UpperQuantile != 0 {
		out.Hydro.UpperQuantile = override.Hydro.UpperQuantile
	}
	if override.Hydro.LowerQuantile != 0 {
		out.Hydro.LowerQuantile = override.Hydro.LowerQuantile
	}
	if override.Hydro.UpperCap != 0 {
		out.Hydro.UpperCap = override.Hydro.UpperCap
	}
	if override.Hydro.LowerCap != 0 {
		out.Hydro.LowerCap = override.Hydro.LowerCap
	}
	if override.Solar.CloudQuantile != 0 {
		out.Solar.CloudQuantile = override.Solar.CloudQuantile
	}
	if override.Solar.CondFactor != 0 {
		out.Solar.CondFactor = override.Solar.CondFactor
	}
	// Note: a false override cannot switch aggregation back off.
	if override.Solar.Aggregated {
		out.Solar.Aggregated = true
	}
	return out
}

// ScenarioDir is the chronics folder of one scenario.
func (c *Config) ScenarioDir(scenario string) string {
	return filepath.Join(c.Paths.Chronics, strconv.Itoa(c.Year), "Scenario_"+scenario)
}

// CaseInputDir is the KPI input folder of the configured case.
func (c *Config) CaseInputDir() string {
	return filepath.Join(c.Paths.KPIInput, c.Case)
}

// CharacteristicsDir is the folder holding the case characteristics.
func (c *Config) CharacteristicsDir() string {
	return filepath.Join(c.Paths.GenerationInput, c.Case)
}
