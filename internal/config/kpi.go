package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"chronics-kpi/internal/model"
)

// Supported comparison benchmarks.
const (
	ComparisonFrance = "France"
	ComparisonTexas  = "Texas"
)

// KPIConfig is the per-case paramsKPI.json.
type KPIConfig struct {
	Comparison     string              `json:"comparison"`
	Timestep       Timestep            `json:"timestep"`
	MonthlyPattern map[string][]int    `json:"monthly_pattern,omitempty"`
	Hours          map[string][]string `json:"hours,omitempty"`

	// Regions maps a grid zone to its benchmark region (France only).
	Regions map[string]string `json:"regions,omitempty"`
	// Zones used by the wind-load coupling KPI.
	Zones []string `json:"zones,omitempty"`
}

// DefaultSeasons are used when paramsKPI.json has no monthly_pattern.
func DefaultSeasons() []model.Season { return model.DefaultSeasons() }

// DefaultRegions is the France zone to region correspondence.
func DefaultRegions() map[string]string {
	return map[string]string{
		"R1": "Hauts-de-France",
		"R2": "Nouvelle-Aquitaine",
		"R3": "PACA",
	}
}

// DefaultZones are the zones used by the wind-load coupling KPI.
func DefaultZones() []string { return []string{"R1", "R2", "R3"} }

// LoadKPIConfig reads, defaults and validates a paramsKPI.json file.
func LoadKPIConfig(path string) (*KPIConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read KPI params: %w", err)
	}
	var c KPIConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults fills regions (France) and zones when absent.
func (c *KPIConfig) ApplyDefaults() {
	if len(c.Regions) == 0 && c.Comparison == ComparisonFrance {
		c.Regions = DefaultRegions()
	}
	if len(c.Zones) == 0 {
		c.Zones = DefaultZones()
	}
}

func (c *KPIConfig) Validate() error {
	if c == nil {
		return invalid("paramsKPI", "", "config is nil")
	}
	switch c.Comparison {
	case ComparisonFrance, ComparisonTexas:
	case "":
		return invalid("comparison", "", "is required")
	default:
		return invalid("comparison", c.Comparison, "unknown benchmark, expected France or Texas")
	}
	if c.Timestep <= 0 {
		return invalid("timestep", c.Timestep.String(), "must be > 0")
	}
	if _, err := c.Seasons(); err != nil {
		return err
	}
	for zone, region := range c.Regions {
		if zone == "" || strings.TrimSpace(region) == "" {
			return invalid("regions", zone, "zone and region must be non-empty")
		}
	}
	return nil
}

// Seasons returns the configured seasons, or DefaultSeasons when no
// monthly_pattern is set. Known season names come first in the default
// order, others follow sorted by name.
func (c *KPIConfig) Seasons() ([]model.Season, error) {
	if len(c.MonthlyPattern) == 0 {
		return DefaultSeasons(), nil
	}
	return BuildSeasons(c.MonthlyPattern, c.Hours)
}

// BuildSeasons validates a monthly pattern and its hour windows.
func BuildSeasons(pattern map[string][]int, hours map[string][]string) ([]model.Season, error) {
	names := make([]string, 0, len(pattern))
	for name := range pattern {
		names = append(names, name)
	}
	rank := map[string]int{}
	for i, s := range DefaultSeasons() {
		rank[s.Name] = i
	}
	order := func(name string) int {
		if r, ok := rank[name]; ok {
			return r
		}
		return len(rank) + 1
	}
	sort.Slice(names, func(i, j int) bool {
		if oi, oj := order(names[i]), order(names[j]); oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})

	out := make([]model.Season, 0, len(names))
	for _, name := range names {
		months := pattern[name]
		for _, m := range months {
			if m < 1 || m > 12 {
				return nil, invalid("monthly_pattern."+name, strconv.Itoa(m), "month must be in 1..12")
			}
		}
		h, ok := hours[name]
		if !ok {
			return nil, invalid("hours."+name, "", "missing production window for season")
		}
		if len(h) != 2 {
			return nil, invalid("hours."+name, strings.Join(h, ","), "expected [start, end]")
		}
		w, err := model.ParseClockWindow(h[0], h[1])
		if err != nil {
			return nil, invalid("hours."+name, strings.Join(h, ","), err.Error())
		}
		out = append(out, model.Season{Name: name, Months: months, Window: w})
	}
	return out, nil
}

// Timestep is a resampling step. In JSON it is a Go duration ("1h"), a
// pandas-like offset ("60min", "H", "30T") or an integer number of minutes.
type Timestep time.Duration

func (t Timestep) Duration() time.Duration { return time.Duration(t) }

func (t Timestep) String() string { return time.Duration(t).String() }

func (t Timestep) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(t).String())
}

func (t *Timestep) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Timestep(time.Duration(n) * time.Minute)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return invalid("timestep", string(b), "expected a string or an integer number of minutes")
	}
	d, err := ParseTimestep(s)
	if err != nil {
		return err
	}
	*t = Timestep(d)
	return nil
}

var offsetRe = regexp.MustCompile(`^(\d*)\s*(min|T|H|h|D|d|S|s)$`)

var offsetUnits = map[string]time.Duration{
	"min": time.Minute,
	"T":   time.Minute,
	"H":   time.Hour,
	"h":   time.Hour,
	"D":   24 * time.Hour,
	"d":   24 * time.Hour,
	"S":   time.Second,
	"s":   time.Second,
}

// ParseTimestep parses a Go duration or a pandas-like offset alias.
func ParseTimestep(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, invalid("timestep", s, "must be > 0")
		}
		return d, nil
	}
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return 0, invalid("timestep", s, "unrecognized step")
	}
	n := 1
	if m[1] != "" {
		n, _ = strconv.Atoi(m[1])
	}
	if n <= 0 {
		return 0, invalid("timestep", s, "must be > 0")
	}
	return time.Duration(n) * offsetUnits[m[2]], nil
}
