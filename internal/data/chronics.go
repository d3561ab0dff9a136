package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chronics-kpi/internal/timeseries"
)

const (
	ProdFile   = "prod_p.csv"
	LoadFile   = "load_p.csv"
	PricesFile = "prices.csv"

	startDatetimeFile = "start_datetime.info"
	timeIntervalFile  = "time_interval.info"

	// DefaultChronicsStep is used when time_interval.info is absent.
	DefaultChronicsStep = 5 * time.Minute
)

// Chronics is one normalized set of production, consumption and price
// tables. Prices is nil when not available.
type Chronics struct {
	Prod   *timeseries.Table
	Load   *timeseries.Table
	Prices *timeseries.Table
}

// ChronicsAdapter reads a generated scenario folder. The files have no time
// column: the index is rebuilt from start_datetime.info and
// time_interval.info (defaults: 1 January of the simulated year, 5 minutes).
type ChronicsAdapter struct {
	// Thermal enables the full energy mix mode, which also reads prices.
	Thermal bool
}

// Load reads the chronics stored in dir for the simulated year.
func (a ChronicsAdapter) Load(dir string, year int) (*Chronics, error) {
	start, step, err := readTimeInfo(dir, year)
	if err != nil {
		return nil, err
	}

	prod, err := readChronicsTable(filepath.Join(dir, ProdFile), start, step)
	if err != nil {
		return nil, err
	}
	load, err := readChronicsTable(filepath.Join(dir, LoadFile), start, step)
	if err != nil {
		return nil, err
	}
	out := &Chronics{Prod: prod, Load: load}
	if !a.Thermal {
		return out, nil
	}

	prices, err := readChronicsTable(filepath.Join(dir, PricesFile), start, step)
	if err != nil {
		return nil, err
	}
	if prices.Width() == 0 {
		return nil, fmt.Errorf("prices file in %s has no column", dir)
	}
	// Keep a single column named "price".
	out.Prices = prices.WithColumn(PriceColumn, prices.Data[0])
	return out, nil
}

// PriceColumn is the name of the price column on every normalized table.
const PriceColumn = "price"

func readChronicsTable(base string, start time.Time, step time.Duration) (*timeseries.Table, error) {
	path, err := ResolvePath(base)
	if err != nil {
		return nil, err
	}
	m, err := ReadMatrix(path)
	if err != nil {
		return nil, err
	}
	index := make([]time.Time, m.Rows)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * step)
	}
	t, err := timeseries.FromColumns(index, m.Header, m.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid chronics %s: %w", path, err)
	}
	return t, nil
}

func readTimeInfo(dir string, year int) (time.Time, time.Duration, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	step := DefaultChronicsStep

	if raw, err := os.ReadFile(filepath.Join(dir, startDatetimeFile)); err == nil {
		ts, err := ParseTimestamp(firstLine(raw))
		if err != nil {
			return start, step, fmt.Errorf("invalid %s: %w", startDatetimeFile, err)
		}
		start = ts
	} else if !os.IsNotExist(err) {
		return start, step, err
	}

	if raw, err := os.ReadFile(filepath.Join(dir, timeIntervalFile)); err == nil {
		d, err := parseInterval(firstLine(raw))
		if err != nil {
			return start, step, fmt.Errorf("invalid %s: %w", timeIntervalFile, err)
		}
		step = d
	} else if !os.IsNotExist(err) {
		return start, step, err
	}
	return start, step, nil
}

func firstLine(raw []byte) string {
	s := string(raw)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// parseInterval accepts "HH:MM" (time_interval.info) or a Go duration.
func parseInterval(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err == nil {
		d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
		if d <= 0 {
			return 0, fmt.Errorf("interval must be > 0, got %q", s)
		}
		return d, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unrecognized interval %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0, got %q", s)
	}
	return d, nil
}
