// Package report writes KPI results and production summaries to disk.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"chronics-kpi/internal/kpi"
)

const (
	ResultsFile = "kpis.json"
	SummaryFile = "production_summary.csv"
)

// ScenarioDir is <reportDir>/<year>/Scenario_<id>.
func ScenarioDir(reportDir string, year int, scenario string) string {
	return filepath.Join(reportDir, strconv.Itoa(year), "Scenario_"+scenario)
}

// WriteResults serializes res to <reportDir>/<year>/Scenario_<id>/kpis.json
// and returns the written path.
func WriteResults(reportDir string, year int, scenario string, res *kpi.Results) (string, error) {
	raw, err := Encode(res)
	if err != nil {
		return "", err
	}
	dir := ScenarioDir(reportDir, year, scenario)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, ResultsFile)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Encode returns the indented JSON form of res.
func Encode(res *kpi.Results) ([]byte, error) {
	if res == nil {
		res = kpi.NewResults()
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent results: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// ReadResults decodes a kpis.json file into group -> key -> value.
// Undefined values come back as nil.
func ReadResults(path string) (map[string]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var out map[string]map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return out, nil
}
