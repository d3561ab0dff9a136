package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// KPIParamsFile is the per-case KPI configuration file name.
const KPIParamsFile = "paramsKPI.json"

// Case is one KPI input case folder.
type Case struct {
	Name       string   `json:"name"`
	Comparison string   `json:"comparison,omitempty"`
	Benchmarks []string `json:"benchmarks"` // benchmark folders present, e.g. "eco2mix"
	Path       string   `json:"path"`
}

// CaseList is a catalog of KPI cases found under an input folder.
type CaseList struct {
	InputDir  string `json:"input_dir"`
	UpdatedAt string `json:"updated_at"` // ISO 8601 timestamp
	Cases     []Case `json:"cases"`
}

// Benchmark describes one supported reference source.
type Benchmark struct {
	Name        string `json:"name"`
	Comparison  string `json:"comparison"`
	WindSolar   bool   `json:"wind_solar_only"`
	Description string `json:"description"`
}

// Benchmarks lists the reference adapters and the mode they serve.
var Benchmarks = []Benchmark{
	{Name: RenewableNinjaFolder, Comparison: "France", WindSolar: true, Description: "Regional wind and solar capacity factors with regional consumption"},
	{Name: Eco2mixFolder, Comparison: "France", WindSolar: false, Description: "Regional production per carrier, consumption and day-ahead prices"},
	{Name: NRELFolder, Comparison: "Texas", WindSolar: true, Description: "Wind and solar production per generator with zonal consumption"},
}

// ListCases scans inputDir for sub-folders holding a paramsKPI.json.
// Folders without one are ignored.
func ListCases(inputDir string) ([]Case, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read KPI input folder: %w", err)
	}
	var out []Case
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(inputDir, e.Name())
		raw, err := os.ReadFile(filepath.Join(path, KPIParamsFile))
		if err != nil {
			continue
		}
		var head struct {
			Comparison string `json:"comparison"`
		}
		// A malformed file is reported by config validation, not here.
		_ = json.Unmarshal(raw, &head)

		c := Case{Name: e.Name(), Comparison: head.Comparison, Path: path, Benchmarks: []string{}}
		for _, b := range Benchmarks {
			if st, err := os.Stat(filepath.Join(path, b.Name)); err == nil && st.IsDir() {
				c.Benchmarks = append(c.Benchmarks, b.Name)
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LoadCaseList loads a case catalog from a JSON file.
func LoadCaseList(filePath string) (*CaseList, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read case list: %w", err)
	}

	var list CaseList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse case list: %w", err)
	}

	return &list, nil
}

// SaveCaseList saves a case catalog to a JSON file.
func SaveCaseList(list *CaseList, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal case list: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write case list: %w", err)
	}

	return nil
}
