package models

import (
	"time"

	"chronics-kpi/internal/data"
	"chronics-kpi/internal/kpi"
)

// KPIResponse represents the response from a KPI run
type KPIResponse struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Case      string           `json:"case"`
	Year      int              `json:"year"`
	CreatedAt time.Time        `json:"created_at"`
	Scenarios []ScenarioReport `json:"scenarios"`
}

// ScenarioReport contains the KPIs of one scenario
type ScenarioReport struct {
	Scenario  string        `json:"scenario"`
	Benchmark string        `json:"benchmark"`
	Rows      int           `json:"rows"`
	KPIs      *kpi.Results  `json:"kpis"`
	Summary   []UnitSummary `json:"summary,omitempty"`
}

// UnitSummary is the production distribution of one unit
type UnitSummary struct {
	Curve  string   `json:"curve"`
	Unit   string   `json:"unit"`
	Count  int      `json:"count"`
	Min    *float64 `json:"min_mw"`
	Max    *float64 `json:"max_mw"`
	Mean   *float64 `json:"mean_mw"`
	Spread *float64 `json:"spread_p95_p05_mw"`
}

// BenchmarkInfo represents one supported reference dataset
type BenchmarkInfo = data.Benchmark

// CaseInfo represents one KPI input case
type CaseInfo = data.Case

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
