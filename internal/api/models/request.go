package models

// KPIRequest is the request body for running a KPI comparison. Folders
// come from the server configuration; the request only picks the case.
type KPIRequest struct {
	Case          string     `json:"case" binding:"required"`
	Year          int        `json:"year" binding:"required"`
	Scenarios     []string   `json:"scenarios" binding:"required,min=1"`
	WindSolarOnly bool       `json:"wind_solar_only,omitempty"`
	KPI           KPIParams  `json:"kpi,omitempty"`
	Options       KPIOptions `json:"options,omitempty"`
}

// KPIParams overrides the server's KPI thresholds. Zero fields keep the
// defaults.
type KPIParams struct {
	Hydro HydroParams `json:"hydro,omitempty"`
	Solar SolarParams `json:"solar,omitempty"`
}

type HydroParams struct {
	UpperQuantile float64 `json:"upper_quantile,omitempty"`
	LowerQuantile float64 `json:"lower_quantile,omitempty"`
	UpperCap      float64 `json:"upper_cap,omitempty"`
	LowerCap      float64 `json:"lower_cap,omitempty"`
}

type SolarParams struct {
	CloudQuantile float64 `json:"cloud_quantile,omitempty"`
	CondFactor    float64 `json:"cond_factor,omitempty"`
	Aggregated    bool    `json:"aggregated,omitempty"`
}

// KPIOptions contains optional run parameters
type KPIOptions struct {
	Images         bool `json:"images,omitempty"`          // render PNG artifacts
	IncludeSummary bool `json:"include_summary,omitempty"` // default: false
}
