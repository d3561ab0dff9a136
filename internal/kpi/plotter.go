package kpi

import "time"

// Bars is one labelled bar series.
type Bars struct {
	Title  string
	Labels []string
	Values []float64
}

// Sample is one named set of observations for a histogram.
type Sample struct {
	Title  string
	Values []float64
}

// Heat is one titled correlation matrix.
type Heat struct {
	Title string
	Frame Frame
}

// Lines are named series over a shared time index.
type Lines struct {
	Index  []time.Time
	Names  []string
	Series [][]float64
}

// Plotter renders KPI artifacts. Every call writes one image at path; the
// panels are drawn side by side. The engine never reads anything back.
type Plotter interface {
	BarCharts(path, title string, panels ...Bars) error
	Heatmaps(path, title string, panels ...Heat) error
	Histograms(path, title string, bins int, panels ...Sample) error
	Lines(path, title string, lines Lines) error
}

// NopPlotter discards every artifact.
type NopPlotter struct{}

func (NopPlotter) BarCharts(string, string, ...Bars) error { return nil }
func (NopPlotter) Heatmaps(string, string, ...Heat) error { return nil }
func (NopPlotter) Histograms(string, string, int, ...Sample) error { return nil }
func (NopPlotter) Lines(string, string, Lines) error { return nil }
