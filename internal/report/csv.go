package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/timeseries"
)

// SummaryRow is the production summary of one unit for one curve.
type SummaryRow struct {
	Curve string
	analysis.Summary
}

// Summaries ranks every unit of t by mean production.
func Summaries(curve string, t *timeseries.Table) []SummaryRow {
	if t == nil {
		return nil
	}
	series := make(map[string][]float64, t.Width())
	for i, name := range t.Columns {
		series[name] = t.Data[i]
	}
	ranked := analysis.RankByMean(series)
	out := make([]SummaryRow, len(ranked))
	for i, s := range ranked {
		out[i] = SummaryRow{Curve: curve, Summary: s}
	}
	return out
}

func WriteSummaryCSV(path string, rows []SummaryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"curve",
		"unit",
		"count",
		"min_mw",
		"max_mw",
		"mean_mw",
		"p05_mw",
		"p95_mw",
		"spread_mw",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.Curve,
			r.Name,
			strconv.Itoa(r.Count),
			fmtFloat(r.Min),
			fmtFloat(r.Max),
			fmtFloat(r.Mean),
			fmtFloat(r.P05),
			fmtFloat(r.P95),
			fmtFloat(r.Spread),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
