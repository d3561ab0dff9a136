// Package render draws KPI artifacts as PNG files with gonum/plot.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"chronics-kpi/internal/analysis"
	"chronics-kpi/internal/kpi"
)

// Renderer implements kpi.Plotter. Panels are laid out side by side, each
// PanelWidth x PanelHeight.
type Renderer struct {
	PanelWidth  vg.Length
	PanelHeight vg.Length
}

var _ kpi.Plotter = (*Renderer)(nil)

func New() *Renderer {
	return &Renderer{PanelWidth: 8.5 * vg.Inch, PanelHeight: 5 * vg.Inch}
}

func (r *Renderer) BarCharts(path, title string, panels ...kpi.Bars) error {
	plots := make([]*plot.Plot, 0, len(panels))
	for _, b := range panels {
		p := newPlot(b.Title, title)
		if len(b.Values) > 0 {
			// Undefined values are drawn as empty bars.
			values := make(plotter.Values, len(b.Values))
			for i, v := range b.Values {
				if !kpi.IsUndefined(v) && !math.IsInf(v, 0) {
					values[i] = v
				}
			}
			bars, err := plotter.NewBarChart(values, vg.Points(12))
			if err != nil {
				return fmt.Errorf("bar chart %q: %w", b.Title, err)
			}
			bars.Color = plotutil.Color(0)
			bars.LineStyle.Width = vg.Length(0)
			p.Add(bars)
			p.NominalX(b.Labels...)
		}
		plots = append(plots, p)
	}
	return r.save(path, plots)
}

func (r *Renderer) Histograms(path, title string, bins int, panels ...kpi.Sample) error {
	plots := make([]*plot.Plot, 0, len(panels))
	for _, s := range panels {
		p := newPlot(s.Title, title)
		values := analysis.Finite(s.Values)
		switch {
		case len(values) == 0:
		case analysis.Constant(values):
			p.Title.Text += fmt.Sprintf(" (constant %g)", values[0])
		default:
			h, err := plotter.NewHist(plotter.Values(values), bins)
			if err != nil {
				return fmt.Errorf("histogram %q: %w", s.Title, err)
			}
			h.FillColor = plotutil.Color(1)
			p.Add(h)
		}
		plots = append(plots, p)
	}
	return r.save(path, plots)
}

func (r *Renderer) Heatmaps(path, title string, panels ...kpi.Heat) error {
	cm := moreland.SmoothBlueRed()
	cm.SetMax(1)
	cm.SetMin(-1)
	pal := cm.Palette(201)

	plots := make([]*plot.Plot, 0, len(panels))
	for _, hm := range panels {
		p := newPlot(hm.Title, title)
		f := hm.Frame
		if len(f.Rows) > 0 && len(f.Cols) > 0 {
			h := plotter.NewHeatMap(frameGrid(f), pal)
			h.Min, h.Max = -1, 1
			h.NaN = color.Gray{Y: 200}
			p.Add(h)
			p.NominalX(f.Cols...)
			p.NominalY(f.Rows...)
			p.X.Tick.Label.Rotation = math.Pi / 4
			p.X.Tick.Label.XAlign = draw.XRight
		}
		plots = append(plots, p)
	}
	return r.save(path, plots)
}

func (r *Renderer) Lines(path, title string, lines kpi.Lines) error {
	p := newPlot(title, "")
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Y.Label.Text = "MW"
	for i, name := range lines.Names {
		xys := make(plotter.XYs, 0, len(lines.Index))
		for j, ts := range lines.Index {
			y := lines.Series[i][j]
			if kpi.IsUndefined(y) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(ts.Unix()), Y: y})
		}
		if len(xys) == 0 {
			continue
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("line %q: %w", name, err)
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(name, l)
	}
	p.Legend.Top = true
	return r.save(path, []*plot.Plot{p})
}

func newPlot(panelTitle, fallback string) *plot.Plot {
	p := plot.New()
	p.Title.Text = panelTitle
	if p.Title.Text == "" {
		p.Title.Text = fallback
	}
	return p
}

// save tiles plots horizontally into one PNG.
func (r *Renderer) save(path string, plots []*plot.Plot) error {
	if len(plots) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	img := vgimg.New(r.PanelWidth*vg.Length(len(plots)), r.PanelHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: len(plots),
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[0][i])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	defer f.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// frameGrid adapts a kpi.Frame to plotter.GridXYZ: columns along X, rows
// along Y.
type frameGrid kpi.Frame

func (g frameGrid) Dims() (c, r int) { return len(g.Cols), len(g.Rows) }
func (g frameGrid) Z(c, r int) float64 { return g.Values[r][c] }
func (g frameGrid) X(c int) float64 { return float64(c) }
func (g frameGrid) Y(r int) float64 { return float64(r) }
