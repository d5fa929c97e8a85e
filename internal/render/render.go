// Package render draws the per-station comparison figure: one row per
// irradiance component (bias time series and ground-vs-satellite scatter)
// plus a final row with the cloud-coverage bias relation and the ground
// GHI/DHI ratio.
package render

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/wetsa-lab/solrad-apps/internal/compare"
)

var componentColors = map[string]color.RGBA{
	"GHI": {R: 0x41, G: 0x69, B: 0xe1, A: 0xff}, // royal blue
	"DHI": {R: 0xff, G: 0x8c, B: 0x00, A: 0xff}, // dark orange
	"DNI": {R: 0x2e, G: 0x8b, B: 0x57, A: 0xff}, // sea green
}

var (
	fitColor   = color.RGBA{R: 0xcc, A: 0xff}
	identColor = color.RGBA{A: 0xff}
	ratioColor = color.RGBA{R: 0x80, B: 0x80, A: 0xff}
)

const (
	tileWidth  = vg.Length(560)
	tileHeight = vg.Length(230)
)

// StationFigure renders the multi-panel comparison figure for one station
// to a PNG file. The layout is fixed at two columns; the cloud panel is
// left blank when no matched record carries cloud coverage.
func StationFigure(path, station string, matched []compare.MatchedRecord, stats []compare.ComponentStats) error {
	byComp := map[string]compare.ComponentStats{}
	for _, cs := range stats {
		byComp[cs.Component] = cs
	}

	rows := len(compare.Components) + 1
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, 2)
	}

	for i, comp := range compare.Components {
		biasPlot, err := biasPanel(station, comp, matched)
		if err != nil {
			return fmt.Errorf("%s bias panel: %w", comp, err)
		}
		scatterPlot, err := scatterPanel(comp, matched, byComp[comp])
		if err != nil {
			return fmt.Errorf("%s scatter panel: %w", comp, err)
		}
		plots[i][0] = biasPlot
		plots[i][1] = scatterPlot
	}

	cloudPairs := compare.CloudBiasPairs(matched)
	if len(cloudPairs) > 0 {
		p, err := cloudPanel(cloudPairs)
		if err != nil {
			return fmt.Errorf("cloud panel: %w", err)
		}
		plots[rows-1][0] = p
	}

	ratio := compare.GroundRatioSeries(matched)
	if len(ratio) > 0 {
		p, err := ratioPanel(ratio)
		if err != nil {
			return fmt.Errorf("ratio panel: %w", err)
		}
		plots[rows-1][1] = p
	}

	img := vgimg.New(2*tileWidth, vg.Length(rows)*tileHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: 2,
		PadX: vg.Points(18), PadY: vg.Points(18),
		PadTop: vg.Points(12), PadBottom: vg.Points(12),
		PadLeft: vg.Points(12), PadRight: vg.Points(12),
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure file: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func biasPanel(station, comp string, matched []compare.MatchedRecord) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s Bias (satellite - ground)", station, comp)
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02"}
	p.Y.Label.Text = fmt.Sprintf("Bias %s [W/m²]", comp)

	pts := make(plotter.XYs, len(matched))
	for i, r := range matched {
		pts[i].X = float64(r.Time.Unix())
		pts[i].Y = componentBias(r, comp)
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(0.8)
	s.GlyphStyle.Color = componentColors[comp]
	p.Add(s)

	zero := plotter.NewFunction(func(x float64) float64 { return 0 })
	zero.LineStyle.Width = vg.Points(0.5)
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	zero.LineStyle.Color = identColor
	p.Add(zero)

	return p, nil
}

func scatterPanel(comp string, matched []compare.MatchedRecord, cs compare.ComponentStats) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Comparison (n=%d)", comp, len(matched))
	p.X.Label.Text = fmt.Sprintf("Measured %s (ground) [W/m²]", comp)
	p.Y.Label.Text = fmt.Sprintf("Satellite %s [W/m²]", comp)

	pts := make(plotter.XYs, len(matched))
	maxVal := 0.0
	for i, r := range matched {
		x, y := componentPair(r, comp)
		pts[i].X, pts[i].Y = x, y
		if x > maxVal {
			maxVal = x
		}
		if y > maxVal {
			maxVal = y
		}
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(1)
	s.GlyphStyle.Color = componentColors[comp]
	p.Add(s)

	ident, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: maxVal, Y: maxVal}})
	if err != nil {
		return nil, err
	}
	ident.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	ident.LineStyle.Color = identColor
	p.Add(ident)
	p.Legend.Add("1:1 line", ident)

	if cs.Regression.Defined {
		reg := cs.Regression
		fit, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: reg.Intercept},
			{X: maxVal, Y: reg.Slope*maxVal + reg.Intercept},
		})
		if err != nil {
			return nil, err
		}
		fit.LineStyle.Width = vg.Points(1.5)
		fit.LineStyle.Color = fitColor
		p.Add(fit)
		p.Legend.Add(fmt.Sprintf("fit: y=%.2fx+%.1f  R²=%.3f", reg.Slope, reg.Intercept, reg.R2), fit)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

func cloudPanel(pairs []compare.CloudBiasPoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "GHI Bias vs. Cloud Coverage"
	p.X.Label.Text = "Cloud coverage (satellite, %)"
	p.Y.Label.Text = "GHI Bias [W/m²]"

	pts := make(plotter.XYs, len(pairs))
	for i, cp := range pairs {
		pts[i].X = cp.CloudCover
		pts[i].Y = cp.GHIBias
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(1)
	s.GlyphStyle.Color = componentColors["GHI"]
	p.Add(s)

	zero := plotter.NewFunction(func(x float64) float64 { return 0 })
	zero.LineStyle.Width = vg.Points(0.5)
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	zero.LineStyle.Color = identColor
	p.Add(zero)

	return p, nil
}

func ratioPanel(ratio []compare.RatioPoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "GHI / DHI Ratio (ground)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02"}
	p.Y.Label.Text = "Ratio GHI / DHI"
	p.Y.Min = 0

	pts := make(plotter.XYs, len(ratio))
	for i, rp := range ratio {
		pts[i].X = float64(rp.Time.Unix())
		pts[i].Y = rp.Ratio
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(0.8)
	s.GlyphStyle.Color = ratioColor
	p.Add(s)

	return p, nil
}

func componentBias(r compare.MatchedRecord, comp string) float64 {
	switch comp {
	case "GHI":
		return r.GHIBias()
	case "DHI":
		return r.DHIBias()
	default:
		return r.DNIBias()
	}
}

func componentPair(r compare.MatchedRecord, comp string) (ground, sat float64) {
	switch comp {
	case "GHI":
		return r.GndGHI, r.SatGHI
	case "DHI":
		return r.GndDHI, r.SatDHI
	default:
		return r.GndDNI, r.SatBNI
	}
}
