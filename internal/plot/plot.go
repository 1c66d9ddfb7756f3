// Package plot renders scan data to PNG files using gonum/plot: the raw
// trace, the background-subtracted trace, or the trace with detected peaks
// marked.
package plot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/crysdata/crysanalyze/internal/xrd"
)

// Type selects which view of the analysis is rendered.
type Type string

const (
	Raw   Type = "raw"
	BgSub Type = "bgsub"
	Peaks Type = "peaks"
)

// Valid reports whether t is a known plot type.
func (t Type) Valid() bool {
	switch t {
	case Raw, BgSub, Peaks:
		return true
	}
	return false
}

var titles = map[Type]string{
	Raw:   "Raw XRD Data",
	BgSub: "Background-Subtracted XRD Data",
	Peaks: "XRD Data with Peaks Marked",
}

// Render writes a PNG of the analysis result to path. For BgSub the
// subtracted series must be present in res; for Peaks the peak markers come
// from res.Peaks.
func Render(path string, res xrd.Result, t Type) error {
	if !t.Valid() {
		return fmt.Errorf("plot: unknown plot type %q", t)
	}

	series := res.Scan.Intensity
	lineColor := color.RGBA{A: 255} // black, like the original tool
	if t == BgSub {
		if res.Subtracted == nil {
			return fmt.Errorf("plot: bgsub plot requested without a subtracted series")
		}
		series = res.Subtracted
		lineColor = color.RGBA{B: 255, A: 255}
	}

	p := plot.New()
	p.Title.Text = titles[t]
	p.X.Label.Text = "2θ (degrees)"
	p.Y.Label.Text = "Intensity (a.u.)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, res.Scan.Len())
	for i := range pts {
		pts[i] = plotter.XY{X: res.Scan.TwoTheta[i], Y: series[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot: build trace: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	p.Add(line)

	if t == Peaks {
		if err := addPeakMarkers(p, res, series); err != nil {
			return err
		}
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}

// addPeakMarkers draws a dashed vertical line at each peak position plus a
// marker glyph at the peak apex.
func addPeakMarkers(p *plot.Plot, res xrd.Result, series []float64) error {
	yMin, yMax := seriesBounds(series)

	marker := color.RGBA{R: 255, A: 255}
	for _, peak := range res.Peaks {
		vline, err := plotter.NewLine(plotter.XYs{
			{X: peak.Position, Y: yMin},
			{X: peak.Position, Y: yMax},
		})
		if err != nil {
			return fmt.Errorf("plot: peak marker at %g: %w", peak.Position, err)
		}
		vline.Color = marker
		vline.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		vline.Width = vg.Points(0.5)
		p.Add(vline)
	}

	apexes := make(plotter.XYs, len(res.Peaks))
	for i, peak := range res.Peaks {
		apexes[i] = plotter.XY{X: peak.Position, Y: peak.Intensity}
	}
	scatter, err := plotter.NewScatter(apexes)
	if err != nil {
		return fmt.Errorf("plot: peak apexes: %w", err)
	}
	scatter.GlyphStyle.Color = marker
	scatter.GlyphStyle.Shape = draw.CrossGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)

	return nil
}

func seriesBounds(series []float64) (lo, hi float64) {
	if len(series) == 0 {
		return 0, 1
	}
	lo, hi = series[0], series[0]
	for _, v := range series {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}
