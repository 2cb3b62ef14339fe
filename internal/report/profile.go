// Package report renders calibration tables for review: a static PNG of the
// per-ring magnitude profiles and an interactive HTML heatmap.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Profile plot size.
const (
	ProfileWidth  = 10 * vg.Inch
	ProfileHeight = 5 * vg.Inch
)

var errNoTable = errors.New("report: nil calibration table")

// ringProfiles builds a plot with one magnitude-versus-longitude line per
// ring, markers at the sampled nodes.
func ringProfiles(t *calibration.Table, title string) (*plot.Plot, error) {
	if t == nil {
		return nil, errNoTable
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Longitude (deg)"
	p.Y.Label.Text = "Compensation magnitude"
	p.X.Min, p.X.Max = 0, 360
	p.Add(plotter.NewGrid())

	for i, r := range t.Rings {
		pts := make(plotter.XYs, len(r.Nodes))
		for j, n := range r.Nodes {
			pts[j] = plotter.XY{X: n.Longitude, Y: n.Magnitude}
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("ring %d: %w", i, err)
		}
		c := plotutil.Color(i)
		line.Color = c
		line.Width = vg.Points(1)
		points.Color = c
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(2)
		p.Add(line, points)

		label := fmt.Sprintf("colat %.1f°", r.Latitude)
		if i == 0 {
			label = "pole"
		}
		p.Legend.Add(label, line, points)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// RenderRingProfiles saves the ring profile plot to path. The format
// follows the file extension (png, svg, pdf).
func RenderRingProfiles(t *calibration.Table, title, path string) error {
	p, err := ringProfiles(t, title)
	if err != nil {
		return err
	}
	if err := p.Save(ProfileWidth, ProfileHeight, path); err != nil {
		return fmt.Errorf("save ring profiles: %w", err)
	}
	return nil
}

// WriteRingProfiles writes the ring profile plot to w as a PNG.
func WriteRingProfiles(w io.Writer, t *calibration.Table, title string) error {
	p, err := ringProfiles(t, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(ProfileWidth, ProfileHeight, "png")
	if err != nil {
		return fmt.Errorf("encode ring profiles: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write ring profiles: %w", err)
	}
	return nil
}
