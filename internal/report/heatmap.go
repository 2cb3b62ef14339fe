package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HeatmapStep is the spacing of the interpolated heatmap grid, in degrees.
const HeatmapStep = 5.0

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// heatmapData samples the interpolated table on a regular
// longitude/colatitude grid. Each value is [lon, colat, magnitude].
func heatmapData(t *calibration.Table, step float64) []opts.ScatterData {
	maxColat := t.Rings[len(t.Rings)-1].Latitude
	var data []opts.ScatterData
	for colat := 0.0; colat <= maxColat+1e-9; colat += step {
		for lon := 0.0; lon < 360; lon += step {
			data = append(data, opts.ScatterData{Value: []interface{}{lon, colat, t.Magnitude(colat, lon)}})
		}
	}
	return data
}

// RenderHeatmapHTML writes an interactive longitude/colatitude heatmap of
// the interpolated compensation magnitude to w.
func RenderHeatmapHTML(w io.Writer, t *calibration.Table, title string) error {
	if t == nil {
		return errNoTable
	}
	if err := t.Validate(); err != nil {
		return err
	}

	data := heatmapData(t, HeatmapStep)
	lo, hi := t.Range()
	if hi <= lo {
		hi = lo + 1e-9
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("rings=%d points=%d step=%g°", len(t.Rings)-1, len(data), HeatmapStep)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 360, Name: "Longitude (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: t.Rings[len(t.Rings)-1].Latitude, Name: "Colatitude (deg)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("magnitude", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 9}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write heatmap: %w", err)
	}
	return nil
}
