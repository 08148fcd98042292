package exporter

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// pngDPI matches the resolution vgimg uses for PNG output.
const pngDPI = 96

// ChartOptions sizes the rendered chart in pixels.
type ChartOptions struct {
	WidthPx  int
	HeightPx int
}

// RenderRankingChart draws the ranking as a bar chart, one bar per station
// in ranking order, each filled with its assigned color, and writes it to w
// as PNG.
func RenderRankingChart(w io.Writer, r domain.LineRanking, opts ChartOptions) error {
	if opts.WidthPx <= 0 || opts.HeightPx <= 0 {
		return fmt.Errorf("invalid chart size %dx%d", opts.WidthPx, opts.HeightPx)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s", formatDate(r), r.Line)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = "total"
	p.Y.Min = 0

	names := make([]string, 0, len(r.Bars))
	for i, bar := range r.Bars {
		rgb, err := dataprocessing.ParseHex(bar.Color)
		if err != nil {
			return fmt.Errorf("bar %s: %w", bar.Station, err)
		}

		bars, err := plotter.NewBarChart(plotter.Values{float64(bar.Total)}, vg.Points(20))
		if err != nil {
			return fmt.Errorf("bar %s: %w", bar.Station, err)
		}
		bars.XMin = float64(i)
		bars.Color = color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		names = append(names, bar.Station)
	}
	if len(names) > 0 {
		p.NominalX(names...)
		p.X.Tick.Label.Rotation = 0.6
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	p.Add(plotter.NewGrid())

	width := vg.Length(opts.WidthPx) * vg.Inch / pngDPI
	height := vg.Length(opts.HeightPx) * vg.Inch / pngDPI
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
