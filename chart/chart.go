// Package chart draws the two-bar risk probability chart.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

var (
	lowColor  = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	highColor = color.RGBA{R: 0xFF, G: 0x4B, B: 0x4B, A: 0xFF}
)

// Data are the percentages shown on the chart and their printed labels.
type Data struct {
	Low      float64
	High     float64
	LowText  string
	HighText string
}

type Options struct {
	Width  vg.Length
	Height vg.Length
	Format string
}

func DefaultOptions() Options {
	return Options{Width: 6 * vg.Inch, Height: 4 * vg.Inch, Format: "svg"}
}

func (d Data) validate() error {
	for _, v := range []float64{d.Low, d.High} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("chart: value %v outside [0,100]", v)
		}
	}
	if math.Abs(d.Low+d.High-100) > 1e-9 {
		return fmt.Errorf("chart: values sum to %v, want 100", d.Low+d.High)
	}
	return nil
}

// Render draws the Low Risk / High Risk bars on a fixed 0..100 axis.
func Render(d Data, opts Options) ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		defaults := DefaultOptions()
		opts.Width, opts.Height = defaults.Width, defaults.Height
	}
	if opts.Format == "" {
		opts.Format = "svg"
	}

	p := plot.New()
	p.Y.Label.Text = "Probability (%)"

	barWidth := opts.Width / 5
	low, err := newBar(d.Low, 0, barWidth, lowColor)
	if err != nil {
		return nil, err
	}
	high, err := newBar(d.High, 1, barWidth, highColor)
	if err != nil {
		return nil, err
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0, Y: d.Low + 1}, {X: 1, Y: d.High + 1}},
		Labels: []string{d.LowText, d.HighText},
	})
	if err != nil {
		return nil, fmt.Errorf("chart: labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
	}

	p.Add(low, high, labels)
	p.NominalX("Low Risk", "High Risk")
	p.Y.Min = 0
	p.Y.Max = 100

	writer, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: write: %w", err)
	}
	return buf.Bytes(), nil
}

func newBar(value, x float64, width vg.Length, c color.Color) (*plotter.BarChart, error) {
	bar, err := plotter.NewBarChart(plotter.Values{value}, width)
	if err != nil {
		return nil, fmt.Errorf("chart: bar: %w", err)
	}
	bar.XMin = x
	bar.Color = c
	bar.LineStyle.Width = 0
	return bar, nil
}
