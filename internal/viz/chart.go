package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// ChartOptions sizes an asciigraph plot.
type ChartOptions struct {
	Width   int
	Height  int
	Caption string
	Theme   Theme
	// Target draws a flat reference line when set.
	Target *float64
}

func (o ChartOptions) plotOptions(series int) []asciigraph.Option {
	opts := []asciigraph.Option{asciigraph.Precision(2)}
	if o.Height > 0 {
		opts = append(opts, asciigraph.Height(o.Height))
	}
	if o.Width > 0 {
		opts = append(opts, asciigraph.Width(o.Width))
	}
	if o.Caption != "" {
		opts = append(opts, asciigraph.Caption(o.Caption))
	}
	theme := o.Theme
	if len(theme.Series) == 0 {
		theme = DefaultTheme
	}
	palette := theme.Series
	colors := make([]asciigraph.AnsiColor, series)
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}
	return append(opts, asciigraph.SeriesColors(colors...))
}

// Chart plots one series of per-frame values.
func Chart(values []float64, o ChartOptions) string {
	if len(values) == 0 {
		return ""
	}
	if o.Target != nil {
		return ChartMany([][]float64{values}, o)
	}
	return asciigraph.Plot(values, o.plotOptions(1)...)
}

// ChartMany plots several series on shared axes, padding shorter ones with
// their last value.
func ChartMany(series [][]float64, o ChartOptions) string {
	n := 0
	for _, s := range series {
		n = max(n, len(s))
	}
	if n == 0 {
		return ""
	}
	data := make([][]float64, 0, len(series)+1)
	for _, s := range series {
		if len(s) == 0 {
			continue
		}
		data = append(data, padTo(s, n))
	}
	if o.Target != nil {
		ref := make([]float64, n)
		for i := range ref {
			ref[i] = *o.Target
		}
		data = append(data, ref)
	}
	return asciigraph.PlotMany(data, o.plotOptions(len(data))...)
}

func padTo(s []float64, n int) []float64 {
	if len(s) >= n {
		return s
	}
	out := make([]float64, n)
	copy(out, s)
	for i := len(s); i < n; i++ {
		out[i] = s[len(s)-1]
	}
	return out
}

// Strip draws each value as a marker on a braille strip width cells wide,
// scaled between lo and hi. It suits trail followers sharing one axis.
func Strip(values []float64, lo, hi float64, width int) string {
	c := NewCanvas(width, 1)
	w, _ := c.Dots()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		c.Marker(scale(v, lo, hi, w-1), 1)
	}
	return strings.TrimRight(c.String(), "\n")
}

// DelayTable renders stagger delays in seconds as one bar per target.
func DelayTable(delays []float64, width int) string {
	if len(delays) == 0 {
		return "(no targets)\n"
	}
	_, hi := bounds(delays)
	var b strings.Builder
	for i, d := range delays {
		frac := 0.0
		if hi > 0 {
			frac = d / hi
		}
		fmt.Fprintf(&b, "%3d  %6.3fs  %s\n", i, d, ProgressBar(frac, width))
	}
	return b.String()
}
