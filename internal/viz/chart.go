package viz

import (
	"github.com/guptarohit/asciigraph"
)

const (
	ChartWidth  = 80
	ChartHeight = 12
	maxPoints   = 4 * ChartWidth
)

// Chart plots series with asciigraph, thinning it to a few points per
// column first.
func Chart(series []float64, caption string) string {
	if len(series) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.Plot(thin(series, maxPoints),
		asciigraph.Height(ChartHeight),
		asciigraph.Width(ChartWidth),
		asciigraph.Caption(caption),
	)
}

// ChartMany overlays several series of equal length in distinct colors.
func ChartMany(series [][]float64, caption string) string {
	if len(series) == 0 {
		return Subtle.Render("(no data)")
	}
	thinned := make([][]float64, len(series))
	for i, s := range series {
		thinned[i] = thin(s, maxPoints)
	}
	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Red, asciigraph.Green, asciigraph.Yellow, asciigraph.Magenta}
	return asciigraph.PlotMany(thinned,
		asciigraph.Height(ChartHeight),
		asciigraph.Width(ChartWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors[:min(len(series), len(colors))]...),
	)
}

// thin keeps every k-th sample so at most n remain, always keeping the last.
func thin(series []float64, n int) []float64 {
	if len(series) <= n {
		return series
	}
	k := (len(series) + n - 1) / n
	out := make([]float64, 0, n+1)
	for i := 0; i < len(series); i += k {
		out = append(out, series[i])
	}
	if (len(series)-1)%k != 0 {
		out = append(out, series[len(series)-1])
	}
	return out
}
