package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/qomsim/internal/analysis"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/sweep"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(14)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusWarn = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusFail = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Field renders one "label value" line.
func Field(label string, value any) string {
	return MetricLabel.Render(label) + MetricValue.Render(fmt.Sprint(value))
}

func Spinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[frame%len(frames)]
}

// ProgressBar fills width cells in proportion to fraction.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return SparkHigh.Render(bar)
	case fraction > 0.4:
		return SparkMid.Render(bar)
	}
	return SparkLow.Render(bar)
}

// Sparkline maps values onto eighth-block characters, sampling to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := max(len(values)/width, 1)

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := max(0, min(int(norm*float64(len(chars)-1)), len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return b.String()
}

func RenderSummary(code string, s metrics.Summary) string {
	lines := []string{Title.Render(code), Field("reduce", s.Mode), Field("samples", s.Samples)}
	if s.Mode == metrics.ModeMinMax {
		lines = append(lines, Field("min", fmt.Sprintf("%.6g", s.Min)), Field("max", fmt.Sprintf("%.6g", s.Max)))
	} else {
		lines = append(lines, Field("mean", fmt.Sprintf("%.6g", s.Mean)))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}

func RenderStability(s analysis.Stability) string {
	verdict := StatusOK.Render("stable")
	if !s.Stable {
		verdict = StatusFail.Render("unstable")
	}
	return Panel.Render(strings.Join([]string{
		Title.Render("routh-hurwitz"),
		Field("verdict", verdict),
		Field("mean count", fmt.Sprintf("%.4g", s.Mean)),
		Field("unstable", fmt.Sprintf("%d / %d samples", s.Unstable, s.Samples)),
	}, "\n"))
}

func RenderThresholds(g *sweep.Grid, th sweep.Thresholds) string {
	at := func(p sweep.Point) string {
		if g.YAxis == nil {
			return fmt.Sprintf("%s=%.6g", g.XAxis.Var, p.X)
		}
		return fmt.Sprintf("%s=%.6g %s=%.6g", g.XAxis.Var, p.X, g.YAxis.Var, p.Y)
	}
	lines := []string{
		Title.Render("thresholds"),
		Field("min", fmt.Sprintf("%.6g at %s", th.Min, at(th.ArgMin))),
		Field("max", fmt.Sprintf("%.6g at %s", th.Max, at(th.ArgMax))),
		Field("points", len(g.Results)),
		Field("cached", g.CacheHits()),
	}
	if n := g.Failed(); n > 0 {
		lines = append(lines, MetricLabel.Render("failed")+StatusWarn.Render(fmt.Sprint(n)))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}
