package export

import (
	"fmt"
	"math"

	"github.com/san-kum/qomsim/internal/measures"
	"github.com/san-kum/qomsim/internal/sweep"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
)

const paletteSize = 64

func heatMap(g plotter.GridXYZ) (*plotter.HeatMap, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	c, r := g.Dims()
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			v := g.Z(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if lo > hi {
		return nil, fmt.Errorf("heat map: no finite values")
	}
	if lo == hi {
		pad := math.Max(math.Abs(lo)*1e-6, 1e-12)
		lo, hi = lo-pad, hi+pad
	}
	hm := plotter.NewHeatMap(g, palette.Heat(paletteSize, 1))
	hm.Min, hm.Max = lo, hi
	return hm, nil
}

// WignerPlot renders a single-mode Wigner surface as a heat map over the
// (q, p) plane.
func WignerPlot(s *measures.Surface, title string) (*plot.Plot, error) {
	if len(s.Q) < 2 || len(s.P) < 2 {
		return nil, fmt.Errorf("wigner plot: need at least a 2x2 surface, got %dx%d", len(s.Q), len(s.P))
	}
	hm, err := heatMap(s)
	if err != nil {
		return nil, err
	}
	p := newPlot(title, "q", "p")
	p.Add(hm)
	return p, nil
}

// gridXYZ views a two-dimensional sweep as a plotter.GridXYZ. Failed
// points are NaN and left blank. Log axes are laid out by exponent.
type gridXYZ struct {
	g          *sweep.Grid
	z          [][]float64
	logX, logY bool
}

func (g gridXYZ) Dims() (c, r int)   { return len(g.g.X), len(g.g.Y) }
func (g gridXYZ) Z(c, r int) float64 { return g.z[r][c] }
func (g gridXYZ) X(c int) float64    { return coord(g.g.X[c], g.logX) }
func (g gridXYZ) Y(r int) float64    { return coord(g.g.Y[r], g.logY) }

func coord(v float64, log bool) float64 {
	if log {
		return math.Log10(v)
	}
	return v
}

// GridPlot draws a sweep: a heat map over (x, y) for a two-axis grid and a
// line of the reduced measure for a single axis.
func GridPlot(g *sweep.Grid, title, zlabel string) (*plot.Plot, error) {
	if g.YAxis == nil {
		z := g.Matrix()[0]
		xs := make([]float64, 0, len(z))
		ys := make([]float64, 0, len(z))
		for i, v := range z {
			if !math.IsNaN(v) {
				xs = append(xs, g.X[i])
				ys = append(ys, v)
			}
		}
		if len(xs) == 0 {
			return nil, fmt.Errorf("grid plot: every point failed")
		}
		p, err := LinePlot(title, fmt.Sprintf("%s[%d]", g.XAxis.Var, g.XAxis.Idx), zlabel, Line{X: xs, Y: ys})
		if err == nil && g.XAxis.Scale == sweep.ScaleLog {
			p.X.Scale = plot.LogScale{}
			p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		}
		return p, err
	}
	if len(g.X) < 2 || len(g.Y) < 2 {
		return nil, fmt.Errorf("grid plot: need at least a 2x2 grid, got %dx%d", len(g.X), len(g.Y))
	}
	xyz := gridXYZ{
		g:    g,
		z:    g.Matrix(),
		logX: g.XAxis.Scale == sweep.ScaleLog,
		logY: g.YAxis.Scale == sweep.ScaleLog,
	}
	hm, err := heatMap(xyz)
	if err != nil {
		return nil, err
	}
	p := newPlot(title, axisLabel(g.XAxis), axisLabel(*g.YAxis))
	p.Add(hm)
	return p, nil
}

func axisLabel(a sweep.Axis) string {
	if a.Scale == sweep.ScaleLog {
		return fmt.Sprintf("log10 %s[%d]", a.Var, a.Idx)
	}
	return fmt.Sprintf("%s[%d]", a.Var, a.Idx)
}
