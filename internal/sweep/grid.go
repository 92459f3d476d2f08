package sweep

import (
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/metrics"
)

type Point struct {
	I, J int
	X, Y float64
}

// Result is the outcome of one grid point. Cached is set when the summary
// was not computed for this point, because it came from the cache or from
// a concurrent point with the same fingerprint.
type Result struct {
	Point
	Summary metrics.Summary
	Cached  bool
	Err     error
}

// Grid holds one result per point, row-major in Y: Results[J*len(X)+I].
type Grid struct {
	XAxis   Axis
	YAxis   *Axis
	X, Y    []float64
	Results []Result
}

func newGrid(cfg Config) (*Grid, error) {
	xs, err := cfg.X.Values()
	if err != nil {
		return nil, err
	}
	ys := []float64{math.NaN()}
	if cfg.Y != nil {
		if ys, err = cfg.Y.Values(); err != nil {
			return nil, err
		}
	}
	g := &Grid{XAxis: cfg.X, YAxis: cfg.Y, X: xs, Results: make([]Result, 0, len(xs)*len(ys))}
	if cfg.Y != nil {
		g.Y = ys
	}
	for j, y := range ys {
		for i, x := range xs {
			g.Results = append(g.Results, Result{Point: Point{I: i, J: j, X: x, Y: y}})
		}
	}
	return g, nil
}

func (g *Grid) yAt(j int) float64 {
	if g.Y == nil {
		return math.NaN()
	}
	return g.Y[j]
}

func (g *Grid) At(i, j int) *Result { return &g.Results[j*len(g.X)+i] }

func (g *Grid) Failed() int {
	n := 0
	for _, r := range g.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func (g *Grid) CacheHits() int {
	n := 0
	for _, r := range g.Results {
		if r.Cached {
			n++
		}
	}
	return n
}

// Scalar is the value a result contributes to a sweep plot: the mean in
// average mode and the maximum in minmax mode. Failed points are NaN.
func (r Result) Scalar() float64 {
	if r.Err != nil || r.Summary.Samples == 0 {
		return math.NaN()
	}
	if r.Summary.Mode == metrics.ModeMinMax {
		return r.Summary.Max
	}
	return r.Summary.Mean
}

// Matrix returns the scalars as rows of constant Y.
func (g *Grid) Matrix() [][]float64 {
	rows := len(g.Results) / len(g.X)
	out := make([][]float64, rows)
	for j := range out {
		out[j] = make([]float64, len(g.X))
		for i := range out[j] {
			out[j][i] = g.At(i, j).Scalar()
		}
	}
	return out
}

// Thresholds locates the extremes of a sweep: the points where the reduced
// measure is smallest and largest. In minmax mode the minimum is taken
// over each point's Min and the maximum over each point's Max.
type Thresholds struct {
	Min, Max       float64
	ArgMin, ArgMax Point
}

func (g *Grid) Thresholds() (Thresholds, error) {
	th := Thresholds{Min: math.Inf(1), Max: math.Inf(-1)}
	found := false
	for _, r := range g.Results {
		if r.Err != nil || r.Summary.Samples == 0 {
			continue
		}
		lo, hi := r.Summary.Mean, r.Summary.Mean
		if r.Summary.Mode == metrics.ModeMinMax {
			lo, hi = r.Summary.Min, r.Summary.Max
		}
		if lo < th.Min {
			th.Min, th.ArgMin = lo, r.Point
		}
		if hi > th.Max {
			th.Max, th.ArgMax = hi, r.Point
		}
		found = true
	}
	if !found {
		return Thresholds{}, dynamo.Configf("grid", len(g.Results), "no successful points")
	}
	return th, nil
}
