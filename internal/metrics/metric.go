package metrics

import "math"

// Metric accumulates a scalar over samples as they are produced.
type Metric interface {
	Name() string
	Observe(v, t float64)
	Value() float64
	Reset()
}

type Mean struct {
	sum     float64
	samples int
}

func NewMean() *Mean { return &Mean{} }

func (m *Mean) Name() string { return "mean" }

func (m *Mean) Observe(v, t float64) {
	m.sum += v
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() { *m = Mean{} }

// Extrema tracks the smallest and largest observed values. Value reports
// the largest.
type Extrema struct {
	Min, Max float64
	At       [2]float64
	samples  int
}

func NewExtrema() *Extrema { return &Extrema{} }

func (e *Extrema) Name() string { return "extrema" }

func (e *Extrema) Observe(v, t float64) {
	if e.samples == 0 || v < e.Min {
		e.Min, e.At[0] = v, t
	}
	if e.samples == 0 || v > e.Max {
		e.Max, e.At[1] = v, t
	}
	e.samples++
}

func (e *Extrema) Value() float64 {
	if e.samples == 0 {
		return math.NaN()
	}
	return e.Max
}

func (e *Extrema) Reset() { *e = Extrema{} }

// Exceedance is the fraction of samples strictly above a threshold, e.g.
// the share of unstable samples in an instability count series.
type Exceedance struct {
	threshold  float64
	violations int
	samples    int
}

func NewExceedance(threshold float64) *Exceedance {
	return &Exceedance{threshold: threshold}
}

func (x *Exceedance) Name() string { return "exceedance" }

func (x *Exceedance) Observe(v, t float64) {
	x.samples++
	if v > x.threshold {
		x.violations++
	}
}

func (x *Exceedance) Value() float64 {
	if x.samples == 0 {
		return 0
	}
	return float64(x.violations) / float64(x.samples)
}

func (x *Exceedance) Reset() { x.violations, x.samples = 0, 0 }

// ObserveSeries feeds series sampled at times into m.
func ObserveSeries(m Metric, series, times []float64) {
	for i, v := range series {
		t := float64(i)
		if i < len(times) {
			t = times[i]
		}
		m.Observe(v, t)
	}
}
