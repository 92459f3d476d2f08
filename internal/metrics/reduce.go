// Package metrics reduces measure series to the scalars consumed by
// parameter sweeps.
package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Mode int

const (
	ModeAverage Mode = iota
	ModeMinMax
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "average", "":
		return ModeAverage, nil
	case "minmax":
		return ModeMinMax, nil
	}
	return 0, dynamo.Configf("reduce", s, "expected average or minmax")
}

func (m Mode) String() string {
	switch m {
	case ModeAverage:
		return "average"
	case ModeMinMax:
		return "minmax"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Summary is a reduced series. Mean is set in average mode, Min and Max in
// minmax mode.
type Summary struct {
	Mode    Mode    `json:"mode"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// Values returns the reduction as a slice: [mean] or [min, max].
func (s Summary) Values() []float64 {
	if s.Mode == ModeMinMax {
		return []float64{s.Min, s.Max}
	}
	return []float64{s.Mean}
}

func (s Summary) String() string {
	if s.Mode == ModeMinMax {
		return fmt.Sprintf("min %.6g, max %.6g over %d samples", s.Min, s.Max, s.Samples)
	}
	return fmt.Sprintf("mean %.6g over %d samples", s.Mean, s.Samples)
}

// Reduce collapses series according to mode. Empty or non-finite series are
// rejected rather than reduced to a sentinel.
func Reduce(series []float64, mode Mode) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, dynamo.Configf("series", 0, "nothing to reduce")
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Summary{}, fmt.Errorf("%w: sample %d is %v", dynamo.ErrInvalidState, i, v)
		}
	}

	s := Summary{Mode: mode, Samples: len(series)}
	switch mode {
	case ModeAverage:
		s.Mean = stat.Mean(series, nil)
	case ModeMinMax:
		s.Min, s.Max = floats.Min(series), floats.Max(series)
	default:
		return Summary{}, dynamo.Configf("reduce", mode, "unknown mode")
	}
	return s, nil
}

// Counts converts an integer series such as instability counts.
func Counts(counts []int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c)
	}
	return out
}
