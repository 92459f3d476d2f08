// Package sweep evaluates an experiment over a one- or two-dimensional grid
// of parameter values.
package sweep

import (
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/systems"
	"gonum.org/v1/gonum/floats"
)

type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

// Axis sweeps element Idx of the parameter Var. On the log scale Min and
// Max are base-10 exponents, so {min: -5, max: -1} spans 1e-5 to 1e-1.
type Axis struct {
	Var   string  `yaml:"var" json:"var"`
	Idx   int     `yaml:"idx" json:"idx"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Dim   int     `yaml:"dim" json:"dim"`
	Scale Scale   `yaml:"scale,omitempty" json:"scale,omitempty"`
}

func (a Axis) Validate() error {
	if a.Var == "" {
		return dynamo.Configf("var", nil, "axis needs a parameter name")
	}
	if a.Idx < 0 {
		return dynamo.Configf("idx", a.Idx, "must be non-negative")
	}
	if a.Dim < 1 {
		return dynamo.Configf("dim", a.Dim, "axis %s needs at least one value", a.Var)
	}
	switch a.Scale {
	case "", ScaleLinear, ScaleLog:
	default:
		return dynamo.Configf("scale", a.Scale, "expected linear or log")
	}
	if math.IsNaN(a.Min) || math.IsNaN(a.Max) || math.IsInf(a.Min, 0) || math.IsInf(a.Max, 0) {
		return dynamo.Configf("range", [2]float64{a.Min, a.Max}, "bounds must be finite")
	}
	return nil
}

// Values returns the Dim grid values of the axis.
func (a Axis) Values() ([]float64, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	lo, hi := a.Min, a.Max
	if a.Scale == ScaleLog {
		lo, hi = math.Pow(10, lo), math.Pow(10, hi)
	}
	if a.Dim == 1 {
		return []float64{lo}, nil
	}
	vals := make([]float64, a.Dim)
	if a.Scale == ScaleLog {
		return floats.LogSpan(vals, lo, hi), nil
	}
	return floats.Span(vals, lo, hi), nil
}

// Apply returns a copy of p with the axis element set to v.
func (a Axis) Apply(p systems.Params, v float64) (systems.Params, error) {
	c := p.Clone()
	if err := c.SetIndexed(a.Var, a.Idx, v); err != nil {
		return systems.Params{}, err
	}
	return c, nil
}
