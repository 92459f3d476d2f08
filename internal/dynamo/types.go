package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaxAbs returns the infinity norm.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE dX/dt = f(X, t).
// Derive must return a freshly allocated slice.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}

// Observer receives every recorded sample of a run.
type Observer interface {
	OnSample(index int, x State, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(index int, x State, t float64)

func (f ObserverFunc) OnSample(index int, x State, t float64) { f(index, x, t) }

// Config controls a sampled run. Samples are taken on
// linspace(TMin, TMax, Samples); between two samples the integrator takes
// fixed substeps no larger than MaxDt, or adaptive steps when Adaptive is set.
type Config struct {
	TMin      float64
	TMax      float64
	Samples   int
	Tolerance float64
	MaxDt     float64
	MinDt     float64
	Adaptive  bool
}

func DefaultConfig() Config {
	return Config{
		TMin:      0,
		TMax:      10.0,
		Samples:   1001,
		Tolerance: 1e-8,
		MaxDt:     0.01,
		MinDt:     1e-12,
		Adaptive:  false,
	}
}

type Result struct {
	States     []State
	Times      []float64
	StepsTaken int
	Rejected   int
}
