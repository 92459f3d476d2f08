package integrators

import (
	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Euler is the explicit first-order method. It is only useful as a
// reference for convergence tests; covariance runs need rk4 or rk45.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	return floats.AddScaledTo(make(dynamo.State, len(x)), x, dt, dyn.Derive(x, t))
}
