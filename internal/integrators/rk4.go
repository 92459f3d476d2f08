package integrators

import (
	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// RK4 is the classical fixed-step fourth-order Runge-Kutta method. Stage
// buffers are reused across steps, so an RK4 must not be shared between
// concurrent runs.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) buffers(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.buffers(len(x))

	// Derive may return a buffer it reuses, so each slope is copied out.
	copy(r.k[0], dyn.Derive(x, t))
	floats.AddScaledTo(r.stage, x, dt/2, r.k[0])
	copy(r.k[1], dyn.Derive(r.stage, t+dt/2))
	floats.AddScaledTo(r.stage, x, dt/2, r.k[1])
	copy(r.k[2], dyn.Derive(r.stage, t+dt/2))
	floats.AddScaledTo(r.stage, x, dt, r.k[2])
	copy(r.k[3], dyn.Derive(r.stage, t+dt))

	next := make(dynamo.State, len(x))
	copy(next, x)
	for i, w := range [4]float64{1, 2, 2, 1} {
		floats.AddScaled(next, w*dt/6, r.k[i])
	}
	return next
}
