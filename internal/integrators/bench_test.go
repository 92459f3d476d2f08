package integrators

import (
	"testing"

	"github.com/san-kum/qomsim/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 2 }
func (b *benchDynamics) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

// benchModes mimics the size of a three-mode state: six mean-field
// components plus a 6x6 covariance.
type benchModes struct{}

func (b *benchModes) StateDim() int { return 42 }
func (b *benchModes) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, 42)
	for i := 0; i < 21; i++ {
		dx[2*i] = x[2*i+1] - 0.01*x[2*i]
		dx[2*i+1] = -x[2*i] - 0.01*x[2*i+1]
	}
	return dx
}

func BenchmarkRK4_ThreeModes(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchModes{}
	x := make(dynamo.State, 42)
	for i := range x {
		x[i] = float64(i) * 0.1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.001)
	}
}

func BenchmarkRK45_ThreeModes(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchModes{}
	x := make(dynamo.State, 42)
	for i := range x {
		x[i] = float64(i) * 0.1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _, _ = integrator.StepAdaptive(dyn, x, 0, 0.001, 1e-8)
	}
}
