package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/systems"
)

func oscillatorSpec(code string, indices ...int) Spec {
	solver := langevin.DefaultSolverConfig()
	solver.TMax, solver.TDim = 20, 41
	return Spec{
		Model: "osc",
		Params: systems.Params{}.
			With("omegas", 1, 1.5).
			With("gammas", 0.1, 0.1).
			With("n_ths", 0, 1),
		Solver:  solver,
		Measure: MeasureSpec{Code: code, Indices: indices},
	}
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()
	models := r.ListModels()
	if len(models) != len(systems.Codes()) {
		t.Errorf("registry lists %d models, systems has %d", len(models), len(systems.Codes()))
	}
	found := false
	for _, m := range r.ListMeasures() {
		if m == RHCCount {
			found = true
		}
	}
	if !found {
		t.Errorf("measures %v missing %s", r.ListMeasures(), RHCCount)
	}
	if _, err := r.GetIntegrator("rk45"); err != nil {
		t.Error(err)
	}
	if r.Describe("osc") == "" {
		t.Error("expected a description for osc")
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		fn   func() error
	}{
		{"unknown model", func() error { _, err := r.GetModel("pendulum", systems.Params{}); return err }},
		{"unknown parameter", func() error {
			_, err := r.GetModel("osc", systems.Params{}.With("mass", 1))
			return err
		}},
		{"unknown measure", func() error { _, err := r.GetMeasure("fidelity", nil); return err }},
		{"wrong arity", func() error { _, err := r.GetMeasure("entan_ln", []int{0}); return err }},
		{"unknown defaults", func() error { _, err := r.Defaults("pendulum"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestRunSeparableOscillators(t *testing.T) {
	exp, err := New(NewRegistry(), oscillatorSpec("entan_ln", 0, 1), nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Series) != 41 || out.Trajectory.Len() != 41 {
		t.Fatalf("series has %d samples, trajectory %d", len(out.Series), out.Trajectory.Len())
	}
	if out.Summary.Mean != 0 {
		t.Errorf("mean E_N of uncoupled oscillators = %g", out.Summary.Mean)
	}
}

func TestRunThermalVariance(t *testing.T) {
	spec := oscillatorSpec("quad_var", 2, 2)
	spec.Measure.Reduce = metrics.ModeMinMax
	exp, err := New(NewRegistry(), spec, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out.Summary.Min-1.5) > 1e-9 || math.Abs(out.Summary.Max-1.5) > 1e-9 {
		t.Errorf("thermal n=1 variance should stay at 1.5, got %s", out.Summary)
	}
}

func TestRunInstabilityCount(t *testing.T) {
	exp, err := New(NewRegistry(), oscillatorSpec(RHCCount), nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out.Summary.Mean != 0 {
		t.Errorf("damped oscillators reported unstable: %s", out.Summary)
	}
}

func TestEvaluateWithoutMeasure(t *testing.T) {
	exp, err := New(NewRegistry(), oscillatorSpec(""), nil)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := exp.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := exp.Evaluate(tr); err == nil {
		t.Error("expected an error without a measure")
	}
}

func TestNewRejectsSolverConfig(t *testing.T) {
	spec := oscillatorSpec("entan_ln", 0, 1)
	spec.Solver.TDim = 1
	if _, err := New(NewRegistry(), spec, nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	a := oscillatorSpec("entan_ln", 0, 1)
	b := oscillatorSpec("entan_ln", 0, 1)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal specs must share a fingerprint")
	}

	variants := []Spec{
		func() Spec { s := a; s.Params = s.Params.With("gammas", 0.1, 0.2); return s }(),
		func() Spec { s := a; s.Solver.RangeMin = 10; return s }(),
		func() Spec { s := a; s.Measure.Reduce = metrics.ModeMinMax; return s }(),
		func() Spec { s := a; s.Measure.Indices = []int{1, 0}; return s }(),
	}
	for i, v := range variants {
		if v.Fingerprint() == a.Fingerprint() {
			t.Errorf("variant %d shares the base fingerprint", i)
		}
	}
}
