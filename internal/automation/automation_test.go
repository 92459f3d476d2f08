package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/qomsim/internal/analysis"
	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/storage"
	"github.com/san-kum/qomsim/internal/systems"
)

const scenarioYAML = `name: thermal
description: two oscillators relaxing to their baths
steps:
  - name: warm
    model: osc
    params:
      omegas: [1, 1.7]
      gammas: [0.1, 0.05]
      n_ths: [0, 2]
    solver:
      t_max: 100
      t_dim: 101
      range_min: 90
    measure:
      code: quad_var
      indices: [2, 2]
    save: true
  - model: osc
    solver:
      t_max: 10
    measure:
      code: min_var
      indices: [0]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeFile(t, "sc.yaml", scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "thermal" || len(sc.Steps) != 2 {
		t.Fatalf("scenario = %+v", sc)
	}
	first := sc.Steps[0]
	if first.Name != "warm" || !first.Save || first.Solver.TDim != 101 {
		t.Errorf("first step = %+v", first)
	}
	second := sc.Steps[1]
	def := langevin.DefaultSolverConfig()
	if second.Solver.TMax != 10 || second.Solver.TDim != def.TDim || second.Solver.MaxDt != def.MaxDt {
		t.Errorf("second step solver = %+v", second.Solver)
	}

	if _, err := LoadScenario(writeFile(t, "empty.yaml", "name: empty\n")); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("empty scenario err = %v", err)
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeFile(t, "sc.yaml", scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	store := storage.New(t.TempDir())
	r := NewRunner(experiment.NewRegistry(), store, nil)

	results, err := r.RunScenario(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if math.Abs(results[0].Summary.Mean-2.5) > 1e-3 {
		t.Errorf("thermal variance = %g, want 2.5", results[0].Summary.Mean)
	}
	if results[0].RunID == "" {
		t.Fatal("saved step has no run id")
	}
	if results[1].RunID != "" || results[1].Name != "osc#2" {
		t.Errorf("second result = %+v", results[1])
	}
	meta, err := store.Load(results[0].RunID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Model != "osc" || meta.Samples != 11 {
		t.Errorf("stored run = %+v", meta)
	}
}

func TestRunScenarioStopsAtFailure(t *testing.T) {
	sc := &Scenario{Name: "broken", Steps: []ScenarioStep{
		{Spec: experiment.Spec{Model: "osc", Solver: langevin.DefaultSolverConfig()}},
		{Spec: experiment.Spec{Model: "nope", Solver: langevin.DefaultSolverConfig()}},
		{Spec: experiment.Spec{Model: "osc", Solver: langevin.DefaultSolverConfig()}},
	}}
	r := NewRunner(experiment.NewRegistry(), nil, nil)
	results, err := r.RunScenario(context.Background(), sc)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Errorf("got %d results before the failure", len(results))
	}
}

func TestRunMonteCarlo(t *testing.T) {
	solver := langevin.DefaultSolverConfig()
	solver.TMax = 20
	solver.TDim = 21
	solver.RangeMin = 15
	cfg := MonteCarloConfig{
		Base: experiment.Spec{
			Model:  "osc",
			Params: systems.Params{}.With("omegas", 1, 2).With("gammas", 0.1, 0.2).With("n_ths", 1, 0),
			Solver: solver,
			Measure: experiment.MeasureSpec{
				Code:    "quad_var",
				Indices: []int{0, 0},
			},
		},
		Perturbation: 0.1,
		NumTrials:    5,
		Seed:         7,
	}
	r := NewRunner(experiment.NewRegistry(), nil, nil)
	results, err := r.RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d trials", len(results))
	}
	stable, unstable, failed := MonteCarloStats(results)
	if stable != 5 || unstable != 0 || failed != 0 {
		t.Errorf("stats = %d stable, %d unstable, %d failed", stable, unstable, failed)
	}
	if m := MeanInstability(results); m != 0 {
		t.Errorf("mean instability = %g for damped oscillators", m)
	}
	for _, res := range results {
		g := res.Params.Values["gammas"][0]
		if g < 0.09 || g > 0.11 || g == 0.1 {
			t.Errorf("trial %d gamma = %g not jittered within 10%%", res.TrialID, g)
		}
	}

	again, err := r.RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if again[3].Params.Fingerprint() != results[3].Params.Fingerprint() {
		t.Error("seeded trials should repeat")
	}
}

func TestMeanInstability(t *testing.T) {
	results := []MonteCarloResult{
		{TrialID: 0, Stability: analysis.Stability{Mean: 1}},
		{TrialID: 1, Stability: analysis.Stability{Mean: 2}},
		{TrialID: 2, Stability: analysis.Stability{Mean: 100}, Err: errors.New("solve failed")},
	}
	if got := MeanInstability(results); got != 1.5 {
		t.Errorf("mean instability = %g, want 1.5", got)
	}
	if got := MeanInstability(results[2:]); !math.IsNaN(got) {
		t.Errorf("mean over failed trials = %g, want NaN", got)
	}
}

func TestRunMonteCarloRejects(t *testing.T) {
	r := NewRunner(experiment.NewRegistry(), nil, nil)
	base := experiment.Spec{Model: "osc", Solver: langevin.DefaultSolverConfig()}
	if _, err := r.RunMonteCarlo(context.Background(), MonteCarloConfig{Base: base}); err == nil {
		t.Error("expected error for zero trials")
	}
	if _, err := r.RunMonteCarlo(context.Background(), MonteCarloConfig{Base: base, NumTrials: 1, Perturbation: -1}); err == nil {
		t.Error("expected error for negative perturbation")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RunMonteCarlo(ctx, MonteCarloConfig{Base: base, NumTrials: 3}); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled err = %v", err)
	}
}
