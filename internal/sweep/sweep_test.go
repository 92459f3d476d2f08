package sweep

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/storage"
	"github.com/san-kum/qomsim/internal/systems"
)

func TestAxisValues(t *testing.T) {
	tests := []struct {
		name string
		axis Axis
		want []float64
	}{
		{"linear", Axis{Var: "gs", Min: 0, Max: 0.005, Dim: 6}, []float64{0, 0.001, 0.002, 0.003, 0.004, 0.005}},
		{"log exponents", Axis{Var: "gs", Min: -5, Max: -1, Dim: 5, Scale: ScaleLog}, []float64{1e-5, 1e-4, 1e-3, 1e-2, 1e-1}},
		{"single linear", Axis{Var: "kappa", Min: 0.15, Max: 9, Dim: 1}, []float64{0.15}},
		{"single log", Axis{Var: "kappa", Min: -1, Max: 9, Dim: 1, Scale: ScaleLog}, []float64{0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.axis.Values()
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d values, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12*math.Max(1, math.Abs(tt.want[i])) {
					t.Errorf("value %d = %g, want %g", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAxisValidate(t *testing.T) {
	bad := []Axis{
		{Min: 0, Max: 1, Dim: 2},
		{Var: "gs", Dim: 0},
		{Var: "gs", Idx: -1, Dim: 2},
		{Var: "gs", Dim: 2, Scale: "cubic"},
		{Var: "gs", Max: math.Inf(1), Dim: 2},
	}
	for i, a := range bad {
		if err := a.Validate(); !errors.Is(err, dynamo.ErrConfiguration) {
			t.Errorf("axis %d: expected configuration error, got %v", i, err)
		}
	}
}

func TestAxisApplyCopies(t *testing.T) {
	p := systems.Params{}.With("gs", 1, 2)
	q, err := Axis{Var: "gs", Idx: 1, Dim: 1}.Apply(p, 7)
	if err != nil {
		t.Fatal(err)
	}
	if p.Values["gs"][1] != 2 || q.Values["gs"][1] != 7 {
		t.Errorf("Apply mutated its input or missed the element: %v, %v", p.Values["gs"], q.Values["gs"])
	}
	if _, err := (Axis{Var: "gs", Idx: 2, Dim: 1}).Apply(p, 1); err == nil {
		t.Error("expected an out of range error")
	}
}

func thermalSpec() experiment.Spec {
	solver := langevin.DefaultSolverConfig()
	solver.TMax, solver.TDim = 5, 11
	return experiment.Spec{
		Model:   "osc",
		Params:  systems.Params{}.With("omegas", 1, 2).With("gammas", 0.1, 0.1).With("n_ths", 0, 0),
		Solver:  solver,
		Measure: experiment.MeasureSpec{Code: "quad_var", Indices: []int{0, 0}},
	}
}

func TestRunGrid(t *testing.T) {
	cfg := Config{
		X:       Axis{Var: "n_ths", Idx: 0, Min: 0, Max: 2, Dim: 3},
		Y:       &Axis{Var: "omegas", Idx: 1, Min: 1, Max: 3, Dim: 2},
		Workers: 3,
	}
	var calls atomic.Int64
	r := NewRunner(experiment.NewRegistry(), WithProgress(func(done, total int) {
		calls.Add(1)
		if total != 6 {
			t.Errorf("progress total %d, want 6", total)
		}
	}))

	grid, err := r.Run(context.Background(), thermalSpec(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 6 {
		t.Errorf("progress called %d times, want 6", calls.Load())
	}
	if grid.Failed() != 0 {
		t.Fatalf("%d points failed", grid.Failed())
	}

	m := grid.Matrix()
	if len(m) != 2 || len(m[0]) != 3 {
		t.Fatalf("matrix is %dx%d, want 2x3", len(m), len(m[0]))
	}
	for j := range m {
		for i, n := range grid.X {
			if math.Abs(m[j][i]-(n+0.5)) > 1e-9 {
				t.Errorf("point (%d,%d): variance %g, want %g", i, j, m[j][i], n+0.5)
			}
		}
	}

	th, err := grid.Thresholds()
	if err != nil {
		t.Fatal(err)
	}
	if th.ArgMin.X != 0 || th.ArgMax.X != 2 || math.Abs(th.Max-2.5) > 1e-9 {
		t.Errorf("thresholds %+v", th)
	}
}

func TestRunUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := storage.NewMemoryCache()
	r := NewRunner(experiment.NewRegistry(), WithCache(cache))
	cfg := Config{X: Axis{Var: "n_ths", Idx: 0, Min: 0, Max: 1, Dim: 4}, Workers: 2}

	first, err := r.Run(ctx, thermalSpec(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHits() != 0 {
		t.Errorf("cold cache reported %d hits", first.CacheHits())
	}
	if n, _ := cache.Len(ctx); n != 4 {
		t.Errorf("cache holds %d entries, want 4", n)
	}

	second, err := r.Run(ctx, thermalSpec(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHits() != 4 {
		t.Errorf("warm cache reported %d hits, want 4", second.CacheHits())
	}
	for i := range first.Results {
		if first.Results[i].Summary != second.Results[i].Summary {
			t.Errorf("point %d differs between cold and warm runs", i)
		}
	}
}

func TestRunSharedPointsCountOneMiss(t *testing.T) {
	// every point has the same fingerprint
	cfg := Config{X: Axis{Var: "n_ths", Idx: 0, Min: 1, Max: 1, Dim: 8}, Workers: 8}
	grid, err := NewRunner(experiment.NewRegistry()).Run(context.Background(), thermalSpec(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Failed() != 0 {
		t.Fatalf("%d points failed", grid.Failed())
	}
	if hits := grid.CacheHits(); hits > 7 {
		t.Errorf("%d of 8 points reported as cached, the computing point must not be", hits)
	}
	for i, res := range grid.Results {
		if res.Summary != grid.Results[0].Summary {
			t.Errorf("point %d summary %+v differs from %+v", i, res.Summary, grid.Results[0].Summary)
		}
	}
}

func TestRunPolicies(t *testing.T) {
	cfg := Config{X: Axis{Var: "n_ths", Idx: 0, Min: -1, Max: 1, Dim: 3}, Workers: 1}

	skip := cfg
	skip.Policy = PolicySkip
	grid, err := NewRunner(experiment.NewRegistry()).Run(context.Background(), thermalSpec(), skip)
	if err != nil {
		t.Fatalf("skip policy returned %v", err)
	}
	if grid.Failed() != 1 || !errors.Is(grid.At(0, 0).Err, dynamo.ErrConfiguration) {
		t.Errorf("expected the negative occupancy to fail alone, got %d failures", grid.Failed())
	}
	if !math.IsNaN(grid.At(0, 0).Scalar()) {
		t.Error("failed point should plot as NaN")
	}

	abort := cfg
	abort.Policy = PolicyAbort
	if _, err := NewRunner(experiment.NewRegistry()).Run(context.Background(), thermalSpec(), abort); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("abort policy returned %v", err)
	}
}

func TestRunRejectsConfig(t *testing.T) {
	r := NewRunner(experiment.NewRegistry())
	tests := []struct {
		name string
		spec experiment.Spec
		cfg  Config
	}{
		{"unknown axis parameter", thermalSpec(), Config{X: Axis{Var: "mass", Dim: 2}}},
		{"index past vector", thermalSpec(), Config{X: Axis{Var: "gammas", Idx: 2, Dim: 2}}},
		{"bad policy", thermalSpec(), Config{X: Axis{Var: "gammas", Dim: 2}, Policy: "retry"}},
		{"unknown model", experiment.Spec{Model: "pendulum"}, Config{X: Axis{Var: "gammas", Dim: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Run(context.Background(), tt.spec, tt.cfg); !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestThresholdsMinMax(t *testing.T) {
	g := &Grid{
		X: []float64{1, 2},
		Results: []Result{
			{Point: Point{I: 0, X: 1}, Summary: metrics.Summary{Mode: metrics.ModeMinMax, Samples: 3, Min: -1, Max: 4}},
			{Point: Point{I: 1, X: 2}, Summary: metrics.Summary{Mode: metrics.ModeMinMax, Samples: 3, Min: -2, Max: 3}},
		},
	}
	th, err := g.Thresholds()
	if err != nil {
		t.Fatal(err)
	}
	if th.Min != -2 || th.ArgMin.X != 2 || th.Max != 4 || th.ArgMax.X != 1 {
		t.Errorf("thresholds %+v", th)
	}

	empty := &Grid{X: []float64{1}, Results: []Result{{Err: errors.New("boom")}}}
	if _, err := empty.Thresholds(); err == nil {
		t.Error("expected an error without successful points")
	}
}
