package config

import (
	"math"
	"sort"

	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/sweep"
	"github.com/san-kum/qomsim/internal/systems"
)

func solver(tMax float64, tDim, lo, hi int) langevin.SolverConfig {
	s := langevin.DefaultSolverConfig()
	s.TMax = tMax
	s.TDim = tDim
	s.RangeMin = lo
	s.RangeMax = hi
	return s
}

func entanglement(i, j int) experiment.MeasureSpec {
	return experiment.MeasureSpec{Code: "entan_ln", Indices: []int{i, j}, Reduce: metrics.ModeAverage}
}

// Modulated two-mode circuit: optical mode 0, mechanical 1, LC mode 2.
var mod00Params = systems.Params{}.
	With("A_ls", 50, 0).
	With("A_vs", 100, 0).
	With("Delta_0", 1).
	With("gammas", 5e-3, 5e-2).
	With("gs", 5e-3, 5e-4).
	With("kappa", 0.15).
	With("n_ths", 0, 0).
	With("Omegas", 2, 2).
	With("omegas", 1, 1).
	WithOption("t_mod", "cos").
	WithOption("t_pos", "bottom")

var Presets = map[string]map[string]*Config{
	"osc": {
		"thermal": {
			Spec: experiment.Spec{
				Model:   "osc",
				Params:  systems.Params{}.With("omegas", 1, 1.7).With("gammas", 0.1, 0.05).With("n_ths", 0, 2),
				Solver:  solver(100, 1001, 500, 0),
				Measure: experiment.MeasureSpec{Code: "quad_var", Indices: []int{2, 2}, Reduce: metrics.ModeMinMax},
			},
		},
	},
	"om_00": {
		"entan_dynamics": {
			Spec: experiment.Spec{
				Model:   "om_00",
				Params:  systems.Params{}.With("A_ls", 50, 0).With("Omega_l", 2),
				Solver:  solver(1000, 10001, 0, 0),
				Measure: entanglement(0, 1),
			},
		},
	},
	"mod_00": {
		"entan_dynamics": {
			Spec: experiment.Spec{
				Model:   "mod_00",
				Params:  mod00Params,
				Solver:  solver(1000, 10001, 0, 0),
				Measure: entanglement(0, 1),
			},
		},
		"modulated": {
			Spec: experiment.Spec{
				Model:   "mod_00",
				Params:  mod00Params.With("A_ls", 50, 3).With("A_vs", 100, 1.5),
				Solver:  solver(1000, 10001, 0, 0),
				Measure: entanglement(0, 1),
			},
		},
		"rhc_map": {
			Spec: experiment.Spec{
				Model:   "mod_00",
				Params:  mod00Params,
				Solver:  solver(1000, 10001, 9999, 10001),
				Measure: experiment.MeasureSpec{Code: experiment.RHCCount, Reduce: metrics.ModeAverage},
			},
			Sweep: &sweep.Config{
				X:      sweep.Axis{Var: "gs", Idx: 0, Min: 0, Max: 5e-3, Dim: 11},
				Y:      &sweep.Axis{Var: "gs", Idx: 1, Min: 0, Max: 5e-3, Dim: 11},
				Cache:  true,
				Policy: sweep.PolicySkip,
			},
		},
		"entan_map": {
			Spec: experiment.Spec{
				Model:   "mod_00",
				Params:  mod00Params,
				Solver:  solver(1000, 10001, 9371, 10001),
				Measure: entanglement(0, 1),
			},
			Sweep: &sweep.Config{
				X:      sweep.Axis{Var: "gs", Idx: 0, Min: 0, Max: 5e-3, Dim: 51},
				Y:      &sweep.Axis{Var: "gs", Idx: 1, Min: 0, Max: 5e-3, Dim: 51},
				Cache:  true,
				Policy: sweep.PolicySkip,
			},
		},
	},
	"prl_00": {
		"gentle": {
			Spec: experiment.Spec{
				Model: "prl_00",
				Params: systems.Params{}.
					With("F", 1.4e4).
					With("lambda_l", 1064e-9).
					With("L", 25e-3).
					With("m", 150e-12).
					With("omega_m", 2e6*math.Pi).
					With("P_0", 10e-3).
					With("P_1", 2e-3).
					With("Q", 1e6).
					With("T", 0.1),
				Solver:  solver(50, 5001, 3000, 3201),
				Measure: entanglement(0, 1),
			},
		},
	},
	"njp_00": {
		"detuning_map": {
			Spec: experiment.Spec{
				Model: "njp_00",
				Params: systems.Params{}.
					With("Delta_norm", 1).
					With("G_norm", 5).
					With("g_norm", 5).
					With("gamma_LC_norm", 1e-5).
					With("gamma_m_norm", 1e-6).
					With("kappa_norm", 0.1).
					With("omega_LC_norm", 1).
					With("omega_m", 2e6*math.Pi).
					With("T_LC", 1e-2).
					With("T_m", 1e-2).
					WithOption("Delta_type", "absolute"),
				Solver:  solver(100, 1001, 901, 0),
				Measure: entanglement(1, 2),
			},
			Sweep: &sweep.Config{
				X:      sweep.Axis{Var: "Delta_norm", Min: 0.4, Max: 1.6, Dim: 121},
				Y:      &sweep.Axis{Var: "omega_LC_norm", Min: 0.4, Max: 1.6, Dim: 121},
				Cache:  true,
				Policy: sweep.PolicySkip,
			},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	if presets, ok := Presets[model]; ok {
		if cfg, ok := presets[name]; ok {
			return cfg.Clone()
		}
	}
	return nil
}

func ListPresets(model string) []string {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
