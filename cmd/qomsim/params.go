package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/qomsim/internal/config"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/systems"
	"github.com/spf13/cobra"
)

// parseParams turns name=v1,v2 arguments into numeric parameters and
// name=word arguments into selector options.
func parseParams(args []string) (systems.Params, error) {
	p := systems.Params{}
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || raw == "" {
			return systems.Params{}, fmt.Errorf("parameter %q: expected name=value", arg)
		}
		fields := strings.Split(raw, ",")
		vals := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				vals = nil
				break
			}
			vals = append(vals, v)
		}
		if vals != nil {
			p = p.With(name, vals...)
			continue
		}
		if len(fields) > 1 {
			return systems.Params{}, fmt.Errorf("parameter %q: expected numbers or a single option", arg)
		}
		p = p.WithOption(name, strings.TrimSpace(raw))
	}
	return p, nil
}

// buildConfig starts from the defaults or the config file. A named preset
// of the model replaces that base; parameter and solver flags then apply
// on top.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
	}

	overrides, err := parseParams(paramArgs)
	if err != nil {
		return nil, err
	}
	cfg.Params = cfg.Params.Merge(overrides)

	flags := cmd.Flags()
	s := &cfg.Solver
	if flags.Changed("t-max") {
		s.TMax = tMax
	}
	if flags.Changed("t-dim") {
		s.TDim = tDim
	}
	if flags.Changed("range-min") {
		s.RangeMin = rangeMin
	}
	if flags.Changed("range-max") {
		s.RangeMax = rangeMax
	}
	if flags.Changed("integrator") {
		s.Integrator = integrator
	}
	if flags.Changed("max-dt") {
		s.MaxDt = maxDt
	}
	if flags.Changed("tolerance") {
		s.Tolerance = tolerance
	}
	if flags.Changed("adaptive") {
		s.Adaptive = adaptive
	}
	if err := applyMeasureFlags(cmd, &cfg.Measure.Code, &cfg.Measure.Indices, &cfg.Measure.Reduce); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyMeasureFlags(cmd *cobra.Command, code *string, idx *[]int, mode *metrics.Mode) error {
	flags := cmd.Flags()
	if flags.Changed("measure") {
		*code = measureCode
	}
	if flags.Changed("indices") {
		*idx = append([]int(nil), indices...)
	}
	if flags.Changed("reduce") {
		m, err := metrics.ParseMode(reduce)
		if err != nil {
			return err
		}
		*mode = m
	}
	return nil
}
