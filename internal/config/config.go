package config

import (
	"fmt"
	"os"

	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/sweep"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel   = "om_00"
	DefaultMeasure = "entan_ln"
)

// Config is a run description as stored on disk: an experiment plus an
// optional sweep over one or two of its parameters.
type Config struct {
	experiment.Spec `yaml:",inline"`
	Sweep           *sweep.Config `yaml:"sweep,omitempty" json:"sweep,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Spec: experiment.Spec{
			Model:  DefaultModel,
			Solver: langevin.DefaultSolverConfig(),
			Measure: experiment.MeasureSpec{
				Code:    DefaultMeasure,
				Indices: []int{0, 1},
				Reduce:  metrics.ModeAverage,
			},
		},
	}
}

// Load reads a YAML config over DefaultConfig and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate resolves the model, solver and measure against the registry and
// checks the sweep axes name parameters of the model.
func (c *Config) Validate() error {
	reg := experiment.NewRegistry()
	if _, err := experiment.New(reg, c.Spec, nil); err != nil {
		return err
	}
	if c.Sweep == nil {
		return nil
	}
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	defaults, err := reg.Defaults(c.Model)
	if err != nil {
		return err
	}
	params := defaults.Merge(c.Params)
	axes := []sweep.Axis{c.Sweep.X}
	if c.Sweep.Y != nil {
		axes = append(axes, *c.Sweep.Y)
	}
	for _, a := range axes {
		if _, err := a.Apply(params, a.Min); err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy, so presets can be handed out and edited.
func (c *Config) Clone() *Config {
	out := *c
	out.Params = c.Params.Clone()
	out.Measure.Indices = append([]int(nil), c.Measure.Indices...)
	if c.Sweep != nil {
		s := *c.Sweep
		if c.Sweep.Y != nil {
			y := *c.Sweep.Y
			s.Y = &y
		}
		out.Sweep = &s
	}
	return &out
}
