package langevin

import (
	"context"
	"errors"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/integrators"
	"github.com/san-kum/qomsim/internal/sim"
	"github.com/san-kum/qomsim/internal/systems"
	"gonum.org/v1/gonum/mat"
)

// SolverConfig samples the trajectory on linspace(TMin, TMax, TDim) and
// keeps samples [RangeMin, RangeMax). RangeMax <= 0 keeps everything from
// RangeMin on.
type SolverConfig struct {
	TMin       float64 `yaml:"t_min" json:"t_min"`
	TMax       float64 `yaml:"t_max" json:"t_max"`
	TDim       int     `yaml:"t_dim" json:"t_dim"`
	RangeMin   int     `yaml:"range_min" json:"range_min"`
	RangeMax   int     `yaml:"range_max" json:"range_max"`
	Integrator string  `yaml:"integrator" json:"integrator"`
	MaxDt      float64 `yaml:"max_dt" json:"max_dt"`
	Tolerance  float64 `yaml:"tolerance" json:"tolerance"`
	Adaptive   bool    `yaml:"adaptive" json:"adaptive"`
}

func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		TMin:       0,
		TMax:       100,
		TDim:       1001,
		Integrator: "rk4",
		MaxDt:      0.01,
		Tolerance:  1e-8,
	}
}

func (c SolverConfig) Validate() error {
	if c.TDim < 2 {
		return dynamo.Configf("t_dim", c.TDim, "need at least two samples")
	}
	if !(c.TMax > c.TMin) {
		return dynamo.Configf("t_max", c.TMax, "must exceed t_min %g", c.TMin)
	}
	hi := c.RangeMax
	if hi <= 0 {
		hi = c.TDim
	}
	if c.RangeMin < 0 || c.RangeMin >= hi || hi > c.TDim {
		return dynamo.Configf("range", [2]int{c.RangeMin, c.RangeMax}, "window outside %d samples", c.TDim)
	}
	if c.MaxDt <= 0 {
		return dynamo.Configf("max_dt", c.MaxDt, "must be positive")
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return dynamo.Configf("tolerance", c.Tolerance, "must be positive for adaptive stepping")
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return err
	}
	return nil
}

func (c SolverConfig) simConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.TMin, cfg.TMax, cfg.Samples = c.TMin, c.TMax, c.TDim
	cfg.MaxDt = c.MaxDt
	cfg.Tolerance = c.Tolerance
	cfg.Adaptive = c.Adaptive
	return cfg
}

type options struct {
	modes    []complex128
	corrs    mat.Symmetric
	progress func(done, total int)
}

type Option func(*options)

// WithInitialState replaces the model's initial amplitudes and covariance.
func WithInitialState(modes []complex128, V mat.Symmetric) Option {
	return func(o *options) {
		o.modes, o.corrs = modes, V
	}
}

// FromSteadyState starts the model at its fixed point of smallest mechanical
// displacement, keeping the initial covariance.
func FromSteadyState(model systems.Model) (Option, error) {
	points, err := systems.SteadyState(model)
	if err != nil {
		return nil, err
	}
	_, V := model.InitialState()
	return WithInitialState(points[0], V), nil
}

// WithProgress reports every recorded sample.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.progress = fn }
}

// Solve integrates model and returns the windowed trajectory. If the
// state diverges, Solve returns every finite sample recorded so far,
// without windowing, along with the *dynamo.DivergedTrajectoryError.
func Solve(ctx context.Context, model systems.Model, cfg SolverConfig, opts ...Option) (*Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	eq := NewEquations(model)
	x0 := eq.InitialState()
	if o.modes != nil || o.corrs != nil {
		if o.modes == nil || o.corrs == nil {
			return nil, dynamo.ErrDimensionMismatch
		}
		if len(o.modes) != model.NumModes() || o.corrs.SymmetricDim() != 2*model.NumModes() {
			return nil, dynamo.ErrDimensionMismatch
		}
		x0 = Pack(o.modes, o.corrs)
	}

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s := sim.New(eq, integ)
	if o.progress != nil {
		s.AddObserver(dynamo.ObserverFunc(func(i int, _ dynamo.State, _ float64) {
			o.progress(i+1, cfg.TDim)
		}))
	}

	res, err := s.Run(ctx, x0, cfg.simConfig())
	if res == nil {
		return nil, err
	}
	tr := fromResult(model.Name(), model.NumModes(), res)
	if err != nil {
		var diverged *dynamo.DivergedTrajectoryError
		if errors.As(err, &diverged) {
			return tr, err
		}
		return nil, err
	}
	return tr.Window(cfg.RangeMin, cfg.RangeMax)
}
