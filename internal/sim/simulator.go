package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Simulator samples a dynamo.System on a uniform time grid.
type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Grid returns the sample times of cfg.
func Grid(cfg dynamo.Config) []float64 {
	times := make([]float64, cfg.Samples)
	if cfg.Samples == 1 {
		times[0] = cfg.TMin
		return times
	}
	floats.Span(times, cfg.TMin, cfg.TMax)
	times[len(times)-1] = cfg.TMax
	return times
}

// Run integrates from x0 at cfg.TMin and records one state per grid time.
// If the state stops being finite, or adaptive steps shrink below
// cfg.MinDt, Run returns the samples recorded so far together with a
// *dynamo.DivergedTrajectoryError.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d",
			dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if !x0.IsValid() {
		return nil, dynamo.ErrInvalidState
	}

	times := Grid(cfg)
	result := &dynamo.Result{
		States: make([]dynamo.State, 0, len(times)),
		Times:  make([]float64, 0, len(times)),
	}

	x := x0.Clone()
	s.record(result, 0, x, times[0])

	dt := cfg.MaxDt
	for k := 1; k < len(times); k++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var (
			next dynamo.State
			err  error
		)
		if cfg.Adaptive {
			next, dt, err = s.advanceAdaptive(result, x, times[k-1], times[k], dt, cfg)
		} else {
			next = s.advanceFixed(result, x, times[k-1], times[k], cfg.MaxDt)
		}
		if errors.Is(err, dynamo.ErrStepTooSmall) {
			return result, &dynamo.DivergedTrajectoryError{Step: k - 1, Time: times[k-1], State: x.Clone(), Cause: err}
		}
		if err != nil {
			return result, err
		}

		if !next.IsValid() {
			return result, &dynamo.DivergedTrajectoryError{Step: k - 1, Time: times[k-1], State: x.Clone()}
		}

		x = next
		s.record(result, k, x, times[k])
	}

	return result, nil
}

func (s *Simulator) record(result *dynamo.Result, k int, x dynamo.State, t float64) {
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	for _, obs := range s.observers {
		obs.OnSample(k, x, t)
	}
}

func (s *Simulator) validateConfig(cfg dynamo.Config) error {
	if cfg.Samples < 2 {
		return dynamo.Configf("t_dim", cfg.Samples, "need at least two samples")
	}
	if !(cfg.TMax > cfg.TMin) {
		return dynamo.Configf("t_max", cfg.TMax, "must exceed t_min %g", cfg.TMin)
	}
	if cfg.MaxDt <= 0 {
		return dynamo.Configf("max_dt", cfg.MaxDt, "must be positive")
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return dynamo.Configf("tolerance", cfg.Tolerance, "must be positive for adaptive stepping")
	}
	return nil
}

func (s *Simulator) advanceFixed(result *dynamo.Result, x dynamo.State, t0, t1, maxDt float64) dynamo.State {
	span := t1 - t0
	n := int(math.Ceil(span/maxDt - 1e-9))
	if n < 1 {
		n = 1
	}
	dt := span / float64(n)

	for i := 0; i < n; i++ {
		x = s.integrator.Step(s.dyn, x, t0+float64(i)*dt, dt)
		result.StepsTaken++
		if !x.IsValid() {
			break
		}
	}
	return x
}

// advanceAdaptive lands exactly on t1, carrying the step size across samples.
func (s *Simulator) advanceAdaptive(result *dynamo.Result, x dynamo.State, t0, t1, dt float64, cfg dynamo.Config) (dynamo.State, float64, error) {
	t := t0
	for t < t1 {
		h := math.Min(dt, cfg.MaxDt)
		last := t+h >= t1
		if last {
			h = t1 - t
		}

		next, suggested, err := s.adaptiveStep(x, t, h, cfg)
		if errors.Is(err, dynamo.ErrStepRejected) {
			result.Rejected++
			dt = suggested
			if dt < cfg.MinDt {
				return x, dt, fmt.Errorf("%w at t=%.6g (dt=%.3g)", dynamo.ErrStepTooSmall, t, dt)
			}
			continue
		}
		if err != nil {
			return x, dt, err
		}

		result.StepsTaken++
		x = next
		if !x.IsValid() {
			return x, dt, nil
		}
		if last {
			t = t1
		} else {
			t += h
		}
		if !last || suggested < dt {
			dt = suggested
		}
		if t < t1 && dt < cfg.MinDt {
			return x, dt, fmt.Errorf("%w at t=%.6g (dt=%.3g)", dynamo.ErrStepTooSmall, t, dt)
		}
	}
	return x, dt, nil
}

func (s *Simulator) adaptiveStep(x dynamo.State, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.dyn, x, t, dt, cfg.Tolerance)
	}

	// step doubling for fixed-step integrators
	x1 := s.integrator.Step(s.dyn, x, t, dt)
	xHalf := s.integrator.Step(s.dyn, x, t, dt/2)
	x2 := s.integrator.Step(s.dyn, xHalf, t+dt/2, dt/2)

	errNorm := x1.Sub(x2).MaxAbs() / (x2.MaxAbs() + 1)
	if math.IsNaN(errNorm) || errNorm > cfg.Tolerance {
		return x2, dt / 2, dynamo.ErrStepRejected
	}
	if errNorm < cfg.Tolerance/10 {
		return x2, dt * 2, nil
	}
	return x2, dt, nil
}
