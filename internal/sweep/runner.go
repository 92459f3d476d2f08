package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/storage"
	"github.com/san-kum/qomsim/internal/systems"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type Policy string

const (
	// PolicySkip records a failed grid point and carries on.
	PolicySkip Policy = "skip"
	// PolicyAbort cancels the sweep at the first failed grid point.
	PolicyAbort Policy = "abort"
)

type Config struct {
	X            Axis   `yaml:"x" json:"x"`
	Y            *Axis  `yaml:"y,omitempty" json:"y,omitempty"`
	Workers      int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	Cache        bool   `yaml:"cache,omitempty" json:"cache,omitempty"`
	CacheBackend string `yaml:"cache_backend,omitempty" json:"cache_backend,omitempty"`
	CachePath    string `yaml:"cache_path,omitempty" json:"cache_path,omitempty"`
	Policy       Policy `yaml:"policy,omitempty" json:"policy,omitempty"`
}

func (c Config) Validate() error {
	if err := c.X.Validate(); err != nil {
		return fmt.Errorf("x axis: %w", err)
	}
	if c.Y != nil {
		if err := c.Y.Validate(); err != nil {
			return fmt.Errorf("y axis: %w", err)
		}
	}
	if c.Workers < 0 {
		return dynamo.Configf("workers", c.Workers, "must be non-negative")
	}
	switch c.Policy {
	case "", PolicySkip, PolicyAbort:
	default:
		return dynamo.Configf("policy", c.Policy, "expected skip or abort")
	}
	return nil
}

type Runner struct {
	registry *experiment.Registry
	cache    storage.Cache
	logger   *slog.Logger
	progress func(done, total int)
	flight   singleflight.Group
}

type Option func(*Runner)

func WithCache(c storage.Cache) Option { return func(r *Runner) { r.cache = c } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithProgress is called after every grid point, from the worker that
// finished it.
func WithProgress(fn func(done, total int)) Option { return func(r *Runner) { r.progress = fn } }

func NewRunner(reg *experiment.Registry, opts ...Option) *Runner {
	r := &Runner{registry: reg, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "sweep"))
	return r
}

// Run evaluates base at every grid point of cfg. Points run in parallel on
// cfg.Workers goroutines (GOMAXPROCS when zero), each with its own model
// instance. Under PolicySkip failures are recorded in Result.Err; under
// PolicyAbort the first failure cancels the sweep and is returned along
// with the partially filled grid.
func (r *Runner) Run(ctx context.Context, base experiment.Spec, cfg Config) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := newGrid(cfg)
	if err != nil {
		return nil, err
	}

	defaults, err := r.registry.Defaults(base.Model)
	if err != nil {
		return nil, err
	}
	if err := base.Params.Validate(defaults); err != nil {
		return nil, err
	}
	params := defaults.Merge(base.Params)
	if _, err := r.apply(params, cfg, grid.X[0], grid.yAt(0)); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	total := len(grid.Results)
	r.logger.Info("sweep started",
		slog.String("model", base.Model),
		slog.String("measure", base.Measure.Code),
		slog.Int("points", total),
		slog.Int("workers", workers))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var done atomic.Int64

	for idx := range grid.Results {
		g.Go(func() error {
			res := &grid.Results[idx]
			if err := gctx.Err(); err != nil {
				res.Err = err
				return nil
			}
			res.Summary, res.Cached, res.Err = r.evaluate(gctx, base, params, cfg, res.Point)
			if r.progress != nil {
				r.progress(int(done.Add(1)), total)
			}
			if res.Err != nil {
				r.logger.Warn("grid point failed",
					slog.Float64("x", res.X), slog.Float64("y", res.Y), slog.Any("error", res.Err))
				if cfg.Policy == PolicyAbort {
					return fmt.Errorf("point (%g, %g): %w", res.X, res.Y, res.Err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return grid, err
	}
	if err := ctx.Err(); err != nil {
		return grid, err
	}

	r.logger.Info("sweep finished",
		slog.Int("points", total),
		slog.Int("failed", grid.Failed()),
		slog.Int("cached", grid.CacheHits()),
		slog.Duration("elapsed", time.Since(start)))
	return grid, nil
}

func (r *Runner) apply(p systems.Params, cfg Config, x, y float64) (systems.Params, error) {
	p, err := cfg.X.Apply(p, x)
	if err != nil {
		return systems.Params{}, err
	}
	if cfg.Y != nil {
		if p, err = cfg.Y.Apply(p, y); err != nil {
			return systems.Params{}, err
		}
	}
	return p, nil
}

func (r *Runner) evaluate(ctx context.Context, base experiment.Spec, params systems.Params, cfg Config, pt Point) (metrics.Summary, bool, error) {
	p, err := r.apply(params, cfg, pt.X, pt.Y)
	if err != nil {
		return metrics.Summary{}, false, err
	}
	spec := base
	spec.Params = p
	key := spec.Fingerprint()

	if r.cache != nil {
		s, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("cache lookup failed", slog.String("key", key), slog.Any("error", err))
		} else if ok {
			return s, true, nil
		}
	}

	// only the caller that ran the experiment reports a miss
	var ran bool
	v, err, _ := r.flight.Do(key, func() (any, error) {
		ran = true
		exp, err := experiment.New(r.registry, spec, r.logger)
		if err != nil {
			return nil, err
		}
		out, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			if err := r.cache.Put(ctx, key, out.Summary); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Warn("cache store failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return out.Summary, nil
	})
	if err != nil {
		return metrics.Summary{}, false, err
	}
	return v.(metrics.Summary), !ran, nil
}
