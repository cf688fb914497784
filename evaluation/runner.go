package evaluation

import (
	"context"
	"time"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/YuminosukeSato/playertier/prepare"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Run is the outcome of one benchmark.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	// Results are in registry order.
	Results []Result
	Ranking Ranking
}

// Failures returns the failed results.
func (r *Run) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Failed {
			out = append(out, res)
		}
	}
	return out
}

// Result returns the result of key.
func (r *Run) Result(key string) (Result, bool) {
	for _, res := range r.Results {
		if res.Key == key {
			return res, true
		}
	}
	return Result{}, false
}

// Runner evaluates every model of a registry on one prepared dataset.
type Runner struct {
	registry *Registry
	params   Params
	workers  int
	logger   log.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithParams sets the hyperparameters handed to model constructors.
func WithParams(p Params) RunnerOption {
	return func(r *Runner) { r.params = p }
}

// WithWorkers sets how many models are evaluated at once. 1 (the default)
// evaluates them one after another.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner over registry.
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		params:   DefaultParams(),
		workers:  1,
		logger:   log.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(log.ComponentKey, "evaluation")
	return r
}

// Run evaluates every registered model and ranks the classifiers. It only
// fails when ctx is cancelled; model failures are recorded in the results.
func (r *Runner) Run(ctx context.Context, ds *prepare.Dataset) (*Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "generate run id")
	}
	run := &Run{ID: id, StartedAt: time.Now()}
	logger := r.logger.With(log.RunIDKey, id.String())
	logger.Info("evaluation started",
		log.PhaseKey, log.PhaseTraining,
		"models", r.registry.Len(),
		"workers", r.workers,
		log.SamplesKey, len(ds.Train.Y),
	)

	specs := r.registry.Specs()
	results := make([]Result, len(specs))

	if r.workers <= 1 {
		for i, spec := range specs {
			res, err := Evaluate(ctx, spec, r.params, ds)
			if err != nil {
				return nil, errors.Wrapf(err, "evaluation stopped before %s", spec.Key)
			}
			r.logResult(logger, res)
			results[i] = res
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i, spec := range specs {
			g.Go(func() error {
				res, err := Evaluate(gctx, spec, r.params, ds)
				if err != nil {
					return errors.Wrapf(err, "evaluation stopped at %s", spec.Key)
				}
				r.logResult(logger, res)
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	run.Results = results
	run.Ranking = Rank(results)
	run.Duration = time.Since(run.StartedAt)
	logger.Info("evaluation finished",
		log.PhaseKey, log.PhaseReporting,
		"best", run.Ranking.Best,
		"failed", len(run.Failures()),
		log.DurationMsKey, run.Duration.Milliseconds(),
	)
	return run, nil
}

func (r *Runner) logResult(logger log.Logger, res Result) {
	l := logger.With(log.ModelKeyKey, res.Key, log.ModelNameKey, res.Name)
	switch {
	case res.Failed:
		l.Error("model failed", res.Err)
	case res.Kind == KindRegressor:
		l.Info("model evaluated",
			log.RMSEKey, res.Regression.RMSE,
			log.R2ScoreKey, res.Regression.R2,
			log.DurationMsKey, res.FitDuration.Milliseconds(),
		)
	default:
		l.Info("model evaluated",
			log.AccuracyKey, res.Accuracy,
			log.F1MacroKey, res.Report.MacroAvg.F1,
			log.DurationMsKey, res.FitDuration.Milliseconds(),
		)
	}
}
