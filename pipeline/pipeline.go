// Package pipeline wires the stages of a run together: read telemetry,
// prepare the split, evaluate the models, write artifacts and record the
// run in the history store.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/YuminosukeSato/playertier/artifact"
	"github.com/YuminosukeSato/playertier/config"
	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/history"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/YuminosukeSato/playertier/player"
	"github.com/YuminosukeSato/playertier/plot"
	"github.com/YuminosukeSato/playertier/prepare"
)

// Outcome is what a full run produced.
type Outcome struct {
	Dataset *prepare.Dataset
	Run     *evaluation.Run
	Summary artifact.Summary
}

// Pipeline runs the stages configured by cfg.
type Pipeline struct {
	cfg    *config.Config
	logger log.Logger
}

// New creates a Pipeline. cfg must already be validated.
func New(cfg *config.Config, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Pipeline{cfg: cfg, logger: logger.With(log.ComponentKey, "pipeline")}
}

func (p *Pipeline) writer() *artifact.Writer {
	return artifact.NewWriter(p.cfg.OutputDir,
		artifact.WithComma(p.cfg.Comma()),
		artifact.WithMetricsFile(p.cfg.MetricsFile),
		artifact.WithLogger(p.logger),
	)
}

// Prepare reads the input, prepares the split and writes TrainTest/.
func (p *Pipeline) Prepare(ctx context.Context) (*prepare.Dataset, error) {
	p.logger.Info("reading telemetry", log.PathKey, p.cfg.Input, log.PhaseKey, log.PhaseLoading)
	records, err := player.OpenCSV(p.cfg.Input, player.WithComma(p.cfg.Comma()))
	if err != nil {
		return nil, err
	}

	preparer := prepare.NewPreparer(
		prepare.WithSeed(p.cfg.Seed),
		prepare.WithTestSize(p.cfg.TestSize),
		prepare.WithMissingPolicy(p.cfg.Policy()),
		prepare.WithLogger(p.logger),
	)
	ds, err := preparer.Prepare(ctx, records)
	if err != nil {
		return nil, errors.Wrap(err, "preparation failed")
	}

	if err := p.writer().WriteDataset(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// Run executes every stage. Preparation errors abort the run; model
// failures are reported in the outcome.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	ds, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := evaluation.DefaultRegistry().Select(p.cfg.Models)
	if err != nil {
		return nil, err
	}
	runner := evaluation.NewRunner(registry,
		evaluation.WithParams(p.cfg.Params),
		evaluation.WithWorkers(p.cfg.Workers),
		evaluation.WithLogger(p.logger),
	)
	run, err := runner.Run(ctx, ds)
	if err != nil {
		return nil, err
	}

	w := p.writer()
	if err := w.WriteResults(ds, run); err != nil {
		return nil, err
	}
	if p.cfg.Plots {
		if err := plot.Run(filepath.Join(p.cfg.OutputDir, artifact.ResultDir), ds.ClassNames(), run); err != nil {
			return nil, err
		}
	}

	out := &Outcome{Dataset: ds, Run: run, Summary: artifact.NewSummary(ds, run)}
	if p.cfg.History.Enabled {
		if err := p.record(out); err != nil {
			// the run's artifacts are already on disk
			p.logger.Warn("run history not updated", "error", err)
		}
	}
	return out, nil
}

func (p *Pipeline) record(out *Outcome) error {
	store, err := history.Open(p.cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.Save(history.Entry{
		ID:        out.Run.ID,
		StartedAt: out.Run.StartedAt,
		Input:     p.cfg.Input,
		OutputDir: p.cfg.OutputDir,
		Summary:   out.Summary,
	})
	if err != nil {
		return err
	}
	if p.cfg.History.Keep > 0 {
		if _, err := store.Prune(p.cfg.History.Keep); err != nil {
			return err
		}
	}
	return nil
}
