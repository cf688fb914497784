package artifact

import (
	"time"

	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/metrics"
	"github.com/YuminosukeSato/playertier/prepare"
)

// Summary is the YAML document describing one run.
type Summary struct {
	RunID      string             `yaml:"run_id" json:"run_id"`
	StartedAt  time.Time          `yaml:"started_at" json:"started_at"`
	DurationMs int64              `yaml:"duration_ms" json:"duration_ms"`
	Dataset    DatasetSummary     `yaml:"dataset" json:"dataset"`
	Ranking    evaluation.Ranking `yaml:"ranking" json:"ranking"`
	Models     []ModelSummary     `yaml:"models" json:"models"`
}

// DatasetSummary describes the prepared split.
type DatasetSummary struct {
	Rows     int      `yaml:"rows" json:"rows"`
	Dropped  int      `yaml:"dropped_rows" json:"dropped_rows"`
	Train    int      `yaml:"train_rows" json:"train_rows"`
	Test     int      `yaml:"test_rows" json:"test_rows"`
	Seed     int64    `yaml:"seed" json:"seed"`
	TestSize float64  `yaml:"test_size" json:"test_size"`
	Features []string `yaml:"features" json:"features"`
	Classes  []string `yaml:"classes" json:"classes"`
}

// ModelSummary describes one model's result.
type ModelSummary struct {
	Key        string                        `yaml:"key" json:"key"`
	Name       string                        `yaml:"name" json:"name"`
	Kind       evaluation.Kind               `yaml:"kind" json:"kind"`
	Accuracy   float64                       `yaml:"accuracy,omitempty" json:"accuracy,omitempty"`
	Report     *metrics.ClassificationReport `yaml:"report,omitempty" json:"report,omitempty"`
	Confusion  [][]int                       `yaml:"confusion_matrix,omitempty,flow" json:"confusion_matrix,omitempty"`
	Regression *metrics.RegressionReport     `yaml:"regression,omitempty" json:"regression,omitempty"`
	FitMs      int64                         `yaml:"fit_ms" json:"fit_ms"`
	Failed     bool                          `yaml:"failed" json:"failed"`
	Error      string                        `yaml:"error,omitempty" json:"error,omitempty"`
}

// NewSummary collects the run's outcome for persistence.
func NewSummary(ds *prepare.Dataset, run *evaluation.Run) Summary {
	s := Summary{
		RunID:      run.ID.String(),
		StartedAt:  run.StartedAt,
		DurationMs: run.Duration.Milliseconds(),
		Dataset: DatasetSummary{
			Rows:     len(ds.Labels),
			Dropped:  ds.Dropped,
			Train:    len(ds.Train.Y),
			Test:     len(ds.Test.Y),
			Seed:     ds.Seed,
			TestSize: ds.TestSize,
			Features: ds.FeatureNames,
			Classes:  ds.ClassNames(),
		},
		Ranking: run.Ranking,
	}
	for _, res := range run.Results {
		m := ModelSummary{
			Key:        res.Key,
			Name:       res.Name,
			Kind:       res.Kind,
			Accuracy:   res.Accuracy,
			Report:     res.Report,
			Regression: res.Regression,
			FitMs:      res.FitDuration.Milliseconds(),
			Failed:     res.Failed,
			Error:      res.ErrorText(),
		}
		if res.Confusion != nil {
			m.Confusion = res.Confusion.Counts
		}
		s.Models = append(s.Models, m)
	}
	return s
}
