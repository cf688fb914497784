// Package artifact persists the prepared split and the evaluation results
// as delimited tables, YAML documents and a Prometheus textfile.
package artifact

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/YuminosukeSato/playertier/prepare"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const (
	// TrainTestDir holds the prepared split.
	TrainTestDir = "TrainTest"
	// ResultDir holds predictions and reports.
	ResultDir = "Result"

	targetColumn     = "PlayerCategory"
	trueLabelColumn  = "true_label"
	predictionColumn = "prediction"
)

// Writer writes artifacts below one output directory.
type Writer struct {
	dir         string
	comma       rune
	metricsFile bool
	logger      log.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithComma sets the field delimiter of every table.
func WithComma(r rune) Option {
	return func(w *Writer) { w.comma = r }
}

// WithMetricsFile toggles Result/metrics.prom.
func WithMetricsFile(enabled bool) Option {
	return func(w *Writer) { w.metricsFile = enabled }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir, comma: ',', logger: log.GetLogger()}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(log.ComponentKey, "artifact")
	return w
}

// Path returns the path of name inside sub.
func (w *Writer) Path(sub, name string) string {
	return filepath.Join(w.dir, sub, name)
}

// WriteDataset writes the train/test features and both target encodings.
func (w *Writer) WriteDataset(ds *prepare.Dataset) error {
	classes := make([]string, ds.Target.Len())
	for i := range classes {
		classes[i] = strconv.Itoa(i)
	}

	tables := []struct {
		name   string
		header []string
		m      mat.Matrix
	}{
		{"train_features.csv", ds.FeatureNames, ds.Train.X},
		{"test_features.csv", ds.FeatureNames, ds.Test.X},
		{"train_target.csv", []string{targetColumn}, labelMatrix(ds.Train.Y)},
		{"test_target.csv", []string{targetColumn}, labelMatrix(ds.Test.Y)},
		{"train_features_ann.csv", ds.FeatureNames, ds.Train.X},
		{"test_features_ann.csv", ds.FeatureNames, ds.Test.X},
		{"train_target_ann.csv", classes, ds.Train.YOneHot},
		{"test_target_ann.csv", classes, ds.Test.YOneHot},
	}
	for _, t := range tables {
		if err := w.writeMatrix(w.Path(TrainTestDir, t.name), t.header, t.m); err != nil {
			return err
		}
	}
	w.logger.Info("split written",
		log.PathKey, filepath.Join(w.dir, TrainTestDir),
		log.SamplesKey, len(ds.Train.Y)+len(ds.Test.Y),
	)
	return nil
}

// WriteResults writes the true test labels, one prediction table per model,
// the encoding tables and the run summary. The Prometheus textfile is added
// when enabled.
func (w *Writer) WriteResults(ds *prepare.Dataset, run *evaluation.Run) error {
	if err := w.writeMatrix(w.Path(ResultDir, "true_test_labels.csv"),
		[]string{trueLabelColumn}, labelMatrix(ds.Test.Y)); err != nil {
		return err
	}

	for _, res := range run.Results {
		if res.Failed {
			continue
		}
		var pred mat.Matrix
		if res.Kind == evaluation.KindRegressor {
			pred = mat.NewDense(len(res.Predictions), 1, res.Predictions)
		} else {
			pred = labelMatrix(res.Labels)
		}
		if err := w.writeMatrix(w.Path(ResultDir, res.Key+"_results.csv"),
			[]string{predictionColumn}, pred); err != nil {
			return err
		}
	}

	if err := w.writeYAML(w.Path(ResultDir, "encodings.yaml"), ds.EncodingTables()); err != nil {
		return err
	}
	if err := w.writeYAML(w.Path(ResultDir, "summary.yaml"), NewSummary(ds, run)); err != nil {
		return err
	}
	if w.metricsFile {
		if err := WriteMetrics(w.Path(ResultDir, "metrics.prom"), ds, run); err != nil {
			return err
		}
	}
	w.logger.Info("results written",
		log.PathKey, filepath.Join(w.dir, ResultDir),
		"models", len(run.Results),
	)
	return nil
}

func labelMatrix(labels []int) *mat.Dense {
	if len(labels) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(labels), 1, nil)
	for i, l := range labels {
		m.Set(i, 0, float64(l))
	}
	return m
}

func (w *Writer) create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return f, nil
}

func (w *Writer) writeMatrix(path string, header []string, m mat.Matrix) (err error) {
	f, err := w.create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	cw := csv.NewWriter(f)
	cw.Comma = w.comma
	if err := cw.Write(header); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	var rows, cols int
	if m != nil && !isEmpty(m) {
		rows, cols = m.Dims()
	}
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	w.logger.Debug("table written", log.PathKey, path, log.SamplesKey, rows)
	return nil
}

func isEmpty(m mat.Matrix) bool {
	d, ok := m.(*mat.Dense)
	return ok && d.IsEmpty()
}

func (w *Writer) writeYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
