package artifact

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/metrics"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/YuminosukeSato/playertier/player"
	"github.com/YuminosukeSato/playertier/player/playertest"
	"github.com/YuminosukeSato/playertier/prepare"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

func fixture(t *testing.T) (*prepare.Dataset, *evaluation.Run) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelError)
	ds, err := prepare.NewPreparer(prepare.WithLogger(logger)).Prepare(context.Background(), playertest.Records(100))
	require.NoError(t, err)

	cm, report, err := metrics.EvaluateClassification(ds.Test.Y, ds.Test.Y, ds.ClassNames())
	require.NoError(t, err)

	preds := make([]float64, len(ds.Test.Y))
	for i, y := range ds.Test.Y {
		preds[i] = float64(y) + 0.25
	}
	reg, err := metrics.EvaluateRegression(ds.Test.YVec(), mat.NewVecDense(len(preds), preds))
	require.NoError(t, err)

	results := []evaluation.Result{
		{Key: "lr", Name: "Linear Regression", Kind: evaluation.KindRegressor,
			Regression: &reg, Predictions: preds, FitDuration: 3 * time.Millisecond},
		{Key: "dt", Name: "Decision Tree", Kind: evaluation.KindClassifier,
			Accuracy: report.Accuracy, Report: report, Confusion: cm, Labels: ds.Test.Y},
		{Key: "svm", Name: "Support Vector Machine", Kind: evaluation.KindClassifier,
			Failed: true, Err: errors.New("solver diverged")},
	}
	run := &evaluation.Run{
		ID:        uuid.Must(uuid.NewV7()),
		StartedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Results:   results,
		Ranking:   evaluation.Rank(results),
	}
	return ds, run
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func quietWriter(dir string, opts ...Option) *Writer {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewWriter(dir, append([]Option{WithLogger(logger)}, opts...)...)
}

func TestWriteDataset(t *testing.T) {
	ds, _ := fixture(t)
	dir := t.TempDir()
	w := quietWriter(dir)

	require.NoError(t, w.WriteDataset(ds))

	train := readCSV(t, filepath.Join(dir, TrainTestDir, "train_features.csv"))
	assert.Equal(t, ds.FeatureNames, train[0])
	assert.Len(t, train, 1+80)

	test := readCSV(t, filepath.Join(dir, TrainTestDir, "test_target.csv"))
	assert.Equal(t, []string{"PlayerCategory"}, test[0])
	assert.Len(t, test, 1+20)

	onehot := readCSV(t, filepath.Join(dir, TrainTestDir, "test_target_ann.csv"))
	assert.Equal(t, []string{"0", "1", "2"}, onehot[0])
	for i, row := range onehot[1:] {
		hot := 0
		for _, v := range row {
			if v == "1" {
				hot++
			}
		}
		assert.Equal(t, 1, hot, "row %d", i)
	}

	for _, name := range []string{"train_target.csv", "train_features_ann.csv", "test_features_ann.csv", "train_target_ann.csv", "test_features.csv"} {
		assert.FileExists(t, filepath.Join(dir, TrainTestDir, name))
	}
}

func TestWriteResults(t *testing.T) {
	ds, run := fixture(t)
	dir := t.TempDir()
	w := quietWriter(dir, WithMetricsFile(true))

	require.NoError(t, w.WriteResults(ds, run))

	truth := readCSV(t, filepath.Join(dir, ResultDir, "true_test_labels.csv"))
	assert.Equal(t, []string{"true_label"}, truth[0])
	assert.Len(t, truth, 1+len(ds.Test.Y))

	dt := readCSV(t, filepath.Join(dir, ResultDir, "dt_results.csv"))
	assert.Equal(t, []string{"prediction"}, dt[0])
	assert.Equal(t, truth[1:], dt[1:])

	lr := readCSV(t, filepath.Join(dir, ResultDir, "lr_results.csv"))
	assert.True(t, strings.HasSuffix(lr[1][0], ".25"), "regressor keeps raw predictions, got %s", lr[1][0])

	assert.NoFileExists(t, filepath.Join(dir, ResultDir, "svm_results.csv"))

	raw, err := os.ReadFile(filepath.Join(dir, ResultDir, "summary.yaml"))
	require.NoError(t, err)
	var summary Summary
	require.NoError(t, yaml.Unmarshal(raw, &summary))
	assert.Equal(t, run.ID.String(), summary.RunID)
	assert.Equal(t, 80, summary.Dataset.Train)
	assert.Equal(t, []string{"Decision Tree"}, summary.Ranking.Best)
	require.Len(t, summary.Models, 3)
	assert.True(t, summary.Models[2].Failed)
	assert.Equal(t, "solver diverged", summary.Models[2].Error)
	assert.Equal(t, 1.0, summary.Models[1].Report.Accuracy)

	raw, err = os.ReadFile(filepath.Join(dir, ResultDir, "encodings.yaml"))
	require.NoError(t, err)
	var tables map[string][]string
	require.NoError(t, yaml.Unmarshal(raw, &tables))
	assert.Contains(t, tables, "PlayerCategory")
	assert.Equal(t, ds.Encoders[player.Gender].Classes(), tables["Gender"])

	prom, err := os.ReadFile(filepath.Join(dir, ResultDir, "metrics.prom"))
	require.NoError(t, err)
	text := string(prom)
	assert.Contains(t, text, `playertier_model_accuracy{model="dt"} 1`)
	assert.Contains(t, text, `playertier_model_failed{model="svm"} 1`)
	assert.Contains(t, text, `playertier_dataset_rows{split="test"} 20`)
	assert.NotContains(t, text, `playertier_model_accuracy{model="svm"}`)
}

func TestWriteResultsWithoutMetricsFile(t *testing.T) {
	ds, run := fixture(t)
	dir := t.TempDir()

	require.NoError(t, quietWriter(dir, WithComma(';')).WriteResults(ds, run))
	assert.NoFileExists(t, filepath.Join(dir, ResultDir, "metrics.prom"))

	raw, err := os.ReadFile(filepath.Join(dir, ResultDir, "true_test_labels.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "true_label\n"))
}
