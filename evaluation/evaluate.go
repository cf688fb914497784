package evaluation

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/metrics"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/prepare"
	"gonum.org/v1/gonum/mat"
)

// Result is the outcome of evaluating one model on the test split.
type Result struct {
	Key  string
	Name string
	Kind Kind

	// Accuracy is the test accuracy of a classifier.
	Accuracy   float64
	Report     *metrics.ClassificationReport
	Confusion  *metrics.ConfusionMatrix
	Regression *metrics.RegressionReport

	// Labels holds a classifier's predicted class codes.
	Labels []int
	// Predictions holds a regressor's raw continuous predictions.
	Predictions []float64

	FitDuration     time.Duration
	PredictDuration time.Duration

	Failed bool
	Err    error
}

// ErrorText returns the failure message, or "" for a successful result.
func (r Result) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Evaluate fits spec's model on ds.Train and scores it on ds.Test. Errors
// and panics raised by the model are captured in the Result; only ctx
// cancellation is returned.
func Evaluate(ctx context.Context, spec Spec, params Params, ds *prepare.Dataset) (Result, error) {
	res := Result{Key: spec.Key, Name: spec.Name, Kind: spec.Kind}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	err := errors.SafeExecute(spec.Key, func() error {
		return evaluate(ctx, spec, params, ds, &res)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return res, err
		}
		res.Failed = true
		res.Err = err
	}
	return res, nil
}

func evaluate(ctx context.Context, spec Spec, params Params, ds *prepare.Dataset, res *Result) error {
	est := spec.New(params)
	if est == nil {
		return errors.NewValueError(spec.Key, "constructor returned no model")
	}

	X := ds.Train.X
	var y mat.Matrix = labelColumn(ds.Train.Y)
	if spec.Target == TargetOneHot {
		y = ds.Train.YOneHot
	}

	start := time.Now()
	var err error
	if cf, ok := est.(model.ContextFitter); ok {
		err = cf.FitContext(ctx, X, y)
	} else {
		err = est.Fit(X, y)
	}
	res.FitDuration = time.Since(start)
	if err != nil {
		return errors.Wrapf(err, "%s fit", spec.Name)
	}

	start = time.Now()
	pred, err := est.Predict(ds.Test.X)
	res.PredictDuration = time.Since(start)
	if err != nil {
		return errors.Wrapf(err, "%s predict", spec.Name)
	}
	if rows, _ := pred.Dims(); rows != len(ds.Test.Y) {
		return errors.NewDimensionError(spec.Key+".Predict", len(ds.Test.Y), rows, 0)
	}

	if spec.Kind == KindRegressor {
		yPred := metrics.ColumnVec(pred)
		report, err := metrics.EvaluateRegression(ds.Test.YVec(), yPred)
		if err != nil {
			return err
		}
		res.Regression = &report
		res.Predictions = mat.Col(nil, 0, pred)
		return nil
	}

	labels, err := predictedLabels(pred)
	if err != nil {
		return err
	}
	cm, report, err := metrics.EvaluateClassification(ds.Test.Y, labels, ds.ClassNames())
	if err != nil {
		return err
	}
	res.Labels = labels
	res.Confusion = cm
	res.Report = report
	res.Accuracy = report.Accuracy
	return nil
}

func labelColumn(labels []int) *mat.Dense {
	y := mat.NewDense(len(labels), 1, nil)
	for i, l := range labels {
		y.Set(i, 0, float64(l))
	}
	return y
}

func predictedLabels(pred mat.Matrix) ([]int, error) {
	rows, _ := pred.Dims()
	labels := make([]int, rows)
	for i := range labels {
		v := pred.At(i, 0)
		if v != math.Trunc(v) || math.IsNaN(v) {
			return nil, errors.NewValueError("predict", "classifier returned a non-integer label")
		}
		labels[i] = int(v)
	}
	return labels, nil
}
