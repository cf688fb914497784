package ensemble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// blobs returns three well separated clusters of n points each.
func blobs(n int) (*mat.Dense, *mat.Dense) {
	centers := [][2]float64{{0, 0}, {5, 5}, {10, 10}}
	X := mat.NewDense(3*n, 2, nil)
	y := mat.NewDense(3*n, 1, nil)
	for c, center := range centers {
		for i := 0; i < n; i++ {
			row := c*n + i
			X.Set(row, 0, center[0]+math.Sin(float64(row))*0.8)
			X.Set(row, 1, center[1]+math.Cos(float64(row*3))*0.8)
			y.Set(row, 0, float64(c))
		}
	}
	return X, y
}

func TestRandomForestClassifier_FitPredict(t *testing.T) {
	X, y := blobs(20)

	rf := NewRandomForestClassifier(WithNEstimators(25))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 60; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("sample %d: predicted %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}

	proba, err := rf.PredictProba(X)
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := proba.Dims()
	if cols != 3 {
		t.Fatalf("expected 3 probability columns, got %d", cols)
	}
	for i := 0; i < rows; i++ {
		sum := mat.Sum(proba.(*mat.Dense).RowView(i))
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d probabilities sum to %v", i, sum)
		}
	}

	if n := len(rf.Estimators()); n != 25 {
		t.Errorf("expected 25 trees, got %d", n)
	}
	imp := rf.GetFeatureImportances()
	if len(imp) != 2 {
		t.Errorf("expected 2 importances, got %v", imp)
	}
}

func TestRandomForestClassifier_IndependentOfWorkers(t *testing.T) {
	X, y := blobs(15)

	fit := func(jobs int) mat.Matrix {
		rf := NewRandomForestClassifier(WithNEstimators(12), WithNJobs(jobs), WithRandomState(7))
		if err := rf.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		p, err := rf.PredictProba(X)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	if !mat.Equal(fit(1), fit(4)) {
		t.Error("forest output should not depend on the number of workers")
	}
}

func TestRandomForestClassifier_Errors(t *testing.T) {
	X, y := blobs(3)

	if err := NewRandomForestClassifier(WithMaxFeatures("half")).Fit(X, y); err == nil {
		t.Error("expected error for unknown max_features")
	}
	if err := NewRandomForestClassifier(WithNEstimators(0)).Fit(X, y); err == nil {
		t.Error("expected error for zero estimators")
	}
	if _, err := NewRandomForestClassifier().Predict(X); err == nil {
		t.Error("expected NotFittedError")
	}
}
