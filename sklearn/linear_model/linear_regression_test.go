package linear_model

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	X := mat.NewDense(100, 3, nil)
	y := mat.NewDense(100, 1, nil)
	for i := 0; i < 100; i++ {
		X.Set(i, 0, math.Sin(float64(i)/10.0))
		X.Set(i, 1, math.Cos(float64(i)/10.0))
		X.Set(i, 2, float64(i)/50.0)
		// y = 2*x1 + 3*x2 - x3 + 5
		y.Set(i, 0, 2*X.At(i, 0)+3*X.At(i, 1)-X.At(i, 2)+5)
	}

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	want := []float64{2, 3, -1}
	for j, c := range lr.Coef() {
		if math.Abs(c-want[j]) > 1e-8 {
			t.Errorf("coef[%d] = %v, want %v", j, c, want[j])
		}
	}
	if math.Abs(lr.Intercept()-5) > 1e-8 {
		t.Errorf("intercept = %v, want 5", lr.Intercept())
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-1) > 1e-10 {
		t.Errorf("R2 = %v, want 1", score)
	}
}

func TestLinearRegressionRankDeficient(t *testing.T) {
	// second column is constant zero, as a standardized constant feature is
	X := mat.NewDense(5, 2, []float64{
		1, 0,
		2, 0,
		3, 0,
		4, 0,
		5, 0,
	})
	y := mat.NewDense(5, 1, []float64{3, 5, 7, 9, 11})

	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if lr.Rank() != 1 {
		t.Errorf("rank = %d, want 1", lr.Rank())
	}

	coef := lr.Coef()
	if math.Abs(coef[0]-2) > 1e-9 || math.Abs(coef[1]) > 1e-9 {
		t.Errorf("coef = %v, want [2 0]", coef)
	}
	if math.Abs(lr.Intercept()-1) > 1e-9 {
		t.Errorf("intercept = %v, want 1", lr.Intercept())
	}

	pred, err := lr.Predict(mat.NewDense(1, 2, []float64{10, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pred.At(0, 0)-21) > 1e-9 {
		t.Errorf("prediction = %v, want 21", pred.At(0, 0))
	}
}

func TestLinearRegressionNoIntercept(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	lr := NewLinearRegression(WithLRFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if math.Abs(lr.Coef()[0]-2) > 1e-10 || lr.Intercept() != 0 {
		t.Errorf("coef = %v, intercept = %v", lr.Coef(), lr.Intercept())
	}
}

func TestLinearRegressionErrors(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	if err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2})); err == nil {
		t.Error("expected dimension error for mismatched rows")
	}

	if err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 2, 4})); err != nil {
		t.Fatal(err)
	}
	var de *errors.DimensionError
	if _, err := lr.Predict(mat.NewDense(1, 2, nil)); !errors.As(err, &de) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}
