package neighbors

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKNeighborsClassifier(t *testing.T) {
	tests := []struct {
		name  string
		k     int
		query []float64
		want  float64
	}{
		{"near class 0", 3, []float64{0.2, 0.1}, 0},
		{"near class 1", 3, []float64{5.1, 4.9}, 1},
		{"near class 2", 1, []float64{10, 10.2}, 2},
	}

	X := mat.NewDense(9, 2, []float64{
		0, 0, 0.5, 0, 0, 0.5,
		5, 5, 5.5, 5, 5, 5.5,
		10, 10, 10.5, 10, 10, 10.5,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			knn := NewKNeighborsClassifier(WithNNeighbors(tt.k))
			if err := knn.Fit(X, y); err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			pred, err := knn.Predict(mat.NewDense(1, 2, tt.query))
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if got := pred.At(0, 0); got != tt.want {
				t.Errorf("predicted %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKNeighborsClassifier_TieGoesToSmallestClass(t *testing.T) {
	// Two neighbours, one vote each.
	X := mat.NewDense(2, 1, []float64{-1, 1})
	y := mat.NewDense(2, 1, []float64{2, 1})

	knn := NewKNeighborsClassifier(WithNNeighbors(2))
	if err := knn.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	pred, err := knn.Predict(mat.NewDense(1, 1, []float64{0}))
	if err != nil {
		t.Fatal(err)
	}
	if got := pred.At(0, 0); got != 1 {
		t.Errorf("tie should go to class 1, got %v", got)
	}

	proba, _ := knn.PredictProba(mat.NewDense(1, 1, []float64{0}))
	if proba.At(0, 0) != 0.5 || proba.At(0, 1) != 0.5 {
		t.Errorf("expected equal vote shares, got %v", mat.Formatted(proba))
	}
}

func TestKNeighborsClassifier_KNeighbors(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 3, 7})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	knn := NewKNeighborsClassifier(WithNNeighbors(2))
	if err := knn.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	dists, idx, err := knn.KNeighbors(mat.NewDense(1, 1, []float64{2.5}))
	if err != nil {
		t.Fatal(err)
	}
	if idx[0][0] != 2 || idx[0][1] != 1 {
		t.Errorf("unexpected neighbour order %v", idx[0])
	}
	if dists[0][0] != 0.5 || dists[0][1] != 1.5 {
		t.Errorf("unexpected distances %v", dists[0])
	}
}

func TestKNeighborsClassifier_Errors(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewDense(3, 1, []float64{0, 1, 1})

	if err := NewKNeighborsClassifier().Fit(X, y); err == nil {
		t.Error("expected error when k exceeds the sample count")
	}
	if _, err := NewKNeighborsClassifier().Predict(X); err == nil {
		t.Error("expected NotFittedError")
	}

	knn := NewKNeighborsClassifier(WithNNeighbors(1))
	if err := knn.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if _, err := knn.Predict(mat.NewDense(1, 2, []float64{0, 0})); err == nil {
		t.Error("expected DimensionError for wrong feature count")
	}
}
