package model

import (
	"gonum.org/v1/gonum/mat"
)

// Regressor is an estimator producing continuous predictions.
type Regressor interface {
	Estimator

	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier is an estimator producing integer class labels in a
// single-column matrix.
type Classifier interface {
	Estimator

	// PredictProba returns probability estimates for each class, columns in
	// the order of Classes.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted class labels seen during fitting.
	Classes() []int
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
