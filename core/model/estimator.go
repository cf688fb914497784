package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is the collaborator contract every benchmarked model satisfies:
// fit on (X_train, y_train), then predict X_test.
type Estimator interface {
	Fitter
	Predictor
}

// ContextFitter is a Fitter whose training loop can be cancelled, checking
// ctx between epochs.
type ContextFitter interface {
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Weights は学習された重み（係数）を返す
	Weights() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}
