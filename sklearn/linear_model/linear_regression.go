// Package linear_model provides the ordinary-least-squares baseline regressor.
package linear_model

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/metrics"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression is a linear regression model using ordinary least squares.
//
// The system is solved by SVD on centered data and returns the minimum-norm
// solution, so rank-deficient inputs such as an all-zero standardized column
// still fit.
type LinearRegression struct {
	state *model.StateManager // State management (composition instead of embedding)

	// Hyperparameters
	fitIntercept bool    // Whether to learn the intercept
	rcond        float64 // Relative cutoff for small singular values; 0 means machine precision scaled by size

	// Learned parameters
	coef_      []float64 // Weight coefficients
	intercept_ float64   // Intercept
	rank_      int       // Effective rank of the centered design matrix
}

// LinearRegressionOption は設定オプション
type LinearRegressionOption func(*LinearRegression)

// WithLRFitIntercept は切片の学習有無を設定（LinearRegression用）
func WithLRFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithRcond sets the relative singular value cutoff used for the rank.
func WithRcond(rcond float64) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.rcond = rcond
	}
}

// NewLinearRegression は新しいLinearRegressionモデルを作成
func NewLinearRegression(options ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
	}
	for _, opt := range options {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()

	if rows == 0 || cols == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("LinearRegression.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LinearRegression.Fit", 1, yCols, 1)
	}

	XWork := mat.DenseCopyOf(X)
	yWork := mat.DenseCopyOf(y)

	// 切片を学習する場合はデータを中心化する
	xMean := make([]float64, cols)
	var yMean float64
	if lr.fitIntercept {
		col := make([]float64, rows)
		for j := 0; j < cols; j++ {
			mat.Col(col, j, XWork)
			xMean[j] = floats.Sum(col) / float64(rows)
		}
		yMean = mat.Sum(yWork) / float64(rows)

		XWork.Apply(func(_, j int, v float64) float64 { return v - xMean[j] }, XWork)
		yWork.Apply(func(_, _ int, v float64) float64 { return v - yMean }, yWork)
	}

	var svd mat.SVD
	if ok := svd.Factorize(XWork, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD failed", errors.ErrSingularMatrix)
	}

	rcond := lr.rcond
	if rcond <= 0 {
		rcond = float64(max(rows, cols)) * 2.220446049250313e-16
	}
	lr.rank_ = svd.Rank(rcond)
	if lr.rank_ == 0 {
		// 全ての列が定数: 係数は0、切片は平均
		lr.coef_ = make([]float64, cols)
		lr.intercept_ = yMean
		lr.state.SetDimensions(cols, rows)
		lr.state.SetFitted()
		return nil
	}

	var coefficients mat.Dense
	svd.SolveTo(&coefficients, yWork, lr.rank_)

	lr.coef_ = make([]float64, cols)
	for j := 0; j < cols; j++ {
		lr.coef_[j] = coefficients.At(j, 0)
	}
	lr.intercept_ = 0
	if lr.fitIntercept {
		lr.intercept_ = yMean - floats.Dot(xMean, lr.coef_)
	}

	if err := errors.CheckScalar("LinearRegression.Fit", lr.intercept_, 0); err != nil {
		return err
	}
	for _, c := range lr.coef_ {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return errors.NewNumericalInstabilityError("LinearRegression.Fit", lr.coef_, 0)
		}
	}

	lr.state.SetDimensions(cols, rows)
	lr.state.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}

	rows, cols := X.Dims()
	if err := lr.state.RequireFeatures("LinearRegression.Predict", cols); err != nil {
		return nil, err
	}

	predictions := mat.NewDense(rows, 1, nil)
	predictions.Mul(X, mat.NewDense(cols, 1, lr.Coef()))
	predictions.Apply(func(_, _ int, v float64) float64 { return v + lr.intercept_ }, predictions)
	return predictions, nil
}

// Score はモデルの決定係数（R²）を計算
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(metrics.ColumnVec(y), metrics.ColumnVec(predictions))
}

// Weights は学習された重み係数を返す
func (lr *LinearRegression) Weights() []float64 {
	return lr.Coef()
}

// Coef は学習された重み係数を返す
func (lr *LinearRegression) Coef() []float64 {
	if lr.coef_ == nil {
		return nil
	}
	coef := make([]float64, len(lr.coef_))
	copy(coef, lr.coef_)
	return coef
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept_
}

// Rank returns the effective rank found during Fit.
func (lr *LinearRegression) Rank() int {
	return lr.rank_
}

// GetParams returns the model's hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"fit_intercept": lr.fitIntercept,
		"rcond":         lr.rcond,
	}
}

// IsFitted returns whether the model has been fitted
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// String returns the string representation of the model
func (lr *LinearRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.fitIntercept)
	}
	nFeatures, _ := lr.state.GetDimensions()
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, fitted=true)",
		lr.fitIntercept, nFeatures)
}

var (
	_ model.Regressor       = (*LinearRegression)(nil)
	_ model.LinearModel     = (*LinearRegression)(nil)
	_ model.ParameterGetter = (*LinearRegression)(nil)
)
