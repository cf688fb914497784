// Package metrics scores predictions: regression errors for the baseline
// regressor and accuracy, confusion matrices and per-class reports for the
// classifiers.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RegressionReport holds the regression metrics reported for a continuous
// predictor of the ordinal target.
type RegressionReport struct {
	MSE  float64 `json:"mse" yaml:"mse"`
	RMSE float64 `json:"rmse" yaml:"rmse"`
	MAE  float64 `json:"mae" yaml:"mae"`
	R2   float64 `json:"r2" yaml:"r2"`
}

// EvaluateRegression computes every RegressionReport field.
func EvaluateRegression(yTrue, yPred *mat.VecDense) (RegressionReport, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return RegressionReport{}, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return RegressionReport{}, err
	}
	r2, err := R2Score(yTrue, yPred)
	if err != nil {
		return RegressionReport{}, err
	}
	return RegressionReport{MSE: mse, RMSE: math.Sqrt(mse), MAE: mae, R2: r2}, nil
}

// checkPair validates two vectors of equal, non-zero length.
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.IsEmpty() {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.IsEmpty() || yPred.Len() != n {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError(op, n, got, 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	return mat.Dot(&diff, &diff) / float64(n), nil
}

// MSEMatrix は行列形式の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	return MSE(ColumnVec(yTrue), ColumnVec(yPred))
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	truth, pred := toSlices(yTrue, yPred, n)
	return floats.Distance(truth, pred, 1) / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	truth, pred := toSlices(yTrue, yPred, n)

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if stat.PopVariance(truth, nil) == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return stat.RSquaredFrom(pred, truth, nil), nil
}

func toSlices(yTrue, yPred *mat.VecDense, n int) ([]float64, []float64) {
	truth := make([]float64, n)
	pred := make([]float64, n)
	for i := 0; i < n; i++ {
		truth[i] = yTrue.AtVec(i)
		pred[i] = yPred.AtVec(i)
	}
	return truth, pred
}

// ColumnVec copies the first column of m into a vector.
func ColumnVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
