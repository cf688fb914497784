// Package naive_bayes provides a Gaussian naive Bayes classifier.
package naive_bayes

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/sklearn/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianNB models every feature as an independent normal distribution per
// class.
type GaussianNB struct {
	state *model.StateManager

	varSmoothing float64
	priors       []float64

	classes_    []int
	classCount_ []float64
	classPrior_ []float64
	theta_      *mat.Dense // class means (n_classes, n_features)
	var_        *mat.Dense // class variances (n_classes, n_features)
	epsilon_    float64
}

// Option configures GaussianNB.
type Option func(*GaussianNB)

// WithVarSmoothing sets the share of the largest feature variance added to
// every variance.
func WithVarSmoothing(v float64) Option {
	return func(nb *GaussianNB) { nb.varSmoothing = v }
}

// WithPriors fixes the class priors instead of estimating them from y.
func WithPriors(priors []float64) Option {
	return func(nb *GaussianNB) { nb.priors = append([]float64(nil), priors...) }
}

// NewGaussianNB creates a Gaussian naive Bayes classifier with var_smoothing 1e-9.
func NewGaussianNB(opts ...Option) *GaussianNB {
	nb := &GaussianNB{
		state:        model.NewStateManager(),
		varSmoothing: 1e-9,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit estimates per-class means and variances.
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("GaussianNB.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("GaussianNB.Fit", rows, yRows, 0)
	}
	if nb.varSmoothing < 0 {
		return errors.NewValidationError("var_smoothing", "must be non-negative", nb.varSmoothing)
	}

	classes, labels, err := tree.EncodeClasses(y)
	if err != nil {
		return err
	}
	nClasses := len(classes)

	// epsilon scales with the largest feature variance
	col := make([]float64, rows)
	maxVar := 0.0
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		maxVar = math.Max(maxVar, stat.PopVariance(col, nil))
	}
	epsilon := nb.varSmoothing * maxVar

	theta := mat.NewDense(nClasses, cols, nil)
	variance := mat.NewDense(nClasses, cols, nil)
	counts := make([]float64, nClasses)

	byClass := make([][]int, nClasses)
	for i, c := range labels {
		byClass[c] = append(byClass[c], i)
		counts[c]++
	}
	values := make([]float64, 0, rows)
	for c, members := range byClass {
		for j := 0; j < cols; j++ {
			values = values[:0]
			for _, i := range members {
				values = append(values, X.At(i, j))
			}
			mean, std := stat.PopMeanStdDev(values, nil)
			theta.Set(c, j, mean)
			variance.Set(c, j, std*std+epsilon)
		}
	}

	priors := make([]float64, nClasses)
	if nb.priors != nil {
		if len(nb.priors) != nClasses {
			return errors.NewValidationError("priors", fmt.Sprintf("expected %d class priors", nClasses), nb.priors)
		}
		if math.Abs(floats.Sum(nb.priors)-1) > 1e-8 {
			return errors.NewValidationError("priors", "must sum to 1", nb.priors)
		}
		copy(priors, nb.priors)
	} else {
		for c := range priors {
			priors[c] = counts[c] / float64(rows)
		}
	}

	nb.classes_ = classes
	nb.classCount_ = counts
	nb.classPrior_ = priors
	nb.theta_ = theta
	nb.var_ = variance
	nb.epsilon_ = epsilon
	nb.state.SetDimensions(cols, rows)
	nb.state.SetFitted()
	return nil
}

// jointLogLikelihood returns log P(c) + sum_j log N(x_j; theta_cj, var_cj)
// for every row and class.
func (nb *GaussianNB) jointLogLikelihood(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if err := nb.state.RequireFeatures("GaussianNB.Predict", cols); err != nil {
		return nil, err
	}
	nClasses := len(nb.classes_)
	jll := mat.NewDense(rows, nClasses, nil)

	dists := make([][]distuv.Normal, nClasses)
	for c := range dists {
		dists[c] = make([]distuv.Normal, cols)
		for j := 0; j < cols; j++ {
			dists[c][j] = distuv.Normal{Mu: nb.theta_.At(c, j), Sigma: math.Sqrt(nb.var_.At(c, j))}
		}
	}

	for i := 0; i < rows; i++ {
		for c := 0; c < nClasses; c++ {
			ll := math.Log(nb.classPrior_[c])
			for j := 0; j < cols; j++ {
				ll += dists[c][j].LogProb(X.At(i, j))
			}
			jll.Set(i, c, ll)
		}
	}
	return jll, nil
}

// PredictLogProba returns normalised log class probabilities.
func (nb *GaussianNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	if err := nb.state.RequireFitted("GaussianNB", "PredictLogProba"); err != nil {
		return nil, err
	}
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	rows, _ := jll.Dims()
	for i := 0; i < rows; i++ {
		row := jll.RawRowView(i)
		floats.AddConst(-errors.LogSumExp(row), row)
	}
	return jll, nil
}

// PredictProba returns class probabilities.
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	proba := mat.DenseCopyOf(logProba)
	proba.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, proba)
	return proba, nil
}

// Predict returns the class with the highest posterior.
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := nb.state.RequireFitted("GaussianNB", "Predict"); err != nil {
		return nil, err
	}
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return tree.LabelsFromProba(jll, nb.classes_), nil
}

// Classes returns the sorted class labels seen during fitting.
func (nb *GaussianNB) Classes() []int {
	return append([]int(nil), nb.classes_...)
}

// ClassPrior returns the prior of every class.
func (nb *GaussianNB) ClassPrior() []float64 {
	return append([]float64(nil), nb.classPrior_...)
}

// Theta returns the per-class feature means.
func (nb *GaussianNB) Theta() mat.Matrix { return nb.theta_ }

// Var returns the per-class feature variances, smoothing included.
func (nb *GaussianNB) Var() mat.Matrix { return nb.var_ }

// GetParams returns the model's hyperparameters.
func (nb *GaussianNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"var_smoothing": nb.varSmoothing,
		"priors":        nb.priors,
	}
}

func (nb *GaussianNB) String() string {
	return fmt.Sprintf("GaussianNB(var_smoothing=%g)", nb.varSmoothing)
}

var (
	_ model.Classifier      = (*GaussianNB)(nil)
	_ model.ParameterGetter = (*GaussianNB)(nil)
)
