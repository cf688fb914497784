// Package svm provides a linear support-vector classifier trained with the
// Pegasos stochastic subgradient method.
package svm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/sklearn/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearSVC is a one-vs-rest linear SVM minimising the L2-regularised hinge
// loss. The intercept is learned as the weight of a constant feature and is
// regularised with the other weights.
type LinearSVC struct {
	state *model.StateManager

	c                float64
	maxIter          int
	tol              float64
	fitIntercept     bool
	interceptScaling float64
	randomState      int64

	classes_   []int
	coef_      *mat.Dense // (n_classes, n_features)
	intercept_ []float64
	nIter_     int
}

// Option configures LinearSVC.
type Option func(*LinearSVC)

// WithC sets the inverse regularisation strength.
func WithC(c float64) Option {
	return func(svc *LinearSVC) { svc.c = c }
}

// WithMaxIter caps the number of epochs per binary problem.
func WithMaxIter(n int) Option {
	return func(svc *LinearSVC) { svc.maxIter = n }
}

// WithTol sets the relative objective change under which training stops.
func WithTol(tol float64) Option {
	return func(svc *LinearSVC) { svc.tol = tol }
}

// WithFitIntercept toggles the intercept.
func WithFitIntercept(fit bool) Option {
	return func(svc *LinearSVC) { svc.fitIntercept = fit }
}

// WithRandomState seeds the epoch shuffles.
func WithRandomState(seed int64) Option {
	return func(svc *LinearSVC) { svc.randomState = seed }
}

// NewLinearSVC creates a LinearSVC with C=1, 1000 epochs and seed 42.
func NewLinearSVC(opts ...Option) *LinearSVC {
	svc := &LinearSVC{
		state:            model.NewStateManager(),
		c:                1.0,
		maxIter:          1000,
		tol:              1e-4,
		fitIntercept:     true,
		interceptScaling: 1.0,
		randomState:      42,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Fit trains one binary classifier per class.
func (svc *LinearSVC) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("LinearSVC.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("LinearSVC.Fit", rows, yRows, 0)
	}
	if svc.c <= 0 {
		return errors.NewValidationError("C", "must be positive", svc.c)
	}
	if svc.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", svc.maxIter)
	}

	classes, labels, err := tree.EncodeClasses(y)
	if err != nil {
		return err
	}
	if len(classes) < 2 {
		return errors.NewValueError("LinearSVC.Fit", "needs samples of at least 2 classes")
	}

	// augmented design matrix; the last column is the intercept feature
	width := cols
	if svc.fitIntercept {
		width++
	}
	A := mat.NewDense(rows, width, nil)
	A.Slice(0, rows, 0, cols).(*mat.Dense).Copy(X)
	if svc.fitIntercept {
		for i := 0; i < rows; i++ {
			A.Set(i, cols, svc.interceptScaling)
		}
	}

	coef := mat.NewDense(len(classes), cols, nil)
	intercept := make([]float64, len(classes))
	rng := rand.New(rand.NewSource(svc.randomState))
	target := make([]float64, rows)
	maxIter := 0
	var unconverged []int

	for k, class := range classes {
		for i, l := range labels {
			target[i] = -1
			if l == k {
				target[i] = 1
			}
		}
		w, iters, converged, err := svc.pegasos(A, target, rng)
		if err != nil {
			return err
		}
		coef.SetRow(k, w[:cols])
		if svc.fitIntercept {
			intercept[k] = w[cols] * svc.interceptScaling
		}
		maxIter = max(maxIter, iters)
		if !converged {
			unconverged = append(unconverged, class)
		}
	}
	if len(unconverged) > 0 {
		errors.Warn(errors.NewConvergenceWarning("LinearSVC", svc.maxIter,
			fmt.Sprintf("one-vs-rest problems for classes %v did not converge", unconverged)))
	}

	svc.classes_ = classes
	svc.coef_ = coef
	svc.intercept_ = intercept
	svc.nIter_ = maxIter
	svc.state.SetDimensions(cols, rows)
	svc.state.SetFitted()
	return nil
}

// pegasos solves min λ/2|w|² + 1/n Σ max(0, 1 - y_i w·x_i) with λ = 1/(C n).
// Each epoch visits every row once in a shuffled order.
func (svc *LinearSVC) pegasos(A *mat.Dense, y []float64, rng *rand.Rand) ([]float64, int, bool, error) {
	n, d := A.Dims()
	lambda := 1 / (svc.c * float64(n))
	radius := 1 / math.Sqrt(lambda)

	w := make([]float64, d)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	prev := math.Inf(1)
	t := 0
	for epoch := 1; epoch <= svc.maxIter; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			t++
			eta := 1 / (lambda * float64(t))
			x := A.RawRowView(i)
			margin := y[i] * floats.Dot(w, x)
			floats.Scale(1-eta*lambda, w)
			if margin < 1 {
				floats.AddScaled(w, eta*y[i], x)
			}
			if norm := floats.Norm(w, 2); norm > radius {
				floats.Scale(radius/norm, w)
			}
		}

		obj := objective(A, y, w, lambda)
		if err := errors.CheckScalar("LinearSVC.Fit", obj, epoch); err != nil {
			return nil, epoch, false, err
		}
		if math.Abs(prev-obj) <= svc.tol*math.Max(1, obj) {
			return w, epoch, true, nil
		}
		prev = obj
	}
	return w, svc.maxIter, false, nil
}

func objective(A *mat.Dense, y, w []float64, lambda float64) float64 {
	n, _ := A.Dims()
	hinge := 0.0
	for i := 0; i < n; i++ {
		hinge += math.Max(0, 1-y[i]*floats.Dot(w, A.RawRowView(i)))
	}
	return lambda/2*floats.Dot(w, w) + hinge/float64(n)
}

// DecisionFunction returns the signed distance to every class hyperplane.
func (svc *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := svc.state.RequireFitted("LinearSVC", "DecisionFunction"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := svc.state.RequireFeatures("LinearSVC.DecisionFunction", cols); err != nil {
		return nil, err
	}
	scores := mat.NewDense(rows, len(svc.classes_), nil)
	scores.Mul(X, svc.coef_.T())
	scores.Apply(func(_, j int, v float64) float64 { return v + svc.intercept_[j] }, scores)
	return scores, nil
}

// PredictProba returns a softmax over the decision scores. The values are
// uncalibrated and only preserve the ranking of the classes.
func (svc *LinearSVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := svc.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	proba := scores.(*mat.Dense)
	rows, _ := proba.Dims()
	for i := 0; i < rows; i++ {
		row := proba.RawRowView(i)
		lse := errors.LogSumExp(row)
		for j := range row {
			row[j] = math.Exp(row[j] - lse)
		}
	}
	return proba, nil
}

// Predict returns the class with the largest decision score.
func (svc *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := svc.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	return tree.LabelsFromProba(scores, svc.classes_), nil
}

// Classes returns the sorted class labels seen during fitting.
func (svc *LinearSVC) Classes() []int {
	return append([]int(nil), svc.classes_...)
}

// Coef returns the per-class weights.
func (svc *LinearSVC) Coef() mat.Matrix { return svc.coef_ }

// Intercept returns the per-class intercepts.
func (svc *LinearSVC) Intercept() []float64 {
	return append([]float64(nil), svc.intercept_...)
}

// NIter returns the largest epoch count used by any binary problem.
func (svc *LinearSVC) NIter() int { return svc.nIter_ }

// GetParams returns the model's hyperparameters.
func (svc *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":                 svc.c,
		"max_iter":          svc.maxIter,
		"tol":               svc.tol,
		"fit_intercept":     svc.fitIntercept,
		"intercept_scaling": svc.interceptScaling,
		"random_state":      svc.randomState,
	}
}

func (svc *LinearSVC) String() string {
	return fmt.Sprintf("LinearSVC(C=%g, max_iter=%d, random_state=%d)", svc.c, svc.maxIter, svc.randomState)
}

var (
	_ model.Classifier      = (*LinearSVC)(nil)
	_ model.ParameterGetter = (*LinearSVC)(nil)
)
