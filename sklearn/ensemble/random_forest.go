// Package ensemble provides a bagged random forest of CART trees.
package ensemble

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/core/parallel"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/sklearn/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RandomForestClassifier averages the class probabilities of trees grown on
// bootstrap samples, each split considering a random feature subset.
//
// Every tree draws its bootstrap sample and feature subsets from its own
// seed, derived up front from randomState, so the fitted forest does not
// depend on how trees are scheduled across workers.
type RandomForestClassifier struct {
	state *model.StateManager

	nEstimators     int
	criterion       string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "sqrt", "log2" or "all"
	bootstrap       bool
	randomState     int64
	nJobs           int

	estimators_ []*tree.DecisionTreeClassifier
	classes_    []int
}

// Option configures a RandomForestClassifier.
type Option func(*RandomForestClassifier)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(rf *RandomForestClassifier) { rf.nEstimators = n }
}

// WithCriterion sets the tree impurity criterion.
func WithCriterion(criterion string) Option {
	return func(rf *RandomForestClassifier) { rf.criterion = criterion }
}

// WithMaxDepth limits every tree's depth. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestClassifier) { rf.maxDepth = depth }
}

// WithMinSamplesLeaf sets the minimum samples per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(rf *RandomForestClassifier) { rf.minSamplesLeaf = n }
}

// WithMaxFeatures sets the per-split feature subset: "sqrt", "log2" or "all".
func WithMaxFeatures(rule string) Option {
	return func(rf *RandomForestClassifier) { rf.maxFeatures = rule }
}

// WithBootstrap toggles bootstrap sampling. Without it every tree sees all rows.
func WithBootstrap(bootstrap bool) Option {
	return func(rf *RandomForestClassifier) { rf.bootstrap = bootstrap }
}

// WithRandomState seeds the forest.
func WithRandomState(seed int64) Option {
	return func(rf *RandomForestClassifier) { rf.randomState = seed }
}

// WithNJobs sets the number of workers growing trees. 0 uses every CPU.
func WithNJobs(n int) Option {
	return func(rf *RandomForestClassifier) { rf.nJobs = n }
}

// NewRandomForestClassifier creates a forest of 100 gini trees with sqrt
// feature sampling and bootstrap, seeded with 42.
func NewRandomForestClassifier(opts ...Option) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:           model.NewStateManager(),
		nEstimators:     100,
		criterion:       "gini",
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "sqrt",
		bootstrap:       true,
		randomState:     42,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

func (rf *RandomForestClassifier) featuresPerSplit(nFeatures int) (int, error) {
	var k int
	switch rf.maxFeatures {
	case "sqrt":
		k = int(math.Sqrt(float64(nFeatures)))
	case "log2":
		k = int(math.Log2(float64(nFeatures)))
	case "all", "":
		k = nFeatures
	default:
		return 0, errors.NewValidationError("max_features", "must be sqrt, log2 or all", rf.maxFeatures)
	}
	return max(1, k), nil
}

// Fit grows the forest.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.nEstimators)
	}
	k, err := rf.featuresPerSplit(cols)
	if err != nil {
		return err
	}

	classes, _, err := tree.EncodeClasses(y)
	if err != nil {
		return err
	}

	master := rand.New(rand.NewSource(rf.randomState))
	seeds := make([]int64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	Xd := mat.DenseCopyOf(X)
	yd := mat.DenseCopyOf(y)
	estimators := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	errs := make([]error, rf.nEstimators)

	parallel.ParallelizeN(rf.nEstimators, rf.nJobs, func(start, end int) {
		for i := start; i < end; i++ {
			estimators[i], errs[i] = rf.growTree(Xd, yd, k, seeds[i])
		}
	})
	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}

	rf.estimators_ = estimators
	rf.classes_ = classes
	rf.state.SetDimensions(cols, rows)
	rf.state.SetFitted()
	return nil
}

func (rf *RandomForestClassifier) growTree(X, y *mat.Dense, maxFeatures int, seed int64) (*tree.DecisionTreeClassifier, error) {
	rows, _ := X.Dims()
	rng := rand.New(rand.NewSource(seed))

	samples := make([]int, rows)
	for i := range samples {
		if rf.bootstrap {
			samples[i] = rng.Intn(rows)
		} else {
			samples[i] = i
		}
	}

	dt := tree.NewDecisionTreeClassifier(
		tree.WithCriterion(rf.criterion),
		tree.WithMaxDepth(rf.maxDepth),
		tree.WithMinSamplesSplit(rf.minSamplesSplit),
		tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
		tree.WithMaxFeatures(maxFeatures),
		tree.WithRandomState(rng.Int63()),
	)
	if err := dt.FitSamples(X, y, samples); err != nil {
		return nil, err
	}
	return dt, nil
}

// PredictProba averages the trees' class probabilities.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := rf.state.RequireFeatures("RandomForestClassifier.PredictProba", cols); err != nil {
		return nil, err
	}

	sum := mat.NewDense(rows, len(rf.classes_), nil)
	for _, est := range rf.estimators_ {
		p, err := est.PredictProba(X)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, p)
	}
	sum.Scale(1/float64(len(rf.estimators_)), sum)
	return sum, nil
}

// Predict returns the class with the highest mean probability.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return tree.LabelsFromProba(proba, rf.classes_), nil
}

// Classes returns the sorted class labels seen during fitting.
func (rf *RandomForestClassifier) Classes() []int {
	return append([]int(nil), rf.classes_...)
}

// Estimators returns the fitted trees.
func (rf *RandomForestClassifier) Estimators() []*tree.DecisionTreeClassifier {
	return append([]*tree.DecisionTreeClassifier(nil), rf.estimators_...)
}

// GetFeatureImportances averages the trees' importances.
func (rf *RandomForestClassifier) GetFeatureImportances() []float64 {
	if len(rf.estimators_) == 0 {
		return nil
	}
	nFeatures, _ := rf.state.GetDimensions()
	out := make([]float64, nFeatures)
	for _, est := range rf.estimators_ {
		floats.Add(out, est.GetFeatureImportances())
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}

// GetParams returns the model's hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     rf.nEstimators,
		"criterion":        rf.criterion,
		"max_depth":        rf.maxDepth,
		"min_samples_leaf": rf.minSamplesLeaf,
		"max_features":     rf.maxFeatures,
		"bootstrap":        rf.bootstrap,
		"random_state":     rf.randomState,
		"n_jobs":           rf.nJobs,
	}
}

func (rf *RandomForestClassifier) String() string {
	return fmt.Sprintf("RandomForestClassifier(n_estimators=%d, max_features=%s, random_state=%d)",
		rf.nEstimators, rf.maxFeatures, rf.randomState)
}

var (
	_ model.Classifier      = (*RandomForestClassifier)(nil)
	_ model.ParameterGetter = (*RandomForestClassifier)(nil)
)
