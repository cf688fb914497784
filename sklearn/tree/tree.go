// Package tree provides a CART decision tree classifier.
package tree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DecisionTreeClassifier is a CART classification tree with gini or entropy
// impurity. Splits use midpoints between consecutive distinct feature values.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	maxDepth        int    // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // features considered per split, 0 means all
	randomState     int64

	// Learned parameters
	classes_            []int
	nClasses_           int
	nFeatures_          int
	nodes_              []node
	featureImportances_ []float64
}

// node is one tree node. Leaves have left == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	depth     int
	nSamples  int
	impurity  float64
	proba     []float64
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// WithCriterion sets the impurity criterion: "gini" or "entropy".
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) { dt.criterion = criterion }
}

// WithMaxDepth limits the tree depth. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) { dt.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum samples a node needs to be split.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples on each side of a split.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesLeaf = n }
}

// WithMaxFeatures sets how many randomly drawn features each split
// considers. 0 means all features in column order.
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.maxFeatures = n }
}

// WithRandomState seeds the feature sampling.
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeClassifier) { dt.randomState = seed }
}

// NewDecisionTreeClassifier creates a tree with gini impurity, unlimited
// depth, min_samples_split 2 and min_samples_leaf 1.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// Fit builds the tree on all rows of X.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	return dt.FitSamples(X, y, indices)
}

// FitSamples builds the tree on the rows listed in samples, which may repeat
// (bootstrap draws). Classes are taken from every row of y so trees grown
// on different samples share the same probability columns.
func (dt *DecisionTreeClassifier) FitSamples(X, y mat.Matrix, samples []int) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 || len(samples) == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", 1, yCols, 1)
	}
	if err := dt.validate(); err != nil {
		return err
	}

	classes, labels, err := EncodeClasses(y)
	if err != nil {
		return err
	}

	dt.classes_ = classes
	dt.nClasses_ = len(classes)
	dt.nFeatures_ = cols
	dt.nodes_ = dt.nodes_[:0]
	dt.featureImportances_ = make([]float64, cols)

	b := &builder{
		dt:     dt,
		X:      mat.DenseCopyOf(X),
		labels: labels,
		rng:    rand.New(rand.NewSource(dt.randomState)),
	}
	b.build(append([]int(nil), samples...), 0)

	if total := floats.Sum(dt.featureImportances_); total > 0 {
		floats.Scale(1/total, dt.featureImportances_)
	}

	dt.state.SetDimensions(cols, len(samples))
	dt.state.SetFitted()
	return nil
}

func (dt *DecisionTreeClassifier) validate() error {
	switch dt.criterion {
	case "gini", "entropy":
	default:
		return errors.NewValidationError("criterion", "must be gini or entropy", dt.criterion)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	if dt.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must not be negative", dt.maxDepth)
	}
	if dt.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must not be negative", dt.maxFeatures)
	}
	return nil
}

// PredictProba returns class probabilities, columns in Classes order.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := dt.state.RequireFeatures("DecisionTreeClassifier.PredictProba", cols); err != nil {
		return nil, err
	}

	out := mat.NewDense(rows, dt.nClasses_, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.SetRow(i, dt.nodes_[dt.leaf(row)].proba)
	}
	return out, nil
}

// Predict returns the most probable class label of each row.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return LabelsFromProba(proba, dt.classes_), nil
}

// Score returns the mean accuracy on X and y, or 0 when prediction fails.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	rows, _ := y.Dims()
	if rows == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < rows; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

func (dt *DecisionTreeClassifier) leaf(x []float64) int {
	idx := 0
	for dt.nodes_[idx].left >= 0 {
		n := dt.nodes_[idx]
		if x[n.feature] <= n.threshold {
			idx = n.left
		} else {
			idx = n.right
		}
	}
	return idx
}

// Classes returns the sorted class labels seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// GetFeatureImportances returns the normalized total impurity decrease
// contributed by each feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetDepth returns the depth of the deepest leaf; a single leaf has depth 0.
func (dt *DecisionTreeClassifier) GetDepth() int {
	depth := 0
	for _, n := range dt.nodes_ {
		if n.depth > depth {
			depth = n.depth
		}
	}
	return depth
}

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	leaves := 0
	for _, n := range dt.nodes_ {
		if n.left < 0 {
			leaves++
		}
	}
	return leaves
}

// GetParams returns the model's hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets hyperparameters by name. Unknown names are ignored.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	if v, ok := params["criterion"].(string); ok {
		dt.criterion = v
	}
	if v, ok := params["max_depth"].(int); ok {
		dt.maxDepth = v
	}
	if v, ok := params["min_samples_split"].(int); ok {
		dt.minSamplesSplit = v
	}
	if v, ok := params["min_samples_leaf"].(int); ok {
		dt.minSamplesLeaf = v
	}
	if v, ok := params["max_features"].(int); ok {
		dt.maxFeatures = v
	}
	if v, ok := params["random_state"].(int64); ok {
		dt.randomState = v
	}
	return dt.validate()
}

func (dt *DecisionTreeClassifier) String() string {
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		dt.criterion, dt.maxDepth, dt.minSamplesSplit, dt.minSamplesLeaf)
}

// builder holds the per-Fit working state.
type builder struct {
	dt     *DecisionTreeClassifier
	X      *mat.Dense
	labels []int
	rng    *rand.Rand
}

type split struct {
	feature   int
	threshold float64
	impurity  float64 // weighted child impurity
	nLeft     int
	found     bool
}

// build grows the subtree for samples and returns its node index.
func (b *builder) build(samples []int, depth int) int {
	dt := b.dt
	counts := make([]float64, dt.nClasses_)
	for _, s := range samples {
		counts[b.labels[s]]++
	}
	n := float64(len(samples))
	impurity := b.impurity(counts, n)

	proba := make([]float64, dt.nClasses_)
	copy(proba, counts)
	floats.Scale(1/n, proba)

	idx := len(dt.nodes_)
	dt.nodes_ = append(dt.nodes_, node{
		feature:  -1,
		left:     -1,
		right:    -1,
		depth:    depth,
		nSamples: len(samples),
		impurity: impurity,
		proba:    proba,
	})

	if impurity <= 0 ||
		len(samples) < dt.minSamplesSplit ||
		len(samples) < 2*dt.minSamplesLeaf ||
		(dt.maxDepth > 0 && depth >= dt.maxDepth) {
		return idx
	}

	best := b.bestSplit(samples)
	if !best.found {
		return idx
	}

	f := best.feature
	sort.SliceStable(samples, func(i, j int) bool {
		return b.X.At(samples[i], f) < b.X.At(samples[j], f)
	})
	left := samples[:best.nLeft]
	right := samples[best.nLeft:]

	dt.featureImportances_[f] += n*impurity - n*best.impurity

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	nd := &dt.nodes_[idx]
	nd.feature = f
	nd.threshold = best.threshold
	nd.left = l
	nd.right = r
	return idx
}

// bestSplit scans candidate features for the split with the lowest weighted
// child impurity. Ties keep the first candidate found.
func (b *builder) bestSplit(samples []int) split {
	dt := b.dt
	features := b.candidateFeatures()
	n := len(samples)

	best := split{impurity: math.Inf(1)}
	sorted := make([]int, n)
	for _, f := range features {
		copy(sorted, samples)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.X.At(sorted[i], f) < b.X.At(sorted[j], f)
		})

		left := make([]float64, dt.nClasses_)
		right := make([]float64, dt.nClasses_)
		for _, s := range sorted {
			right[b.labels[s]]++
		}

		for i := 0; i < n-1; i++ {
			c := b.labels[sorted[i]]
			left[c]++
			right[c]--

			nLeft := i + 1
			if nLeft < dt.minSamplesLeaf || n-nLeft < dt.minSamplesLeaf {
				continue
			}
			v, next := b.X.At(sorted[i], f), b.X.At(sorted[i+1], f)
			if v == next {
				continue
			}

			nl, nr := float64(nLeft), float64(n-nLeft)
			weighted := (nl*b.impurity(left, nl) + nr*b.impurity(right, nr)) / float64(n)
			if weighted < best.impurity {
				threshold := v + (next-v)/2
				if threshold >= next {
					threshold = v
				}
				best = split{feature: f, threshold: threshold, impurity: weighted, nLeft: nLeft, found: true}
			}
		}
	}
	return best
}

func (b *builder) candidateFeatures() []int {
	nFeatures := b.dt.nFeatures_
	k := b.dt.maxFeatures
	if k <= 0 || k >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(nFeatures)[:k]
}

func (b *builder) impurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	switch b.dt.criterion {
	case "entropy":
		h := 0.0
		for _, c := range counts {
			if c > 0 {
				p := c / n
				h -= p * math.Log2(p)
			}
		}
		return h
	default:
		g := 1.0
		for _, c := range counts {
			p := c / n
			g -= p * p
		}
		return g
	}
}

var (
	_ model.Classifier      = (*DecisionTreeClassifier)(nil)
	_ model.ParameterGetter = (*DecisionTreeClassifier)(nil)
)
