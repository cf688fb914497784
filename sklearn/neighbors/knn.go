// Package neighbors provides a brute-force k-nearest-neighbours classifier.
package neighbors

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/core/parallel"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/sklearn/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KNeighborsClassifier votes among the k training rows closest to each
// query under the Euclidean distance. Votes are uniform; a tied vote goes
// to the smallest class label.
type KNeighborsClassifier struct {
	state *model.StateManager

	nNeighbors int
	nJobs      int

	X_       *mat.Dense
	labels_  []int
	classes_ []int
}

// Option configures a KNeighborsClassifier.
type Option func(*KNeighborsClassifier)

// WithNNeighbors sets k.
func WithNNeighbors(k int) Option {
	return func(knn *KNeighborsClassifier) { knn.nNeighbors = k }
}

// WithNJobs sets the number of workers answering queries. 0 uses every CPU.
func WithNJobs(n int) Option {
	return func(knn *KNeighborsClassifier) { knn.nJobs = n }
}

// NewKNeighborsClassifier creates a 5-neighbour classifier.
func NewKNeighborsClassifier(opts ...Option) *KNeighborsClassifier {
	knn := &KNeighborsClassifier{
		state:      model.NewStateManager(),
		nNeighbors: 5,
	}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// Fit memorises the training rows.
func (knn *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("KNeighborsClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", rows, yRows, 0)
	}
	if knn.nNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be at least 1", knn.nNeighbors)
	}
	if knn.nNeighbors > rows {
		return errors.NewValidationError("n_neighbors", fmt.Sprintf("cannot exceed the %d training samples", rows), knn.nNeighbors)
	}

	classes, labels, err := tree.EncodeClasses(y)
	if err != nil {
		return err
	}

	knn.X_ = mat.DenseCopyOf(X)
	knn.labels_ = labels
	knn.classes_ = classes
	knn.state.SetDimensions(cols, rows)
	knn.state.SetFitted()
	return nil
}

type neighbor struct {
	dist  float64
	index int
}

// kNearest returns the k nearest training rows to x. Equal distances keep
// the earlier training row.
func (knn *KNeighborsClassifier) kNearest(x []float64) []neighbor {
	rows, _ := knn.X_.Dims()
	all := make([]neighbor, rows)
	for i := 0; i < rows; i++ {
		all[i] = neighbor{dist: floats.Distance(x, knn.X_.RawRowView(i), 2), index: i}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })
	return all[:knn.nNeighbors]
}

// PredictProba returns the vote share of every class.
func (knn *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := knn.state.RequireFitted("KNeighborsClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := knn.state.RequireFeatures("KNeighborsClassifier.PredictProba", cols); err != nil {
		return nil, err
	}

	Xd := mat.DenseCopyOf(X)
	proba := mat.NewDense(rows, len(knn.classes_), nil)
	parallel.ParallelizeN(rows, knn.nJobs, func(start, end int) {
		for i := start; i < end; i++ {
			for _, nb := range knn.kNearest(Xd.RawRowView(i)) {
				c := knn.labels_[nb.index]
				proba.Set(i, c, proba.At(i, c)+1)
			}
			row := proba.RawRowView(i)
			floats.Scale(1/float64(knn.nNeighbors), row)
		}
	})
	return proba, nil
}

// Predict returns the majority class among the k nearest rows.
func (knn *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return tree.LabelsFromProba(proba, knn.classes_), nil
}

// KNeighbors returns the distances and training-row indices of the k
// nearest neighbours of every query row.
func (knn *KNeighborsClassifier) KNeighbors(X mat.Matrix) ([][]float64, [][]int, error) {
	if err := knn.state.RequireFitted("KNeighborsClassifier", "KNeighbors"); err != nil {
		return nil, nil, err
	}
	rows, cols := X.Dims()
	if err := knn.state.RequireFeatures("KNeighborsClassifier.KNeighbors", cols); err != nil {
		return nil, nil, err
	}
	dists := make([][]float64, rows)
	idx := make([][]int, rows)
	x := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(x, i, X)
		for _, nb := range knn.kNearest(x) {
			dists[i] = append(dists[i], nb.dist)
			idx[i] = append(idx[i], nb.index)
		}
	}
	return dists, idx, nil
}

// Classes returns the sorted class labels seen during fitting.
func (knn *KNeighborsClassifier) Classes() []int {
	return append([]int(nil), knn.classes_...)
}

// GetParams returns the model's hyperparameters.
func (knn *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": knn.nNeighbors,
		"metric":      "euclidean",
		"weights":     "uniform",
		"n_jobs":      knn.nJobs,
	}
}

func (knn *KNeighborsClassifier) String() string {
	return fmt.Sprintf("KNeighborsClassifier(n_neighbors=%d)", knn.nNeighbors)
}

var (
	_ model.Classifier      = (*KNeighborsClassifier)(nil)
	_ model.ParameterGetter = (*KNeighborsClassifier)(nil)
)
