// Package evaluation fits every registered model on the shared split and
// ranks the classifiers by test accuracy.
//
// Each model is evaluated by an explicit call returning a Result; the
// Runner appends results to an ordered slice. A failing model (error or
// panic) only marks its own Result.
package evaluation

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/sklearn/ensemble"
	"github.com/YuminosukeSato/playertier/sklearn/linear_model"
	"github.com/YuminosukeSato/playertier/sklearn/naive_bayes"
	"github.com/YuminosukeSato/playertier/sklearn/neighbors"
	"github.com/YuminosukeSato/playertier/sklearn/neural_network"
	"github.com/YuminosukeSato/playertier/sklearn/svm"
	"github.com/YuminosukeSato/playertier/sklearn/tree"
)

// Kind tells how a model's predictions are scored.
type Kind string

const (
	// KindRegressor models are scored with MSE/RMSE/R2 and never ranked.
	KindRegressor Kind = "regressor"
	// KindClassifier models are scored with accuracy and ranked.
	KindClassifier Kind = "classifier"
)

// Target selects the target encoding a model trains on.
type Target string

const (
	TargetOrdinal Target = "ordinal"
	TargetOneHot  Target = "onehot"
)

// Params are the hyperparameters the registry hands to model constructors.
type Params struct {
	Seed         int64   `koanf:"seed" yaml:"seed"`
	Jobs         int     `koanf:"jobs" yaml:"jobs"`
	Trees        int     `koanf:"trees" yaml:"trees"`
	Neighbors    int     `koanf:"neighbors" yaml:"neighbors"`
	C            float64 `koanf:"c" yaml:"c"`
	Epochs       int     `koanf:"epochs" yaml:"epochs"`
	BatchSize    int     `koanf:"batch_size" yaml:"batch_size"`
	LearningRate float64 `koanf:"learning_rate" yaml:"learning_rate"`
}

// DefaultParams returns the hyperparameters of the reference benchmark.
func DefaultParams() Params {
	return Params{
		Seed:         42,
		Trees:        100,
		Neighbors:    5,
		C:            1.0,
		Epochs:       50,
		BatchSize:    32,
		LearningRate: 1e-3,
	}
}

// Spec describes one registered model.
type Spec struct {
	Key    string
	Name   string
	Kind   Kind
	Target Target
	New    func(Params) model.Estimator
}

// Registry is an ordered set of model specs. Registration order is the
// order of results and the tie-break order of the ranking.
type Registry struct {
	specs []Spec
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register appends spec. Keys are unique.
func (r *Registry) Register(spec Spec) error {
	if spec.Key == "" || spec.New == nil {
		return errors.NewValidationError("spec", "needs a key and a constructor", spec.Key)
	}
	if _, ok := r.index[spec.Key]; ok {
		return errors.NewValidationError("spec", "duplicate model key", spec.Key)
	}
	if spec.Target == "" {
		spec.Target = TargetOrdinal
	}
	r.index[spec.Key] = len(r.specs)
	r.specs = append(r.specs, spec)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(spec Spec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Lookup returns the spec registered under key.
func (r *Registry) Lookup(key string) (Spec, bool) {
	i, ok := r.index[key]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Specs returns the registered specs in order.
func (r *Registry) Specs() []Spec {
	return append([]Spec(nil), r.specs...)
}

// Keys returns the registered keys in order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.specs))
	for i, s := range r.specs {
		keys[i] = s.Key
	}
	return keys
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.specs) }

// Select returns a registry holding only keys, kept in registration order.
// An empty selection keeps every model.
func (r *Registry) Select(keys []string) (*Registry, error) {
	if len(keys) == 0 {
		return r, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if _, ok := r.index[k]; !ok {
			return nil, errors.NewValidationError("models",
				fmt.Sprintf("unknown model key (known: %s)", strings.Join(r.Keys(), ", ")), k)
		}
		want[k] = true
	}
	out := NewRegistry()
	for _, s := range r.specs {
		if want[s.Key] {
			out.MustRegister(s)
		}
	}
	return out, nil
}

// DefaultRegistry registers the linear-regression baseline and the six
// classifier families.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Spec{
		Key: "lr", Name: "Linear Regression", Kind: KindRegressor,
		New: func(Params) model.Estimator { return linear_model.NewLinearRegression() },
	})
	r.MustRegister(Spec{
		Key: "dt", Name: "Decision Tree", Kind: KindClassifier,
		New: func(p Params) model.Estimator {
			return tree.NewDecisionTreeClassifier(tree.WithRandomState(p.Seed))
		},
	})
	r.MustRegister(Spec{
		Key: "rf", Name: "Random Forest", Kind: KindClassifier,
		New: func(p Params) model.Estimator {
			return ensemble.NewRandomForestClassifier(
				ensemble.WithNEstimators(p.Trees),
				ensemble.WithRandomState(p.Seed),
				ensemble.WithNJobs(p.Jobs),
			)
		},
	})
	r.MustRegister(Spec{
		Key: "knn", Name: "K-Nearest Neighbors", Kind: KindClassifier,
		New: func(p Params) model.Estimator {
			return neighbors.NewKNeighborsClassifier(
				neighbors.WithNNeighbors(p.Neighbors),
				neighbors.WithNJobs(p.Jobs),
			)
		},
	})
	r.MustRegister(Spec{
		Key: "nb", Name: "Naive Bayes", Kind: KindClassifier,
		New: func(Params) model.Estimator { return naive_bayes.NewGaussianNB() },
	})
	r.MustRegister(Spec{
		Key: "svm", Name: "Support Vector Machine", Kind: KindClassifier,
		New: func(p Params) model.Estimator {
			return svm.NewLinearSVC(svm.WithC(p.C), svm.WithRandomState(p.Seed))
		},
	})
	r.MustRegister(Spec{
		Key: "ann", Name: "Neural Network", Kind: KindClassifier, Target: TargetOneHot,
		New: func(p Params) model.Estimator {
			return neural_network.NewMLPClassifier(
				neural_network.WithEpochs(p.Epochs),
				neural_network.WithBatchSize(p.BatchSize),
				neural_network.WithLearningRate(p.LearningRate),
				neural_network.WithRandomState(p.Seed),
			)
		},
	})
	return r
}
