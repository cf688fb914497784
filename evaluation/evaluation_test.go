package evaluation

import (
	"context"
	"fmt"
	"testing"

	"github.com/YuminosukeSato/playertier/core/model"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/YuminosukeSato/playertier/player/playertest"
	"github.com/YuminosukeSato/playertier/prepare"
	"gonum.org/v1/gonum/mat"
)

func syntheticDataset(t *testing.T, n int) *prepare.Dataset {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelError)
	ds, err := prepare.NewPreparer(prepare.WithLogger(logger)).Prepare(context.Background(), playertest.Records(n))
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	return ds
}

// fake predicts a fixed label vector.
type fake struct {
	pred   []int
	fitErr error
	panics bool
}

func (f *fake) Fit(X, y mat.Matrix) error {
	if f.panics {
		panic("boom")
	}
	return f.fitErr
}

func (f *fake) Predict(X mat.Matrix) (mat.Matrix, error) {
	out := mat.NewDense(len(f.pred), 1, nil)
	for i, p := range f.pred {
		out.Set(i, 0, float64(p))
	}
	return out, nil
}

func constant(n, label int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = label
	}
	return out
}

func fakeSpec(key string, f *fake) Spec {
	return Spec{Key: key, Name: "model " + key, Kind: KindClassifier,
		New: func(Params) model.Estimator { return f }}
}

func quietRunner(reg *Registry, opts ...RunnerOption) (*Runner, *log.TestLogger) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return NewRunner(reg, append([]RunnerOption{WithLogger(logger)}, opts...)...), logger
}

func TestRunnerIsolatesFailures(t *testing.T) {
	ds := syntheticDataset(t, 200)
	n := len(ds.Test.Y)

	reg := NewRegistry()
	reg.MustRegister(fakeSpec("broken", &fake{fitErr: errors.New("solver diverged")}))
	reg.MustRegister(fakeSpec("perfect", &fake{pred: ds.Test.Y}))
	reg.MustRegister(fakeSpec("panicky", &fake{panics: true}))
	reg.MustRegister(fakeSpec("constant", &fake{pred: constant(n, 0)}))

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			runner, logger := quietRunner(reg, WithWorkers(workers))
			run, err := runner.Run(context.Background(), ds)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			keys := []string{"broken", "perfect", "panicky", "constant"}
			for i, res := range run.Results {
				if res.Key != keys[i] {
					t.Errorf("result %d = %s, want %s", i, res.Key, keys[i])
				}
			}
			if len(run.Failures()) != 2 {
				t.Fatalf("expected 2 failures, got %d", len(run.Failures()))
			}
			broken, _ := run.Result("broken")
			if !broken.Failed || broken.ErrorText() == "" {
				t.Errorf("broken model should carry its error: %+v", broken)
			}
			panicky, _ := run.Result("panicky")
			var pe *errors.PanicError
			if !errors.As(panicky.Err, &pe) {
				t.Errorf("panic should surface as PanicError, got %v", panicky.Err)
			}
			perfect, _ := run.Result("perfect")
			if perfect.Accuracy != 1 {
				t.Errorf("perfect accuracy = %v", perfect.Accuracy)
			}

			order := []string{"perfect", "constant", "broken", "panicky"}
			for i, e := range run.Ranking.Entries {
				if e.Key != order[i] {
					t.Errorf("rank %d = %s, want %s", i, e.Key, order[i])
				}
			}
			if len(run.Ranking.Best) != 1 || run.Ranking.Best[0] != "model perfect" {
				t.Errorf("best = %v", run.Ranking.Best)
			}
			if !logger.ContainsMessage("model failed") {
				t.Error("failures should be logged")
			}
			if run.ID.Version() != 7 {
				t.Errorf("run id should be a v7 UUID, got version %d", run.ID.Version())
			}
		})
	}
}

func TestRunnerCancelled(t *testing.T) {
	ds := syntheticDataset(t, 50)
	reg := NewRegistry()
	reg.MustRegister(fakeSpec("a", &fake{pred: ds.Test.Y}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner, _ := quietRunner(reg)
	if _, err := runner.Run(ctx, ds); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRank(t *testing.T) {
	results := []Result{
		{Key: "lr", Name: "LR", Kind: KindRegressor},
		{Key: "a", Name: "A", Kind: KindClassifier, Accuracy: 0.8},
		{Key: "b", Name: "B", Kind: KindClassifier, Accuracy: 0.9},
		{Key: "c", Name: "C", Kind: KindClassifier, Failed: true, Err: errors.New("x"), Accuracy: 0.99},
		{Key: "d", Name: "D", Kind: KindClassifier, Accuracy: 0.9},
		{Key: "e", Name: "E", Kind: KindClassifier, Accuracy: 0.8},
	}

	rk := Rank(results)

	wantKeys := []string{"b", "d", "a", "e", "c"}
	wantRanks := []int{1, 1, 3, 3, 0}
	if len(rk.Entries) != len(wantKeys) {
		t.Fatalf("got %d entries, want %d", len(rk.Entries), len(wantKeys))
	}
	for i, e := range rk.Entries {
		if e.Key != wantKeys[i] || e.Rank != wantRanks[i] {
			t.Errorf("entry %d = %s rank %d, want %s rank %d", i, e.Key, e.Rank, wantKeys[i], wantRanks[i])
		}
	}
	if fmt.Sprint(rk.Best) != "[B D]" {
		t.Errorf("best = %v, want [B D]", rk.Best)
	}
	if fmt.Sprint(rk.Worst) != "[A E]" {
		t.Errorf("worst = %v, want [A E]", rk.Worst)
	}
	if rk.Entries[4].Accuracy != 0 || rk.Entries[4].Error != "x" {
		t.Errorf("failed entry = %+v", rk.Entries[4])
	}
}

func TestRankAllFailed(t *testing.T) {
	rk := Rank([]Result{{Key: "a", Kind: KindClassifier, Failed: true}})
	if len(rk.Entries) != 1 || rk.Best != nil || rk.Worst != nil {
		t.Errorf("unexpected ranking %+v", rk)
	}
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	if got := fmt.Sprint(reg.Keys()); got != "[lr dt rf knn nb svm ann]" {
		t.Errorf("keys = %s", got)
	}
	if err := reg.Register(Spec{Key: "dt", New: func(Params) model.Estimator { return nil }}); err == nil {
		t.Error("duplicate key should be rejected")
	}

	sub, err := reg.Select([]string{"ANN", "dt"})
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(sub.Keys()); got != "[dt ann]" {
		t.Errorf("selection should keep registry order, got %s", got)
	}
	if spec, _ := sub.Lookup("ann"); spec.Target != TargetOneHot {
		t.Errorf("ann should train on the one-hot target")
	}
	if _, err := reg.Select([]string{"xgb"}); err == nil {
		t.Error("unknown key should be rejected")
	}
}

func TestDefaultRegistryEndToEnd(t *testing.T) {
	ds := syntheticDataset(t, 300)
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(func(error) {})

	params := DefaultParams()
	params.Trees = 10
	params.Epochs = 5
	runner, _ := quietRunner(DefaultRegistry(), WithParams(params), WithWorkers(2))
	run, err := runner.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(run.Results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(run.Results))
	}
	for _, res := range run.Results {
		if res.Failed {
			t.Errorf("%s failed: %v", res.Key, res.Err)
		}
	}
	lr, _ := run.Result("lr")
	if lr.Regression == nil || len(lr.Predictions) != len(ds.Test.Y) {
		t.Errorf("baseline regressor should report raw predictions: %+v", lr)
	}
	if len(run.Ranking.Entries) != 6 {
		t.Errorf("expected 6 ranked classifiers, got %d", len(run.Ranking.Entries))
	}
	dt, _ := run.Result("dt")
	if dt.Confusion.Total() != len(ds.Test.Y) {
		t.Errorf("confusion matrix total = %d, want %d", dt.Confusion.Total(), len(ds.Test.Y))
	}
}
