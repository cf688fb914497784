// Package playertier classifies video-game players into engagement tiers
// and benchmarks classifiers on their behavioural telemetry.
//
// Players are labeled Beginner, Intermediate or Pro by a fixed rule over
// play time, weekly sessions and unlocked achievements. The labeled data is
// prepared once (forward fill, label encoding, standardization and a seeded
// 80/20 split) and a linear-regression baseline plus six classifier
// families are evaluated on the same split.
//
// # Features
//
// - Rule-based labeler: pure, total and independent of the dataset
// - Reproducible preparation: one seed drives the split of every target
// - scikit-learn-like estimators over gonum matrices
// - Isolated evaluation: one failing model never aborts a run
// - Artifacts: CSV tables, YAML summary, Prometheus textfile and PNG charts
//
// # Installation
//
//	go install github.com/YuminosukeSato/playertier/cmd/playertier@latest
//
// # Quick Start
//
//	playertier run --input Data/online_gaming_behavior_dataset.csv
//	playertier classify --play-time 12 --sessions 3 --achievements 10
//	playertier history
//
// The same pipeline is available as a library:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/playertier/evaluation"
//	    "github.com/YuminosukeSato/playertier/player"
//	    "github.com/YuminosukeSato/playertier/prepare"
//	)
//
//	func main() {
//	    records, err := player.OpenCSV("players.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    ds, err := prepare.NewPreparer().Prepare(context.Background(), records)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    run, err := evaluation.NewRunner(evaluation.DefaultRegistry()).Run(context.Background(), ds)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Best:", run.Ranking.Best)
//	}
//
// # Packages
//
//   - player: telemetry records, CSV reader and the tier labeler
//   - prepare: fill, encode, scale and split into a Dataset
//   - preprocessing: label encoder, standard scaler, one-hot, split helpers
//   - sklearn/...: linear regression, decision tree, random forest, k-NN,
//     Gaussian naive Bayes, linear SVM and MLP estimators
//   - metrics: accuracy, confusion matrix, classification and regression reports
//   - evaluation: model registry, isolated evaluation and ranking
//   - artifact, plot, history: run outputs and the run database
//   - config, pipeline, cmd/playertier: configuration and the CLI
//   - core/model, core/parallel, pkg/errors, pkg/log: shared infrastructure
//
// # Configuration
//
// Settings are layered: defaults, a YAML file (--config or
// PLAYERTIER_CONFIG), PLAYERTIER_* environment variables with "__"
// separating nested keys, then command-line flags. A .env file is loaded
// first when present.
//
// # License
//
// playertier is released under the MIT License.
package playertier
