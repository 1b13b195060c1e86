// Package scoreforest provides random forest regression for tabular game
// statistics, written for Go services and command line batch jobs.
//
// A forest is an ensemble of CART regression trees, each grown on a bootstrap
// sample with its own seed derived from the forest's random state. Fitting is
// parallel and deterministic: the same data, parameters and random state give
// bit-identical trees, predictions and feature importances regardless of the
// number of workers.
//
// # Features
//
//   - Exhaustive variance-reduction splits with midpoint thresholds
//   - Mean-decrease-in-impurity feature importances
//   - Out-of-bag predictions and score
//   - Seeded train/test splitting and k-fold cross-validation
//   - MAE, MSE, RMSE and R² metrics
//   - gob model persistence
//   - Typed errors with stack traces and structured logging
//
// # Installation
//
//	go get github.com/YuminosukeSato/scoreforest
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scoreforest/core/dataset"
//	    "github.com/YuminosukeSato/scoreforest/sklearn/ensemble"
//	    "github.com/YuminosukeSato/scoreforest/sklearn/model_selection"
//	)
//
//	func main() {
//	    ds, err := dataset.ReadCSVFile("games.csv", dataset.CSVOptions{
//	        Features: []string{"PASSINGYARDS", "RUSHINGYARDS", "TURNOVERS"},
//	        Label:    "POINTSSCORED",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    train, test, err := model_selection.TrainTestSplit(ds, 0.2, 17)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    forest := ensemble.NewRandomForestRegressor(
//	        ensemble.WithNEstimators(1000),
//	        ensemble.WithMinSamplesSplit(10),
//	        ensemble.WithMaxDepth(14),
//	        ensemble.WithRandomState(42),
//	    )
//	    if err := forest.Fit(train); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    r2, err := forest.Score(test)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("R2: %.4f\n", r2)
//	}
//
// # Packages
//
//   - core/dataset: Row-major feature matrix with labels, CSV loading
//   - core/model: Estimator interfaces, fitted state, gob persistence
//   - core/parallel: Bounded worker fan-out
//   - sklearn/tree: Regression tree induction and DecisionTreeRegressor
//   - sklearn/ensemble: RandomForestRegressor
//   - sklearn/model_selection: Train/test split and KFold
//   - metrics: Regression metrics
//   - evaluation: Model comparison reports, importance charts, cross-validation
//   - pkg/errors, pkg/log: Error types and structured logging
//   - pkg/cmd, cmd/scoreforest: Command line interface
//
// # Command Line
//
//	scoreforest evaluate --data games.csv --label POINTSSCORED --plot importance.png
//	scoreforest train --data games.csv --label POINTSSCORED --model forest.gob
//	scoreforest predict --data upcoming.csv --model forest.gob
package scoreforest
