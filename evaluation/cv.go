package evaluation

import (
	"context"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
	"github.com/YuminosukeSato/scoreforest/sklearn/ensemble"
	"github.com/YuminosukeSato/scoreforest/sklearn/model_selection"
)

// FoldScore holds the held-out metrics of one fold.
type FoldScore struct {
	Fold      int
	TrainSize int
	TestSize  int
	MAE       float64
	R2        float64
	RMSE      float64
}

// CVResult summarizes a k-fold cross-validation.
type CVResult struct {
	Model    string
	Folds    []FoldScore
	MeanMAE  float64
	MeanR2   float64
	MeanRMSE float64
}

// CrossValidate fits a fresh forest per fold of a shuffled k-fold split and
// scores it on the held-out rows.
func CrossValidate(ds *dataset.Dataset, cfg ModelConfig, k int, seed int64, extra ...ensemble.Option) (*CVResult, error) {
	return CrossValidateContext(context.Background(), ds, cfg, k, seed, extra...)
}

// CrossValidateContext is CrossValidate with cancellation.
func CrossValidateContext(ctx context.Context, ds *dataset.Dataset, cfg ModelConfig, k int, seed int64, extra ...ensemble.Option) (*CVResult, error) {
	if k < 2 {
		return nil, errors.NewValidationError("k", "must be at least 2", k)
	}
	folds, err := model_selection.NewKFold(k, true, seed).Split(ds.NumRows())
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("evaluation")
	result := &CVResult{Model: cfg.Name, Folds: make([]FoldScore, 0, len(folds))}
	for i, fold := range folds {
		train, err := ds.Subset(fold.TrainIndices)
		if err != nil {
			return nil, err
		}
		test, err := ds.Subset(fold.TestIndices)
		if err != nil {
			return nil, err
		}

		forest, err := cfg.NewForest(extra...)
		if err != nil {
			return nil, err
		}
		if err := forest.FitContext(ctx, train); err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		res, err := scoreModel(forest, test)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}

		score := FoldScore{
			Fold:      i,
			TrainSize: train.NumRows(),
			TestSize:  test.NumRows(),
			MAE:       res.MAE,
			R2:        res.R2,
			RMSE:      res.RMSE,
		}
		logger.Debug("Fold scored",
			log.ModelNameKey, cfg.Name,
			log.FoldKey, i,
			log.MAEKey, score.MAE,
			log.R2ScoreKey, score.R2,
		)
		result.Folds = append(result.Folds, score)
		result.MeanMAE += score.MAE
		result.MeanR2 += score.R2
		result.MeanRMSE += score.RMSE
	}

	n := float64(len(result.Folds))
	result.MeanMAE /= n
	result.MeanR2 /= n
	result.MeanRMSE /= n
	return result, nil
}
