package evaluation

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/metrics"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
	"github.com/YuminosukeSato/scoreforest/sklearn/ensemble"
	"github.com/YuminosukeSato/scoreforest/sklearn/model_selection"
)

// Default split settings.
const (
	DefaultTestFraction = 0.2
	DefaultSplitSeed    = 17
)

// Experiment compares forest configurations on one shared train/test split.
type Experiment struct {
	TestFraction float64
	SplitSeed    int64
	Models       []ModelConfig

	// NJobs is passed to every forest. 0 uses GOMAXPROCS.
	NJobs int
	// Progress, when set, is called as trees of the named model finish.
	Progress func(model string, done, total int)
	// Logger defaults to log.GetLoggerWithName("evaluation").
	Logger log.Logger
}

// NewExperiment returns an experiment with the default split comparing the
// default and tuned presets.
func NewExperiment() *Experiment {
	return &Experiment{
		TestFraction: DefaultTestFraction,
		SplitSeed:    DefaultSplitSeed,
		Models:       []ModelConfig{DefaultModel(), TunedModel()},
	}
}

// Report is the outcome of an experiment.
type Report struct {
	FeatureNames []string
	LabelName    string
	TrainSamples int
	TestSamples  int
	TestFraction float64
	SplitSeed    int64
	Results      []ModelResult
}

// ModelResult holds the test-set evaluation of one fitted model.
type ModelResult struct {
	Config      ModelConfig
	MAE         float64
	R2          float64
	RMSE        float64
	Importances []FeatureImportance
	// OOBScore is valid only when HasOOB is true.
	OOBScore float64
	HasOOB   bool
	Duration time.Duration
	Model    *ensemble.RandomForestRegressor
}

func (e *Experiment) logger() log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.GetLoggerWithName("evaluation")
}

// Run is RunContext with a background context.
func (e *Experiment) Run(ds *dataset.Dataset) (*Report, error) {
	return e.RunContext(context.Background(), ds)
}

// RunContext splits ds once and fits, predicts and scores every model on that
// same split. The first failing model aborts the run.
func (e *Experiment) RunContext(ctx context.Context, ds *dataset.Dataset) (*Report, error) {
	if len(e.Models) == 0 {
		return nil, errors.NewValueError("Experiment.Run", "no models configured")
	}
	if ds.NumRows() == 0 {
		return nil, errors.NewEmptyDatasetError("Experiment.Run")
	}

	train, test, err := model_selection.TrainTestSplit(ds, e.TestFraction, e.SplitSeed)
	if err != nil {
		return nil, err
	}
	if train.NumRows() == 0 || test.NumRows() == 0 {
		return nil, errors.NewValueError("Experiment.Run", "train/test split left one side empty; use more rows or another test fraction")
	}

	logger := e.logger()
	logger.Info("Experiment started",
		log.SamplesKey, ds.NumRows(),
		log.FeaturesKey, ds.NumFeatures(),
		"train", train.NumRows(),
		"test", test.NumRows(),
		log.TestFractionKey, e.TestFraction,
		log.RandomSeedKey, e.SplitSeed,
	)

	report := &Report{
		FeatureNames: ds.FeatureNames(),
		LabelName:    ds.LabelName(),
		TrainSamples: train.NumRows(),
		TestSamples:  test.NumRows(),
		TestFraction: e.TestFraction,
		SplitSeed:    e.SplitSeed,
		Results:      make([]ModelResult, 0, len(e.Models)),
	}
	for _, cfg := range e.Models {
		res, err := e.evaluate(ctx, cfg, train, test)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating model %q", cfg.Name)
		}
		logger.Info("Model evaluated",
			log.ModelNameKey, cfg.Name,
			log.MAEKey, res.MAE,
			log.R2ScoreKey, res.R2,
			log.DurationMsKey, res.Duration.Milliseconds(),
		)
		report.Results = append(report.Results, *res)
	}
	return report, nil
}

func (e *Experiment) evaluate(ctx context.Context, cfg ModelConfig, train, test *dataset.Dataset) (*ModelResult, error) {
	extra := []ensemble.Option{ensemble.WithNJobs(e.NJobs)}
	if e.Progress != nil {
		name := cfg.Name
		extra = append(extra, ensemble.WithProgress(func(done, total int) {
			e.Progress(name, done, total)
		}))
	}
	if e.Logger != nil {
		extra = append(extra, ensemble.WithLogger(e.Logger))
	}
	forest, err := cfg.NewForest(extra...)
	if err != nil {
		return nil, err
	}

	e.logger().Debug("Fitting model", cfg.LogFields()...)
	start := time.Now()
	if err := forest.FitContext(ctx, train); err != nil {
		return nil, err
	}

	res, err := scoreModel(forest, test)
	if err != nil {
		return nil, err
	}
	res.Config = cfg
	res.Duration = time.Since(start)

	imp, err := forest.FeatureImportances()
	if err != nil {
		return nil, err
	}
	if res.Importances, err = RankImportances(forest.FeatureNames(), imp); err != nil {
		return nil, err
	}

	if cfg.OOBScore {
		if score, err := forest.OOBScore(); err == nil {
			res.OOBScore, res.HasOOB = score, true
		} else {
			e.logger().Warn("OOB score unavailable", log.ModelNameKey, cfg.Name, "reason", err.Error())
		}
	}
	return res, nil
}

// scoreModel predicts test and computes MAE, R² and RMSE.
func scoreModel(forest *ensemble.RandomForestRegressor, test *dataset.Dataset) (*ModelResult, error) {
	rows, err := forest.PredictRows(test.Rows())
	if err != nil {
		return nil, err
	}
	yTrue, pred := test.LabelVec(), mat.NewVecDense(len(rows), rows)

	res := &ModelResult{Model: forest}
	if res.MAE, err = metrics.MAE(yTrue, pred); err != nil {
		return nil, err
	}
	if res.R2, err = metrics.R2Score(yTrue, pred); err != nil {
		return nil, err
	}
	if res.RMSE, err = metrics.RMSE(yTrue, pred); err != nil {
		return nil, err
	}
	return res, nil
}
