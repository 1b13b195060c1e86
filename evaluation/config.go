// Package evaluation runs the train/test comparison of forest configurations:
// one seeded split shared by every model, test-set metrics, ranked feature
// importances, optional k-fold cross-validation, and table/chart output.
package evaluation

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
	"github.com/YuminosukeSato/scoreforest/sklearn/ensemble"
)

// MaxFeatures values accepted besides a positive integer.
const (
	MaxFeaturesAll  = "all"
	MaxFeaturesSqrt = "sqrt"
)

// ModelConfig holds the hyperparameters of one forest in an experiment.
// The mapstructure tags match the configuration file keys.
type ModelConfig struct {
	Name            string `mapstructure:"name"`
	NEstimators     int    `mapstructure:"n_estimators"`
	MaxDepth        int    `mapstructure:"max_depth"`
	MinSamplesSplit int    `mapstructure:"min_samples_split"`
	MinSamplesLeaf  int    `mapstructure:"min_samples_leaf"`
	MaxFeatures     string `mapstructure:"max_features"`
	RandomState     int64  `mapstructure:"random_state"`
	Bootstrap       bool   `mapstructure:"bootstrap"`
	OOBScore        bool   `mapstructure:"oob_score"`
}

// DefaultModel returns the library defaults: 100 unbounded trees on bootstrap
// samples, every feature considered at each node.
func DefaultModel() ModelConfig {
	return ModelConfig{
		Name:            "default",
		NEstimators:     100,
		MaxDepth:        -1,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     MaxFeaturesAll,
		RandomState:     0,
		Bootstrap:       true,
	}
}

// TunedModel returns the tuned preset: 1000 trees of depth at most 14 that
// only split nodes with at least 10 samples, seeded with 42.
func TunedModel() ModelConfig {
	cfg := DefaultModel()
	cfg.Name = "tuned"
	cfg.NEstimators = 1000
	cfg.MaxDepth = 14
	cfg.MinSamplesSplit = 10
	cfg.RandomState = 42
	return cfg
}

// Options converts the configuration into forest options.
func (c ModelConfig) Options() ([]ensemble.Option, error) {
	opts := []ensemble.Option{
		ensemble.WithNEstimators(c.NEstimators),
		ensemble.WithMaxDepth(c.MaxDepth),
		ensemble.WithMinSamplesSplit(c.MinSamplesSplit),
		ensemble.WithMinSamplesLeaf(c.MinSamplesLeaf),
		ensemble.WithRandomState(c.RandomState),
		ensemble.WithBootstrap(c.Bootstrap),
		ensemble.WithOOBScore(c.OOBScore),
	}

	switch mf := strings.ToLower(strings.TrimSpace(c.MaxFeatures)); mf {
	case "", MaxFeaturesAll:
		opts = append(opts, ensemble.WithMaxFeatures(0))
	case MaxFeaturesSqrt:
		opts = append(opts, ensemble.WithMaxFeaturesSqrt())
	default:
		n, err := strconv.Atoi(mf)
		if err != nil || n < 1 {
			return nil, errors.NewValidationError("max_features",
				`must be "all", "sqrt" or a positive integer`, c.MaxFeatures)
		}
		opts = append(opts, ensemble.WithMaxFeatures(n))
	}
	return opts, nil
}

// NewForest builds an unfitted forest from the configuration plus any extra
// options (workers, progress, logger).
func (c ModelConfig) NewForest(extra ...ensemble.Option) (*ensemble.RandomForestRegressor, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, errors.Wrapf(err, "model %q", c.Name)
	}
	return ensemble.NewRandomForestRegressor(append(opts, extra...)...), nil
}

// LogFields returns the configuration as logger key/value pairs.
func (c ModelConfig) LogFields() []any {
	return []any{
		log.ModelNameKey, c.Name,
		log.TreesKey, c.NEstimators,
		"max_depth", c.MaxDepth,
		"min_samples_split", c.MinSamplesSplit,
		"min_samples_leaf", c.MinSamplesLeaf,
		"max_features", c.MaxFeatures,
		log.RandomSeedKey, c.RandomState,
	}
}
