package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/evaluation"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
)

// Config is the resolved CLI configuration.
type Config struct {
	Data         string       `mapstructure:"data"`
	Features     []string     `mapstructure:"features"`
	Label        string       `mapstructure:"label"`
	Missing      string       `mapstructure:"missing"`
	TestFraction float64      `mapstructure:"test_fraction"`
	SplitSeed    int64        `mapstructure:"split_seed"`
	NJobs        int          `mapstructure:"n_jobs"`
	Models       ModelsConfig `mapstructure:"models"`
}

// ModelsConfig holds the two forest presets compared by evaluate.
type ModelsConfig struct {
	Default evaluation.ModelConfig `mapstructure:"default"`
	Tuned   evaluation.ModelConfig `mapstructure:"tuned"`
}

// List returns the presets in report order.
func (m ModelsConfig) List() []evaluation.ModelConfig {
	return []evaluation.ModelConfig{m.Default, m.Tuned}
}

// Preset returns the preset with the given name.
func (m ModelsConfig) Preset(name string) (evaluation.ModelConfig, error) {
	for _, cfg := range m.List() {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return evaluation.ModelConfig{}, errors.NewValidationError("preset", "must be default or tuned", name)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("features", []string{})
	v.SetDefault("missing", dataset.MissingError.String())
	v.SetDefault("test_fraction", evaluation.DefaultTestFraction)
	v.SetDefault("split_seed", evaluation.DefaultSplitSeed)
	v.SetDefault("n_jobs", 0)
	setModelDefaults(v, "models.default", evaluation.DefaultModel())
	setModelDefaults(v, "models.tuned", evaluation.TunedModel())
}

func setModelDefaults(v *viper.Viper, prefix string, cfg evaluation.ModelConfig) {
	v.SetDefault(prefix+".name", cfg.Name)
	v.SetDefault(prefix+".n_estimators", cfg.NEstimators)
	v.SetDefault(prefix+".max_depth", cfg.MaxDepth)
	v.SetDefault(prefix+".min_samples_split", cfg.MinSamplesSplit)
	v.SetDefault(prefix+".min_samples_leaf", cfg.MinSamplesLeaf)
	v.SetDefault(prefix+".max_features", cfg.MaxFeatures)
	v.SetDefault(prefix+".random_state", cfg.RandomState)
	v.SetDefault(prefix+".bootstrap", cfg.Bootstrap)
	v.SetDefault(prefix+".oob_score", cfg.OOBScore)
}

// loadConfig decodes v into a Config and checks the dataset settings.
func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	if _, err := dataset.ParseMissingPolicy(cfg.Missing); err != nil {
		return nil, err
	}
	for _, m := range cfg.Models.List() {
		if _, err := m.Options(); err != nil {
			return nil, errors.Wrapf(err, "model %q", m.Name)
		}
	}
	return &cfg, nil
}

// readDataset loads the training CSV named by the configuration.
func (c *Config) readDataset() (*dataset.Dataset, error) {
	if c.Data == "" {
		return nil, errors.NewValidationError("data", "a CSV file is required (--data)", c.Data)
	}
	if c.Label == "" {
		return nil, errors.NewValidationError("label", "a label column is required (--label)", c.Label)
	}
	missing, err := dataset.ParseMissingPolicy(c.Missing)
	if err != nil {
		return nil, err
	}
	return dataset.ReadCSVFile(c.Data, dataset.CSVOptions{
		Features: c.Features,
		Label:    c.Label,
		Missing:  missing,
	})
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(v); err != nil {
				return err
			}

			keys := v.AllKeys()
			sort.Strings(keys)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(evaluation.NewTableStyle())
			t.AppendHeader(table.Row{"key", "value"})
			for _, key := range keys {
				t.AppendRow(table.Row{key, fmt.Sprint(v.Get(key))})
			}
			t.Render()
			return nil
		},
	}
}
