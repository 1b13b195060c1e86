package cmd

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/scoreforest/core/dataset"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
	"github.com/YuminosukeSato/scoreforest/sklearn/ensemble"
)

func newPredictCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "predict the label of every row with a saved forest",
		Long: "predict reads the feature columns the model was trained on from --data " +
			"and writes one prediction per row as CSV.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			modelPath := v.GetString("model")
			if modelPath == "" {
				return errors.NewValidationError("model", "a saved model is required (--model)", modelPath)
			}
			if cfg.Data == "" {
				return errors.NewValidationError("data", "a CSV file is required (--data)", cfg.Data)
			}
			missing, err := dataset.ParseMissingPolicy(cfg.Missing)
			if err != nil {
				return err
			}

			forest, err := ensemble.LoadFile(modelPath, ensemble.WithNJobs(cfg.NJobs))
			if err != nil {
				return err
			}

			in, err := os.Open(cfg.Data)
			if err != nil {
				return errors.Wrapf(err, "open %s", cfg.Data)
			}
			//nolint:errcheck // read only
			defer in.Close()
			rows, err := dataset.ReadFeatures(in, forest.FeatureNames(), missing)
			if err != nil {
				return err
			}

			pred, err := forest.PredictRows(rows)
			if err != nil {
				return err
			}

			if path := v.GetString("output"); path != "" {
				err = writePredictionsFile(path, pred)
			} else {
				err = writePredictions(cmd.OutOrStdout(), pred)
			}
			if err != nil {
				return err
			}

			log.GetLoggerWithName("cmd").Info("Predictions written",
				log.OperationKey, log.OperationPredict,
				log.SamplesKey, len(pred),
				log.DataPathKey, cfg.Data,
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("model", "", "saved model written by train")
	flags.String("output", "", "output CSV path (default stdout)")
	return cmd
}

// writePredictionsFile writes predictions to path. The close error is
// returned, since it may be the only report of a failed write.
func writePredictionsFile(path string, pred []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := writePredictions(f, pred); err != nil {
		//nolint:errcheck // the write error takes precedence
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	return nil
}

// writePredictions writes a single "prediction" column.
func writePredictions(w io.Writer, pred []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"prediction"}); err != nil {
		return errors.Wrap(err, "writing predictions")
	}
	for _, p := range pred {
		if err := cw.Write([]string{strconv.FormatFloat(p, 'f', -1, 64)}); err != nil {
			return errors.Wrap(err, "writing predictions")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing predictions")
}
