package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/scoreforest/evaluation"
	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/sklearn/ensemble"
)

func newTrainCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "fit one forest on every row and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			modelPath := v.GetString("model")
			if modelPath == "" {
				return errors.NewValidationError("model", "an output path is required (--model)", modelPath)
			}
			preset, err := cfg.Models.Preset(v.GetString("preset"))
			if err != nil {
				return err
			}
			ds, err := cfg.readDataset()
			if err != nil {
				return err
			}

			opts := []ensemble.Option{ensemble.WithNJobs(cfg.NJobs)}
			if v.GetBool("progress") {
				opts = append(opts, ensemble.WithProgress(newTreeProgress(cmd.ErrOrStderr()).Callback(preset.Name)))
			}
			forest, err := preset.NewForest(opts...)
			if err != nil {
				return err
			}
			if err := forest.FitContext(cmd.Context(), ds); err != nil {
				return err
			}
			if err := forest.SaveFile(modelPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trained %s forest: %d trees on %d rows x %d features, saved to %s\n",
				preset.Name, len(forest.Trees()), ds.NumRows(), ds.NumFeatures(), modelPath)
			if preset.OOBScore {
				if score, err := forest.OOBScore(); err == nil {
					fmt.Fprintf(out, "OOB R2: %s\n", formatR2(score))
				}
			}

			imp, err := forest.FeatureImportances()
			if err != nil {
				return err
			}
			ranked, err := evaluation.RankImportances(forest.FeatureNames(), imp)
			if err != nil {
				return err
			}
			evaluation.RenderImportances(out, "Top features ("+preset.Name+")", evaluation.Top(ranked, v.GetInt("top")))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("model", "", "output path of the saved model")
	flags.String("preset", "tuned", "model preset to train: default or tuned")
	flags.Int("top", evaluation.DefaultTopN, "features listed (0 lists all)")
	flags.Bool("progress", false, "show a progress bar")
	return cmd
}

func formatR2(v float64) string {
	return fmt.Sprintf("%.*f", evaluation.R2Places, v)
}
