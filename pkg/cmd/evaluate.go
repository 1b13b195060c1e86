package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/scoreforest/evaluation"
	"github.com/YuminosukeSato/scoreforest/sklearn/ensemble"
)

func newEvaluateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "compare the default and tuned forests on a held-out split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ds, err := cfg.readDataset()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			topN := v.GetInt("top")

			exp := &evaluation.Experiment{
				TestFraction: cfg.TestFraction,
				SplitSeed:    cfg.SplitSeed,
				Models:       cfg.Models.List(),
				NJobs:        cfg.NJobs,
			}
			var progress *treeProgress
			if v.GetBool("progress") {
				progress = newTreeProgress(cmd.ErrOrStderr())
				exp.Progress = progress.Update
			}

			report, err := exp.RunContext(cmd.Context(), ds)
			if err != nil {
				return err
			}
			evaluation.RenderReport(out, report, topN)

			if plot := v.GetString("plot"); plot != "" {
				for _, res := range report.Results {
					path := plotPath(plot, res.Config.Name)
					title := fmt.Sprintf("Feature importance (%s)", res.Config.Name)
					if err := evaluation.PlotImportances(path, evaluation.Top(res.Importances, topN), title); err != nil {
						return err
					}
					fmt.Fprintf(out, "wrote %s\n", path)
				}
			}

			if k := v.GetInt("cv"); k > 0 {
				for _, model := range cfg.Models.List() {
					opts := []ensemble.Option{ensemble.WithNJobs(cfg.NJobs)}
					if progress != nil {
						opts = append(opts, ensemble.WithProgress(progress.Callback(model.Name+" cv")))
					}
					cv, err := evaluation.CrossValidateContext(cmd.Context(), ds, model, k, cfg.SplitSeed, opts...)
					if err != nil {
						return err
					}
					fmt.Fprintln(out)
					evaluation.RenderCV(out, cv)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64("test-fraction", evaluation.DefaultTestFraction, "fraction of rows held out for testing")
	flags.Int64("split-seed", evaluation.DefaultSplitSeed, "seed of the train/test split")
	flags.Int("top", evaluation.DefaultTopN, "features listed per model (0 lists all)")
	flags.String("plot", "", "save importance charts; the model name is appended to the file name")
	flags.Int("cv", 0, "also run k-fold cross-validation with this many folds")
	flags.Bool("progress", false, "show a progress bar per model")
	return cmd
}

// plotPath inserts the model name before the extension: imp.png -> imp_tuned.png.
// A path without an extension gets .png.
func plotPath(base, model string) string {
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".png"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_" + model + ext
}
