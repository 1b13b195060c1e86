// Package cmd implements the scoreforest command line: evaluate, train,
// predict and config. Settings come from flags, SCOREFOREST_* environment
// variables and an optional YAML file, in that order of precedence.
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/scoreforest/pkg/errors"
	"github.com/YuminosukeSato/scoreforest/pkg/log"
)

// EnvPrefix is the prefix of environment variables read by the CLI.
const EnvPrefix = "SCOREFOREST"

// NewRootCmd builds the command tree. Every call gets its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "scoreforest",
		Short: "Random forest regression over tabular game statistics",
		Long: "scoreforest fits bagged regression trees to a CSV of per-game statistics, " +
			"compares forest configurations on a held-out split and ranks feature importances.",

		// SilenceUsage is an option to silence usage when an error occurs.
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (YAML)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("data", "", "CSV file with a header row")
	flags.StringSlice("features", nil, "feature columns (default: every column except the label)")
	flags.String("label", "", "label column")
	flags.String("missing", "error", "missing or non-finite cells: error or zero")
	flags.Int("n-jobs", 0, "parallel workers per forest (0 uses GOMAXPROCS)")

	root.AddCommand(
		newEvaluateCmd(v),
		newTrainCmd(v),
		newPredictCmd(v),
		newConfigCmd(v),
	)
	return root
}

// initConfig wires defaults, environment, flags and the config file into v
// and sets up logging.
func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	// Enable environment variable binding, the env vars are not overloaded yet.
	v.AutomaticEnv()

	// Once the flags are defined, we can bind config keys with flags.
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(flagKey(f.Name), f); err != nil && bindErr == nil {
			bindErr = errors.Wrapf(err, "binding flag --%s", f.Name)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file %s", path)
		}
	}

	return log.SetupLogger(cmd.ErrOrStderr(), v.GetString("log_level"))
}

// flagKey maps a flag name to its config key: --split-seed -> split_seed.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("cannot execute command", log.ErrAttr(err))
		os.Exit(1)
	}
}
