package main

import (
	"os"

	"github.com/YuminosukeSato/playertier/config"
	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/pkg/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "playertier",
		Short: "Player engagement tiers and classifier benchmarks",
		Long: "playertier labels players as Beginner, Intermediate or Pro from their telemetry,\n" +
			"prepares a shared train/test split and ranks classifiers on it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.String("config", "", "YAML configuration file (overrides PLAYERTIER_CONFIG)")
	f.String("env-file", ".env", "dotenv file loaded into the environment when it exists")
	f.String("input", "", "telemetry file")
	f.String("output", "", "output directory for TrainTest/ and Result/")
	f.String("delimiter", "", "field separator")
	f.Int64("seed", 0, "split seed")
	f.Float64("test-size", 0, "test ratio in (0, 1)")
	f.String("missing-policy", "", "drop, error or backfill")
	f.StringSlice("models", nil, "model keys to evaluate (default all)")
	f.Int("workers", 0, "models evaluated concurrently")
	f.Bool("plots", true, "write PNG charts")
	f.Bool("metrics-file", true, "write the Prometheus textfile")
	f.Bool("history", true, "record the run in the history database")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("log-format", "", "console or json")

	root.AddCommand(newRunCmd())
	root.AddCommand(newPrepareCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig resolves the configuration for cmd: .env, then config.Load,
// then explicitly set flags. It also installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, log.Logger, error) {
	flags := cmd.Flags()

	envFile, _ := flags.GetString("env-file")
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, nil, errors.Wrapf(err, "failed to load %s", envFile)
			}
		}
	}

	path, _ := flags.GetString("config")
	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		return nil, nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := log.SetupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}

	set("input", func() (e error) { cfg.Input, e = flags.GetString("input"); return })
	set("output", func() (e error) { cfg.OutputDir, e = flags.GetString("output"); return })
	set("delimiter", func() (e error) { cfg.Delimiter, e = flags.GetString("delimiter"); return })
	set("seed", func() (e error) { cfg.Seed, e = flags.GetInt64("seed"); return })
	set("test-size", func() (e error) { cfg.TestSize, e = flags.GetFloat64("test-size"); return })
	set("missing-policy", func() (e error) { cfg.MissingPolicy, e = flags.GetString("missing-policy"); return })
	set("models", func() (e error) { cfg.Models, e = flags.GetStringSlice("models"); return })
	set("workers", func() (e error) { cfg.Workers, e = flags.GetInt("workers"); return })
	set("plots", func() (e error) { cfg.Plots, e = flags.GetBool("plots"); return })
	set("metrics-file", func() (e error) { cfg.MetricsFile, e = flags.GetBool("metrics-file"); return })
	set("history", func() (e error) { cfg.History.Enabled, e = flags.GetBool("history"); return })
	set("log-level", func() (e error) { cfg.Log.Level, e = flags.GetString("log-level"); return })
	set("log-format", func() (e error) { cfg.Log.Format, e = flags.GetString("log-format"); return })
	return err
}
