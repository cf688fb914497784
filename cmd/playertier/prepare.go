package main

import (
	"fmt"
	"path/filepath"

	"github.com/YuminosukeSato/playertier/artifact"
	"github.com/YuminosukeSato/playertier/pipeline"
	"github.com/spf13/cobra"
)

func newPrepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Write only the prepared train/test tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ds, err := pipeline.New(cfg, logger).Prepare(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d train / %d test rows, %d dropped, written to %s\n",
				len(ds.Train.Y), len(ds.Test.Y), ds.Dropped, filepath.Join(cfg.OutputDir, artifact.TrainTestDir))
			return nil
		},
	}
}
