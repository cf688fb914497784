package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/playertier/artifact"
	"github.com/YuminosukeSato/playertier/evaluation"
	"github.com/YuminosukeSato/playertier/pipeline"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Prepare the data, evaluate every model and write the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := pipeline.New(cfg, logger).Run(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "run %s: %d train / %d test rows, %d dropped\n",
				out.Run.ID, out.Summary.Dataset.Train, out.Summary.Dataset.Test, out.Summary.Dataset.Dropped)
			printRegression(w, out.Run)
			printRanking(w, out.Run.Ranking)
			fmt.Fprintf(w, "results written to %s\n", filepath.Join(cfg.OutputDir, artifact.ResultDir))
			return nil
		},
	}
}

func printRegression(w io.Writer, run *evaluation.Run) {
	for _, res := range run.Results {
		if res.Kind != evaluation.KindRegressor {
			continue
		}
		if res.Failed {
			fmt.Fprintf(w, "%s: FAILED: %s\n", res.Name, res.ErrorText())
			continue
		}
		fmt.Fprintf(w, "%s: MSE %.4f, RMSE %.4f, R2 %.4f\n",
			res.Name, res.Regression.MSE, res.Regression.RMSE, res.Regression.R2)
	}
}

func printRanking(w io.Writer, ranking evaluation.Ranking) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMODEL\tACCURACY")
	for _, e := range ranking.Entries {
		if e.Failed {
			fmt.Fprintf(tw, "-\t%s\tFAILED: %s\n", e.Name, e.Error)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%.4f\n", e.Rank, e.Name, e.Accuracy)
	}
	tw.Flush()

	if len(ranking.Best) > 0 {
		fmt.Fprintf(w, "best: %s\n", strings.Join(ranking.Best, ", "))
		fmt.Fprintf(w, "worst: %s\n", strings.Join(ranking.Worst, ", "))
	}
}
