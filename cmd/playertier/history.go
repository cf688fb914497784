package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/YuminosukeSato/playertier/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tROWS\tBEST\tACCURACY\tFAILED")
			for _, e := range entries {
				best, acc := "-", "-"
				if len(e.Summary.Ranking.Best) > 0 {
					best = strings.Join(e.Summary.Ranking.Best, ", ")
					acc = fmt.Sprintf("%.4f", e.Summary.Ranking.Entries[0].Accuracy)
				}
				failed := 0
				for _, m := range e.Summary.Models {
					if m.Failed {
						failed++
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\n",
					e.ID, e.StartedAt.Local().Format(time.DateTime), e.Summary.Dataset.Rows, best, acc, failed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum runs to list (0 lists all)")
	return cmd
}
