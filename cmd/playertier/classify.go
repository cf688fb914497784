package main

import (
	"fmt"
	"io"

	"github.com/YuminosukeSato/playertier/pkg/errors"
	"github.com/YuminosukeSato/playertier/player"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var (
		file         string
		delimiter    string
		playTime     float64
		sessions     float64
		achievements float64
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Label ad-hoc values or every row of a telemetry file",
		Example: "  playertier classify --play-time 12 --sessions 3 --achievements 10\n" +
			"  playertier classify --file players.csv",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if file == "" {
				if !cmd.Flags().Changed("play-time") && !cmd.Flags().Changed("sessions") &&
					!cmd.Flags().Changed("achievements") {
					return errors.New("either --file or at least one of --play-time, --sessions, --achievements is required")
				}
				fmt.Fprintln(w, player.ClassifyValues(playTime, sessions, achievements))
				return nil
			}

			if len([]rune(delimiter)) != 1 {
				return errors.NewValidationError("delimiter", "must be a single character", delimiter)
			}
			records, err := player.OpenCSV(file,
				player.WithComma([]rune(delimiter)[0]),
				player.WithRequired(player.LabelerColumns()...),
			)
			if err != nil {
				return err
			}
			return writeLabels(w, records)
		},
	}

	f := cmd.Flags()
	f.StringVar(&file, "file", "", "telemetry file to label")
	f.StringVar(&delimiter, "sep", ",", "field separator of --file")
	f.Float64Var(&playTime, "play-time", 0, "PlayTimeHours")
	f.Float64Var(&sessions, "sessions", 0, "SessionsPerWeek")
	f.Float64Var(&achievements, "achievements", 0, "AchievementsUnlocked")
	return cmd
}

// writeLabels prints one "row,id,category" line per record.
func writeLabels(w io.Writer, records []player.Record) error {
	if _, err := fmt.Fprintln(w, "row,PlayerID,PlayerCategory"); err != nil {
		return err
	}
	counts := make(map[player.Category]int, 3)
	for i, r := range records {
		c := player.Classify(r)
		counts[c]++
		if _, err := fmt.Fprintf(w, "%d,%s,%s\n", i+1, r.PlayerID, c); err != nil {
			return err
		}
	}
	for _, c := range player.Categories() {
		fmt.Fprintf(w, "# %s: %d\n", c, counts[c])
	}
	return nil
}
