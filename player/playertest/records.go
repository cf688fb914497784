// Package playertest provides deterministic telemetry fixtures for tests.
package playertest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/playertier/player"
)

var (
	genders      = []string{"Male", "Female"}
	locations    = []string{"Other", "USA", "Europe", "Asia"}
	genres       = []string{"Strategy", "Sports", "Action", "RPG", "Simulation"}
	difficulties = []string{"Medium", "Easy", "Hard"}
	engagement   = []string{"Medium", "High", "Low"}
)

// Records builds n complete records whose tiers cover Beginner,
// Intermediate and Pro.
func Records(n int) []player.Record {
	records := make([]player.Record, n)
	for i := 0; i < n; i++ {
		records[i] = player.NewRecord(fmt.Sprint(9000+i)).
			With(player.Age, player.NumCell(float64(15+i%35))).
			With(player.Gender, player.TextCell(genders[i%len(genders)])).
			With(player.Location, player.TextCell(locations[(i/2)%len(locations)])).
			With(player.GameGenre, player.TextCell(genres[(i/3)%len(genres)])).
			With(player.PlayTimeHours, player.NumCell(float64((i*7)%48))).
			With(player.InGamePurchases, player.NumCell(float64(i%2))).
			With(player.GameDifficulty, player.TextCell(difficulties[(i/5)%len(difficulties)])).
			With(player.SessionsPerWeek, player.NumCell(float64((i*3)%20))).
			With(player.AvgSessionDurationMinutes, player.NumCell(float64(10+(i*11)%170))).
			With(player.PlayerLevel, player.NumCell(float64(1+(i*13)%99))).
			With(player.AchievementsUnlocked, player.NumCell(float64((i*17)%50))).
			With(player.EngagementLevel, player.TextCell(engagement[(i/7)%len(engagement)]))
	}
	return records
}

// CSV renders records as a comma-separated file with a header row, the
// layout player.ReadCSV accepts. Missing cells are written empty.
func CSV(records []player.Record) string {
	var b strings.Builder
	b.WriteString("PlayerID")
	for _, col := range player.Columns() {
		b.WriteString("," + col.String())
	}
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString(r.PlayerID)
		for _, col := range player.Columns() {
			b.WriteByte(',')
			c := r.Cell(col)
			switch {
			case !c.Valid:
			case col.Kind() == player.Categorical:
				b.WriteString(c.Text)
			default:
				b.WriteString(strconv.FormatFloat(c.Num, 'g', -1, 64))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
