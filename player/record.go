// Package player holds the telemetry record model and the rule-based
// engagement-tier labeler.
//
// A Record is a fixed set of typed cells, one per telemetry column. Every cell
// is either present or explicitly missing (Cell.Valid == false); there is no
// sentinel number standing in for a missing value.
package player

import (
	"math"
	"strconv"
	"strings"
)

// Column identifies one telemetry column.
type Column int

// Telemetry columns, in the order of the published dataset.
const (
	Age Column = iota
	Gender
	Location
	GameGenre
	PlayTimeHours
	InGamePurchases
	GameDifficulty
	SessionsPerWeek
	AvgSessionDurationMinutes
	PlayerLevel
	AchievementsUnlocked
	EngagementLevel

	numColumns
)

// Kind describes how a column's cells are parsed.
type Kind int

const (
	// Numeric cells hold a float64.
	Numeric Kind = iota
	// Boolean cells hold 0 or 1, accepting numeric and true/false/yes/no text.
	Boolean
	// Categorical cells hold a category string.
	Categorical
)

var columnNames = [numColumns]string{
	Age:                       "Age",
	Gender:                    "Gender",
	Location:                  "Location",
	GameGenre:                 "GameGenre",
	PlayTimeHours:             "PlayTimeHours",
	InGamePurchases:           "InGamePurchases",
	GameDifficulty:            "GameDifficulty",
	SessionsPerWeek:           "SessionsPerWeek",
	AvgSessionDurationMinutes: "AvgSessionDurationMinutes",
	PlayerLevel:               "PlayerLevel",
	AchievementsUnlocked:      "AchievementsUnlocked",
	EngagementLevel:           "EngagementLevel",
}

var columnKinds = [numColumns]Kind{
	Age:                       Numeric,
	Gender:                    Categorical,
	Location:                  Categorical,
	GameGenre:                 Categorical,
	PlayTimeHours:             Numeric,
	InGamePurchases:           Boolean,
	GameDifficulty:            Categorical,
	SessionsPerWeek:           Numeric,
	AvgSessionDurationMinutes: Numeric,
	PlayerLevel:               Numeric,
	AchievementsUnlocked:      Numeric,
	EngagementLevel:           Categorical,
}

// Columns returns every telemetry column in dataset order.
func Columns() []Column {
	cols := make([]Column, numColumns)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}

// CategoricalColumns returns the columns that are label encoded, in the
// order the encodings are fit.
func CategoricalColumns() []Column {
	return []Column{Gender, Location, GameGenre, GameDifficulty, EngagementLevel}
}

// FeatureColumns returns the eleven model features in matrix column order.
// EngagementLevel is encoded but never a feature.
func FeatureColumns() []Column {
	return []Column{
		Age, Gender, Location, InGamePurchases, GameDifficulty, GameGenre,
		PlayTimeHours, SessionsPerWeek, PlayerLevel, AchievementsUnlocked,
		AvgSessionDurationMinutes,
	}
}

// String returns the canonical header name of the column.
func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "Column(" + strconv.Itoa(int(c)) + ")"
	}
	return columnNames[c]
}

// Kind returns how the column's cells are parsed.
func (c Column) Kind() Kind {
	return columnKinds[c]
}

// LookupColumn resolves a header name to a column. Matching ignores case,
// underscores and spaces, so "play_time_hours" resolves to PlayTimeHours.
func LookupColumn(name string) (Column, bool) {
	key := normalizeHeader(name)
	for i, n := range columnNames {
		if normalizeHeader(n) == key {
			return Column(i), true
		}
	}
	return 0, false
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(name)
}

// Cell is one telemetry value. Numeric and boolean columns use Num; categorical
// columns use Text. Valid is false for a missing value.
type Cell struct {
	Num   float64
	Text  string
	Valid bool
}

// NumCell returns a present numeric cell.
func NumCell(v float64) Cell { return Cell{Num: v, Valid: true} }

// TextCell returns a present categorical cell.
func TextCell(s string) Cell { return Cell{Text: s, Valid: true} }

// Missing is the explicit missing cell.
var Missing = Cell{}

// Record is one telemetry row. Records are values: copying one copies all of
// its cells.
type Record struct {
	PlayerID string
	cells    [numColumns]Cell
}

// NewRecord returns a record with every cell missing.
func NewRecord(playerID string) Record {
	return Record{PlayerID: playerID}
}

// Cell returns the cell for col.
func (r Record) Cell(col Column) Cell {
	return r.cells[col]
}

// With returns a copy of r with col set to c.
func (r Record) With(col Column, c Cell) Record {
	r.cells[col] = c
	return r
}

// Num returns the numeric value of col, or NaN when the cell is missing.
func (r Record) Num(col Column) float64 {
	c := r.cells[col]
	if !c.Valid {
		return math.NaN()
	}
	return c.Num
}

// Text returns the category string of col and whether it is present.
func (r Record) Text(col Column) (string, bool) {
	c := r.cells[col]
	return c.Text, c.Valid
}

// MissingColumns returns the columns of r whose cells are missing.
func (r Record) MissingColumns() []Column {
	var out []Column
	for i, c := range r.cells {
		if !c.Valid {
			out = append(out, Column(i))
		}
	}
	return out
}
