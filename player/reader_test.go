package player

import (
	"strings"
	"testing"

	"github.com/YuminosukeSato/playertier/pkg/errors"
)

const header = "PlayerID,Age,Gender,Location,GameGenre,PlayTimeHours,InGamePurchases,GameDifficulty,SessionsPerWeek,AvgSessionDurationMinutes,PlayerLevel,AchievementsUnlocked,EngagementLevel\n"

func TestReadCSV(t *testing.T) {
	input := header +
		"9000,43,Male,Other,Strategy,16.27,0,Medium,6,108,79,25,Medium\n" +
		"9001,29,Female,USA,Strategy,5.52,1,Medium,5,144,11,10,Medium\n" +
		"9002,,Female,USA,Sports,8.22,yes,Easy,NaN,142,35,41,High\n"

	records, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.PlayerID != "9000" {
		t.Errorf("PlayerID = %q, want 9000", first.PlayerID)
	}
	if first.Num(PlayTimeHours) != 16.27 {
		t.Errorf("PlayTimeHours = %v, want 16.27", first.Num(PlayTimeHours))
	}
	if g, ok := first.Text(GameGenre); !ok || g != "Strategy" {
		t.Errorf("GameGenre = %q, %v", g, ok)
	}

	third := records[2]
	if third.Cell(Age).Valid {
		t.Error("empty Age cell should be missing")
	}
	if third.Cell(SessionsPerWeek).Valid {
		t.Error("NaN SessionsPerWeek cell should be missing")
	}
	if third.Num(InGamePurchases) != 1 {
		t.Errorf("InGamePurchases yes = %v, want 1", third.Num(InGamePurchases))
	}
	if got := third.MissingColumns(); len(got) != 2 {
		t.Errorf("MissingColumns = %v, want [Age SessionsPerWeek]", got)
	}
}

func TestReadCSVHeaderMatching(t *testing.T) {
	input := "age;gender;location;game_genre;play_time_hours;in_game_purchases;game difficulty;sessions_per_week;avg_session_duration_minutes;player_level;achievements_unlocked;engagement_level;extra\n" +
		"30;Male;Asia;RPG;50;0;Hard;1;30;10;5;High;ignored\n"

	records, err := ReadCSV(strings.NewReader(input), WithComma(';'))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := Classify(records[0]); got != Pro {
		t.Errorf("Classify = %v, want Pro", got)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantColumn string
		wantRow    int
	}{
		{
			name:       "missing column",
			input:      "Age,Gender\n1,Male\n",
			wantColumn: "Location",
		},
		{
			name:       "non-numeric value",
			input:      header + "1,abc,Male,USA,RPG,1,0,Easy,1,1,1,1,Low\n",
			wantColumn: "Age",
			wantRow:    1,
		},
		{
			name:       "bad boolean",
			input:      header + "1,20,Male,USA,RPG,1,0,Easy,1,1,1,1,Low\n2,20,Male,USA,RPG,1,maybe,Easy,1,1,1,1,Low\n",
			wantColumn: "InGamePurchases",
			wantRow:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			var colErr *errors.ColumnError
			if !errors.As(err, &colErr) {
				t.Fatalf("expected ColumnError, got %T: %v", err, err)
			}
			if colErr.Column != tt.wantColumn || colErr.Row != tt.wantRow {
				t.Errorf("got column %q row %d, want %q row %d", colErr.Column, colErr.Row, tt.wantColumn, tt.wantRow)
			}
		})
	}

	if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("empty input should wrap ErrEmptyData, got %v", err)
	}
}

func TestLookupColumn(t *testing.T) {
	for _, col := range Columns() {
		got, ok := LookupColumn(strings.ToUpper(col.String()))
		if !ok || got != col {
			t.Errorf("LookupColumn(%q) = %v, %v", col.String(), got, ok)
		}
	}
	if _, ok := LookupColumn("PlayerCategory"); ok {
		t.Error("PlayerCategory is not a telemetry column")
	}
	if n := len(FeatureColumns()); n != 11 {
		t.Errorf("expected 11 feature columns, got %d", n)
	}
}

func TestReadCSVWithRequired(t *testing.T) {
	input := "play_time_hours,sessions_per_week,achievements_unlocked\n45,3,10\n5,2,\n"

	records, err := ReadCSV(strings.NewReader(input), WithRequired(LabelerColumns()...))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if got := Classify(records[0]); got != Pro {
		t.Errorf("first record = %v, want Pro", got)
	}
	if records[1].Cell(AchievementsUnlocked).Valid {
		t.Error("empty cell should be missing")
	}
	if records[0].Cell(Age).Valid {
		t.Error("absent column should read as missing")
	}

	if _, err := ReadCSV(strings.NewReader(input)); err == nil {
		t.Error("all columns are required by default")
	}
}
