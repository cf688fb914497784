package player

// Tier thresholds. A single field crossing its Pro threshold is sufficient.
const (
	ProPlayTimeHours        = 40
	ProSessionsPerWeek      = 15
	ProAchievementsUnlocked = 100

	IntermediatePlayTimeHours        = 10
	IntermediateSessionsPerWeek      = 5
	IntermediateAchievementsUnlocked = 30
)

// Classify maps a record to its engagement tier. Rules are evaluated in
// order and the first match wins:
//
//  1. Pro if playTimeHours >= 40 or sessionsPerWeek >= 15 or achievementsUnlocked >= 100.
//  2. Intermediate if playTimeHours is in [10, 40) or sessionsPerWeek in [5, 15)
//     or achievementsUnlocked in [30, 100).
//  3. Beginner otherwise.
//
// A missing cell satisfies no condition. Classify is pure and total.
func Classify(r Record) Category {
	return ClassifyValues(r.Num(PlayTimeHours), r.Num(SessionsPerWeek), r.Num(AchievementsUnlocked))
}

// ClassifyValues applies the tier rules to raw values. NaN satisfies no condition.
func ClassifyValues(playTimeHours, sessionsPerWeek, achievementsUnlocked float64) Category {
	if playTimeHours >= ProPlayTimeHours ||
		sessionsPerWeek >= ProSessionsPerWeek ||
		achievementsUnlocked >= ProAchievementsUnlocked {
		return Pro
	}
	if inBand(playTimeHours, IntermediatePlayTimeHours, ProPlayTimeHours) ||
		inBand(sessionsPerWeek, IntermediateSessionsPerWeek, ProSessionsPerWeek) ||
		inBand(achievementsUnlocked, IntermediateAchievementsUnlocked, ProAchievementsUnlocked) {
		return Intermediate
	}
	return Beginner
}

func inBand(v, lo, hi float64) bool {
	return lo <= v && v < hi
}

// LabelerColumns are the columns Classify reads.
func LabelerColumns() []Column {
	return []Column{PlayTimeHours, SessionsPerWeek, AchievementsUnlocked}
}
