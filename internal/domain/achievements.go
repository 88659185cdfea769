package domain

// RequirementKind enumerates what an achievement can be unlocked by.
type RequirementKind string

const (
	RequirementBattlesWon    RequirementKind = "battles_won"
	RequirementWinStreak     RequirementKind = "win_streak"
	RequirementTotalXP       RequirementKind = "total_xp"
	RequirementPerfectBattle RequirementKind = "perfect_battle"
)

// Requirement is a tagged variant: Kind selects how Threshold is read.
//   - battles_won:    profile.BattlesWon >= Threshold
//   - win_streak:     profile.Streak >= Threshold
//   - total_xp:       profile.XP >= Threshold
//   - perfect_battle: a won battle with every question answered correctly (Threshold unused)
type Requirement struct {
	Kind      RequirementKind `yaml:"kind" json:"kind"`
	Threshold int             `yaml:"threshold" json:"threshold"`
}

// Valid reports whether Kind is one of the known kinds.
func (r Requirement) Valid() bool {
	switch r.Kind {
	case RequirementBattlesWon, RequirementWinStreak, RequirementTotalXP, RequirementPerfectBattle:
		return true
	}
	return false
}

// Achievement is an unlockable title.
type Achievement struct {
	ID          string      `yaml:"id" json:"id"`
	Title       string      `yaml:"title" json:"title"`
	Requirement Requirement `yaml:"requirement" json:"requirement"`
}
