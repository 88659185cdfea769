package engine

import "legal-battle-service/internal/domain"

// UnlockAchievements returns the ids in catalog that profile newly satisfies.
// profile must already include the finished battle; record is that battle.
func UnlockAchievements(catalog []domain.Achievement, profile domain.Profile, record domain.BattleRecord) []string {
	var unlocked []string
	for _, a := range catalog {
		if profile.HasAchievement(a.ID) {
			continue
		}
		if requirementMet(a.Requirement, profile, record) {
			unlocked = append(unlocked, a.ID)
		}
	}
	return unlocked
}

func requirementMet(r domain.Requirement, p domain.Profile, rec domain.BattleRecord) bool {
	switch r.Kind {
	case domain.RequirementBattlesWon:
		return p.BattlesWon >= r.Threshold
	case domain.RequirementWinStreak:
		return p.Streak >= r.Threshold
	case domain.RequirementTotalXP:
		return p.XP >= r.Threshold
	case domain.RequirementPerfectBattle:
		return rec.Outcome == domain.OutcomeVictory &&
			rec.TotalQuestions > 0 &&
			rec.Score == rec.TotalQuestions
	}
	return false
}
