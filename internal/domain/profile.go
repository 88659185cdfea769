package domain

import "time"

// Profile holds a user's persistent progression.
type Profile struct {
	UserID       string    `json:"userId"`
	XP           int       `json:"xp"`
	Coins        int       `json:"coins"`
	Streak       int       `json:"streak"`
	BestStreak   int       `json:"bestStreak"`
	BattlesWon   int       `json:"battlesWon"`
	BattlesLost  int       `json:"battlesLost"`
	BattlesDrawn int       `json:"battlesDrawn"`
	Achievements []string  `json:"achievements"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BattlesPlayed is the total of finished battles.
func (p Profile) BattlesPlayed() int {
	return p.BattlesWon + p.BattlesLost + p.BattlesDrawn
}

// HasAchievement reports whether id is already unlocked.
func (p Profile) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Apply folds a finished battle into the profile: XP, coins, result counters,
// the win streak (reset on anything but a victory) and newly unlocked achievements.
func (p Profile) Apply(rec BattleRecord) Profile {
	p.UserID = rec.UserID
	p.XP += rec.Rewards.XPEarned
	p.Coins += rec.Rewards.CoinsEarned
	switch rec.Outcome {
	case OutcomeVictory:
		p.BattlesWon++
		p.Streak++
	case OutcomeDefeat:
		p.BattlesLost++
		p.Streak = 0
	default:
		p.BattlesDrawn++
		p.Streak = 0
	}
	if p.Streak > p.BestStreak {
		p.BestStreak = p.Streak
	}
	achievements := append([]string(nil), p.Achievements...)
	for _, id := range rec.Unlocked {
		if !p.HasAchievement(id) {
			achievements = append(achievements, id)
		}
	}
	p.Achievements = achievements
	p.UpdatedAt = rec.FinishedAt
	return p
}
