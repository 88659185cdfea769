package engine

import (
	"math"

	"legal-battle-service/internal/domain"
)

// RewardCoefficients come from configuration; the calculator embeds none.
type RewardCoefficients struct {
	BaseXP              int `yaml:"base_xp"`
	BaseCoins           int `yaml:"base_coins"`
	StreakBonusPerLevel int `yaml:"streak_bonus_per_level"`
	StreakBonusCap      int `yaml:"streak_bonus_cap"`
	TimeBonusPerSecond  int `yaml:"time_bonus_per_second"`
	VictoryXP           int `yaml:"victory_xp"`
	VictoryCoins        int `yaml:"victory_coins"`
}

// RewardInput is what a finished battle contributes to rewards.
type RewardInput struct {
	Score                int
	TotalQuestions       int
	Streak               int
	TimeLeft             int
	DifficultyMultiplier float64
	Outcome              domain.Outcome
}

// CalculateRewards turns a finished battle into XP and coins.
//
// Base XP and coins scale with score/total and the difficulty multiplier.
// XPEarned includes the streak, time and victory bonuses; StreakBonus and
// TimeBonus are also reported on their own for display.
func CalculateRewards(in RewardInput, c RewardCoefficients) domain.BattleRewards {
	ratio := 0.0
	if in.TotalQuestions > 0 {
		ratio = float64(clamp(in.Score, 0, in.TotalQuestions)) / float64(in.TotalQuestions)
	}
	difficulty := in.DifficultyMultiplier
	if difficulty <= 0 {
		difficulty = 1
	}

	baseXP := int(math.Round(float64(c.BaseXP) * ratio * difficulty))
	coins := int(math.Round(float64(c.BaseCoins) * ratio * difficulty))

	streakBonus := max(in.Streak, 0) * c.StreakBonusPerLevel
	if c.StreakBonusCap > 0 && streakBonus > c.StreakBonusCap {
		streakBonus = c.StreakBonusCap
	}
	timeBonus := max(in.TimeLeft, 0) * c.TimeBonusPerSecond

	xp := baseXP + streakBonus + timeBonus
	if in.Outcome == domain.OutcomeVictory {
		xp += c.VictoryXP
		coins += c.VictoryCoins
	}

	return domain.BattleRewards{
		XPEarned:    xp,
		CoinsEarned: coins,
		StreakBonus: streakBonus,
		TimeBonus:   timeBonus,
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
