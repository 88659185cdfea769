package engine

import (
	"testing"

	"legal-battle-service/internal/domain"
)

var testCoefficients = RewardCoefficients{
	BaseXP:              100,
	BaseCoins:           50,
	StreakBonusPerLevel: 5,
	StreakBonusCap:      25,
	TimeBonusPerSecond:  1,
	VictoryXP:           20,
	VictoryCoins:        10,
}

func TestCalculateRewards(t *testing.T) {
	cases := []struct {
		name string
		in   RewardInput
		want domain.BattleRewards
	}{
		{
			name: "perfect victory",
			in:   RewardInput{Score: 5, TotalQuestions: 5, Streak: 2, TimeLeft: 40, DifficultyMultiplier: 1.5, Outcome: domain.OutcomeVictory},
			want: domain.BattleRewards{XPEarned: 150 + 10 + 40 + 20, CoinsEarned: 75 + 10, StreakBonus: 10, TimeBonus: 40},
		},
		{
			name: "partial defeat",
			in:   RewardInput{Score: 2, TotalQuestions: 5, Streak: 0, TimeLeft: 6, DifficultyMultiplier: 1, Outcome: domain.OutcomeDefeat},
			want: domain.BattleRewards{XPEarned: 40 + 6, CoinsEarned: 20, TimeBonus: 6},
		},
		{
			name: "streak bonus capped",
			in:   RewardInput{Score: 0, TotalQuestions: 5, Streak: 10, DifficultyMultiplier: 1, Outcome: domain.OutcomeDraw},
			want: domain.BattleRewards{XPEarned: 25, StreakBonus: 25},
		},
		{
			name: "no questions",
			in:   RewardInput{Score: 3, TotalQuestions: 0, DifficultyMultiplier: 2},
			want: domain.BattleRewards{},
		},
		{
			name: "zero multiplier treated as one",
			in:   RewardInput{Score: 1, TotalQuestions: 2},
			want: domain.BattleRewards{XPEarned: 50, CoinsEarned: 25},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateRewards(tc.in, testCoefficients)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestCalculateRewardsUsesCoefficients(t *testing.T) {
	in := RewardInput{Score: 4, TotalQuestions: 4, TimeLeft: 10, DifficultyMultiplier: 1, Outcome: domain.OutcomeVictory}
	if got := CalculateRewards(in, RewardCoefficients{}); got != (domain.BattleRewards{}) {
		t.Fatalf("zero coefficients must yield zero rewards, got %+v", got)
	}
}

func TestUnlockAchievements(t *testing.T) {
	catalog := []domain.Achievement{
		{ID: "first-win", Requirement: domain.Requirement{Kind: domain.RequirementBattlesWon, Threshold: 1}},
		{ID: "hot-streak", Requirement: domain.Requirement{Kind: domain.RequirementWinStreak, Threshold: 3}},
		{ID: "scholar", Requirement: domain.Requirement{Kind: domain.RequirementTotalXP, Threshold: 1000}},
		{ID: "flawless", Requirement: domain.Requirement{Kind: domain.RequirementPerfectBattle}},
	}
	record := domain.BattleRecord{UserID: "u1", Outcome: domain.OutcomeVictory, Score: 5, TotalQuestions: 5}
	profile := domain.Profile{UserID: "u1", XP: 200, BattlesWon: 1, Streak: 1}

	got := UnlockAchievements(catalog, profile, record)
	if len(got) != 2 || got[0] != "first-win" || got[1] != "flawless" {
		t.Fatalf("unexpected unlocks %v", got)
	}

	profile.Achievements = []string{"first-win", "flawless"}
	if again := UnlockAchievements(catalog, profile, record); len(again) != 0 {
		t.Fatalf("already unlocked achievements returned again: %v", again)
	}
}

func TestUnlockAchievementsIgnoresUnknownKind(t *testing.T) {
	catalog := []domain.Achievement{{ID: "mystery", Requirement: domain.Requirement{Kind: "vibes"}}}
	if got := UnlockAchievements(catalog, domain.Profile{XP: 1 << 20}, domain.BattleRecord{}); len(got) != 0 {
		t.Fatalf("unknown requirement kind unlocked %v", got)
	}
}
