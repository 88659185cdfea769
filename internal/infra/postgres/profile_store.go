package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"legal-battle-service/internal/domain"
)

// ProfileStore persists profiles and battle history in Postgres.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

const selectProfile = `SELECT user_id, xp, coins, streak, best_streak, battles_won, battles_lost,
	battles_drawn, achievements, updated_at FROM profiles WHERE user_id=$1`

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx, selectProfile, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// RecordBattle appends the history row and folds it into the profile in one
// transaction. Recording the same battle twice leaves the profile unchanged.
func (s *ProfileStore) RecordBattle(ctx context.Context, rec domain.BattleRecord) (domain.Profile, error) {
	var out domain.Profile
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `INSERT INTO battle_history
			(battle_id, user_id, deck_id, outcome, score, total_questions, player_health, opponent_health,
			 xp_earned, coins_earned, streak_bonus, time_bonus, unlocked, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (battle_id) DO NOTHING`,
			rec.BattleID, rec.UserID, rec.DeckID, string(rec.Outcome), rec.Score, rec.TotalQuestions,
			rec.PlayerHealth, rec.OpponentHealth, rec.Rewards.XPEarned, rec.Rewards.CoinsEarned,
			rec.Rewards.StreakBonus, rec.Rewards.TimeBonus, nonNil(rec.Unlocked), rec.FinishedAt)
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}

		prev, err := scanProfile(tx.QueryRow(ctx, selectProfile+` FOR UPDATE`, rec.UserID))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			out = prev
			return nil
		}

		out = prev.Apply(rec)
		_, err = tx.Exec(ctx, `INSERT INTO profiles
			(user_id, xp, coins, streak, best_streak, battles_won, battles_lost, battles_drawn, achievements, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (user_id) DO UPDATE SET
				xp=EXCLUDED.xp, coins=EXCLUDED.coins, streak=EXCLUDED.streak, best_streak=EXCLUDED.best_streak,
				battles_won=EXCLUDED.battles_won, battles_lost=EXCLUDED.battles_lost,
				battles_drawn=EXCLUDED.battles_drawn, achievements=EXCLUDED.achievements,
				updated_at=EXCLUDED.updated_at`,
			out.UserID, out.XP, out.Coins, out.Streak, out.BestStreak, out.BattlesWon, out.BattlesLost,
			out.BattlesDrawn, nonNil(out.Achievements), out.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return out, nil
}

// History returns a user's most recent battles, newest first.
func (s *ProfileStore) History(ctx context.Context, userID string, limit int) ([]domain.BattleRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT battle_id, user_id, deck_id, outcome, score, total_questions,
		player_health, opponent_health, xp_earned, coins_earned, streak_bonus, time_bonus, unlocked, finished_at
		FROM battle_history WHERE user_id=$1 ORDER BY finished_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.BattleRecord
	for rows.Next() {
		var rec domain.BattleRecord
		var outcome string
		if err := rows.Scan(&rec.BattleID, &rec.UserID, &rec.DeckID, &outcome, &rec.Score, &rec.TotalQuestions,
			&rec.PlayerHealth, &rec.OpponentHealth, &rec.Rewards.XPEarned, &rec.Rewards.CoinsEarned,
			&rec.Rewards.StreakBonus, &rec.Rewards.TimeBonus, &rec.Unlocked, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.UserID, &p.XP, &p.Coins, &p.Streak, &p.BestStreak, &p.BattlesWon,
		&p.BattlesLost, &p.BattlesDrawn, &p.Achievements, &p.UpdatedAt)
	return p, err
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
