// Package sqlite provides a single-node profile store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"legal-battle-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id       TEXT PRIMARY KEY,
	xp            INTEGER NOT NULL DEFAULT 0,
	coins         INTEGER NOT NULL DEFAULT 0,
	streak        INTEGER NOT NULL DEFAULT 0,
	best_streak   INTEGER NOT NULL DEFAULT 0,
	battles_won   INTEGER NOT NULL DEFAULT 0,
	battles_lost  INTEGER NOT NULL DEFAULT 0,
	battles_drawn INTEGER NOT NULL DEFAULT 0,
	achievements  TEXT NOT NULL DEFAULT '[]',
	updated_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS battle_history (
	battle_id       TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	deck_id         TEXT NOT NULL,
	outcome         TEXT NOT NULL,
	score           INTEGER NOT NULL,
	total_questions INTEGER NOT NULL,
	player_health   INTEGER NOT NULL,
	opponent_health INTEGER NOT NULL,
	xp_earned       INTEGER NOT NULL,
	coins_earned    INTEGER NOT NULL,
	streak_bonus    INTEGER NOT NULL DEFAULT 0,
	time_bonus      INTEGER NOT NULL DEFAULT 0,
	unlocked        TEXT NOT NULL DEFAULT '[]',
	finished_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS battle_history_user_idx ON battle_history (user_id, finished_at);
`

// ProfileStore persists profiles and battle history in SQLite.
type ProfileStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and creates the schema if needed.
func Open(path string) (*ProfileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &ProfileStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *ProfileStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := loadProfile(ctx, s.sqlDB, userID)
	if errors.Is(err, sql.ErrNoRows) {
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
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	unlocked, err := json.Marshal(nonNil(rec.Unlocked))
	if err != nil {
		return domain.Profile{}, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO battle_history
		(battle_id, user_id, deck_id, outcome, score, total_questions, player_health, opponent_health,
		 xp_earned, coins_earned, streak_bonus, time_bonus, unlocked, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (battle_id) DO NOTHING`,
		rec.BattleID, rec.UserID, rec.DeckID, string(rec.Outcome), rec.Score, rec.TotalQuestions,
		rec.PlayerHealth, rec.OpponentHealth, rec.Rewards.XPEarned, rec.Rewards.CoinsEarned,
		rec.Rewards.StreakBonus, rec.Rewards.TimeBonus, string(unlocked), toMillis(rec.FinishedAt))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("insert history: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return domain.Profile{}, err
	}

	prev, err := loadProfile(ctx, tx, rec.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if inserted == 0 {
		return prev, tx.Commit()
	}

	p := prev.Apply(rec)
	achievements, err := json.Marshal(nonNil(p.Achievements))
	if err != nil {
		return domain.Profile{}, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO profiles
		(user_id, xp, coins, streak, best_streak, battles_won, battles_lost, battles_drawn, achievements, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			xp=excluded.xp, coins=excluded.coins, streak=excluded.streak, best_streak=excluded.best_streak,
			battles_won=excluded.battles_won, battles_lost=excluded.battles_lost,
			battles_drawn=excluded.battles_drawn, achievements=excluded.achievements,
			updated_at=excluded.updated_at`,
		p.UserID, p.XP, p.Coins, p.Streak, p.BestStreak, p.BattlesWon, p.BattlesLost, p.BattlesDrawn,
		string(achievements), toMillis(p.UpdatedAt))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Profile{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// History returns a user's most recent battles, newest first.
func (s *ProfileStore) History(ctx context.Context, userID string, limit int) ([]domain.BattleRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT battle_id, user_id, deck_id, outcome, score, total_questions,
		player_health, opponent_health, xp_earned, coins_earned, streak_bonus, time_bonus, unlocked, finished_at
		FROM battle_history WHERE user_id=? ORDER BY finished_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []domain.BattleRecord
	for rows.Next() {
		var (
			rec      domain.BattleRecord
			outcome  string
			unlocked string
			finished int64
		)
		if err := rows.Scan(&rec.BattleID, &rec.UserID, &rec.DeckID, &outcome, &rec.Score, &rec.TotalQuestions,
			&rec.PlayerHealth, &rec.OpponentHealth, &rec.Rewards.XPEarned, &rec.Rewards.CoinsEarned,
			&rec.Rewards.StreakBonus, &rec.Rewards.TimeBonus, &unlocked, &finished); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(unlocked), &rec.Unlocked); err != nil {
			return nil, fmt.Errorf("decode unlocked: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		rec.FinishedAt = fromMillis(finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func loadProfile(ctx context.Context, q queryer, userID string) (domain.Profile, error) {
	var (
		p            domain.Profile
		achievements string
		updated      int64
	)
	err := q.QueryRowContext(ctx, `SELECT user_id, xp, coins, streak, best_streak, battles_won, battles_lost,
		battles_drawn, achievements, updated_at FROM profiles WHERE user_id=?`, userID).Scan(
		&p.UserID, &p.XP, &p.Coins, &p.Streak, &p.BestStreak, &p.BattlesWon, &p.BattlesLost,
		&p.BattlesDrawn, &achievements, &updated)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := json.Unmarshal([]byte(achievements), &p.Achievements); err != nil {
		return domain.Profile{}, fmt.Errorf("decode achievements: %w", err)
	}
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
