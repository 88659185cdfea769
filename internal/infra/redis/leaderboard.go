package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"legal-battle-service/internal/domain"
)

const leaderboardKey = "leaderboard:xp"

// Leaderboard ranks users by total XP in a sorted set.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// SetXP stores the user's total XP (not a delta).
func (l *Leaderboard) SetXP(ctx context.Context, userID string, xp int) error {
	return l.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(xp),
		Member: userID,
	}).Err()
}

func (l *Leaderboard) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	results, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = domain.LeaderboardEntry{
			UserID: z.Member.(string),
			XP:     int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

// Rank returns the user's 1-based position, or 0 when unranked.
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int, error) {
	rank, err := l.client.ZRevRank(ctx, leaderboardKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(rank) + 1, nil
}
