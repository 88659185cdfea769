package memory

import (
	"context"
	"sort"
	"sync"

	"legal-battle-service/internal/domain"
)

// Leaderboard ranks users by XP in process.
type Leaderboard struct {
	mu sync.RWMutex
	xp map[string]int
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{xp: make(map[string]int)}
}

func (l *Leaderboard) SetXP(_ context.Context, userID string, xp int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.xp[userID] = xp
	return nil
}

// Top returns up to limit entries, highest XP first; ties break on user id.
func (l *Leaderboard) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.xp))
	for id, xp := range l.xp {
		entries = append(entries, domain.LeaderboardEntry{UserID: id, XP: xp})
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Rank returns the user's 1-based position, or 0 when unranked.
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int, error) {
	l.mu.RLock()
	_, ok := l.xp[userID]
	l.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	entries, _ := l.Top(ctx, 0)
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank, nil
		}
	}
	return 0, nil
}
