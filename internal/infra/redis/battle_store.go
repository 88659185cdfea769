package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"legal-battle-service/internal/app"
)

// BattleStore is a Redis-aware implementation of app.BattleRepository.
// Battles stay in a local map because their timers and subscribers are
// in-process; Redis records which user owns a live battle so other
// instances (and operators) can see it.
type BattleStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	battles map[string]*app.Battle
}

func NewBattleStore(client *redis.Client, ttl time.Duration) *BattleStore {
	return &BattleStore{
		client:  client,
		ttl:     ttl,
		battles: make(map[string]*app.Battle),
	}
}

func (s *BattleStore) Add(battle *app.Battle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[battle.ID()] = battle
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(battle.ID()), battle.UserID(), s.ttl).Err()
}

func (s *BattleStore) Get(battleID string) (*app.Battle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	battle, ok := s.battles[battleID]
	return battle, ok
}

// Touch renews the liveness marker so it outlives every phase of a battle
// still held here, including the retention window after completion.
func (s *BattleStore) Touch(battleID string) {
	s.mu.RLock()
	battle, ok := s.battles[battleID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	_ = s.client.Set(context.Background(), s.key(battleID), battle.UserID(), s.ttl).Err()
}

func (s *BattleStore) Delete(battleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.battles[battleID]; !ok {
		return
	}
	delete(s.battles, battleID)
	_ = s.client.Del(context.Background(), s.key(battleID)).Err()
}

func (s *BattleStore) key(battleID string) string {
	return "battle:live:" + battleID
}
