package memory

import (
	"sync"

	"legal-battle-service/internal/app"
)

// BattleStore is an in-memory implementation of app.BattleRepository.
type BattleStore struct {
	mu      sync.RWMutex
	battles map[string]*app.Battle
}

func NewBattleStore() *BattleStore {
	return &BattleStore{
		battles: make(map[string]*app.Battle),
	}
}

func (s *BattleStore) Add(battle *app.Battle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[battle.ID()] = battle
}

func (s *BattleStore) Get(battleID string) (*app.Battle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	battle, ok := s.battles[battleID]
	return battle, ok
}

// Touch is a no-op; in-process battles never expire on their own.
func (s *BattleStore) Touch(string) {}

func (s *BattleStore) Delete(battleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, battleID)
}

// Len reports how many battles are live.
func (s *BattleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.battles)
}
