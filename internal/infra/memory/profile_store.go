package memory

import (
	"context"
	"sync"

	"legal-battle-service/internal/domain"
)

// ProfileStore keeps profiles and battle history in process. Used when no
// database is configured and in tests.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
	history  map[string][]domain.BattleRecord
	recorded map[string]struct{}
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.Profile),
		history:  make(map[string][]domain.BattleRecord),
		recorded: make(map[string]struct{}),
	}
}

func (s *ProfileStore) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return clone(p), nil
}

// RecordBattle folds rec into the profile. Recording the same battle twice
// leaves the profile unchanged.
func (s *ProfileStore) RecordBattle(_ context.Context, rec domain.BattleRecord) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recorded[rec.BattleID]; ok {
		return clone(s.profiles[rec.UserID]), nil
	}
	s.recorded[rec.BattleID] = struct{}{}
	p := s.profiles[rec.UserID].Apply(rec)
	s.profiles[rec.UserID] = p
	s.history[rec.UserID] = append(s.history[rec.UserID], rec)
	return clone(p), nil
}

// History returns a user's most recent battles, newest first.
func (s *ProfileStore) History(_ context.Context, userID string, limit int) ([]domain.BattleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.history[userID]
	out := make([]domain.BattleRecord, 0, min(len(all), limit))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func clone(p domain.Profile) domain.Profile {
	p.Achievements = append([]string{}, p.Achievements...)
	return p
}
