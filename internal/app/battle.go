package app

import (
	"sync"
	"time"

	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/engine"
)

// Battle is one live user-vs-bot session. All state is guarded by mu; the
// service mutates it only through the *Locked helpers while holding mu.
type Battle struct {
	id         string
	userID     string
	deckID     string
	difficulty string
	multiplier float64
	accuracy   float64
	timeLimit  int
	questions  []domain.Question
	rng        engine.RNG
	now        func() time.Time

	mu          sync.Mutex
	phase       domain.Phase
	round       int
	player      domain.PlayerState
	opponent    domain.PlayerState
	lastResult  *domain.BattleResult
	score       int
	timeBank    int
	outcome     domain.Outcome
	rewards     *domain.BattleRewards
	unlocked    []string
	persistErr  string
	closed      bool
	gen         uint64
	pending     func()
	updatedAt   time.Time
	subscribers map[chan domain.BattleSnapshot]struct{}
}

type battleParams struct {
	id         string
	userID     string
	deckID     string
	difficulty string
	multiplier float64
	accuracy   float64
	timeLimit  int
	questions  []domain.Question
	rng        engine.RNG
	now        func() time.Time
}

func newBattle(p battleParams) *Battle {
	return &Battle{
		id:          p.id,
		userID:      p.userID,
		deckID:      p.deckID,
		difficulty:  p.difficulty,
		multiplier:  p.multiplier,
		accuracy:    p.accuracy,
		timeLimit:   p.timeLimit,
		questions:   p.questions,
		rng:         p.rng,
		now:         p.now,
		phase:       domain.PhasePreparing,
		updatedAt:   p.now(),
		subscribers: make(map[chan domain.BattleSnapshot]struct{}),
	}
}

// ID returns the battle id.
func (b *Battle) ID() string { return b.id }

// UserID returns the owning user.
func (b *Battle) UserID() string { return b.userID }

// Snapshot returns the current observable state.
func (b *Battle) Snapshot() domain.BattleSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Battle) currentQuestionLocked() domain.Question {
	return b.questions[b.round-1]
}

// setPhaseLocked moves to phase, invalidates any pending transition and
// notifies subscribers.
func (b *Battle) setPhaseLocked(phase domain.Phase) uint64 {
	b.cancelPendingLocked()
	b.phase = phase
	b.gen++
	b.updatedAt = b.now()
	b.broadcastLocked()
	return b.gen
}

func (b *Battle) cancelPendingLocked() {
	if b.pending != nil {
		b.pending()
		b.pending = nil
	}
}

// closeLocked stops all pending work and releases subscribers. Later
// scheduled callbacks see closed and do nothing.
func (b *Battle) closeLocked() {
	if b.closed {
		return
	}
	b.cancelPendingLocked()
	b.closed = true
	b.gen++
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *Battle) subscribe() (<-chan domain.BattleSnapshot, func()) {
	ch := make(chan domain.BattleSnapshot, 8)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subscribers[ch] = struct{}{}
	ch <- b.snapshotLocked()
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Battle) broadcastLocked() {
	snap := b.snapshotLocked()
	for ch := range b.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest update so a slow reader never blocks the battle.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (b *Battle) snapshotLocked() domain.BattleSnapshot {
	snap := domain.BattleSnapshot{
		BattleID:    b.id,
		UserID:      b.userID,
		DeckID:      b.deckID,
		Difficulty:  b.difficulty,
		Phase:       b.phase,
		Round:       b.round,
		TotalRounds: len(b.questions),
		TimeLimit:   b.timeLimit,
		Player:      b.player,
		Opponent:    b.opponent,
		Score:       b.score,
		Outcome:     b.outcome,
		PersistErr:  b.persistErr,
		UpdatedAt:   b.updatedAt,
	}
	if b.round > 0 && b.round <= len(b.questions) {
		q := b.currentQuestionLocked()
		pub := q.Public()
		snap.Question = &pub
		switch b.phase {
		case domain.PhaseAnswerReveal, domain.PhaseAnimation, domain.PhaseCompleted:
			snap.CorrectAnswer = q.CorrectAnswer
		}
	}
	if b.lastResult != nil {
		r := *b.lastResult
		snap.LastResult = &r
	}
	if b.rewards != nil {
		r := *b.rewards
		snap.Rewards = &r
	}
	if len(b.unlocked) > 0 {
		snap.Unlocked = append([]string(nil), b.unlocked...)
	}
	return snap
}
