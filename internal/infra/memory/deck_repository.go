package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"legal-battle-service/internal/domain"
)

// DeckLoader fetches question decks from a backing store (Postgres, static fixtures).
type DeckLoader interface {
	LoadDeck(ctx context.Context, deckID string) (domain.Deck, error)
}

// DeckRepository caches decks with TTL to avoid repeated DB hits.
type DeckRepository struct {
	loader DeckLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDeck
}

type cachedDeck struct {
	deck      domain.Deck
	expiresAt time.Time
}

func NewDeckRepository(loader DeckLoader, ttl time.Duration) *DeckRepository {
	return &DeckRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDeck),
	}
}

func (r *DeckRepository) GetDeck(ctx context.Context, deckID string) (domain.Deck, error) {
	if deck, ok := r.cached(deckID); ok {
		return deck, nil
	}

	result, err, _ := r.sf.Do(deckID, func() (interface{}, error) {
		if deck, ok := r.cached(deckID); ok {
			return deck, nil
		}

		deck, err := r.loader.LoadDeck(ctx, deckID)
		if err != nil {
			return domain.Deck{}, err
		}

		ttl := r.ttlWithJitter()
		r.mu.Lock()
		r.cache[deckID] = cachedDeck{
			deck:      deck,
			expiresAt: r.clock().Add(ttl),
		}
		r.mu.Unlock()
		return deck, nil
	})
	if err != nil {
		return domain.Deck{}, err
	}
	return result.(domain.Deck), nil
}

func (r *DeckRepository) cached(deckID string) (domain.Deck, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[deckID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Deck{}, false
	}
	return entry.deck, true
}

func (r *DeckRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter so decks loaded together don't expire together
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticDeckLoader serves decks from a map (useful for tests/demos).
type StaticDeckLoader struct {
	decks map[string]domain.Deck
}

func NewStaticDeckLoader(decks map[string]domain.Deck) *StaticDeckLoader {
	return &StaticDeckLoader{decks: decks}
}

func (l *StaticDeckLoader) LoadDeck(_ context.Context, deckID string) (domain.Deck, error) {
	if deck, ok := l.decks[deckID]; ok {
		return deck, nil
	}
	return domain.Deck{}, domain.ErrDeckNotFound
}
