package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/logging"
)

// DeckLoader fetches decks from a backing store (Postgres, static fixtures).
type DeckLoader interface {
	LoadDeck(ctx context.Context, deckID string) (domain.Deck, error)
}

// DeckCache caches whole decks in Redis and falls back to a loader on miss.
// Decks are stored as JSON: SET deck:{deckID} {json} EX ttl
type DeckCache struct {
	client *redis.Client
	loader DeckLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewDeckCache(client *redis.Client, loader DeckLoader, ttl time.Duration) *DeckCache {
	return &DeckCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DeckCache) GetDeck(ctx context.Context, deckID string) (domain.Deck, error) {
	if deck, ok := c.cached(ctx, deckID); ok {
		return deck, nil
	}

	result, err, _ := c.sf.Do(deckID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if deck, ok := c.cached(ctx, deckID); ok {
			return deck, nil
		}

		deck, err := c.loader.LoadDeck(ctx, deckID)
		if err != nil {
			return domain.Deck{}, err
		}

		raw, err := json.Marshal(deck)
		if err != nil {
			return domain.Deck{}, err
		}
		if err := c.client.Set(ctx, c.key(deckID), raw, c.ttlWithJitter()).Err(); err != nil {
			// the deck is still usable; the next call retries the write
			logging.Warn("cache deck", logging.Fields{"deckId": deckID, "error": err.Error()})
		}
		return deck, nil
	})
	if err != nil {
		return domain.Deck{}, err
	}
	return result.(domain.Deck), nil
}

func (c *DeckCache) cached(ctx context.Context, deckID string) (domain.Deck, bool) {
	raw, err := c.client.Get(ctx, c.key(deckID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Warn("read cached deck", logging.Fields{"deckId": deckID, "error": err.Error()})
		}
		return domain.Deck{}, false
	}
	var deck domain.Deck
	if err := json.Unmarshal(raw, &deck); err != nil {
		return domain.Deck{}, false
	}
	return deck, true
}

func (c *DeckCache) key(deckID string) string {
	return "deck:" + deckID
}

func (c *DeckCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
