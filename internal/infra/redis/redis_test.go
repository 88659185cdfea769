package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"legal-battle-service/internal/app"
	"legal-battle-service/internal/config"
	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/infra/memory"
)

func TestDeckCacheStoresDecksInRedis(t *testing.T) {
	mr := runRedis(t)
	client := newClient(mr)

	loader := &countingLoader{
		DeckLoader: memory.NewStaticDeckLoader(map[string]domain.Deck{
			"evidence": sampleDeck(),
		}),
	}
	cache := NewDeckCache(client, loader, time.Minute)

	deck, err := cache.GetDeck(context.Background(), "evidence")
	if err != nil {
		t.Fatalf("get deck: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("deck:evidence") {
		t.Fatalf("expected deck cached in redis")
	}
	if ttl := mr.TTL("deck:evidence"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %s", ttl)
	}

	// Second call should hit cache, loader not incremented.
	again, err := cache.GetDeck(context.Background(), "evidence")
	if err != nil {
		t.Fatalf("get deck 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if again.Questions[0].CorrectAnswer != deck.Questions[0].CorrectAnswer {
		t.Fatalf("cached deck lost its answer key: %+v", again)
	}
}

func TestLeaderboardRanksByXP(t *testing.T) {
	mr := runRedis(t)
	lb := NewLeaderboard(newClient(mr))
	ctx := context.Background()

	_ = lb.SetXP(ctx, "alice", 120)
	_ = lb.SetXP(ctx, "bob", 300)
	_ = lb.SetXP(ctx, "alice", 450)

	top, err := lb.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "alice" || top[0].XP != 450 || top[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}

	if rank, _ := lb.Rank(ctx, "bob"); rank != 2 {
		t.Fatalf("expected bob at rank 2, got %d", rank)
	}
	if rank, err := lb.Rank(ctx, "nobody"); err != nil || rank != 0 {
		t.Fatalf("expected unranked user at 0, got %d (%v)", rank, err)
	}
}

func TestBattleStoreSetsAndClearsKeys(t *testing.T) {
	mr := runRedis(t)
	store := NewBattleStore(newClient(mr), time.Minute)

	decks := memory.NewDeckRepository(memory.NewStaticDeckLoader(map[string]domain.Deck{
		"evidence": sampleDeck(),
	}), time.Minute)
	battle := config.Defaults().Battle
	battle.QuestionsPerBattle = 1
	svc := app.NewBattleService(store, decks, memory.NewProfileStore(), memory.NewLeaderboard(),
		app.Settings{Battle: battle}, app.WithSeed(1))

	snap, err := svc.StartBattle(context.Background(), "u1", app.StartOptions{DeckID: "evidence"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	key := "battle:live:" + snap.BattleID
	if got, _ := mr.Get(key); got != "u1" {
		t.Fatalf("expected liveness key owned by u1, got %q", got)
	}

	if err := svc.Exit(context.Background(), snap.BattleID, "u1"); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestBattleStoreRenewsKeyWhenRoundsOpen(t *testing.T) {
	mr := runRedis(t)
	store := NewBattleStore(newClient(mr), time.Minute)

	deck := sampleDeck()
	second := deck.Questions[0]
	second.ID = "e2"
	deck.Questions = append(deck.Questions, second)
	decks := memory.NewDeckRepository(memory.NewStaticDeckLoader(map[string]domain.Deck{
		"evidence": deck,
	}), time.Minute)
	battle := config.Defaults().Battle
	battle.QuestionsPerBattle = 2
	battle.RevealDelay = "1ms"
	battle.AnimationDelay = "1ms"
	svc := app.NewBattleService(store, decks, memory.NewProfileStore(), memory.NewLeaderboard(),
		app.Settings{Battle: battle}, app.WithSeed(1))

	ctx := context.Background()
	snap, err := svc.StartBattle(ctx, "u1", app.StartOptions{DeckID: "evidence"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Exit(ctx, snap.BattleID, "u1") })
	key := "battle:live:" + snap.BattleID

	mr.FastForward(50 * time.Second)
	if ttl := mr.TTL(key); ttl != 10*time.Second {
		t.Fatalf("expected 10s left on the marker, got %s", ttl)
	}
	if _, err := svc.SubmitAnswer(ctx, snap.BattleID, "u1", domain.Submission{Action: domain.ActionSpecial, Answer: "Hearsay", TimeLeft: 20}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		cur, err := svc.Snapshot(ctx, snap.BattleID, "u1")
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if cur.Round == 2 && cur.Phase == domain.PhaseReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("round 2 never opened, last phase %s", cur.Phase)
		}
		time.Sleep(time.Millisecond)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected marker renewed to 1m, got %s", ttl)
	}
}

type countingLoader struct {
	memory.DeckLoader
	calls int
}

func (l *countingLoader) LoadDeck(ctx context.Context, deckID string) (domain.Deck, error) {
	l.calls++
	return l.DeckLoader.LoadDeck(ctx, deckID)
}

func sampleDeck() domain.Deck {
	return domain.Deck{
		ID:    "evidence",
		Title: "Evidence",
		Questions: []domain.Question{
			{
				ID:            "e1",
				Text:          "An out-of-court statement offered for its truth is what?",
				Options:       []string{"Hearsay", "Character evidence", "Impeachment", "Privilege"},
				CorrectAnswer: "Hearsay",
			},
		},
	}
}

func runRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
