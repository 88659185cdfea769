package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"legal-battle-service/internal/app"
	"legal-battle-service/internal/config"
	"legal-battle-service/internal/infra/memory"
	pgstore "legal-battle-service/internal/infra/postgres"
	redisstore "legal-battle-service/internal/infra/redis"
	"legal-battle-service/internal/infra/sqlite"
	"legal-battle-service/internal/logging"
)

// services is everything the battle service runs on, plus how to release it.
type services struct {
	battles *app.BattleService
	closers []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServices picks the storage backends from cfg: Postgres and Redis when
// configured, in-memory otherwise.
func buildServices(ctx context.Context, cfg config.Config, opts ...app.Option) (*services, error) {
	out := &services{}
	fail := func(err error) (*services, error) {
		out.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		out.closers = append(out.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return fail(err)
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		out.closers = append(out.closers, pool.Close)
	}

	var loader memory.DeckLoader
	switch {
	case pool != nil:
		loader = pgstore.NewDeckLoader(pool)
	case cfg.Deck.File != "":
		fileLoader, err := memory.FileDeckLoader(cfg.Deck.File)
		if err != nil {
			return fail(err)
		}
		loader = fileLoader
	default:
		builtin, err := memory.BuiltinDeckLoader()
		if err != nil {
			return fail(err)
		}
		loader = builtin
	}

	deckTTL := config.TTLDuration(cfg.Deck.TTL, 10*time.Minute)
	var decks app.DeckRepository
	var store app.BattleRepository
	var board app.Leaderboard
	if redisClient != nil {
		decks = redisstore.NewDeckCache(redisClient, loader, deckTTL)
		store = redisstore.NewBattleStore(redisClient, redisTTL)
		board = redisstore.NewLeaderboard(redisClient)
	} else {
		decks = memory.NewDeckRepository(loader, deckTTL)
		store = memory.NewBattleStore()
		board = memory.NewLeaderboard()
	}

	var profiles app.ProfileStore
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		profiles = pgstore.NewProfileStore(pool)
	case config.DriverSQLite:
		sqliteStore, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return fail(err)
		}
		out.closers = append(out.closers, func() { _ = sqliteStore.Close() })
		profiles = sqliteStore
	default:
		profiles = memory.NewProfileStore()
	}

	logging.Info("storage configured", logging.Fields{
		"profiles": cfg.Storage.Driver,
		"redis":    redisClient != nil,
		"postgres": pool != nil,
	})

	out.battles = app.NewBattleService(store, decks, profiles, board, app.Settings{
		Battle:       cfg.Battle,
		Achievements: cfg.Achievements,
	}, opts...)
	return out, nil
}
