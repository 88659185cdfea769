package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"legal-battle-service/internal/domain"
	"legal-battle-service/internal/engine"
)

// Storage drivers for profiles and battle history.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path" env:"SQLITE_PATH"`
	} `yaml:"sqlite"`
	Storage struct {
		Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
	} `yaml:"storage"`
	Deck struct {
		TTL  string `yaml:"ttl" env:"DECK_TTL"`
		File string `yaml:"file" env:"DECK_FILE"`
	} `yaml:"deck"`
	Auth struct {
		Secret   string `yaml:"secret" env:"JWT_SECRET"`
		TokenTTL string `yaml:"token_ttl" env:"JWT_TOKEN_TTL"`
	} `yaml:"auth"`
	Battle       Battle               `yaml:"battle"`
	Achievements []domain.Achievement `yaml:"achievements"`
}

// Battle holds the game tuning knobs.
type Battle struct {
	BotBaseAccuracy       float64                   `yaml:"bot_base_accuracy" env:"BATTLE_BOT_BASE_ACCURACY"`
	BotAccuracyMultiplier float64                   `yaml:"bot_accuracy_multiplier" env:"BATTLE_BOT_ACCURACY_MULTIPLIER"`
	QuestionsPerBattle    int                       `yaml:"questions_per_battle" env:"BATTLE_QUESTIONS_PER_BATTLE"`
	TimePerQuestion       int                       `yaml:"time_per_question" env:"BATTLE_TIME_PER_QUESTION"`
	InitialHealth         int                       `yaml:"initial_health" env:"BATTLE_INITIAL_HEALTH"`
	InitialShield         int                       `yaml:"initial_shield" env:"BATTLE_INITIAL_SHIELD"`
	RevealDelay           string                    `yaml:"reveal_delay" env:"BATTLE_REVEAL_DELAY"`
	AnimationDelay        string                    `yaml:"animation_delay" env:"BATTLE_ANIMATION_DELAY"`
	DefaultDifficulty     string                    `yaml:"default_difficulty" env:"BATTLE_DEFAULT_DIFFICULTY"`
	Difficulties          map[string]Difficulty     `yaml:"difficulties"`
	Rewards               engine.RewardCoefficients `yaml:"rewards"`
}

// Difficulty pairs a reward multiplier with the bot rating used for accuracy scaling.
type Difficulty struct {
	RewardMultiplier float64 `yaml:"reward_multiplier"`
	BotRating        int     `yaml:"bot_rating"`
}

// Defaults returns a configuration usable without any file.
func Defaults() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "10m"
	cfg.Storage.Driver = DriverMemory
	cfg.Deck.TTL = "10m"
	cfg.Auth.TokenTTL = "24h"
	cfg.Battle = Battle{
		BotBaseAccuracy:       0.55,
		BotAccuracyMultiplier: 0.05,
		QuestionsPerBattle:    5,
		TimePerQuestion:       30,
		InitialHealth:         100,
		InitialShield:         20,
		RevealDelay:           "1500ms",
		AnimationDelay:        "2s",
		DefaultDifficulty:     "medium",
		Difficulties: map[string]Difficulty{
			"easy":   {RewardMultiplier: 1, BotRating: 0},
			"medium": {RewardMultiplier: 1.5, BotRating: 3},
			"hard":   {RewardMultiplier: 2, BotRating: 6},
		},
		Rewards: engine.RewardCoefficients{
			BaseXP:              100,
			BaseCoins:           50,
			StreakBonusPerLevel: 5,
			StreakBonusCap:      50,
			TimeBonusPerSecond:  1,
			VictoryXP:           25,
			VictoryCoins:        15,
		},
	}
	cfg.Achievements = []domain.Achievement{
		{ID: "first-verdict", Title: "First Verdict", Requirement: domain.Requirement{Kind: domain.RequirementBattlesWon, Threshold: 1}},
		{ID: "senior-partner", Title: "Senior Partner", Requirement: domain.Requirement{Kind: domain.RequirementBattlesWon, Threshold: 25}},
		{ID: "hot-streak", Title: "On a Roll", Requirement: domain.Requirement{Kind: domain.RequirementWinStreak, Threshold: 3}},
		{ID: "bar-ready", Title: "Bar Ready", Requirement: domain.Requirement{Kind: domain.RequirementTotalXP, Threshold: 5000}},
		{ID: "flawless-argument", Title: "Flawless Argument", Requirement: domain.Requirement{Kind: domain.RequirementPerfectBattle}},
	}
	return cfg
}

// Load reads YAML config from path over Defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	// Achievements are file-only; env overrides cover the scalar sections.
	for _, section := range []any{&cfg.Server, &cfg.Redis, &cfg.Postgres, &cfg.SQLite, &cfg.Storage, &cfg.Deck, &cfg.Auth, &cfg.Battle} {
		if err := ParseEnv(section); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		return cfg, err
	}
	return cfg, nil
}

// ParseEnv loads overrides from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	b := c.Battle
	if b.BotBaseAccuracy < 0 || b.BotBaseAccuracy > 1 {
		errs = append(errs, fmt.Errorf("battle.bot_base_accuracy must be within [0,1], got %v", b.BotBaseAccuracy))
	}
	if b.QuestionsPerBattle <= 0 {
		errs = append(errs, errors.New("battle.questions_per_battle must be positive"))
	}
	if b.TimePerQuestion <= 0 {
		errs = append(errs, errors.New("battle.time_per_question must be positive"))
	}
	if b.InitialHealth <= 0 {
		errs = append(errs, errors.New("battle.initial_health must be positive"))
	}
	if b.InitialShield < 0 {
		errs = append(errs, errors.New("battle.initial_shield must not be negative"))
	}
	for name, raw := range map[string]string{"battle.reveal_delay": b.RevealDelay, "battle.animation_delay": b.AnimationDelay} {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, raw))
		}
	}
	if len(b.Difficulties) == 0 {
		errs = append(errs, errors.New("battle.difficulties is empty"))
	}
	for name, d := range b.Difficulties {
		if d.RewardMultiplier <= 0 {
			errs = append(errs, fmt.Errorf("battle.difficulties.%s: reward_multiplier must be positive", name))
		}
	}
	if _, ok := b.Difficulties[b.DefaultDifficulty]; !ok {
		errs = append(errs, fmt.Errorf("battle.default_difficulty %q is not a configured difficulty", b.DefaultDifficulty))
	}

	ids := make(map[string]struct{}, len(c.Achievements))
	for _, a := range c.Achievements {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			errs = append(errs, errors.New("achievement entry missing 'id'"))
			continue
		}
		if _, dup := ids[id]; dup {
			errs = append(errs, fmt.Errorf("duplicate achievement id '%s'", id))
		}
		ids[id] = struct{}{}
		if !a.Requirement.Valid() {
			errs = append(errs, fmt.Errorf("achievement '%s': unknown requirement kind %q", id, a.Requirement.Kind))
		}
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("storage.driver postgres requires postgres.url"))
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.driver sqlite requires sqlite.path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// ResolveDifficulty resolves a difficulty by name, falling back to the default.
func (b Battle) ResolveDifficulty(name string) (string, Difficulty) {
	if d, ok := b.Difficulties[name]; ok {
		return name, d
	}
	return b.DefaultDifficulty, b.Difficulties[b.DefaultDifficulty]
}

// PhaseDelays returns the answer-reveal and animation pacing delays.
func (b Battle) PhaseDelays() (reveal, animation time.Duration) {
	return TTLDuration(b.RevealDelay, 0), TTLDuration(b.AnimationDelay, 0)
}

// QuestionTimeout is how long a round waits for the user before auto-submitting.
func (b Battle) QuestionTimeout() time.Duration {
	return time.Duration(b.TimePerQuestion) * time.Second
}
