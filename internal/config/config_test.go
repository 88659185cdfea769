package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Battle.QuestionsPerBattle != 5 || cfg.Storage.Driver != DriverMemory {
		t.Fatalf("unexpected defaults %+v", cfg.Battle)
	}
	reveal, animation := cfg.Battle.PhaseDelays()
	if reveal != 1500*time.Millisecond || animation != 2*time.Second {
		t.Fatalf("unexpected delays %v %v", reveal, animation)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
battle:
  questions_per_battle: 3
  difficulties:
    brutal:
      reward_multiplier: 3
      bot_rating: 9
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Battle.QuestionsPerBattle != 3 {
		t.Fatalf("expected 3 questions, got %d", cfg.Battle.QuestionsPerBattle)
	}
	if cfg.Battle.TimePerQuestion != 30 {
		t.Fatalf("expected default time per question to survive, got %d", cfg.Battle.TimePerQuestion)
	}
	name, d := cfg.Battle.ResolveDifficulty("brutal")
	if name != "brutal" || d.BotRating != 9 {
		t.Fatalf("expected brutal difficulty, got %s %+v", name, d)
	}
	name, _ = cfg.Battle.ResolveDifficulty("unknown")
	if name != "medium" {
		t.Fatalf("expected fallback to default difficulty, got %s", name)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BATTLE_QUESTIONS_PER_BATTLE", "7")
	t.Setenv("REDIS_ADDR", "redis:6379")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Battle.QuestionsPerBattle != 7 || cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("env overrides not applied: %d %q", cfg.Battle.QuestionsPerBattle, cfg.Redis.Addr)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
battle:
  bot_base_accuracy: 1.5
achievements:
  - id: dup
    requirement: {kind: battles_won, threshold: 1}
  - id: dup
    requirement: {kind: charisma}
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"bot_base_accuracy", "postgres.url", "duplicate achievement", "charisma"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %q, got %v", want, err)
		}
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
