package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"legal-battle-service/internal/config"
)

func TestSimulatePlaysToCompletion(t *testing.T) {
	var out bytes.Buffer
	err := simulate(context.Background(), &out, config.Defaults(), simulateOptions{
		deckID: "contracts",
		userID: "sim",
		seed:   42,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "round 1:") || !strings.Contains(text, "rewards:") {
		t.Fatalf("unexpected output:\n%s", text)
	}
}

func TestSimulateUnknownDeck(t *testing.T) {
	err := simulate(context.Background(), &bytes.Buffer{}, config.Defaults(), simulateOptions{deckID: "nope", userID: "sim", seed: 1})
	if err == nil {
		t.Fatalf("expected error for unknown deck")
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "u1", "--config", ""})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}
	if strings.Count(strings.TrimSpace(out.String()), ".") != 2 {
		t.Fatalf("expected a jwt, got %q", out.String())
	}
}
