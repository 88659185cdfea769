package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"legal-battle-service/internal/domain"
)

// RNG is the randomness the bot draws from. *rand.Rand satisfies it.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// BotAccuracy scales the base accuracy by the opponent rating and clamps to [0,1].
func BotAccuracy(base, multiplier float64, rating int) float64 {
	acc := base + multiplier*float64(rating)
	if acc < 0 {
		return 0
	}
	if acc > 1 {
		return 1
	}
	return acc
}

// SelectBotMove produces the bot's submission for q.
//
// A single Float64 draw below accuracy answers correctly; otherwise one of the
// incorrect options is picked uniformly. The action is drawn uniformly from the
// enum and the remaining time uniformly over [0, playerTimeLeft]. Draw order is
// fixed (accuracy, wrong option if any, action, time) so a seeded RNG always
// yields the same move.
func SelectBotMove(rng RNG, q domain.Question, accuracy float64, playerTimeLeft int) domain.PlayerState {
	move := domain.PlayerState{IsReady: true}

	if rng.Float64() < accuracy {
		move.Answer = q.CorrectAnswer
		move.IsCorrect = true
	} else {
		wrong := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			if opt != q.CorrectAnswer {
				wrong = append(wrong, opt)
			}
		}
		if len(wrong) > 0 {
			move.Answer = wrong[rng.Intn(len(wrong))]
		}
	}

	move.SelectedAction = actionOrder[rng.Intn(len(actionOrder))]

	if playerTimeLeft < 0 {
		playerTimeLeft = 0
	}
	move.TimeLeft = rng.Intn(playerTimeLeft + 1)
	return move
}
