// Package engine holds the battle rules: bot moves, action advantage, damage,
// round resolution and rewards. Everything here is a pure function of its
// inputs; randomness comes in through the RNG interface.
package engine

import (
	"fmt"
	"strings"

	"legal-battle-service/internal/domain"
)

// beats maps every action to the one action it defeats.
var beats = map[domain.Action]domain.Action{
	domain.ActionAttack:  domain.ActionDefend,
	domain.ActionDefend:  domain.ActionSpecial,
	domain.ActionSpecial: domain.ActionAttack,
}

var actionOrder = []domain.Action{domain.ActionAttack, domain.ActionDefend, domain.ActionSpecial}

// Actions returns the action enum in a stable order.
func Actions() []domain.Action {
	return append([]domain.Action(nil), actionOrder...)
}

// ValidAction reports whether a is part of the enum.
func ValidAction(a domain.Action) bool {
	_, ok := beats[a]
	return ok
}

// ParseAction validates a raw client value, ignoring case and surrounding space.
func ParseAction(raw string) (domain.Action, error) {
	a := domain.Action(strings.ToLower(strings.TrimSpace(raw)))
	if !ValidAction(a) {
		return domain.ActionNone, fmt.Errorf("%w: %q", domain.ErrInvalidAction, raw)
	}
	return a, nil
}

// AdvantageOf returns the action that a defeats.
func AdvantageOf(a domain.Action) (domain.Action, error) {
	target, ok := beats[a]
	if !ok {
		return domain.ActionNone, fmt.Errorf("%w: %q", domain.ErrInvalidAction, a)
	}
	return target, nil
}

// HasAdvantage reports whether attacker's action defeats defender's.
// Unknown actions never have advantage.
func HasAdvantage(attacker, defender domain.Action) bool {
	target, ok := beats[attacker]
	return ok && target == defender
}
