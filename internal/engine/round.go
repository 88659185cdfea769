package engine

import (
	"fmt"

	"legal-battle-service/internal/domain"
)

// RoundOutcome is the result of resolving one round plus both updated states.
type RoundOutcome struct {
	Result   domain.BattleResult
	Player   domain.PlayerState
	Opponent domain.PlayerState
}

// ResolveRound applies one round of combat. Both states must be submitted
// (IsReady) with a valid action. The inputs are copied, never mutated.
//
// Order of evaluation:
//  1. player has advantage and answered correctly: player hits opponent
//  2. opponent has advantage and answered correctly: opponent hits player
//  3. neither answered correctly: both lose MutualPenalty, reported as the player attacking
//  4. anything else: nothing happens
func ResolveRound(player, opponent domain.PlayerState) (RoundOutcome, error) {
	if !player.IsReady || !opponent.IsReady {
		return RoundOutcome{}, domain.ErrInvalidQuestionState
	}
	if !ValidAction(player.SelectedAction) {
		return RoundOutcome{}, fmt.Errorf("player: %w: %q", domain.ErrInvalidAction, player.SelectedAction)
	}
	if !ValidAction(opponent.SelectedAction) {
		return RoundOutcome{}, fmt.Errorf("opponent: %w: %q", domain.ErrInvalidAction, opponent.SelectedAction)
	}

	out := RoundOutcome{Player: player, Opponent: opponent}
	playerAdv := HasAdvantage(player.SelectedAction, opponent.SelectedAction)
	opponentAdv := HasAdvantage(opponent.SelectedAction, player.SelectedAction)

	switch {
	case playerAdv && player.IsCorrect:
		hit := ApplyHit(opponent, CalculateDamage(player, opponent))
		out.Opponent = hit.Defender
		out.Result = resultFor(domain.SidePlayer, hit)
	case opponentAdv && opponent.IsCorrect:
		hit := ApplyHit(player, CalculateDamage(opponent, player))
		out.Player = hit.Defender
		out.Result = resultFor(domain.SideOpponent, hit)
	case !player.IsCorrect && !opponent.IsCorrect:
		out.Player.Health = max(0, player.Health-MutualPenalty)
		out.Opponent.Health = max(0, opponent.Health-MutualPenalty)
		out.Result = domain.BattleResult{Attacker: domain.SidePlayer, Damage: MutualPenalty}
	default:
		out.Result = domain.BattleResult{Attacker: domain.SideNone}
	}
	return out, nil
}

func resultFor(attacker domain.Side, hit Hit) domain.BattleResult {
	return domain.BattleResult{
		Attacker:    attacker,
		Damage:      hit.Damage,
		ShieldBlock: hit.ShieldBlock,
		ShieldBreak: hit.ShieldBreak,
	}
}

// BattleOver reports whether the battle ends after round (1-based) of total,
// and who won. Health reaching zero ends it immediately; otherwise it ends when
// the questions run out and the healthier side wins.
func BattleOver(player, opponent domain.PlayerState, round, total int) (bool, domain.Outcome) {
	playerDown := player.Health <= 0
	opponentDown := opponent.Health <= 0
	switch {
	case playerDown && opponentDown:
		return true, domain.OutcomeDraw
	case opponentDown:
		return true, domain.OutcomeVictory
	case playerDown:
		return true, domain.OutcomeDefeat
	}
	if round < total {
		return false, domain.OutcomeNone
	}
	switch {
	case player.Health > opponent.Health:
		return true, domain.OutcomeVictory
	case player.Health < opponent.Health:
		return true, domain.OutcomeDefeat
	default:
		return true, domain.OutcomeDraw
	}
}

// ResetForNextRound clears the per-round fields while keeping health and shield.
func ResetForNextRound(s domain.PlayerState) domain.PlayerState {
	return domain.PlayerState{Health: s.Health, Shield: s.Shield}
}
