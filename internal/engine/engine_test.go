package engine

import (
	"errors"
	"testing"

	"legal-battle-service/internal/domain"
)

type scriptedRNG struct {
	floats []float64
	ints   []int
}

func (r *scriptedRNG) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRNG) Intn(n int) int {
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func sampleQuestion() domain.Question {
	return domain.Question{
		ID:            "q1",
		Text:          "Which court hears federal appeals?",
		Options:       []string{"Circuit court", "Probate court", "Small claims", "Traffic court"},
		CorrectAnswer: "Circuit court",
		Category:      "procedure",
		Difficulty:    "easy",
	}
}

func TestAdvantageFormsSingleCycle(t *testing.T) {
	seen := map[domain.Action]bool{}
	for _, a := range Actions() {
		next, err := AdvantageOf(a)
		if err != nil {
			t.Fatalf("advantage of %q: %v", a, err)
		}
		if next == a {
			t.Fatalf("%q beats itself", a)
		}
		if seen[next] {
			t.Fatalf("%q is beaten by two actions", next)
		}
		seen[next] = true

		n2, _ := AdvantageOf(next)
		n3, _ := AdvantageOf(n2)
		if n3 != a {
			t.Fatalf("expected 3-cycle back to %q, got %q", a, n3)
		}
		if !HasAdvantage(a, next) || HasAdvantage(next, a) {
			t.Fatalf("advantage relation not antisymmetric for %q/%q", a, next)
		}
	}
	if len(seen) != len(Actions()) {
		t.Fatalf("expected every action to be beaten once, got %v", seen)
	}
}

func TestAdvantageOfRejectsUnknownAction(t *testing.T) {
	if _, err := AdvantageOf("surrender"); !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("expected invalid action, got %v", err)
	}
	if _, err := ParseAction(""); !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("expected invalid action for empty value, got %v", err)
	}
	if a, err := ParseAction(" Special "); err != nil || a != domain.ActionSpecial {
		t.Fatalf("expected special from mixed-case input, got %q (%v)", a, err)
	}
	if HasAdvantage("surrender", domain.ActionAttack) {
		t.Fatalf("unknown action must not have advantage")
	}
}

func TestCalculateDamage(t *testing.T) {
	for _, timeLeft := range []int{0, 5, 10, 15, 30} {
		wrong := domain.PlayerState{IsCorrect: false, TimeLeft: timeLeft}
		if got := CalculateDamage(wrong, domain.PlayerState{}); got != 0 {
			t.Fatalf("wrong answer with %ds left dealt %d", timeLeft, got)
		}
		right := domain.PlayerState{IsCorrect: true, TimeLeft: timeLeft}
		got := CalculateDamage(right, domain.PlayerState{})
		if got < MinimumDamage {
			t.Fatalf("correct answer dealt %d, below the floor", got)
		}
		if timeLeft > MinimumDamage && got != timeLeft {
			t.Fatalf("expected damage %d, got %d", timeLeft, got)
		}
	}
}

func TestApplyHitShieldInvariants(t *testing.T) {
	for shield := 0; shield <= 30; shield += 3 {
		for damage := 0; damage <= 40; damage += 4 {
			hit := ApplyHit(domain.PlayerState{Health: 100, Shield: shield}, damage)
			if hit.Defender.Shield < 0 {
				t.Fatalf("shield went negative: shield=%d damage=%d", shield, damage)
			}
			wantBreak := hit.ShieldBlock == shield && shield > 0
			if (hit.ShieldBreak != 0) != wantBreak {
				t.Fatalf("shield break mismatch: shield=%d damage=%d hit=%+v", shield, damage, hit)
			}
			if hit.ActualDamage+hit.ShieldBlock != damage {
				t.Fatalf("block+actual != damage: %+v", hit)
			}
		}
	}
}

func TestApplyHitFullShieldDepletion(t *testing.T) {
	hit := ApplyHit(domain.PlayerState{Health: 100, Shield: 12}, 20)
	if hit.ShieldBlock != 12 || hit.ActualDamage != 8 || hit.ShieldBreak != 12 || hit.Defender.Shield != 0 {
		t.Fatalf("unexpected hit %+v", hit)
	}
	if hit.Defender.Health != 92 {
		t.Fatalf("expected health 92, got %d", hit.Defender.Health)
	}
}

func TestApplyHitClampsHealth(t *testing.T) {
	hit := ApplyHit(domain.PlayerState{Health: 5}, 25)
	if hit.Defender.Health != 0 {
		t.Fatalf("expected health clamped to 0, got %d", hit.Defender.Health)
	}
}

func TestResolveRoundPlayerAdvantage(t *testing.T) {
	player := domain.PlayerState{Health: 100, Shield: 5, SelectedAction: domain.ActionAttack, IsReady: true, IsCorrect: true, TimeLeft: 15}
	opponent := domain.PlayerState{Health: 100, Shield: 5, SelectedAction: domain.ActionDefend, IsReady: true}

	out, err := ResolveRound(player, opponent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Result.Attacker != domain.SidePlayer || out.Result.Damage != 15 {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Result.ShieldBlock != 5 || out.Result.ShieldBreak != 5 {
		t.Fatalf("expected full shield block of 5, got %+v", out.Result)
	}
	if out.Opponent.Shield != 0 || out.Opponent.Health != 90 {
		t.Fatalf("unexpected opponent state %+v", out.Opponent)
	}
	if out.Player != player {
		t.Fatalf("attacker state must be unchanged, got %+v", out.Player)
	}
}

func TestResolveRoundOpponentAdvantage(t *testing.T) {
	player := domain.PlayerState{Health: 100, Shield: 30, SelectedAction: domain.ActionDefend, IsReady: true, IsCorrect: true, TimeLeft: 3}
	opponent := domain.PlayerState{Health: 100, SelectedAction: domain.ActionAttack, IsReady: true, IsCorrect: true, TimeLeft: 4}

	out, err := ResolveRound(player, opponent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Result.Attacker != domain.SideOpponent || out.Result.Damage != MinimumDamage {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Result.ShieldBlock != MinimumDamage || out.Result.ShieldBreak != 0 {
		t.Fatalf("shield should absorb without breaking, got %+v", out.Result)
	}
	if out.Player.Shield != 20 || out.Player.Health != 100 {
		t.Fatalf("unexpected player state %+v", out.Player)
	}
}

func TestResolveRoundBothWrong(t *testing.T) {
	player := domain.PlayerState{Health: 50, Shield: 20, SelectedAction: domain.ActionAttack, IsReady: true}
	opponent := domain.PlayerState{Health: 50, Shield: 20, SelectedAction: domain.ActionDefend, IsReady: true}

	out, err := ResolveRound(player, opponent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Result != (domain.BattleResult{Attacker: domain.SidePlayer, Damage: MutualPenalty}) {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Player.Health != 40 || out.Opponent.Health != 40 {
		t.Fatalf("expected both at 40, got %d/%d", out.Player.Health, out.Opponent.Health)
	}
	if out.Player.Shield != 20 || out.Opponent.Shield != 20 {
		t.Fatalf("mutual penalty must not touch shields")
	}
}

func TestResolveRoundNoOpBranches(t *testing.T) {
	cases := []struct {
		name     string
		player   domain.PlayerState
		opponent domain.PlayerState
	}{
		{
			name:     "both correct same action",
			player:   domain.PlayerState{Health: 80, SelectedAction: domain.ActionSpecial, IsReady: true, IsCorrect: true, TimeLeft: 9},
			opponent: domain.PlayerState{Health: 80, SelectedAction: domain.ActionSpecial, IsReady: true, IsCorrect: true, TimeLeft: 9},
		},
		{
			name:     "advantage but wrong answer",
			player:   domain.PlayerState{Health: 80, SelectedAction: domain.ActionAttack, IsReady: true, IsCorrect: false},
			opponent: domain.PlayerState{Health: 80, SelectedAction: domain.ActionDefend, IsReady: true, IsCorrect: true, TimeLeft: 20},
		},
		{
			name:     "correct without advantage",
			player:   domain.PlayerState{Health: 80, SelectedAction: domain.ActionDefend, IsReady: true, IsCorrect: true, TimeLeft: 20},
			opponent: domain.PlayerState{Health: 80, SelectedAction: domain.ActionDefend, IsReady: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ResolveRound(tc.player, tc.opponent)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if out.Result != (domain.BattleResult{}) {
				t.Fatalf("expected empty result, got %+v", out.Result)
			}
			if out.Player != tc.player || out.Opponent != tc.opponent {
				t.Fatalf("no-op round changed state")
			}
		})
	}
}

func TestResolveRoundRejectsIncompleteRound(t *testing.T) {
	ready := domain.PlayerState{Health: 100, SelectedAction: domain.ActionAttack, IsReady: true}
	notReady := domain.PlayerState{Health: 100}

	if _, err := ResolveRound(ready, notReady); !errors.Is(err, domain.ErrInvalidQuestionState) {
		t.Fatalf("expected invalid question state, got %v", err)
	}
	bad := ready
	bad.SelectedAction = "dance"
	if _, err := ResolveRound(ready, bad); !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("expected invalid action, got %v", err)
	}
}

func TestResolveRoundResultMatchesStateDelta(t *testing.T) {
	player := domain.PlayerState{Health: 100, Shield: 7, SelectedAction: domain.ActionSpecial, IsReady: true, IsCorrect: true, TimeLeft: 18}
	opponent := domain.PlayerState{Health: 100, Shield: 12, SelectedAction: domain.ActionAttack, IsReady: true, IsCorrect: true}

	out, err := ResolveRound(player, opponent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	block := opponent.Shield - out.Opponent.Shield
	actual := opponent.Health - out.Opponent.Health
	brk := 0
	if out.Opponent.Shield == 0 && opponent.Shield > 0 {
		brk = block
	}
	if block != out.Result.ShieldBlock || block+actual != out.Result.Damage || brk != out.Result.ShieldBreak {
		t.Fatalf("result %+v does not match deltas block=%d actual=%d break=%d", out.Result, block, actual, brk)
	}
}

func TestBattleOver(t *testing.T) {
	alive := domain.PlayerState{Health: 30}
	dead := domain.PlayerState{Health: 0}

	if done, outcome := BattleOver(alive, dead, 1, 5); !done || outcome != domain.OutcomeVictory {
		t.Fatalf("expected victory, got %v %v", done, outcome)
	}
	if done, outcome := BattleOver(dead, alive, 1, 5); !done || outcome != domain.OutcomeDefeat {
		t.Fatalf("expected defeat, got %v %v", done, outcome)
	}
	if done, outcome := BattleOver(dead, dead, 1, 5); !done || outcome != domain.OutcomeDraw {
		t.Fatalf("expected draw, got %v %v", done, outcome)
	}
	if done, _ := BattleOver(alive, alive, 4, 5); done {
		t.Fatalf("battle must continue while questions remain")
	}
	if done, outcome := BattleOver(alive, domain.PlayerState{Health: 10}, 5, 5); !done || outcome != domain.OutcomeVictory {
		t.Fatalf("expected victory on question exhaustion, got %v %v", done, outcome)
	}
}

func TestResetForNextRoundKeepsHealthAndShield(t *testing.T) {
	s := domain.PlayerState{Health: 42, Shield: 3, SelectedAction: domain.ActionDefend, Answer: "x", IsReady: true, IsCorrect: true, TimeLeft: 8}
	got := ResetForNextRound(s)
	if got != (domain.PlayerState{Health: 42, Shield: 3}) {
		t.Fatalf("unexpected reset state %+v", got)
	}
}

func TestSelectBotMoveCorrect(t *testing.T) {
	rng := &scriptedRNG{floats: []float64{0.1}, ints: []int{2, 7}}
	move := SelectBotMove(rng, sampleQuestion(), 0.5, 20)
	if !move.IsCorrect || move.Answer != "Circuit court" {
		t.Fatalf("expected correct answer, got %+v", move)
	}
	if move.SelectedAction != domain.ActionSpecial || move.TimeLeft != 7 || !move.IsReady {
		t.Fatalf("unexpected bot move %+v", move)
	}
}

func TestSelectBotMoveIncorrectNeverPicksCorrectOption(t *testing.T) {
	for i := 0; i < 3; i++ {
		rng := &scriptedRNG{floats: []float64{0.9}, ints: []int{i, 0, 0}}
		move := SelectBotMove(rng, sampleQuestion(), 0.5, 0)
		if move.IsCorrect || move.Answer == "Circuit court" || move.Answer == "" {
			t.Fatalf("expected an incorrect option, got %+v", move)
		}
		if move.TimeLeft != 0 {
			t.Fatalf("bot cannot have more time than the player, got %d", move.TimeLeft)
		}
	}
}

func TestSelectBotMoveDeterministicForSeed(t *testing.T) {
	q := sampleQuestion()
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 20; i++ {
		if SelectBotMove(a, q, 0.6, 25) != SelectBotMove(b, q, 0.6, 25) {
			t.Fatalf("moves diverged at draw %d", i)
		}
	}
}

func TestBotAccuracyClamps(t *testing.T) {
	if got := BotAccuracy(0.6, 0.05, 2); got < 0.699 || got > 0.701 {
		t.Fatalf("expected 0.7, got %v", got)
	}
	if got := BotAccuracy(0.9, 0.1, 5); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	if got := BotAccuracy(0.1, 0.2, -3); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}
