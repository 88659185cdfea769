package engine

import "legal-battle-service/internal/domain"

// MinimumDamage is the floor for any hit landed with a correct answer.
const MinimumDamage = 10

// MutualPenalty is what both sides lose when neither answers correctly.
const MutualPenalty = 10

// Hit is the effect of one damage application on a defender.
type Hit struct {
	Damage       int
	ShieldBlock  int
	ShieldBreak  int
	ActualDamage int
	Defender     domain.PlayerState
}

// CalculateDamage returns the raw damage attacker deals. A wrong answer deals
// nothing even with advantage; a right one deals the time left, at least MinimumDamage.
func CalculateDamage(attacker, _ domain.PlayerState) int {
	if !attacker.IsCorrect {
		return 0
	}
	return max(MinimumDamage, attacker.TimeLeft)
}

// ApplyHit runs damage through the defender's shield.
//
// The shield absorbs up to its value; ShieldBreak equals the block only when a
// positive shield is fully consumed. The shield itself is reduced by the full
// damage, not by what got through. Health is clamped at zero.
func ApplyHit(defender domain.PlayerState, damage int) Hit {
	if damage < 0 {
		damage = 0
	}
	shield := max(defender.Shield, 0)
	block := min(shield, damage)
	actual := max(0, damage-block)

	brk := 0
	if shield > 0 && block == shield {
		brk = block
	}

	defender.Shield = max(0, shield-damage)
	defender.Health = max(0, defender.Health-actual)
	return Hit{
		Damage:       damage,
		ShieldBlock:  block,
		ShieldBreak:  brk,
		ActualDamage: actual,
		Defender:     defender,
	}
}
