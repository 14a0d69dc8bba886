package ai

import (
	"math"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// targetScore rates an enemy as prey for one of our units. Higher is
// better. The terms mirror a veteran's priorities: batteries are the
// prize, anything pressing our own guns comes next, a mauled unit dies
// easier, shooters outrank sabers, and everything discounts with
// distance.
func (c *Commander) targetScore(v fieldView, u, e *battle.Unit) float64 {
	var s float64
	switch e.Type {
	case battle.UnitCannon:
		s += c.doc.ScoreCannon
	case battle.UnitInfantry:
		s += c.doc.ScoreInfantry
	case battle.UnitCavalry:
		s += c.doc.ScoreCavalry
	}
	for _, g := range v.friendGuns {
		if math.Hypot(e.X-g.X, e.Y-g.Y) <= c.doc.GunDangerRadius {
			s += c.doc.ScoreGuardBonus
			break
		}
	}
	s += c.doc.ScoreWounded * (1 - e.HealthRatio())
	if e.FireRange > 0 {
		s += c.doc.ScoreCanFire
	}
	s -= c.doc.ScorePerDistance * math.Hypot(e.X-u.X, e.Y-u.Y)
	return s
}

// bestTarget returns the highest-scoring enemy for the unit, or nil on
// an empty field. Ties keep the earliest-created enemy, which keeps the
// choice deterministic.
func (c *Commander) bestTarget(v fieldView, u *battle.Unit) *battle.Unit {
	var best *battle.Unit
	bestScore := math.Inf(-1)
	for _, e := range v.enemies {
		if s := c.targetScore(v, u, e); s > bestScore {
			best, bestScore = e, s
		}
	}
	return best
}
