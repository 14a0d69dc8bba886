package ai

import (
	"math"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// A rule proposes orders for units facing a situation that outranks
// whatever the current stance would have them do. Rules run in the order
// listed; the first rule to claim a unit keeps it for the whole pass.
type rule struct {
	name string
	fn   func(c *Commander, v fieldView) []Order
}

func standingRules() []rule {
	return []rule{
		{"form_square", ruleFormSquare},
		{"stand_down", ruleStandDown},
		{"screen_the_guns", ruleScreenGuns},
	}
}

// ruleFormSquare puts a battalion into square when enemy cavalry can
// reach it within the doctrine's square-up window.
func ruleFormSquare(c *Commander, v fieldView) []Order {
	if len(v.enemyCavalry) == 0 {
		return nil
	}
	var out []Order
	for _, u := range v.friends {
		if u.Type != battle.UnitInfantry || u.Formation == battle.FormationSquare {
			continue
		}
		for _, cav := range v.enemyCavalry {
			if timeToContact(cav, u) < c.doc.SquareUpTime {
				out = append(out, Order{
					UnitID:    u.ID,
					Kind:      OrderFormation,
					Formation: battle.FormationSquare,
					Reason:    "cavalry_threat",
				})
				break
			}
		}
	}
	return out
}

// ruleStandDown returns a square to line once no cavalry can reach it
// within the stand-down window. The window is wider than the square-up
// one, so a rider circling at the edge cannot make the battalion thrash.
func ruleStandDown(c *Commander, v fieldView) []Order {
	var out []Order
	for _, u := range v.friends {
		if u.Type != battle.UnitInfantry || u.Formation != battle.FormationSquare {
			continue
		}
		threatened := false
		for _, cav := range v.enemyCavalry {
			if timeToContact(cav, u) < c.doc.StandDownTime {
				threatened = true
				break
			}
		}
		if !threatened {
			out = append(out, Order{
				UnitID:    u.ID,
				Kind:      OrderFormation,
				Formation: battle.FormationLine,
				Reason:    "threat_passed",
			})
		}
	}
	return out
}

// ruleScreenGuns guards the batteries. An enemy pressing inside the
// danger radius of an own gun pulls the nearest free rider onto it,
// one rider per gun.
func ruleScreenGuns(c *Commander, v fieldView) []Order {
	if len(v.friendGuns) == 0 {
		return nil
	}
	var riders []*battle.Unit
	for _, u := range v.friends {
		if u.Type == battle.UnitCavalry && !u.Fleeing && !u.MeleeLocked {
			riders = append(riders, u)
		}
	}
	if len(riders) == 0 {
		return nil
	}

	taken := make(map[int]bool)
	var out []Order
	for _, g := range v.friendGuns {
		var threat *battle.Unit
		threatD := c.doc.GunDangerRadius
		for _, e := range v.enemies {
			if d := math.Hypot(e.X-g.X, e.Y-g.Y); d <= threatD {
				threat = e
				threatD = d
			}
		}
		if threat == nil {
			continue
		}

		var rider *battle.Unit
		riderD := math.Inf(1)
		for _, r := range riders {
			if taken[r.ID] {
				continue
			}
			if d := math.Hypot(r.X-g.X, r.Y-g.Y); d < riderD {
				rider = r
				riderD = d
			}
		}
		if rider == nil {
			continue
		}
		taken[rider.ID] = true

		wx, wy := chargePoint(rider, threat, c.doc.ChargeOvershoot)
		if holdsTargetNear(rider, wx, wy, c.doc.HoldSlack) {
			continue
		}
		out = append(out, Order{UnitID: rider.ID, Kind: OrderMove, X: wx, Y: wy, Reason: "screen_the_guns"})
	}
	return out
}

// chargePoint aims a charge through the prey rather than at it, so the
// rider still carries speed on contact.
func chargePoint(rider, prey *battle.Unit, overshoot float64) (float64, float64) {
	dx, dy := prey.X-rider.X, prey.Y-rider.Y
	d := math.Hypot(dx, dy)
	if d < 1e-6 {
		return prey.X, prey.Y
	}
	return prey.X + dx/d*overshoot, prey.Y + dy/d*overshoot
}
