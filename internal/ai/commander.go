package ai

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// Stance is the commander's overall posture. The battle opens with both
// sides dressing their lines and walking to their standoff distances;
// once the opening clock runs out the commander fights the main
// engagement for the rest of the battle.
type Stance int

const (
	StanceOpening Stance = iota
	StanceEngagement
)

func (s Stance) String() string {
	switch s {
	case StanceOpening:
		return "opening_setup"
	case StanceEngagement:
		return "main_engagement"
	default:
		return fmt.Sprintf("stance(%d)", int(s))
	}
}

// Commander runs one side of the battle. Call Think every tick; it only
// spends a decision pass when its cadence is due, so the opponent's
// tempo is bounded no matter the tick rate.
type Commander struct {
	team battle.Team
	doc  Doctrine
	exec *Executor
	log  zerolog.Logger

	stance  Stance
	nextAt  float64
	claimed map[int]bool
}

func NewCommander(team battle.Team, doc Doctrine, log zerolog.Logger) *Commander {
	return &Commander{
		team: team,
		doc:  doc,
		exec: NewExecutor(doc.OrderCooldown),
		log:  log.With().Str("commander", team.String()).Logger(),
	}
}

func (c *Commander) Team() battle.Team { return c.team }
func (c *Commander) Stance() Stance    { return c.stance }

// Think runs one decision pass if the cadence is due and returns the
// orders that were issued. Standing rules claim units first, then the
// current stance shapes the rest. Safe to call every tick.
func (c *Commander) Think(w *battle.World) []Order {
	if w.GameOver() || w.GameTime() < c.nextAt {
		return nil
	}
	c.nextAt = w.GameTime() + c.doc.Cadence

	v := perceive(w, c.team)
	if len(v.friends) == 0 || len(v.enemies) == 0 {
		return nil
	}

	c.claimed = make(map[int]bool)
	for _, r := range standingRules() {
		for _, o := range r.fn(c, v) {
			if c.claimed[o.UnitID] {
				continue
			}
			c.claimed[o.UnitID] = true
			c.exec.Submit(o)
		}
	}

	c.updateStance(w)
	switch c.stance {
	case StanceOpening:
		c.openingOrders(w, v)
	case StanceEngagement:
		c.engagementOrders(v)
	}

	issued := c.exec.Flush(w)
	for _, o := range issued {
		c.log.Debug().
			Int("unit", o.UnitID).
			Stringer("kind", o.Kind).
			Str("reason", o.Reason).
			Msg("order issued")
	}
	return issued
}

// updateStance tips opening into the main engagement once the opening
// clock runs out. There is no way back; a battle that has been joined
// stays joined.
func (c *Commander) updateStance(w *battle.World) {
	if c.stance != StanceOpening || w.GameTime() < c.doc.OpeningDuration {
		return
	}
	c.log.Info().
		Str("from", StanceOpening.String()).
		Str("to", StanceEngagement.String()).
		Float64("game_time", w.GameTime()).
		Msg("stance change")
	c.stance = StanceEngagement
}

// openingOrders dresses loose infantry into line, then walks the dressed
// battalions and the guns to their standoff distances. Cavalry stays in
// reserve until the engagement opens.
func (c *Commander) openingOrders(w *battle.World, v fieldView) {
	var loose, dressed, guns []*battle.Unit
	for _, u := range v.friends {
		if c.claimed[u.ID] {
			continue
		}
		switch u.Type {
		case battle.UnitInfantry:
			if u.Formation == battle.FormationNone {
				loose = append(loose, u)
			} else if u.Formation != battle.FormationSquare {
				dressed = append(dressed, u)
			}
		case battle.UnitCannon:
			if u.TargetID == 0 {
				guns = append(guns, u)
			}
		}
	}

	for _, u := range loose {
		c.exec.Submit(Order{
			UnitID:    u.ID,
			Kind:      OrderFormation,
			Formation: battle.FormationLine,
			Reason:    "dress_the_line",
		})
	}

	wx, wy := standoffPoint(v, c.doc.StandoffRange)
	c.marchGroup(w, dressed, wx, wy, "advance_to_standoff")

	gx, gy := standoffPoint(v, c.doc.GunStandoff)
	c.marchGroup(w, guns, gx, gy, "deploy_the_guns")
}

// engagementOrders keeps idle muskets closing on the enemy, sends free
// cavalry at the highest-scoring prey, and leaves anything already
// shooting or locked in melee alone. A charge waved off by a square
// rallies behind our own mass instead.
func (c *Commander) engagementOrders(v fieldView) {
	for _, u := range v.friends {
		if c.claimed[u.ID] || u.Fleeing || u.MeleeLocked || u.TargetID != 0 {
			continue
		}
		switch u.Type {
		case battle.UnitInfantry:
			if u.Formation == battle.FormationSquare {
				continue
			}
			e := nearest(v.enemies, u.X, u.Y)
			if e == nil || math.Hypot(e.X-u.X, e.Y-u.Y) <= u.FireRange {
				continue
			}
			wx, wy := approachPoint(u, e, c.doc.CloseRatio*u.FireRange)
			if holdsTargetNear(u, wx, wy, c.doc.HoldSlack) {
				continue
			}
			c.exec.Submit(Order{UnitID: u.ID, Kind: OrderMove, X: wx, Y: wy, Reason: "close_to_musketry"})

		case battle.UnitCavalry:
			prey := c.bestTarget(v, u)
			if prey == nil {
				continue
			}
			if prey.Type == battle.UnitInfantry && prey.Formation == battle.FormationSquare {
				rx, ry := c.rallyPoint(v)
				if !holdsTargetNear(u, rx, ry, c.doc.HoldSlack) {
					c.exec.Submit(Order{UnitID: u.ID, Kind: OrderMove, X: rx, Y: ry, Reason: "rally_off_square"})
				}
				continue
			}
			wx, wy := chargePoint(u, prey, c.doc.ChargeOvershoot)
			if holdsTargetNear(u, wx, wy, c.doc.HoldSlack) {
				continue
			}
			c.exec.Submit(Order{UnitID: u.ID, Kind: OrderMove, X: wx, Y: wy, Reason: "charge_home"})

		case battle.UnitCannon:
			e := nearest(v.enemies, u.X, u.Y)
			if e == nil || math.Hypot(e.X-u.X, e.Y-u.Y) <= u.FireRange {
				continue
			}
			wx, wy := approachPoint(u, e, c.doc.GunStandoff)
			if holdsTargetNear(u, wx, wy, c.doc.HoldSlack) {
				continue
			}
			c.exec.Submit(Order{UnitID: u.ID, Kind: OrderMove, X: wx, Y: wy, Reason: "redeploy_the_guns"})
		}
	}
}

// marchGroup plans formation slots for the group on (wx, wy) and stages
// one move order per unit. Per-unit orders keep the executor's cooldown
// and latest-wins semantics while the group still arrives in shape.
func (c *Commander) marchGroup(w *battle.World, units []*battle.Unit, wx, wy float64, reason string) {
	for _, f := range []battle.FormationType{battle.FormationNone, battle.FormationLine, battle.FormationColumn} {
		var sub []*battle.Unit
		for _, u := range units {
			if u.Formation == f {
				sub = append(sub, u)
			}
		}
		if len(sub) == 0 {
			continue
		}
		for _, slot := range battle.PlanFormation(sub, wx, wy, f, w.Tuning().FormationSpacing) {
			if holdsTargetNear(slot.Unit, slot.X, slot.Y, c.doc.HoldSlack) {
				continue
			}
			c.exec.Submit(Order{UnitID: slot.Unit.ID, Kind: OrderMove, X: slot.X, Y: slot.Y, Reason: reason})
		}
	}
}

// rallyPoint is a fall-back position behind our own mass, away from the
// enemy. Riders waved off a square regroup there instead of milling in
// musket range.
func (c *Commander) rallyPoint(v fieldView) (float64, float64) {
	dx, dy := v.fx-v.ex, v.fy-v.ey
	d := math.Hypot(dx, dy)
	if d < 1e-6 {
		return v.fx, v.fy
	}
	return v.fx + dx/d*c.doc.RallyDistance, v.fy + dy/d*c.doc.RallyDistance
}

// standoffPoint is the point at range r from the enemy mass along the
// axis back toward our own mass.
func standoffPoint(v fieldView, r float64) (float64, float64) {
	dx, dy := v.fx-v.ex, v.fy-v.ey
	d := math.Hypot(dx, dy)
	if d < 1e-6 {
		return v.ex, v.ey
	}
	return v.ex + dx/d*r, v.ey + dy/d*r
}

// approachPoint is the point at range r from the prey along the axis
// back toward the unit.
func approachPoint(u, prey *battle.Unit, r float64) (float64, float64) {
	dx, dy := u.X-prey.X, u.Y-prey.Y
	d := math.Hypot(dx, dy)
	if d < 1e-6 {
		return prey.X, prey.Y
	}
	return prey.X + dx/d*r, prey.Y + dy/d*r
}
