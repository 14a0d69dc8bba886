package ai

import (
	"math"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// fieldView is what one commander sees of the battlefield in a single
// decision pass. Slices keep the world's creation order, which keeps
// every pass deterministic for a given battle.
type fieldView struct {
	friends      []*battle.Unit
	friendGuns   []*battle.Unit
	enemies      []*battle.Unit
	enemyCavalry []*battle.Unit // fleeing riders excluded, they are spent

	fx, fy float64 // friendly centroid
	ex, ey float64 // enemy centroid
}

func perceive(w *battle.World, team battle.Team) fieldView {
	var v fieldView
	for _, u := range w.Units() {
		if u.Team == team {
			v.friends = append(v.friends, u)
			if u.Type == battle.UnitCannon {
				v.friendGuns = append(v.friendGuns, u)
			}
			v.fx += u.X
			v.fy += u.Y
			continue
		}
		v.enemies = append(v.enemies, u)
		v.ex += u.X
		v.ey += u.Y
		if u.Type == battle.UnitCavalry && !u.Fleeing {
			v.enemyCavalry = append(v.enemyCavalry, u)
		}
	}
	if n := float64(len(v.friends)); n > 0 {
		v.fx /= n
		v.fy /= n
	}
	if n := float64(len(v.enemies)); n > 0 {
		v.ex /= n
		v.ey /= n
	}
	return v
}

// closestPair returns the smallest friend-to-enemy distance. Infinite on
// an empty side.
func (v fieldView) closestPair() float64 {
	min := math.Inf(1)
	for _, f := range v.friends {
		for _, e := range v.enemies {
			if d := math.Hypot(e.X-f.X, e.Y-f.Y); d < min {
				min = d
			}
		}
	}
	return min
}

// timeToContact is the seconds a rider needs to close on the target at
// full gallop. Acceleration is ignored, which errs on the side of the
// defender forming square early.
func timeToContact(rider, target *battle.Unit) float64 {
	d := math.Hypot(target.X-rider.X, target.Y-rider.Y) - rider.Radius - target.Radius
	if d <= 0 {
		return 0
	}
	if rider.MaxSpeed <= 0 {
		return math.Inf(1)
	}
	return d / rider.MaxSpeed
}

// nearest returns the unit from candidates closest to (x, y), or nil.
func nearest(candidates []*battle.Unit, x, y float64) *battle.Unit {
	var best *battle.Unit
	bestD := math.Inf(1)
	for _, u := range candidates {
		if d := math.Hypot(u.X-x, u.Y-y); d < bestD {
			best = u
			bestD = d
		}
	}
	return best
}

// holdsTargetNear reports whether the unit already marches on a point
// within slack of the wanted one. Re-issuing such an order would only
// burn its order cooldown.
func holdsTargetNear(u *battle.Unit, x, y, slack float64) bool {
	if !u.HasMoveTarget {
		return false
	}
	return math.Hypot(u.MoveTargetX-x, u.MoveTargetY-y) <= slack
}
