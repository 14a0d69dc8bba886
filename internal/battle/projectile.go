package battle

import "math"

// Projectile is a cannonball in flight. Ballistics are a straight line at
// constant speed; the ball dies when it exceeds its range, leaves the
// field, or enters a hostile unit's collision circle.
type Projectile struct {
	X, Y     float64
	VX, VY   float64
	Team     Team
	Damage   float64
	MaxRange float64
	Traveled float64
}

// advanceProjectiles moves every ball one step and resolves impacts. The
// swept segment from the previous position is tested so a fast ball cannot
// skip through a unit between ticks; the earliest hostile struck along the
// segment consumes the shot.
func (w *World) advanceProjectiles(dt float64) {
	kept := w.projectiles[:0]
	for i := range w.projectiles {
		p := w.projectiles[i]
		px, py := p.X, p.Y
		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.Traveled += math.Hypot(p.VX, p.VY) * dt

		var hit *Unit
		bestT := math.MaxFloat64
		for _, u := range w.units {
			if !u.Alive() || u.Team == p.Team {
				continue
			}
			t, ok := segmentCircleHit(px, py, p.X, p.Y, u.X, u.Y, u.Radius)
			if ok && t < bestT {
				bestT = t
				hit = u
			}
		}
		if hit != nil {
			w.resolver.ResolveProjectileImpact(&p, hit, w.tick)
			continue
		}

		if p.Traveled > p.MaxRange || !w.inField(p.X, p.Y) {
			continue
		}
		kept = append(kept, p)
	}
	w.projectiles = kept
}
