package battle

import (
	"math"
	"math/rand"
)

// Resolver computes volley, melee, and projectile outcomes. It owns the
// only RNG the combat path uses, so a fixed seed replays identically, and
// it reports every outcome through the event bus instead of calling into
// presentation code.
type Resolver struct {
	tun Tuning
	rng *rand.Rand
	bus *EventBus
}

func NewResolver(tun Tuning, rng *rand.Rand, bus *EventBus) *Resolver {
	return &Resolver{tun: tun, rng: rng, bus: bus}
}

// FireOutcome reports one resolved volley. For cannon the volley is a
// launched projectile and Hit stays false until impact.
type FireOutcome struct {
	Hit        bool
	Damage     float64
	Multiplier float64 // directional multiplier applied on hit
	Accuracy   float64 // final accuracy after every modifier
	Projectile *Projectile
}

// ResolveFire resolves one ranged volley from shooter at target.
//
// Accuracy is drawn from the shooter's distance band, scaled by formation
// and exhaustion, then overridden at the extremes: point-blank volleys
// almost always land, shots near maximum range almost never do.
func (r *Resolver) ResolveFire(shooter, target *Unit, tick int) FireOutcome {
	d := shooter.DistanceTo(target)
	ratio := 1.0
	if shooter.FireRange > 0 {
		ratio = d / shooter.FireRange
	}

	bands := r.tun.MusketBands
	if shooter.Type == UnitCannon {
		bands = r.tun.CannonBands
	}
	band := bands[2]
	switch {
	case ratio <= 1.0/3.0:
		band = bands[0]
	case ratio <= 2.0/3.0:
		band = bands[1]
	}

	acc := band.Min + r.rng.Float64()*(band.Max-band.Min)
	acc *= shooter.Mods.Accuracy
	acc *= shooter.ExhaustionAccuracyMultiplier()
	if ratio < pointBlankRatio {
		acc = pointBlankAccuracy
	}
	if ratio > extremeRangeRatio {
		acc *= extremeRangeFactor
	}

	if shooter.Type == UnitCannon {
		p := r.launchBall(shooter, target, acc)
		r.bus.Emit(Event{
			Type: EvtProjectileLaunched, Tick: tick,
			UnitID: shooter.ID, OtherID: target.ID, Team: shooter.Team,
			X: target.X, Y: target.Y,
		})
		return FireOutcome{Accuracy: acc, Projectile: p}
	}

	if r.rng.Float64() >= acc {
		r.bus.Emit(Event{
			Type: EvtVolleyMissed, Tick: tick,
			UnitID: shooter.ID, OtherID: target.ID, Team: shooter.Team,
		})
		return FireOutcome{Accuracy: acc}
	}

	mult := directionalMultiplier(shooter.X, shooter.Y, target)
	dmg := shooter.BaseDamage * shooter.Mods.DamageBonus * mult
	applyDamage(target, dmg)
	addExhaustion(shooter, r.tun.Exhaustion.VolleyFired)
	addExhaustion(target, r.tun.Exhaustion.VolleyReceived)

	r.bus.Emit(Event{
		Type: EvtVolleyHit, Tick: tick,
		UnitID: shooter.ID, OtherID: target.ID, Team: shooter.Team,
		Amount: dmg, Factor: mult,
	})
	return FireOutcome{Hit: true, Damage: dmg, Multiplier: mult, Accuracy: acc}
}

// launchBall spawns a cannonball aimed at the target with angular jitter
// inversely proportional to the computed accuracy.
func (r *Resolver) launchBall(shooter, target *Unit, acc float64) *Projectile {
	const maxJitter = 12 * math.Pi / 180
	aim := headingTo(shooter.X, shooter.Y, target.X, target.Y)
	jitter := (1 - clamp01(acc)) * maxJitter * (r.rng.Float64()*2 - 1)
	dir := aim + jitter
	return &Projectile{
		X:        shooter.X,
		Y:        shooter.Y,
		VX:       math.Cos(dir) * r.tun.ProjectileSpeed,
		VY:       math.Sin(dir) * r.tun.ProjectileSpeed,
		Team:     shooter.Team,
		Damage:   shooter.BaseDamage,
		MaxRange: shooter.FireRange * 1.1,
	}
}

// ResolveMelee applies simultaneous melee damage between two hostile units
// in contact. firstContact marks the tick the lock was established, which
// is when a charge lands.
func (r *Resolver) ResolveMelee(a, b *Unit, dt float64, tick int, firstContact bool) {
	dmgA := a.MeleeDamage * dt * a.Mods.DamageBonus * r.rng.Float64() * 2
	dmgB := b.MeleeDamage * dt * b.Mods.DamageBonus * r.rng.Float64() * 2

	dmgA = r.applyChargeRules(a, b, dmgA, &dmgB, tick, firstContact)
	dmgB = r.applyChargeRules(b, a, dmgB, &dmgA, tick, firstContact)

	dmgA *= directionalMultiplier(a.X, a.Y, b)
	dmgB *= directionalMultiplier(b.X, b.Y, a)

	// Momentum advantage: a side moving at least 50% faster hits harder.
	sa, sb := a.Speed(), b.Speed()
	if sa > 0 && sa >= sb*momentumRatio {
		dmgA *= momentumFactor
	} else if sb > 0 && sb >= sa*momentumRatio {
		dmgB *= momentumFactor
	}

	dmgA *= a.ExhaustionAccuracyMultiplier()
	dmgB *= b.ExhaustionAccuracyMultiplier()

	applyDamage(b, dmgA)
	applyDamage(a, dmgB)
	addExhaustion(a, r.tun.Exhaustion.MeleeTick)
	addExhaustion(b, r.tun.Exhaustion.MeleeTick)

	// Clash cadence: one periodic event per locked pair.
	a.MeleeTimer += dt
	if firstContact || a.MeleeTimer >= meleeClashInterval {
		a.MeleeTimer = 0
		b.MeleeTimer = 0
		r.bus.Emit(Event{
			Type: EvtMeleeClash, Tick: tick,
			UnitID: a.ID, OtherID: b.ID, Team: a.Team,
			Amount: dmgA + dmgB,
			X:      (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2,
		})
	}

	r.checkRout(a, tick)
	r.checkRout(b, tick)
}

// applyChargeRules adjusts the attacker's melee damage for the cavalry
// charge ladder and returns it. counterDmg is the defender's damage, which
// a square amplifies.
func (r *Resolver) applyChargeRules(attacker, defender *Unit, dmg float64, counterDmg *float64, tick int, firstContact bool) float64 {
	if attacker.Type != UnitCavalry || defender.Type != UnitInfantry {
		return dmg
	}

	if defender.Formation == FormationSquare {
		// A wall of bayonets: the charge achieves nothing and the horses
		// pay for it.
		*counterDmg *= squareCounterFactor
		return 0
	}

	speed := attacker.Speed()
	if attacker.ChargeSpeed > 0 && speed >= attacker.ChargeSpeed {
		dmg *= cavalrySlaughterFactor
		if speed >= attacker.MaxSpeed*fullGallopRatio {
			dmg *= r.tun.ChargeBonus
		}
		if firstContact {
			r.bus.Emit(Event{
				Type: EvtChargeImpact, Tick: tick,
				UnitID: attacker.ID, OtherID: defender.ID, Team: attacker.Team,
				Amount: dmg, Factor: cavalrySlaughterFactor,
				X: defender.X, Y: defender.Y,
			})
		}
	}
	return dmg
}

// checkRout sets the one-shot retreat for cavalry dropping below the flee
// threshold: it breaks off toward its own table edge.
func (r *Resolver) checkRout(u *Unit, tick int) {
	if u.Type != UnitCavalry || u.Fleeing || !u.Alive() {
		return
	}
	if u.HealthRatio() >= fleeHealthRatio {
		return
	}
	u.Fleeing = true
	edgeX := 0.0
	if u.Team == TeamBlue {
		edgeX = r.tun.FieldWidth
	}
	u.HasMoveTarget = true
	u.MoveTargetX = edgeX
	u.MoveTargetY = u.Y
	u.TargetID = 0
	r.bus.Emit(Event{
		Type: EvtUnitRouted, Tick: tick,
		UnitID: u.ID, Team: u.Team,
		X: u.X, Y: u.Y,
	})
}

// ResolveProjectileImpact applies a cannonball strike on the first hostile
// unit it entered.
func (r *Resolver) ResolveProjectileImpact(p *Projectile, target *Unit, tick int) {
	dmg := p.Damage
	factor := 1.0
	if p.Traveled > p.MaxRange*attenuationStartRatio {
		// Spent ball: bounce and roll, damage falls off unpredictably.
		factor = attenuationMin + r.rng.Float64()*(1.0-attenuationMin)
		dmg *= factor
	}
	if target.Formation == FormationLine || target.Formation == FormationColumn {
		dmg *= lineColumnImpactBonus
	}
	if target.Type == UnitCannon {
		dmg *= cannonImpactBonus
	}
	applyDamage(target, dmg)
	r.bus.Emit(Event{
		Type: EvtProjectileImpact, Tick: tick,
		UnitID: target.ID, Team: target.Team,
		Amount: dmg, Factor: factor,
		X: p.X, Y: p.Y,
	})
}

// directionalMultiplier returns the damage scaling for the aspect the
// attack arrives from. The attack direction is compared with the
// defender's facing: aligned means the defender is struck from behind.
// Directional defense (square) nullifies the ladder.
func directionalMultiplier(attackerX, attackerY float64, defender *Unit) float64 {
	if defender.Mods.DirectionalDefense {
		return frontMultiplier
	}
	attackDir := headingTo(attackerX, attackerY, defender.X, defender.Y)
	rel := math.Abs(normalizeAngle(attackDir - defender.Facing))
	switch {
	case rel < rearArc:
		return rearMultiplier
	case rel < flankArc:
		return flankMultiplier
	default:
		return frontMultiplier
	}
}

// applyDamage removes entities from the target, scaled by the formation
// vulnerability, and clamps the count at zero.
func applyDamage(target *Unit, dmg float64) {
	if dmg <= 0 {
		return
	}
	dmg *= target.Mods.Vulnerability
	target.EntityCount = math.Max(0, target.EntityCount-dmg)
}
