package battle

import "math"

const (
	maxExhaustion  = 100.0
	exhaustedRatio = 0.7

	// Slopes of the derived multipliers in the exhaustion ratio.
	exhaustSpeedSlope    = 0.5
	exhaustAccuracySlope = 0.3
	exhaustReloadSlope   = 0.5
)

// updateExhaustion applies the per-tick accumulation or recovery. Moving
// above the rest threshold accrues fatigue (at a reduced rate in COLUMN,
// where the march order carries the load); resting decays toward zero.
// Combat events add their increments separately via addExhaustion.
func updateExhaustion(u *Unit, dt float64, tun ExhaustionTuning) {
	if u.Speed() > tun.SpeedThreshold {
		rate := tun.MoveRate
		if u.Formation == FormationColumn {
			rate *= tun.ColumnFactor
		}
		u.Exhaustion = math.Min(maxExhaustion, u.Exhaustion+rate*dt)
	} else {
		u.Exhaustion = math.Max(0, u.Exhaustion-tun.RecoverRate*dt)
	}
}

// addExhaustion applies an instant combat increment, clamped to [0,100].
func addExhaustion(u *Unit, amount float64) {
	u.Exhaustion = clamp(u.Exhaustion+amount, 0, maxExhaustion)
}

// ExhaustionRatio returns exhaustion as a fraction of the maximum.
func (u *Unit) ExhaustionRatio() float64 {
	return u.Exhaustion / maxExhaustion
}

// ExhaustionSpeedMultiplier degrades linearly to 0.5 at full exhaustion.
func (u *Unit) ExhaustionSpeedMultiplier() float64 {
	return 1 - u.ExhaustionRatio()*exhaustSpeedSlope
}

// ExhaustionAccuracyMultiplier degrades linearly to 0.7 at full exhaustion.
func (u *Unit) ExhaustionAccuracyMultiplier() float64 {
	return 1 - u.ExhaustionRatio()*exhaustAccuracySlope
}

// ExhaustionReloadMultiplier stretches reloads up to 1.5x at full
// exhaustion.
func (u *Unit) ExhaustionReloadMultiplier() float64 {
	return 1 + u.ExhaustionRatio()*exhaustReloadSlope
}

// Exhausted reports the spent state surfaced to observers.
func (u *Unit) Exhausted() bool {
	return u.ExhaustionRatio() > exhaustedRatio
}
