// Package ai drives the computer opponent. A Commander observes the
// battlefield once per decision interval and issues orders through the
// same command surface a player uses, so the simulation cannot tell the
// two apart. Standing rules (form square, screen the guns) are evaluated
// before the stance logic and win any conflict over a unit.
package ai

// Doctrine is the immutable tuning for one commander. Tests construct
// alternates; a commander never mutates its doctrine.
type Doctrine struct {
	Cadence       float64 // seconds between decision passes
	OrderCooldown float64 // seconds a unit ignores further orders after one

	// OpeningDuration is the elapsed game time at which the commander
	// tips from the opening setup into the main engagement. The clock,
	// not contact, decides; a cautious enemy cannot stall the attack.
	OpeningDuration float64

	// Square hysteresis. A battalion forms square when enemy cavalry can
	// strike within SquareUpTime, and stands down only once no cavalry
	// can strike within StandDownTime. The gap prevents stance thrash
	// while riders circle at the boundary.
	SquareUpTime  float64
	StandDownTime float64

	// GunDangerRadius is how close an enemy may press to an own battery
	// before the nearest free rider is pulled onto it.
	GunDangerRadius float64

	// Halt distances from the enemy mass. Both sit inside the medium
	// accuracy band of the arm in question; parking at the edge of range
	// wastes powder.
	StandoffRange float64
	GunStandoff   float64

	CloseRatio      float64 // engagement approach halts at this fraction of fire range
	ChargeOvershoot float64 // how far beyond the prey a charge is aimed
	RallyDistance   float64 // pull-back behind our own mass for a charge waved off by a square
	HoldSlack       float64 // an existing move target this close to the wanted one is kept

	// Target scoring weights. A charge goes to the highest-scoring
	// enemy: score = type value + guard bonus if the enemy presses a
	// battery + wounded bonus scaled by lost strength + can-fire bonus,
	// less the distance penalty.
	ScoreCannon      float64
	ScoreInfantry    float64
	ScoreCavalry     float64
	ScoreGuardBonus  float64
	ScoreWounded     float64
	ScoreCanFire     float64
	ScorePerDistance float64
}

// DefaultDoctrine returns the baseline opponent doctrine.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Cadence:       0.5,
		OrderCooldown: 2.0,

		OpeningDuration: 20,

		SquareUpTime:  3.0,
		StandDownTime: 6.0,

		GunDangerRadius: 160,

		StandoffRange: 95,
		GunStandoff:   260,

		CloseRatio:      0.6,
		ChargeOvershoot: 60,
		RallyDistance:   120,
		HoldSlack:       20,

		ScoreCannon:      100,
		ScoreInfantry:    60,
		ScoreCavalry:     40,
		ScoreGuardBonus:  80,
		ScoreWounded:     50,
		ScoreCanFire:     25,
		ScorePerDistance: 0.1,
	}
}
