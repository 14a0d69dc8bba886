package battle

import "math"

// AccuracyBand is the min-max accuracy drawn for one distance bucket.
type AccuracyBand struct {
	Min float64
	Max float64
}

// UnitProfile holds the per-type base stats applied at creation.
type UnitProfile struct {
	MaxEntityCount float64
	BaseDamage     float64
	MeleeDamage    float64 // per second of contact
	Radius         float64
	FireRange      float64 // 0 = melee only
	MaxSpeed       float64
	TurnRate       float64 // radians per second
	ChargeSpeed    float64 // cavalry charge threshold
	ReloadDuration float64 // seconds
	FireArc        float64 // full arc, radians
}

// ExhaustionTuning groups the fatigue accumulation and recovery rates.
type ExhaustionTuning struct {
	MoveRate       float64 // points per second while moving
	ColumnFactor   float64 // multiplier on MoveRate while in COLUMN
	RecoverRate    float64 // points per second while resting
	VolleyFired    float64 // instant increment on a landed volley (shooter)
	VolleyReceived float64 // instant increment on a landed volley (target)
	MeleeTick      float64 // instant increment per melee resolution
	SpeedThreshold float64 // speeds below this count as resting
}

// Tuning is the immutable configuration value handed to every component at
// construction. Tests construct alternates; there is no global table.
type Tuning struct {
	FieldWidth  float64
	FieldHeight float64

	MaxDeltaTime     float64 // per-tick delta clamp, seconds
	FormationSpacing float64 // slot interval shared by all formation shapes
	LOSSampleStep    float64 // distance between LOS ray samples
	ScanInterval     float64 // seconds between target rescans per unit

	AccelTime         float64 // seconds to reach top speed from rest
	CatchUpDistance   float64 // slot distance beyond which the sprint kicks in
	CatchUpMultiplier float64

	ChargeBonus     float64 // stacked multiplier for a full-gallop charge
	ProjectileSpeed float64

	MusketBands [3]AccuracyBand // short, medium, long
	CannonBands [3]AccuracyBand

	Exhaustion ExhaustionTuning

	Profiles map[UnitType]UnitProfile
}

// DefaultTuning returns the baseline tuning. Callers may adjust the copy
// before constructing a World; the World never mutates it.
func DefaultTuning() Tuning {
	return Tuning{
		FieldWidth:  1600,
		FieldHeight: 900,

		MaxDeltaTime:     0.1,
		FormationSpacing: 26,
		LOSSampleStep:    5,
		ScanInterval:     0.5,

		AccelTime:         1.5,
		CatchUpDistance:   80,
		CatchUpMultiplier: 1.5,

		ChargeBonus:     3.0,
		ProjectileSpeed: 260,

		MusketBands: [3]AccuracyBand{
			{Min: 0.80, Max: 0.90}, // short
			{Min: 0.55, Max: 0.70}, // medium
			{Min: 0.30, Max: 0.45}, // long
		},
		CannonBands: [3]AccuracyBand{
			{Min: 0.60, Max: 0.75},
			{Min: 0.40, Max: 0.55},
			{Min: 0.20, Max: 0.35},
		},

		Exhaustion: ExhaustionTuning{
			MoveRate:       2.2,
			ColumnFactor:   0.5,
			RecoverRate:    1.4,
			VolleyFired:    1.5,
			VolleyReceived: 2.0,
			MeleeTick:      0.8,
			SpeedThreshold: 2.0,
		},

		Profiles: map[UnitType]UnitProfile{
			UnitInfantry: {
				MaxEntityCount: 100,
				BaseDamage:     8,
				MeleeDamage:    6,
				Radius:         12,
				FireRange:      150,
				MaxSpeed:       40,
				TurnRate:       2.5,
				ReloadDuration: 3.0,
				FireArc:        90 * math.Pi / 180,
			},
			UnitCavalry: {
				MaxEntityCount: 60,
				MeleeDamage:    10,
				Radius:         14,
				MaxSpeed:       110,
				TurnRate:       3.0,
				ChargeSpeed:    80,
			},
			UnitCannon: {
				MaxEntityCount: 8,
				BaseDamage:     30,
				MeleeDamage:    2,
				Radius:         10,
				FireRange:      400,
				MaxSpeed:       15,
				TurnRate:       1.2,
				ReloadDuration: 6.0,
				FireArc:        30 * math.Pi / 180,
			},
		},
	}
}

// Fixed combat constants. These are rule semantics rather than tuning:
// the directional ladder, the square rules, and the point-blank and
// extreme-range accuracy overrides behave the same in every battle.
const (
	rearMultiplier  = 3.0
	flankMultiplier = 2.0
	frontMultiplier = 1.0

	rearArc  = 60 * math.Pi / 180  // attack bearing within 60 deg of facing = rear
	flankArc = 120 * math.Pi / 180 // within 120 deg = flank, beyond = front

	pointBlankRatio    = 0.20 // fraction of fire range
	pointBlankAccuracy = 0.95
	extremeRangeRatio  = 0.80
	extremeRangeFactor = 0.10

	cavalrySlaughterFactor = 5.0 // charging cavalry vs non-square infantry
	squareCounterFactor    = 4.0 // square infantry counter vs cavalry
	fullGallopRatio        = 0.99

	momentumRatio  = 1.5 // speed advantage needed for the momentum bonus
	momentumFactor = 1.5

	fleeHealthRatio = 0.30

	attenuationStartRatio = 0.60 // of projectile max range
	attenuationMin        = 0.20
	lineColumnImpactBonus = 1.5
	cannonImpactBonus     = 3.0

	meleeClashInterval = 0.5 // seconds between clash events for one pair
)
