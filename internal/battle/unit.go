package battle

import (
	"math"
	"strconv"
)

// --- Team ---

// Team identifies which side a unit fights for.
type Team int

const (
	TeamRed Team = iota
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// --- Unit Type ---

// UnitType classifies a unit's movement and combat behavior.
type UnitType int

const (
	UnitInfantry UnitType = iota
	UnitCavalry
	UnitCannon
)

func (ut UnitType) String() string {
	switch ut {
	case UnitInfantry:
		return "infantry"
	case UnitCavalry:
		return "cavalry"
	case UnitCannon:
		return "cannon"
	default:
		return "unknown"
	}
}

// Ranged reports whether this type fights at range. Cavalry is melee-only.
func (ut UnitType) Ranged() bool {
	return ut == UnitInfantry || ut == UnitCannon
}

// --- Unit ---

// Unit is one fighting element: an infantry battalion, a cavalry squadron,
// or a gun battery. Health is an entity count (men or crewed guns) and is
// continuous; a unit is dead exactly when the count reaches zero.
//
// Fields are read-only outside this package. Collaborators (AI, input,
// network) mutate simulation state only through the World command surface
// or the snapshot merge path.
type Unit struct {
	ID   int
	Type UnitType
	Team Team

	X, Y   float64
	VX, VY float64
	Facing float64 // radians, 0 = +x

	HasMoveTarget bool
	MoveTargetX   float64
	MoveTargetY   float64

	EntityCount    float64 // clamped >= 0
	MaxEntityCount float64
	BaseDamage     float64 // entities removed per landed volley, before modifiers
	MeleeDamage    float64 // entities removed per second of melee contact, before modifiers
	Radius         float64
	FireRange      float64 // 0 = melee only
	MaxSpeed       float64
	TurnRate       float64 // radians per second
	ChargeSpeed    float64 // cavalry: minimum speed for a decisive charge

	Reloading      bool
	ReloadProgress float64 // [0,1]
	ReloadDuration float64 // seconds, before exhaustion scaling

	// TargetID is a weak reference: the target is looked up by id on every
	// use and cleared if the unit behind it is gone.
	TargetID int     // 0 = none
	FireArc  float64 // full arc width in radians, facing-relative

	Formation FormationType
	Mods      FormationMods

	Exhaustion float64 // [0,100]

	MeleeLocked bool    // true only while in hostile contact this tick
	MeleeTimer  float64 // drives the periodic clash cadence
	Fleeing     bool    // cavalry below the flee threshold retreats once

	// NextScanAt is the game-time second at which this unit's next target
	// rescan is due. Scheduled on creation and on target loss.
	NextScanAt float64
}

// Alive reports whether the unit is still on the field.
func (u *Unit) Alive() bool {
	return u.EntityCount > 0
}

// Speed returns the current scalar speed.
func (u *Unit) Speed() float64 {
	return math.Hypot(u.VX, u.VY)
}

// HealthRatio returns remaining entities as a fraction of the maximum.
func (u *Unit) HealthRatio() float64 {
	if u.MaxEntityCount <= 0 {
		return 0
	}
	return u.EntityCount / u.MaxEntityCount
}

// DistanceTo returns the distance between unit centers.
func (u *Unit) DistanceTo(o *Unit) float64 {
	return math.Hypot(o.X-u.X, o.Y-u.Y)
}

// InFireArc reports whether the point (tx,ty) lies inside the unit's
// facing-relative fire arc.
func (u *Unit) InFireArc(tx, ty float64) bool {
	if u.FireArc >= 2*math.Pi {
		return true
	}
	bearing := math.Atan2(ty-u.Y, tx-u.X)
	diff := normalizeAngle(bearing - u.Facing)
	return math.Abs(diff) <= u.FireArc/2
}

// Label returns a short identifier for logs, e.g. "R3" or "B12".
func (u *Unit) Label() string {
	prefix := "R"
	if u.Team == TeamBlue {
		prefix = "B"
	}
	return prefix + strconv.Itoa(u.ID)
}
