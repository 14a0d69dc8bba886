package battle

// Occlusion identifies what blocked a sight line.
type Occlusion int

const (
	OcclusionNone Occlusion = iota
	OcclusionTerrain
	OcclusionFriendly
)

func (o Occlusion) String() string {
	switch o {
	case OcclusionNone:
		return "none"
	case OcclusionTerrain:
		return "terrain"
	case OcclusionFriendly:
		return "friendly"
	default:
		return "unknown"
	}
}

// TerrainOccluder is the terrain extension point. The open battlefield has
// no terrain; a nil occluder never blocks.
type TerrainOccluder interface {
	// Occludes reports whether the point (x,y) is inside blocking terrain.
	Occludes(x, y float64) bool
}

// SightReport is the outcome of a line-of-sight query.
type SightReport struct {
	Clear     bool
	BlockedBy Occlusion
	Blocker   *Unit // set when BlockedBy == OcclusionFriendly
}

// LineOfSight tests the straight segment from shooter to target.
//
// Terrain is sampled along the ray at sampleStep intervals. Living
// friendlies of the shooter's team (excluding shooter and target) are
// tested by exact circle-segment intersection, pre-filtered by the ray's
// bounding box. The earliest blocking cause along the ray wins; terrain
// wins ties.
func LineOfSight(shooter, target *Unit, units []*Unit, terrain TerrainOccluder, sampleStep float64) SightReport {
	sx, sy := shooter.X, shooter.Y
	tx, ty := target.X, target.Y
	total := dist(sx, sy, tx, ty)
	if total < 1e-9 {
		return SightReport{Clear: true}
	}

	// Earliest friendly occlusion.
	friendlyT := -1.0
	var blocker *Unit
	bounds := segBounds(sx, sy, tx, ty, 0)
	for _, u := range units {
		if u == shooter || u == target || !u.Alive() || u.Team != shooter.Team {
			continue
		}
		if !bounds.containsPadded(u.X, u.Y, u.Radius) {
			continue
		}
		t, hit := segmentCircleHit(sx, sy, tx, ty, u.X, u.Y, u.Radius)
		if !hit {
			continue
		}
		if friendlyT < 0 || t < friendlyT {
			friendlyT = t
			blocker = u
		}
	}

	// Earliest terrain occlusion, walked at the sample step.
	terrainT := -1.0
	if terrain != nil {
		if sampleStep <= 0 {
			sampleStep = 5
		}
		dirX := (tx - sx) / total
		dirY := (ty - sy) / total
		for d := 0.0; d <= total; d += sampleStep {
			if terrain.Occludes(sx+dirX*d, sy+dirY*d) {
				terrainT = d / total
				break
			}
		}
	}

	switch {
	case terrainT < 0 && friendlyT < 0:
		return SightReport{Clear: true}
	case friendlyT < 0 || (terrainT >= 0 && terrainT <= friendlyT):
		return SightReport{BlockedBy: OcclusionTerrain}
	default:
		return SightReport{BlockedBy: OcclusionFriendly, Blocker: blocker}
	}
}

// lineOfSight is the World's internal view of LineOfSight with its own
// registry, terrain, and sample step applied.
func (w *World) lineOfSight(shooter, target *Unit) SightReport {
	return LineOfSight(shooter, target, w.units, w.terrain, w.tun.LOSSampleStep)
}
