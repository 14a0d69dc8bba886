package battle

import (
	"math"
	"testing"
)

func losUnit(id int, team Team, x, y, radius float64) *Unit {
	return &Unit{
		ID: id, Type: UnitInfantry, Team: team,
		X: x, Y: y, Radius: radius,
		EntityCount: 100, MaxEntityCount: 100,
	}
}

// blockingWall occludes a vertical band of the field.
type blockingWall struct {
	minX, maxX float64
}

func (w blockingWall) Occludes(x, _ float64) bool {
	return x >= w.minX && x <= w.maxX
}

func TestLineOfSight_OpenField(t *testing.T) {
	shooter := losUnit(1, TeamRed, 100, 100, 12)
	target := losUnit(2, TeamBlue, 300, 100, 12)
	rep := LineOfSight(shooter, target, []*Unit{shooter, target}, nil, 5)
	if !rep.Clear {
		t.Fatalf("open field should be clear, blocked by %s", rep.BlockedBy)
	}
}

func TestLineOfSight_FriendlyBlocks(t *testing.T) {
	shooter := losUnit(1, TeamRed, 100, 100, 12)
	friend := losUnit(2, TeamRed, 200, 100, 12)
	target := losUnit(3, TeamBlue, 300, 100, 12)
	rep := LineOfSight(shooter, target, []*Unit{shooter, friend, target}, nil, 5)
	if rep.Clear {
		t.Fatal("friendly on the firing line should block")
	}
	if rep.BlockedBy != OcclusionFriendly {
		t.Fatalf("expected friendly occlusion, got %s", rep.BlockedBy)
	}
	if rep.Blocker != friend {
		t.Fatal("blocker should be the intervening friendly")
	}
}

// The circle test is exact: a friendly grazing the segment edge-on blocks
// even when no sample point would land inside it.
func TestLineOfSight_TangentFriendlyBlocks(t *testing.T) {
	shooter := losUnit(1, TeamRed, 0, 0, 12)
	target := losUnit(3, TeamBlue, 400, 0, 12)
	// Center 11.9 off the segment with radius 12: the overlap window on
	// the segment is ~3 wide, narrower than the 5-unit sample step.
	friend := losUnit(2, TeamRed, 202.5, 11.9, 12)
	rep := LineOfSight(shooter, target, []*Unit{shooter, friend, target}, nil, 5)
	if rep.Clear {
		t.Fatal("tangential friendly overlap should block")
	}

	// Nudged clear of the segment: sight restored.
	friend.Y = 12.1
	rep = LineOfSight(shooter, target, []*Unit{shooter, friend, target}, nil, 5)
	if !rep.Clear {
		t.Fatalf("friendly clear of the segment should not block, got %s", rep.BlockedBy)
	}
}

func TestLineOfSight_EnemyDoesNotBlock(t *testing.T) {
	shooter := losUnit(1, TeamRed, 100, 100, 12)
	enemy := losUnit(2, TeamBlue, 200, 100, 12)
	target := losUnit(3, TeamBlue, 300, 100, 12)
	rep := LineOfSight(shooter, target, []*Unit{shooter, enemy, target}, nil, 5)
	if !rep.Clear {
		t.Fatalf("enemies never mask each other, got %s", rep.BlockedBy)
	}
}

func TestLineOfSight_DeadFriendlyIgnored(t *testing.T) {
	shooter := losUnit(1, TeamRed, 100, 100, 12)
	fallen := losUnit(2, TeamRed, 200, 100, 12)
	fallen.EntityCount = 0
	target := losUnit(3, TeamBlue, 300, 100, 12)
	rep := LineOfSight(shooter, target, []*Unit{shooter, fallen, target}, nil, 5)
	if !rep.Clear {
		t.Fatalf("destroyed units do not block, got %s", rep.BlockedBy)
	}
}

func TestLineOfSight_TerrainBlocks(t *testing.T) {
	shooter := losUnit(1, TeamRed, 100, 100, 12)
	target := losUnit(2, TeamBlue, 300, 100, 12)
	rep := LineOfSight(shooter, target, []*Unit{shooter, target}, blockingWall{minX: 180, maxX: 220}, 5)
	if rep.Clear {
		t.Fatal("terrain band should block")
	}
	if rep.BlockedBy != OcclusionTerrain {
		t.Fatalf("expected terrain occlusion, got %s", rep.BlockedBy)
	}
}

func TestLineOfSight_EarliestBlockerWins(t *testing.T) {
	shooter := losUnit(1, TeamRed, 0, 0, 12)
	near := losUnit(2, TeamRed, 100, 0, 12)
	far := losUnit(3, TeamRed, 300, 0, 12)
	target := losUnit(4, TeamBlue, 400, 0, 12)

	rep := LineOfSight(shooter, target, []*Unit{shooter, near, far, target}, nil, 5)
	if rep.Blocker != near {
		t.Fatalf("expected nearest friendly to be reported, got unit %d", rep.Blocker.ID)
	}

	// Terrain in front of the near friendly takes precedence.
	rep = LineOfSight(shooter, target, []*Unit{shooter, near, far, target}, blockingWall{minX: 40, maxX: 60}, 5)
	if rep.BlockedBy != OcclusionTerrain {
		t.Fatalf("terrain before the friendly should win, got %s", rep.BlockedBy)
	}
}

func TestLineOfSight_ZeroLengthSegment(t *testing.T) {
	shooter := losUnit(1, TeamRed, 100, 100, 12)
	target := losUnit(2, TeamBlue, 100, 100, 12)
	rep := LineOfSight(shooter, target, []*Unit{shooter, target}, nil, 5)
	if !rep.Clear {
		t.Fatal("coincident shooter and target are trivially in sight")
	}
}

func TestSegmentCircleHit_EntryParameter(t *testing.T) {
	// Segment (0,0)->(100,0), circle at (50,0) r=10: entry at t=0.4.
	tt, hit := segmentCircleHit(0, 0, 100, 0, 50, 0, 10)
	if !hit {
		t.Fatal("expected hit")
	}
	if math.Abs(tt-0.4) > 1e-9 {
		t.Fatalf("entry t: expected 0.4, got %.4f", tt)
	}

	if _, hit := segmentCircleHit(0, 0, 100, 0, 50, 20, 10); hit {
		t.Fatal("circle 20 off a segment of halfwidth 10 must miss")
	}

	// Start inside the circle: entry clamps to 0.
	tt, hit = segmentCircleHit(50, 0, 100, 0, 50, 0, 10)
	if !hit || tt != 0 {
		t.Fatalf("start-inside should hit at t=0, got t=%.3f hit=%v", tt, hit)
	}

	// Circle entirely behind the segment start.
	if _, hit := segmentCircleHit(0, 0, 100, 0, -30, 0, 10); hit {
		t.Fatal("circle behind the start must miss")
	}
}

func TestTurnToward_ShorterWay(t *testing.T) {
	// From +170deg toward -170deg: the short way is 20deg across the pi
	// seam, not 340deg back around.
	from := 170 * math.Pi / 180
	want := -170 * math.Pi / 180
	got := turnToward(from, want, 20*math.Pi/180)
	if math.Abs(normalizeAngle(got-want)) > 1e-9 {
		t.Fatalf("one bounded step should land on target, got %.4f", got)
	}

	// Bounded: a small step cannot cover a large turn.
	got = turnToward(0, math.Pi/2, 0.1)
	if math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("turn should be clamped to 0.1, got %.4f", got)
	}
}
