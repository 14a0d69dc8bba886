package battle

import (
	"strings"
	"testing"
)

// End-to-end battles driven purely through the command surface, checking
// that the tactical rules compose the way a player would experience them.

func TestScenario_LineOutshootsColumn(t *testing.T) {
	t.Log("=== Test: Line Outshoots Column ===")
	t.Log("--- Setup: 3 red infantry in line vs 3 blue infantry in column, effective musket range ---")

	// 80 paces apart: the middle accuracy band, well short of the
	// extreme-range falloff, so the firefight is decisive.
	tb := NewTestBattle(
		WithSeed(61),
		WithRank(UnitInfantry, TeamRed, 3, 700, 424, 26),
		WithRank(UnitInfantry, TeamBlue, 3, 780, 424, 26),
		WithFormation(FormationLine, 1, 2, 3),
		WithFormation(FormationColumn, 4, 5, 6),
	)

	tick := tb.RunUntil(func(w *World) bool { return w.GameOver() }, 60*60)
	if tick < 0 {
		t.Fatal("firefight should be decided inside a minute")
	}
	t.Logf("battle decided at T=%d (%.1fs)", tick, tb.World.GameTime())
	t.Log(tb.Log.Summary(tb.World.Tick(), tb.World.Units()))

	winner, ok := tb.World.Winner()
	if !ok || winner != TeamRed {
		t.Fatalf("the line should win the firefight, winner=%s ok=%v", winner, ok)
	}
	if n := tb.World.AliveCount(TeamBlue); n != 0 {
		t.Fatalf("blue should be destroyed, %d units left", n)
	}
	// The column masks its own muskets: only the lead unit ever fires, so
	// red wins with most of its strength intact.
	var redStrength float64
	for _, u := range tb.World.Units() {
		if u.Team == TeamRed {
			redStrength += u.EntityCount
		}
	}
	if redStrength < 150 {
		t.Fatalf("red should win comfortably, strength %.0f of 300", redStrength)
	}
	if tb.Log.CountCategory("combat", "volley_hit") == 0 {
		t.Fatal("expected volleys in the log")
	}
	if !tb.Log.HasEntry("state", "game_over", "winner=red") {
		t.Fatal("log should record the red victory")
	}
}

func TestScenario_SquareRepelsCavalryCharge(t *testing.T) {
	t.Log("=== Test: Square Repels Cavalry Charge ===")
	t.Log("--- Setup: red cavalry at full gallop into blue infantry formed in square ---")

	tb := NewTestBattle(
		WithSeed(67),
		WithUnit(UnitCavalry, TeamRed, 400, 450),
		WithUnit(UnitInfantry, TeamBlue, 800, 450),
		WithFormation(FormationSquare, 2),
		WithMoveOrder(850, 450, 1), // ordered through the square, arrives at speed
	)

	tick := tb.RunUntil(func(w *World) bool {
		u := w.UnitByID(1)
		return u == nil || u.Fleeing
	}, 20*60)
	if tick < 0 {
		t.Fatal("the charge should break against the square within 20s")
	}
	t.Logf("cavalry broke at T=%d (%.1fs)", tick, tb.World.GameTime())

	square := tb.World.UnitByID(2)
	if !almostEqual(square.EntityCount, 100) {
		t.Fatalf("the square must be untouched by cavalry, count=%.2f", square.EntityCount)
	}
	cav := tb.World.UnitByID(1)
	if cav == nil || !cav.Fleeing {
		t.Fatal("the mauled cavalry should be fleeing, not destroyed outright")
	}
	if n := tb.Log.CountCategory("combat", "charge_impact"); n != 0 {
		t.Fatalf("a charge into a square never lands, got %d impact entries", n)
	}
	if n := tb.Log.CountCategory("state", "unit_routed"); n != 1 {
		t.Fatalf("expected one rout entry, got %d", n)
	}
	if !tb.Log.HasEntry("formation", "formation_changed", "square") {
		t.Fatal("log should record the square being formed")
	}
}

func TestScenario_BatteryGunsDownCavalry(t *testing.T) {
	t.Log("=== Test: Battery Guns Down Cavalry ===")
	t.Log("--- Setup: red cannon at point blank vs standing blue cavalry ---")

	tb := NewTestBattle(
		WithSeed(71),
		WithUnit(UnitCannon, TeamRed, 100, 450),
		WithUnit(UnitCavalry, TeamBlue, 178, 450),
	)

	tick := tb.RunUntil(func(w *World) bool { return w.GameOver() }, 20*60)
	if tick < 0 {
		t.Fatal("two balls should finish the squadron inside 20s")
	}
	t.Logf("squadron destroyed at T=%d (%.1fs)", tick, tb.World.GameTime())
	t.Log("\n" + tb.Log.Format())

	if winner, ok := tb.World.Winner(); !ok || winner != TeamRed {
		t.Fatalf("expected red victory, winner=%s ok=%v", winner, ok)
	}
	if n := tb.Log.CountCategory("combat", "projectile_launched"); n != 2 {
		t.Fatalf("expected 2 launches before the battle ended, got %d", n)
	}
	if n := tb.Log.CountCategory("combat", "projectile_impact"); n != 2 {
		t.Fatalf("every point blank ball should strike, got %d impacts", n)
	}
	if !tb.Log.HasEntry("combat", "projectile_impact", "ball hits B2") {
		t.Fatal("log should name the struck squadron")
	}
	if n := tb.Log.CountCategory("state", "unit_destroyed"); n != 1 {
		t.Fatalf("expected one destruction entry, got %d", n)
	}
}

func TestScenario_OverwhelmingFirepowerEndsBattle(t *testing.T) {
	t.Log("=== Test: Overwhelming Firepower Ends Battle ===")
	t.Log("--- Setup: 3 red infantry in line vs a lone blue battalion ---")

	tb := NewTestBattle(
		WithSeed(73),
		WithRank(UnitInfantry, TeamRed, 3, 700, 424, 26),
		WithUnit(UnitInfantry, TeamBlue, 820, 450),
		WithFormation(FormationLine, 1, 2, 3),
	)
	rep := NewReporter(1.0)

	for i := 0; i < 30*60 && !tb.World.GameOver(); i++ {
		tb.RunTicks(1)
		rep.Observe(tb.World)
	}
	if !tb.World.GameOver() {
		t.Fatal("three-to-one odds should end the battle in 30s")
	}
	t.Log("\n" + rep.Format())

	out := DetermineOutcome(tb.World)
	if out.Outcome != OutcomeRedVictory {
		t.Fatalf("expected red victory, got %s", out.Outcome)
	}
	if out.BlueUnits != 0 || out.RedUnits != 3 {
		t.Fatalf("unit counts: red=%d blue=%d", out.RedUnits, out.BlueUnits)
	}
	if out.RedStrength < 250 {
		t.Fatalf("a lone battalion cannot trade evenly, red strength %.0f", out.RedStrength)
	}
	if !strings.Contains(out.Description, "red_victory") {
		t.Fatalf("outcome description: %q", out.Description)
	}

	samples := rep.Samples()
	if len(samples) < 8 {
		t.Fatalf("expected at least 8 strength samples, got %d", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Blue.Strength > samples[i-1].Blue.Strength+1e-9 {
			t.Fatalf("blue strength rose between samples %d and %d", i-1, i)
		}
	}
	if last, ok := rep.Latest(); !ok || last.Red.Units != 3 {
		t.Fatalf("latest sample should show red intact, got %+v ok=%v", last, ok)
	}
}

func TestScenario_ForcedMarchWearsTroopsOut(t *testing.T) {
	t.Log("=== Test: Forced March Wears Troops Out ===")
	t.Log("--- Setup: one battalion marched 600 paces, then rested ---")

	tb := NewTestBattle(
		WithSeed(79),
		WithUnit(UnitInfantry, TeamRed, 100, 450),
		WithMoveOrder(700, 450, 1),
	)

	tick := tb.RunUntil(func(w *World) bool {
		return !w.UnitByID(1).HasMoveTarget
	}, 30*60)
	if tick < 0 {
		t.Fatal("march should complete inside 30s")
	}
	u := tb.World.UnitByID(1)
	marched := u.Exhaustion
	t.Logf("march complete at %.1fs, exhaustion %.1f", tb.World.GameTime(), marched)
	if marched < 25 || marched > 40 {
		t.Fatalf("a 600 pace march should cost roughly a third of freshness, got %.1f", marched)
	}
	if u.Exhausted() {
		t.Fatal("one march should not wreck a battalion outright")
	}

	tb.RunSeconds(10)
	rested := u.Exhaustion
	t.Logf("after 10s rest, exhaustion %.1f", rested)
	if diff := marched - rested; diff < 13.9 || diff > 14.1 {
		t.Fatalf("10s rest should recover 14 points, recovered %.2f", diff)
	}
}
