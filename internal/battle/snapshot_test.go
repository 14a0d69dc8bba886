package battle

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

// hostBattle evolves a battle with volleys, a march, and a ball in flight,
// then pauses at a tick where a projectile is mid-air.
func hostBattle(t *testing.T) *World {
	t.Helper()
	tb := NewTestBattle(
		WithSeed(12),
		WithUnit(UnitCannon, TeamRed, 100, 450),
		WithUnit(UnitInfantry, TeamRed, 300, 380), // off the gun line
		WithUnit(UnitInfantry, TeamBlue, 430, 420),
		WithUnit(UnitCavalry, TeamBlue, 500, 600),
		WithMoveOrder(520, 600, 4),
	)
	if tick := tb.RunUntil(func(w *World) bool {
		return len(w.Projectiles()) > 0
	}, 600); tick < 0 {
		t.Fatal("no ball in flight within 10s")
	}
	return tb.World
}

func TestSnapshot_ApplyRoundTripIsExact(t *testing.T) {
	host := hostBattle(t)
	guest := NewWorld(host.Tuning(), 777) // different seed, state comes from the wire

	guest.ApplySnapshot(host.Snapshot())

	if !reflect.DeepEqual(host.Snapshot(), guest.Snapshot()) {
		t.Fatal("guest snapshot should match the host exactly after a merge")
	}
	if guest.Tick() != host.Tick() || guest.GameTime() != host.GameTime() {
		t.Fatalf("clock not adopted: tick %d/%d time %.3f/%.3f",
			guest.Tick(), host.Tick(), guest.GameTime(), host.GameTime())
	}
}

func TestSnapshot_SurvivesJSON(t *testing.T) {
	s := hostBattle(t).Snapshot()

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(s, back) {
		t.Fatal("snapshot must survive the wire bit for bit")
	}
}

func TestApplySnapshot_RemovesAbsentUnits(t *testing.T) {
	host := NewWorld(DefaultTuning(), 1)
	host.CreateUnit(UnitInfantry, TeamRed, 300, 450)

	guest := NewWorld(DefaultTuning(), 2)
	guest.RestoreUnit(1, UnitInfantry, TeamRed, 300, 450, 0)
	guest.RestoreUnit(9, UnitInfantry, TeamBlue, 1200, 450, math.Pi) // host never saw this one
	guest.SelectUnitAt(1200, 450, TeamBlue)

	guest.ApplySnapshot(host.Snapshot())

	if guest.UnitByID(9) != nil {
		t.Fatal("units absent from the authoritative snapshot must be removed")
	}
	if n := len(guest.Units()); n != 1 {
		t.Fatalf("expected 1 unit after merge, got %d", n)
	}
	if ids := guest.SelectedIDs(); len(ids) != 0 {
		t.Fatalf("selection must drop merged-away units, got %v", ids)
	}
}

func TestApplySnapshot_CreatesUnknownUnits(t *testing.T) {
	host := NewWorld(DefaultTuning(), 1)
	id := host.CreateUnit(UnitInfantry, TeamBlue, 1100, 300)
	host.SelectUnitAt(1100, 300, TeamBlue)
	host.SetFormationSelected(FormationSquare)

	guest := NewWorld(DefaultTuning(), 2)
	guest.ApplySnapshot(host.Snapshot())

	u := guest.UnitByID(id)
	if u == nil {
		t.Fatal("unknown unit in snapshot should be created")
	}
	if u.EntityCount != 100 || u.Team != TeamBlue {
		t.Fatalf("restored unit state wrong: count=%.0f team=%s", u.EntityCount, u.Team)
	}
	// Modifiers are not on the wire; the merge re-derives them.
	if u.Formation != FormationSquare || !u.Mods.DirectionalDefense {
		t.Fatalf("square modifiers not re-derived: formation=%s directional=%v",
			u.Formation, u.Mods.DirectionalDefense)
	}
	if u.Mods.CavalryDefense != 3.0 || u.FireArc != 2*math.Pi {
		t.Fatalf("square modifiers not re-derived: cavdef=%.1f arc=%.2f",
			u.Mods.CavalryDefense, u.FireArc)
	}
}

func TestApplySnapshot_OverwritesLocalDrift(t *testing.T) {
	host := hostBattle(t)

	// A guest that predicted ahead on its own diverges; the next
	// authoritative frame pulls it back.
	guest := NewWorld(host.Tuning(), 777)
	guest.ApplySnapshot(host.Snapshot())
	for i := 0; i < 30; i++ {
		guest.Advance(1.0 / 60)
	}
	if reflect.DeepEqual(host.Snapshot(), guest.Snapshot()) {
		t.Fatal("prediction should have drifted in half a second")
	}

	guest.ApplySnapshot(host.Snapshot())
	if !reflect.DeepEqual(host.Snapshot(), guest.Snapshot()) {
		t.Fatal("authoritative merge should erase local drift")
	}
}

func TestApplySnapshot_AdoptsEnding(t *testing.T) {
	host := NewWorld(DefaultTuning(), 1)
	host.CreateUnit(UnitInfantry, TeamRed, 300, 450)
	blue := host.CreateUnit(UnitInfantry, TeamBlue, 1300, 450)
	host.UnitByID(blue).EntityCount = 0
	host.Advance(1.0 / 60)

	guest := NewWorld(DefaultTuning(), 2)
	guest.ApplySnapshot(host.Snapshot())

	if !guest.GameOver() {
		t.Fatal("guest should adopt the ended battle")
	}
	if winner, ok := guest.Winner(); !ok || winner != TeamRed {
		t.Fatalf("guest winner: expected red, got %s ok=%v", winner, ok)
	}
}
