package battle

import (
	"math"
	"testing"
)

func marchingUnit(f FormationType) *Unit {
	p := DefaultTuning().Profiles[UnitInfantry]
	u := &Unit{
		ID: 1, Type: UnitInfantry, Team: TeamRed,
		EntityCount: p.MaxEntityCount, MaxEntityCount: p.MaxEntityCount,
		VX: p.MaxSpeed,
	}
	applyFormation(u, f, p)
	return u
}

func TestExhaustion_AccruesWhileMoving(t *testing.T) {
	tun := DefaultTuning().Exhaustion
	u := marchingUnit(FormationNone)

	prev := u.Exhaustion
	for i := 0; i < 600; i++ {
		updateExhaustion(u, 1.0/60, tun)
		if u.Exhaustion < prev {
			t.Fatalf("exhaustion decreased while marching at tick %d: %.3f -> %.3f", i, prev, u.Exhaustion)
		}
		prev = u.Exhaustion
	}
	want := tun.MoveRate * 10 // 600 ticks at 60Hz
	if math.Abs(u.Exhaustion-want) > 0.01 {
		t.Fatalf("after 10s march: expected %.2f, got %.2f", want, u.Exhaustion)
	}
}

func TestExhaustion_RecoversAtRest(t *testing.T) {
	tun := DefaultTuning().Exhaustion
	u := marchingUnit(FormationNone)
	u.VX = 0
	u.Exhaustion = 50

	for i := 0; i < 600; i++ {
		updateExhaustion(u, 1.0/60, tun)
	}
	want := 50 - tun.RecoverRate*10
	if math.Abs(u.Exhaustion-want) > 0.01 {
		t.Fatalf("after 10s rest: expected %.2f, got %.2f", want, u.Exhaustion)
	}
}

func TestExhaustion_ColumnMarchesCheaper(t *testing.T) {
	tun := DefaultTuning().Exhaustion
	loose := marchingUnit(FormationNone)
	column := marchingUnit(FormationColumn)

	for i := 0; i < 600; i++ {
		updateExhaustion(loose, 1.0/60, tun)
		updateExhaustion(column, 1.0/60, tun)
	}
	if column.Exhaustion >= loose.Exhaustion {
		t.Fatalf("column march should tire slower: column=%.2f loose=%.2f",
			column.Exhaustion, loose.Exhaustion)
	}
	wantRatio := tun.ColumnFactor
	got := column.Exhaustion / loose.Exhaustion
	if math.Abs(got-wantRatio) > 0.01 {
		t.Fatalf("column accrual ratio: expected %.2f, got %.2f", wantRatio, got)
	}
}

func TestExhaustion_Bounded(t *testing.T) {
	tun := DefaultTuning().Exhaustion
	u := marchingUnit(FormationNone)

	for i := 0; i < 10000; i++ {
		updateExhaustion(u, 0.1, tun)
		addExhaustion(u, 5)
		if u.Exhaustion < 0 || u.Exhaustion > 100 {
			t.Fatalf("exhaustion out of bounds: %.3f", u.Exhaustion)
		}
	}
	if u.Exhaustion != 100 {
		t.Fatalf("expected saturation at 100, got %.3f", u.Exhaustion)
	}

	u.VX = 0
	for i := 0; i < 100000; i++ {
		updateExhaustion(u, 0.1, tun)
		if u.Exhaustion < 0 || u.Exhaustion > 100 {
			t.Fatalf("exhaustion out of bounds during recovery: %.3f", u.Exhaustion)
		}
	}
	if u.Exhaustion != 0 {
		t.Fatalf("expected full recovery to 0, got %.3f", u.Exhaustion)
	}
}

func TestExhaustionMultipliers_Slopes(t *testing.T) {
	u := marchingUnit(FormationNone)

	u.Exhaustion = 0
	if u.ExhaustionSpeedMultiplier() != 1 || u.ExhaustionAccuracyMultiplier() != 1 || u.ExhaustionReloadMultiplier() != 1 {
		t.Fatal("fresh unit should have neutral multipliers")
	}

	u.Exhaustion = 100
	if got := u.ExhaustionSpeedMultiplier(); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("speed multiplier at full exhaustion: expected 0.5, got %.3f", got)
	}
	if got := u.ExhaustionAccuracyMultiplier(); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("accuracy multiplier at full exhaustion: expected 0.7, got %.3f", got)
	}
	if got := u.ExhaustionReloadMultiplier(); math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("reload multiplier at full exhaustion: expected 1.5, got %.3f", got)
	}
}

func TestExhausted_ThresholdIsStrict(t *testing.T) {
	u := marchingUnit(FormationNone)
	u.Exhaustion = 70
	if u.Exhausted() {
		t.Fatal("exactly 70 should not count as exhausted")
	}
	u.Exhaustion = 70.5
	if !u.Exhausted() {
		t.Fatal("above 70 should count as exhausted")
	}
}
