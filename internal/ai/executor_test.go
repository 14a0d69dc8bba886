package ai

import (
	"testing"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

func TestExecutor_LatestOrderForUnitWins(t *testing.T) {
	tb := battle.NewTestBattle(
		battle.WithUnit(battle.UnitInfantry, battle.TeamRed, 100, 100),
	)
	ex := NewExecutor(2.0)

	ex.Submit(Order{UnitID: 1, Kind: OrderMove, X: 200, Y: 100})
	ex.Submit(Order{UnitID: 1, Kind: OrderMove, X: 400, Y: 300})
	if got := ex.Pending(); got != 1 {
		t.Fatalf("pending orders = %d, want 1 slot per unit", got)
	}

	issued := ex.Flush(tb.World)
	if len(issued) != 1 {
		t.Fatalf("issued %d orders, want 1", len(issued))
	}
	if issued[0].X != 400 || issued[0].Y != 300 {
		t.Fatalf("issued order aims at (%.0f, %.0f), want the later (400, 300)", issued[0].X, issued[0].Y)
	}
	u := tb.World.UnitByID(1)
	if !u.HasMoveTarget || u.MoveTargetX != 400 || u.MoveTargetY != 300 {
		t.Fatalf("unit marches on (%.0f, %.0f), want (400, 300)", u.MoveTargetX, u.MoveTargetY)
	}
}

func TestExecutor_CooldownDropsOrdersOutright(t *testing.T) {
	tb := battle.NewTestBattle(
		battle.WithUnit(battle.UnitInfantry, battle.TeamRed, 100, 100),
	)
	ex := NewExecutor(2.0)

	ex.Submit(Order{UnitID: 1, Kind: OrderMove, X: 200, Y: 100})
	if issued := ex.Flush(tb.World); len(issued) != 1 {
		t.Fatalf("first order issued %d times, want 1", len(issued))
	}

	// Half a second later the unit is still inside its cooldown. The
	// fresh order is discarded, not queued.
	tb.RunTicks(30)
	ex.Submit(Order{UnitID: 1, Kind: OrderMove, X: 600, Y: 100})
	if issued := ex.Flush(tb.World); len(issued) != 0 {
		t.Fatalf("order inside cooldown issued %d times, want 0", len(issued))
	}
	if got := ex.Pending(); got != 0 {
		t.Fatalf("dropped order left %d pending, want 0", got)
	}
	if got := tb.World.UnitByID(1).MoveTargetX; got != 200 {
		t.Fatalf("move target x = %.0f after dropped order, want 200", got)
	}

	// Past the cooldown the next order goes through.
	tb.RunTicks(120)
	ex.Submit(Order{UnitID: 1, Kind: OrderMove, X: 600, Y: 100})
	if issued := ex.Flush(tb.World); len(issued) != 1 {
		t.Fatalf("order after cooldown issued %d times, want 1", len(issued))
	}
	u := tb.World.UnitByID(1)
	if !u.HasMoveTarget || u.MoveTargetX != 600 {
		t.Fatalf("move target x = %.0f after cooldown expired, want 600", u.MoveTargetX)
	}
}

func TestExecutor_FlushIssuesInUnitIDOrder(t *testing.T) {
	tb := battle.NewTestBattle(
		battle.WithUnit(battle.UnitInfantry, battle.TeamRed, 100, 100),
		battle.WithUnit(battle.UnitInfantry, battle.TeamRed, 100, 200),
		battle.WithUnit(battle.UnitInfantry, battle.TeamRed, 100, 300),
	)
	ex := NewExecutor(0)

	for _, id := range []int{3, 1, 2} {
		ex.Submit(Order{UnitID: id, Kind: OrderMove, X: 500, Y: float64(100 * id)})
	}
	issued := ex.Flush(tb.World)
	if len(issued) != 3 {
		t.Fatalf("issued %d orders, want 3", len(issued))
	}
	for i, want := range []int{1, 2, 3} {
		if issued[i].UnitID != want {
			t.Fatalf("issued[%d] for unit %d, want %d", i, issued[i].UnitID, want)
		}
	}
}

func TestExecutor_FormationOrderReachesWorld(t *testing.T) {
	tb := battle.NewTestBattle(
		battle.WithUnit(battle.UnitInfantry, battle.TeamBlue, 800, 450),
	)
	ex := NewExecutor(0)

	ex.Submit(Order{UnitID: 1, Kind: OrderFormation, Formation: battle.FormationSquare})
	if issued := ex.Flush(tb.World); len(issued) != 1 {
		t.Fatalf("issued %d orders, want 1", len(issued))
	}
	if got := tb.World.UnitByID(1).Formation; got != battle.FormationSquare {
		t.Fatalf("formation = %v, want square", got)
	}
}
