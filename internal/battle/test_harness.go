package battle

// TestBattle is a headless battle harness used by tests and the report
// command. It drives a World at a fixed 60Hz step with a battle log
// attached and supports deterministic seeding.
type TestBattle struct {
	World *World
	Log   *BattleLog

	tun     Tuning
	seed    int64
	verbose bool
	dt      float64
}

// battleOptionKind controls the pass in which an option is applied.
type battleOptionKind int

const (
	battleOptInfra battleOptionKind = iota // tuning, seed, verbose — applied first
	battleOptUnit                          // deployments — applied once the world exists
	battleOptOrder                         // formations and march orders — applied last
)

// BattleOption is a builder function applied to a TestBattle during
// construction.
type BattleOption struct {
	kind battleOptionKind
	fn   func(*TestBattle)
}

// WithTuning replaces the whole tuning value.
func WithTuning(tun Tuning) BattleOption {
	return BattleOption{battleOptInfra, func(tb *TestBattle) {
		tb.tun = tun
	}}
}

// WithFieldSize sets the playfield dimensions.
func WithFieldSize(w, h float64) BattleOption {
	return BattleOption{battleOptInfra, func(tb *TestBattle) {
		tb.tun.FieldWidth = w
		tb.tun.FieldHeight = h
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) BattleOption {
	return BattleOption{battleOptInfra, func(tb *TestBattle) {
		tb.seed = seed
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) BattleOption {
	return BattleOption{battleOptInfra, func(tb *TestBattle) {
		tb.verbose = v
	}}
}

// WithUnit deploys one unit. Ids are assigned in option order starting
// at 1, so the first WithUnit is unit 1.
func WithUnit(ut UnitType, team Team, x, y float64) BattleOption {
	return BattleOption{battleOptUnit, func(tb *TestBattle) {
		tb.World.CreateUnit(ut, team, x, y)
	}}
}

// WithRank deploys a file of n units of one type spaced stepY apart.
func WithRank(ut UnitType, team Team, n int, x, y, stepY float64) BattleOption {
	return BattleOption{battleOptUnit, func(tb *TestBattle) {
		for i := 0; i < n; i++ {
			tb.World.CreateUnit(ut, team, x, y+float64(i)*stepY)
		}
	}}
}

// WithFormation puts the given units into a formation through the command
// surface, exactly as a player order would.
func WithFormation(f FormationType, ids ...int) BattleOption {
	return BattleOption{battleOptOrder, func(tb *TestBattle) {
		tb.World.selected = append([]int(nil), ids...)
		tb.World.SetFormationSelected(f)
		tb.World.ClearSelection()
	}}
}

// WithMoveOrder marches the given units on (tx, ty).
func WithMoveOrder(tx, ty float64, ids ...int) BattleOption {
	return BattleOption{battleOptOrder, func(tb *TestBattle) {
		tb.World.selected = append([]int(nil), ids...)
		tb.World.MoveSelected(tx, ty)
		tb.World.ClearSelection()
	}}
}

// NewTestBattle constructs a TestBattle from the given options in three
// ordered passes:
//  1. Infrastructure (tuning, field size, seed, verbose)
//  2. Deployments
//  3. Orders
func NewTestBattle(opts ...BattleOption) *TestBattle {
	tb := &TestBattle{
		tun:  DefaultTuning(),
		seed: 1,
		dt:   1.0 / 60,
	}
	for _, o := range opts {
		if o.kind == battleOptInfra {
			o.fn(tb)
		}
	}
	tb.World = NewWorld(tb.tun, tb.seed)
	tb.Log = NewBattleLog(tb.verbose)
	tb.World.AttachLog(tb.Log)
	for _, o := range opts {
		if o.kind == battleOptUnit {
			o.fn(tb)
		}
	}
	for _, o := range opts {
		if o.kind == battleOptOrder {
			o.fn(tb)
		}
	}
	return tb
}

// RunTicks advances the battle n ticks at the fixed step. Ticks after the
// battle ends are no-ops.
func (tb *TestBattle) RunTicks(n int) {
	for i := 0; i < n; i++ {
		tb.World.Advance(tb.dt)
	}
}

// RunSeconds advances the battle by whole ticks covering s seconds.
func (tb *TestBattle) RunSeconds(s float64) {
	tb.RunTicks(int(s * 60))
}

// RunUntil advances up to maxTicks, stopping early once the predicate
// holds. Returns the tick at which it was satisfied, or -1.
func (tb *TestBattle) RunUntil(predicate func(*World) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		tb.World.Advance(tb.dt)
		if predicate(tb.World) {
			return tb.World.Tick()
		}
	}
	return -1
}
