package battle

import (
	"math"
	"math/rand"
)

// contactSlack keeps two circles resting against each other inside melee
// contact after push-back resolves their penetration, so a locked pair
// does not flicker in and out of the lock at the tangent point.
const contactSlack = 1.5

// World owns every unit, projectile, and rule object in one battle. All
// mutation goes through the command surface below, and the caller drives
// time by calling Advance once per tick. A World is not safe for
// concurrent use; the sync layer serializes access around it.
type World struct {
	tun  Tuning
	seed int64
	rng  *rand.Rand

	units  []*Unit // stable creation order, every phase iterates this
	byID   map[int]*Unit
	nextID int

	projectiles []Projectile
	selected    []int

	terrain TerrainOccluder

	tick     int
	gameTime float64

	// Units ever created per side. The victory check only arms once both
	// sides have deployed.
	deployedRed  int
	deployedBlue int

	gameOver  bool
	hasWinner bool
	winner    Team

	bus      *EventBus
	resolver *Resolver
	log      *BattleLog
}

// NewWorld builds an empty battlefield. The same tuning and seed always
// produce the same battle for the same command sequence.
func NewWorld(tun Tuning, seed int64) *World {
	w := &World{
		tun:    tun,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
		byID:   make(map[int]*Unit),
		nextID: 1,
		bus:    NewEventBus(),
	}
	w.resolver = NewResolver(tun, w.rng, w.bus)
	return w
}

// Events exposes the bus for renderer, audio, log, and test subscribers.
func (w *World) Events() *EventBus { return w.bus }

// AttachLog subscribes a battle log to every domain event.
func (w *World) AttachLog(bl *BattleLog) {
	w.log = bl
	bl.recordEvents(w.bus, w)
}

// Log returns the attached battle log, or nil.
func (w *World) Log() *BattleLog { return w.log }

// SetTerrain installs a terrain occluder for line of sight checks.
// Nil means open ground.
func (w *World) SetTerrain(t TerrainOccluder) { w.terrain = t }

// Tuning returns the configuration the world was built with. Callers must
// treat it as read-only.
func (w *World) Tuning() Tuning { return w.tun }

// Units returns the live unit list in creation order. Callers must not
// mutate it.
func (w *World) Units() []*Unit { return w.units }

// UnitByID returns the living unit with the given id, or nil.
func (w *World) UnitByID(id int) *Unit { return w.byID[id] }

// Projectiles returns the balls currently in flight.
func (w *World) Projectiles() []Projectile { return w.projectiles }

func (w *World) Tick() int         { return w.tick }
func (w *World) GameTime() float64 { return w.gameTime }
func (w *World) GameOver() bool    { return w.gameOver }

// Winner reports the winning team. The bool is false while the battle is
// running and after a mutual annihilation.
func (w *World) Winner() (Team, bool) { return w.winner, w.hasWinner }

// AliveCount returns the number of living units on a team.
func (w *World) AliveCount(team Team) int {
	n := 0
	for _, u := range w.units {
		if u.Team == team && u.Alive() {
			n++
		}
	}
	return n
}

func (w *World) inField(x, y float64) bool {
	return x >= 0 && x <= w.tun.FieldWidth && y >= 0 && y <= w.tun.FieldHeight
}

// DefaultFacing points a fresh unit at the enemy side of the field.
func DefaultFacing(team Team) float64 {
	if team == TeamBlue {
		return math.Pi
	}
	return 0
}

// CreateUnit deploys a new unit and returns its id. Ids are never reused
// within a battle.
func (w *World) CreateUnit(ut UnitType, team Team, x, y float64) int {
	id := w.nextID
	w.nextID++
	w.spawn(id, ut, team, x, y, DefaultFacing(team))
	return id
}

// RestoreUnit deploys a unit under an externally assigned id, as the sync
// layer does when replaying a remote deployment. It returns false if the
// id is taken, which makes redelivered deployments a no-op.
func (w *World) RestoreUnit(id int, ut UnitType, team Team, x, y, facing float64) bool {
	if id <= 0 || w.byID[id] != nil {
		return false
	}
	if id >= w.nextID {
		w.nextID = id + 1
	}
	w.spawn(id, ut, team, x, y, facing)
	return true
}

func (w *World) spawn(id int, ut UnitType, team Team, x, y, facing float64) *Unit {
	p := w.tun.Profiles[ut]
	u := &Unit{
		ID:   id,
		Type: ut,
		Team: team,

		X:      clamp(x, p.Radius, w.tun.FieldWidth-p.Radius),
		Y:      clamp(y, p.Radius, w.tun.FieldHeight-p.Radius),
		Facing: normalizeAngle(facing),

		EntityCount:    p.MaxEntityCount,
		MaxEntityCount: p.MaxEntityCount,
		BaseDamage:     p.BaseDamage,
		MeleeDamage:    p.MeleeDamage,
		Radius:         p.Radius,
		FireRange:      p.FireRange,
		MaxSpeed:       p.MaxSpeed,
		TurnRate:       p.TurnRate,
		ChargeSpeed:    p.ChargeSpeed,
		ReloadDuration: p.ReloadDuration,

		// Stagger the first scan so batch deployments do not all rescan
		// on the same tick.
		NextScanAt: w.gameTime + w.rng.Float64()*w.tun.ScanInterval,
	}
	applyFormation(u, FormationNone, p)

	w.units = append(w.units, u)
	w.byID[id] = u
	if team == TeamRed {
		w.deployedRed++
	} else {
		w.deployedBlue++
	}
	w.bus.Emit(Event{Type: EvtUnitCreated, Tick: w.tick, UnitID: id, Team: team, X: u.X, Y: u.Y})
	return u
}

// SelectUnitAt selects the topmost living unit of the team under the
// point. A miss clears the selection and returns false.
func (w *World) SelectUnitAt(x, y float64, team Team) bool {
	for i := len(w.units) - 1; i >= 0; i-- {
		u := w.units[i]
		if !u.Alive() || u.Team != team {
			continue
		}
		if dist(x, y, u.X, u.Y) <= u.Radius {
			w.selected = []int{u.ID}
			return true
		}
	}
	w.selected = nil
	return false
}

// SelectUnitsInBox selects every living unit of the team whose center
// lies in the rectangle and returns how many were selected. Corners may
// be given in any order.
func (w *World) SelectUnitsInBox(x1, y1, x2, y2 float64, team Team) int {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	w.selected = nil
	for _, u := range w.units {
		if !u.Alive() || u.Team != team {
			continue
		}
		if u.X >= x1 && u.X <= x2 && u.Y >= y1 && u.Y <= y2 {
			w.selected = append(w.selected, u.ID)
		}
	}
	return len(w.selected)
}

// ClearSelection empties the selection.
func (w *World) ClearSelection() { w.selected = nil }

// SelectedIDs returns a copy of the selected unit ids.
func (w *World) SelectedIDs() []int {
	out := make([]int, len(w.selected))
	copy(out, w.selected)
	return out
}

// livingUnits resolves ids to living units, skipping the rest.
func (w *World) livingUnits(ids []int) []*Unit {
	out := make([]*Unit, 0, len(ids))
	for _, id := range ids {
		if u := w.byID[id]; u != nil && u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// MoveSelected orders the selection to march on (tx, ty).
func (w *World) MoveSelected(tx, ty float64) {
	w.OrderMove(w.selected, tx, ty)
}

// OrderMove orders the given units to march on (tx, ty). Units in square
// hold their ground. The rest are grouped by their current formation and
// each group gets planned slots, so a mixed group keeps every shape
// intact on arrival. Dead and unknown ids are skipped. This is the
// command surface shared by the player, the computer opponent, and the
// sync layer.
func (w *World) OrderMove(ids []int, tx, ty float64) {
	group := w.livingUnits(ids)
	if len(group) == 0 {
		return
	}
	for _, f := range []FormationType{FormationNone, FormationLine, FormationColumn} {
		var sub []*Unit
		for _, u := range group {
			if u.Formation == f {
				sub = append(sub, u)
			}
		}
		if len(sub) == 0 {
			continue
		}
		for _, slot := range PlanFormation(sub, tx, ty, f, w.tun.FormationSpacing) {
			slot.Unit.HasMoveTarget = true
			slot.Unit.MoveTargetX = slot.X
			slot.Unit.MoveTargetY = slot.Y
		}
	}
}

// SetFormationSelected switches the selected infantry to formation f.
func (w *World) SetFormationSelected(f FormationType) {
	w.OrderFormation(w.selected, f)
}

// OrderFormation switches the given infantry to formation f and
// re-derives their modifiers. Cavalry and guns take no formations and are
// skipped. A square is assumed where the men stand, so square orders halt
// the group instead of repositioning it. Other shapes dress their slots
// just ahead of the group's present centroid.
func (w *World) OrderFormation(ids []int, f FormationType) {
	var group []*Unit
	for _, u := range w.livingUnits(ids) {
		if u.Type == UnitInfantry {
			group = append(group, u)
		}
	}
	if len(group) == 0 {
		return
	}
	for _, u := range group {
		if u.Formation != f {
			w.bus.Emit(Event{
				Type: EvtFormationChanged, Tick: w.tick,
				UnitID: u.ID, Team: u.Team, Amount: float64(f),
			})
		}
		applyFormation(u, f, w.tun.Profiles[u.Type])
	}

	if f == FormationSquare {
		for _, u := range group {
			u.HasMoveTarget = false
		}
		return
	}

	cx, cy := centroid(group)
	fx, fy := meanFacingVector(group)
	tx := cx + fx*w.tun.FormationSpacing
	ty := cy + fy*w.tun.FormationSpacing
	for _, slot := range PlanFormation(group, tx, ty, f, w.tun.FormationSpacing) {
		slot.Unit.HasMoveTarget = true
		slot.Unit.MoveTargetX = slot.X
		slot.Unit.MoveTargetY = slot.Y
	}
}

// Restart clears the field back to an empty deployment state. The RNG is
// reseeded so a restarted battle with identical orders replays
// identically.
func (w *World) Restart() {
	w.units = nil
	w.byID = make(map[int]*Unit)
	w.projectiles = nil
	w.selected = nil
	w.nextID = 1
	w.tick = 0
	w.gameTime = 0
	w.deployedRed = 0
	w.deployedBlue = 0
	w.gameOver = false
	w.hasWinner = false
	w.rng = rand.New(rand.NewSource(w.seed))
	w.resolver = NewResolver(w.tun, w.rng, w.bus)
}

// Advance steps the battle by dt seconds. The delta is clamped so a
// stalled caller cannot produce one tunnelling super-step. Phases run in
// a fixed order over the whole field; events queued during the tick are
// dispatched at the end, after dead units have been removed.
func (w *World) Advance(dt float64) {
	if w.gameOver || dt <= 0 {
		return
	}
	if dt > w.tun.MaxDeltaTime {
		dt = w.tun.MaxDeltaTime
	}
	w.tick++
	w.gameTime += dt

	for _, u := range w.units {
		w.stepUnit(u, dt)
	}
	for _, u := range w.units {
		w.updateReload(u, dt)
	}
	for _, u := range w.units {
		updateExhaustion(u, dt, w.tun.Exhaustion)
	}
	for _, u := range w.units {
		w.updateTargeting(u)
	}
	w.advanceProjectiles(dt)
	for _, u := range w.units {
		w.updateFire(u)
	}
	w.resolveContacts(dt)
	w.removeDead()
	w.checkVictory()

	w.bus.Dispatch()
}

// stepUnit integrates one unit's motion. Units accelerate along their
// facing, so a turn costs ground. Melee-locked units fight where they
// stand unless they are fleeing.
func (w *World) stepUnit(u *Unit, dt float64) {
	accel := u.MaxSpeed / w.tun.AccelTime

	moving := u.HasMoveTarget && (!u.MeleeLocked || u.Fleeing)
	if moving {
		d := dist(u.X, u.Y, u.MoveTargetX, u.MoveTargetY)
		arrive := math.Max(2, u.Speed()*dt)
		if d <= arrive {
			// Halt on the slot instead of sliding through it.
			u.HasMoveTarget = false
			u.VX, u.VY = 0, 0
			moving = false
		}
	}

	if moving {
		want := headingTo(u.X, u.Y, u.MoveTargetX, u.MoveTargetY)
		u.Facing = turnToward(u.Facing, want, u.TurnRate*dt)

		effMax := u.MaxSpeed * u.Mods.Speed * u.ExhaustionSpeedMultiplier()
		if u.Formation != FormationNone &&
			dist(u.X, u.Y, u.MoveTargetX, u.MoveTargetY) > w.tun.CatchUpDistance {
			// Straggler sprint: close the gap to the assigned slot.
			effMax *= w.tun.CatchUpMultiplier
		}
		speed := math.Min(effMax, u.Speed()+accel*dt)
		if speed < 0 {
			speed = 0
		}
		u.VX = math.Cos(u.Facing) * speed
		u.VY = math.Sin(u.Facing) * speed
	} else {
		speed := math.Max(0, u.Speed()-accel*dt)
		if speed > 0 {
			dir := math.Atan2(u.VY, u.VX)
			u.VX = math.Cos(dir) * speed
			u.VY = math.Sin(dir) * speed
		} else {
			u.VX, u.VY = 0, 0
		}
		// An idle shooter swings its guns onto the target it holds.
		if !u.MeleeLocked && u.TargetID != 0 {
			if t := w.byID[u.TargetID]; t != nil && t.Alive() {
				u.Facing = turnToward(u.Facing, headingTo(u.X, u.Y, t.X, t.Y), u.TurnRate*dt)
			}
		}
	}

	u.X = clamp(u.X+u.VX*dt, u.Radius, w.tun.FieldWidth-u.Radius)
	u.Y = clamp(u.Y+u.VY*dt, u.Radius, w.tun.FieldHeight-u.Radius)
}

// updateReload advances an in-progress reload. The effective duration is
// re-derived every tick, so easing exhaustion shortens the tail end of a
// reload that began tired.
func (w *World) updateReload(u *Unit, dt float64) {
	if !u.Reloading {
		return
	}
	d := u.ReloadDuration * u.Mods.ReloadTime * u.ExhaustionReloadMultiplier()
	if d <= 0 {
		u.Reloading = false
		u.ReloadProgress = 0
		return
	}
	u.ReloadProgress += dt / d
	if u.ReloadProgress >= 1 {
		u.Reloading = false
		u.ReloadProgress = 0
	}
}

// updateTargeting validates the held target against range, arc, and line
// of sight, and runs the scheduled rescan when due. Losing a target makes
// the rescan due immediately.
func (w *World) updateTargeting(u *Unit) {
	if !u.Type.Ranged() || u.Fleeing {
		u.TargetID = 0
		return
	}
	if u.TargetID != 0 && !w.validTarget(u, w.byID[u.TargetID]) {
		u.TargetID = 0
		u.NextScanAt = w.gameTime
	}
	if u.TargetID == 0 && w.gameTime >= u.NextScanAt {
		u.NextScanAt = w.gameTime + w.tun.ScanInterval
		u.TargetID = w.scanForTarget(u)
	}
}

func (w *World) validTarget(u, t *Unit) bool {
	if t == nil || !t.Alive() || t.Team == u.Team {
		return false
	}
	if u.DistanceTo(t) > u.FireRange || !u.InFireArc(t.X, t.Y) {
		return false
	}
	return w.lineOfSight(u, t).Clear
}

// scanForTarget returns the nearest living enemy in range, in arc, and in
// sight, or 0. Distance is checked before sight so the ray walk only runs
// for plausible candidates.
func (w *World) scanForTarget(u *Unit) int {
	bestID := 0
	bestDist := math.MaxFloat64
	for _, t := range w.units {
		if t.Team == u.Team || !t.Alive() {
			continue
		}
		d := u.DistanceTo(t)
		if d > u.FireRange || d >= bestDist {
			continue
		}
		if !u.InFireArc(t.X, t.Y) || !w.lineOfSight(u, t).Clear {
			continue
		}
		bestDist = d
		bestID = t.ID
	}
	return bestID
}

// updateFire lets a loaded shooter volley at its held target. The target
// is re-checked here because a projectile earlier in the same tick may
// have destroyed it.
func (w *World) updateFire(u *Unit) {
	if !u.Type.Ranged() || u.Reloading || u.Fleeing || u.TargetID == 0 {
		return
	}
	t := w.byID[u.TargetID]
	if t == nil || !t.Alive() {
		u.TargetID = 0
		return
	}
	out := w.resolver.ResolveFire(u, t, w.tick)
	if out.Projectile != nil {
		w.projectiles = append(w.projectiles, *out.Projectile)
	}
	u.Reloading = true
	u.ReloadProgress = 0
}

// resolveContacts finds every touching pair, resolves melee for hostile
// ones, and pushes penetrating circles apart. The lock flags from the
// previous tick tell a charge apart from a grind; they are rewritten only
// after every pair has resolved.
func (w *World) resolveContacts(dt float64) {
	inContact := make(map[int]bool, len(w.units))
	for i := 0; i < len(w.units); i++ {
		a := w.units[i]
		if !a.Alive() {
			continue
		}
		for j := i + 1; j < len(w.units); j++ {
			b := w.units[j]
			if !b.Alive() {
				continue
			}
			depth, overlapping := circlesOverlap(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius)
			if depth < -contactSlack {
				continue
			}
			if a.Team != b.Team {
				first := !a.MeleeLocked || !b.MeleeLocked
				w.resolver.ResolveMelee(a, b, dt, w.tick, first)
				inContact[a.ID] = true
				inContact[b.ID] = true
			}
			if overlapping {
				w.pushApart(a, b, depth)
			}
		}
	}
	for _, u := range w.units {
		u.MeleeLocked = inContact[u.ID]
	}
}

// pushApart separates two overlapping circles by half the penetration
// each, clamped to the field.
func (w *World) pushApart(a, b *Unit, depth float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Hypot(dx, dy)
	nx, ny := 1.0, 0.0
	if d > 1e-9 {
		nx, ny = dx/d, dy/d
	}
	half := depth / 2
	a.X = clamp(a.X-nx*half, a.Radius, w.tun.FieldWidth-a.Radius)
	a.Y = clamp(a.Y-ny*half, a.Radius, w.tun.FieldHeight-a.Radius)
	b.X = clamp(b.X+nx*half, b.Radius, w.tun.FieldWidth-b.Radius)
	b.Y = clamp(b.Y+ny*half, b.Radius, w.tun.FieldHeight-b.Radius)
}

// removeDead drops destroyed units from the registry and the selection.
// A unit destroyed this tick is gone before the next tick begins.
func (w *World) removeDead() {
	kept := w.units[:0]
	for _, u := range w.units {
		if u.Alive() {
			kept = append(kept, u)
			continue
		}
		delete(w.byID, u.ID)
		w.bus.Emit(Event{
			Type: EvtUnitDestroyed, Tick: w.tick,
			UnitID: u.ID, Team: u.Team, X: u.X, Y: u.Y,
		})
	}
	w.units = kept

	sel := w.selected[:0]
	for _, id := range w.selected {
		if w.byID[id] != nil {
			sel = append(sel, id)
		}
	}
	w.selected = sel
}

// checkVictory ends the battle on the tick one side has no living units
// left. Mutual annihilation ends it with no winner. The check is inert
// until both sides have deployed, so a half-set-up field is not a win.
func (w *World) checkVictory() {
	if w.gameOver || w.deployedRed == 0 || w.deployedBlue == 0 {
		return
	}
	red, blue := w.AliveCount(TeamRed), w.AliveCount(TeamBlue)
	if red > 0 && blue > 0 {
		return
	}
	w.gameOver = true
	if red == 0 && blue == 0 {
		w.bus.Emit(Event{Type: EvtGameOver, Tick: w.tick})
		return
	}
	w.hasWinner = true
	if red > 0 {
		w.winner = TeamRed
	} else {
		w.winner = TeamBlue
	}
	w.bus.Emit(Event{Type: EvtGameOver, Tick: w.tick, Team: w.winner, Amount: 1})
}

func centroid(units []*Unit) (float64, float64) {
	var sx, sy float64
	for _, u := range units {
		sx += u.X
		sy += u.Y
	}
	n := float64(len(units))
	return sx / n, sy / n
}

// meanFacingVector returns the normalized mean facing of a group, or the
// +x axis when the facings cancel out.
func meanFacingVector(units []*Unit) (float64, float64) {
	var sx, sy float64
	for _, u := range units {
		sx += math.Cos(u.Facing)
		sy += math.Sin(u.Facing)
	}
	n := math.Hypot(sx, sy)
	if n < 1e-9 {
		return 1, 0
	}
	return sx / n, sy / n
}
