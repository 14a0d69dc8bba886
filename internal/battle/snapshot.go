package battle

// UnitState is the wire form of one unit inside a snapshot. Enum fields
// travel as ints so the payload stays stable if the names change.
type UnitState struct {
	ID     int     `json:"id"`
	Type   int     `json:"type"`
	Team   int     `json:"team"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Facing float64 `json:"facing"`

	EntityCount float64 `json:"entityCount"`
	Formation   int     `json:"formation"`
	Exhaustion  float64 `json:"exhaustion"`

	Reloading      bool    `json:"reloading,omitempty"`
	ReloadProgress float64 `json:"reloadProgress,omitempty"`
	TargetID       int     `json:"targetId,omitempty"`

	HasMoveTarget bool    `json:"hasMoveTarget,omitempty"`
	MoveTargetX   float64 `json:"moveTargetX,omitempty"`
	MoveTargetY   float64 `json:"moveTargetY,omitempty"`

	MeleeLocked bool `json:"meleeLocked,omitempty"`
	Fleeing     bool `json:"fleeing,omitempty"`
}

// ProjectileState is the wire form of one ball in flight.
type ProjectileState struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Team     int     `json:"team"`
	Damage   float64 `json:"damage"`
	MaxRange float64 `json:"maxRange"`
	Traveled float64 `json:"traveled"`
}

// Snapshot is the full authoritative state of a battle. The host emits
// one at the sync rate; a guest merges it over its locally predicted
// state, so a dropped frame only delays the correction.
type Snapshot struct {
	Tick      int     `json:"tick"`
	GameTime  float64 `json:"gameTime"`
	GameOver  bool    `json:"gameOver,omitempty"`
	HasWinner bool    `json:"hasWinner,omitempty"`
	Winner    int     `json:"winner,omitempty"`

	Units       []UnitState       `json:"units"`
	Projectiles []ProjectileState `json:"projectiles,omitempty"`
}

// Snapshot captures the complete current state.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Tick:      w.tick,
		GameTime:  w.gameTime,
		GameOver:  w.gameOver,
		HasWinner: w.hasWinner,
		Winner:    int(w.winner),
		Units:     make([]UnitState, 0, len(w.units)),
	}
	for _, u := range w.units {
		s.Units = append(s.Units, UnitState{
			ID:     u.ID,
			Type:   int(u.Type),
			Team:   int(u.Team),
			X:      u.X,
			Y:      u.Y,
			VX:     u.VX,
			VY:     u.VY,
			Facing: u.Facing,

			EntityCount: u.EntityCount,
			Formation:   int(u.Formation),
			Exhaustion:  u.Exhaustion,

			Reloading:      u.Reloading,
			ReloadProgress: u.ReloadProgress,
			TargetID:       u.TargetID,

			HasMoveTarget: u.HasMoveTarget,
			MoveTargetX:   u.MoveTargetX,
			MoveTargetY:   u.MoveTargetY,

			MeleeLocked: u.MeleeLocked,
			Fleeing:     u.Fleeing,
		})
	}
	for _, p := range w.projectiles {
		s.Projectiles = append(s.Projectiles, ProjectileState{
			X:        p.X,
			Y:        p.Y,
			VX:       p.VX,
			VY:       p.VY,
			Team:     int(p.Team),
			Damage:   p.Damage,
			MaxRange: p.MaxRange,
			Traveled: p.Traveled,
		})
	}
	return s
}

// ApplySnapshot merges an authoritative snapshot over the local state.
// Units in the snapshot overwrite their local copy, unknown ids are
// created, local units absent from the snapshot are removed, and
// projectiles are replaced wholesale. Formation modifiers are re-derived
// rather than trusted from the wire.
func (w *World) ApplySnapshot(s Snapshot) {
	present := make(map[int]bool, len(s.Units))
	for _, st := range s.Units {
		present[st.ID] = true
		u := w.byID[st.ID]
		if u == nil {
			if !w.RestoreUnit(st.ID, UnitType(st.Type), Team(st.Team), st.X, st.Y, st.Facing) {
				continue
			}
			u = w.byID[st.ID]
		}

		u.X, u.Y = st.X, st.Y
		u.VX, u.VY = st.VX, st.VY
		u.Facing = st.Facing
		u.EntityCount = st.EntityCount
		u.Exhaustion = st.Exhaustion
		u.Reloading = st.Reloading
		u.ReloadProgress = st.ReloadProgress
		u.TargetID = st.TargetID
		u.HasMoveTarget = st.HasMoveTarget
		u.MoveTargetX = st.MoveTargetX
		u.MoveTargetY = st.MoveTargetY
		u.MeleeLocked = st.MeleeLocked
		u.Fleeing = st.Fleeing
		applyFormation(u, FormationType(st.Formation), w.tun.Profiles[u.Type])
	}

	kept := w.units[:0]
	for _, u := range w.units {
		if present[u.ID] {
			kept = append(kept, u)
			continue
		}
		delete(w.byID, u.ID)
	}
	w.units = kept

	sel := w.selected[:0]
	for _, id := range w.selected {
		if w.byID[id] != nil {
			sel = append(sel, id)
		}
	}
	w.selected = sel

	w.projectiles = w.projectiles[:0]
	for _, ps := range s.Projectiles {
		w.projectiles = append(w.projectiles, Projectile{
			X:        ps.X,
			Y:        ps.Y,
			VX:       ps.VX,
			VY:       ps.VY,
			Team:     Team(ps.Team),
			Damage:   ps.Damage,
			MaxRange: ps.MaxRange,
			Traveled: ps.Traveled,
		})
	}

	w.tick = s.Tick
	w.gameTime = s.GameTime
	w.gameOver = s.GameOver
	w.hasWinner = s.HasWinner
	w.winner = Team(s.Winner)
}
