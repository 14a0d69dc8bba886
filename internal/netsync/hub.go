package netsync

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// Role decides which side of the session owns the truth.
type Role int

const (
	// RoleHost advances the authoritative battle and streams it out.
	RoleHost Role = iota
	// RoleGuest predicts locally and yields to every host snapshot.
	RoleGuest
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleGuest:
		return "guest"
	default:
		return "unknown"
	}
}

const (
	// tickRate is the simulation rate. Snapshots go out every
	// syncDivisor ticks, so 60/4 puts the sync stream at 15 Hz.
	tickRate    = 60
	syncDivisor = 4

	// catchupMaxTicks bounds how much wall-clock lag one tick may
	// absorb. Anything beyond is dropped time, not a giant dt.
	catchupMaxTicks = 2

	pingInterval = 2 * time.Second

	budgetAlarmRatio  = 2.0
	budgetAlarmStreak = 3
)

// TickHook runs inside the simulation loop just before the battle
// advances. The host registers the commanders here.
type TickHook func(w *battle.World, dt float64)

// Hub drives one side of a synced session: it owns the battle, drains
// inbound frames at tick boundaries, and on the host side broadcasts
// authoritative snapshots. All battle access goes through the hub's
// lock, so read pumps may deliver frames from any goroutine.
type Hub struct {
	role Role
	log  zerolog.Logger

	mu         sync.Mutex
	world      *battle.World
	scene      string
	deployed   map[int]bool
	nextID     int
	lastSeq    uint64
	remoteOver bool
	peers      map[int]Peer
	nextPeer   int
	hooks      []TickHook

	inMu    sync.Mutex
	inbound [][]byte

	seq atomic.Uint64
	rtt atomic.Int64
}

// NewHub wraps a battle for one side of a session. The host hands out
// odd unit ids and the guest even ones, so simultaneous deployments
// can never collide.
func NewHub(w *battle.World, role Role, logger zerolog.Logger) *Hub {
	h := &Hub{
		role:     role,
		log:      logger.With().Str("role", role.String()).Logger(),
		world:    w,
		scene:    SceneDeployment,
		deployed: map[int]bool{},
		nextID:   1,
		peers:    map[int]Peer{},
	}
	if role == RoleGuest {
		h.nextID = 2
	}
	h.rtt.Store(-1)
	return h
}

// World exposes the underlying battle for rendering and reports. Not
// safe to mutate while RunSimulation is running.
func (h *Hub) World() *battle.World { return h.world }

// Scene reports the session's current scene.
func (h *Hub) Scene() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scene
}

// AttachPeer registers a connection for outbound frames and returns its
// handle for DetachPeer.
func (h *Hub) AttachPeer(p Peer) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextPeer++
	h.peers[h.nextPeer] = p
	return h.nextPeer
}

// DetachPeer forgets a connection. The peer itself is not closed.
func (h *Hub) DetachPeer(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, id)
}

// OnTick registers a hook to run each tick before the battle advances.
// Register everything before starting RunSimulation.
func (h *Hub) OnTick(hook TickHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Receive queues one inbound frame for the next tick. Read pumps call
// this; the frame is decoded and applied at the tick boundary so remote
// events interleave deterministically with the simulation.
func (h *Hub) Receive(data []byte) {
	h.inMu.Lock()
	h.inbound = append(h.inbound, data)
	h.inMu.Unlock()
}

func (h *Hub) drainInbound() [][]byte {
	h.inMu.Lock()
	frames := h.inbound
	h.inbound = nil
	h.inMu.Unlock()
	return frames
}

// Deploy places a unit locally and announces it to the peer. Only legal
// during the deployment scene.
func (h *Hub) Deploy(ut battle.UnitType, team battle.Team, x, y float64) (int, error) {
	h.mu.Lock()
	if h.scene != SceneDeployment {
		h.mu.Unlock()
		return 0, fmt.Errorf("netsync: deployment closed in scene %q", h.scene)
	}
	id := h.nextID
	h.nextID += 2
	facing := battle.DefaultFacing(team)
	h.deployed[id] = true
	h.world.RestoreUnit(id, ut, team, x, y, facing)
	h.mu.Unlock()

	h.sendJSON(DeployUnitMessage{
		Ver:       ProtocolVersion,
		Type:      TypeDeployUnit,
		Timestamp: nowMillis(),
		Unit: DeployedUnit{
			ID:    id,
			Type:  int(ut),
			Team:  int(team),
			X:     x,
			Y:     y,
			Angle: facing,
		},
	})
	return id, nil
}

// TransitionScene moves the session to a new scene and announces it.
// Returns false if the session is already there.
func (h *Hub) TransitionScene(scene string) bool {
	h.mu.Lock()
	if h.scene == scene {
		h.mu.Unlock()
		return false
	}
	h.scene = scene
	h.mu.Unlock()

	h.log.Info().Str("scene", scene).Msg("scene transition")
	h.sendJSON(SceneTransitionMessage{
		Ver:       ProtocolVersion,
		Type:      TypeSceneTransition,
		Timestamp: nowMillis(),
		Scene:     scene,
	})
	return true
}

// Ping asks the peer for an echo so RTT can track the link.
func (h *Hub) Ping() {
	h.sendJSON(PingMessage{Ver: ProtocolVersion, Type: TypePing, Timestamp: nowMillis()})
}

// RTT reports the last measured round trip. ok is false until the
// first pong arrives.
func (h *Hub) RTT() (time.Duration, bool) {
	v := h.rtt.Load()
	if v < 0 {
		return 0, false
	}
	return time.Duration(v) * time.Millisecond, true
}

// Step runs one simulation tick: apply queued remote events, run the
// registered hooks, advance the battle, and on the host side emit the
// snapshot when the sync cadence or the end of the battle calls for
// one. Returns done once the battle is over. A panic from a hook or
// the battle comes back as the error; the session cannot outlive it.
func (h *Hub) Step(dt float64) (done bool, err error) {
	for _, frame := range h.drainInbound() {
		h.applyFrame(frame)
	}

	payload, done, err := h.advance(dt)
	if err != nil {
		return false, err
	}
	if payload != nil {
		h.sendAll(payload)
	}
	return done, nil
}

// advance holds the hub lock for exactly one tick. The unlock is
// deferred so a panicking tick still leaves the hub usable for
// shutdown; the panic is surfaced as the returned error.
func (h *Hub) advance(dt float64) (payload []byte, done bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("tick panicked")
			payload = nil
			err = fmt.Errorf("netsync: tick panicked: %v", r)
		}
	}()

	wasOver := h.world.GameOver()
	for _, hook := range h.hooks {
		hook(h.world, dt)
	}
	h.world.Advance(dt)
	over := h.world.GameOver()
	// A guest's world may predict a victory the host has not confirmed.
	// Only the authoritative flag ends the session on that side.
	done = over
	if h.role == RoleGuest {
		done = h.remoteOver
	}
	if h.role == RoleHost && (h.world.Tick()%syncDivisor == 0 || (over && !wasOver)) {
		msg := StateSyncMessage{
			Ver:       ProtocolVersion,
			Type:      TypeStateSync,
			Timestamp: nowMillis(),
			Sequence:  h.seq.Add(1),
			Snapshot:  h.world.Snapshot(),
		}
		b, encErr := json.Marshal(msg)
		if encErr != nil {
			h.log.Error().Err(encErr).Msg("snapshot encode failed")
		} else {
			payload = b
		}
	}
	return payload, done, nil
}

// RunSimulation ticks the battle at the fixed rate until the context
// ends, the battle does, or a tick fails. Wall-clock hiccups are
// clamped rather than integrated in one jump, and ticks that blow
// their budget raise a one-shot alarm that re-arms once the loop is
// healthy again. A recovered tick panic stops the loop and is
// returned to the operator.
func (h *Hub) RunSimulation(ctx context.Context) error {
	const budget = time.Second / tickRate
	maxDt := catchupMaxTicks * budget.Seconds()

	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	var alarmed atomic.Bool
	overrunStreak := 0
	last := time.Now()
	nextPing := last.Add(pingInterval)

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("sync loop stopped")
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt <= 0 {
				dt = budget.Seconds()
			} else if dt > maxDt {
				h.log.Debug().Float64("dt", dt).Float64("clamped", maxDt).Msg("late tick, dropping lost time")
				dt = maxDt
			}

			done, err := h.Step(dt)
			if err != nil {
				h.log.Error().Err(err).Msg("sync loop halted")
				return err
			}

			elapsed := time.Since(now)
			if elapsed > budget {
				overrunStreak++
				ratio := float64(elapsed) / float64(budget)
				if (ratio >= budgetAlarmRatio || overrunStreak >= budgetAlarmStreak) && alarmed.CompareAndSwap(false, true) {
					h.log.Warn().
						Dur("elapsed", elapsed).
						Int("streak", overrunStreak).
						Msg("tick budget exceeded")
				}
			} else {
				overrunStreak = 0
				alarmed.Store(false)
			}

			if done {
				h.log.Info().Msg("battle over, sync loop draining out")
				return nil
			}
			if now.After(nextPing) {
				h.Ping()
				nextPing = now.Add(pingInterval)
			}
		}
	}
}

func (h *Hub) applyFrame(data []byte) {
	msg, err := Decode(data)
	if err != nil {
		h.log.Warn().Err(err).Msg("dropping frame")
		return
	}
	switch m := msg.(type) {
	case StateSyncMessage:
		if err := h.applyStateSync(m); err != nil {
			h.log.Debug().Err(err).Msg("snapshot dropped")
		}
	case DeployUnitMessage:
		h.applyDeploy(m)
	case SceneTransitionMessage:
		h.applyScene(m)
	case PingMessage:
		h.sendJSON(PongMessage{Ver: ProtocolVersion, Type: TypePong, Timestamp: m.Timestamp})
	case PongMessage:
		delta := nowMillis() - m.Timestamp
		if delta < 0 {
			delta = 0
		}
		h.rtt.Store(delta)
	}
}

// applyStateSync merges a host snapshot over the local battle. Frames
// arriving out of order are discarded by sequence so a late snapshot
// can never roll the battle back.
func (h *Hub) applyStateSync(m StateSyncMessage) error {
	if h.role == RoleHost {
		h.log.Warn().Uint64("sequence", m.Sequence).Msg("host ignores inbound state sync")
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if m.Sequence <= h.lastSeq {
		return fmt.Errorf("%w: sequence %d, already at %d", ErrStaleSnapshot, m.Sequence, h.lastSeq)
	}
	h.lastSeq = m.Sequence
	h.remoteOver = m.GameOver
	h.world.ApplySnapshot(m.Snapshot)
	return nil
}

// applyDeploy replays a peer's placement. The journal makes redelivery
// harmless: a unit id is only ever created once.
func (h *Hub) applyDeploy(m DeployUnitMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := m.Unit.ID
	if h.deployed[id] {
		h.log.Debug().Int("unit", id).Msg("duplicate deployment ignored")
		return
	}
	h.deployed[id] = true
	if !h.world.RestoreUnit(id, battle.UnitType(m.Unit.Type), battle.Team(m.Unit.Team), m.Unit.X, m.Unit.Y, m.Unit.Angle) {
		h.log.Debug().Int("unit", id).Msg("deployment collides with live unit, ignored")
		return
	}
	h.log.Info().
		Int("unit", id).
		Int("team", m.Unit.Team).
		Msg("peer deployment applied")
}

func (h *Hub) applyScene(m SceneTransitionMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.scene == m.Scene {
		h.log.Debug().Str("scene", m.Scene).Msg("already in scene, transition ignored")
		return
	}
	h.scene = m.Scene
	h.log.Info().Str("scene", m.Scene).Msg("peer scene transition applied")
}

func (h *Hub) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("message encode failed")
		return
	}
	h.sendAll(data)
}

// sendAll pushes one frame to every peer. A failed write drops that
// peer from the session.
func (h *Hub) sendAll(data []byte) {
	h.mu.Lock()
	peers := make(map[int]Peer, len(h.peers))
	for id, p := range h.peers {
		peers[id] = p
	}
	h.mu.Unlock()

	for id, p := range peers {
		if err := p.Send(data); err != nil {
			h.log.Warn().Err(err).Int("peer", id).Msg("peer write failed, dropping")
			h.DetachPeer(id)
			_ = p.Close()
		}
	}
}

func nowMillis() int64 { return time.Now().UnixMilli() }
