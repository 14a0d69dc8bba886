// Package netsync keeps a host/guest pair of battles in step. The host
// is authoritative: it streams full state snapshots at a fixed rate and
// the guest merges them over its locally predicted battle. Deployment
// and scene changes are discrete events applied idempotently on both
// sides, so a replayed or duplicated frame cannot double anything.
package netsync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// ProtocolVersion guards against mismatched builds talking past each
// other. Bump it on any wire-visible change.
const ProtocolVersion = 1

// Protocol violations a caller may want to single out.
var (
	ErrUnknownMessage = errors.New("netsync: unknown message type")
	ErrStaleSnapshot  = errors.New("netsync: stale snapshot")
)

// Wire message tags.
const (
	TypeStateSync       = "GAME_STATE_SYNC"
	TypeDeployUnit      = "DEPLOY_UNIT"
	TypeSceneTransition = "SCENE_TRANSITION"
	TypePing            = "ping"
	TypePong            = "pong"
)

// Scenes a session moves through.
const (
	SceneDeployment = "deployment"
	SceneBattle     = "battle"
)

// StateSyncMessage carries the host's full authoritative state. The
// sequence is monotonic; a receiver discards anything at or below the
// last sequence it applied, so a reconnect race cannot roll state back.
type StateSyncMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Sequence  uint64 `json:"sequence"`
	battle.Snapshot
}

// DeployedUnit is the creation record inside a DEPLOY_UNIT event. The id
// is assigned by the placing peer before the unit enters any registry.
type DeployedUnit struct {
	ID    int     `json:"id"`
	Type  int     `json:"type"`
	Team  int     `json:"team"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// DeployUnitMessage is one placement by either peer. Applied
// idempotently: a duplicate id is a logged no-op.
type DeployUnitMessage struct {
	Ver       int          `json:"ver"`
	Type      string       `json:"type"`
	Timestamp int64        `json:"timestamp"`
	Unit      DeployedUnit `json:"unit"`
}

// SceneTransitionMessage announces a scene change. The receiver applies
// it only if it is not already in that scene.
type SceneTransitionMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Scene     string `json:"scene"`
}

// PingMessage requests an echo. Timestamp is the sender's clock in unix
// milliseconds.
type PingMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// PongMessage echoes a ping's timestamp back so the pinger can compute
// the round trip from its own clock.
type PongMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Decode peeks the tag of a frame and returns the concrete message.
func Decode(data []byte) (any, error) {
	var probe struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("netsync: undecodable frame: %w", err)
	}
	if probe.Ver != ProtocolVersion {
		return nil, fmt.Errorf("netsync: protocol version %d, want %d", probe.Ver, ProtocolVersion)
	}
	switch probe.Type {
	case TypeStateSync:
		var m StateSyncMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("netsync: bad %s: %w", probe.Type, err)
		}
		return m, nil
	case TypeDeployUnit:
		var m DeployUnitMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("netsync: bad %s: %w", probe.Type, err)
		}
		return m, nil
	case TypeSceneTransition:
		var m SceneTransitionMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("netsync: bad %s: %w", probe.Type, err)
		}
		return m, nil
	case TypePing:
		var m PingMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("netsync: bad %s: %w", probe.Type, err)
		}
		return m, nil
	case TypePong:
		var m PongMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("netsync: bad %s: %w", probe.Type, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMessage, probe.Type)
	}
}
