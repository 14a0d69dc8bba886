package battle

// EventType enumerates the domain events the simulation emits. Renderer,
// audio, and logging collaborators subscribe to these; the combat core
// never calls into presentation code.
type EventType uint16

const (
	EvtUnitCreated EventType = iota
	EvtUnitDestroyed
	EvtVolleyHit
	EvtVolleyMissed
	EvtProjectileLaunched
	EvtProjectileImpact
	EvtMeleeClash
	EvtChargeImpact
	EvtUnitRouted
	EvtFormationChanged
	EvtGameOver
)

func (et EventType) String() string {
	switch et {
	case EvtUnitCreated:
		return "unit_created"
	case EvtUnitDestroyed:
		return "unit_destroyed"
	case EvtVolleyHit:
		return "volley_hit"
	case EvtVolleyMissed:
		return "volley_miss"
	case EvtProjectileLaunched:
		return "projectile_launched"
	case EvtProjectileImpact:
		return "projectile_impact"
	case EvtMeleeClash:
		return "melee_clash"
	case EvtChargeImpact:
		return "charge_impact"
	case EvtUnitRouted:
		return "unit_routed"
	case EvtFormationChanged:
		return "formation_changed"
	case EvtGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Event is one domain event. OtherID is the counterparty where one exists
// (the target of a volley, the victim of an impact). Amount carries damage
// in entity count; Factor carries the multiplier that produced it.
type Event struct {
	Type    EventType
	Tick    int
	UnitID  int
	OtherID int
	Team    Team
	Amount  float64
	Factor  float64
	X, Y    float64
}

// EventHandler receives dispatched events.
type EventHandler func(e Event)

// EventBus queues events during a tick and dispatches them at the tick
// boundary, so handlers observe a consistent post-tick world.
type EventBus struct {
	listeners map[EventType][]EventHandler
	all       []EventHandler
	queue     []Event
}

func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[EventType][]EventHandler)}
}

// On registers a handler for one event type.
func (eb *EventBus) On(t EventType, h EventHandler) {
	eb.listeners[t] = append(eb.listeners[t], h)
}

// OnAll registers a handler for every event type.
func (eb *EventBus) OnAll(h EventHandler) {
	eb.all = append(eb.all, h)
}

// Emit queues an event for dispatch.
func (eb *EventBus) Emit(e Event) {
	eb.queue = append(eb.queue, e)
}

// Dispatch delivers all queued events in emission order and clears the
// queue.
func (eb *EventBus) Dispatch() {
	for _, e := range eb.queue {
		for _, h := range eb.all {
			h(e)
		}
		for _, h := range eb.listeners[e.Type] {
			h(e)
		}
	}
	eb.queue = eb.queue[:0]
}
