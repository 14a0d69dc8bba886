package battle

import (
	"testing"
)

func TestEventBus_HoldsUntilDispatch(t *testing.T) {
	bus := NewEventBus()
	var got []EventType
	bus.OnAll(func(e Event) { got = append(got, e.Type) })

	bus.Emit(Event{Type: EvtVolleyHit})
	bus.Emit(Event{Type: EvtMeleeClash})
	if len(got) != 0 {
		t.Fatal("events must not be delivered before the tick boundary")
	}

	bus.Dispatch()
	if len(got) != 2 || got[0] != EvtVolleyHit || got[1] != EvtMeleeClash {
		t.Fatalf("expected emission order [volley_hit melee_clash], got %v", got)
	}

	bus.Dispatch()
	if len(got) != 2 {
		t.Fatal("a dispatch must clear the queue")
	}
}

func TestEventBus_TypedHandlersFilter(t *testing.T) {
	bus := NewEventBus()
	hits, all := 0, 0
	bus.On(EvtVolleyHit, func(e Event) { hits++ })
	bus.OnAll(func(e Event) { all++ })

	bus.Emit(Event{Type: EvtVolleyHit})
	bus.Emit(Event{Type: EvtVolleyMissed})
	bus.Emit(Event{Type: EvtVolleyHit})
	bus.Dispatch()

	if hits != 2 {
		t.Fatalf("typed handler: expected 2, got %d", hits)
	}
	if all != 3 {
		t.Fatalf("catch-all handler: expected 3, got %d", all)
	}
}

func TestWorld_DeliversEventsAtTickEnd(t *testing.T) {
	w := NewWorld(DefaultTuning(), 1)
	id := w.CreateUnit(UnitInfantry, TeamRed, 300, 450)

	// Subscribing after the emission still works: delivery waits for the
	// tick boundary.
	var created []int
	w.Events().On(EvtUnitCreated, func(e Event) { created = append(created, e.UnitID) })

	w.Advance(1.0 / 60)
	if len(created) != 1 || created[0] != id {
		t.Fatalf("expected creation event for unit %d, got %v", id, created)
	}
}
