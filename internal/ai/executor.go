package ai

import (
	"fmt"
	"sort"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// OrderKind discriminates what an Order asks a unit to do.
type OrderKind int

const (
	OrderMove OrderKind = iota
	OrderFormation
)

func (k OrderKind) String() string {
	switch k {
	case OrderMove:
		return "move"
	case OrderFormation:
		return "formation"
	default:
		return fmt.Sprintf("order(%d)", int(k))
	}
}

// Order is one command for one unit. Reason carries the rule or stance
// that produced it, for the decision log.
type Order struct {
	UnitID    int
	Kind      OrderKind
	X, Y      float64
	Formation battle.FormationType
	Reason    string
}

// Executor holds the orders of one decision pass and applies them to the
// world. Each unit has a single pending slot, so the latest order for a
// unit wins. A unit still inside its order cooldown drops the order
// outright rather than queueing it; by the next pass the commander will
// have re-read the field and decided fresh.
type Executor struct {
	cooldown float64
	lastAt   map[int]float64
	pending  map[int]Order
}

func NewExecutor(cooldown float64) *Executor {
	return &Executor{
		cooldown: cooldown,
		lastAt:   make(map[int]float64),
		pending:  make(map[int]Order),
	}
}

// Submit stages an order, replacing any pending order for the same unit.
func (e *Executor) Submit(o Order) {
	e.pending[o.UnitID] = o
}

// Pending reports how many units have a staged order.
func (e *Executor) Pending() int {
	return len(e.pending)
}

// Flush applies the staged orders to the world in ascending unit id
// order and returns the ones that were actually issued. Units inside
// their cooldown are skipped and their staged order discarded.
func (e *Executor) Flush(w *battle.World) []Order {
	if len(e.pending) == 0 {
		return nil
	}
	ids := make([]int, 0, len(e.pending))
	for id := range e.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	now := w.GameTime()
	var issued []Order
	for _, id := range ids {
		o := e.pending[id]
		delete(e.pending, id)
		if last, ok := e.lastAt[id]; ok && now-last < e.cooldown {
			continue
		}
		switch o.Kind {
		case OrderMove:
			w.OrderMove([]int{id}, o.X, o.Y)
		case OrderFormation:
			w.OrderFormation([]int{id}, o.Formation)
		}
		e.lastAt[id] = now
		issued = append(issued, o)
	}
	return issued
}
