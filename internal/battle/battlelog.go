package battle

import (
	"fmt"
	"strings"
)

// BattleLogEntry is one recorded event during a headless battle.
type BattleLogEntry struct {
	Tick     int
	Unit     string  // label e.g. "R0", "B3", or "--" for global events
	Team     string  // "red", "blue", or "--"
	Category string  // combat, state, formation, command
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] R0   combat    volley_hit       R0 → B3 dmg=6.2
func (e BattleLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-18s %s",
		e.Tick, e.Unit, e.Category, e.Key, e.Value)
}

// BattleLog collects structured events for headless runs and tests. It is
// unbounded and machine-readable; per-tick chatter is recorded only in
// verbose mode.
type BattleLog struct {
	entries []BattleLogEntry
	verbose bool
}

func NewBattleLog(verbose bool) *BattleLog {
	return &BattleLog{verbose: verbose}
}

// Add records a new entry.
func (bl *BattleLog) Add(tick int, unit, team, category, key, value string, numVal float64) {
	bl.entries = append(bl.entries, BattleLogEntry{
		Tick:     tick,
		Unit:     unit,
		Team:     team,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (bl *BattleLog) AddVerbose(tick int, unit, team, category, key, value string, numVal float64) {
	if !bl.verbose {
		return
	}
	bl.Add(tick, unit, team, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (bl *BattleLog) Entries() []BattleLogEntry {
	return bl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (bl *BattleLog) Filter(category, key string) []BattleLogEntry {
	var out []BattleLogEntry
	for _, e := range bl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterUnit returns entries for a specific unit label.
func (bl *BattleLog) FilterUnit(label string) []BattleLogEntry {
	var out []BattleLogEntry
	for _, e := range bl.entries {
		if e.Unit == label {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (bl *BattleLog) CountCategory(category, key string) int {
	return len(bl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if
// none.
func (bl *BattleLog) LastOf(category, key string) (BattleLogEntry, bool) {
	entries := bl.Filter(category, key)
	if len(entries) == 0 {
		return BattleLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and
// value substring.
func (bl *BattleLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range bl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (bl *BattleLog) Format() string {
	var sb strings.Builder
	for _, e := range bl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the field state.
func (bl *BattleLog) Summary(tick int, units []*Unit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	for _, team := range []Team{TeamRed, TeamBlue} {
		alive := 0
		entities := 0.0
		formations := map[FormationType]int{}
		for _, u := range units {
			if u.Team != team || !u.Alive() {
				continue
			}
			alive++
			entities += u.EntityCount
			formations[u.Formation]++
		}
		fmt.Fprintf(&sb, "%s: units=%d strength=%.0f", team, alive, entities)
		for _, f := range []FormationType{FormationLine, FormationColumn, FormationSquare} {
			if n := formations[f]; n > 0 {
				fmt.Fprintf(&sb, "  %s=%d", f, n)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// recordEvents wires a battle log into an event bus. Every domain event
// becomes one entry, categorized for the filter helpers.
func (bl *BattleLog) recordEvents(bus *EventBus, world *World) {
	labelOf := func(id int) string {
		if u := world.UnitByID(id); u != nil {
			return u.Label()
		}
		return fmt.Sprintf("#%d", id)
	}

	bus.OnAll(func(e Event) {
		unit := "--"
		team := "--"
		if u := world.UnitByID(e.UnitID); u != nil {
			unit = u.Label()
			team = u.Team.String()
		} else if e.UnitID > 0 {
			// Unit already removed from the registry (destroyed this tick).
			prefix := "R"
			if e.Team == TeamBlue {
				prefix = "B"
			}
			unit = fmt.Sprintf("%s%d", prefix, e.UnitID)
			team = e.Team.String()
		}

		category := "combat"
		switch e.Type {
		case EvtUnitCreated, EvtUnitDestroyed, EvtUnitRouted, EvtGameOver:
			category = "state"
		case EvtFormationChanged:
			category = "formation"
		}

		value := ""
		switch e.Type {
		case EvtVolleyHit, EvtMeleeClash, EvtChargeImpact:
			value = fmt.Sprintf("%s → %s dmg=%.1f x%.1f", unit, labelOf(e.OtherID), e.Amount, e.Factor)
		case EvtVolleyMissed:
			value = fmt.Sprintf("%s → %s", unit, labelOf(e.OtherID))
		case EvtProjectileLaunched:
			value = fmt.Sprintf("%s at (%.0f,%.0f)", unit, e.X, e.Y)
		case EvtProjectileImpact:
			value = fmt.Sprintf("ball hits %s dmg=%.1f x%.1f", unit, e.Amount, e.Factor)
		case EvtFormationChanged:
			value = fmt.Sprintf("%s → %s", unit, FormationType(int(e.Amount)))
		case EvtGameOver:
			if e.Amount > 0 {
				value = fmt.Sprintf("winner=%s", e.Team)
			} else {
				value = "draw"
			}
		default:
			value = unit
		}

		bl.Add(e.Tick, unit, team, category, e.Type.String(), value, e.Amount)
	})
}
