package battle

// BattleOutcome classifies the result of a battle.
type BattleOutcome int

const (
	OutcomeOngoing BattleOutcome = iota
	OutcomeRedVictory
	OutcomeBlueVictory
	OutcomeDraw
)

func (o BattleOutcome) String() string {
	switch o {
	case OutcomeOngoing:
		return "ongoing"
	case OutcomeRedVictory:
		return "red_victory"
	case OutcomeBlueVictory:
		return "blue_victory"
	case OutcomeDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// OutcomeReport carries the classification and the numbers behind it.
type OutcomeReport struct {
	Outcome  BattleOutcome
	Tick     int
	GameTime float64

	RedUnits     int
	BlueUnits    int
	RedStrength  float64
	BlueStrength float64
	RedRouted    int
	BlueRouted   int

	Description string
}

// DetermineOutcome classifies the current state of a battle. A victory is
// decisive when the winner kept at least 70% of its remaining units'
// strength through the fight.
func DetermineOutcome(w *World) OutcomeReport {
	rep := OutcomeReport{Tick: w.Tick(), GameTime: w.GameTime()}

	var redMax, blueMax float64
	for _, u := range w.Units() {
		if !u.Alive() {
			continue
		}
		switch u.Team {
		case TeamRed:
			rep.RedUnits++
			rep.RedStrength += u.EntityCount
			redMax += u.MaxEntityCount
			if u.Fleeing {
				rep.RedRouted++
			}
		case TeamBlue:
			rep.BlueUnits++
			rep.BlueStrength += u.EntityCount
			blueMax += u.MaxEntityCount
			if u.Fleeing {
				rep.BlueRouted++
			}
		}
	}

	if !w.GameOver() {
		rep.Outcome = OutcomeOngoing
		rep.Description = "battle_in_progress"
		return rep
	}

	winner, ok := w.Winner()
	if !ok {
		rep.Outcome = OutcomeDraw
		rep.Description = "mutual_annihilation"
		return rep
	}

	remaining := 0.0
	if winner == TeamRed {
		rep.Outcome = OutcomeRedVictory
		if redMax > 0 {
			remaining = rep.RedStrength / redMax
		}
		rep.Description = "red_victory_blue_destroyed"
		if remaining >= 0.70 {
			rep.Description = "decisive_red_victory_blue_destroyed"
		}
		return rep
	}

	rep.Outcome = OutcomeBlueVictory
	if blueMax > 0 {
		remaining = rep.BlueStrength / blueMax
	}
	rep.Description = "blue_victory_red_destroyed"
	if remaining >= 0.70 {
		rep.Description = "decisive_blue_victory_red_destroyed"
	}
	return rep
}
