package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brabrak1/Napoleonic-Game/internal/ai"
	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

type runStats struct {
	runIndex int
	seed     int64

	firstVolleyTick int
	firstChargeTick int
	firstMeleeTick  int
	firstRoutTick   int
	firstKillTick   int
	gameOverTick    int

	volleyHits    int
	volleyMisses  int
	cannonImpacts int
	meleeClashes  int
	chargeImpacts int
	routs         int
	kills         int

	// Strength fielded and lost, indexed by unit type and team.
	fielded map[battle.UnitType][2]float64
	lost    map[battle.UnitType][2]float64

	outcome  battle.OutcomeReport
	timeline string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		runs     int
		ticks    int
		seedBase int64
		seedStep int64
		scenario string
		redN     int
		blueN    int
		timeline bool
	)

	cmd := &cobra.Command{
		Use:   "battle-report",
		Short: "Run headless batch battles and print combat statistics",
		Long: `battle-report runs the skirmish simulation without a display and
prints per-run phase markers, event totals, casualty tables, and an
aggregate section across all runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs <= 0 {
				return fmt.Errorf("--runs must be > 0")
			}
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be > 0")
			}
			if scenario != "pitched" && scenario != "advance" {
				return fmt.Errorf("unsupported scenario %q (supported: pitched, advance)", scenario)
			}
			if redN < 1 || redN > 60 || blueN < 1 || blueN > 60 {
				return fmt.Errorf("army sizes must be between 1 and 60")
			}

			title := color.New(color.FgCyan, color.Bold)
			title.Println("=== Skirmish Battle Report ===")
			fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d red=%d blue=%d\n\n",
				scenario, runs, ticks, seedBase, seedStep, redN, blueN)

			all := make([]runStats, 0, runs)
			for i := 0; i < runs; i++ {
				seed := seedBase + int64(i)*seedStep
				rs := runScenario(i+1, seed, ticks, scenario, redN, blueN)
				all = append(all, rs)
				printRun(rs, timeline)
			}
			printAggregate(all)
			return nil
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 5, "number of headless runs")
	cmd.Flags().IntVar(&ticks, "ticks", 10800, "tick cap per run (60 per second)")
	cmd.Flags().Int64Var(&seedBase, "seed-base", 42, "RNG seed for run 1")
	cmd.Flags().Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	cmd.Flags().StringVar(&scenario, "scenario", "pitched", "scenario: pitched (commanders on both sides) or advance (scripted frontal advance)")
	cmd.Flags().IntVar(&redN, "red", 6, "red units fielded")
	cmd.Flags().IntVar(&blueN, "blue", 6, "blue units fielded")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "print the per-run strength timeline")
	return cmd
}

func runScenario(runIndex int, seed int64, ticks int, scenario string, redN, blueN int) runStats {
	tun := battle.DefaultTuning()
	w := battle.NewWorld(tun, seed)
	blog := battle.NewBattleLog(false)
	w.AttachLog(blog)
	rep := battle.NewReporter(5.0)

	redIDs := deployArmy(w, battle.TeamRed, redN, 260)
	blueIDs := deployArmy(w, battle.TeamBlue, blueN, tun.FieldWidth-260)

	fielded := tallyStrength(w, func(u *battle.Unit) float64 { return u.MaxEntityCount })

	var commanders []*ai.Commander
	switch scenario {
	case "pitched":
		commanders = []*ai.Commander{
			ai.NewCommander(battle.TeamRed, ai.DefaultDoctrine(), zerolog.Nop()),
			ai.NewCommander(battle.TeamBlue, ai.DefaultDoctrine(), zerolog.Nop()),
		}
	case "advance":
		w.OrderFormation(redIDs, battle.FormationLine)
		w.OrderMove(redIDs, tun.FieldWidth-260, tun.FieldHeight/2)
		w.OrderFormation(blueIDs, battle.FormationLine)
		w.OrderMove(blueIDs, 260, tun.FieldHeight/2)
	}

	const dt = 1.0 / 60
	for i := 0; i < ticks && !w.GameOver(); i++ {
		for _, c := range commanders {
			c.Think(w)
		}
		w.Advance(dt)
		rep.Observe(w)
	}

	remaining := tallyStrength(w, func(u *battle.Unit) float64 { return u.EntityCount })
	lost := map[battle.UnitType][2]float64{}
	for _, ut := range []battle.UnitType{battle.UnitInfantry, battle.UnitCavalry, battle.UnitCannon} {
		f, r := fielded[ut], remaining[ut]
		lost[ut] = [2]float64{f[0] - r[0], f[1] - r[1]}
	}

	entries := blog.Entries()
	return runStats{
		runIndex:        runIndex,
		seed:            seed,
		firstVolleyTick: firstTick(entries, "volley_hit"),
		firstChargeTick: firstTick(entries, "charge_impact"),
		firstMeleeTick:  firstTick(entries, "melee_clash"),
		firstRoutTick:   firstTick(entries, "unit_routed"),
		firstKillTick:   firstTick(entries, "unit_destroyed"),
		gameOverTick:    firstTick(entries, "game_over"),
		volleyHits:      blog.CountCategory("combat", "volley_hit"),
		volleyMisses:    blog.CountCategory("combat", "volley_miss"),
		cannonImpacts:   blog.CountCategory("combat", "projectile_impact"),
		meleeClashes:    blog.CountCategory("combat", "melee_clash"),
		chargeImpacts:   blog.CountCategory("combat", "charge_impact"),
		routs:           blog.CountCategory("state", "unit_routed"),
		kills:           blog.CountCategory("state", "unit_destroyed"),
		fielded:         fielded,
		lost:            lost,
		outcome:         battle.DetermineOutcome(w),
		timeline:        rep.Format(),
	}
}

// deployArmy fields n units in columns anchored to one side, with a
// fixed infantry-heavy composition and the guns a step behind.
func deployArmy(w *battle.World, team battle.Team, n int, anchorX float64) []int {
	pattern := [...]battle.UnitType{
		battle.UnitInfantry,
		battle.UnitInfantry,
		battle.UnitCavalry,
		battle.UnitInfantry,
		battle.UnitCannon,
		battle.UnitCavalry,
	}
	const perColumn = 8
	const rowStep = 70.0
	const colStep = 60.0

	rear := -1.0
	if team == battle.TeamBlue {
		rear = 1.0
	}
	midY := w.Tuning().FieldHeight / 2

	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ut := pattern[i%len(pattern)]
		col := float64(i / perColumn)
		row := float64(i % perColumn)
		x := anchorX + rear*col*colStep
		y := midY + (row-float64(perColumn-1)/2)*rowStep
		if ut == battle.UnitCannon {
			x += rear * 40
		}
		ids = append(ids, w.CreateUnit(ut, team, x, y))
	}
	return ids
}

func tallyStrength(w *battle.World, measure func(*battle.Unit) float64) map[battle.UnitType][2]float64 {
	out := map[battle.UnitType][2]float64{}
	for _, u := range w.Units() {
		if !u.Alive() {
			continue
		}
		v := out[u.Type]
		v[int(u.Team)] += measure(u)
		out[u.Type] = v
	}
	return out
}

func firstTick(entries []battle.BattleLogEntry, key string) int {
	for _, e := range entries {
		if e.Key == key {
			return e.Tick
		}
	}
	return -1
}

func printRun(rs runStats, timeline bool) {
	header := color.New(color.FgCyan)
	header.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)

	fmt.Printf("phase_markers: first_volley=%d first_charge=%d first_melee=%d first_rout=%d first_kill=%d game_over=%d\n",
		rs.firstVolleyTick, rs.firstChargeTick, rs.firstMeleeTick, rs.firstRoutTick, rs.firstKillTick, rs.gameOverTick)
	fmt.Printf("event_totals: volley_hit=%d volley_miss=%d cannon_impact=%d melee_clash=%d charge_impact=%d rout=%d unit_destroyed=%d\n",
		rs.volleyHits, rs.volleyMisses, rs.cannonImpacts, rs.meleeClashes, rs.chargeImpacts, rs.routs, rs.kills)

	printCasualtyTable(rs.fielded, rs.lost)

	oc := color.New(color.FgYellow)
	switch rs.outcome.Outcome {
	case battle.OutcomeRedVictory:
		oc = color.New(color.FgRed, color.Bold)
	case battle.OutcomeBlueVictory:
		oc = color.New(color.FgBlue, color.Bold)
	}
	oc.Printf("outcome: %s at t=%.1fs (red %d units / %.0f str, blue %d units / %.0f str)\n",
		rs.outcome.Description, rs.outcome.GameTime,
		rs.outcome.RedUnits, rs.outcome.RedStrength,
		rs.outcome.BlueUnits, rs.outcome.BlueStrength)

	if timeline {
		fmt.Print(rs.timeline)
	}
	fmt.Println()
}

func printCasualtyTable(fielded, lost map[battle.UnitType][2]float64) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Unit Type", "Red Fielded", "Red Lost", "Blue Fielded", "Blue Lost"}),
	)
	for _, ut := range []battle.UnitType{battle.UnitInfantry, battle.UnitCavalry, battle.UnitCannon} {
		f := fielded[ut]
		l := lost[ut]
		if f[0] == 0 && f[1] == 0 {
			continue
		}
		table.Append([]string{
			ut.String(),
			fmt.Sprintf("%.0f", f[0]),
			fmt.Sprintf("%.1f", l[0]),
			fmt.Sprintf("%.0f", f[1]),
			fmt.Sprintf("%.1f", l[1]),
		})
	}
	table.Render()
}

func printAggregate(all []runStats) {
	title := color.New(color.FgCyan, color.Bold)
	title.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))

	totalHits := 0
	totalMisses := 0
	totalMelee := 0
	totalCharges := 0
	totalRouts := 0
	totalKills := 0
	outcomes := map[battle.BattleOutcome]int{}

	volleyTicks := make([]int, 0, len(all))
	meleeTicks := make([]int, 0, len(all))
	overTicks := make([]int, 0, len(all))

	aggFielded := map[battle.UnitType][2]float64{}
	aggLost := map[battle.UnitType][2]float64{}

	for _, rs := range all {
		totalHits += rs.volleyHits
		totalMisses += rs.volleyMisses
		totalMelee += rs.meleeClashes
		totalCharges += rs.chargeImpacts
		totalRouts += rs.routs
		totalKills += rs.kills
		outcomes[rs.outcome.Outcome]++
		if rs.firstVolleyTick >= 0 {
			volleyTicks = append(volleyTicks, rs.firstVolleyTick)
		}
		if rs.firstMeleeTick >= 0 {
			meleeTicks = append(meleeTicks, rs.firstMeleeTick)
		}
		if rs.gameOverTick >= 0 {
			overTicks = append(overTicks, rs.gameOverTick)
		}
		for ut, v := range rs.fielded {
			a := aggFielded[ut]
			a[0] += v[0]
			a[1] += v[1]
			aggFielded[ut] = a
		}
		for ut, v := range rs.lost {
			a := aggLost[ut]
			a[0] += v[0]
			a[1] += v[1]
			aggLost[ut] = a
		}
	}

	n := len(all)
	fmt.Printf("avg_events_per_run: volley_hit=%.1f volley_miss=%.1f melee_clash=%.1f charge_impact=%.1f rout=%.1f unit_destroyed=%.1f\n",
		avg(totalHits, n), avg(totalMisses, n), avg(totalMelee, n), avg(totalCharges, n), avg(totalRouts, n), avg(totalKills, n))
	fmt.Printf("phase_marker_avg_ticks: first_volley=%s first_melee=%s game_over=%s\n",
		avgTickString(volleyTicks), avgTickString(meleeTicks), avgTickString(overTicks))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Outcome", "Runs"}),
	)
	for _, o := range []battle.BattleOutcome{battle.OutcomeRedVictory, battle.OutcomeBlueVictory, battle.OutcomeDraw, battle.OutcomeOngoing} {
		if outcomes[o] == 0 {
			continue
		}
		table.Append([]string{o.String(), fmt.Sprintf("%d", outcomes[o])})
	}
	table.Render()

	fmt.Println("\ncumulative casualties across runs:")
	printCasualtyTable(aggFielded, aggLost)
}

func avg(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
