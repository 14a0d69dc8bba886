package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brabrak1/Napoleonic-Game/internal/ai"
	"github.com/brabrak1/Napoleonic-Game/internal/battle"
	"github.com/brabrak1/Napoleonic-Game/internal/config"
	"github.com/brabrak1/Napoleonic-Game/internal/logging"
	"github.com/brabrak1/Napoleonic-Game/internal/netsync"
)

// deploymentGrace is how long the host leaves the deployment scene open
// after a guest connects. The guest deploys on connect, so this only
// needs to cover the trip.
const deploymentGrace = 3 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configDir string
		mode      string
		listen    string
		connect   string
		redN      int
		blueN     int
		aiSides   string
		seed      int64
		duration  float64
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "skirmish",
		Short: "Napoleonic line battle: run it solo or sync two machines",
		Long: `skirmish runs the real-time battle simulation. Single mode fields
both armies locally. Host mode serves the authoritative battle over a
websocket; guest mode connects to a host and follows its state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLog := logging.New(logLevel)
			cfg, err := config.Load(configDir, bootLog)
			if err != nil {
				return err
			}

			// Flags outrank the file and environment.
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("connect") {
				cfg.Connect = connect
			}
			if cmd.Flags().Changed("red") {
				cfg.RedArmy = redN
			}
			if cmd.Flags().Changed("blue") {
				cfg.BlueArmy = blueN
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("duration") {
				cfg.Duration = duration
			}
			if cmd.Flags().Changed("ai") {
				cfg.AISides = aiSides
			}

			if cfg.RedArmy < 1 || cfg.RedArmy > 60 || cfg.BlueArmy < 1 || cfg.BlueArmy > 60 {
				return fmt.Errorf("army sizes must be between 1 and 60")
			}
			switch cfg.AISides {
			case "red", "blue", "both", "none":
			default:
				return fmt.Errorf("unknown --ai %q (red, blue, both, none)", cfg.AISides)
			}

			log := logging.New(cfg.LogLevel)
			switch mode {
			case "single":
				return runSingle(cfg, log)
			case "host":
				return runHost(cfg, log)
			case "guest":
				return runGuest(cfg, log)
			default:
				return fmt.Errorf("unknown --mode %q (single, host, guest)", mode)
			}
		},
	}

	cmd.Flags().StringVar(&configDir, "config", "", "directory holding skirmish.yaml")
	cmd.Flags().StringVar(&mode, "mode", "single", "single, host, or guest")
	cmd.Flags().StringVar(&listen, "listen", ":8080", "host mode listen address")
	cmd.Flags().StringVar(&connect, "connect", "ws://127.0.0.1:8080/ws", "guest mode host URL")
	cmd.Flags().IntVar(&redN, "red", 6, "red units fielded")
	cmd.Flags().IntVar(&blueN, "blue", 6, "blue units fielded")
	cmd.Flags().StringVar(&aiSides, "ai", "both", "teams under AI command: red, blue, both, none")
	cmd.Flags().Int64Var(&seed, "seed", 1, "battle RNG seed")
	cmd.Flags().Float64Var(&duration, "duration", 0, "battle time cap in seconds, 0 = to the last man")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn, error")
	return cmd
}

type placement struct {
	ut   battle.UnitType
	x, y float64
}

// armyPlacements lays n units out in columns anchored to one side, guns
// a step toward the rear.
func armyPlacements(team battle.Team, n int, anchorX, fieldHeight float64) []placement {
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

	out := make([]placement, 0, n)
	for i := 0; i < n; i++ {
		ut := pattern[i%len(pattern)]
		col := float64(i / perColumn)
		row := float64(i % perColumn)
		x := anchorX + rear*col*colStep
		y := fieldHeight/2 + (row-float64(perColumn-1)/2)*rowStep
		if ut == battle.UnitCannon {
			x += rear * 40
		}
		out = append(out, placement{ut: ut, x: x, y: y})
	}
	return out
}

func commanders(cfg config.Config, log zerolog.Logger) []*ai.Commander {
	var cmds []*ai.Commander
	if cfg.AIControls(battle.TeamRed) {
		cmds = append(cmds, ai.NewCommander(battle.TeamRed, ai.DefaultDoctrine(), log))
	}
	if cfg.AIControls(battle.TeamBlue) {
		cmds = append(cmds, ai.NewCommander(battle.TeamBlue, ai.DefaultDoctrine(), log))
	}
	return cmds
}

func printOutcome(w *battle.World) {
	rep := battle.DetermineOutcome(w)
	oc := color.New(color.FgYellow, color.Bold)
	switch rep.Outcome {
	case battle.OutcomeRedVictory:
		oc = color.New(color.FgRed, color.Bold)
	case battle.OutcomeBlueVictory:
		oc = color.New(color.FgBlue, color.Bold)
	}
	oc.Printf("outcome: %s at t=%.1fs\n", rep.Description, rep.GameTime)
	fmt.Printf("red: %d units, %.0f strength (%d routed)\n", rep.RedUnits, rep.RedStrength, rep.RedRouted)
	fmt.Printf("blue: %d units, %.0f strength (%d routed)\n", rep.BlueUnits, rep.BlueStrength, rep.BlueRouted)
}

// runSingle fields both armies in one process and runs the battle as
// fast as it will go.
func runSingle(cfg config.Config, log zerolog.Logger) error {
	w := battle.NewWorld(cfg.BattleTuning(), cfg.Seed)

	for _, p := range armyPlacements(battle.TeamRed, cfg.RedArmy, 260, cfg.FieldHeight) {
		w.CreateUnit(p.ut, battle.TeamRed, p.x, p.y)
	}
	for _, p := range armyPlacements(battle.TeamBlue, cfg.BlueArmy, cfg.FieldWidth-260, cfg.FieldHeight) {
		w.CreateUnit(p.ut, battle.TeamBlue, p.x, p.y)
	}

	cmds := commanders(cfg, log)
	log.Info().
		Int("red", cfg.RedArmy).
		Int("blue", cfg.BlueArmy).
		Int64("seed", cfg.Seed).
		Int("commanders", len(cmds)).
		Msg("battle begins")

	// A zero duration still gets a cap so a stalemate cannot spin
	// forever without commanders driving it to contact.
	maxTicks := 60 * 3600
	if cfg.Duration > 0 {
		maxTicks = int(cfg.Duration * 60)
	}

	const dt = 1.0 / 60
	for i := 0; i < maxTicks && !w.GameOver(); i++ {
		for _, c := range cmds {
			c.Think(w)
		}
		w.Advance(dt)
	}
	if !w.GameOver() {
		log.Warn().Float64("gameTime", w.GameTime()).Msg("time cap reached before a decision")
	}

	printOutcome(w)
	return nil
}

// runHost serves the authoritative battle. The host fields red, the
// guest fields blue.
func runHost(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := battle.NewWorld(cfg.BattleTuning(), cfg.Seed)
	hub := netsync.NewHub(w, netsync.RoleHost, log)

	for _, p := range armyPlacements(battle.TeamRed, cfg.RedArmy, 260, cfg.FieldHeight) {
		if _, err := hub.Deploy(p.ut, battle.TeamRed, p.x, p.y); err != nil {
			return err
		}
	}

	connected := make(chan struct{}, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		peer := netsync.NewWSPeer(conn)
		id := hub.AttachPeer(peer)
		log.Info().Str("remote", r.RemoteAddr).Msg("guest connected")
		select {
		case connected <- struct{}{}:
		default:
		}
		go func() {
			if err := peer.ReadPump(ctx, hub); err != nil {
				log.Info().Err(err).Msg("guest read pump ended")
			}
			hub.DetachPeer(id)
		}()
	})

	server := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("listen failed")
			stop()
		}
	}()
	defer server.Close()

	log.Info().Str("listen", cfg.Listen).Msg("waiting for a guest")
	select {
	case <-connected:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Give the guest's deployment frames time to arrive before the
	// battle opens.
	select {
	case <-time.After(deploymentGrace):
	case <-ctx.Done():
		return ctx.Err()
	}
	hub.TransitionScene(netsync.SceneBattle)

	cmds := commanders(cfg, log)
	hub.OnTick(func(w *battle.World, dt float64) {
		for _, c := range cmds {
			c.Think(w)
		}
	})

	runCtx := ctx
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Duration*float64(time.Second)))
		defer cancel()
	}
	if err := hub.RunSimulation(runCtx); err != nil {
		return err
	}

	printOutcome(hub.World())
	return nil
}

// runGuest connects to a host, fields blue, and follows the host's
// state. Commanders only ever run on the host.
func runGuest(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.Connect, nil)
	if err != nil {
		return fmt.Errorf("connecting to host: %w", err)
	}
	peer := netsync.NewWSPeer(conn)
	defer peer.Close()

	w := battle.NewWorld(cfg.BattleTuning(), cfg.Seed)
	hub := netsync.NewHub(w, netsync.RoleGuest, log)
	hub.AttachPeer(peer)
	go func() {
		if err := peer.ReadPump(ctx, hub); err != nil {
			log.Info().Err(err).Msg("host read pump ended")
		}
		stop()
	}()

	for _, p := range armyPlacements(battle.TeamBlue, cfg.BlueArmy, cfg.FieldWidth-260, cfg.FieldHeight) {
		if _, err := hub.Deploy(p.ut, battle.TeamBlue, p.x, p.y); err != nil {
			return err
		}
	}
	log.Info().Str("host", cfg.Connect).Int("blue", cfg.BlueArmy).Msg("deployed, following host state")

	runCtx := ctx
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Duration*float64(time.Second)))
		defer cancel()
	}
	if err := hub.RunSimulation(runCtx); err != nil {
		return err
	}

	printOutcome(hub.World())
	return nil
}
