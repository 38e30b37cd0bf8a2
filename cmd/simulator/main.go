// Package main provides a headless duel simulator that runs one combat agent
// against a scripted opponent and reports the outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brawler/internal/config"
	"github.com/cory-johannsen/brawler/internal/game/ability"
	"github.com/cory-johannsen/brawler/internal/game/sim"
	"github.com/cory-johannsen/brawler/internal/observability"
	"github.com/cory-johannsen/brawler/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	abilitiesDir := flag.String("abilities", "", "ability catalogue directory; overrides content.abilities_dir")
	scriptsDir := flag.String("scripts", "", "Lua predicate root; overrides content.scripts_dir")
	catalogueID := flag.String("catalogue", "", "catalogue the agent fights with; overrides content.catalogue")
	ticks := flag.Int("ticks", 0, "number of steps to run; 0 = simulation.duration")
	seed := flag.Uint64("seed", 0, "random seed; 0 = simulation.seed")
	realtime := flag.Bool("realtime", false, "step on the wall clock instead of as fast as possible")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *abilitiesDir != "" {
		cfg.Content.AbilitiesDir = *abilitiesDir
	}
	if *scriptsDir != "" {
		cfg.Content.ScriptsDir = *scriptsDir
	}
	if *catalogueID != "" {
		cfg.Content.Catalogue = *catalogueID
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	steps := *ticks
	if steps <= 0 {
		steps = cfg.Simulation.Ticks()
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()
	agentLogger := observability.ForAgent(logger, cfg)

	catalogues, err := ability.LoadCatalogues(cfg.Content.AbilitiesDir)
	if err != nil {
		logger.Fatal("loading ability catalogues", zap.Error(err))
	}
	var cat *ability.Catalogue
	for _, c := range catalogues {
		if c.ID == cfg.Content.Catalogue {
			cat = c
		}
	}
	if cat == nil {
		logger.Fatal("catalogue not found",
			zap.String("catalogue", cfg.Content.Catalogue),
			zap.String("dir", cfg.Content.AbilitiesDir),
		)
	}
	logger.Info("loaded ability catalogue",
		zap.String("catalogue", cat.ID),
		zap.Int("abilities", len(cat.Abilities)),
	)

	opts := []sim.Option{sim.WithLogger(agentLogger)}
	if cfg.Content.ScriptsDir != "" {
		dir := filepath.Join(cfg.Content.ScriptsDir, cat.ID)
		if _, err := os.Stat(dir); err == nil {
			scriptMgr := scripting.NewManager(cfg.Content.InstructionLimit, logger)
			defer scriptMgr.Close()
			if err := scriptMgr.LoadScope(cat.ID, dir); err != nil {
				logger.Fatal("loading ability scripts", zap.Error(err))
			}
			opts = append(opts, sim.WithScripts(scriptMgr, cat.ID))
		} else {
			logger.Info("no ability scripts for catalogue", zap.String("dir", dir))
		}
	}

	duel, err := sim.NewDuel(cfg, cat.Abilities, opts...)
	if err != nil {
		logger.Fatal("creating duel", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting duel",
		zap.String("agent", duel.Agent().ID()),
		zap.String("opponent", duel.Opponent().ID()),
		zap.Int("ticks", steps),
		zap.Uint64("seed", cfg.Simulation.Seed),
		zap.Bool("realtime", *realtime),
	)

	var res sim.Result
	if *realtime {
		res, err = runRealtime(ctx, duel, cfg.Simulation.TickDuration(), steps, logger)
	} else {
		res, err = duel.Run(ctx, steps)
	}
	if err != nil {
		logger.Warn("duel interrupted", zap.Error(err))
	}

	s := res.Stats
	fmt.Fprintf(os.Stdout, "%s\n", res.Snapshot)
	fmt.Fprintf(os.Stdout, "winner=%q ticks=%d elapsed=%v\n", res.Winner, res.Ticks, res.Elapsed)
	fmt.Fprintf(os.Stdout, "attacks=%d punishes=%d hits=%d whiffs=%d dodged=%d interrupted=%d longest_combo=%d\n",
		s.Attacks, s.Punishes, s.Hits, s.Whiffs, s.Dodged, s.Interrupted, s.LongestCombo)
	fmt.Fprintf(os.Stdout, "poise_breaks=%d phase_changes=%d opponent_hits=%d opponent_heals=%d deaths=%d revives=%d [%s]\n",
		s.PoiseBreaks, s.PhaseChanges, s.OpponentHits, s.OpponentHeals, s.Deaths, s.Revives, time.Since(start))
}

// runRealtime paces duel on the wall clock, logging a snapshot once per
// simulated second.
func runRealtime(ctx context.Context, duel *sim.Duel, interval time.Duration, steps int, logger *zap.Logger) (sim.Result, error) {
	perSecond := max(1, int(time.Second/interval))
	return sim.NewPacer(duel, interval, func(d *sim.Duel) {
		if d.Ticks()%perSecond == 0 {
			logger.Info("duel progress", zap.Object("agent", d.Agent().DebugSnapshot()))
		}
	}).Run(ctx, steps)
}
