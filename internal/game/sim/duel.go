// Package sim runs a combat agent against a scripted opponent without an
// engine: a kinematic body, clip-timed animation, health and poise, and
// circular line-of-sight blockers.
package sim

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/brawler/internal/config"
	"github.com/cory-johannsen/brawler/internal/game/ability"
	"github.com/cory-johannsen/brawler/internal/game/agent"
	"github.com/cory-johannsen/brawler/internal/game/dice"
)

// Winner names the side that ended a duel.
type Winner string

const (
	WinnerNone     Winner = ""
	WinnerAgent    Winner = "agent"
	WinnerOpponent Winner = "opponent"
)

// Stats counts what happened during a duel.
type Stats struct {
	Attacks       int
	Punishes      int
	Hits          int
	Whiffs        int
	Dodged        int
	Interrupted   int
	LongestCombo  int
	PoiseBreaks   int
	PhaseChanges  int
	StateChanges  int
	OpponentHits  int
	OpponentHeals int
	Deaths        int
	Revives       int
}

// Result is the outcome of Run.
type Result struct {
	Winner   Winner
	Ticks    int
	Elapsed  time.Duration
	Stats    Stats
	Snapshot agent.Snapshot
}

// Option configures a Duel.
type Option func(*options)

type options struct {
	logger *zap.Logger
	src    dice.Source
	caller ability.ScriptCaller
	scope  string
}

// WithLogger sets the logger shared by the duel, agent, roller and selector.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSource replaces the seeded source built from the simulation seed.
func WithSource(src dice.Source) Option {
	return func(o *options) { o.src = src }
}

// WithScripts evaluates ability preconditions through caller in scope.
func WithScripts(caller ability.ScriptCaller, scope string) Option {
	return func(o *options) {
		o.caller = caller
		o.scope = scope
	}
}

// Duel wires one agent to a Fighter and steps both on a shared clock.
type Duel struct {
	cfg    config.SimulationConfig
	logger *zap.Logger

	agent  *agent.Agent
	body   *Body
	anim   *Animator
	vitals *Vitals
	foe    *Fighter
	world  *World

	reach  map[string]float64
	ticks  int
	now    time.Duration
	diedAt time.Duration
	stats  Stats
	winner Winner
}

// NewDuel builds a duel from cfg fighting with abilities.
//
// Precondition: cfg must have been validated.
// Postcondition: Returns a ready Duel or an error if abilities is empty.
func NewDuel(cfg config.Config, abilities []*ability.Descriptor, opts ...Option) (*Duel, error) {
	if len(abilities) == 0 {
		return nil, errors.New("sim.NewDuel: at least one ability is required")
	}
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = dice.NewSeededSource(cfg.Simulation.Seed)
	}

	s := cfg.Simulation
	d := &Duel{
		cfg:    s,
		logger: o.logger,
		body:   NewBody(s.AgentStart, s.Opponent.Start.Sub(s.AgentStart)),
		anim:   NewAnimator(s.ClipDurations, s.ClipDuration),
		vitals: NewVitals(s.AgentHealth, s.AgentPoise, s.PoiseRegen),
		foe:    NewFighter(s.Opponent),
		reach:  make(map[string]float64, len(abilities)),
	}
	d.world = NewWorld(d.body, s.Obstacles, d.foe)
	for _, ab := range abilities {
		d.reach[ab.ID] = s.AgentReach
		if ab.MaxDistance > 0 {
			d.reach[ab.ID] = ab.MaxDistance
		}
	}

	selOpts := []ability.SelectorOption{ability.WithLogger(o.logger)}
	if o.caller != nil {
		selOpts = append(selOpts, ability.WithScripts(o.caller, o.scope))
	}
	id := cfg.Agent.Name + "-" + uuid.NewString()
	d.agent = agent.New(id, cfg.Agent, agent.Deps{
		Body:       d.body,
		Perception: d.world,
		Animation:  d.anim,
		Self:       d.vitals,
		Abilities:  ability.NewSelector(abilities, o.src, selOpts...),
		Roller:     dice.NewLoggedRoller(o.src, o.logger),
		Logger:     o.logger,
	})
	d.agent.Subscribe(d.onEvent)
	return d, nil
}

func (d *Duel) Agent() *agent.Agent { return d.agent }
func (d *Duel) Opponent() *Fighter  { return d.foe }
func (d *Duel) Vitals() *Vitals     { return d.vitals }
func (d *Duel) Body() *Body         { return d.body }
func (d *Duel) Stats() Stats        { return d.stats }
func (d *Duel) Now() time.Duration  { return d.now }
func (d *Duel) Ticks() int          { return d.ticks }

// Done reports whether either side has won.
func (d *Duel) Done() bool { return d.winner != WinnerNone }

func (d *Duel) onEvent(e agent.Event) {
	d.logger.Debug("agent event",
		zap.Stringer("kind", e.Kind),
		zap.Duration("at", e.At),
		zap.Stringer("from", e.From),
		zap.Stringer("to", e.To),
		zap.Stringer("to_sub", e.ToSub),
		zap.String("ability", e.AbilityID),
	)
	switch e.Kind {
	case agent.EventStateChanged:
		d.stats.StateChanges++
		switch e.To {
		case agent.StatePoiseBroken:
			d.stats.PoiseBreaks++
			d.anim.Interrupt()
		case agent.StateDead:
			d.stats.Deaths++
			d.diedAt = d.now
			d.anim.Interrupt()
		}
	case agent.EventBossPhaseChanged:
		d.stats.PhaseChanges++
	case agent.EventAttackStarted:
		d.stats.Attacks++
		if e.Punish {
			d.stats.Punishes++
		}
		d.stats.LongestCombo = max(d.stats.LongestCombo, d.agent.Combo())
	case agent.EventAttackEnded:
		d.resolveAttack(e)
	}
}

// resolveAttack lands a finished swing if the opponent is still in reach.
func (d *Duel) resolveAttack(e agent.Event) {
	if e.Interrupted {
		d.stats.Interrupted++
		return
	}
	if d.body.Position().Dist(d.foe.Position()) > d.reach[e.AbilityID] {
		d.stats.Whiffs++
		return
	}
	if !d.foe.TakeHit(d.cfg.AgentDamage) {
		d.stats.Dodged++
		return
	}
	d.stats.Hits++
}

// Step advances the duel by dt.
//
// Order within a step: opponent, agent vitals, revive, agent decision,
// body integration, animation.
func (d *Duel) Step(dt time.Duration) {
	if d.Done() {
		return
	}
	d.now += dt
	d.ticks++

	healing := d.foe.IsPerformingRecoveryAction()
	attacking := d.agent.SubState() == agent.SubAttacking
	if hit := d.foe.Update(dt, d.body.Position(), attacking); hit != nil && !d.vitals.IsDead() {
		d.stats.OpponentHits++
		if d.vitals.TakeHit(hit.Damage, hit.PoiseDamage) {
			d.logger.Debug("agent poise broken", zap.Float64("health", d.vitals.Health()))
		}
	}
	if healing && !d.foe.IsPerformingRecoveryAction() {
		d.stats.OpponentHeals++
	}
	d.vitals.Update(dt)
	d.maybeRevive()

	d.agent.Tick(dt)
	d.body.Update(dt)
	d.anim.Update(dt)

	switch {
	case d.foe.IsDead():
		d.winner = WinnerAgent
	case d.agent.State() == agent.StateDead && d.cfg.ReviveAfter == 0:
		d.winner = WinnerOpponent
	}
	if d.Done() {
		d.logger.Info("duel over",
			zap.String("winner", string(d.winner)),
			zap.Duration("elapsed", d.now),
		)
	}
}

func (d *Duel) maybeRevive() {
	if d.cfg.ReviveAfter <= 0 || d.agent.State() != agent.StateDead || d.now-d.diedAt < d.cfg.ReviveAfter {
		return
	}
	d.vitals.Restore()
	d.body.SetPosition(d.agent.Spawn())
	if d.agent.ResetFromDeath() {
		d.stats.Revives++
		d.logger.Info("agent revived", zap.Duration("at", d.now))
	}
}

// Run steps the duel until a side wins, ticks steps elapse, or ctx is
// cancelled.
//
// Postcondition: the returned Result reflects every completed step; a
// non-nil error is ctx.Err().
func (d *Duel) Run(ctx context.Context, ticks int) (Result, error) {
	dt := d.cfg.TickDuration()
	for i := 0; i < ticks && !d.Done(); i++ {
		if err := ctx.Err(); err != nil {
			return d.Result(), err
		}
		d.Step(dt)
	}
	return d.Result(), nil
}

// Result summarizes the duel so far.
func (d *Duel) Result() Result {
	return Result{
		Winner:   d.winner,
		Ticks:    d.ticks,
		Elapsed:  d.now,
		Stats:    d.stats,
		Snapshot: d.agent.DebugSnapshot(),
	}
}
