package agent

import (
	"time"

	"github.com/ojrac/opensimplex-go"
	"go.uber.org/zap"

	"github.com/cory-johannsen/brawler/internal/game/ability"
	"github.com/cory-johannsen/brawler/internal/game/dice"
	"github.com/cory-johannsen/brawler/internal/geom"
)

// Deps are the collaborators an Agent drives and reads.
type Deps struct {
	Body       Locomotion
	Perception Perception
	Animation  Animation
	Self       Self
	Abilities  *ability.Selector
	Roller     *dice.Roller
	// Logger may be nil.
	Logger *zap.Logger
}

// Agent is the decision core for one combat NPC. It is advanced by Tick and
// is not safe for concurrent use.
//
// Invariant: state is left only through setState, and Dead is left only
// through ResetFromDeath.
// Invariant: sub is SubNone whenever state != StateCombat.
// Invariant: tracker.phase is TrackingNone whenever sub != SubAttacking.
type Agent struct {
	id     string
	cfg    Config
	body   Locomotion
	sense  Perception
	anim   Animation
	self   Self
	skills *ability.Selector
	roller *dice.Roller
	logger *zap.Logger
	subs   listeners

	spawn geom.Vec3
	now   time.Duration
	dt    time.Duration

	state      State
	stateSince time.Duration
	sub        CombatSubState
	subSince   time.Duration
	tracker    attackTracker
	boss       bossPhaser
	aggression float64

	target       targetHandle
	lastKnown    geom.Vec3
	hasLastKnown bool
	lastSeen     time.Duration
	reader       opponentReader

	inGrace    bool
	graceUntil time.Duration

	attackDelayMin time.Duration
	attackDelayMax time.Duration
	nextAttackAt   time.Duration
	nextGapCheckAt time.Duration

	combo        int
	comboPending bool
	comboReadyAt time.Duration

	pending        *ability.Descriptor
	windUpExtended bool
	current        *ability.Descriptor
	currentPunish  bool
	attackToken    uint64

	strafeDir        int
	nextRepositionAt time.Duration

	uninterruptableFor time.Duration

	waypoint     int
	waiting      bool
	waitingSince time.Duration

	noise      opensimplex.Noise
	roamStep   int
	nextRoamAt time.Duration
}

// New constructs an Agent in Idle at the body's current position.
//
// Precondition: every Deps field except Logger must be non-nil.
// Postcondition: cfg has been passed through WithDefaults; if deps.Self
// implements PoiseNotifier the agent is subscribed to it.
func New(id string, cfg Config, deps Deps) *Agent {
	switch {
	case deps.Body == nil:
		panic("agent.New: Body must not be nil")
	case deps.Perception == nil:
		panic("agent.New: Perception must not be nil")
	case deps.Animation == nil:
		panic("agent.New: Animation must not be nil")
	case deps.Self == nil:
		panic("agent.New: Self must not be nil")
	case deps.Abilities == nil:
		panic("agent.New: Abilities must not be nil")
	case deps.Roller == nil:
		panic("agent.New: Roller must not be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults()
	a := &Agent{
		id:     id,
		cfg:    cfg,
		body:   deps.Body,
		sense:  deps.Perception,
		anim:   deps.Animation,
		self:   deps.Self,
		skills: deps.Abilities,
		roller: deps.Roller,
		logger: logger.With(zap.String("agent", id)),
		spawn:  deps.Body.Position(),
		state:  StateIdle,
	}
	a.tracker.cfg = cfg.Tracking
	a.boss.cfg = cfg.BossPhases
	a.reader.cfg = cfg.Punish
	a.noise = opensimplex.NewNormalized(cfg.Roam.Seed)
	a.resetRuntime()
	if pn, ok := deps.Self.(PoiseNotifier); ok {
		pn.SubscribePoiseBroken(func(broken bool) {
			if broken {
				a.TriggerPoiseBroken()
			}
		})
	}
	return a
}

// resetRuntime restores every timer, counter and cached decision to its
// spawn value. It does not touch state or the virtual clock.
func (a *Agent) resetRuntime() {
	a.boss.reset()
	a.aggression = aggressionFor(a.cfg.Aggression, PhaseOne)
	a.attackDelayMin = a.cfg.AttackDelayMin
	a.attackDelayMax = a.cfg.AttackDelayMax
	a.nextAttackAt = 0
	a.nextGapCheckAt = 0
	a.combo = 0
	a.comboPending = false
	a.comboReadyAt = 0
	a.pending = nil
	a.windUpExtended = false
	a.current = nil
	a.currentPunish = false
	a.attackToken++
	a.tracker.end()
	a.sub = SubNone
	a.subSince = a.now
	a.reader.reset()
	a.skills.Reset()
	a.strafeDir = 1
	a.nextRepositionAt = 0
	a.uninterruptableFor = 0
	a.waypoint = 0
	a.waiting = false
	a.hasLastKnown = false
	a.inGrace = false
	a.target.clear()
}

// Subscribe registers l for every subsequent event and returns a function
// that removes it.
func (a *Agent) Subscribe(l Listener) (unsubscribe func()) {
	return a.subs.add(l)
}

func (a *Agent) emit(e Event) {
	e.AgentID = a.id
	e.At = a.now
	a.subs.emit(e)
}

// Tick advances the agent by dt of virtual time.
//
// Order within a tick: death check, grace expiry, target search and
// validation, boss phase check, state tick, attack tracking.
func (a *Agent) Tick(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	a.dt = dt
	a.now += dt

	if a.state != StateDead && a.self.IsDead() {
		a.OnDeath()
	}
	if a.state == StateDead {
		return
	}
	if a.inGrace && a.now >= a.graceUntil {
		a.inGrace = false
		a.logger.Debug("reacquisition grace expired")
	}
	// An acquisition this tick leaves the new state's first update to the
	// next tick.
	before := a.state
	a.senseTargets()
	if a.state != before {
		return
	}
	if a.cfg.Boss && a.state == StateCombat {
		a.checkBossPhase()
	}

	switch a.state {
	case StateIdle:
		a.tickIdle()
	case StatePatrol:
		a.tickPatrol()
	case StateRandomRoam:
		a.tickRoam()
	case StateInvestigating:
		a.tickInvestigating()
	case StateCombat:
		a.tickCombat()
	case StatePoiseBroken:
		a.tickPoiseBroken()
	case StateUninterruptable:
		a.tickUninterruptable()
	case StateOutOfBounds:
		a.tickOutOfBounds()
	}

	if a.state == StateCombat && a.sub == SubAttacking {
		a.updateTracking(dt)
	}
}

// setState performs a top-level transition.
//
// Postcondition: returns false without side effects when next equals the
// current state, when the agent is Dead, or when a boss is sent OutOfBounds.
func (a *Agent) setState(next State) bool {
	if next == a.state || a.state == StateDead {
		return false
	}
	if next == StateOutOfBounds && a.cfg.Boss {
		return false
	}
	a.transition(next)
	return true
}

func (a *Agent) transition(next State) {
	prev := a.state
	a.exitState(prev)
	a.state = next
	a.stateSince = a.now
	a.enterState(next)
	a.logger.Info("state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
		zap.Duration("at", a.now),
	)
	a.emit(Event{Kind: EventStateChanged, From: prev, To: next})
}

func (a *Agent) exitState(s State) {
	switch s {
	case StateCombat:
		a.cancelAttack()
		a.setSub(SubNone)
		a.combo = 0
		a.comboPending = false
	case StatePatrol:
		a.waiting = false
	}
}

func (a *Agent) enterState(s State) {
	switch s {
	case StateIdle:
		a.body.Stop()
	case StatePatrol:
		a.body.SetMaxSpeed(a.cfg.WalkSpeed)
		a.moveToWaypoint()
	case StateRandomRoam:
		a.body.SetMaxSpeed(a.cfg.WalkSpeed)
		a.nextRoamAt = a.now
	case StateInvestigating:
		a.body.SetMaxSpeed(a.cfg.RunSpeed)
		if a.hasLastKnown {
			a.body.MoveTo(a.lastKnown, a.cfg.ArrivalTolerance)
		} else {
			a.body.Stop()
		}
	case StateCombat:
		a.aggression = aggressionFor(a.cfg.Aggression, a.boss.phase)
		a.lastSeen = a.now
		a.nextGapCheckAt = a.now
		a.setSub(SubEngaging)
	case StatePoiseBroken:
		a.body.Stop()
		a.combo = 0
		a.comboPending = false
	case StateUninterruptable:
		a.body.Stop()
	case StateOutOfBounds:
		a.target.clear()
		a.hasLastKnown = false
		a.body.SetMaxSpeed(a.cfg.RunSpeed)
		a.body.MoveTo(a.spawn, a.cfg.ReturnTolerance)
	case StateDead:
		a.body.Stop()
		a.pending = nil
		a.tracker.end()
		a.target.clear()
		a.hasLastKnown = false
		if a.cfg.Boss {
			a.logger.Info("boss encounter ended", zap.Stringer("phase", a.boss.phase))
			a.emit(Event{Kind: EventBossEncounterEnded, ToPhase: a.boss.phase})
		}
	}
}

// setSub performs a combat sub-state transition.
func (a *Agent) setSub(next CombatSubState) {
	if next == a.sub {
		return
	}
	prev := a.sub
	switch prev {
	case SubAttacking:
		a.tracker.end()
	case SubWindingUp:
		a.windUpExtended = false
	}
	a.sub = next
	a.subSince = a.now
	switch next {
	case SubAttacking:
		a.tracker.begin()
	case SubWindingUp:
		a.windUpExtended = false
	case SubPositioning:
		a.nextRepositionAt = a.now
	case SubNone:
		a.pending = nil
	}
	a.logger.Debug("combat sub-state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)
	a.emit(Event{Kind: EventSubStateChanged, FromSub: prev, ToSub: next})
}

// cancelAttack invalidates the in-flight attack, if any, so its completion
// callback is ignored.
func (a *Agent) cancelAttack() {
	a.pending = nil
	if a.current == nil {
		return
	}
	ab := a.current
	a.current = nil
	a.attackToken++
	a.emit(Event{Kind: EventAttackEnded, AbilityID: ab.ID, Punish: a.currentPunish, Interrupted: true})
	a.currentPunish = false
}

// OnDeath moves the agent to Dead from any state.
func (a *Agent) OnDeath() {
	if a.state == StateDead {
		return
	}
	a.transition(StateDead)
}

// ResetFromDeath revives a Dead agent into Idle with every timer, counter and
// cached decision reinitialized, then immediately searches for a target with
// the expanded reacquisition radius.
//
// Postcondition: returns false and does nothing unless the agent is Dead.
func (a *Agent) ResetFromDeath() bool {
	if a.state != StateDead {
		return false
	}
	a.resetRuntime()
	a.transition(StateIdle)
	a.inGrace = true
	a.graceUntil = a.now + a.cfg.ReacquireGrace
	a.logger.Info("revived", zap.Duration("grace", a.cfg.ReacquireGrace))
	a.acquireTarget()
	return true
}

// TriggerPoiseBroken staggers the agent. A repeated break restarts the
// stagger timer.
//
// Postcondition: returns false when the agent is Dead or Uninterruptable.
func (a *Agent) TriggerPoiseBroken() bool {
	switch a.state {
	case StateDead, StateUninterruptable:
		return false
	case StatePoiseBroken:
		a.stateSince = a.now
		return true
	}
	return a.setState(StatePoiseBroken)
}

// EnterUninterruptable makes the agent ignore poise breaks for d.
//
// Postcondition: returns false when the agent is Dead or d <= 0.
func (a *Agent) EnterUninterruptable(d time.Duration) bool {
	if a.state == StateDead || d <= 0 {
		return false
	}
	a.uninterruptableFor = d
	if a.state == StateUninterruptable {
		a.stateSince = a.now
		return true
	}
	return a.setState(StateUninterruptable)
}

// SetTarget assigns the opponent. It is validated on every use.
func (a *Agent) SetTarget(t Actor) {
	if t == nil {
		a.ClearTarget()
		return
	}
	if a.state == StateDead {
		return
	}
	a.target.set(t)
	a.noteSeen(t)
}

// ClearTarget drops the current opponent.
func (a *Agent) ClearTarget() {
	a.target.clear()
}

// Target returns the current opponent if it is still valid.
func (a *Agent) Target() (Actor, bool) { return a.target.get() }

func (a *Agent) noteSeen(t Actor) {
	a.lastKnown = t.Position()
	a.hasLastKnown = true
	a.lastSeen = a.now
}

// detectionRadius is the acquisition radius, expanded during grace.
func (a *Agent) detectionRadius() float64 {
	if a.inGrace {
		return a.cfg.DetectionRadius * a.cfg.ReacquireRadiusFactor
	}
	return a.cfg.DetectionRadius
}

func (a *Agent) inFieldOfView(p geom.Vec3) bool {
	if a.cfg.FieldOfView >= 360 {
		return true
	}
	dir := p.Sub(a.body.Position()).Flat()
	if dir.Len() == 0 {
		return true
	}
	return geom.AngleBetween(a.body.Forward(), dir) <= a.cfg.FieldOfView/2
}

// canSee applies the acquisition gates to t: range, line of sight, and the
// field-of-view cone outside the grace window.
func (a *Agent) canSee(t Actor) bool {
	if a.sense.DistanceTo(t) > a.detectionRadius() {
		return false
	}
	if !a.sense.LineOfSightClear(t.Position()) {
		return false
	}
	return a.inGrace || a.inFieldOfView(t.Position())
}

// acquireTarget polls perception for a hostile and engages it when visible.
func (a *Agent) acquireTarget() bool {
	found, ok := a.sense.FindNearestHostile(a.detectionRadius())
	if !ok || found == nil {
		return false
	}
	h := targetHandle{actor: found}
	t, ok := h.get()
	if !ok || !a.canSee(t) {
		return false
	}
	a.target.set(t)
	a.noteSeen(t)
	a.logger.Debug("target acquired",
		zap.String("target", t.ID()),
		zap.Bool("grace", a.inGrace),
	)
	return a.setState(StateCombat)
}

func (a *Agent) senseTargets() {
	switch a.state {
	case StateIdle, StatePatrol, StateRandomRoam, StateInvestigating:
		if t, ok := a.target.get(); ok {
			if a.canSee(t) {
				a.noteSeen(t)
				a.setState(StateCombat)
			}
			return
		}
		a.target.clear()
		a.acquireTarget()
	}
}

func (a *Agent) checkBossPhase() {
	prev := a.boss.phase
	next, changed := a.boss.check(a.self.HealthFraction())
	if !changed {
		return
	}
	a.aggression = aggressionFor(a.cfg.Aggression, next)
	if next == PhaseEnraged {
		a.attackDelayMin, a.attackDelayMax = enrageDelays(a.attackDelayMin, a.attackDelayMax, a.cfg.AttackDelayFloor)
		if a.nextAttackAt > a.now+a.attackDelayMax {
			a.nextAttackAt = a.now + a.attackDelayMax
		}
	}
	a.logger.Debug("boss phase changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
		zap.Float64("aggression", a.aggression),
	)
	a.emit(Event{Kind: EventBossPhaseChanged, FromPhase: prev, ToPhase: next})
	if a.cfg.BossPhases.TransitionDuration > 0 {
		a.EnterUninterruptable(a.cfg.BossPhases.TransitionDuration)
	}
}

func (a *Agent) updateTracking(dt time.Duration) {
	rate := a.tracker.advance(dt)
	if rate <= 0 {
		return
	}
	if t, ok := a.target.get(); ok {
		a.body.RotateToward(t.Position(), rate)
	}
}

// returnToFightOrIdle resumes Combat when the target is still valid.
func (a *Agent) returnToFightOrIdle() {
	if _, ok := a.target.get(); ok {
		a.setState(StateCombat)
		return
	}
	a.target.clear()
	a.setState(StateIdle)
}

// ID returns the agent's identifier.
func (a *Agent) ID() string { return a.id }

// State returns the top-level state.
func (a *Agent) State() State { return a.state }

// SubState returns the combat sub-state; SubNone outside Combat.
func (a *Agent) SubState() CombatSubState { return a.sub }

// TrackingPhase returns the current attack tracking phase.
func (a *Agent) TrackingPhase() TrackingPhase { return a.tracker.phase }

// BossPhase returns the current boss phase; always PhaseOne for non-bosses.
func (a *Agent) BossPhase() BossPhase { return a.boss.phase }

// Aggression returns the current aggression in [0, 1].
func (a *Agent) Aggression() float64 { return a.aggression }

// Combo returns the number of hits in the current combo string.
func (a *Agent) Combo() int { return a.combo }

// AttackDelays returns the current minimum and maximum attack delay.
func (a *Agent) AttackDelays() (time.Duration, time.Duration) {
	return a.attackDelayMin, a.attackDelayMax
}

// Now returns the agent's virtual clock.
func (a *Agent) Now() time.Duration { return a.now }

// Spawn returns the position the agent leashes to.
func (a *Agent) Spawn() geom.Vec3 { return a.spawn }

// Config returns the effective configuration.
func (a *Agent) Config() Config { return a.cfg }
