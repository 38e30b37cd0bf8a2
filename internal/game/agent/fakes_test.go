package agent_test

import (
	"time"

	"github.com/cory-johannsen/brawler/internal/game/ability"
	"github.com/cory-johannsen/brawler/internal/game/agent"
	"github.com/cory-johannsen/brawler/internal/game/dice"
	"github.com/cory-johannsen/brawler/internal/geom"
)

const tick = 100 * time.Millisecond

// helper is satisfied by both *testing.T and *rapid.T.
type helper interface{ Helper() }

// constSource returns v for every roll. v = 0 passes every Chance with p > 0
// and always picks the first candidate.
type constSource struct{ v float64 }

func (c constSource) Intn(n int) int   { return int(c.v * float64(n)) }
func (c constSource) Float64() float64 { return c.v }

type fakeBody struct {
	pos, fwd  geom.Vec3
	moves     []geom.Vec3
	stops     int
	speed     float64
	rotations []float64
}

func (b *fakeBody) Position() geom.Vec3 { return b.pos }
func (b *fakeBody) Forward() geom.Vec3  { return b.fwd }
func (b *fakeBody) MoveTo(p geom.Vec3, _ float64) {
	b.moves = append(b.moves, p)
}
func (b *fakeBody) Stop()                 { b.stops++ }
func (b *fakeBody) SetMaxSpeed(s float64) { b.speed = s }

// RotateToward snaps the facing onto p.
func (b *fakeBody) RotateToward(p geom.Vec3, degPerSec float64) {
	b.rotations = append(b.rotations, degPerSec)
	if dir := p.Sub(b.pos).Flat().Normalize(); dir.Len() > 0 {
		b.fwd = dir
	}
}

type fakeActor struct {
	id         string
	pos        geom.Vec3
	health     float64
	dead       bool
	recovering bool
	evading    bool
}

func (a *fakeActor) ID() string                       { return a.id }
func (a *fakeActor) Position() geom.Vec3              { return a.pos }
func (a *fakeActor) HealthFraction() float64          { return a.health }
func (a *fakeActor) IsDead() bool                     { return a.dead }
func (a *fakeActor) IsPerformingRecoveryAction() bool { return a.recovering }
func (a *fakeActor) IsPerformingEvasiveAction() bool  { return a.evading }

type fakePerception struct {
	body     *fakeBody
	hostiles []*fakeActor
	blocked  bool
}

func (p *fakePerception) FindNearestHostile(radius float64) (agent.Actor, bool) {
	var best *fakeActor
	for _, h := range p.hostiles {
		d := p.body.pos.Dist(h.pos)
		if d > radius {
			continue
		}
		if best == nil || d < p.body.pos.Dist(best.pos) {
			best = h
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func (p *fakePerception) LineOfSightClear(geom.Vec3) bool { return !p.blocked }

func (p *fakePerception) DistanceTo(a agent.Actor) float64 {
	return p.body.pos.Dist(a.Position())
}

type fakeAnim struct {
	plays     []string
	callbacks []func(bool)
	refuse    bool
	playing   bool
}

func (a *fakeAnim) PlayClip(ref string, onComplete func(bool)) bool {
	if a.refuse {
		return false
	}
	a.plays = append(a.plays, ref)
	a.callbacks = append(a.callbacks, onComplete)
	return true
}

func (a *fakeAnim) IsAnyClipPlaying() bool { return a.playing }

// finish completes the most recent clip.
func (a *fakeAnim) finish(interrupted bool) {
	if len(a.callbacks) == 0 {
		return
	}
	cb := a.callbacks[len(a.callbacks)-1]
	a.callbacks = a.callbacks[:len(a.callbacks)-1]
	cb(interrupted)
}

type fakeSelf struct {
	health float64
	dead   bool
	poise  []func(bool)
}

func (s *fakeSelf) HealthFraction() float64 { return s.health }
func (s *fakeSelf) IsDead() bool            { return s.dead }
func (s *fakeSelf) SubscribePoiseBroken(fn func(bool)) {
	s.poise = append(s.poise, fn)
}

type harness struct {
	agent    *agent.Agent
	body     *fakeBody
	sense    *fakePerception
	anim     *fakeAnim
	self     *fakeSelf
	opponent *fakeActor
	events   []agent.Event
}

func defaultAbilities() []*ability.Descriptor {
	return []*ability.Descriptor{
		{ID: "slash", Clip: "slash", Weight: 1, MaxDistance: 3},
		{ID: "leap", Clip: "leap", Weight: 1, GapCloser: true, MinDistance: 5, MaxDistance: 12},
	}
}

// newHarness builds an agent at the origin facing +X with one hostile
// opponent at opp.
func newHarness(t helper, cfg agent.Config, src dice.Source, opp geom.Vec3, abs ...*ability.Descriptor) *harness {
	t.Helper()
	if len(abs) == 0 {
		abs = defaultAbilities()
	}
	body := &fakeBody{fwd: geom.V(1, 0, 0)}
	h := &harness{
		body:     body,
		sense:    &fakePerception{body: body},
		anim:     &fakeAnim{},
		self:     &fakeSelf{health: 1},
		opponent: &fakeActor{id: "player", pos: opp, health: 1},
	}
	h.sense.hostiles = []*fakeActor{h.opponent}
	roller := dice.NewLoggedRoller(src, nil)
	h.agent = agent.New("knight-1", cfg, agent.Deps{
		Body:       body,
		Perception: h.sense,
		Animation:  h.anim,
		Self:       h.self,
		Abilities:  ability.NewSelector(abs, src),
		Roller:     roller,
	})
	h.agent.Subscribe(func(e agent.Event) { h.events = append(h.events, e) })
	return h
}

func (h *harness) tickN(n int) {
	for i := 0; i < n; i++ {
		h.agent.Tick(tick)
	}
}

// tickUntil ticks until cond holds or max ticks pass.
func (h *harness) tickUntil(max int, cond func() bool) bool {
	for i := 0; i < max; i++ {
		if cond() {
			return true
		}
		h.agent.Tick(tick)
	}
	return cond()
}

func (h *harness) eventsOf(kind agent.EventKind) []agent.Event {
	var out []agent.Event
	for _, e := range h.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// aggressiveConfig always attacks immediately, never feints or winds up.
func aggressiveConfig() agent.Config {
	cfg := agent.DefaultConfig()
	cfg.Aggression.Base = new(1.0)
	cfg.Aggression.PerPhase = new(0.1)
	cfg.FeintChance = -1
	cfg.WindUpChance = -1
	cfg.ComboChance = -1
	cfg.CooldownRepositionRate = -1
	return cfg
}
