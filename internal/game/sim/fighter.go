package sim

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/brawler/internal/config"
	"github.com/cory-johannsen/brawler/internal/geom"
)

type fighterAction int

const (
	actionNone fighterAction = iota
	actionAttack
	actionDodge
	actionHeal
)

// clip names reported to observers that only read animation state.
var actionClips = map[fighterAction]string{
	actionAttack: "player_attack_light",
	actionDodge:  "player_dodge_roll",
	actionHeal:   "player_drink_estus",
}

// Hit is damage the fighter lands on its foe.
type Hit struct {
	Damage      float64
	PoiseDamage float64
}

// Fighter is a scripted stand-in for a player. It closes distance, attacks
// on an interval while stepping into the swing, rolls away from incoming
// attacks, and heals when low.
// It satisfies agent.Actor, agent.ActionReporter, agent.ClipReporter and
// agent.Destroyable.
type Fighter struct {
	id  string
	cfg config.OpponentConfig
	pos geom.Vec3

	health float64
	heals  int
	valid  bool

	now          time.Duration
	action       fighterAction
	actionEnds   time.Duration
	nextAttackAt time.Duration
	nextDodgeAt  time.Duration
}

// NewFighter spawns a fighter at cfg.Start with a random instance id.
//
// Precondition: cfg.Health must be > 0.
func NewFighter(cfg config.OpponentConfig) *Fighter {
	if cfg.Health <= 0 {
		panic("sim.NewFighter: health must be positive")
	}
	return &Fighter{
		id:           cfg.Name + "-" + uuid.NewString(),
		cfg:          cfg,
		pos:          cfg.Start,
		health:       cfg.Health,
		heals:        cfg.Heals,
		valid:        true,
		nextAttackAt: cfg.AttackInterval,
	}
}

func (f *Fighter) ID() string                       { return f.id }
func (f *Fighter) Position() geom.Vec3              { return f.pos }
func (f *Fighter) HealthFraction() float64          { return f.health / f.cfg.Health }
func (f *Fighter) IsDead() bool                     { return f.health <= 0 }
func (f *Fighter) IsValid() bool                    { return f.valid }
func (f *Fighter) IsPerformingRecoveryAction() bool { return f.action == actionHeal }
func (f *Fighter) IsPerformingEvasiveAction() bool  { return f.action == actionDodge }
func (f *Fighter) CurrentClip() string              { return actionClips[f.action] }

// HealsLeft returns the remaining heal charges.
func (f *Fighter) HealsLeft() int { return f.heals }

// SetPosition places the fighter.
func (f *Fighter) SetPosition(p geom.Vec3) { f.pos = p }

// Despawn removes the fighter from the world; IsValid reports false after.
func (f *Fighter) Despawn() { f.valid = false }

// TakeHit applies damage unless the fighter is mid-dodge.
//
// Postcondition: returns true iff damage was applied.
func (f *Fighter) TakeHit(damage float64) bool {
	if f.IsDead() || f.action == actionDodge {
		return false
	}
	f.health = math.Max(0, f.health-damage)
	if f.IsDead() {
		f.action = actionNone
	}
	return true
}

// Update advances the fighter by dt against a foe at foe. foeAttacking
// reports whether the foe is mid-swing. A non-nil Hit is returned when an
// attack connects.
func (f *Fighter) Update(dt time.Duration, foe geom.Vec3, foeAttacking bool) *Hit {
	f.now += dt
	if f.IsDead() || !f.valid {
		return nil
	}
	dist := f.pos.Dist(foe)

	if f.action != actionNone {
		switch f.action {
		case actionDodge:
			away := f.pos.Sub(foe).Flat().Normalize()
			f.pos = f.pos.Add(away.Scale(f.cfg.DodgeSpeed * dt.Seconds()))
		case actionAttack:
			f.approach(dt, foe, dist)
		}
		if f.now < f.actionEnds {
			return nil
		}
		return f.finish(f.pos.Dist(foe))
	}

	switch {
	case f.heals > 0 && f.HealthFraction() < f.cfg.HealBelow:
		f.heals--
		f.begin(actionHeal, f.cfg.HealDuration)
	case foeAttacking && dist <= f.cfg.DodgeRange && f.now >= f.nextDodgeAt:
		f.nextDodgeAt = f.now + f.cfg.DodgeInterval
		f.begin(actionDodge, f.cfg.DodgeDuration)
	case dist <= f.cfg.AttackRange && f.now >= f.nextAttackAt:
		f.nextAttackAt = f.now + f.cfg.AttackInterval
		f.begin(actionAttack, f.cfg.AttackDuration)
	default:
		f.approach(dt, foe, dist)
	}
	return nil
}

// approach steps toward foe, stopping short at 90% of attack range.
func (f *Fighter) approach(dt time.Duration, foe geom.Vec3, dist float64) {
	stop := f.cfg.AttackRange * 0.9
	if dist <= stop {
		return
	}
	step := math.Min(f.cfg.Speed*dt.Seconds(), dist-stop)
	f.pos = f.pos.Add(foe.Sub(f.pos).Flat().Normalize().Scale(step))
}

func (f *Fighter) begin(a fighterAction, d time.Duration) {
	f.action = a
	f.actionEnds = f.now + d
}

func (f *Fighter) finish(dist float64) *Hit {
	done := f.action
	f.action = actionNone
	switch done {
	case actionAttack:
		if dist <= f.cfg.AttackRange {
			return &Hit{Damage: f.cfg.AttackDamage, PoiseDamage: f.cfg.PoiseDamage}
		}
	case actionHeal:
		f.health = math.Min(f.cfg.Health, f.health+f.cfg.HealAmount*f.cfg.Health)
	}
	return nil
}
