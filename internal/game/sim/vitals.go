package sim

import (
	"math"
	"time"
)

// Vitals tracks the simulated agent's health and poise. It satisfies
// agent.Self and agent.PoiseNotifier.
//
// Invariant: 0 <= health <= maxHealth and 0 < poise <= maxPoise.
type Vitals struct {
	maxHealth float64
	health    float64
	maxPoise  float64
	poise     float64
	regen     float64
	subs      []func(broken bool)
}

// NewVitals starts at full health and poise.
//
// Precondition: health and poise must be > 0.
func NewVitals(health, poise, regen float64) *Vitals {
	if health <= 0 || poise <= 0 {
		panic("sim.NewVitals: health and poise must be positive")
	}
	return &Vitals{maxHealth: health, health: health, maxPoise: poise, poise: poise, regen: regen}
}

func (v *Vitals) HealthFraction() float64 { return v.health / v.maxHealth }
func (v *Vitals) IsDead() bool            { return v.health <= 0 }
func (v *Vitals) Health() float64         { return v.health }
func (v *Vitals) Poise() float64          { return v.poise }

func (v *Vitals) SubscribePoiseBroken(fn func(broken bool)) {
	v.subs = append(v.subs, fn)
}

// TakeHit applies damage and poise damage. Emptying poise notifies every
// subscriber and refills the bar.
//
// Postcondition: returns true iff this hit broke poise.
func (v *Vitals) TakeHit(damage, poiseDamage float64) bool {
	if v.IsDead() {
		return false
	}
	v.health = math.Max(0, v.health-damage)
	v.poise -= poiseDamage
	if v.poise > 0 {
		return false
	}
	v.poise = v.maxPoise
	for _, fn := range v.subs {
		fn(true)
	}
	return true
}

// Update regenerates poise.
func (v *Vitals) Update(dt time.Duration) {
	v.poise = math.Min(v.maxPoise, v.poise+v.regen*dt.Seconds())
}

// Restore refills health and poise.
func (v *Vitals) Restore() {
	v.health = v.maxHealth
	v.poise = v.maxPoise
}
