package agent

import (
	"github.com/cory-johannsen/brawler/internal/geom"
)

// Locomotion issues movement and rotation orders for the agent's body.
type Locomotion interface {
	Position() geom.Vec3
	// Forward returns the body's facing direction on the ground plane.
	Forward() geom.Vec3
	MoveTo(p geom.Vec3, tolerance float64)
	Stop()
	SetMaxSpeed(speed float64)
	// RotateToward turns toward p by at most degPerSec scaled by the body's
	// own step. The body applies the rotation on its next update.
	RotateToward(p geom.Vec3, degPerSec float64)
}

// Actor is anything the agent can target.
type Actor interface {
	ID() string
	Position() geom.Vec3
	HealthFraction() float64
	IsDead() bool
}

// Destroyable is implemented by actors whose backing object can disappear.
type Destroyable interface {
	IsValid() bool
}

// ActionReporter is implemented by actors that expose their current action.
type ActionReporter interface {
	IsPerformingRecoveryAction() bool
	IsPerformingEvasiveAction() bool
}

// ClipReporter is implemented by actors that expose their playing clip name.
// It is the fallback when ActionReporter is absent.
type ClipReporter interface {
	CurrentClip() string
}

// Perception answers world queries for the agent.
type Perception interface {
	// FindNearestHostile returns the closest hostile within radius.
	FindNearestHostile(radius float64) (Actor, bool)
	LineOfSightClear(p geom.Vec3) bool
	DistanceTo(a Actor) float64
}

// Animation plays attack clips.
type Animation interface {
	// PlayClip starts ref and calls onComplete exactly once when it ends.
	// Returns false if the clip could not be started; onComplete is not called.
	PlayClip(ref string, onComplete func(interrupted bool)) bool
	IsAnyClipPlaying() bool
}

// Self reports the agent's own status.
type Self interface {
	HealthFraction() float64
	IsDead() bool
}

// PoiseNotifier is implemented by Self collaborators that push poise-break
// signals instead of requiring TriggerPoiseBroken calls.
type PoiseNotifier interface {
	SubscribePoiseBroken(fn func(broken bool))
}
