package sim

import (
	"math"
	"time"

	"github.com/cory-johannsen/brawler/internal/geom"
)

// Body is a kinematic ground-plane body. It moves in a straight line toward
// its destination, halting at the requested tolerance, and turns at most the
// requested rate per update.
type Body struct {
	pos geom.Vec3
	fwd geom.Vec3

	dest      geom.Vec3
	moving    bool
	tolerance float64
	maxSpeed  float64

	turnTarget geom.Vec3
	turnRate   float64
	turning    bool
}

// NewBody places a body at pos facing fwd.
//
// Postcondition: a zero fwd is replaced with +X.
func NewBody(pos, fwd geom.Vec3) *Body {
	fwd = fwd.Flat().Normalize()
	if fwd.Len() == 0 {
		fwd = geom.V(1, 0, 0)
	}
	return &Body{pos: pos, fwd: fwd, maxSpeed: 1}
}

func (b *Body) Position() geom.Vec3 { return b.pos }
func (b *Body) Forward() geom.Vec3  { return b.fwd }

// SetPosition teleports the body and cancels its movement order.
func (b *Body) SetPosition(p geom.Vec3) {
	b.pos = p
	b.moving = false
}

func (b *Body) MoveTo(p geom.Vec3, tolerance float64) {
	b.dest = p
	b.tolerance = tolerance
	b.moving = true
}

func (b *Body) Stop() { b.moving = false }

func (b *Body) SetMaxSpeed(speed float64) { b.maxSpeed = math.Max(0, speed) }

// RotateToward requests a turn toward p. Only the latest request before
// Update is applied.
func (b *Body) RotateToward(p geom.Vec3, degPerSec float64) {
	b.turnTarget = p
	b.turnRate = degPerSec
	b.turning = true
}

// Moving reports whether a movement order is active.
func (b *Body) Moving() bool { return b.moving }

// Update integrates one step of dt. Without an explicit turn request the
// body faces its direction of travel.
func (b *Body) Update(dt time.Duration) {
	secs := dt.Seconds()
	turned := false
	if b.turning {
		b.turning = false
		if dir := b.turnTarget.Sub(b.pos).Flat(); dir.Len() > 0 {
			b.turn(dir.Yaw(), b.turnRate*secs)
			turned = true
		}
	}
	if !b.moving {
		return
	}
	to := b.dest.Sub(b.pos).Flat()
	d := to.Len()
	if d <= b.tolerance {
		b.moving = false
		return
	}
	step := math.Min(b.maxSpeed*secs, d-b.tolerance)
	dir := to.Normalize()
	b.pos = b.pos.Add(dir.Scale(step))
	if !turned {
		b.fwd = dir
	}
}

func (b *Body) turn(yaw, maxStep float64) {
	cur := b.fwd.Yaw()
	delta := geom.DeltaAngle(cur, yaw)
	if math.Abs(delta) > maxStep {
		delta = math.Copysign(maxStep, delta)
	}
	b.fwd = geom.FromYaw(cur + delta)
}
