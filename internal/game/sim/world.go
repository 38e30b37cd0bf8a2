package sim

import (
	"math"

	"github.com/cory-johannsen/brawler/internal/config"
	"github.com/cory-johannsen/brawler/internal/game/agent"
	"github.com/cory-johannsen/brawler/internal/geom"
)

// World answers the agent's perception queries over a set of hostiles and
// circular obstacles. It satisfies agent.Perception for one observer.
type World struct {
	observer  *Body
	hostiles  []agent.Actor
	obstacles []config.ObstacleConfig
}

// NewWorld builds a World seen from observer.
func NewWorld(observer *Body, obstacles []config.ObstacleConfig, hostiles ...agent.Actor) *World {
	return &World{observer: observer, hostiles: hostiles, obstacles: obstacles}
}

// FindNearestHostile returns the closest live, valid hostile within radius.
func (w *World) FindNearestHostile(radius float64) (agent.Actor, bool) {
	var best agent.Actor
	bestDist := math.Inf(1)
	for _, h := range w.hostiles {
		if h.IsDead() {
			continue
		}
		if d, ok := h.(agent.Destroyable); ok && !d.IsValid() {
			continue
		}
		if dist := w.DistanceTo(h); dist <= radius && dist < bestDist {
			best, bestDist = h, dist
		}
	}
	return best, best != nil
}

// LineOfSightClear reports whether the segment from the observer to p
// misses every obstacle.
func (w *World) LineOfSightClear(p geom.Vec3) bool {
	from := w.observer.Position()
	for _, o := range w.obstacles {
		if segmentHitsCircle(from, p, o.Center, o.Radius) {
			return false
		}
	}
	return true
}

func (w *World) DistanceTo(a agent.Actor) float64 {
	return w.observer.Position().Dist(a.Position())
}

// segmentHitsCircle tests the ground-plane segment ab against a circle.
func segmentHitsCircle(a, b, center geom.Vec3, radius float64) bool {
	ab := b.Sub(a).Flat()
	ac := center.Sub(a).Flat()
	l2 := ab.X*ab.X + ab.Z*ab.Z
	t := 0.0
	if l2 > 0 {
		t = math.Max(0, math.Min(1, (ac.X*ab.X+ac.Z*ab.Z)/l2))
	}
	closest := a.Flat().Add(ab.Scale(t))
	return closest.Dist(center) < radius
}
