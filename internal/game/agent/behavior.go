package agent

import (
	"math"

	"github.com/cory-johannsen/brawler/internal/geom"
)

func (a *Agent) tickIdle() {
	if a.now-a.stateSince < a.cfg.IdleDwell {
		return
	}
	switch a.cfg.IdleBehavior {
	case IdleBehaviorPatrol:
		if len(a.cfg.Patrol.Waypoints) > 0 {
			a.setState(StatePatrol)
		}
	case IdleBehaviorRoam:
		a.setState(StateRandomRoam)
	}
}

func (a *Agent) moveToWaypoint() {
	wps := a.cfg.Patrol.Waypoints
	if len(wps) == 0 {
		return
	}
	a.waypoint %= len(wps)
	a.body.MoveTo(wps[a.waypoint], a.cfg.ArrivalTolerance)
}

func (a *Agent) tickPatrol() {
	wps := a.cfg.Patrol.Waypoints
	if len(wps) == 0 {
		a.setState(StateIdle)
		return
	}
	if a.waiting {
		if a.now-a.waitingSince >= a.cfg.Patrol.Wait {
			a.waiting = false
			a.waypoint = (a.waypoint + 1) % len(wps)
			a.moveToWaypoint()
		}
		return
	}
	if a.body.Position().Dist(wps[a.waypoint%len(wps)]) <= a.cfg.ArrivalTolerance {
		a.body.Stop()
		a.waiting = true
		a.waitingSince = a.now
	}
}

// roamDestination samples the noise field along a 1-D walk so consecutive
// destinations are spatially coherent.
func (a *Agent) roamDestination() geom.Vec3 {
	a.roamStep++
	s := float64(a.roamStep) * 0.37
	angle := a.noise.Eval2(s, 0) * 2 * math.Pi
	radius := a.noise.Eval2(0, s+101.3) * a.cfg.Roam.Radius
	offset := geom.FromYaw(angle * 180 / math.Pi).Scale(radius)
	return a.spawn.Add(offset)
}

func (a *Agent) tickRoam() {
	if a.now < a.nextRoamAt {
		return
	}
	a.nextRoamAt = a.now + a.cfg.Roam.Interval
	a.body.MoveTo(a.roamDestination(), a.cfg.ArrivalTolerance)
}

func (a *Agent) tickInvestigating() {
	timedOut := a.now-a.stateSince >= a.cfg.InvestigateTimeout
	arrived := !a.hasLastKnown || a.body.Position().Dist(a.lastKnown) <= a.cfg.ArrivalTolerance
	if timedOut || arrived {
		a.target.clear()
		a.hasLastKnown = false
		a.setState(StateIdle)
	}
}

func (a *Agent) tickPoiseBroken() {
	if a.now-a.stateSince >= a.cfg.PoiseBrokenDuration {
		a.returnToFightOrIdle()
	}
}

func (a *Agent) tickUninterruptable() {
	if t, ok := a.target.get(); ok {
		a.body.RotateToward(t.Position(), a.cfg.TurnSpeed)
	}
	if a.now-a.stateSince >= a.uninterruptableFor {
		a.returnToFightOrIdle()
	}
}

func (a *Agent) tickOutOfBounds() {
	if a.body.Position().Dist(a.spawn) <= a.cfg.ReturnTolerance {
		a.setState(StateIdle)
	}
}
