package agent

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brawler/internal/game/ability"
	"github.com/cory-johannsen/brawler/internal/geom"
)

func (a *Agent) tickCombat() {
	t, ok := a.target.get()
	if !ok {
		a.target.clear()
		a.setState(StateInvestigating)
		return
	}
	if !a.cfg.Boss && a.body.Position().Dist(a.spawn) > a.cfg.LeashDistance {
		a.logger.Debug("leash exceeded", zap.Float64("distance", a.body.Position().Dist(a.spawn)))
		a.setState(StateOutOfBounds)
		return
	}
	if a.sense.LineOfSightClear(t.Position()) {
		a.noteSeen(t)
	} else if a.now-a.lastSeen >= a.cfg.LoseSightGrace {
		a.setState(StateInvestigating)
		return
	}
	if a.cfg.Punish.InputReading {
		a.reader.observe(t, a.now)
	}

	dist := a.sense.DistanceTo(t)
	switch a.sub {
	case SubEngaging:
		a.tickEngaging(t, dist)
	case SubPositioning:
		a.tickPositioning(t, dist)
	case SubWindingUp:
		a.tickWindingUp(t)
	case SubRecovering:
		a.tickRecovering(dist)
	case SubRetreating:
		a.tickRetreating(t, dist)
	}
}

func (a *Agent) query(dist float64) ability.Query {
	return ability.Query{Distance: dist, HealthFraction: a.self.HealthFraction(), Now: a.now}
}

// reach is the distance inside which the agent stops closing in.
func (a *Agent) reach() float64 {
	return a.cfg.AttackRange * a.cfg.AttackRangeTolerance
}

// TryPunish attacks immediately if the opponent is in a punishable action.
// A gap-closer is preferred, falling back to any eligible ability.
//
// Postcondition: on success the agent is Attacking with the returned ability
// and never passed through WindingUp.
func (a *Agent) TryPunish() (*ability.Descriptor, bool) {
	if a.state != StateCombat {
		return nil, false
	}
	t, ok := a.target.get()
	if !ok {
		return nil, false
	}
	busy := a.sub == SubAttacking || a.sub == SubRecovering || a.sub == SubWindingUp
	if !a.reader.canPunish(a.now, busy, a.roller) {
		return nil, false
	}
	q := a.query(a.sense.DistanceTo(t))
	ab, ok := a.skills.TrySelect(q, true)
	if !ok {
		ab, ok = a.skills.TrySelect(q, false)
	}
	if !ok {
		return nil, false
	}
	a.reader.recordPunish(a.now)
	a.logger.Debug("punish", zap.String("ability", ab.ID), zap.Float64("distance", q.Distance))
	a.startAttack(ab, true)
	return ab, true
}

func (a *Agent) tickEngaging(t Actor, dist float64) {
	if _, ok := a.TryPunish(); ok {
		return
	}
	tp := t.Position()
	toTarget := tp.Sub(a.body.Position()).Flat()
	if toTarget.Len() > 0 && geom.AngleBetween(a.body.Forward(), toTarget) > a.cfg.TurnInPlaceAngle {
		a.body.Stop()
		a.body.RotateToward(tp, a.cfg.TurnSpeed)
		return
	}

	if dist > a.reach() {
		speed := a.cfg.WalkSpeed
		if dist > a.cfg.SprintDistance {
			speed = a.cfg.RunSpeed
		}
		a.body.SetMaxSpeed(speed)
		if dist >= a.cfg.GapCloserDistance && a.now >= a.nextGapCheckAt && a.now >= a.nextAttackAt {
			a.nextGapCheckAt = a.now + a.cfg.DecisionInterval
			if ab, ok := a.skills.TrySelect(a.query(dist), true); ok {
				a.startAttack(ab, false)
				return
			}
		}
		a.body.MoveTo(tp, a.cfg.AttackRange)
		return
	}

	a.body.Stop()
	a.body.RotateToward(tp, a.cfg.TurnSpeed)

	if a.comboPending {
		if a.now < a.comboReadyAt {
			return
		}
		if ab, ok := a.skills.TrySelect(a.query(dist), false); ok {
			a.startAttack(ab, false)
			return
		}
		a.endCombo()
		a.setSub(SubPositioning)
		return
	}

	if a.now < a.nextAttackAt {
		if a.roller.Chance(a.cfg.CooldownRepositionRate*a.dt.Seconds(), "cooldown reposition") {
			a.setSub(SubPositioning)
		}
		return
	}
	if !a.roller.Chance(a.aggression, "engage attack") {
		a.setSub(SubPositioning)
		return
	}
	ab, ok := a.skills.TrySelect(a.query(dist), false)
	if !ok {
		a.setSub(SubPositioning)
		return
	}
	if a.roller.Chance(a.cfg.FeintChance*(1-a.aggression), "feint") {
		a.logger.Debug("feint", zap.String("ability", ab.ID))
		a.setSub(SubPositioning)
		return
	}
	if a.roller.Chance(a.cfg.WindUpChance, "wind up") {
		a.setSub(SubWindingUp)
		a.pending = ab
		return
	}
	a.startAttack(ab, false)
}

func (a *Agent) tickPositioning(t Actor, dist float64) {
	if _, ok := a.TryPunish(); ok {
		return
	}
	if dist <= a.cfg.AdjacentDistance {
		a.setSub(SubRetreating)
		return
	}
	if dist >= a.cfg.FarDistance {
		a.setSub(SubEngaging)
		return
	}
	tp := t.Position()
	a.body.SetMaxSpeed(a.cfg.WalkSpeed)
	a.body.RotateToward(tp, a.cfg.TurnSpeed)
	if a.now >= a.nextRepositionAt {
		a.nextRepositionAt = a.now + a.cfg.RepositionInterval
		a.body.MoveTo(a.strafeDestination(tp), a.cfg.ArrivalTolerance)
	}
	if a.now-a.subSince >= a.cfg.PositioningDuration {
		if a.roller.Chance(a.aggression, "positioning engage") {
			a.setSub(SubEngaging)
			return
		}
		a.subSince = a.now
	}
}

// strafeDestination scores flank-left, flank-right and back-off points by how
// close they keep the agent to PreferredDistance. The current strafe side
// gets StrafeBias, and StrafeFlipChance occasionally swaps sides.
//
// Postcondition: strafeDir is +1 (left), -1 (right) or unchanged on back-off.
func (a *Agent) strafeDestination(tp geom.Vec3) geom.Vec3 {
	pos := a.body.Position()
	away := pos.Sub(tp).Flat().Normalize()
	if away.Len() == 0 {
		away = a.body.Forward().Flat().Normalize().Scale(-1)
	}
	left := away.Left()
	step := a.cfg.StrafeStep
	candidates := []struct {
		dest geom.Vec3
		dir  int
	}{
		{pos.Add(left.Scale(step)), 1},
		{pos.Add(left.Scale(-step)), -1},
		{pos.Add(away.Scale(step)), 0},
	}
	best, bestScore := 0, math.Inf(-1)
	for i, c := range candidates {
		score := -math.Abs(c.dest.Dist(tp) - a.cfg.PreferredDistance)
		if c.dir != 0 && c.dir == a.strafeDir {
			score += a.cfg.StrafeBias
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	chosen := candidates[best]
	if chosen.dir != 0 && a.roller.Chance(a.cfg.StrafeFlipChance, "strafe flip") {
		chosen = candidates[(best+1)%2]
	}
	if chosen.dir != 0 {
		a.strafeDir = chosen.dir
	}
	return chosen.dest
}

func (a *Agent) tickWindingUp(t Actor) {
	a.body.Stop()
	a.body.RotateToward(t.Position(), a.cfg.Tracking.WindupSpeed)
	if a.cfg.Punish.InputReading && !a.windUpExtended && a.reader.vulnerable() {
		a.windUpExtended = true
		a.logger.Debug("wind-up extended")
	}
	hold := a.cfg.WindUpDuration
	if a.windUpExtended {
		hold += a.cfg.WindUpExtension
	}
	if a.now-a.subSince < hold {
		return
	}
	ab := a.pending
	a.pending = nil
	if ab == nil {
		var ok bool
		if ab, ok = a.skills.TrySelect(a.query(a.sense.DistanceTo(t)), false); !ok {
			a.setSub(SubRecovering)
			return
		}
	}
	a.startAttack(ab, false)
}

// startAttack plays ab's clip and enters Attacking. The completion callback
// carries the attack token so callbacks from cancelled attacks are dropped.
func (a *Agent) startAttack(ab *ability.Descriptor, punish bool) {
	a.body.Stop()
	a.pending = nil
	a.attackToken++
	token := a.attackToken
	a.current = ab
	a.currentPunish = punish
	a.comboPending = false
	a.combo++
	a.setSub(SubAttacking)
	a.logger.Debug("attack started",
		zap.String("ability", ab.ID),
		zap.Bool("punish", punish),
		zap.Int("combo", a.combo),
	)
	a.emit(Event{Kind: EventAttackStarted, AbilityID: ab.ID, Punish: punish})
	if !a.anim.PlayClip(ab.Clip, func(interrupted bool) { a.onAttackAnimationDone(token, interrupted) }) {
		a.logger.Warn("attack clip did not start", zap.String("clip", ab.Clip))
		a.onAttackAnimationDone(token, true)
	}
}

// onAttackAnimationDone ends the attack identified by token and decides
// whether the combo continues.
func (a *Agent) onAttackAnimationDone(token uint64, interrupted bool) {
	if token != a.attackToken || a.state != StateCombat || a.sub != SubAttacking || a.current == nil {
		return
	}
	ab := a.current
	punish := a.currentPunish
	a.current = nil
	a.currentPunish = false
	a.emit(Event{Kind: EventAttackEnded, AbilityID: ab.ID, Punish: punish, Interrupted: interrupted})

	if !interrupted && a.combo < a.cfg.MaxComboHits &&
		a.roller.Chance(a.cfg.ComboChance*a.aggression, "combo continue") {
		a.comboPending = true
		a.comboReadyAt = a.now + a.cfg.ComboDelay
	} else {
		a.endCombo()
	}
	a.setSub(SubRecovering)
}

// endCombo closes the combo string and starts the attack cooldown.
func (a *Agent) endCombo() {
	a.combo = 0
	a.comboPending = false
	a.nextAttackAt = a.now + a.roller.Between(a.attackDelayMin, a.attackDelayMax, "attack delay")
}

func (a *Agent) tickRecovering(dist float64) {
	if a.comboPending {
		if a.now >= a.comboReadyAt {
			a.setSub(SubEngaging)
		}
		return
	}
	elapsed := a.now - a.subSince
	window := a.cfg.RecoveryDuration
	if elapsed < window {
		return
	}
	// A clip still playing holds recovery for up to twice the window.
	if a.anim.IsAnyClipPlaying() && elapsed < 2*window {
		return
	}
	if dist > a.reach() || a.roller.Chance(a.aggression, "recover engage") {
		a.setSub(SubEngaging)
		return
	}
	a.setSub(SubPositioning)
}

func (a *Agent) tickRetreating(t Actor, dist float64) {
	tp := t.Position()
	if dist >= a.cfg.RetreatDistance || a.now-a.subSince >= a.cfg.RetreatTimeout {
		a.setSub(SubEngaging)
		return
	}
	pos := a.body.Position()
	away := pos.Sub(tp).Flat().Normalize()
	if away.Len() == 0 {
		away = a.body.Forward().Flat().Normalize().Scale(-1)
	}
	a.body.SetMaxSpeed(a.cfg.RunSpeed)
	a.body.MoveTo(pos.Add(away.Scale(a.cfg.RetreatDistance)), a.cfg.ArrivalTolerance)
	a.body.RotateToward(tp, a.cfg.TurnSpeed)
}
