package agent

import (
	"strings"
	"time"

	"github.com/cory-johannsen/brawler/internal/game/dice"
)

// vulnerability tracks one kind of observed opponent action.
type vulnerability struct {
	active bool
	since  time.Duration
	// rolled is set once the punish roll for the current episode was spent.
	rolled bool
	// armed holds a successful roll until an ability is actually selected.
	armed  bool
}

func (v *vulnerability) observe(active bool, now time.Duration) {
	switch {
	case active && !v.active:
		v.active = true
		v.since = now
		v.rolled = false
	case !active:
		*v = vulnerability{}
	}
}

func (v *vulnerability) heldFor(now time.Duration) time.Duration {
	if !v.active {
		return 0
	}
	return now - v.since
}

// opponentReader polls the target for vulnerable actions and decides whether
// they may be punished.
type opponentReader struct {
	cfg        PunishConfig
	recovery   vulnerability
	evasive    vulnerability
	lastPunish time.Duration
	punished   bool
}

// observe samples target at now.
//
// Precondition: target must be a live actor.
func (r *opponentReader) observe(target Actor, now time.Duration) {
	recovering, evading := r.read(target)
	r.recovery.observe(recovering, now)
	r.evasive.observe(evading, now)
}

func (r *opponentReader) read(target Actor) (recovering, evading bool) {
	if rep, ok := target.(ActionReporter); ok {
		return rep.IsPerformingRecoveryAction(), rep.IsPerformingEvasiveAction()
	}
	if cr, ok := target.(ClipReporter); ok {
		clip := strings.ToLower(cr.CurrentClip())
		if clip == "" {
			return false, false
		}
		return containsAny(clip, r.cfg.RecoveryClipKeywords), containsAny(clip, r.cfg.EvasiveClipKeywords)
	}
	return false, false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// vulnerable reports whether any vulnerable action is currently observed.
func (r *opponentReader) vulnerable() bool {
	return r.recovery.active || r.evasive.active
}

// canPunish evaluates the punish gates and rolls at most once per observed
// episode. Recovery actions are considered before evasive ones. A successful
// roll stays armed across ticks until recordPunish or the episode ends.
func (r *opponentReader) canPunish(now time.Duration, busy bool, roller *dice.Roller) bool {
	if !r.cfg.InputReading || busy {
		return false
	}
	if r.punished && now-r.lastPunish < r.cfg.Cooldown {
		return false
	}
	for _, c := range []struct {
		v      *vulnerability
		p      float64
		reason string
	}{
		{&r.recovery, r.cfg.RecoveryChance, "punish recovery"},
		{&r.evasive, r.cfg.EvasiveChance, "punish evasive"},
	} {
		if !c.v.active || c.v.heldFor(now) < r.cfg.ReactionDelay {
			continue
		}
		if c.v.armed {
			return true
		}
		if c.v.rolled {
			continue
		}
		c.v.rolled = true
		if roller.Chance(c.p, c.reason) {
			c.v.armed = true
			return true
		}
	}
	return false
}

func (r *opponentReader) recordPunish(now time.Duration) {
	r.lastPunish = now
	r.punished = true
	r.recovery.armed = false
	r.evasive.armed = false
}

func (r *opponentReader) reset() {
	r.recovery = vulnerability{}
	r.evasive = vulnerability{}
	r.lastPunish = 0
	r.punished = false
}
