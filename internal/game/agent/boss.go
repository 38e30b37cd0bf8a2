package agent

import "time"

// bossPhaser maps health fractions onto BossPhase.
//
// Invariant: phase never decreases between resets.
type bossPhaser struct {
	cfg   BossConfig
	phase BossPhase
}

// check returns the new phase and true when health has crossed into a lower
// phase since the last call. Several thresholds may be crossed at once.
func (b *bossPhaser) check(health float64) (BossPhase, bool) {
	target := PhaseOne
	switch {
	case health <= b.cfg.Enraged:
		target = PhaseEnraged
	case health <= b.cfg.Phase3:
		target = PhaseThree
	case health <= b.cfg.Phase2:
		target = PhaseTwo
	}
	if target <= b.phase {
		return b.phase, false
	}
	b.phase = target
	return target, true
}

func (b *bossPhaser) reset() { b.phase = PhaseOne }

// enrageDelays halves both attack delays, clamping each to floor and keeping
// max >= min.
func enrageDelays(minD, maxD, floor time.Duration) (time.Duration, time.Duration) {
	minD /= 2
	maxD /= 2
	if minD < floor {
		minD = floor
	}
	if maxD < floor {
		maxD = floor
	}
	if maxD < minD {
		maxD = minD
	}
	return minD, maxD
}
