package agent

import "time"

// attackTracker advances the rotation-lock phases of a single attack.
//
// Invariant: phase is TrackingNone exactly when no attack is in flight.
type attackTracker struct {
	cfg     TrackingConfig
	phase   TrackingPhase
	elapsed time.Duration
}

func (t *attackTracker) begin() {
	t.phase = TrackingWindup
	t.elapsed = 0
}

func (t *attackTracker) end() {
	t.phase = TrackingNone
	t.elapsed = 0
}

// advance moves the phase clock forward by dt and returns the rotation rate
// to apply this tick in degrees per second.
//
// Postcondition: returns 0 when no attack is in flight.
func (t *attackTracker) advance(dt time.Duration) float64 {
	if t.phase == TrackingNone {
		return 0
	}
	t.elapsed += dt
	switch t.phase {
	case TrackingWindup:
		if t.elapsed >= t.cfg.WindupDuration {
			t.phase = TrackingHold
			t.elapsed = 0
		}
	case TrackingHold:
		if t.elapsed >= t.cfg.HoldDuration {
			t.phase = TrackingCommit
			t.elapsed = 0
		}
	}
	return t.rate()
}

func (t *attackTracker) rate() float64 {
	switch t.phase {
	case TrackingWindup:
		return t.cfg.WindupSpeed
	case TrackingHold:
		return t.cfg.HoldSpeed
	case TrackingCommit:
		return t.cfg.CommitSpeed
	default:
		return 0
	}
}
