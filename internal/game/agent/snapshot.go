package agent

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Snapshot is a read-only view of an agent for debugging and UI.
type Snapshot struct {
	ID         string
	State      State
	SubState   CombatSubState
	Tracking   TrackingPhase
	BossPhase  BossPhase
	Aggression float64
	HasTarget  bool
	TargetID   string
	// Distance to the target; zero when HasTarget is false.
	Distance float64
	Combo    int
	Now      time.Duration
}

// DebugSnapshot captures the agent's current decision state.
func (a *Agent) DebugSnapshot() Snapshot {
	s := Snapshot{
		ID:         a.id,
		State:      a.state,
		SubState:   a.sub,
		Tracking:   a.tracker.phase,
		BossPhase:  a.boss.phase,
		Aggression: a.aggression,
		Combo:      a.combo,
		Now:        a.now,
	}
	if t, ok := a.target.get(); ok {
		s.HasTarget = true
		s.TargetID = t.ID()
		s.Distance = a.sense.DistanceTo(t)
	}
	return s
}

// String renders the snapshot on one line.
func (s Snapshot) String() string {
	target := "-"
	if s.HasTarget {
		target = fmt.Sprintf("%s@%.2f", s.TargetID, s.Distance)
	}
	return fmt.Sprintf("%s t=%v state=%s sub=%s tracking=%s phase=%s aggression=%.2f combo=%d target=%s",
		s.ID, s.Now, s.State, s.SubState, s.Tracking, s.BossPhase, s.Aggression, s.Combo, target)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s Snapshot) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", s.ID)
	enc.AddString("state", s.State.String())
	enc.AddString("sub_state", s.SubState.String())
	enc.AddString("tracking", s.Tracking.String())
	enc.AddString("boss_phase", s.BossPhase.String())
	enc.AddFloat64("aggression", s.Aggression)
	enc.AddInt("combo", s.Combo)
	enc.AddDuration("now", s.Now)
	if s.HasTarget {
		enc.AddString("target", s.TargetID)
		enc.AddFloat64("distance", s.Distance)
	}
	return nil
}
