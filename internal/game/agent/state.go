package agent

import "fmt"

// State is the agent's top-level behavior.
type State int

const (
	StateIdle State = iota
	StatePatrol
	StateRandomRoam
	StateInvestigating
	StateCombat
	StatePoiseBroken
	StateUninterruptable
	StateOutOfBounds
	StateDead
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StatePatrol:          "patrol",
	StateRandomRoam:      "random_roam",
	StateInvestigating:   "investigating",
	StateCombat:          "combat",
	StatePoiseBroken:     "poise_broken",
	StateUninterruptable: "uninterruptable",
	StateOutOfBounds:     "out_of_bounds",
	StateDead:            "dead",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// CombatSubState is the nested state while State is StateCombat.
type CombatSubState int

const (
	SubNone CombatSubState = iota
	SubEngaging
	SubPositioning
	SubWindingUp
	SubAttacking
	SubRecovering
	SubRetreating
)

var subStateNames = [...]string{
	SubNone:        "none",
	SubEngaging:    "engaging",
	SubPositioning: "positioning",
	SubWindingUp:   "winding_up",
	SubAttacking:   "attacking",
	SubRecovering:  "recovering",
	SubRetreating:  "retreating",
}

func (s CombatSubState) String() string {
	if s >= 0 && int(s) < len(subStateNames) {
		return subStateNames[s]
	}
	return fmt.Sprintf("substate(%d)", int(s))
}

// TrackingPhase governs how freely the agent may still rotate during an attack.
type TrackingPhase int

const (
	TrackingNone TrackingPhase = iota
	TrackingWindup
	TrackingHold
	TrackingCommit
)

var trackingNames = [...]string{
	TrackingNone:   "none",
	TrackingWindup: "windup",
	TrackingHold:   "hold",
	TrackingCommit: "commit",
}

func (p TrackingPhase) String() string {
	if p >= 0 && int(p) < len(trackingNames) {
		return trackingNames[p]
	}
	return fmt.Sprintf("tracking(%d)", int(p))
}

// BossPhase is an ordered escalation level; later phases are more dangerous.
type BossPhase int

const (
	PhaseOne BossPhase = iota
	PhaseTwo
	PhaseThree
	PhaseEnraged
)

var bossPhaseNames = [...]string{
	PhaseOne:     "phase1",
	PhaseTwo:     "phase2",
	PhaseThree:   "phase3",
	PhaseEnraged: "enraged",
}

func (p BossPhase) String() string {
	if p >= 0 && int(p) < len(bossPhaseNames) {
		return bossPhaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}
