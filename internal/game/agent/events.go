package agent

import "time"

// EventKind identifies an agent notification.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventSubStateChanged
	EventBossPhaseChanged
	EventAttackStarted
	EventAttackEnded
	EventBossEncounterEnded
)

// String returns the event kind in snake_case.
func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state_changed"
	case EventSubStateChanged:
		return "sub_state_changed"
	case EventBossPhaseChanged:
		return "boss_phase_changed"
	case EventAttackStarted:
		return "attack_started"
	case EventAttackEnded:
		return "attack_ended"
	case EventBossEncounterEnded:
		return "boss_encounter_ended"
	default:
		return "unknown"
	}
}

// Event is delivered synchronously to every listener.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	AgentID string
	At      time.Duration

	From, To       State
	FromSub, ToSub CombatSubState
	FromPhase      BossPhase
	ToPhase        BossPhase

	// AbilityID is set on attack events.
	AbilityID string
	// Punish is set on EventAttackStarted when the attack was a punish.
	Punish bool
	// Interrupted is set on EventAttackEnded.
	Interrupted bool
}

// Listener receives agent events. Listeners must not call back into the
// agent's mutating methods.
type Listener func(Event)

type listenerEntry struct {
	id int
	fn Listener
}

type listeners struct {
	next    int
	entries []listenerEntry
}

func (l *listeners) add(fn Listener) func() {
	l.next++
	id := l.next
	l.entries = append(l.entries, listenerEntry{id: id, fn: fn})
	return func() {
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners) emit(e Event) {
	for _, entry := range l.entries {
		entry.fn(e)
	}
}
