package agent

// targetHandle is an optional reference to the opponent. It must be
// re-checked with get before every use.
type targetHandle struct {
	actor Actor
}

// get returns the actor if it is still a usable target.
func (h *targetHandle) get() (Actor, bool) {
	if h.actor == nil {
		return nil, false
	}
	if d, ok := h.actor.(Destroyable); ok && !d.IsValid() {
		return nil, false
	}
	if h.actor.IsDead() {
		return nil, false
	}
	return h.actor, true
}

func (h *targetHandle) set(a Actor) { h.actor = a }

func (h *targetHandle) clear() { h.actor = nil }

// id returns the held actor's ID, even if it is no longer valid.
func (h *targetHandle) id() string {
	if h.actor == nil {
		return ""
	}
	return h.actor.ID()
}
