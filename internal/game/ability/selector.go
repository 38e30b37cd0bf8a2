package ability

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brawler/internal/game/dice"
)

// Slot is one agent's runtime view of a Descriptor.
type Slot struct {
	Descriptor *Descriptor
	// LastUsed is the virtual time the ability was last selected.
	LastUsed time.Duration
	used     bool
	eligible Predicate
}

// Ready reports whether the slot is off cooldown at now.
func (s *Slot) Ready(now time.Duration) bool {
	return !s.used || now-s.LastUsed >= s.Descriptor.Cooldown
}

// Query is the situation an ability is selected for.
type Query struct {
	Distance       float64
	HealthFraction float64
	Now            time.Duration
}

// Selector performs weighted, cooldown- and eligibility-gated ability picks
// for a single agent.
//
// Invariant: slots is fixed at construction; only LastUsed changes.
type Selector struct {
	slots  []*Slot
	src    dice.Source
	logger *zap.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*selectorOptions)

type selectorOptions struct {
	caller ScriptCaller
	scope  string
	logger *zap.Logger
}

// WithScripts evaluates descriptor Preconditions through caller in scope.
func WithScripts(caller ScriptCaller, scope string) SelectorOption {
	return func(o *selectorOptions) {
		o.caller = caller
		o.scope = scope
	}
}

// WithLogger sets the selector's logger.
func WithLogger(logger *zap.Logger) SelectorOption {
	return func(o *selectorOptions) { o.logger = logger }
}

// NewSelector builds a Selector over descs.
//
// Precondition: src must not be nil; descs must have been validated.
// Postcondition: every non-nil descriptor gets exactly one Slot, in order.
func NewSelector(descs []*Descriptor, src dice.Source, opts ...SelectorOption) *Selector {
	if src == nil {
		panic("ability.NewSelector: src must not be nil")
	}
	var o selectorOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	slots := make([]*Slot, 0, len(descs))
	for _, d := range descs {
		if d == nil {
			continue
		}
		slots = append(slots, &Slot{Descriptor: d, eligible: d.Predicate(o.caller, o.scope)})
	}
	return &Selector{slots: slots, src: src, logger: o.logger}
}

// Slots returns the selector's slots in declaration order.
func (s *Selector) Slots() []*Slot { return s.slots }

// Candidates returns the slots that pass eligibility, the gap-closer filter
// and the cooldown gate for q.
//
// Postcondition: every returned slot has Weight > 0.
func (s *Selector) Candidates(q Query, gapCloserOnly bool) []*Slot {
	var out []*Slot
	for _, slot := range s.slots {
		d := slot.Descriptor
		if d.Weight <= 0 {
			continue
		}
		if gapCloserOnly && !d.GapCloser {
			continue
		}
		if !slot.Ready(q.Now) {
			continue
		}
		if !slot.eligible(q.Distance, q.HealthFraction) {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// TrySelect picks one eligible, off-cooldown ability with probability
// proportional to its weight and records q.Now as its last use.
//
// Postcondition: returns (nil, false) when no candidate exists; the caller
// falls back to repositioning or recovering.
func (s *Selector) TrySelect(q Query, gapCloserOnly bool) (*Descriptor, bool) {
	cands := s.Candidates(q, gapCloserOnly)
	if len(cands) == 0 {
		return nil, false
	}
	var total float64
	for _, c := range cands {
		total += c.Descriptor.Weight
	}
	pick := s.src.Float64() * total
	chosen := cands[len(cands)-1]
	for _, c := range cands {
		pick -= c.Descriptor.Weight
		if pick < 0 {
			chosen = c
			break
		}
	}
	chosen.LastUsed = q.Now
	chosen.used = true
	s.logger.Debug("ability selected",
		zap.String("ability", chosen.Descriptor.ID),
		zap.Bool("gap_closer_only", gapCloserOnly),
		zap.Int("candidates", len(cands)),
		zap.Float64("distance", q.Distance),
	)
	return chosen.Descriptor, true
}

// Reset forgets every last-use timestamp.
//
// Postcondition: every slot is Ready at any time.
func (s *Selector) Reset() {
	for _, slot := range s.slots {
		slot.LastUsed = 0
		slot.used = false
	}
}
