package sim

import (
	"context"
	"time"
)

// Pacer steps a Duel on the wall clock so it can be watched as it plays.
// Every step advances the duel by exactly one interval, however late the
// wall-clock tick fires.
type Pacer struct {
	duel     *Duel
	interval time.Duration
	onStep   func(*Duel)
}

// NewPacer returns a Pacer stepping d once per interval. onStep, if non-nil,
// is called after every step.
//
// Precondition: interval must be > 0.
func NewPacer(d *Duel, interval time.Duration, onStep func(*Duel)) *Pacer {
	if interval <= 0 {
		panic("sim.NewPacer: interval must be > 0")
	}
	return &Pacer{duel: d, interval: interval, onStep: onStep}
}

// Run blocks until a side wins, ticks steps have run, or ctx is cancelled.
//
// Postcondition: the returned Result reflects every completed step; a
// non-nil error is ctx.Err().
func (p *Pacer) Run(ctx context.Context, ticks int) (Result, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for n := 0; n < ticks && !p.duel.Done(); n++ {
		if err := ctx.Err(); err != nil {
			return p.duel.Result(), err
		}
		select {
		case <-ctx.Done():
			return p.duel.Result(), ctx.Err()
		case <-ticker.C:
		}
		p.duel.Step(p.interval)
		if p.onStep != nil {
			p.onStep(p.duel)
		}
	}
	return p.duel.Result(), nil
}
