package dice

import (
	"time"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger to provide logged decision rolls.
// Every Chance and Between call is logged at debug level with the reason,
// the probability or range, and the outcome.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil {
		panic("dice.NewLoggedRoller: src must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Intn delegates to the underlying Source without logging.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Float64 delegates to the underlying Source without logging.
func (r *Roller) Float64() float64 { return r.src.Float64() }

// Chance returns true with probability p. Values of p outside [0, 1] are
// clamped, so p <= 0 never succeeds and p >= 1 always does; neither consumes
// a random value.
//
// Postcondition: the roll is logged at debug level under reason.
func (r *Roller) Chance(p float64, reason string) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	v := r.src.Float64()
	ok := v < p
	r.logger.Debug("chance roll",
		zap.String("reason", reason),
		zap.Float64("p", p),
		zap.Float64("roll", v),
		zap.Bool("success", ok),
	)
	return ok
}

// Between returns a duration uniformly distributed in [lo, hi].
//
// Postcondition: returns lo when hi <= lo.
func (r *Roller) Between(lo, hi time.Duration, reason string) time.Duration {
	if hi <= lo {
		return lo
	}
	d := lo + time.Duration(r.src.Float64()*float64(hi-lo))
	r.logger.Debug("duration roll",
		zap.String("reason", reason),
		zap.Duration("min", lo),
		zap.Duration("max", hi),
		zap.Duration("result", d),
	)
	return d
}
