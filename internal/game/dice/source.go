// Package dice provides the randomness abstraction behind every probabilistic
// decision the agent core makes.
package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

// Source is the randomness provider for decision rolls.
//
// Implementations used by a single agent are only ever called from that
// agent's tick and need not be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Float64 returns a cryptographically secure float in [0, 1).
func (c *cryptoSource) Float64() float64 {
	return float64(c.Intn(1<<53)) / (1 << 53)
}

// seededSource is a deterministic PCG-backed Source.
type seededSource struct {
	r *mrand.Rand
}

// NewSeededSource returns a deterministic Source; equal seeds yield equal
// sequences.
func NewSeededSource(seed uint64) Source {
	return &seededSource{r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.r.IntN(n)
}

// Float64 returns a random float in [0, 1).
func (s *seededSource) Float64() float64 { return s.r.Float64() }
