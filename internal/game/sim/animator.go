package sim

import (
	"strings"
	"time"
)

// Animator plays one clip at a time for a fixed duration per clip.
//
// Invariant: onDone is non-nil exactly while a clip is playing.
type Animator struct {
	durations map[string]time.Duration
	fallback  time.Duration

	clip    string
	elapsed time.Duration
	length  time.Duration
	onDone  func(interrupted bool)
}

// NewAnimator builds an Animator; clips not in durations last fallback.
// Clip names match case-insensitively.
func NewAnimator(durations map[string]time.Duration, fallback time.Duration) *Animator {
	lower := make(map[string]time.Duration, len(durations))
	for k, d := range durations {
		lower[strings.ToLower(k)] = d
	}
	return &Animator{durations: lower, fallback: fallback}
}

// PlayClip starts ref, interrupting whatever was playing.
func (a *Animator) PlayClip(ref string, onComplete func(interrupted bool)) bool {
	if ref == "" {
		return false
	}
	a.Interrupt()
	a.clip = ref
	a.elapsed = 0
	a.length = a.fallback
	if d, ok := a.durations[strings.ToLower(ref)]; ok {
		a.length = d
	}
	a.onDone = onComplete
	return true
}

func (a *Animator) IsAnyClipPlaying() bool { return a.onDone != nil }

// CurrentClip returns the playing clip name or "".
func (a *Animator) CurrentClip() string { return a.clip }

// Interrupt cuts the current clip short.
func (a *Animator) Interrupt() { a.end(true) }

// Update advances the clip and fires completion once it has run its length.
func (a *Animator) Update(dt time.Duration) {
	if a.onDone == nil {
		return
	}
	a.elapsed += dt
	if a.elapsed >= a.length {
		a.end(false)
	}
}

func (a *Animator) end(interrupted bool) {
	done := a.onDone
	if done == nil {
		return
	}
	a.onDone = nil
	a.clip = ""
	done(interrupted)
}
