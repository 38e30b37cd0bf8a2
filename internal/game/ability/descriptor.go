// Package ability defines the attacks an agent can perform, loads them from
// YAML catalogues, and selects among them by weight under cooldown and
// eligibility gates.
package ability

import (
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Predicate reports whether an ability may be used at the given distance to
// the target and own health fraction in [0, 1].
type Predicate func(distance, healthFraction float64) bool

// ScriptCaller is the interface required to evaluate Lua eligibility hooks.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Descriptor is a static ability definition shared by every agent using the
// same catalogue. Per-agent runtime state lives in Slot.
type Descriptor struct {
	ID  string `yaml:"id"`
	Tag string `yaml:"tag"`
	// Clip is the animation clip reference played when the ability executes.
	Clip   string  `yaml:"clip"`
	Weight float64 `yaml:"weight"`
	// CooldownRaw is a Go duration string such as "1.5s"; empty means no cooldown.
	CooldownRaw string  `yaml:"cooldown"`
	GapCloser   bool    `yaml:"gap_closer"`
	MinDistance float64 `yaml:"min_distance"`
	// MaxDistance of 0 means unbounded.
	MaxDistance float64 `yaml:"max_distance"`
	MinHealth   float64 `yaml:"min_health"`
	// MaxHealth of 0 means 1.
	MaxHealth float64 `yaml:"max_health"`
	// Precondition is a Lua function name called as f(distance, health);
	// empty means always applicable.
	Precondition string `yaml:"precondition"`

	// Cooldown is parsed from CooldownRaw by Validate, or set directly.
	Cooldown time.Duration `yaml:"-"`
	// Eligible, when set, replaces the range checks and Lua hook entirely.
	Eligible Predicate `yaml:"-"`
}

// Validate checks required fields and ranges and parses CooldownRaw.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff ID and Clip are non-empty, Weight >= 0,
// distance and health bounds are consistent, and CooldownRaw is empty or a
// valid non-negative duration; on success Cooldown holds the parsed value.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return errors.New("ability: id must not be empty")
	}
	if d.Clip == "" {
		return fmt.Errorf("ability %q: clip must not be empty", d.ID)
	}
	if d.Weight < 0 {
		return fmt.Errorf("ability %q: weight must be >= 0, got %v", d.ID, d.Weight)
	}
	if d.MinDistance < 0 || d.MaxDistance < 0 {
		return fmt.Errorf("ability %q: distances must be >= 0", d.ID)
	}
	if d.MaxDistance > 0 && d.MinDistance > d.MaxDistance {
		return fmt.Errorf("ability %q: min_distance %v exceeds max_distance %v", d.ID, d.MinDistance, d.MaxDistance)
	}
	if d.MinHealth < 0 || d.MinHealth > 1 || d.MaxHealth < 0 || d.MaxHealth > 1 {
		return fmt.Errorf("ability %q: health bounds must be in [0, 1]", d.ID)
	}
	if d.MaxHealth > 0 && d.MinHealth > d.MaxHealth {
		return fmt.Errorf("ability %q: min_health %v exceeds max_health %v", d.ID, d.MinHealth, d.MaxHealth)
	}
	if d.CooldownRaw != "" {
		cd, err := time.ParseDuration(d.CooldownRaw)
		if err != nil {
			return fmt.Errorf("ability %q: cooldown %q is not a valid duration: %w", d.ID, d.CooldownRaw, err)
		}
		if cd < 0 {
			return fmt.Errorf("ability %q: cooldown must not be negative", d.ID)
		}
		d.Cooldown = cd
	}
	return nil
}

// InRange reports whether distance and healthFraction fall inside the
// descriptor's configured bounds.
func (d *Descriptor) InRange(distance, healthFraction float64) bool {
	if distance < d.MinDistance {
		return false
	}
	if d.MaxDistance > 0 && distance > d.MaxDistance {
		return false
	}
	maxHealth := d.MaxHealth
	if maxHealth == 0 {
		maxHealth = 1
	}
	return healthFraction >= d.MinHealth && healthFraction <= maxHealth
}

// Predicate builds the eligibility predicate for d. An explicit Eligible
// function wins; otherwise the range checks apply, followed by the Lua
// Precondition when both caller and Precondition are set. A Lua hook that
// errors or returns anything but true makes the ability ineligible.
func (d *Descriptor) Predicate(caller ScriptCaller, scope string) Predicate {
	if d.Eligible != nil {
		return d.Eligible
	}
	if caller == nil || d.Precondition == "" {
		return d.InRange
	}
	hook := d.Precondition
	return func(distance, healthFraction float64) bool {
		if !d.InRange(distance, healthFraction) {
			return false
		}
		val, err := caller.CallHook(scope, hook, lua.LNumber(distance), lua.LNumber(healthFraction))
		return err == nil && val == lua.LTrue
	}
}
