package agent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cory-johannsen/brawler/internal/geom"
)

// Idle behaviors selectable through Config.IdleBehavior.
const (
	IdleBehaviorNone   = "none"
	IdleBehaviorPatrol = "patrol"
	IdleBehaviorRoam   = "roam"
)

// TrackingConfig holds the attack tracking rotation rates (degrees per
// second) and phase durations.
type TrackingConfig struct {
	WindupSpeed    float64       `mapstructure:"windup_speed"`
	HoldSpeed      float64       `mapstructure:"hold_speed"`
	CommitSpeed    float64       `mapstructure:"commit_speed"`
	WindupDuration time.Duration `mapstructure:"windup_duration"`
	HoldDuration   time.Duration `mapstructure:"hold_duration"`
}

// AggressionConfig parameterizes base + phaseIndex*PerPhase. Zero is a
// meaningful setting for both, so nil marks a field as unset.
type AggressionConfig struct {
	Base     *float64 `mapstructure:"base"`
	PerPhase *float64 `mapstructure:"per_phase"`
}

// PunishConfig controls the opponent-state reader and punish evaluator.
type PunishConfig struct {
	// InputReading enables polling the target for vulnerable actions.
	InputReading bool `mapstructure:"input_reading"`
	// RecoveryChance is the punish probability while the target heals.
	RecoveryChance float64 `mapstructure:"recovery_chance"`
	// EvasiveChance is the punish probability while the target dodges.
	EvasiveChance float64       `mapstructure:"evasive_chance"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	// ReactionDelay is how long a vulnerable action must be held before it
	// can be punished.
	ReactionDelay time.Duration `mapstructure:"reaction_delay"`
	// Clip-name substrings used when the target does not report its actions.
	RecoveryClipKeywords []string `mapstructure:"recovery_clip_keywords"`
	EvasiveClipKeywords  []string `mapstructure:"evasive_clip_keywords"`
}

// BossConfig holds the descending health thresholds for boss phases.
type BossConfig struct {
	Phase2  float64 `mapstructure:"phase2"`
	Phase3  float64 `mapstructure:"phase3"`
	Enraged float64 `mapstructure:"enraged"`
	// TransitionDuration, when positive, makes the agent uninterruptable for
	// that long on every phase change.
	TransitionDuration time.Duration `mapstructure:"transition_duration"`
}

// PatrolConfig describes the patrol route.
type PatrolConfig struct {
	Waypoints []geom.Vec3   `mapstructure:"waypoints"`
	Wait      time.Duration `mapstructure:"wait"`
}

// RoamConfig describes noise-driven wandering around spawn.
type RoamConfig struct {
	Radius   float64       `mapstructure:"radius"`
	Interval time.Duration `mapstructure:"interval"`
	Seed     int64         `mapstructure:"seed"`
}

// Config is the full tuning set for one agent.
//
// Zero-valued fields take the defaults documented on DefaultConfig when
// passed through WithDefaults. Probability and rate fields treat a negative
// value as "disabled".
type Config struct {
	Name string `mapstructure:"name"`
	Boss bool   `mapstructure:"boss"`

	DetectionRadius float64 `mapstructure:"detection_radius"`
	// FieldOfView is the full detection cone in degrees.
	FieldOfView           float64       `mapstructure:"field_of_view"`
	ReacquireRadiusFactor float64       `mapstructure:"reacquire_radius_factor"`
	ReacquireGrace        time.Duration `mapstructure:"reacquire_grace"`
	LoseSightGrace        time.Duration `mapstructure:"lose_sight_grace"`

	WalkSpeed        float64 `mapstructure:"walk_speed"`
	RunSpeed         float64 `mapstructure:"run_speed"`
	SprintDistance   float64 `mapstructure:"sprint_distance"`
	ArrivalTolerance float64 `mapstructure:"arrival_tolerance"`
	TurnInPlaceAngle float64 `mapstructure:"turn_in_place_angle"`
	TurnSpeed        float64 `mapstructure:"turn_speed"`

	AttackRange          float64       `mapstructure:"attack_range"`
	AttackRangeTolerance float64       `mapstructure:"attack_range_tolerance"`
	GapCloserDistance    float64       `mapstructure:"gap_closer_distance"`
	AttackDelayMin       time.Duration `mapstructure:"attack_delay_min"`
	AttackDelayMax       time.Duration `mapstructure:"attack_delay_max"`
	AttackDelayFloor     time.Duration `mapstructure:"attack_delay_floor"`
	DecisionInterval     time.Duration `mapstructure:"decision_interval"`
	// CooldownRepositionRate is the per-second chance of repositioning while
	// the attack cooldown runs.
	CooldownRepositionRate float64       `mapstructure:"cooldown_reposition_rate"`
	FeintChance            float64       `mapstructure:"feint_chance"`
	WindUpChance           float64       `mapstructure:"wind_up_chance"`
	ComboChance            float64       `mapstructure:"combo_chance"`
	MaxComboHits           int           `mapstructure:"max_combo_hits"`
	ComboDelay             time.Duration `mapstructure:"combo_delay"`

	WindUpDuration   time.Duration `mapstructure:"wind_up_duration"`
	WindUpExtension  time.Duration `mapstructure:"wind_up_extension"`
	RecoveryDuration time.Duration `mapstructure:"recovery_duration"`

	PreferredDistance   float64       `mapstructure:"preferred_distance"`
	AdjacentDistance    float64       `mapstructure:"adjacent_distance"`
	FarDistance         float64       `mapstructure:"far_distance"`
	RepositionInterval  time.Duration `mapstructure:"reposition_interval"`
	PositioningDuration time.Duration `mapstructure:"positioning_duration"`
	StrafeStep          float64       `mapstructure:"strafe_step"`
	StrafeBias          float64       `mapstructure:"strafe_bias"`
	StrafeFlipChance    float64       `mapstructure:"strafe_flip_chance"`

	RetreatDistance float64       `mapstructure:"retreat_distance"`
	RetreatTimeout  time.Duration `mapstructure:"retreat_timeout"`

	InvestigateTimeout  time.Duration `mapstructure:"investigate_timeout"`
	LeashDistance       float64       `mapstructure:"leash_distance"`
	ReturnTolerance     float64       `mapstructure:"return_tolerance"`
	PoiseBrokenDuration time.Duration `mapstructure:"poise_broken_duration"`

	IdleBehavior string        `mapstructure:"idle_behavior"`
	IdleDwell    time.Duration `mapstructure:"idle_dwell"`

	Tracking   TrackingConfig   `mapstructure:"tracking"`
	Aggression AggressionConfig `mapstructure:"aggression"`
	Punish     PunishConfig     `mapstructure:"punish"`
	BossPhases BossConfig       `mapstructure:"boss_phases"`
	Patrol     PatrolConfig     `mapstructure:"patrol"`
	Roam       RoamConfig       `mapstructure:"roam"`
}

// DefaultConfig returns the documented defaults for every tunable.
//
// Distances are in world units, angles in degrees, rotation speeds in
// degrees per second.
func DefaultConfig() Config {
	return Config{
		Name: "agent",

		DetectionRadius:       15,
		FieldOfView:           140,
		ReacquireRadiusFactor: 2,
		ReacquireGrace:        3 * time.Second,
		LoseSightGrace:        2 * time.Second,

		WalkSpeed:        2.5,
		RunSpeed:         6,
		SprintDistance:   8,
		ArrivalTolerance: 0.75,
		TurnInPlaceAngle: 60,
		TurnSpeed:        240,

		AttackRange:            2.5,
		AttackRangeTolerance:   1.1,
		GapCloserDistance:      6,
		AttackDelayMin:         1200 * time.Millisecond,
		AttackDelayMax:         2500 * time.Millisecond,
		AttackDelayFloor:       300 * time.Millisecond,
		DecisionInterval:       time.Second,
		CooldownRepositionRate: 0.1,
		FeintChance:            0.25,
		WindUpChance:           0.5,
		ComboChance:            0.6,
		MaxComboHits:           3,
		ComboDelay:             250 * time.Millisecond,

		WindUpDuration:   600 * time.Millisecond,
		WindUpExtension:  400 * time.Millisecond,
		RecoveryDuration: 800 * time.Millisecond,

		PreferredDistance:   4,
		AdjacentDistance:    1,
		FarDistance:         10,
		RepositionInterval:  750 * time.Millisecond,
		PositioningDuration: 2500 * time.Millisecond,
		StrafeStep:          2.5,
		StrafeBias:          0.5,
		StrafeFlipChance:    0.15,

		RetreatDistance: 3,
		RetreatTimeout:  1500 * time.Millisecond,

		InvestigateTimeout:  8 * time.Second,
		LeashDistance:       30,
		ReturnTolerance:     1.5,
		PoiseBrokenDuration: 2 * time.Second,

		IdleBehavior: IdleBehaviorNone,
		IdleDwell:    3 * time.Second,

		Tracking: TrackingConfig{
			WindupSpeed:    360,
			HoldSpeed:      120,
			CommitSpeed:    5,
			WindupDuration: 250 * time.Millisecond,
			HoldDuration:   200 * time.Millisecond,
		},
		Aggression: AggressionConfig{
			Base:     new(0.5),
			PerPhase: new(0.15),
		},
		Punish: PunishConfig{
			RecoveryChance:       0.8,
			EvasiveChance:        0.5,
			Cooldown:             4 * time.Second,
			ReactionDelay:        200 * time.Millisecond,
			RecoveryClipKeywords: []string{"heal", "drink", "estus"},
			EvasiveClipKeywords:  []string{"dodge", "roll", "evade"},
		},
		BossPhases: BossConfig{
			Phase2:  0.7,
			Phase3:  0.4,
			Enraged: 0.2,
		},
		Patrol: PatrolConfig{
			Wait: 2 * time.Second,
		},
		Roam: RoamConfig{
			Radius:   8,
			Interval: 4 * time.Second,
		},
	}
}

func orF(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

func orD(v *time.Duration, def time.Duration) {
	if *v == 0 {
		*v = def
	}
}

// WithDefaults returns c with every zero-valued tunable and nil aggression
// field replaced by its DefaultConfig value. Booleans, waypoints and the roam
// seed are kept as is.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.IdleBehavior == "" {
		c.IdleBehavior = d.IdleBehavior
	}
	if c.MaxComboHits == 0 {
		c.MaxComboHits = d.MaxComboHits
	}
	for _, p := range []struct {
		v   *float64
		def float64
	}{
		{&c.DetectionRadius, d.DetectionRadius},
		{&c.FieldOfView, d.FieldOfView},
		{&c.ReacquireRadiusFactor, d.ReacquireRadiusFactor},
		{&c.WalkSpeed, d.WalkSpeed},
		{&c.RunSpeed, d.RunSpeed},
		{&c.SprintDistance, d.SprintDistance},
		{&c.ArrivalTolerance, d.ArrivalTolerance},
		{&c.TurnInPlaceAngle, d.TurnInPlaceAngle},
		{&c.TurnSpeed, d.TurnSpeed},
		{&c.AttackRange, d.AttackRange},
		{&c.AttackRangeTolerance, d.AttackRangeTolerance},
		{&c.GapCloserDistance, d.GapCloserDistance},
		{&c.CooldownRepositionRate, d.CooldownRepositionRate},
		{&c.FeintChance, d.FeintChance},
		{&c.WindUpChance, d.WindUpChance},
		{&c.ComboChance, d.ComboChance},
		{&c.PreferredDistance, d.PreferredDistance},
		{&c.AdjacentDistance, d.AdjacentDistance},
		{&c.FarDistance, d.FarDistance},
		{&c.StrafeStep, d.StrafeStep},
		{&c.StrafeBias, d.StrafeBias},
		{&c.StrafeFlipChance, d.StrafeFlipChance},
		{&c.RetreatDistance, d.RetreatDistance},
		{&c.LeashDistance, d.LeashDistance},
		{&c.ReturnTolerance, d.ReturnTolerance},
		{&c.Tracking.WindupSpeed, d.Tracking.WindupSpeed},
		{&c.Tracking.HoldSpeed, d.Tracking.HoldSpeed},
		{&c.Tracking.CommitSpeed, d.Tracking.CommitSpeed},
		{&c.Punish.RecoveryChance, d.Punish.RecoveryChance},
		{&c.Punish.EvasiveChance, d.Punish.EvasiveChance},
		{&c.BossPhases.Phase2, d.BossPhases.Phase2},
		{&c.BossPhases.Phase3, d.BossPhases.Phase3},
		{&c.BossPhases.Enraged, d.BossPhases.Enraged},
		{&c.Roam.Radius, d.Roam.Radius},
	} {
		orF(p.v, p.def)
	}
	for _, p := range []struct {
		v   *time.Duration
		def time.Duration
	}{
		{&c.ReacquireGrace, d.ReacquireGrace},
		{&c.LoseSightGrace, d.LoseSightGrace},
		{&c.AttackDelayMin, d.AttackDelayMin},
		{&c.AttackDelayMax, d.AttackDelayMax},
		{&c.AttackDelayFloor, d.AttackDelayFloor},
		{&c.DecisionInterval, d.DecisionInterval},
		{&c.ComboDelay, d.ComboDelay},
		{&c.WindUpDuration, d.WindUpDuration},
		{&c.WindUpExtension, d.WindUpExtension},
		{&c.RecoveryDuration, d.RecoveryDuration},
		{&c.RepositionInterval, d.RepositionInterval},
		{&c.PositioningDuration, d.PositioningDuration},
		{&c.RetreatTimeout, d.RetreatTimeout},
		{&c.InvestigateTimeout, d.InvestigateTimeout},
		{&c.PoiseBrokenDuration, d.PoiseBrokenDuration},
		{&c.IdleDwell, d.IdleDwell},
		{&c.Tracking.WindupDuration, d.Tracking.WindupDuration},
		{&c.Tracking.HoldDuration, d.Tracking.HoldDuration},
		{&c.Punish.Cooldown, d.Punish.Cooldown},
		{&c.Punish.ReactionDelay, d.Punish.ReactionDelay},
		{&c.Patrol.Wait, d.Patrol.Wait},
		{&c.Roam.Interval, d.Roam.Interval},
	} {
		orD(p.v, p.def)
	}
	if c.Aggression.Base == nil {
		c.Aggression.Base = d.Aggression.Base
	}
	if c.Aggression.PerPhase == nil {
		c.Aggression.PerPhase = d.Aggression.PerPhase
	}
	if c.Punish.RecoveryClipKeywords == nil {
		c.Punish.RecoveryClipKeywords = d.Punish.RecoveryClipKeywords
	}
	if c.Punish.EvasiveClipKeywords == nil {
		c.Punish.EvasiveClipKeywords = d.Punish.EvasiveClipKeywords
	}
	return c
}

// Validate checks cross-field invariants. It is meant for a config that has
// already been through WithDefaults.
//
// Postcondition: Returns nil if c is usable, or an error listing every violation.
func (c Config) Validate() error {
	var errs []string
	positive := map[string]float64{
		"detection_radius":        c.DetectionRadius,
		"reacquire_radius_factor": c.ReacquireRadiusFactor,
		"attack_range":            c.AttackRange,
		"attack_range_tolerance":  c.AttackRangeTolerance,
		"walk_speed":              c.WalkSpeed,
		"run_speed":               c.RunSpeed,
		"leash_distance":          c.LeashDistance,
		"preferred_distance":      c.PreferredDistance,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be > 0, got %v", name, v))
		}
	}
	if c.FieldOfView <= 0 || c.FieldOfView > 360 {
		errs = append(errs, fmt.Sprintf("field_of_view must be in (0, 360], got %v", c.FieldOfView))
	}
	probs := map[string]float64{
		"feint_chance":           c.FeintChance,
		"wind_up_chance":         c.WindUpChance,
		"combo_chance":           c.ComboChance,
		"strafe_flip_chance":     c.StrafeFlipChance,
		"punish.recovery_chance": c.Punish.RecoveryChance,
		"punish.evasive_chance":  c.Punish.EvasiveChance,
	}
	for name, v := range probs {
		if v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be <= 1, got %v", name, v))
		}
	}
	if b := c.Aggression.Base; b != nil && (*b < 0 || *b > 1) {
		errs = append(errs, fmt.Sprintf("aggression.base must be in [0, 1], got %v", *b))
	}
	if c.AttackDelayMin > c.AttackDelayMax {
		errs = append(errs, fmt.Sprintf("attack_delay_min %v exceeds attack_delay_max %v", c.AttackDelayMin, c.AttackDelayMax))
	}
	if c.AttackDelayFloor < 0 {
		errs = append(errs, "attack_delay_floor must not be negative")
	}
	if c.MaxComboHits < 1 {
		errs = append(errs, fmt.Sprintf("max_combo_hits must be >= 1, got %d", c.MaxComboHits))
	}
	if c.AdjacentDistance >= c.FarDistance {
		errs = append(errs, "adjacent_distance must be less than far_distance")
	}
	b := c.BossPhases
	if !(b.Phase2 > b.Phase3 && b.Phase3 > b.Enraged && b.Enraged > 0 && b.Phase2 < 1) {
		errs = append(errs, fmt.Sprintf("boss thresholds must satisfy 1 > phase2 > phase3 > enraged > 0, got %v/%v/%v", b.Phase2, b.Phase3, b.Enraged))
	}
	switch c.IdleBehavior {
	case IdleBehaviorNone, IdleBehaviorPatrol, IdleBehaviorRoam:
	default:
		errs = append(errs, fmt.Sprintf("idle_behavior must be one of [none, patrol, roam], got %q", c.IdleBehavior))
	}
	if c.IdleBehavior == IdleBehaviorPatrol && len(c.Patrol.Waypoints) == 0 {
		errs = append(errs, "idle_behavior patrol requires patrol.waypoints")
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("agent config %q invalid: %s", c.Name, strings.Join(errs, "; "))
	}
	return nil
}
