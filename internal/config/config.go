// Package config provides Viper-based configuration loading for the combat
// simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/brawler/internal/game/agent"
	"github.com/cory-johannsen/brawler/internal/geom"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig locates ability catalogues and their Lua predicates.
type ContentConfig struct {
	// AbilitiesDir holds *.yaml ability catalogues.
	AbilitiesDir string `mapstructure:"abilities_dir"`
	// ScriptsDir holds one subdirectory of *.lua files per catalogue ID.
	// Empty disables scripted predicates.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// Catalogue is the catalogue ID the simulated agent fights with.
	Catalogue string `mapstructure:"catalogue"`
	// InstructionLimit caps VM instructions per predicate call.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ObstacleConfig is a circular line-of-sight blocker.
type ObstacleConfig struct {
	Center geom.Vec3 `mapstructure:"center"`
	Radius float64   `mapstructure:"radius"`
}

// OpponentConfig scripts the simulated player.
type OpponentConfig struct {
	Name           string        `mapstructure:"name"`
	Start          geom.Vec3     `mapstructure:"start"`
	Health         float64       `mapstructure:"health"`
	Speed          float64       `mapstructure:"speed"`
	AttackRange    float64       `mapstructure:"attack_range"`
	AttackInterval time.Duration `mapstructure:"attack_interval"`
	AttackDuration time.Duration `mapstructure:"attack_duration"`
	AttackDamage   float64       `mapstructure:"attack_damage"`
	PoiseDamage    float64       `mapstructure:"poise_damage"`
	DodgeInterval  time.Duration `mapstructure:"dodge_interval"`
	DodgeDuration  time.Duration `mapstructure:"dodge_duration"`
	DodgeRange     float64       `mapstructure:"dodge_range"`
	DodgeSpeed     float64       `mapstructure:"dodge_speed"`
	// HealBelow is the health fraction under which the opponent heals.
	HealBelow    float64       `mapstructure:"heal_below"`
	HealAmount   float64       `mapstructure:"heal_amount"`
	HealDuration time.Duration `mapstructure:"heal_duration"`
	Heals        int           `mapstructure:"heals"`
}

// SimulationConfig drives the headless duel.
type SimulationConfig struct {
	// TickRate is the number of simulation steps per second.
	TickRate int           `mapstructure:"tick_rate"`
	Duration time.Duration `mapstructure:"duration"`
	Seed     uint64        `mapstructure:"seed"`

	AgentStart  geom.Vec3 `mapstructure:"agent_start"`
	AgentHealth float64   `mapstructure:"agent_health"`
	AgentPoise  float64   `mapstructure:"agent_poise"`
	// PoiseRegen is poise restored per second.
	PoiseRegen  float64 `mapstructure:"poise_regen"`
	AgentDamage float64 `mapstructure:"agent_damage"`
	// AgentReach applies to abilities without a max_distance.
	AgentReach float64 `mapstructure:"agent_reach"`
	// ReviveAfter revives a dead agent after this long; 0 ends the duel.
	ReviveAfter time.Duration `mapstructure:"revive_after"`

	ClipDuration time.Duration `mapstructure:"clip_duration"`
	// ClipDurations overrides ClipDuration per clip. Keys are lower-cased by
	// the config loader.
	ClipDurations map[string]time.Duration `mapstructure:"clip_durations"`

	Obstacles []ObstacleConfig `mapstructure:"obstacles"`
	Opponent  OpponentConfig   `mapstructure:"opponent"`
}

// TickDuration returns the length of one simulation step.
//
// Precondition: TickRate must be > 0.
func (s SimulationConfig) TickDuration() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// Ticks returns the number of steps in Duration.
func (s SimulationConfig) Ticks() int {
	return int(s.Duration / s.TickDuration())
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Agent      agent.Config     `mapstructure:"agent"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Content    ContentConfig    `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Agent.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickRate < 1 || s.TickRate > 1000 {
		errs = append(errs, fmt.Sprintf("simulation.tick_rate must be 1-1000, got %d", s.TickRate))
	}
	if s.Duration <= 0 {
		errs = append(errs, "simulation.duration must be positive")
	}
	if s.AgentHealth <= 0 {
		errs = append(errs, "simulation.agent_health must be positive")
	}
	if s.AgentPoise <= 0 {
		errs = append(errs, "simulation.agent_poise must be positive")
	}
	if s.ClipDuration <= 0 {
		errs = append(errs, "simulation.clip_duration must be positive")
	}
	if s.ReviveAfter < 0 {
		errs = append(errs, "simulation.revive_after must not be negative")
	}
	for i, o := range s.Obstacles {
		if o.Radius <= 0 {
			errs = append(errs, fmt.Sprintf("simulation.obstacles[%d].radius must be positive", i))
		}
	}
	o := s.Opponent
	if o.Health <= 0 {
		errs = append(errs, "simulation.opponent.health must be positive")
	}
	if o.Speed <= 0 {
		errs = append(errs, "simulation.opponent.speed must be positive")
	}
	if o.HealBelow < 0 || o.HealBelow > 1 {
		errs = append(errs, fmt.Sprintf("simulation.opponent.heal_below must be in [0, 1], got %v", o.HealBelow))
	}
	if o.Heals < 0 {
		errs = append(errs, "simulation.opponent.heals must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.AbilitiesDir == "" {
		errs = append(errs, "content.abilities_dir must not be empty")
	}
	if c.Catalogue == "" {
		errs = append(errs, "content.catalogue must not be empty")
	}
	if c.InstructionLimit < 0 {
		errs = append(errs, "content.instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, fills agent defaults, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BRAWLER_ prefix
	v.SetEnvPrefix("BRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.Agent = cfg.Agent.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Scalar agent tunables are registered so BRAWLER_AGENT_* overrides
	// resolve; nested lists and zero values fall back through WithDefaults.
	d := agent.DefaultConfig()
	for key, val := range map[string]any{
		"agent.name":                     d.Name,
		"agent.boss":                     d.Boss,
		"agent.detection_radius":         d.DetectionRadius,
		"agent.field_of_view":            d.FieldOfView,
		"agent.reacquire_radius_factor":  d.ReacquireRadiusFactor,
		"agent.reacquire_grace":          d.ReacquireGrace,
		"agent.lose_sight_grace":         d.LoseSightGrace,
		"agent.walk_speed":               d.WalkSpeed,
		"agent.run_speed":                d.RunSpeed,
		"agent.attack_range":             d.AttackRange,
		"agent.gap_closer_distance":      d.GapCloserDistance,
		"agent.attack_delay_min":         d.AttackDelayMin,
		"agent.attack_delay_max":         d.AttackDelayMax,
		"agent.attack_delay_floor":       d.AttackDelayFloor,
		"agent.feint_chance":             d.FeintChance,
		"agent.wind_up_chance":           d.WindUpChance,
		"agent.combo_chance":             d.ComboChance,
		"agent.max_combo_hits":           d.MaxComboHits,
		"agent.wind_up_duration":         d.WindUpDuration,
		"agent.recovery_duration":        d.RecoveryDuration,
		"agent.reposition_interval":      d.RepositionInterval,
		"agent.leash_distance":           d.LeashDistance,
		"agent.poise_broken_duration":    d.PoiseBrokenDuration,
		"agent.idle_behavior":            d.IdleBehavior,
		"agent.aggression.base":          *d.Aggression.Base,
		"agent.aggression.per_phase":     *d.Aggression.PerPhase,
		"agent.punish.input_reading":     d.Punish.InputReading,
		"agent.punish.recovery_chance":   d.Punish.RecoveryChance,
		"agent.punish.evasive_chance":    d.Punish.EvasiveChance,
		"agent.punish.cooldown":          d.Punish.Cooldown,
		"agent.punish.reaction_delay":    d.Punish.ReactionDelay,
		"agent.boss_phases.phase2":       d.BossPhases.Phase2,
		"agent.boss_phases.phase3":       d.BossPhases.Phase3,
		"agent.boss_phases.enraged":      d.BossPhases.Enraged,
		"agent.tracking.windup_speed":    d.Tracking.WindupSpeed,
		"agent.tracking.hold_speed":      d.Tracking.HoldSpeed,
		"agent.tracking.commit_speed":    d.Tracking.CommitSpeed,
		"agent.tracking.windup_duration": d.Tracking.WindupDuration,
		"agent.tracking.hold_duration":   d.Tracking.HoldDuration,
	} {
		v.SetDefault(key, val)
	}

	v.SetDefault("simulation.tick_rate", 30)
	v.SetDefault("simulation.duration", "60s")
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.agent_health", 100.0)
	v.SetDefault("simulation.agent_poise", 40.0)
	v.SetDefault("simulation.poise_regen", 8.0)
	v.SetDefault("simulation.agent_damage", 12.0)
	v.SetDefault("simulation.agent_reach", 3.0)
	v.SetDefault("simulation.revive_after", "0s")
	v.SetDefault("simulation.clip_duration", "900ms")

	v.SetDefault("simulation.opponent.name", "player")
	v.SetDefault("simulation.opponent.health", 100.0)
	v.SetDefault("simulation.opponent.speed", 4.0)
	v.SetDefault("simulation.opponent.attack_range", 2.2)
	v.SetDefault("simulation.opponent.attack_interval", "1800ms")
	v.SetDefault("simulation.opponent.attack_duration", "500ms")
	v.SetDefault("simulation.opponent.attack_damage", 9.0)
	v.SetDefault("simulation.opponent.poise_damage", 14.0)
	v.SetDefault("simulation.opponent.dodge_interval", "3s")
	v.SetDefault("simulation.opponent.dodge_duration", "600ms")
	v.SetDefault("simulation.opponent.dodge_range", 3.0)
	v.SetDefault("simulation.opponent.dodge_speed", 7.0)
	v.SetDefault("simulation.opponent.heal_below", 0.4)
	v.SetDefault("simulation.opponent.heal_amount", 0.35)
	v.SetDefault("simulation.opponent.heal_duration", "1500ms")
	v.SetDefault("simulation.opponent.heals", 3)

	v.SetDefault("content.abilities_dir", "content/abilities")
	v.SetDefault("content.scripts_dir", "content/scripts/abilities")
	v.SetDefault("content.catalogue", "knight")
	v.SetDefault("content.instruction_limit", 100000)
}
