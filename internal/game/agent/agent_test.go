package agent_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/brawler/internal/game/ability"
	"github.com/cory-johannsen/brawler/internal/game/agent"
	"github.com/cory-johannsen/brawler/internal/geom"
)

func TestNew_PanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() { agent.New("x", agent.DefaultConfig(), agent.Deps{}) })
}

func TestNew_StartsIdle(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(50, 0, 0))
	assert.Equal(t, agent.StateIdle, h.agent.State())
	assert.Equal(t, agent.SubNone, h.agent.SubState())
	assert.Equal(t, agent.TrackingNone, h.agent.TrackingPhase())
	assert.Equal(t, "knight-1", h.agent.ID())
	assert.InDelta(t, 0.5, h.agent.Aggression(), 1e-9)
}

func TestNew_ZeroAggressionNeverAttacksOnTheEngageRoll(t *testing.T) {
	cfg := agent.DefaultConfig()
	cfg.Aggression.Base = new(0.0)
	cfg.Aggression.PerPhase = new(0.0)
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	assert.Zero(t, h.agent.Aggression())

	h.tickN(2)
	assert.Equal(t, agent.SubPositioning, h.agent.SubState())
	assert.Empty(t, h.anim.plays)
}

func TestIdle_VisibleHostileEntersCombatWithinOneTick(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))

	h.agent.Tick(tick)

	assert.Equal(t, agent.StateCombat, h.agent.State())
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
	target, ok := h.agent.Target()
	require.True(t, ok)
	assert.Equal(t, "player", target.ID())
	changes := h.eventsOf(agent.EventStateChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, agent.StateIdle, changes[0].From)
	assert.Equal(t, agent.StateCombat, changes[0].To)
}

func TestIdle_IgnoresHostilesThatCannotBeSeen(t *testing.T) {
	cases := map[string]func(h *harness){
		"behind":       func(h *harness) { h.opponent.pos = geom.V(-5, 0, 0) },
		"out of range": func(h *harness) { h.opponent.pos = geom.V(20, 0, 0) },
		"occluded":     func(h *harness) { h.sense.blocked = true },
		"dead":         func(h *harness) { h.opponent.dead = true },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))
			setup(h)
			h.tickN(5)
			assert.Equal(t, agent.StateIdle, h.agent.State())
			_, ok := h.agent.Target()
			assert.False(t, ok)
		})
	}
}

func TestDead_IsTerminalUntilRevived(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	require.Equal(t, agent.StateCombat, h.agent.State())

	h.self.dead = true
	h.agent.Tick(tick)
	require.Equal(t, agent.StateDead, h.agent.State())
	assert.Equal(t, agent.SubNone, h.agent.SubState())
	_, ok := h.agent.Target()
	assert.False(t, ok)

	h.self.dead = false
	assert.False(t, h.agent.TriggerPoiseBroken())
	assert.False(t, h.agent.EnterUninterruptable(time.Second))
	h.agent.SetTarget(h.opponent)
	h.agent.OnDeath()
	h.tickN(20)
	assert.Equal(t, agent.StateDead, h.agent.State())
}

func TestOnDeath_CancelsInFlightAttack(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	require.Equal(t, agent.SubAttacking, h.agent.SubState())

	h.agent.OnDeath()
	ended := h.eventsOf(agent.EventAttackEnded)
	require.Len(t, ended, 1)
	assert.True(t, ended[0].Interrupted)
	assert.Equal(t, agent.TrackingNone, h.agent.TrackingPhase())

	// The late completion notification belongs to a cancelled attack.
	h.anim.finish(false)
	assert.Len(t, h.eventsOf(agent.EventAttackEnded), 1)
	assert.Equal(t, agent.StateDead, h.agent.State())
}

func TestResetFromDeath_OnlyFromDead(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(50, 0, 0))
	assert.False(t, h.agent.ResetFromDeath())
	assert.Equal(t, agent.StateIdle, h.agent.State())
}

func TestResetFromDeath_ReacquiresWithExpandedRadiusIgnoringFacing(t *testing.T) {
	// Behind the agent and beyond the normal 15m radius, inside 15m * 2.
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(-25, 0, 0))
	h.agent.OnDeath()
	require.Equal(t, agent.StateDead, h.agent.State())

	require.True(t, h.agent.ResetFromDeath())

	assert.Equal(t, agent.StateCombat, h.agent.State())
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
	target, ok := h.agent.Target()
	require.True(t, ok)
	assert.Equal(t, "player", target.ID())
}

func TestResetFromDeath_GraceExpires(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(-25, 0, 0))
	h.sense.blocked = true
	h.agent.OnDeath()
	require.True(t, h.agent.ResetFromDeath())
	require.Equal(t, agent.StateIdle, h.agent.State())

	h.tickN(40)
	h.sense.blocked = false
	h.agent.Tick(tick)
	assert.Equal(t, agent.StateIdle, h.agent.State(), "normal radius and facing apply after grace")
}

func TestResetFromDeath_ReinitializesRuntimeState(t *testing.T) {
	cfg := aggressiveConfig()
	cfg.Boss = true
	cfg.ComboChance = 1
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	h.anim.finish(false)
	require.Equal(t, 1, h.agent.Combo())
	h.self.health = 0.1
	h.agent.Tick(tick)
	require.Equal(t, agent.PhaseEnraged, h.agent.BossPhase())

	h.agent.OnDeath()
	require.Len(t, h.eventsOf(agent.EventBossEncounterEnded), 1)
	h.self.health = 1
	require.True(t, h.agent.ResetFromDeath())

	assert.Equal(t, agent.PhaseOne, h.agent.BossPhase())
	assert.Equal(t, 0, h.agent.Combo())
	minD, maxD := h.agent.AttackDelays()
	assert.Equal(t, cfg.AttackDelayMin, minD)
	assert.Equal(t, cfg.AttackDelayMax, maxD)
	assert.InDelta(t, 1.0, h.agent.Aggression(), 1e-9)
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
}

func TestWindingUp_ExecutesCachedAbilityOnce(t *testing.T) {
	cfg := aggressiveConfig()
	cfg.WindUpChance = 1
	eligible := true
	abs := []*ability.Descriptor{
		{ID: "overhead", Clip: "overhead", Weight: 1, Eligible: func(float64, float64) bool { return eligible }},
		{ID: "jab", Clip: "jab", Weight: 1},
	}
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0), abs...)

	h.agent.Tick(tick)
	require.Equal(t, agent.SubEngaging, h.agent.SubState())
	h.agent.Tick(tick)
	require.Equal(t, agent.SubWindingUp, h.agent.SubState())

	// A fresh roll would now pick jab; the cached choice must survive.
	eligible = false
	h.tickN(5)
	assert.Equal(t, agent.SubWindingUp, h.agent.SubState())
	assert.Empty(t, h.anim.plays)

	h.agent.Tick(tick)
	assert.Equal(t, agent.SubAttacking, h.agent.SubState())
	assert.Equal(t, []string{"overhead"}, h.anim.plays)

	h.tickN(10)
	assert.Equal(t, agent.SubAttacking, h.agent.SubState(), "attacking has no timed exit")
	assert.Equal(t, []string{"overhead"}, h.anim.plays)
}

func TestWindingUp_ExtendsOnceWhenOpponentVulnerable(t *testing.T) {
	cfg := aggressiveConfig()
	cfg.WindUpChance = 1
	cfg.Punish.InputReading = true
	cfg.Punish.RecoveryChance = -1
	cfg.Punish.EvasiveChance = -1
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	require.Equal(t, agent.SubWindingUp, h.agent.SubState())

	h.opponent.evading = true
	h.tickN(6)
	assert.Equal(t, agent.SubWindingUp, h.agent.SubState())
	h.tickN(4)
	assert.Equal(t, agent.SubAttacking, h.agent.SubState())
	assert.Len(t, h.anim.plays, 1)
}

func TestEngaging_TurnsInPlaceBeforeActing(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(2, 0, 0))
	h.agent.Tick(tick)
	h.body.fwd = geom.V(-1, 0, 0)

	h.agent.Tick(tick)
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
	assert.Empty(t, h.anim.plays)

	h.agent.Tick(tick)
	assert.Equal(t, agent.SubAttacking, h.agent.SubState())
}

func TestEngaging_ClosesDistanceAndUsesGapCloser(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(8, 0, 0))
	h.agent.Tick(tick)
	h.agent.Tick(tick)
	assert.Equal(t, []string{"leap"}, h.anim.plays)
	assert.Equal(t, agent.SubAttacking, h.agent.SubState())
}

func TestEngaging_WalksTowardTargetWithoutGapCloser(t *testing.T) {
	cfg := aggressiveConfig()
	h := newHarness(t, cfg, constSource{0}, geom.V(9, 0, 0), &ability.Descriptor{ID: "slash", Clip: "slash", Weight: 1, MaxDistance: 3})
	h.tickN(2)
	assert.Empty(t, h.anim.plays)
	require.NotEmpty(t, h.body.moves)
	assert.Equal(t, geom.V(9, 0, 0), h.body.moves[len(h.body.moves)-1])
	assert.Equal(t, cfg.RunSpeed, h.body.speed)
}

func TestEngaging_FailedAggressionRollRepositions(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.99}, geom.V(2, 0, 0))
	h.tickN(2)
	assert.Equal(t, agent.SubPositioning, h.agent.SubState())
	assert.Empty(t, h.anim.plays)
}

func TestEngaging_FeintDropsIntoPositioning(t *testing.T) {
	cfg := aggressiveConfig()
	cfg.Aggression.Base = new(0.5)
	cfg.FeintChance = 1
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	assert.Equal(t, agent.SubPositioning, h.agent.SubState())
	assert.Empty(t, h.anim.plays)
}

func TestEngaging_NoEligibleAbilityRepositions(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(2, 0, 0),
		&ability.Descriptor{ID: "far", Clip: "far", Weight: 1, MinDistance: 20})
	h.tickN(2)
	assert.Equal(t, agent.SubPositioning, h.agent.SubState())
}

func TestAttack_CompletionEntersRecoveringAndClearsTracking(t *testing.T) {
	cfg := aggressiveConfig()
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	require.Equal(t, agent.SubAttacking, h.agent.SubState())
	assert.Equal(t, agent.TrackingWindup, h.agent.TrackingPhase())

	h.tickN(2)
	assert.Equal(t, agent.TrackingHold, h.agent.TrackingPhase())
	h.tickN(2)
	assert.Equal(t, agent.TrackingCommit, h.agent.TrackingPhase())
	assert.Equal(t, cfg.Tracking.CommitSpeed, h.body.rotations[len(h.body.rotations)-1])

	h.anim.finish(false)
	assert.Equal(t, agent.SubRecovering, h.agent.SubState())
	assert.Equal(t, agent.TrackingNone, h.agent.TrackingPhase())
	assert.Equal(t, 0, h.agent.Combo())
	ended := h.eventsOf(agent.EventAttackEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "slash", ended[0].AbilityID)
	assert.False(t, ended[0].Interrupted)
}

func TestAttack_ClipThatFailsToStartRecoversImmediately(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(2, 0, 0))
	h.anim.refuse = true
	h.tickN(2)
	assert.Equal(t, agent.SubRecovering, h.agent.SubState())
	ended := h.eventsOf(agent.EventAttackEnded)
	require.Len(t, ended, 1)
	assert.True(t, ended[0].Interrupted)
}

func TestRecovering_WaitsForWindowThenReengages(t *testing.T) {
	cfg := aggressiveConfig()
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	h.anim.finish(false)
	require.Equal(t, agent.SubRecovering, h.agent.SubState())

	h.tickN(7)
	assert.Equal(t, agent.SubRecovering, h.agent.SubState())
	h.tickN(1)
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
}

func TestRecovering_WaitsForPlayingClipUpToTwiceTheWindow(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	h.anim.finish(false)
	h.anim.playing = true

	// 800ms window, held to 1.6s while a clip keeps playing.
	h.tickN(15)
	assert.Equal(t, agent.SubRecovering, h.agent.SubState())
	h.agent.Tick(tick)
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
}

func TestRecovering_ClipEndingInsideTheExtensionReleases(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	h.anim.finish(false)
	h.anim.playing = true

	h.tickN(10)
	require.Equal(t, agent.SubRecovering, h.agent.SubState())
	h.anim.playing = false
	h.agent.Tick(tick)
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
}

func TestCombo_ContinuesUpToCap(t *testing.T) {
	cfg := aggressiveConfig()
	cfg.ComboChance = 1
	cfg.MaxComboHits = 2
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	require.Equal(t, 1, h.agent.Combo())
	h.anim.finish(false)

	require.True(t, h.tickUntil(10, func() bool { return h.agent.SubState() == agent.SubAttacking }))
	assert.Equal(t, 2, h.agent.Combo())
	h.anim.finish(false)
	assert.Equal(t, 0, h.agent.Combo(), "cap reached")
	assert.Len(t, h.anim.plays, 2)
}

func TestPoiseBroken_MidComboReturnsWithComboCleared(t *testing.T) {
	cfg := aggressiveConfig()
	cfg.ComboChance = 1
	h := newHarness(t, cfg, constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	h.anim.finish(false)
	require.True(t, h.tickUntil(10, func() bool { return h.agent.Combo() == 2 }))
	require.Equal(t, agent.SubAttacking, h.agent.SubState())

	require.Len(t, h.self.poise, 1)
	h.self.poise[0](true)
	require.Equal(t, agent.StatePoiseBroken, h.agent.State())
	assert.Equal(t, agent.SubNone, h.agent.SubState())
	assert.Equal(t, 0, h.agent.Combo())

	h.anim.finish(false)
	assert.Equal(t, agent.StatePoiseBroken, h.agent.State())

	require.True(t, h.tickUntil(30, func() bool { return h.agent.State() == agent.StateCombat }))
	assert.Equal(t, 0, h.agent.Combo())
	assert.Contains(t, []agent.CombatSubState{agent.SubEngaging, agent.SubPositioning}, h.agent.SubState())
}

func TestPoiseBroken_ReturnsToIdleWithoutTarget(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	require.True(t, h.agent.TriggerPoiseBroken())
	h.opponent.dead = true
	h.tickN(20)
	assert.Equal(t, agent.StateIdle, h.agent.State())
}

func TestPoiseNotifier_FalseIsIgnored(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	h.self.poise[0](false)
	assert.Equal(t, agent.StateCombat, h.agent.State())
}

func TestUninterruptable_IgnoresPoiseBreak(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	require.True(t, h.agent.EnterUninterruptable(500*time.Millisecond))
	assert.False(t, h.agent.TriggerPoiseBroken())
	assert.Equal(t, agent.SubNone, h.agent.SubState())

	h.tickN(5)
	assert.Equal(t, agent.StateCombat, h.agent.State())
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
}

func TestCombat_InvalidTargetInvestigatesThenIdles(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.99}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	h.opponent.dead = true

	h.agent.Tick(tick)
	require.Equal(t, agent.StateInvestigating, h.agent.State())
	assert.Equal(t, agent.SubNone, h.agent.SubState())
	assert.Equal(t, geom.V(5, 0, 0), h.body.moves[len(h.body.moves)-1])

	h.body.pos = geom.V(5, 0, 0)
	h.agent.Tick(tick)
	assert.Equal(t, agent.StateIdle, h.agent.State())
}

func TestCombat_LosingSightInvestigatesAndRegainsCombat(t *testing.T) {
	cfg := agent.DefaultConfig()
	h := newHarness(t, cfg, constSource{0.99}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	h.sense.blocked = true

	h.tickN(19)
	assert.Equal(t, agent.StateCombat, h.agent.State())
	h.agent.Tick(tick)
	require.Equal(t, agent.StateInvestigating, h.agent.State())

	h.sense.blocked = false
	h.agent.Tick(tick)
	assert.Equal(t, agent.StateCombat, h.agent.State())
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
}

func TestInvestigating_TimesOut(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.99}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	h.agent.ClearTarget()
	h.sense.hostiles = nil
	h.agent.Tick(tick)
	require.Equal(t, agent.StateInvestigating, h.agent.State())

	require.True(t, h.tickUntil(100, func() bool { return h.agent.State() == agent.StateIdle }))
}

func TestSetTarget_EngagesFromIdle(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))
	h.sense.hostiles = nil
	h.agent.SetTarget(h.opponent)
	h.agent.Tick(tick)
	assert.Equal(t, agent.StateCombat, h.agent.State())
}

func TestLeash_NonBossReturnsToSpawn(t *testing.T) {
	cfg := agent.DefaultConfig()
	cfg.LeashDistance = 10
	h := newHarness(t, cfg, constSource{0.99}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	h.body.pos = geom.V(30, 0, 0)
	h.opponent.pos = geom.V(32, 0, 0)

	h.agent.Tick(tick)
	require.Equal(t, agent.StateOutOfBounds, h.agent.State())
	_, ok := h.agent.Target()
	assert.False(t, ok)
	assert.Equal(t, geom.Vec3{}, h.body.moves[len(h.body.moves)-1])

	h.body.pos = geom.V(0.5, 0, 0)
	h.opponent.pos = geom.V(100, 0, 0)
	h.agent.Tick(tick)
	assert.Equal(t, agent.StateIdle, h.agent.State())
}

func TestLeash_BossNeverOutOfBounds(t *testing.T) {
	cfg := agent.DefaultConfig()
	cfg.Boss = true
	cfg.LeashDistance = 10
	h := newHarness(t, cfg, constSource{0.99}, geom.V(5, 0, 0))
	h.agent.Tick(tick)
	for i := 0; i < 50; i++ {
		h.body.pos = geom.V(float64(20+i), 0, 0)
		h.opponent.pos = geom.V(float64(23+i), 0, 0)
		h.agent.Tick(tick)
		require.NotEqual(t, agent.StateOutOfBounds, h.agent.State())
	}
	assert.Equal(t, agent.StateCombat, h.agent.State())
}

func TestPositioning_RetreatsWhenAdjacent(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.99}, geom.V(0.5, 0, 0))
	h.tickN(2)
	require.Equal(t, agent.SubPositioning, h.agent.SubState())

	h.agent.Tick(tick)
	require.Equal(t, agent.SubRetreating, h.agent.SubState())
	h.agent.Tick(tick)
	last := h.body.moves[len(h.body.moves)-1]
	assert.Less(t, last.X, 0.0, "retreat moves away from the opponent")

	require.True(t, h.tickUntil(20, func() bool { return h.agent.SubState() == agent.SubEngaging }))
}

// positioningHarness enters Positioning inside reach by failing the engage
// roll, then takes one Positioning tick.
func positioningHarness(t *testing.T, cfg agent.Config, opp geom.Vec3) *harness {
	t.Helper()
	h := newHarness(t, cfg, constSource{0.99}, opp)
	h.tickN(2)
	require.Equal(t, agent.SubPositioning, h.agent.SubState())
	h.body.moves = nil
	h.agent.Tick(tick)
	require.Equal(t, agent.SubPositioning, h.agent.SubState())
	require.Len(t, h.body.moves, 1)
	return h
}

func TestPositioning_StrafesAroundPreferredDistance(t *testing.T) {
	cfg := agent.DefaultConfig()
	cfg.StrafeFlipChance = -1
	h := positioningHarness(t, cfg, geom.V(2.5, 0, 0))

	// Flanks score 3.54 against the preferred 4; backing off lands at 5.
	dest := h.body.moves[0]
	assert.InDelta(t, 0, dest.X, 1e-9, "flank step is perpendicular to the opponent")
	assert.InDelta(t, -cfg.StrafeStep, dest.Z, 1e-9, "initial strafe side is left")
	assert.Equal(t, cfg.WalkSpeed, h.body.speed)

	h.tickN(7)
	assert.Len(t, h.body.moves, 1, "next strafe waits for the reposition interval")
	h.agent.Tick(tick)
	require.Len(t, h.body.moves, 2)
	assert.InDelta(t, -cfg.StrafeStep, h.body.moves[1].Z, 1e-9, "bias keeps the strafe side")
}

func TestPositioning_FlipSwapsStrafeSide(t *testing.T) {
	cfg := agent.DefaultConfig()
	cfg.StrafeFlipChance = 1
	h := positioningHarness(t, cfg, geom.V(2.5, 0, 0))

	dest := h.body.moves[0]
	assert.InDelta(t, 0, dest.X, 1e-9)
	assert.InDelta(t, cfg.StrafeStep, dest.Z, 1e-9, "flipped to the right flank")
}

func TestPositioning_BacksOffWhenCrowded(t *testing.T) {
	cfg := agent.DefaultConfig()
	cfg.StrafeFlipChance = 1
	h := positioningHarness(t, cfg, geom.V(1.5, 0, 0))

	// Backing off to 4 beats flanking to 2.9, even with the side bias.
	assert.Equal(t, geom.V(-cfg.StrafeStep, 0, 0), h.body.moves[0])
}

func TestPositioning_ReturnsToEngagingWhenFar(t *testing.T) {
	h := positioningHarness(t, agent.DefaultConfig(), geom.V(2.5, 0, 0))
	h.opponent.pos = geom.V(12, 0, 0)
	h.agent.Tick(tick)
	assert.Equal(t, agent.SubEngaging, h.agent.SubState())
}

func TestDebugSnapshot(t *testing.T) {
	h := newHarness(t, aggressiveConfig(), constSource{0}, geom.V(2, 0, 0))
	h.tickN(2)
	s := h.agent.DebugSnapshot()
	assert.Equal(t, "knight-1", s.ID)
	assert.Equal(t, agent.StateCombat, s.State)
	assert.Equal(t, agent.SubAttacking, s.SubState)
	assert.Equal(t, agent.TrackingWindup, s.Tracking)
	assert.True(t, s.HasTarget)
	assert.Equal(t, "player", s.TargetID)
	assert.InDelta(t, 2, s.Distance, 1e-9)
	assert.Equal(t, 2*tick, s.Now)
	assert.Contains(t, s.String(), "state=combat sub=attacking")
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	h := newHarness(t, agent.DefaultConfig(), constSource{0.5}, geom.V(5, 0, 0))
	var n int
	unsubscribe := h.agent.Subscribe(func(agent.Event) { n++ })
	unsubscribe()
	h.agent.Tick(tick)
	assert.Zero(t, n)
	assert.NotEmpty(t, h.events)
}
