package agent

// aggressionFor returns base + phase*perPhase clamped to [0, 1].
//
// Precondition: cfg has been through WithDefaults.
func aggressionFor(cfg AggressionConfig, phase BossPhase) float64 {
	v := *cfg.Base + float64(phase)*(*cfg.PerPhase)
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
