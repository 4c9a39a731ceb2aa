package pool

import (
	"fmt"

	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
)

// planEntry computes a single progression row. The next session's
// starting pool carries the base forward and compounds the after-tax
// reinvested share of profit on top:
//
//	next = initial + (target - initial) * (1 - tax/100) * (reinvest/100)
func planEntry(sessionNumber int, initialPool, targetPool, positionSizeUsd, taxReservePct, reinvestmentPct float64) domain.SessionPlanEntry {
	profit := targetPool - initialPool
	next := initialPool + profit*(1-taxReservePct/100)*(reinvestmentPct/100)

	entry := domain.SessionPlanEntry{
		SessionNumber:   sessionNumber,
		InitialPool:     initialPool,
		TargetPool:      targetPool,
		ProfitRequired:  profit,
		PositionSizeUsd: positionSizeUsd,
		TaxReservePct:   taxReservePct,
		ReinvestmentPct: reinvestmentPct,
		NextSessionPool: next,
	}
	if initialPool > 0 {
		entry.GrowthMultiplier = targetPool / initialPool
	}
	return entry
}

// BuildPlan precomputes the full session progression. Session 1 runs
// from the configured initial pool to the configured target; each
// later session starts at the previous entry's NextSessionPool and
// targets the same growth multiplier. The chain is self-consistent:
// entry k+1's InitialPool equals entry k's NextSessionPool.
func BuildPlan(cfg config.SessionConfig, sizing config.SizingConfig) ([]domain.SessionPlanEntry, error) {
	if cfg.InitialPoolUsd <= 0 {
		return nil, fmt.Errorf("initial pool must be positive, got %.2f", cfg.InitialPoolUsd)
	}
	if cfg.TargetPoolUsd <= cfg.InitialPoolUsd {
		return nil, fmt.Errorf("target pool %.2f must exceed initial pool %.2f",
			cfg.TargetPoolUsd, cfg.InitialPoolUsd)
	}
	if cfg.PlannedSessions < 1 {
		return nil, fmt.Errorf("planned sessions must be at least 1, got %d", cfg.PlannedSessions)
	}

	multiplier := cfg.TargetPoolUsd / cfg.InitialPoolUsd

	plan := make([]domain.SessionPlanEntry, 0, cfg.PlannedSessions)
	initial := cfg.InitialPoolUsd
	for n := 1; n <= cfg.PlannedSessions; n++ {
		target := initial * multiplier
		size := positionSize(initial, sizing)
		entry := planEntry(n, initial, target, size, cfg.TaxReservePct, cfg.ReinvestmentPct)
		plan = append(plan, entry)
		initial = entry.NextSessionPool
	}
	return plan, nil
}

// positionSize resolves the per-session position size for the plan.
func positionSize(poolUsd float64, sizing config.SizingConfig) float64 {
	if sizing.Policy == config.SizingAbsolute {
		return sizing.AbsoluteUsd
	}
	return poolUsd * sizing.Fraction
}
