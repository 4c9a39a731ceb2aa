package domain

// PoolState is the singleton capital pool state for the running
// session. Mutated only by the pool session on realized closes and on
// session rollover.
//
// Invariants: CurrentPoolUsd >= 0, TradesExecuted <= TradeLimit.
type PoolState struct {
	SessionNumber   int
	InitialPoolUsd  float64
	TargetPoolUsd   float64
	CurrentPoolUsd  float64
	PositionSizeUsd float64 // base size for the fixed-absolute policy

	TradesExecuted int
	TradeLimit     int

	SessionStartedAt int64 // Unix ms
	DurationSeconds  int64

	Completed bool
}

// SessionPlanEntry is one row of the precomputed capital progression
// plan. Read-only once planned.
//
// NextSessionPool = InitialPool + profit * (1 - TaxReservePct/100) *
// (ReinvestmentPct/100), where profit = TargetPool - InitialPool: the
// base carries forward and the after-tax reinvested share of profit
// compounds on top. The planner guarantees that entry k+1's InitialPool
// equals entry k's NextSessionPool.
type SessionPlanEntry struct {
	SessionNumber    int
	InitialPool      float64
	TargetPool       float64
	ProfitRequired   float64 // TargetPool - InitialPool
	GrowthMultiplier float64 // TargetPool / InitialPool
	PositionSizeUsd  float64
	TaxReservePct    float64
	ReinvestmentPct  float64
	NextSessionPool  float64
}
