package domain

// PositionState is the lifecycle state of a tracked position.
type PositionState string

const (
	PositionCandidate PositionState = "CANDIDATE"
	PositionAcquiring PositionState = "ACQUIRING"
	PositionHeld      PositionState = "HELD"
	PositionExiting   PositionState = "EXITING"
	PositionClosed    PositionState = "CLOSED"
	PositionAborted   PositionState = "ABORTED"
)

// IsTerminal reports whether the state admits no further transitions.
func (s PositionState) IsTerminal() bool {
	return s == PositionClosed || s == PositionAborted
}

// IsValid checks if the state is a known value.
func (s PositionState) IsValid() bool {
	switch s {
	case PositionCandidate, PositionAcquiring, PositionHeld, PositionExiting, PositionClosed, PositionAborted:
		return true
	}
	return false
}

// Exit reason codes recorded on position close.
const (
	ExitReasonTakeProfit        = "TAKE_PROFIT"
	ExitReasonStopLoss          = "STOP_LOSS"
	ExitReasonTrailingStop      = "TRAILING_STOP"
	ExitReasonMaxHoldDuration   = "MAX_HOLD_DURATION"
	ExitReasonForcedLiquidation = "FORCED_LIQUIDATION"
	ExitReasonSessionShutdown   = "SESSION_SHUTDOWN"
)

// Position is a tracked holding for a single mint. Exactly one live
// position exists per mint at a time; the dedup registry plus the
// in-flight guard in the lifecycle enforce that even when a second
// detection for the same mint arrives mid-acquisition.
type Position struct {
	Mint          string
	WalletRef     string // opaque reference to the executing wallet
	ClientOrderID string // acquisition order id

	EntryPrice   float64
	Quantity     float64
	CostBasisUsd float64
	PeakPrice    float64 // highest price seen while held, drives the trailing stop
	QualityScore int     // composite filter score at admission

	OpenedAt int64 // Unix ms
	ClosedAt int64 // Unix ms, zero while open

	State          PositionState
	ExitReason     string
	ProceedsUsd    float64
	RealizedPnlUsd float64
}

// MarketValue returns the position value at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// ReturnRatio returns price/entry, the multiple used by take-profit and
// stop-loss checks. Returns 0 when the entry price is unset.
func (p *Position) ReturnRatio(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return price / p.EntryPrice
}
