// Package reporting produces the end-of-session summary: a CSV of
// closed trades and a markdown report with the capital progression.
package reporting

import (
	"time"

	"solana-sniper/internal/domain"
)

// Report is the rendered session summary.
type Report struct {
	GeneratedAt time.Time

	Session SessionSummary
	Plan    domain.SessionPlanEntry

	// ExitBreakdown is sorted by exit reason.
	ExitBreakdown []ExitReasonRow

	// Trades are sorted by close time.
	Trades []*domain.TradeArchiveRow
}

// SessionSummary aggregates the session's closed trades against its
// capital plan.
type SessionSummary struct {
	SessionNumber  int
	InitialPoolUsd float64
	TargetPoolUsd  float64
	FinalPoolUsd   float64
	Completed      bool

	TradesExecuted int
	TradeLimit     int

	Wins          int
	Losses        int
	WinRate       float64 // wins / closed trades, 0 when no trades
	TotalPnlUsd   float64
	BestTradeUsd  float64
	WorstTradeUsd float64
	AvgHoldMs     int64
}

// ExitReasonRow counts closes per exit reason.
type ExitReasonRow struct {
	Reason string
	Count  int
	PnlUsd float64
}
