package domain

// LedgerClose is one recorded disposal with its FIFO-matched cost
// basis.
type LedgerClose struct {
	Mint         string
	Quantity     float64
	ProceedsUsd  float64
	CostBasisUsd float64
	RealizedUsd  float64
	ClosedAt     int64 // Unix ms
}

// TradeArchiveRow is a flattened closed position for the analytics
// archive. Append-only; one row per close.
type TradeArchiveRow struct {
	Mint           string
	SessionNumber  int
	OpenedAt       int64 // Unix ms
	ClosedAt       int64 // Unix ms
	EntryPrice     float64
	ExitPrice      float64
	Quantity       float64
	CostBasisUsd   float64
	ProceedsUsd    float64
	RealizedPnlUsd float64
	ExitReason     string
	HoldDurationMs int64
	PeakPrice      float64
	QualityScore   int
}
