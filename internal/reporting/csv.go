package reporting

import (
	"fmt"
	"strings"

	"solana-sniper/internal/domain"
)

// RenderCSV renders closed trades as a CSV string, one row per close.
func RenderCSV(trades []*domain.TradeArchiveRow) string {
	var sb strings.Builder

	sb.WriteString("mint,session_number,opened_at,closed_at,entry_price,exit_price,quantity,")
	sb.WriteString("cost_basis_usd,proceeds_usd,realized_pnl_usd,exit_reason,hold_duration_ms,peak_price,quality_score\n")

	for _, tr := range trades {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%.10f,%.10f,%.6f,%.2f,%.2f,%.2f,%s,%d,%.10f,%d\n",
			tr.Mint,
			tr.SessionNumber,
			tr.OpenedAt,
			tr.ClosedAt,
			tr.EntryPrice,
			tr.ExitPrice,
			tr.Quantity,
			tr.CostBasisUsd,
			tr.ProceedsUsd,
			tr.RealizedPnlUsd,
			tr.ExitReason,
			tr.HoldDurationMs,
			tr.PeakPrice,
			tr.QualityScore,
		))
	}

	return sb.String()
}
