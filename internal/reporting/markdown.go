package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the session report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	s := r.Session

	sb.WriteString(fmt.Sprintf("# Session %d Report\n\n", s.SessionNumber))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Capital\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Pool | $%.2f |\n", s.InitialPoolUsd))
	sb.WriteString(fmt.Sprintf("| Target Pool | $%.2f |\n", s.TargetPoolUsd))
	sb.WriteString(fmt.Sprintf("| Final Pool | $%.2f |\n", s.FinalPoolUsd))
	sb.WriteString(fmt.Sprintf("| Total P&L | $%.2f |\n", s.TotalPnlUsd))
	sb.WriteString(fmt.Sprintf("| Session Completed | %t |\n", s.Completed))
	sb.WriteString("\n")

	sb.WriteString("## Trades\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Executed | %d / %d |\n", s.TradesExecuted, s.TradeLimit))
	sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", s.Wins, s.Losses))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("| Best Trade | $%.2f |\n", s.BestTradeUsd))
	sb.WriteString(fmt.Sprintf("| Worst Trade | $%.2f |\n", s.WorstTradeUsd))
	sb.WriteString(fmt.Sprintf("| Avg Hold (ms) | %d |\n", s.AvgHoldMs))
	sb.WriteString("\n")

	sb.WriteString("## Exit Breakdown\n\n")
	if len(r.ExitBreakdown) > 0 {
		sb.WriteString("| Reason | Count | P&L |\n")
		sb.WriteString("|--------|-------|-----|\n")
		for _, row := range r.ExitBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | $%.2f |\n", row.Reason, row.Count, row.PnlUsd))
		}
	} else {
		sb.WriteString("No closed trades.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Next Session\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Session | %d |\n", r.Plan.SessionNumber))
	sb.WriteString(fmt.Sprintf("| Initial Pool | $%.2f |\n", r.Plan.InitialPool))
	sb.WriteString(fmt.Sprintf("| Target Pool | $%.2f |\n", r.Plan.TargetPool))
	sb.WriteString(fmt.Sprintf("| Profit Required | $%.2f |\n", r.Plan.ProfitRequired))
	sb.WriteString(fmt.Sprintf("| Growth Multiplier | %.2fx |\n", r.Plan.GrowthMultiplier))
	sb.WriteString(fmt.Sprintf("| Position Size | $%.2f |\n", r.Plan.PositionSizeUsd))
	sb.WriteString(fmt.Sprintf("| Tax Reserve | %.1f%% |\n", r.Plan.TaxReservePct))
	sb.WriteString(fmt.Sprintf("| Reinvestment | %.1f%% |\n", r.Plan.ReinvestmentPct))
	sb.WriteString(fmt.Sprintf("| Next Session Pool | $%.2f |\n", r.Plan.NextSessionPool))
	sb.WriteString("\n")

	return sb.String()
}
