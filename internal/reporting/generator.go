package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// Generator builds session reports from the trade archive.
type Generator struct {
	archive storage.TradeArchive
	now     func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator(archive storage.TradeArchive) *Generator {
	return &Generator{
		archive: archive,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate summarizes the session's closed trades against its final
// pool state and progression plan entry.
func (g *Generator) Generate(ctx context.Context, state domain.PoolState, plan domain.SessionPlanEntry) (*Report, error) {
	trades, err := g.archive.ListBySession(ctx, state.SessionNumber)
	if err != nil {
		return nil, fmt.Errorf("list session %d trades: %w", state.SessionNumber, err)
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].ClosedAt < trades[j].ClosedAt })

	summary := SessionSummary{
		SessionNumber:  state.SessionNumber,
		InitialPoolUsd: state.InitialPoolUsd,
		TargetPoolUsd:  state.TargetPoolUsd,
		FinalPoolUsd:   state.CurrentPoolUsd,
		Completed:      state.Completed,
		TradesExecuted: state.TradesExecuted,
		TradeLimit:     state.TradeLimit,
	}

	byReason := make(map[string]*ExitReasonRow)
	var totalHoldMs int64
	for i, tr := range trades {
		pnl := tr.RealizedPnlUsd
		summary.TotalPnlUsd += pnl
		totalHoldMs += tr.HoldDurationMs
		if pnl > 0 {
			summary.Wins++
		} else {
			summary.Losses++
		}
		if i == 0 || pnl > summary.BestTradeUsd {
			summary.BestTradeUsd = pnl
		}
		if i == 0 || pnl < summary.WorstTradeUsd {
			summary.WorstTradeUsd = pnl
		}

		row, ok := byReason[tr.ExitReason]
		if !ok {
			row = &ExitReasonRow{Reason: tr.ExitReason}
			byReason[tr.ExitReason] = row
		}
		row.Count++
		row.PnlUsd += pnl
	}
	if len(trades) > 0 {
		summary.WinRate = float64(summary.Wins) / float64(len(trades))
		summary.AvgHoldMs = totalHoldMs / int64(len(trades))
	}

	breakdown := make([]ExitReasonRow, 0, len(byReason))
	for _, row := range byReason {
		breakdown = append(breakdown, *row)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Reason < breakdown[j].Reason })

	return &Report{
		GeneratedAt:   g.now(),
		Session:       summary,
		Plan:          plan,
		ExitBreakdown: breakdown,
		Trades:        trades,
	}, nil
}

// WriteFiles renders the report to <dir>/session_<n>_trades.csv and
// <dir>/session_<n>_report.md, creating dir if needed.
func WriteFiles(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("session_%d_trades.csv", r.Session.SessionNumber))
	if err := os.WriteFile(csvPath, []byte(RenderCSV(r.Trades)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}

	mdPath := filepath.Join(dir, fmt.Sprintf("session_%d_report.md", r.Session.SessionNumber))
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	return nil
}
