package reporting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage/memory"
)

func seedArchive(t *testing.T) *memory.TradeArchive {
	t.Helper()
	ctx := context.Background()
	archive := memory.NewTradeArchive()

	trades := []*domain.TradeArchiveRow{
		{
			Mint: "mint-b", SessionNumber: 1, OpenedAt: 2000, ClosedAt: 6000,
			EntryPrice: 0.005, ExitPrice: 0.002, Quantity: 1800,
			CostBasisUsd: 9, ProceedsUsd: 3.6, RealizedPnlUsd: -5.4,
			ExitReason: domain.ExitReasonStopLoss, HoldDurationMs: 4000,
		},
		{
			Mint: "mint-a", SessionNumber: 1, OpenedAt: 1000, ClosedAt: 5000,
			EntryPrice: 0.001, ExitPrice: 0.002, Quantity: 9000,
			CostBasisUsd: 9, ProceedsUsd: 18, RealizedPnlUsd: 9,
			ExitReason: domain.ExitReasonTakeProfit, HoldDurationMs: 4000,
		},
		{
			Mint: "mint-other-session", SessionNumber: 2, ClosedAt: 100,
			RealizedPnlUsd: 1, ExitReason: domain.ExitReasonTakeProfit,
		},
	}
	for _, tr := range trades {
		require.NoError(t, archive.Append(ctx, tr))
	}
	return archive
}

func testPlan() domain.SessionPlanEntry {
	return domain.SessionPlanEntry{
		SessionNumber:    2,
		InitialPool:      2220,
		TargetPool:       22200,
		ProfitRequired:   19980,
		GrowthMultiplier: 10,
		PositionSizeUsd:  33.3,
		TaxReservePct:    40,
		ReinvestmentPct:  50,
		NextSessionPool:  8214,
	}
}

func TestGenerateSessionReport(t *testing.T) {
	archive := seedArchive(t)
	gen := NewGenerator(archive).WithClock(func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	})

	state := domain.PoolState{
		SessionNumber:  1,
		InitialPoolUsd: 600,
		TargetPoolUsd:  6000,
		CurrentPoolUsd: 603.6,
		TradesExecuted: 2,
		TradeLimit:     20,
	}

	report, err := gen.Generate(context.Background(), state, testPlan())
	require.NoError(t, err)

	// Other sessions are excluded; rows come back close-time ordered.
	require.Len(t, report.Trades, 2)
	assert.Equal(t, "mint-a", report.Trades[0].Mint)
	assert.Equal(t, "mint-b", report.Trades[1].Mint)

	s := report.Session
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 0.5, s.WinRate, 1e-9)
	assert.InDelta(t, 3.6, s.TotalPnlUsd, 1e-9)
	assert.InDelta(t, 9.0, s.BestTradeUsd, 1e-9)
	assert.InDelta(t, -5.4, s.WorstTradeUsd, 1e-9)
	assert.Equal(t, int64(4000), s.AvgHoldMs)

	require.Len(t, report.ExitBreakdown, 2)
	assert.Equal(t, domain.ExitReasonStopLoss, report.ExitBreakdown[0].Reason)
	assert.Equal(t, domain.ExitReasonTakeProfit, report.ExitBreakdown[1].Reason)
}

func TestRenderCSV(t *testing.T) {
	archive := seedArchive(t)
	gen := NewGenerator(archive)

	report, err := gen.Generate(context.Background(), domain.PoolState{SessionNumber: 1}, testPlan())
	require.NoError(t, err)

	csv := RenderCSV(report.Trades)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "mint,session_number,"))
	assert.Contains(t, lines[1], "mint-a")
	assert.Contains(t, lines[1], "TAKE_PROFIT")
	assert.Contains(t, lines[2], "STOP_LOSS")
}

func TestRenderMarkdownAndWriteFiles(t *testing.T) {
	archive := seedArchive(t)
	gen := NewGenerator(archive)

	state := domain.PoolState{
		SessionNumber: 1, InitialPoolUsd: 600, TargetPoolUsd: 6000,
		CurrentPoolUsd: 6100, Completed: true, TradesExecuted: 2, TradeLimit: 20,
	}
	report, err := gen.Generate(context.Background(), state, testPlan())
	require.NoError(t, err)

	md := RenderMarkdown(report)
	assert.Contains(t, md, "# Session 1 Report")
	assert.Contains(t, md, "| Final Pool | $6100.00 |")
	assert.Contains(t, md, "| Session Completed | true |")
	assert.Contains(t, md, "| Next Session Pool | $8214.00 |")

	dir := t.TempDir()
	require.NoError(t, WriteFiles(dir, report))

	csvData, err := os.ReadFile(filepath.Join(dir, "session_1_trades.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "mint-a")

	mdData, err := os.ReadFile(filepath.Join(dir, "session_1_report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(mdData), "# Session 1 Report")
}
