// Package position drives the per-mint position lifecycle:
// Candidate → Acquiring → Held → Exiting → Closed, with Aborted
// terminal from the acquisition path. One lifecycle instance serves
// the whole engine; each position is monitored independently.
package position

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-sniper/internal/dedup"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/execution"
	"solana-sniper/internal/ledger"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/storage"
)

// CapitalSession is the pool session surface the lifecycle needs.
// *pool.Session satisfies it.
type CapitalSession interface {
	SizeNextPosition() (float64, error)
	RecordRealized(pnlUsd float64) (domain.PoolState, error)
	Completed() bool
	DeadlineExceeded() bool
	Snapshot() domain.PoolState
}

// Config bounds monitoring and disposal behavior.
type Config struct {
	WalletRef           string
	TakeProfitRatio     float64
	StopLossRatio       float64
	TrailingStopPct     float64
	MaxHold             time.Duration
	PollInterval        time.Duration
	DisposalRetryBudget int
}

// Lifecycle opens, monitors, and closes positions.
type Lifecycle struct {
	cfg       Config
	registry  *dedup.Registry
	session   CapitalSession
	ledger    ledger.CapitalLedger
	executor  execution.Executor
	prices    execution.PriceSource
	positions storage.PositionStore
	poolStore storage.PoolStateStore
	archive   storage.TradeArchive // nil disables archiving
	logger    *log.Logger
	now       func() int64
}

// NewLifecycle wires a lifecycle. archive may be nil.
func NewLifecycle(
	cfg Config,
	registry *dedup.Registry,
	session CapitalSession,
	capLedger ledger.CapitalLedger,
	executor execution.Executor,
	prices execution.PriceSource,
	positions storage.PositionStore,
	poolStore storage.PoolStateStore,
	archive storage.TradeArchive,
	logger *log.Logger,
) *Lifecycle {
	return &Lifecycle{
		cfg:       cfg,
		registry:  registry,
		session:   session,
		ledger:    capLedger,
		executor:  executor,
		prices:    prices,
		positions: positions,
		poolStore: poolStore,
		archive:   archive,
		logger:    logger,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Open takes an admitted candidate through acquisition. On any
// acquisition failure the mint is unmarked in the dedup registry so a
// later re-detection can retry, and the pool is untouched. The
// returned position is Held on success.
func (l *Lifecycle) Open(ctx context.Context, verdict *domain.QualityVerdict) (*domain.Position, error) {
	mint := verdict.Mint

	if l.session.Completed() {
		l.registry.Unmark(mint)
		return nil, fmt.Errorf("open %s: session complete", mint)
	}

	size, err := l.session.SizeNextPosition()
	if err != nil {
		l.registry.Unmark(mint)
		return nil, fmt.Errorf("open %s: %w", mint, err)
	}

	p := &domain.Position{
		Mint:         mint,
		WalletRef:    l.cfg.WalletRef,
		QualityScore: verdict.Score,
		OpenedAt:     l.now(),
		State:        domain.PositionAcquiring,
	}
	if err := l.positions.Insert(ctx, p); err != nil {
		// A live position already exists for the mint; the registry
		// entry stays so no second acquisition is attempted.
		return nil, fmt.Errorf("open %s: %w", mint, err)
	}
	observability.RecordTransition(string(domain.PositionAcquiring))

	start := time.Now()
	fill, err := l.executor.SubmitAcquisition(ctx, mint, size)
	observability.RecordOrder("buy", orderStatus(err), time.Since(start).Seconds())
	if err != nil {
		p.State = domain.PositionAborted
		p.ClosedAt = l.now()
		if uerr := l.positions.Update(ctx, p); uerr != nil {
			l.logger.Printf("[position] persist aborted %s: %v", mint, uerr)
		}
		l.registry.Unmark(mint)
		observability.RecordTransition(string(domain.PositionAborted))
		return nil, fmt.Errorf("open %s: %w", mint, err)
	}

	p.ClientOrderID = fill.ClientOrderID
	p.EntryPrice = fill.Price
	p.Quantity = fill.Quantity
	p.CostBasisUsd = fill.UsdAmount
	p.PeakPrice = fill.Price
	p.State = domain.PositionHeld
	if err := l.positions.Update(ctx, p); err != nil {
		l.logger.Printf("[position] persist held %s: %v", mint, err)
	}
	observability.RecordTransition(string(domain.PositionHeld))

	washSale, lerr := l.ledger.RecordOpen(ctx, mint, p.Quantity, p.CostBasisUsd, p.OpenedAt)
	if lerr != nil {
		l.logger.Printf("[position] ledger open %s: %v", mint, lerr)
	} else if washSale {
		l.logger.Printf("[position] wash sale flagged on reacquisition of %s", mint)
	}

	l.logger.Printf("[position] opened %s qty=%.6f entry=%.8f cost=%.2f",
		mint, p.Quantity, p.EntryPrice, p.CostBasisUsd)
	return p, nil
}

// Monitor polls the price until an exit condition fires, then closes
// the position. Returns when the position reaches a terminal state or
// ctx is canceled; on cancellation the position stays persisted, Held
// or Exiting, for reattach on the next run.
func (l *Lifecycle) Monitor(ctx context.Context, p *domain.Position) {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Printf("[position] monitor %s stopped, position left %s", p.Mint, p.State)
			return
		case <-ticker.C:
		}

		if l.session.DeadlineExceeded() {
			l.close(ctx, p, domain.ExitReasonSessionShutdown)
			return
		}

		price, err := l.prices.Price(ctx, p.Mint)
		if err != nil {
			l.logger.Printf("[position] price %s: %v", p.Mint, err)
			continue
		}

		if price > p.PeakPrice {
			p.PeakPrice = price
			if uerr := l.positions.Update(ctx, p); uerr != nil {
				l.logger.Printf("[position] persist peak %s: %v", p.Mint, uerr)
			}
		}

		if reason, fired := l.exitReason(p, price); fired {
			l.close(ctx, p, reason)
			return
		}
	}
}

// exitReason evaluates every exit condition against the current price.
// Stop-loss wins over take-profit when both could apply on the same
// tick.
func (l *Lifecycle) exitReason(p *domain.Position, price float64) (string, bool) {
	ratio := p.ReturnRatio(price)
	switch {
	case ratio <= l.cfg.StopLossRatio:
		return domain.ExitReasonStopLoss, true
	case ratio >= l.cfg.TakeProfitRatio:
		return domain.ExitReasonTakeProfit, true
	case p.PeakPrice > p.EntryPrice && price <= p.PeakPrice*(1-l.cfg.TrailingStopPct):
		return domain.ExitReasonTrailingStop, true
	case l.now()-p.OpenedAt >= l.cfg.MaxHold.Milliseconds():
		return domain.ExitReasonMaxHoldDuration, true
	}
	return "", false
}

// close disposes of the position, folds realized P&L into the ledger
// and the pool, and archives the trade. Disposal retries up to the
// configured budget; exhausting it escalates to a forced liquidation
// order, and only when that fails too is the position written off at
// zero. A shutdown mid-disposal abandons the close entirely: the
// position stays persisted as Exiting and the next run resumes it, so
// no loss is ever booked for an exit that never executed.
func (l *Lifecycle) close(ctx context.Context, p *domain.Position, reason string) {
	p.State = domain.PositionExiting
	p.ExitReason = reason
	if err := l.positions.Update(ctx, p); err != nil {
		l.logger.Printf("[position] persist exiting %s: %v", p.Mint, err)
	}
	observability.RecordTransition(string(domain.PositionExiting))

	var fill *execution.Fill
	var err error
	for attempt := 1; attempt <= l.cfg.DisposalRetryBudget; attempt++ {
		start := time.Now()
		fill, err = l.executor.SubmitDisposal(ctx, p.Mint, p.Quantity)
		observability.RecordOrder("sell", orderStatus(err), time.Since(start).Seconds())
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			l.logger.Printf("[position] shutdown during disposal of %s, left Exiting for reattach", p.Mint)
			return
		}
		l.logger.Printf("[position] disposal %s attempt %d/%d: %v",
			p.Mint, attempt, l.cfg.DisposalRetryBudget, err)
	}

	if err != nil {
		// Budget exhausted: one last order with the slippage limit
		// relaxed before giving up on recovering anything.
		reason = domain.ExitReasonForcedLiquidation
		p.ExitReason = reason
		start := time.Now()
		fill, err = l.executor.SubmitLiquidation(ctx, p.Mint, p.Quantity)
		observability.RecordOrder("sell", orderStatus(err), time.Since(start).Seconds())
		if err != nil && ctx.Err() != nil {
			l.logger.Printf("[position] shutdown during liquidation of %s, left Exiting for reattach", p.Mint)
			return
		}
		if err != nil {
			l.logger.Printf("[position] liquidation of %s failed after %d disposals, writing off at zero: %v",
				p.Mint, l.cfg.DisposalRetryBudget, err)
		} else {
			l.logger.Printf("[position] forced liquidation of %s filled at %.8f", p.Mint, fill.Price)
		}
	}

	var proceeds, exitPrice float64
	if err == nil {
		proceeds = fill.UsdAmount
		exitPrice = fill.Price
	}

	closedAt := l.now()
	realized, lerr := l.ledger.RecordClose(ctx, p.Mint, p.Quantity, proceeds, closedAt)
	if lerr != nil {
		l.logger.Printf("[position] ledger close %s: %v", p.Mint, lerr)
		realized = proceeds - p.CostBasisUsd
	}

	state, serr := l.session.RecordRealized(realized)
	if serr != nil {
		l.logger.Printf("[position] pool record %s: %v", p.Mint, serr)
		state = l.session.Snapshot()
	}
	if perr := l.poolStore.Save(ctx, state); perr != nil {
		l.logger.Printf("[position] persist pool state: %v", perr)
	}
	observability.UpdatePool(state.CurrentPoolUsd, state.TradesExecuted, state.Completed)
	observability.AddRealizedPnl(realized)
	observability.RecordExit(reason)

	p.State = domain.PositionClosed
	p.ClosedAt = closedAt
	p.ProceedsUsd = proceeds
	p.RealizedPnlUsd = realized
	if uerr := l.positions.Update(ctx, p); uerr != nil {
		l.logger.Printf("[position] persist closed %s: %v", p.Mint, uerr)
	}
	observability.RecordTransition(string(domain.PositionClosed))

	if l.archive != nil {
		row := &domain.TradeArchiveRow{
			Mint:           p.Mint,
			SessionNumber:  state.SessionNumber,
			OpenedAt:       p.OpenedAt,
			ClosedAt:       p.ClosedAt,
			EntryPrice:     p.EntryPrice,
			ExitPrice:      exitPrice,
			Quantity:       p.Quantity,
			CostBasisUsd:   p.CostBasisUsd,
			ProceedsUsd:    proceeds,
			RealizedPnlUsd: realized,
			ExitReason:     reason,
			HoldDurationMs: p.ClosedAt - p.OpenedAt,
			PeakPrice:      p.PeakPrice,
			QualityScore:   p.QualityScore,
		}
		if aerr := l.archive.Append(ctx, row); aerr != nil {
			l.logger.Printf("[position] archive %s: %v", p.Mint, aerr)
		}
	}

	l.logger.Printf("[position] closed %s reason=%s proceeds=%.2f pnl=%.2f pool=%.2f",
		p.Mint, reason, proceeds, realized, state.CurrentPoolUsd)
}

// Reattach recovers persisted non-terminal positions on startup,
// before intake opens. Acquiring positions are aborted (the order
// outcome is unknown and the pool was never touched); Held and Exiting
// positions are re-marked in the dedup registry and returned for
// monitoring.
func (l *Lifecycle) Reattach(ctx context.Context) ([]*domain.Position, error) {
	open, err := l.positions.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}

	var held []*domain.Position
	for _, p := range open {
		switch p.State {
		case domain.PositionAcquiring:
			p.State = domain.PositionAborted
			p.ClosedAt = l.now()
			if uerr := l.positions.Update(ctx, p); uerr != nil {
				l.logger.Printf("[position] abort stale acquisition %s: %v", p.Mint, uerr)
			}
			l.logger.Printf("[position] aborted stale acquisition %s from previous run", p.Mint)
		default:
			l.registry.TryMark(p.Mint)
			if p.State == domain.PositionExiting {
				// Resume as held; the monitor re-fires the exit.
				p.State = domain.PositionHeld
				if uerr := l.positions.Update(ctx, p); uerr != nil {
					l.logger.Printf("[position] resume exiting %s: %v", p.Mint, uerr)
				}
			}
			// Rebuild the ledger lot lost with the process.
			if _, lerr := l.ledger.RecordOpen(ctx, p.Mint, p.Quantity, p.CostBasisUsd, p.OpenedAt); lerr != nil {
				l.logger.Printf("[position] ledger reattach %s: %v", p.Mint, lerr)
			}
			held = append(held, p)
			l.logger.Printf("[position] reattached %s qty=%.6f entry=%.8f", p.Mint, p.Quantity, p.EntryPrice)
		}
	}
	return held, nil
}

func orderStatus(err error) string {
	if err == nil {
		return "filled"
	}
	return "failed"
}
