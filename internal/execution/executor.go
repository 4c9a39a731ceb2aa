// Package execution submits acquisition and disposal orders. The live
// engine runs the paper executor, which fills against quoted prices
// with configured slippage and fees; the interface leaves room for a
// real swap executor.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"solana-sniper/internal/config"
)

// Sentinel errors.
var (
	// ErrOrderRejected means the venue refused the order.
	ErrOrderRejected = errors.New("order rejected")
	// ErrOrderTimeout means the order did not confirm within the
	// configured window. The caller treats this as failure.
	ErrOrderTimeout = errors.New("order timeout")
)

// Fill is a confirmed order execution.
type Fill struct {
	ClientOrderID string
	Mint          string
	Quantity      float64
	Price         float64 // effective per-unit price after slippage
	UsdAmount     float64 // cost for acquisitions, proceeds for disposals
	FeeUsd        float64
	FilledAt      int64 // Unix ms
}

// Executor submits orders and reports fills. All calls block until
// the order confirms, fails, or the configured timeout elapses.
// SubmitLiquidation is the last resort after disposals keep failing:
// it sells with the slippage limit relaxed.
type Executor interface {
	SubmitAcquisition(ctx context.Context, mint string, usdAmount float64) (*Fill, error)
	SubmitDisposal(ctx context.Context, mint string, quantity float64) (*Fill, error)
	SubmitLiquidation(ctx context.Context, mint string, quantity float64) (*Fill, error)
}

// PaperExecutor simulates fills against the price source. Slippage
// moves the fill price against the order; the flat fee reduces the
// filled amount.
type PaperExecutor struct {
	prices       PriceSource
	slippageBps  int
	orderTimeout time.Duration
	feeUsd       float64
	logger       *log.Logger
	now          func() int64
}

var _ Executor = (*PaperExecutor)(nil)

// NewPaperExecutor creates a paper executor.
func NewPaperExecutor(prices PriceSource, cfg config.ExecutionConfig, logger *log.Logger) *PaperExecutor {
	return &PaperExecutor{
		prices:       prices,
		slippageBps:  cfg.SlippageBps,
		orderTimeout: time.Duration(cfg.OrderTimeoutSeconds) * time.Second,
		feeUsd:       cfg.FeeUsd,
		logger:       logger,
		now:          func() int64 { return time.Now().UnixMilli() },
	}
}

// SubmitAcquisition buys usdAmount worth of the mint. The fill price
// is the quoted price worsened by slippage; the fee comes out of the
// spend before conversion.
func (e *PaperExecutor) SubmitAcquisition(ctx context.Context, mint string, usdAmount float64) (*Fill, error) {
	if usdAmount <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %.4f", ErrOrderRejected, usdAmount)
	}

	ctx, cancel := context.WithTimeout(ctx, e.orderTimeout)
	defer cancel()

	price, err := e.prices.Price(ctx, mint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquisition %s: %w", mint, ErrOrderTimeout)
		}
		return nil, fmt.Errorf("acquisition %s: %w: %v", mint, ErrOrderRejected, err)
	}

	effective := price * (1 + float64(e.slippageBps)/10000)
	spend := usdAmount - e.feeUsd
	if spend <= 0 {
		return nil, fmt.Errorf("%w: amount %.4f below fee %.4f", ErrOrderRejected, usdAmount, e.feeUsd)
	}

	fill := &Fill{
		ClientOrderID: uuid.NewString(),
		Mint:          mint,
		Quantity:      spend / effective,
		Price:         effective,
		UsdAmount:     usdAmount,
		FeeUsd:        e.feeUsd,
		FilledAt:      e.now(),
	}
	e.logger.Printf("[exec] paper buy %s qty=%.6f price=%.8f cost=%.2f order=%s",
		mint, fill.Quantity, fill.Price, fill.UsdAmount, fill.ClientOrderID)
	return fill, nil
}

// SubmitDisposal sells quantity of the mint. The fill price is the
// quoted price worsened by slippage; the fee comes off the proceeds.
func (e *PaperExecutor) SubmitDisposal(ctx context.Context, mint string, quantity float64) (*Fill, error) {
	return e.sell(ctx, mint, quantity, e.slippageBps)
}

// SubmitLiquidation sells with double the configured slippage limit,
// modeling an exit that takes whatever price the book offers.
func (e *PaperExecutor) SubmitLiquidation(ctx context.Context, mint string, quantity float64) (*Fill, error) {
	return e.sell(ctx, mint, quantity, 2*e.slippageBps)
}

func (e *PaperExecutor) sell(ctx context.Context, mint string, quantity float64, slippageBps int) (*Fill, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: non-positive quantity %.6f", ErrOrderRejected, quantity)
	}

	ctx, cancel := context.WithTimeout(ctx, e.orderTimeout)
	defer cancel()

	price, err := e.prices.Price(ctx, mint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("disposal %s: %w", mint, ErrOrderTimeout)
		}
		return nil, fmt.Errorf("disposal %s: %w: %v", mint, ErrOrderRejected, err)
	}

	effective := price * (1 - float64(slippageBps)/10000)
	proceeds := quantity*effective - e.feeUsd
	if proceeds < 0 {
		proceeds = 0
	}

	fill := &Fill{
		ClientOrderID: uuid.NewString(),
		Mint:          mint,
		Quantity:      quantity,
		Price:         effective,
		UsdAmount:     proceeds,
		FeeUsd:        e.feeUsd,
		FilledAt:      e.now(),
	}
	e.logger.Printf("[exec] paper sell %s qty=%.6f price=%.8f proceeds=%.2f order=%s",
		mint, fill.Quantity, fill.Price, fill.UsdAmount, fill.ClientOrderID)
	return fill, nil
}
