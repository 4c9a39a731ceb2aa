// Package ledger tracks cost basis for every acquisition and computes
// realized gains on close using FIFO lot matching, with wash-sale
// flagging for reacquisitions shortly after a realized loss.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"solana-sniper/internal/domain"
)

// Sentinel errors.
var (
	// ErrNoOpenLots means a close was recorded for a mint with no
	// remaining open lots.
	ErrNoOpenLots = errors.New("no open lots for mint")
	// ErrInsufficientQuantity means a close asked for more quantity
	// than the open lots hold.
	ErrInsufficientQuantity = errors.New("insufficient open quantity")
	// ErrInvalidInput rejects non-positive quantities or costs.
	ErrInvalidInput = errors.New("invalid ledger input")
)

// CapitalLedger records acquisitions and disposals and answers realized
// gain questions.
type CapitalLedger interface {
	// RecordOpen records an acquisition lot. Returns true when the lot
	// is flagged as a wash sale: a loss was realized on the same mint
	// within the configured window before this open.
	RecordOpen(ctx context.Context, mint string, quantity, costUsd float64, ts int64) (washSale bool, err error)
	// RecordClose matches quantity against open lots FIFO and returns
	// the realized gain (proceeds minus matched cost basis).
	RecordClose(ctx context.Context, mint string, quantity, proceedsUsd float64, ts int64) (realizedUsd float64, err error)
	// RealizedTotal returns the sum of all realized gains and losses.
	RealizedTotal() float64
	// Closes returns every recorded disposal, in close order.
	Closes() []domain.LedgerClose
}

// lot is one open acquisition, consumed oldest-first.
type lot struct {
	quantity float64
	costUsd  float64
	openedAt int64
}

// FIFOLedger is the in-memory CapitalLedger. Safe for concurrent use;
// position monitors close independently.
type FIFOLedger struct {
	mu         sync.Mutex
	washWindow time.Duration

	lots map[string][]lot
	// lastLossAt records the most recent loss-realizing close per mint,
	// Unix ms. Drives wash-sale flagging on reacquisition.
	lastLossAt map[string]int64

	closes        []domain.LedgerClose
	realizedTotal float64
}

var _ CapitalLedger = (*FIFOLedger)(nil)

// NewFIFOLedger creates an empty ledger with the given wash-sale
// window.
func NewFIFOLedger(washWindow time.Duration) *FIFOLedger {
	return &FIFOLedger{
		washWindow: washWindow,
		lots:       make(map[string][]lot),
		lastLossAt: make(map[string]int64),
	}
}

// RecordOpen appends a lot for the mint and reports whether the open
// falls inside the wash-sale window of a prior realized loss.
func (l *FIFOLedger) RecordOpen(_ context.Context, mint string, quantity, costUsd float64, ts int64) (bool, error) {
	if mint == "" || quantity <= 0 || costUsd < 0 {
		return false, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lots[mint] = append(l.lots[mint], lot{quantity: quantity, costUsd: costUsd, openedAt: ts})

	lossAt, ok := l.lastLossAt[mint]
	washSale := ok && ts-lossAt <= l.washWindow.Milliseconds()
	return washSale, nil
}

// RecordClose consumes open lots oldest-first. A partial match splits
// the boundary lot, carrying its cost basis pro rata.
func (l *FIFOLedger) RecordClose(_ context.Context, mint string, quantity, proceedsUsd float64, ts int64) (float64, error) {
	if mint == "" || quantity <= 0 {
		return 0, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	open := l.lots[mint]
	if len(open) == 0 {
		return 0, ErrNoOpenLots
	}

	var available float64
	for _, lo := range open {
		available += lo.quantity
	}
	if quantity > available+1e-9 {
		return 0, ErrInsufficientQuantity
	}

	var matchedCost float64
	remaining := quantity
	for remaining > 1e-12 && len(open) > 0 {
		head := &open[0]
		if head.quantity <= remaining+1e-12 {
			matchedCost += head.costUsd
			remaining -= head.quantity
			open = open[1:]
			continue
		}
		// Split: consume part of the head lot pro rata.
		fraction := remaining / head.quantity
		consumedCost := head.costUsd * fraction
		matchedCost += consumedCost
		head.quantity -= remaining
		head.costUsd -= consumedCost
		remaining = 0
	}
	if len(open) == 0 {
		delete(l.lots, mint)
	} else {
		l.lots[mint] = open
	}

	realized := proceedsUsd - matchedCost
	if realized < 0 {
		l.lastLossAt[mint] = ts
	}

	l.realizedTotal += realized
	l.closes = append(l.closes, domain.LedgerClose{
		Mint:         mint,
		Quantity:     quantity,
		ProceedsUsd:  proceedsUsd,
		CostBasisUsd: matchedCost,
		RealizedUsd:  realized,
		ClosedAt:     ts,
	})
	return realized, nil
}

// RealizedTotal returns the cumulative realized P&L.
func (l *FIFOLedger) RealizedTotal() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.realizedTotal
}

// Closes returns recorded disposals in order.
func (l *FIFOLedger) Closes() []domain.LedgerClose {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LedgerClose, len(l.closes))
	copy(out, l.closes)
	return out
}

// OpenQuantity returns the remaining open quantity for a mint.
func (l *FIFOLedger) OpenQuantity(mint string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total float64
	for _, lo := range l.lots[mint] {
		total += lo.quantity
	}
	return total
}
