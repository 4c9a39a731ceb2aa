package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// TradeArchive is an in-memory implementation of storage.TradeArchive.
type TradeArchive struct {
	mu   sync.RWMutex
	rows []*domain.TradeArchiveRow
}

// NewTradeArchive creates a new in-memory trade archive.
func NewTradeArchive() *TradeArchive {
	return &TradeArchive{}
}

// Compile-time interface check.
var _ storage.TradeArchive = (*TradeArchive)(nil)

// Append adds a closed-trade row.
func (a *TradeArchive) Append(_ context.Context, row *domain.TradeArchiveRow) error {
	if row == nil || row.Mint == "" {
		return storage.ErrInvalidInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *row
	a.rows = append(a.rows, &cp)
	return nil
}

// ListBySession retrieves all rows for a session, ordered by ClosedAt
// ascending.
func (a *TradeArchive) ListBySession(_ context.Context, sessionNumber int) ([]*domain.TradeArchiveRow, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.TradeArchiveRow
	for _, r := range a.rows {
		if r.SessionNumber == sessionNumber {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ClosedAt < result[j].ClosedAt
	})
	return result, nil
}
