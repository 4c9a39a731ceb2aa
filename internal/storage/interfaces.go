// Package storage defines the persistence interfaces for positions,
// pool state, and the closed-trade archive, plus the sentinel errors
// every backend maps onto.
package storage

import (
	"context"

	"solana-sniper/internal/domain"
)

// PositionStore persists tracked positions. At most one live
// (non-terminal) position exists per mint; closed and aborted
// positions are kept for the session report.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey when a live
	// position for the mint already exists.
	Insert(ctx context.Context, p *domain.Position) error

	// Update overwrites the stored position for the mint. Returns
	// ErrNotFound when no position exists.
	Update(ctx context.Context, p *domain.Position) error

	// GetByMint retrieves the most recent position for a mint. Returns
	// ErrNotFound if none exists.
	GetByMint(ctx context.Context, mint string) (*domain.Position, error)

	// ListByState retrieves all positions in the given state, ordered
	// by OpenedAt ascending.
	ListByState(ctx context.Context, state domain.PositionState) ([]*domain.Position, error)

	// ListOpen retrieves all non-terminal positions, ordered by
	// OpenedAt ascending. Used on startup to reattach monitors.
	ListOpen(ctx context.Context) ([]*domain.Position, error)
}

// PoolStateStore persists the singleton pool state so a restart
// resumes mid-session without re-sizing or double-counting capital.
type PoolStateStore interface {
	// Save upserts the pool state.
	Save(ctx context.Context, state domain.PoolState) error

	// Load retrieves the persisted pool state. Returns ErrNotFound
	// when no state has been saved yet.
	Load(ctx context.Context) (domain.PoolState, error)
}

// TradeArchive is the append-only record of closed trades, one row
// per close, used for analytics and the session report.
type TradeArchive interface {
	// Append adds a closed-trade row.
	Append(ctx context.Context, row *domain.TradeArchiveRow) error

	// ListBySession retrieves all rows for a session, ordered by
	// ClosedAt ascending.
	ListBySession(ctx context.Context, sessionNumber int) ([]*domain.TradeArchiveRow, error)
}
