package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func heldPosition(mint string, openedAt int64) *domain.Position {
	return &domain.Position{
		Mint:          mint,
		WalletRef:     "wallet-1",
		ClientOrderID: "order-1",
		EntryPrice:    0.001,
		Quantity:      1000,
		CostBasisUsd:  1,
		PeakPrice:     0.001,
		QualityScore:  70,
		OpenedAt:      openedAt,
		State:         domain.PositionHeld,
	}
}

func TestPositionStoreRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPositionStore(pool)
	p := heldPosition("mint-a", 1000)
	require.NoError(t, s.Insert(ctx, p))

	got, err := s.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, p.Mint, got.Mint)
	assert.Equal(t, p.EntryPrice, got.EntryPrice)
	assert.Equal(t, 70, got.QualityScore)
	assert.Equal(t, domain.PositionHeld, got.State)
}

func TestPositionStoreLiveUniqueness(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPositionStore(pool)
	require.NoError(t, s.Insert(ctx, heldPosition("mint-a", 1000)))

	err := s.Insert(ctx, heldPosition("mint-a", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Close the live position; a new one may then open.
	closed := heldPosition("mint-a", 1000)
	closed.State = domain.PositionClosed
	closed.ClosedAt = 1500
	closed.ExitReason = domain.ExitReasonTakeProfit
	require.NoError(t, s.Update(ctx, closed))

	require.NoError(t, s.Insert(ctx, heldPosition("mint-a", 3000)))
}

func TestPositionStoreUpdateMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPositionStore(pool)
	err := s.Update(ctx, heldPosition("mint-x", 1000))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStoreListOpen(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPositionStore(pool)
	require.NoError(t, s.Insert(ctx, heldPosition("mint-b", 2000)))
	require.NoError(t, s.Insert(ctx, heldPosition("mint-a", 1000)))

	aborted := heldPosition("mint-c", 500)
	aborted.State = domain.PositionAborted
	require.NoError(t, s.Insert(ctx, aborted))

	open, err := s.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "mint-a", open[0].Mint)
	assert.Equal(t, "mint-b", open[1].Mint)
}

func TestPositionStoreListByState(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPositionStore(pool)
	require.NoError(t, s.Insert(ctx, heldPosition("mint-a", 1000)))

	exiting := heldPosition("mint-b", 2000)
	exiting.State = domain.PositionExiting
	require.NoError(t, s.Insert(ctx, exiting))

	held, err := s.ListByState(ctx, domain.PositionHeld)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "mint-a", held[0].Mint)
}
