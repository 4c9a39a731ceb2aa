package memory

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
		Mint:         mint,
		EntryPrice:   0.001,
		Quantity:     1000,
		CostBasisUsd: 1,
		OpenedAt:     openedAt,
		State:        domain.PositionHeld,
	}
}

func TestPositionStoreInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()

	p := heldPosition("mint-a", 1000)
	require.NoError(t, s.Insert(ctx, p))

	got, err := s.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, p.Mint, got.Mint)
	assert.Equal(t, domain.PositionHeld, got.State)

	// Stored copy is isolated from the caller's struct.
	p.Quantity = 0
	got, err = s.GetByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.Quantity)
}

func TestPositionStoreDuplicateLivePosition(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()

	require.NoError(t, s.Insert(ctx, heldPosition("mint-a", 1000)))
	err := s.Insert(ctx, heldPosition("mint-a", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// After the position closes, a new one for the same mint may open.
	closed := heldPosition("mint-a", 1000)
	closed.State = domain.PositionClosed
	require.NoError(t, s.Update(ctx, closed))
	assert.NoError(t, s.Insert(ctx, heldPosition("mint-a", 3000)))
}

func TestPositionStoreUpdateMissing(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()

	err := s.Update(ctx, heldPosition("mint-a", 1000))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()

	_, err := s.GetByMint(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStoreInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()

	assert.ErrorIs(t, s.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, s.Insert(ctx, &domain.Position{}), storage.ErrInvalidInput)
}

func TestPositionStoreListOpenOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()

	require.NoError(t, s.Insert(ctx, heldPosition("mint-b", 2000)))
	require.NoError(t, s.Insert(ctx, heldPosition("mint-a", 1000)))

	closed := heldPosition("mint-c", 500)
	closed.State = domain.PositionClosed
	require.NoError(t, s.Insert(ctx, closed))

	open, err := s.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "mint-a", open[0].Mint)
	assert.Equal(t, "mint-b", open[1].Mint)
}

func TestPositionStoreListByState(t *testing.T) {
	ctx := context.Background()
	s := NewPositionStore()

	require.NoError(t, s.Insert(ctx, heldPosition("mint-a", 1000)))
	exiting := heldPosition("mint-b", 2000)
	exiting.State = domain.PositionExiting
	require.NoError(t, s.Insert(ctx, exiting))

	held, err := s.ListByState(ctx, domain.PositionHeld)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "mint-a", held[0].Mint)
}
