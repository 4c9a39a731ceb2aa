package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func TestPoolStateStoreSaveLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPoolStateStore(pool)

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	state := domain.PoolState{
		SessionNumber:    1,
		InitialPoolUsd:   600,
		TargetPoolUsd:    6000,
		CurrentPoolUsd:   840,
		PositionSizeUsd:  9,
		TradesExecuted:   3,
		TradeLimit:       20,
		SessionStartedAt: 1700000000000,
		DurationSeconds:  14400,
	}
	require.NoError(t, s.Save(ctx, state))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, got)

	// Upsert keeps the singleton row.
	state.CurrentPoolUsd = 6100
	state.Completed = true
	require.NoError(t, s.Save(ctx, state))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6100.0, got.CurrentPoolUsd)
	assert.True(t, got.Completed)
}
