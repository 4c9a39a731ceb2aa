package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayMs = int64(24 * time.Hour / time.Millisecond)

func newTestLedger() *FIFOLedger {
	return NewFIFOLedger(30 * 24 * time.Hour)
}

func TestRecordCloseFIFOMatching(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	// Two lots at different prices: 100 units at $10, 100 units at $30.
	_, err := l.RecordOpen(ctx, "mint-a", 100, 10, 1000)
	require.NoError(t, err)
	_, err = l.RecordOpen(ctx, "mint-a", 100, 30, 2000)
	require.NoError(t, err)

	// Close 100 for $25: matches the oldest lot ($10 basis) entirely.
	realized, err := l.RecordClose(ctx, "mint-a", 100, 25, 3000)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, realized, 1e-9)

	// Close the rest for $20: matches the $30 lot.
	realized, err = l.RecordClose(ctx, "mint-a", 100, 20, 4000)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, realized, 1e-9)

	assert.InDelta(t, 5.0, l.RealizedTotal(), 1e-9)
	assert.Equal(t, 0.0, l.OpenQuantity("mint-a"))
}

func TestRecordClosePartialLotSplit(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.RecordOpen(ctx, "mint-a", 200, 100, 1000)
	require.NoError(t, err)

	// Close half: consumes half the lot's basis pro rata.
	realized, err := l.RecordClose(ctx, "mint-a", 100, 80, 2000)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, realized, 1e-9) // 80 - 50

	assert.InDelta(t, 100.0, l.OpenQuantity("mint-a"), 1e-9)

	// Remaining half carries the remaining $50 basis.
	realized, err = l.RecordClose(ctx, "mint-a", 100, 40, 3000)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, realized, 1e-9)
}

func TestRecordCloseSpanningLots(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.RecordOpen(ctx, "mint-a", 50, 50, 1000)
	require.NoError(t, err)
	_, err = l.RecordOpen(ctx, "mint-a", 50, 150, 2000)
	require.NoError(t, err)

	// 75 units: all of lot 1 ($50) plus half of lot 2 ($75).
	realized, err := l.RecordClose(ctx, "mint-a", 75, 200, 3000)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, realized, 1e-9) // 200 - 125
	assert.InDelta(t, 25.0, l.OpenQuantity("mint-a"), 1e-9)
}

func TestRecordCloseErrors(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.RecordClose(ctx, "mint-a", 10, 5, 1000)
	assert.ErrorIs(t, err, ErrNoOpenLots)

	_, err = l.RecordOpen(ctx, "mint-a", 10, 100, 1000)
	require.NoError(t, err)

	_, err = l.RecordClose(ctx, "mint-a", 20, 5, 2000)
	assert.ErrorIs(t, err, ErrInsufficientQuantity)

	_, err = l.RecordClose(ctx, "mint-a", 0, 5, 2000)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = l.RecordOpen(ctx, "", 10, 100, 1000)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWashSaleFlaggedWithinWindow(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.RecordOpen(ctx, "mint-a", 100, 100, 0)
	require.NoError(t, err)
	realized, err := l.RecordClose(ctx, "mint-a", 100, 60, 1*dayMs)
	require.NoError(t, err)
	require.Negative(t, realized)

	// Reacquired 10 days after the loss: flagged.
	wash, err := l.RecordOpen(ctx, "mint-a", 100, 90, 11*dayMs)
	require.NoError(t, err)
	assert.True(t, wash)

	// A different mint is never affected.
	wash, err = l.RecordOpen(ctx, "mint-b", 100, 90, 11*dayMs)
	require.NoError(t, err)
	assert.False(t, wash)
}

func TestWashSaleNotFlaggedOutsideWindow(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.RecordOpen(ctx, "mint-a", 100, 100, 0)
	require.NoError(t, err)
	_, err = l.RecordClose(ctx, "mint-a", 100, 60, 1*dayMs)
	require.NoError(t, err)

	wash, err := l.RecordOpen(ctx, "mint-a", 100, 90, 40*dayMs)
	require.NoError(t, err)
	assert.False(t, wash)
}

func TestWashSaleNotFlaggedAfterGain(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.RecordOpen(ctx, "mint-a", 100, 100, 0)
	require.NoError(t, err)
	_, err = l.RecordClose(ctx, "mint-a", 100, 150, 1*dayMs)
	require.NoError(t, err)

	wash, err := l.RecordOpen(ctx, "mint-a", 100, 90, 2*dayMs)
	require.NoError(t, err)
	assert.False(t, wash)
}

func TestClosesRecorded(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.RecordOpen(ctx, "mint-a", 10, 100, 1000)
	require.NoError(t, err)
	_, err = l.RecordClose(ctx, "mint-a", 10, 130, 2000)
	require.NoError(t, err)

	closes := l.Closes()
	require.Len(t, closes, 1)
	assert.Equal(t, "mint-a", closes[0].Mint)
	assert.InDelta(t, 100.0, closes[0].CostBasisUsd, 1e-9)
	assert.InDelta(t, 30.0, closes[0].RealizedUsd, 1e-9)
	assert.Equal(t, int64(2000), closes[0].ClosedAt)
}
