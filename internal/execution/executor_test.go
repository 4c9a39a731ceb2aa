package execution

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/config"
)

// stubPrices answers a fixed price or error.
type stubPrices struct {
	price float64
	err   error
}

func (s *stubPrices) Price(_ context.Context, _ string) (float64, error) {
	return s.price, s.err
}

// blockingPrices never answers until the context dies.
type blockingPrices struct{}

func (blockingPrices) Price(ctx context.Context, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func testExecConfig() config.ExecutionConfig {
	return config.ExecutionConfig{SlippageBps: 200, OrderTimeoutSeconds: 1, FeeUsd: 0.05}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPaperAcquisitionAppliesSlippageAndFee(t *testing.T) {
	e := NewPaperExecutor(&stubPrices{price: 0.001}, testExecConfig(), discardLogger())

	fill, err := e.SubmitAcquisition(context.Background(), "mint-a", 10)
	require.NoError(t, err)

	assert.InDelta(t, 0.00102, fill.Price, 1e-12) // +200 bps
	assert.InDelta(t, (10-0.05)/0.00102, fill.Quantity, 1e-6)
	assert.Equal(t, 10.0, fill.UsdAmount)
	assert.NotEmpty(t, fill.ClientOrderID)
	assert.NotZero(t, fill.FilledAt)
}

func TestPaperDisposalAppliesSlippageAndFee(t *testing.T) {
	e := NewPaperExecutor(&stubPrices{price: 0.002}, testExecConfig(), discardLogger())

	fill, err := e.SubmitDisposal(context.Background(), "mint-a", 5000)
	require.NoError(t, err)

	assert.InDelta(t, 0.002*0.98, fill.Price, 1e-12) // -200 bps
	assert.InDelta(t, 5000*0.002*0.98-0.05, fill.UsdAmount, 1e-9)
}

func TestPaperLiquidationRelaxesSlippage(t *testing.T) {
	e := NewPaperExecutor(&stubPrices{price: 0.002}, testExecConfig(), discardLogger())

	fill, err := e.SubmitLiquidation(context.Background(), "mint-a", 5000)
	require.NoError(t, err)

	assert.InDelta(t, 0.002*0.96, fill.Price, 1e-12) // -400 bps, double the limit
	assert.InDelta(t, 5000*0.002*0.96-0.05, fill.UsdAmount, 1e-9)
}

func TestPaperOrderRejectedOnPriceError(t *testing.T) {
	e := NewPaperExecutor(&stubPrices{err: errors.New("boom")}, testExecConfig(), discardLogger())

	_, err := e.SubmitAcquisition(context.Background(), "mint-a", 10)
	assert.ErrorIs(t, err, ErrOrderRejected)

	_, err = e.SubmitDisposal(context.Background(), "mint-a", 100)
	assert.ErrorIs(t, err, ErrOrderRejected)
}

func TestPaperOrderTimeout(t *testing.T) {
	e := NewPaperExecutor(blockingPrices{}, testExecConfig(), discardLogger())

	_, err := e.SubmitAcquisition(context.Background(), "mint-a", 10)
	assert.ErrorIs(t, err, ErrOrderTimeout)
}

func TestPaperRejectsNonPositiveInputs(t *testing.T) {
	e := NewPaperExecutor(&stubPrices{price: 1}, testExecConfig(), discardLogger())

	_, err := e.SubmitAcquisition(context.Background(), "mint-a", 0)
	assert.ErrorIs(t, err, ErrOrderRejected)

	_, err = e.SubmitDisposal(context.Background(), "mint-a", -1)
	assert.ErrorIs(t, err, ErrOrderRejected)

	// Spend at or below the flat fee cannot convert.
	_, err = e.SubmitAcquisition(context.Background(), "mint-a", 0.05)
	assert.ErrorIs(t, err, ErrOrderRejected)
}
