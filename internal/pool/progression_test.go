package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/config"
)

func TestBuildPlanChainIsSelfConsistent(t *testing.T) {
	plan, err := BuildPlan(testSessionConfig(), fractionSizing())
	require.NoError(t, err)
	require.Len(t, plan, 4)

	for k := 0; k < len(plan)-1; k++ {
		assert.Equal(t, plan[k].NextSessionPool, plan[k+1].InitialPool,
			"session %d next pool must seed session %d", plan[k].SessionNumber, plan[k+1].SessionNumber)
	}
}

func TestBuildPlanFirstEntry(t *testing.T) {
	plan, err := BuildPlan(testSessionConfig(), fractionSizing())
	require.NoError(t, err)

	first := plan[0]
	assert.Equal(t, 1, first.SessionNumber)
	assert.Equal(t, 600.0, first.InitialPool)
	assert.Equal(t, 6000.0, first.TargetPool)
	assert.Equal(t, 5400.0, first.ProfitRequired)
	assert.InDelta(t, 10.0, first.GrowthMultiplier, 1e-9)
	// 600 + 5400 * 0.6 * 0.5 = 2220: base carried plus reinvested
	// after-tax profit.
	assert.InDelta(t, 2220.0, first.NextSessionPool, 1e-9)
}

func TestBuildPlanGrowthMultiplierHeldConstant(t *testing.T) {
	plan, err := BuildPlan(testSessionConfig(), fractionSizing())
	require.NoError(t, err)

	for _, entry := range plan {
		assert.InDelta(t, 10.0, entry.GrowthMultiplier, 1e-9)
		assert.InDelta(t, entry.InitialPool*10, entry.TargetPool, 1e-6)
	}
}

func TestBuildPlanRejectsBadConfig(t *testing.T) {
	cfg := testSessionConfig()
	cfg.InitialPoolUsd = 0
	_, err := BuildPlan(cfg, fractionSizing())
	assert.Error(t, err)

	cfg = testSessionConfig()
	cfg.TargetPoolUsd = cfg.InitialPoolUsd
	_, err = BuildPlan(cfg, fractionSizing())
	assert.Error(t, err)

	cfg = testSessionConfig()
	cfg.PlannedSessions = 0
	_, err = BuildPlan(cfg, fractionSizing())
	assert.Error(t, err)
}

func TestBuildPlanAbsoluteSizing(t *testing.T) {
	sizing := config.SizingConfig{Policy: config.SizingAbsolute, AbsoluteUsd: 25}
	plan, err := BuildPlan(testSessionConfig(), sizing)
	require.NoError(t, err)

	for _, entry := range plan {
		assert.Equal(t, 25.0, entry.PositionSizeUsd)
	}
}
