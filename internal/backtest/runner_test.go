package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/etf-grid-engine/internal/config"
	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

func runnerConfig() config.EngineConfig {
	cfg := config.Default()
	cfg.Window = 20
	cfg.LevelCount = 5
	return cfg
}

// TestRunAll_MultipleSymbols tests the parallel runner over independent
// series and that reports carry their symbols
func TestRunAll_MultipleSymbols(t *testing.T) {
	runner := NewRunner(runnerConfig(), 4, nil)

	series := map[string][]types.PriceBar{
		"SPY": alternatingSeries(200, 100.0, 0.02),
		"QQQ": alternatingSeries(200, 300.0, 0.03),
		"IWM": alternatingSeries(200, 180.0, 0.025),
	}

	reports, err := runner.RunAll(context.Background(), series)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	for symbol, report := range reports {
		assert.Equal(t, symbol, report.Symbol)
		assert.Len(t, report.EquityCurve, 200)
	}
}

// TestRunAll_PartialFailure tests that one failing symbol does not discard
// the reports of its siblings
func TestRunAll_PartialFailure(t *testing.T) {
	runner := NewRunner(runnerConfig(), 2, nil)

	series := map[string][]types.PriceBar{
		"SPY":  alternatingSeries(200, 100.0, 0.02),
		"FLAT": flatSeries(200, 100.0), // Zero volatility: run fails.
	}

	reports, err := runner.RunAll(context.Background(), series)
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidVolatility))

	require.Len(t, reports, 1)
	assert.Contains(t, reports, "SPY")
}

// TestRunAll_MatchesSequentialRun tests that the parallel path produces the
// same report as a direct engine run
func TestRunAll_MatchesSequentialRun(t *testing.T) {
	cfg := runnerConfig()
	bars := alternatingSeries(200, 100.0, 0.02)

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	direct, err := engine.Run(bars)
	require.NoError(t, err)

	runner := NewRunner(cfg, 0, nil)
	reports, err := runner.RunAll(context.Background(), map[string][]types.PriceBar{"SPY": bars})
	require.NoError(t, err)

	assert.Equal(t, direct.Trades, reports["SPY"].Trades)
	assert.Equal(t, direct.EquityCurve, reports["SPY"].EquityCurve)
	assert.Equal(t, direct.FinalEquity, reports["SPY"].FinalEquity)
}

// TestRunAll_CancelledContext tests that a pre-cancelled context aborts runs
func TestRunAll_CancelledContext(t *testing.T) {
	runner := NewRunner(runnerConfig(), 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunAll(ctx, map[string][]types.PriceBar{
		"SPY": alternatingSeries(200, 100.0, 0.02),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestSweepLevelCounts tests the parallel sweep and best-by-final-equity
// selection
func TestSweepLevelCounts(t *testing.T) {
	runner := NewRunner(runnerConfig(), 4, nil)
	bars := alternatingSeries(250, 100.0, 0.03)

	candidates := []int{2, 5, 10, 20}
	best, results, err := runner.SweepLevelCounts(context.Background(), bars, candidates)
	require.NoError(t, err)
	require.Len(t, results, len(candidates))

	for i, result := range results {
		assert.Equal(t, candidates[i], result.LevelCount)
		require.NotNil(t, result.Report)
		assert.LessOrEqual(t, result.Report.FinalEquity, best.Report.FinalEquity)
	}
	assert.Contains(t, candidates, best.LevelCount)
}

// TestSweepLevelCounts_NoCandidates tests the empty-candidate rejection
func TestSweepLevelCounts_NoCandidates(t *testing.T) {
	runner := NewRunner(runnerConfig(), 1, nil)

	_, _, err := runner.SweepLevelCounts(context.Background(),
		alternatingSeries(50, 100.0, 0.02), nil)
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidParameter))
}
