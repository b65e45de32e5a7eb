package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/etf-grid-engine/internal/backtest"
	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
)

// steadyReturns builds a return series of the given mean with mild
// deterministic noise so its variance is nonzero.
func steadyReturns(length int, mean float64) []float64 {
	series := make([]float64, length)
	for i := range series {
		noise := 0.001 * float64(i%3-1)
		series[i] = mean + noise
	}
	return series
}

// TestOptimizeWeights_Deterministic tests that a fixed seed reproduces the
// same weight vector
func TestOptimizeWeights_Deterministic(t *testing.T) {
	returns := map[string][]float64{
		"SPY": steadyReturns(100, 0.001),
		"QQQ": steadyReturns(100, 0.0005),
		"IWM": steadyReturns(100, -0.0002),
	}

	cfg := DefaultOptimizerConfig()
	first, err := OptimizeWeights(returns, cfg)
	require.NoError(t, err)
	second, err := OptimizeWeights(returns, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Weights, second.Weights)
	assert.Equal(t, first.Sharpe, second.Sharpe)
}

// TestOptimizeWeights_SumToOne tests that the result is a valid weight vector
func TestOptimizeWeights_SumToOne(t *testing.T) {
	returns := map[string][]float64{
		"SPY": steadyReturns(60, 0.001),
		"QQQ": steadyReturns(60, 0.0008),
	}

	result, err := OptimizeWeights(returns, DefaultOptimizerConfig())
	require.NoError(t, err)
	require.Len(t, result.Weights, 2)

	sum := 0.0
	for _, weight := range result.Weights {
		assert.GreaterOrEqual(t, weight, 0.0)
		sum += weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

// TestOptimizeWeights_FavorsDominantAsset tests that the search concentrates
// weight in a clearly superior holding
func TestOptimizeWeights_FavorsDominantAsset(t *testing.T) {
	returns := map[string][]float64{
		"GOOD": steadyReturns(100, 0.002),
		"BAD":  steadyReturns(100, -0.002),
	}

	result, err := OptimizeWeights(returns, DefaultOptimizerConfig())
	require.NoError(t, err)

	assert.Greater(t, result.Weights["GOOD"], result.Weights["BAD"])
	assert.Greater(t, result.Weights["GOOD"], 0.6)
	assert.Greater(t, result.Sharpe, 0.0)
}

// TestOptimizeWeights_Validation tests hyper-parameter and input validation
func TestOptimizeWeights_Validation(t *testing.T) {
	returns := map[string][]float64{"SPY": steadyReturns(10, 0.001)}

	cfg := DefaultOptimizerConfig()
	cfg.PopulationSize = 1
	_, err := OptimizeWeights(returns, cfg)
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidParameter))

	cfg = DefaultOptimizerConfig()
	cfg.MutationRate = 1.5
	_, err = OptimizeWeights(returns, cfg)
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidParameter))

	_, err = OptimizeWeights(map[string][]float64{}, DefaultOptimizerConfig())
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindEmptyPriceSeries))

	_, err = OptimizeWeights(map[string][]float64{"SPY": {0.01}}, DefaultOptimizerConfig())
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindInsufficientHistory))
}

// TestOptimizeWeights_MisalignedSeries tests rejection of uneven series
func TestOptimizeWeights_MisalignedSeries(t *testing.T) {
	returns := map[string][]float64{
		"SPY": steadyReturns(100, 0.001),
		"QQQ": steadyReturns(80, 0.001),
	}

	_, err := OptimizeWeights(returns, DefaultOptimizerConfig())
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindDateMisalignment))
}

// TestReturnsFromReports tests aligned return extraction from equity curves
func TestReturnsFromReports(t *testing.T) {
	reports := map[string]*backtest.Report{
		"SPY": makeReport(0, 100, 110, 99),
		"QQQ": makeReport(0, 200, 210, 220.5),
	}

	returns, err := ReturnsFromReports(reports)
	require.NoError(t, err)
	require.Len(t, returns, 2)

	require.Len(t, returns["SPY"], 2)
	assert.InDelta(t, 0.10, returns["SPY"][0], 1e-9)
	assert.InDelta(t, -0.10, returns["SPY"][1], 1e-9)
	assert.InDelta(t, 0.05, returns["QQQ"][0], 1e-9)
	assert.InDelta(t, 0.05, returns["QQQ"][1], 1e-9)
}

// TestReturnsFromReports_Misaligned tests curve length and date checks
func TestReturnsFromReports_Misaligned(t *testing.T) {
	_, err := ReturnsFromReports(map[string]*backtest.Report{
		"SPY": makeReport(0, 100, 110, 99),
		"QQQ": makeReport(0, 200, 210),
	})
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindDateMisalignment))

	// Same length, shifted dates.
	_, err = ReturnsFromReports(map[string]*backtest.Report{
		"SPY": makeReport(0, 100, 110, 99),
		"QQQ": makeReport(1, 200, 210, 220),
	})
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindDateMisalignment))
}

// TestBlendedSharpe tests the fitness function against a hand-computed case
func TestBlendedSharpe(t *testing.T) {
	// Single series {0.01, 0.03}: mean 0.02, sample stddev sqrt(2)*0.01.
	returns := [][]float64{{0.01, 0.03}}
	expected := 0.02 / (0.01 * math.Sqrt2) * math.Sqrt(252)
	assert.InDelta(t, expected, blendedSharpe([]float64{1.0}, returns), 1e-9)

	// Zero-variance series maps to 0.
	assert.Equal(t, 0.0, blendedSharpe([]float64{1.0}, [][]float64{{0.01, 0.01, 0.01}}))
}
