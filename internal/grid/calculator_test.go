package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
)

// TestCompute_Valid tests spacing derivation from volatility
func TestCompute_Valid(t *testing.T) {
	cfg, err := Compute(0.24, 0.125, 10, 100.0)
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.BasePrice)
	assert.InDelta(t, 0.03, cfg.Spacing, 1e-12)
	assert.Equal(t, 10, cfg.LevelCount)
	assert.Equal(t, 0.125, cfg.AdjustmentFactor)
}

// TestCompute_InvalidVolatility tests rejection of zero and negative
// volatility so a degenerate zero-width grid can never be produced
func TestCompute_InvalidVolatility(t *testing.T) {
	for _, vol := range []float64{0, -0.1} {
		_, err := Compute(vol, 0.125, 10, 100.0)
		require.Error(t, err)
		assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidVolatility))
	}
}

// TestCompute_InvalidParameters tests parameter validation
func TestCompute_InvalidParameters(t *testing.T) {
	tests := []struct {
		name       string
		factor     float64
		levelCount int
		basePrice  float64
	}{
		{name: "zero factor", factor: 0, levelCount: 10, basePrice: 100},
		{name: "negative factor", factor: -1, levelCount: 10, basePrice: 100},
		{name: "zero levels", factor: 0.125, levelCount: 0, basePrice: 100},
		{name: "zero base price", factor: 0.125, levelCount: 10, basePrice: 0},
		{name: "negative base price", factor: 0.125, levelCount: 10, basePrice: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(0.2, tt.factor, tt.levelCount, tt.basePrice)
			require.Error(t, err)
			assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidParameter))
		})
	}
}

// TestLevels_MonotonicAndSymmetric tests the level boundary invariants:
// strictly increasing, 2n+1 thresholds, level -k and +k average to base
func TestLevels_MonotonicAndSymmetric(t *testing.T) {
	cfg, err := Compute(0.32, 0.25, 5, 50.0)
	require.NoError(t, err)

	levels := cfg.Levels()
	require.Len(t, levels, 11)

	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i], levels[i-1])
	}

	// Symmetry: base*(1-k*s) and base*(1+k*s) average to base.
	for k := 1; k <= cfg.LevelCount; k++ {
		lower := levels[cfg.LevelCount-k]
		upper := levels[cfg.LevelCount+k]
		assert.InDelta(t, cfg.BasePrice, (lower+upper)/2, 1e-9)
	}
	assert.InDelta(t, cfg.BasePrice, levels[cfg.LevelCount], 1e-12)
}

// TestLevelIndex_Bucketing tests bucket assignment and clamping
func TestLevelIndex_Bucketing(t *testing.T) {
	cfg, err := Compute(0.2, 0.5, 3, 100.0) // spacing 0.10
	require.NoError(t, err)

	tests := []struct {
		name  string
		price float64
		level int
	}{
		{name: "base price", price: 100.0, level: 0},
		{name: "just above base", price: 105.0, level: 0},
		{name: "one level up", price: 110.0, level: 1},
		{name: "one level down", price: 95.0, level: -1},
		{name: "clamped above", price: 200.0, level: 3},
		{name: "clamped below", price: 10.0, level: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, cfg.LevelIndex(tt.price))
		})
	}
}

// TestLevelIndex_Monotonic tests that the bucket index never decreases as
// price increases
func TestLevelIndex_Monotonic(t *testing.T) {
	cfg, err := Compute(0.4, 0.25, 8, 100.0)
	require.NoError(t, err)

	prev := cfg.LevelIndex(1.0)
	for price := 2.0; price < 300; price += 0.5 {
		level := cfg.LevelIndex(price)
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}
