package grid

import (
	"math"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
)

// Config holds the derived grid parameters for one ETF. It is computed from
// the latest volatility estimate rather than authored directly; only the
// adjustment factor is a user-tunable input.
type Config struct {
	BasePrice        float64 `json:"base_price"`
	Spacing          float64 `json:"spacing"`
	LevelCount       int     `json:"level_count"`
	AdjustmentFactor float64 `json:"adjustment_factor"`
}

// Compute derives grid parameters from the latest volatility estimate.
// Spacing adapts to the instrument's current risk regime: tighter grids in
// calm markets, wider grids in volatile ones.
func Compute(latestVol, adjustmentFactor float64, levelCount int, basePrice float64) (*Config, error) {
	if latestVol <= 0 || math.IsNaN(latestVol) {
		return nil, engerrors.Newf(engerrors.KindInvalidVolatility,
			"grid", "compute", "latest volatility must be > 0, got %.6f", latestVol)
	}
	if adjustmentFactor <= 0 {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"grid", "compute", "adjustment_factor must be > 0, got %.6f", adjustmentFactor)
	}
	if levelCount < 1 {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"grid", "compute", "level_count must be >= 1, got %d", levelCount)
	}
	if basePrice <= 0 {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"grid", "compute", "base_price must be > 0, got %.6f", basePrice)
	}

	return &Config{
		BasePrice:        basePrice,
		Spacing:          latestVol * adjustmentFactor,
		LevelCount:       levelCount,
		AdjustmentFactor: adjustmentFactor,
	}, nil
}

// Levels returns the 2n+1 grid price thresholds, strictly increasing and
// symmetric around the base price: base * (1 + k*spacing) for k in [-n, n].
func (c *Config) Levels() []float64 {
	levels := make([]float64, 0, 2*c.LevelCount+1)
	for k := -c.LevelCount; k <= c.LevelCount; k++ {
		levels = append(levels, c.BasePrice*(1+float64(k)*c.Spacing))
	}
	return levels
}

// LevelIndex buckets a price into a grid level in [-n, n]. A price below the
// lowest threshold clamps to -n, above the highest clamps to +n. The bucket
// is the highest threshold at or below the price, so the index is monotonic
// non-decreasing in price.
func (c *Config) LevelIndex(price float64) int {
	k := int(math.Floor((price/c.BasePrice - 1) / c.Spacing))
	if k < -c.LevelCount {
		return -c.LevelCount
	}
	if k > c.LevelCount {
		return c.LevelCount
	}
	return k
}
