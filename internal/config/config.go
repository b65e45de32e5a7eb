package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/internal/volatility"
)

// Date alignment policies for portfolio aggregation.
const (
	AlignForwardFill = "forward_fill"
	AlignStrict      = "strict"
)

// EngineConfig enumerates every option the engine recognizes. It is
// validated at the entry point so invalid values fail immediately instead of
// deep inside the simulation loop.
type EngineConfig struct {
	// Window is the trailing return window for volatility estimation, in
	// trading days.
	Window int `json:"window"`

	// AdjustmentFactor scales the latest volatility into grid spacing.
	AdjustmentFactor float64 `json:"adjustment_factor"`

	// LevelCount is the number of grid levels on each side of the base price.
	LevelCount int `json:"level_count"`

	// RebalanceGrid recomputes the grid spacing from rolling volatility each
	// bar instead of fixing it at backtest start.
	RebalanceGrid bool `json:"rebalance_grid"`

	// NeutralFraction is the target invested fraction at grid level 0.
	NeutralFraction float64 `json:"neutral_fraction"`

	// MinFractionDelta is the minimum change in target fraction required to
	// trigger a trade. Zero means any level-bucket change trades.
	MinFractionDelta float64 `json:"min_fraction_delta"`

	// DateAlignment selects the portfolio equity-curve alignment policy.
	DateAlignment string `json:"date_alignment"`

	// InitialCapital is the simulated starting equity.
	InitialCapital float64 `json:"initial_capital"`

	// Commission is the proportional cost applied to each trade notional.
	Commission float64 `json:"commission"`
}

// Default returns the engine configuration with documented defaults. The
// adjustment factor of 1/8 reproduces the classic "volatility over eight"
// grid spacing rule.
func Default() EngineConfig {
	return EngineConfig{
		Window:           volatility.DefaultWindow,
		AdjustmentFactor: 0.125,
		LevelCount:       10,
		RebalanceGrid:    false,
		NeutralFraction:  0.5,
		MinFractionDelta: 0,
		DateAlignment:    AlignForwardFill,
		InitialCapital:   100000,
		Commission:       0,
	}
}

// LoadFile reads a JSON config file over the defaults. Unknown fields are
// rejected rather than silently ignored.
func LoadFile(path string) (EngineConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, engerrors.Wrap(err, engerrors.KindInvalidParameter, "config", "load").
			WithContext("path", path)
	}

	return cfg, nil
}

// Validate checks every recognized option and reports the first violation.
func (c *EngineConfig) Validate() error {
	if c.Window < 2 {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "window must be >= 2, got %d", c.Window)
	}
	if c.AdjustmentFactor <= 0 {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "adjustment_factor must be > 0, got %.6f", c.AdjustmentFactor)
	}
	if c.LevelCount < 1 {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "level_count must be >= 1, got %d", c.LevelCount)
	}
	if c.NeutralFraction < 0 || c.NeutralFraction > 1 {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "neutral_fraction must be in [0,1], got %.4f", c.NeutralFraction)
	}
	if c.MinFractionDelta < 0 || c.MinFractionDelta >= 1 {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "min_fraction_delta must be in [0,1), got %.4f", c.MinFractionDelta)
	}
	if c.DateAlignment != AlignForwardFill && c.DateAlignment != AlignStrict {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "date_alignment must be %q or %q, got %q",
			AlignForwardFill, AlignStrict, c.DateAlignment)
	}
	if c.InitialCapital <= 0 {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "initial_capital must be > 0, got %.2f", c.InitialCapital)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return engerrors.Newf(engerrors.KindInvalidParameter,
			"config", "validate", "commission must be in [0,1), got %.4f", c.Commission)
	}
	return nil
}
