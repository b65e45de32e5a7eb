package grid

import (
	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
)

// DefaultNeutralFraction is the invested fraction at grid level 0.
const DefaultNeutralFraction = 0.5

// CurveFunc maps a grid level index in [-levelCount, levelCount] to a target
// invested fraction. Implementations must be monotonic non-increasing in the
// level index so a higher price level never yields a higher target fraction.
type CurveFunc func(level, levelCount int, neutral float64) float64

// Sizer recommends a target invested fraction for a price relative to a
// grid. It is a pure function of its inputs; the backtest engine owns all
// position state.
type Sizer struct {
	neutral float64
	curve   CurveFunc
}

// NewSizer creates a position sizer with the default linear curve.
func NewSizer(neutralFraction float64) (*Sizer, error) {
	return NewSizerWithCurve(neutralFraction, LinearCurve)
}

// NewSizerWithCurve creates a position sizer with a custom sizing curve.
func NewSizerWithCurve(neutralFraction float64, curve CurveFunc) (*Sizer, error) {
	if neutralFraction < 0 || neutralFraction > 1 {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"sizer", "new", "neutral_fraction must be in [0,1], got %.4f", neutralFraction)
	}
	if curve == nil {
		curve = LinearCurve
	}
	return &Sizer{neutral: neutralFraction, curve: curve}, nil
}

// RecommendedFraction returns the target invested fraction for the current
// price under the given grid: buy the dip at lower levels, sell into
// strength at higher ones.
func (s *Sizer) RecommendedFraction(currentPrice float64, cfg *Config) float64 {
	return s.FractionAtLevel(cfg.LevelIndex(currentPrice), cfg.LevelCount)
}

// FractionAtLevel returns the target fraction for an explicit level bucket,
// clamped to [0,1].
func (s *Sizer) FractionAtLevel(level, levelCount int) float64 {
	fraction := s.curve(level, levelCount, s.neutral)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// LinearCurve interpolates linearly through the neutral fraction at level 0,
// reaching 0 at the top level. With the default neutral of 0.5 the bottom
// level maps to fully invested.
func LinearCurve(level, levelCount int, neutral float64) float64 {
	if levelCount < 1 {
		return neutral
	}
	return neutral * (1 - float64(level)/float64(levelCount))
}
