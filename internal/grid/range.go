package grid

import (
	"math"

	talib "github.com/markcheno/go-talib"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

const (
	// DefaultShortWindow and DefaultLongWindow bound the lookback for the
	// grid range extrema.
	DefaultShortWindow = 200
	DefaultLongWindow  = 800

	// Blend weights for the short vs long lookback extrema.
	shortWeight = 0.7
	longWeight  = 0.3
)

// Range holds the derived upper and lower price boundaries of the grid.
type Range struct {
	Upper float64
	Lower float64
}

// ComputeRange derives the total grid range from recent price extremes:
// the upper bound blends the short- and long-window rolling highs
// (0.7*high_short + 0.3*high_long), the lower bound blends the rolling lows
// the same way. When the series is shorter than the long window the long
// lookback degrades to the full series.
func ComputeRange(bars []types.PriceBar, shortWindow, longWindow int) (*Range, error) {
	if shortWindow < 1 || longWindow < shortWindow {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"grid", "range", "invalid windows: short=%d long=%d", shortWindow, longWindow)
	}
	if len(bars) < shortWindow {
		return nil, engerrors.Newf(engerrors.KindInsufficientHistory,
			"grid", "range", "need at least %d bars for range derivation, got %d",
			shortWindow, len(bars))
	}
	if longWindow > len(bars) {
		longWindow = len(bars)
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	highShort := last(talib.Max(closes, shortWindow))
	lowShort := last(talib.Min(closes, shortWindow))
	highLong := last(talib.Max(closes, longWindow))
	lowLong := last(talib.Min(closes, longWindow))

	return &Range{
		Upper: shortWeight*highShort + longWeight*highLong,
		Lower: shortWeight*lowShort + longWeight*lowLong,
	}, nil
}

// Pct returns the total range as a fraction of the range midpoint:
// 2*(H-L)/(H+L).
func (r *Range) Pct() float64 {
	if r.Upper+r.Lower == 0 {
		return 0
	}
	return 2 * (r.Upper - r.Lower) / (r.Upper + r.Lower)
}

// SuggestLevelCount derives a grid level count by dividing the total range
// percentage by the grid spacing. Always at least 1.
func (r *Range) SuggestLevelCount(spacing float64) (int, error) {
	if spacing <= 0 {
		return 0, engerrors.Newf(engerrors.KindInvalidParameter,
			"grid", "suggest_levels", "spacing must be > 0, got %.6f", spacing)
	}
	levels := int(math.Round(r.Pct() / spacing))
	if levels < 1 {
		levels = 1
	}
	return levels, nil
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
