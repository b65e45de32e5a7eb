package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

// TestComputeRange_FlatSeries tests that a flat series collapses to a
// zero-width range
func TestComputeRange_FlatSeries(t *testing.T) {
	bars := flatBars(300, 100.0)

	r, err := ComputeRange(bars, 200, 800)
	require.NoError(t, err)

	assert.Equal(t, 100.0, r.Upper)
	assert.Equal(t, 100.0, r.Lower)
	assert.Equal(t, 0.0, r.Pct())
}

// TestComputeRange_BlendedExtremes tests the 0.7/0.3 blend of short- and
// long-window extremes with a long window that clamps to series length
func TestComputeRange_BlendedExtremes(t *testing.T) {
	// 20 bars at 100, then 10 bars at 120: with a short window of 10 the
	// short-window high and low are both 120, the full-series extremes
	// are 120 and 100.
	bars := flatBars(20, 100.0)
	for i := 0; i < 10; i++ {
		bars = append(bars, types.PriceBar{Date: rangeDay(20 + i), Close: 120.0})
	}

	r, err := ComputeRange(bars, 10, 800)
	require.NoError(t, err)

	assert.InDelta(t, 120.0, r.Upper, 1e-9)                 // 0.7*120 + 0.3*120
	assert.InDelta(t, 0.7*120.0+0.3*100.0, r.Lower, 1e-9)   // 0.7*120 + 0.3*100
}

// TestComputeRange_InsufficientHistory tests the short-window history check
func TestComputeRange_InsufficientHistory(t *testing.T) {
	bars := flatBars(50, 100.0)

	_, err := ComputeRange(bars, 200, 800)
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindInsufficientHistory))
}

// TestComputeRange_InvalidWindows tests window validation
func TestComputeRange_InvalidWindows(t *testing.T) {
	bars := flatBars(50, 100.0)

	tests := []struct {
		name        string
		shortWindow int
		longWindow  int
	}{
		{name: "zero short window", shortWindow: 0, longWindow: 800},
		{name: "long shorter than short", shortWindow: 200, longWindow: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeRange(bars, tt.shortWindow, tt.longWindow)
			require.Error(t, err)
			assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidParameter))
		})
	}
}

// TestSuggestLevelCount tests level-count derivation from range and spacing
func TestSuggestLevelCount(t *testing.T) {
	r := &Range{Upper: 120, Lower: 80}
	// Pct = 2*40/200 = 0.4

	levels, err := r.SuggestLevelCount(0.05)
	require.NoError(t, err)
	assert.Equal(t, 8, levels)

	// A spacing wider than the range still yields at least one level.
	levels, err = r.SuggestLevelCount(0.9)
	require.NoError(t, err)
	assert.Equal(t, 1, levels)

	_, err = r.SuggestLevelCount(0)
	require.Error(t, err)
	assert.True(t, engerrors.IsKind(err, engerrors.KindInvalidParameter))
}

func rangeDay(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func flatBars(count int, price float64) []types.PriceBar {
	bars := make([]types.PriceBar, count)
	for i := range bars {
		bars[i] = types.PriceBar{Date: rangeDay(i), Close: price}
	}
	return bars
}
