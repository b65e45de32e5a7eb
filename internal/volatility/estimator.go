package volatility

import (
	"math"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

const (
	// DefaultWindow is the trailing return window used when none is configured
	DefaultWindow = 200

	// TradingDaysPerYear is used to annualize daily return volatility
	TradingDaysPerYear = 252
)

// Estimate computes the rolling annualized volatility series for a price
// series. For each bar index i >= window it takes the sample standard
// deviation of the trailing `window` day-over-day percentage returns and
// scales it by sqrt(252). Bars inside the warm-up period produce no point,
// so the result holds len(bars)-window points (or none when the series is
// too short). Callers that require a value must handle the gap explicitly.
func Estimate(bars []types.PriceBar, window int) ([]types.VolatilityPoint, error) {
	if window < 2 {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"volatility", "estimate", "window must be >= 2, got %d", window)
	}

	if len(bars) < window+1 {
		return []types.VolatilityPoint{}, nil
	}

	// Day-over-day percentage returns; returns[i] belongs to bars[i+1].
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = bars[i].Close/bars[i-1].Close - 1
	}

	points := make([]types.VolatilityPoint, 0, len(bars)-window)
	for i := window; i < len(bars); i++ {
		trailing := returns[i-window : i]
		points = append(points, types.VolatilityPoint{
			Date:          bars[i].Date,
			AnnualizedVol: sampleStdDev(trailing) * math.Sqrt(TradingDaysPerYear),
		})
	}

	return points, nil
}

// Latest returns the most recent annualized volatility estimate for the
// series, or InsufficientHistory when the series is shorter than window+1
// bars.
func Latest(bars []types.PriceBar, window int) (float64, error) {
	points, err := Estimate(bars, window)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, engerrors.Newf(engerrors.KindInsufficientHistory,
			"volatility", "latest",
			"need at least %d bars for a %d-day volatility estimate, got %d",
			window+1, window, len(bars))
	}
	return points[len(points)-1].AnnualizedVol, nil
}

// sampleStdDev computes the sample standard deviation (n-1 denominator).
// A window of identical returns yields exactly 0.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n - 1)

	return math.Sqrt(variance)
}
