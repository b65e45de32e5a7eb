package backtest

import (
	"math"

	"github.com/ducminhle1904/etf-grid-engine/internal/volatility"
)

// finalize computes the derived performance statistics once the equity curve
// and trade log are complete.
func (r *Report) finalize() {
	if r.InitialCapital > 0 {
		r.TotalReturn = r.FinalEquity/r.InitialCapital - 1
	}

	r.MaxDrawdown = r.calculateMaxDrawdown()
	r.Turnover = r.calculateTurnover()
	r.SharpeRatio = r.calculateSharpeRatio()
	r.AnnualizedRet = r.calculateAnnualizedReturn()
	r.calculateExposure()

	r.TotalTrades = len(r.Trades)
	r.BuyTrades = 0
	r.SellTrades = 0
	for _, trade := range r.Trades {
		if trade.Direction == DirectionBuy {
			r.BuyTrades++
		} else {
			r.SellTrades++
		}
	}
}

// calculateMaxDrawdown returns the maximum peak-to-trough decline over the
// equity curve as a fraction of the peak.
func (r *Report) calculateMaxDrawdown() float64 {
	return MaxDrawdownOf(r.EquityCurve)
}

// MaxDrawdownOf computes the maximum peak-to-trough decline of an equity
// curve as a fraction of the peak.
func MaxDrawdownOf(curve []EquityPoint) float64 {
	maxDrawdown := 0.0
	peak := 0.0
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			drawdown := (peak - point.Equity) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown
}

// calculateTurnover returns the sum of absolute trade notionals divided by
// the average equity over the run.
func (r *Report) calculateTurnover() float64 {
	if len(r.EquityCurve) == 0 {
		return 0
	}

	totalVolume := 0.0
	for _, trade := range r.Trades {
		totalVolume += trade.Size
	}

	totalEquity := 0.0
	for _, point := range r.EquityCurve {
		totalEquity += point.Equity
	}
	avgEquity := totalEquity / float64(len(r.EquityCurve))
	if avgEquity == 0 {
		return 0
	}

	return totalVolume / avgEquity
}

// calculateSharpeRatio computes the annualized Sharpe ratio of the daily
// equity returns, assuming a zero risk-free rate.
func (r *Report) calculateSharpeRatio() float64 {
	return SharpeOf(r.EquityCurve)
}

// SharpeOf computes the annualized Sharpe ratio of an equity curve's daily
// returns with a zero risk-free rate.
func SharpeOf(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity > 0 {
			returns = append(returns, curve[i].Equity/curve[i-1].Equity-1)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, ret := range returns {
		mean += ret
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, ret := range returns {
		d := ret - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-12 {
		return 0
	}
	return mean / stdDev * math.Sqrt(volatility.TradingDaysPerYear)
}

// calculateAnnualizedReturn converts the total return into a compound annual
// rate over the backtest's calendar span.
func (r *Report) calculateAnnualizedReturn() float64 {
	if len(r.EquityCurve) < 2 || r.InitialCapital <= 0 {
		return 0
	}

	duration := r.EndDate.Sub(r.StartDate)
	years := duration.Hours() / (24 * 365.25)
	if years <= 0 {
		return 0
	}
	if r.FinalEquity <= 0 {
		return -1
	}
	return math.Pow(r.FinalEquity/r.InitialCapital, 1/years) - 1
}

// calculateExposure records the maximum and average invested fraction.
func (r *Report) calculateExposure() {
	if len(r.EquityCurve) == 0 {
		return
	}

	maxExposure := 0.0
	totalExposure := 0.0
	for _, point := range r.EquityCurve {
		if point.Fraction > maxExposure {
			maxExposure = point.Fraction
		}
		totalExposure += point.Fraction
	}

	r.MaxExposure = maxExposure
	r.AvgExposure = totalExposure / float64(len(r.EquityCurve))
}
