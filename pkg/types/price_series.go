package types

import "time"

// PriceBar is one daily closing price for an ETF.
type PriceBar struct {
	Date  time.Time
	Close float64
}

// VolatilityPoint is the annualized volatility estimate at one date.
// Points exist only once enough trailing history has accumulated.
type VolatilityPoint struct {
	Date          time.Time
	AnnualizedVol float64
}

// Portfolio describes a weighted set of ETF holdings. Weights must be
// positive and sum to 1.0; the aggregator enforces this.
type Portfolio struct {
	Name     string             `json:"name"`
	Holdings map[string]float64 `json:"holdings"`
}
