package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ducminhle1904/etf-grid-engine/internal/backtest"
	"github.com/ducminhle1904/etf-grid-engine/internal/config"
	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
)

// WeightSumTolerance is the accepted deviation of the weight sum from 1.0.
const WeightSumTolerance = 1e-6

// Options controls portfolio aggregation behavior.
type Options struct {
	// Alignment selects how holdings whose equity curves lack a date present
	// in others are handled: config.AlignStrict fails, config.AlignForwardFill
	// carries the last known equity value forward.
	Alignment string

	// AllowPartial keeps aggregating when a weighted holding has no report,
	// recording the gap per holding instead of aborting. Remaining weights
	// are renormalized.
	AllowPartial bool
}

// Attribution is the per-holding breakdown recorded alongside the combined
// curve.
type Attribution struct {
	Weight       float64 `json:"weight"`
	TotalReturn  float64 `json:"total_return"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Turnover     float64 `json:"turnover"`
	Contribution float64 `json:"contribution"`
	Trades       int     `json:"trades"`
}

// Trade is a holding's trade tagged with its symbol in the combined log.
type Trade struct {
	Symbol string `json:"symbol"`
	backtest.Trade
}

// Report is the weighted combination of per-ETF backtest reports.
type Report struct {
	Name        string                 `json:"name,omitempty"`
	StartDate   time.Time              `json:"start_date"`
	EndDate     time.Time              `json:"end_date"`
	TotalReturn float64                `json:"total_return"`
	MaxDrawdown float64                `json:"max_drawdown"`
	Turnover    float64                `json:"turnover"`
	SharpeRatio float64                `json:"sharpe_ratio"`
	Holdings    map[string]Attribution `json:"holdings"`
	Skipped     map[string]string      `json:"skipped,omitempty"`
	Trades      []Trade                `json:"trades"`
	EquityCurve []backtest.EquityPoint `json:"equity_curve"`
}

// Aggregate combines per-ETF backtest reports into a portfolio-level report.
// Portfolio equity at each date is the weight-blended sum of the holdings'
// equity at that date.
func Aggregate(reports map[string]*backtest.Report, weights map[string]float64, opts Options) (*Report, error) {
	if opts.Alignment == "" {
		opts.Alignment = config.AlignForwardFill
	}
	if opts.Alignment != config.AlignStrict && opts.Alignment != config.AlignForwardFill {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"portfolio", "aggregate", "unknown alignment policy %q", opts.Alignment)
	}

	if err := validateWeights(weights); err != nil {
		return nil, err
	}

	skipped := make(map[string]string)
	active := make(map[string]float64, len(weights))
	for symbol, weight := range weights {
		if _, ok := reports[symbol]; ok {
			active[symbol] = weight
			continue
		}
		if !opts.AllowPartial {
			return nil, engerrors.Newf(engerrors.KindHoldingMismatch,
				"portfolio", "aggregate", "no backtest report for holding %q", symbol)
		}
		skipped[symbol] = "no backtest report for holding"
	}
	for symbol := range reports {
		if _, ok := weights[symbol]; !ok {
			return nil, engerrors.Newf(engerrors.KindHoldingMismatch,
				"portfolio", "aggregate", "report for %q has no portfolio weight", symbol)
		}
	}
	if len(active) == 0 {
		return nil, engerrors.New(engerrors.KindHoldingMismatch,
			"portfolio", "aggregate", "no holdings left to aggregate")
	}
	if len(skipped) > 0 {
		renormalize(active)
	}

	symbols := make([]string, 0, len(active))
	for symbol := range active {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	dates := unionDates(reports, symbols)
	curve := make([]backtest.EquityPoint, 0, len(dates))
	cursors := make(map[string]int, len(symbols))

	for _, date := range dates {
		equity := 0.0
		fraction := 0.0
		for _, symbol := range symbols {
			value, holdingFraction, err := equityAt(reports[symbol], cursors, symbol, date, opts.Alignment)
			if err != nil {
				return nil, err
			}
			equity += active[symbol] * value
			fraction += active[symbol] * holdingFraction
		}
		curve = append(curve, backtest.EquityPoint{Date: date, Equity: equity, Fraction: fraction})
	}

	report := &Report{
		StartDate:   dates[0],
		EndDate:     dates[len(dates)-1],
		Holdings:    make(map[string]Attribution, len(symbols)),
		EquityCurve: curve,
	}
	if len(skipped) > 0 {
		report.Skipped = skipped
	}

	for _, symbol := range symbols {
		holding := reports[symbol]
		weight := active[symbol]
		report.Holdings[symbol] = Attribution{
			Weight:       weight,
			TotalReturn:  holding.TotalReturn,
			MaxDrawdown:  holding.MaxDrawdown,
			Turnover:     holding.Turnover,
			Contribution: weight * holding.TotalReturn,
			Trades:       holding.TotalTrades,
		}
		report.Turnover += weight * holding.Turnover
		for _, trade := range holding.Trades {
			report.Trades = append(report.Trades, Trade{Symbol: symbol, Trade: trade})
		}
	}
	sort.Slice(report.Trades, func(i, j int) bool {
		if report.Trades[i].Date.Equal(report.Trades[j].Date) {
			return report.Trades[i].Symbol < report.Trades[j].Symbol
		}
		return report.Trades[i].Date.Before(report.Trades[j].Date)
	})

	if first := curve[0].Equity; first > 0 {
		report.TotalReturn = curve[len(curve)-1].Equity/first - 1
	}
	report.MaxDrawdown = backtest.MaxDrawdownOf(curve)
	report.SharpeRatio = backtest.SharpeOf(curve)

	return report, nil
}

func validateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return engerrors.New(engerrors.KindInvalidWeights,
			"portfolio", "aggregate", "no holdings in portfolio")
	}
	sum := 0.0
	for symbol, weight := range weights {
		if weight <= 0 {
			return engerrors.Newf(engerrors.KindInvalidWeights,
				"portfolio", "aggregate", "weight for %q must be > 0, got %.6f", symbol, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return engerrors.Newf(engerrors.KindInvalidWeights,
			"portfolio", "aggregate", "weights must sum to 1.0 within %g, got %.8f",
			WeightSumTolerance, sum)
	}
	return nil
}

func renormalize(weights map[string]float64) {
	sum := 0.0
	for _, weight := range weights {
		sum += weight
	}
	for symbol := range weights {
		weights[symbol] /= sum
	}
}

// unionDates collects the sorted union of equity-curve dates across the
// selected holdings.
func unionDates(reports map[string]*backtest.Report, symbols []string) []time.Time {
	seen := make(map[time.Time]struct{})
	dates := make([]time.Time, 0)
	for _, symbol := range symbols {
		for _, point := range reports[symbol].EquityCurve {
			if _, ok := seen[point.Date]; !ok {
				seen[point.Date] = struct{}{}
				dates = append(dates, point.Date)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// equityAt resolves one holding's equity at a date, advancing that holding's
// cursor. Under forward-fill alignment a missing date reuses the last known
// value; under strict alignment it fails.
func equityAt(report *backtest.Report, cursors map[string]int, symbol string, date time.Time, alignment string) (float64, float64, error) {
	curve := report.EquityCurve
	i := cursors[symbol]
	for i < len(curve) && curve[i].Date.Before(date) {
		i++
	}
	cursors[symbol] = i

	if i < len(curve) && curve[i].Date.Equal(date) {
		cursors[symbol] = i + 1
		return curve[i].Equity, curve[i].Fraction, nil
	}

	if alignment == config.AlignStrict || i == 0 {
		return 0, 0, engerrors.Newf(engerrors.KindDateMisalignment,
			"portfolio", "aggregate",
			"holding %q has no equity value for %s", symbol, date.Format("2006-01-02")).
			WithContext("policy", alignment)
	}

	// Forward fill from the last point at or before the date.
	prev := curve[i-1]
	return prev.Equity, prev.Fraction, nil
}

// String implements fmt.Stringer for log-friendly summaries.
func (r *Report) String() string {
	return fmt.Sprintf("portfolio[%d holdings] return=%.2f%% maxDD=%.2f%% turnover=%.2fx",
		len(r.Holdings), r.TotalReturn*100, r.MaxDrawdown*100, r.Turnover)
}
