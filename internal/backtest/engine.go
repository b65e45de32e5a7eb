package backtest

import (
	"time"

	"github.com/ducminhle1904/etf-grid-engine/internal/config"
	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/internal/grid"
	"github.com/ducminhle1904/etf-grid-engine/internal/volatility"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

// Direction is the side of a simulated trade.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Trade is one append-only entry in the backtest trade log. Size is the
// traded notional at the execution price.
type Trade struct {
	Date      time.Time `json:"date"`
	Direction Direction `json:"direction"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Shares    float64   `json:"shares"`
	Level     int       `json:"level"`
}

// EquityPoint is one point on the mark-to-market equity curve.
type EquityPoint struct {
	Date     time.Time `json:"date"`
	Equity   float64   `json:"equity"`
	Fraction float64   `json:"fraction"`
}

// Report is the immutable result of one backtest run. The equity curve has
// exactly one point per input bar.
type Report struct {
	Symbol         string        `json:"symbol,omitempty"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	InitialCapital float64       `json:"initial_capital"`
	FinalEquity    float64       `json:"final_equity"`
	TotalReturn    float64       `json:"total_return"`
	MaxDrawdown    float64       `json:"max_drawdown"`
	Turnover       float64       `json:"turnover"`
	SharpeRatio    float64       `json:"sharpe_ratio"`
	AnnualizedRet  float64       `json:"annualized_return"`
	MaxExposure    float64       `json:"max_exposure"`
	AvgExposure    float64       `json:"avg_exposure"`
	TotalTrades    int           `json:"total_trades"`
	BuyTrades      int           `json:"buy_trades"`
	SellTrades     int           `json:"sell_trades"`
	Grid           *grid.Config  `json:"grid"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
}

// Engine replays a price series through a volatility-derived grid and a
// position-sizing rule. It owns no state across runs; every Run constructs
// its simulation state fresh from the inputs, so identical inputs produce
// bit-identical reports.
type Engine struct {
	cfg   config.EngineConfig
	sizer *grid.Sizer
}

// NewEngine validates the configuration and builds an engine.
func NewEngine(cfg config.EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sizer, err := grid.NewSizer(cfg.NeutralFraction)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, sizer: sizer}, nil
}

// state is the per-bar simulation state. The transition function is pure:
// state in, bar in -> state out, optional trade out.
type state struct {
	cash   float64
	shares float64
	level  int
}

// Run replays the series day by day and produces a finalized report.
func (e *Engine) Run(bars []types.PriceBar) (*Report, error) {
	if len(bars) == 0 {
		return nil, engerrors.New(engerrors.KindEmptyPriceSeries,
			"backtest", "run", "price series has no bars")
	}

	volPoints, err := volatility.Estimate(bars, e.cfg.Window)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Symbol:         "",
		StartDate:      bars[0].Date,
		EndDate:        bars[len(bars)-1].Date,
		InitialCapital: e.cfg.InitialCapital,
		Trades:         make([]Trade, 0),
		EquityCurve:    make([]EquityPoint, 0, len(bars)),
	}

	var (
		gridCfg  *grid.Config
		startBar int
	)

	if e.cfg.RebalanceGrid {
		// Grid spacing follows rolling volatility; trading starts at the
		// first bar with a defined estimate.
		if len(volPoints) == 0 {
			return nil, engerrors.Newf(engerrors.KindInsufficientHistory,
				"backtest", "run",
				"rebalance_grid requires %d bars of history, got %d",
				e.cfg.Window+1, len(bars))
		}
		startBar = e.cfg.Window
		gridCfg, err = grid.Compute(volPoints[0].AnnualizedVol,
			e.cfg.AdjustmentFactor, e.cfg.LevelCount, bars[startBar].Close)
		if err != nil {
			return nil, err
		}
	} else {
		// One fixed grid for the whole window, derived from the latest
		// volatility estimate of the series.
		latestVol, volErr := volatility.Latest(bars, e.cfg.Window)
		if volErr != nil {
			return nil, volErr
		}
		gridCfg, err = grid.Compute(latestVol,
			e.cfg.AdjustmentFactor, e.cfg.LevelCount, bars[0].Close)
		if err != nil {
			return nil, err
		}
	}
	report.Grid = gridCfg

	// Warm-up bars hold the initial capital in cash.
	for i := 0; i < startBar; i++ {
		report.EquityCurve = append(report.EquityCurve, EquityPoint{
			Date:   bars[i].Date,
			Equity: e.cfg.InitialCapital,
		})
	}

	// Initial state: the neutral-fraction position established at the entry
	// bar. The entry bar is the grid's base price, so its level is 0 and the
	// target fraction equals the configured neutral fraction.
	entryPrice := bars[startBar].Close
	entryFraction := e.sizer.RecommendedFraction(entryPrice, gridCfg)
	st := state{
		cash:   e.cfg.InitialCapital * (1 - entryFraction),
		shares: e.cfg.InitialCapital * entryFraction / entryPrice,
		level:  gridCfg.LevelIndex(entryPrice),
	}
	report.EquityCurve = append(report.EquityCurve, equityPoint(bars[startBar], st))

	for i := startBar + 1; i < len(bars); i++ {
		if e.cfg.RebalanceGrid {
			gridCfg, err = grid.Compute(volPoints[i-e.cfg.Window].AnnualizedVol,
				e.cfg.AdjustmentFactor, e.cfg.LevelCount, gridCfg.BasePrice)
			if err != nil {
				return nil, err
			}
		}

		next, trade := e.step(st, bars[i], gridCfg)
		if trade != nil {
			report.Trades = append(report.Trades, *trade)
		}
		st = next
		report.EquityCurve = append(report.EquityCurve, equityPoint(bars[i], st))
	}

	report.FinalEquity = report.EquityCurve[len(report.EquityCurve)-1].Equity
	report.finalize()
	return report, nil
}

// step advances the simulation by one bar. When the bar's close moves the
// price into a different grid level bucket (or, with a configured minimum
// delta, moves the target fraction far enough), the position is rebalanced
// to the sizer's target and a trade is emitted.
func (e *Engine) step(st state, bar types.PriceBar, gridCfg *grid.Config) (state, *Trade) {
	price := bar.Close
	equity := st.cash + st.shares*price
	if equity <= 0 {
		return state{cash: st.cash, shares: st.shares, level: gridCfg.LevelIndex(price)}, nil
	}

	level := gridCfg.LevelIndex(price)
	target := e.sizer.FractionAtLevel(level, gridCfg.LevelCount)
	current := st.shares * price / equity
	delta := target - current

	triggered := false
	if e.cfg.MinFractionDelta > 0 {
		triggered = delta > e.cfg.MinFractionDelta || delta < -e.cfg.MinFractionDelta
	} else {
		triggered = level != st.level && delta != 0
	}

	next := state{cash: st.cash, shares: st.shares, level: level}
	if !triggered {
		return next, nil
	}

	notional := delta * equity
	if notional < 0 {
		notional = -notional
	}
	sharesDelta := notional / price
	fee := notional * e.cfg.Commission

	trade := &Trade{
		Date:   bar.Date,
		Price:  price,
		Size:   notional,
		Shares: sharesDelta,
		Level:  level,
	}
	if delta > 0 {
		trade.Direction = DirectionBuy
		next.shares += sharesDelta
		next.cash -= notional + fee
	} else {
		trade.Direction = DirectionSell
		next.shares -= sharesDelta
		next.cash += notional - fee
	}

	return next, trade
}

func equityPoint(bar types.PriceBar, st state) EquityPoint {
	equity := st.cash + st.shares*bar.Close
	point := EquityPoint{Date: bar.Date, Equity: equity}
	if equity > 0 {
		point.Fraction = st.shares * bar.Close / equity
	}
	return point
}
