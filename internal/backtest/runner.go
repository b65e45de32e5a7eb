package backtest

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ducminhle1904/etf-grid-engine/internal/config"
	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/internal/monitoring"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

// Runner executes independent backtests in parallel. Each run operates on
// its own immutable inputs, so the only shared state is the result map.
type Runner struct {
	cfg     config.EngineConfig
	workers int
	logger  *zap.Logger
}

// NewRunner creates a runner. workers <= 0 means one worker per CPU.
func NewRunner(cfg config.EngineConfig, workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, workers: workers, logger: logger}
}

// RunAll backtests every symbol's series concurrently and returns the
// per-symbol reports. Failures do not abort sibling runs; they are combined
// into the returned error so callers opting into partial results can keep
// the reports that succeeded.
func (r *Runner) RunAll(ctx context.Context, seriesBySymbol map[string][]types.PriceBar) (map[string]*Report, error) {
	engine, err := NewEngine(r.cfg)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(seriesBySymbol))
	for symbol := range seriesBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var (
		mu      sync.Mutex
		reports = make(map[string]*Report, len(symbols))
		runErrs error
	)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)

	for _, symbol := range symbols {
		symbol := symbol
		bars := seriesBySymbol[symbol]
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			report, err := engine.Run(bars)
			monitoring.ObserveBacktest(symbol, time.Since(start), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("backtest failed",
					zap.String("symbol", symbol), zap.Error(err))
				runErrs = multierr.Append(runErrs,
					engerrors.Wrap(err, engerrors.KindOf(err), "runner", "run_all").
						WithContext("symbol", symbol))
				return nil
			}

			report.Symbol = symbol
			reports[symbol] = report
			for _, trade := range report.Trades {
				monitoring.RecordSimulatedTrade(symbol, string(trade.Direction))
			}
			r.logger.Info("backtest complete",
				zap.String("symbol", symbol),
				zap.Int("bars", len(bars)),
				zap.Int("trades", report.TotalTrades),
				zap.Float64("total_return", report.TotalReturn),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return reports, err
	}
	return reports, runErrs
}
