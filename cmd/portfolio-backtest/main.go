package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ducminhle1904/etf-grid-engine/internal/backtest"
	"github.com/ducminhle1904/etf-grid-engine/internal/config"
	enginelog "github.com/ducminhle1904/etf-grid-engine/internal/log"
	"github.com/ducminhle1904/etf-grid-engine/internal/monitoring"
	"github.com/ducminhle1904/etf-grid-engine/internal/portfolio"
	"github.com/ducminhle1904/etf-grid-engine/pkg/data"
	"github.com/ducminhle1904/etf-grid-engine/pkg/reporting"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

func main() {
	_ = godotenv.Load()

	flags := ParseFlags()
	if err := flags.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid arguments: %v\n", err)
		os.Exit(2)
	}

	logger, err := enginelog.NewLogger(*flags.LogLevel, *flags.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(flags, logger); err != nil {
		logger.Error("portfolio backtest failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(flags *Flags, logger *zap.Logger) error {
	if *flags.MetricsPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", *flags.MetricsPort)
			logger.Info("metrics endpoint listening", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, monitoring.NewMetricsHandler()); err != nil {
				logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	spec, err := loadPortfolio(*flags.PortfolioFile)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if *flags.ConfigFile != "" {
		cfg, err = config.LoadFile(*flags.ConfigFile)
		if err != nil {
			return err
		}
	}
	if *flags.Strict {
		cfg.DateAlignment = config.AlignStrict
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	provider := data.NewCSVProvider()
	series := make(map[string][]types.PriceBar, len(spec.Holdings))
	for symbol := range spec.Holdings {
		path := filepath.Join(*flags.DataDir, symbol+".csv")
		bars, err := provider.LoadSeries(path)
		if err != nil {
			if *flags.Partial {
				logger.Warn("skipping holding, price data unavailable",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			return err
		}
		series[symbol] = bars
	}

	runner := backtest.NewRunner(cfg, *flags.Workers, logger)
	reports, runErr := runner.RunAll(context.Background(), series)
	if runErr != nil && !*flags.Partial {
		return runErr
	}

	weights := spec.Holdings
	if *flags.Optimize {
		weights, err = optimizeWeights(reports, logger)
		if err != nil {
			return err
		}
	}

	report, err := portfolio.Aggregate(reports, weights, portfolio.Options{
		Alignment:    cfg.DateAlignment,
		AllowPartial: *flags.Partial,
	})
	if err != nil {
		return err
	}
	report.Name = spec.Name

	reporting.NewConsoleReporter().PrintPortfolioReport(report)

	base := spec.Name
	if base == "" {
		base = "portfolio"
	}
	path := filepath.Join(*flags.OutputDir, base+".json")
	if err := reporting.WriteJSON(report, path); err != nil {
		return err
	}
	logger.Info("portfolio report written", zap.String("path", path))

	return nil
}

// optimizeWeights replaces the portfolio's authored weights with the
// Sharpe-optimal vector found over the holdings' backtest return series.
func optimizeWeights(reports map[string]*backtest.Report, logger *zap.Logger) (map[string]float64, error) {
	returns, err := portfolio.ReturnsFromReports(reports)
	if err != nil {
		return nil, err
	}
	optimized, err := portfolio.OptimizeWeights(returns, portfolio.DefaultOptimizerConfig())
	if err != nil {
		return nil, err
	}
	logger.Info("weights optimized", zap.Float64("sharpe", optimized.Sharpe))
	for symbol, weight := range optimized.Weights {
		logger.Info("optimized weight",
			zap.String("symbol", symbol), zap.Float64("weight", weight))
	}
	return optimized.Weights, nil
}

// loadPortfolio reads the portfolio definition, rejecting unknown fields.
func loadPortfolio(path string) (*types.Portfolio, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file %s: %w", path, err)
	}

	var spec types.Portfolio
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file %s: %w", path, err)
	}
	if len(spec.Holdings) == 0 {
		return nil, fmt.Errorf("portfolio %s has no holdings", path)
	}
	return &spec, nil
}
