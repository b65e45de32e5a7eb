package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ducminhle1904/etf-grid-engine/internal/backtest"
	"github.com/ducminhle1904/etf-grid-engine/internal/config"
	"github.com/ducminhle1904/etf-grid-engine/internal/grid"
	enginelog "github.com/ducminhle1904/etf-grid-engine/internal/log"
	"github.com/ducminhle1904/etf-grid-engine/internal/volatility"
	"github.com/ducminhle1904/etf-grid-engine/pkg/data"
	"github.com/ducminhle1904/etf-grid-engine/pkg/reporting"
)

func main() {
	// Optional .env for defaults like GRID_OUTPUT_DIR
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
		logger.Error("backtest failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(flags *Flags, logger *zap.Logger) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	provider := data.NewCSVProvider()
	bars, err := provider.LoadSeries(*flags.DataFile)
	if err != nil {
		return err
	}
	logger.Info("price series loaded",
		zap.String("file", *flags.DataFile),
		zap.Int("bars", len(bars)))

	// Derive the level count from the recent price range when requested.
	if cfg.LevelCount == 0 {
		latestVol, err := volatility.Latest(bars, cfg.Window)
		if err != nil {
			return err
		}
		priceRange, err := grid.ComputeRange(bars, grid.DefaultShortWindow, grid.DefaultLongWindow)
		if err != nil {
			return err
		}
		levels, err := priceRange.SuggestLevelCount(latestVol * cfg.AdjustmentFactor)
		if err != nil {
			return err
		}
		cfg.LevelCount = levels
		logger.Info("derived grid level count",
			zap.Float64("range_upper", priceRange.Upper),
			zap.Float64("range_lower", priceRange.Lower),
			zap.Int("level_count", levels))
	}

	var report *backtest.Report
	if *flags.Sweep != "" {
		candidates, err := parseSweep(*flags.Sweep)
		if err != nil {
			return err
		}
		runner := backtest.NewRunner(cfg, *flags.Workers, logger)
		best, results, err := runner.SweepLevelCounts(context.Background(), bars, candidates)
		if err != nil {
			return err
		}
		for _, result := range results {
			logger.Info("sweep candidate",
				zap.Int("level_count", result.LevelCount),
				zap.Float64("final_equity", result.Report.FinalEquity),
				zap.Float64("sharpe", result.Report.SharpeRatio))
		}
		report = best.Report
	} else {
		engine, err := backtest.NewEngine(cfg)
		if err != nil {
			return err
		}
		report, err = engine.Run(bars)
		if err != nil {
			return err
		}
	}
	report.Symbol = *flags.Symbol

	reporting.NewConsoleReporter().PrintBacktestReport(report)

	outputDir := *flags.OutputDir
	if env := os.Getenv("GRID_OUTPUT_DIR"); env != "" && outputDir == "results" {
		outputDir = env
	}

	base := *flags.Symbol
	if base == "" {
		base = "backtest"
	}
	if *flags.JSONOut {
		path := filepath.Join(outputDir, base+".json")
		if err := reporting.WriteJSON(report, path); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", path))
	}
	if *flags.Report {
		path := filepath.Join(outputDir, base+".xlsx")
		if err := reporting.NewExcelReporter().WriteReportXLSX(report, path); err != nil {
			return err
		}
		logger.Info("workbook written", zap.String("path", path))
	}

	return nil
}

// parseSweep parses a comma-separated list of candidate level counts.
func parseSweep(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	candidates := make([]int, 0, len(parts))
	for _, part := range parts {
		levels, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid sweep level count %q: %w", part, err)
		}
		candidates = append(candidates, levels)
	}
	return candidates, nil
}

// loadConfig merges defaults, the optional config file, and flag overrides,
// then validates the result once.
func loadConfig(flags *Flags) (config.EngineConfig, error) {
	cfg := config.Default()
	if *flags.ConfigFile != "" {
		loaded, err := config.LoadFile(*flags.ConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if *flags.Window > 0 {
		cfg.Window = *flags.Window
	}
	if *flags.Factor > 0 {
		cfg.AdjustmentFactor = *flags.Factor
	}
	if *flags.Levels >= 0 {
		cfg.LevelCount = *flags.Levels
	}
	if *flags.Rebalance {
		cfg.RebalanceGrid = true
	}
	if *flags.Neutral >= 0 {
		cfg.NeutralFraction = *flags.Neutral
	}

	// LevelCount 0 means "derive from range" and is resolved before the
	// engine is built; validate everything else here.
	check := cfg
	if check.LevelCount == 0 {
		check.LevelCount = 1
	}
	if err := check.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
