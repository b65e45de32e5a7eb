package backtest

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/pkg/types"
)

// SweepResult pairs one candidate level count with its backtest report.
type SweepResult struct {
	LevelCount int     `json:"level_count"`
	Report     *Report `json:"report"`
}

// SweepLevelCounts backtests the same series under each candidate grid
// level count and returns the best result by final equity, along with every
// candidate's result ordered as given. Candidates run in parallel; any
// failing candidate fails the sweep.
func (r *Runner) SweepLevelCounts(ctx context.Context, bars []types.PriceBar, levelCounts []int) (*SweepResult, []SweepResult, error) {
	if len(levelCounts) == 0 {
		return nil, nil, engerrors.New(engerrors.KindInvalidParameter,
			"runner", "sweep", "no candidate level counts provided")
	}

	results := make([]SweepResult, len(levelCounts))
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)

	for i, levelCount := range levelCounts {
		i, levelCount := i, levelCount
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cfg := r.cfg
			cfg.LevelCount = levelCount
			engine, err := NewEngine(cfg)
			if err != nil {
				return err
			}
			report, err := engine.Run(bars)
			if err != nil {
				return engerrors.Wrap(err, engerrors.KindOf(err), "runner", "sweep").
					WithContext("level_count", levelCount)
			}

			mu.Lock()
			results[i] = SweepResult{LevelCount: levelCount, Report: report}
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	best := &results[0]
	for i := 1; i < len(results); i++ {
		if results[i].Report.FinalEquity > best.Report.FinalEquity {
			best = &results[i]
		}
	}

	r.logger.Info("level-count sweep complete",
		zap.Int("candidates", len(levelCounts)),
		zap.Int("best_level_count", best.LevelCount),
		zap.Float64("best_final_equity", best.Report.FinalEquity))

	return best, results, nil
}
