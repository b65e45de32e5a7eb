package portfolio

import (
	"math"
	"math/rand"
	"sort"

	"github.com/ducminhle1904/etf-grid-engine/internal/backtest"
	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
	"github.com/ducminhle1904/etf-grid-engine/internal/volatility"
)

// Evolutionary search hyper-parameters. Defaults match the sizes that have
// worked well for small ETF baskets.
type OptimizerConfig struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	Seed           int64   `json:"seed"`
}

// DefaultOptimizerConfig returns the standard search parameters.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		PopulationSize: 40,
		Generations:    60,
		MutationRate:   0.1,
		Seed:           42,
	}
}

// OptimizedWeights is the best weight vector found and its fitness.
type OptimizedWeights struct {
	Weights map[string]float64 `json:"weights"`
	Sharpe  float64            `json:"sharpe"`
}

// OptimizeWeights searches for the portfolio weights maximizing the
// annualized Sharpe ratio of the blended daily return series using a simple
// evolutionary algorithm: keep the fitter half, breed the rest via uniform
// crossover, mutate occasionally, renormalize. The search is deterministic
// for a fixed seed.
func OptimizeWeights(returnsBySymbol map[string][]float64, cfg OptimizerConfig) (*OptimizedWeights, error) {
	if cfg.PopulationSize < 2 || cfg.Generations < 1 {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"portfolio", "optimize", "population=%d generations=%d out of range",
			cfg.PopulationSize, cfg.Generations)
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, engerrors.Newf(engerrors.KindInvalidParameter,
			"portfolio", "optimize", "mutation_rate must be in [0,1], got %.3f", cfg.MutationRate)
	}
	if len(returnsBySymbol) == 0 {
		return nil, engerrors.New(engerrors.KindEmptyPriceSeries,
			"portfolio", "optimize", "no return series provided")
	}

	symbols := make([]string, 0, len(returnsBySymbol))
	for symbol := range returnsBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	length := len(returnsBySymbol[symbols[0]])
	if length < 2 {
		return nil, engerrors.Newf(engerrors.KindInsufficientHistory,
			"portfolio", "optimize", "need at least 2 return observations, got %d", length)
	}
	returns := make([][]float64, len(symbols))
	for i, symbol := range symbols {
		if len(returnsBySymbol[symbol]) != length {
			return nil, engerrors.Newf(engerrors.KindDateMisalignment,
				"portfolio", "optimize",
				"return series for %q has %d observations, expected %d",
				symbol, len(returnsBySymbol[symbol]), length)
		}
		returns[i] = returnsBySymbol[symbol]
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	nAssets := len(symbols)

	randomWeights := func() []float64 {
		weights := make([]float64, nAssets)
		for i := range weights {
			weights[i] = rng.Float64()
		}
		normalizeVec(weights)
		return weights
	}

	population := make([][]float64, cfg.PopulationSize)
	for i := range population {
		population[i] = randomWeights()
	}

	for gen := 0; gen < cfg.Generations; gen++ {
		sortByFitness(population, returns)

		// Keep the fitter half as parents, breed the rest.
		parents := population[:cfg.PopulationSize/2]
		offspring := make([][]float64, 0, cfg.PopulationSize-len(parents))
		for len(offspring) < cfg.PopulationSize-len(parents) {
			p1 := parents[rng.Intn(len(parents))]
			p2 := parents[rng.Intn(len(parents))]
			child := make([]float64, nAssets)
			for i := range child {
				if rng.Float64() < 0.5 {
					child[i] = p1[i]
				} else {
					child[i] = p2[i]
				}
			}
			if rng.Float64() < cfg.MutationRate {
				child[rng.Intn(nAssets)] = rng.Float64()
			}
			normalizeVec(child)
			offspring = append(offspring, child)
		}
		population = append(parents, offspring...)
	}

	sortByFitness(population, returns)
	best := population[0]

	result := &OptimizedWeights{
		Weights: make(map[string]float64, nAssets),
		Sharpe:  blendedSharpe(best, returns),
	}
	for i, symbol := range symbols {
		result.Weights[symbol] = best[i]
	}
	return result, nil
}

// ReturnsFromReports extracts aligned daily return series from per-ETF
// backtest equity curves. All curves must share the same dates.
func ReturnsFromReports(reports map[string]*backtest.Report) (map[string][]float64, error) {
	var (
		refSymbol string
		reference []backtest.EquityPoint
	)
	for symbol, report := range reports {
		if reference == nil || symbol < refSymbol {
			refSymbol = symbol
			reference = report.EquityCurve
		}
	}

	returns := make(map[string][]float64, len(reports))
	for symbol, report := range reports {
		curve := report.EquityCurve
		if len(curve) != len(reference) {
			return nil, engerrors.Newf(engerrors.KindDateMisalignment,
				"portfolio", "returns",
				"equity curve for %q has %d points, expected %d",
				symbol, len(curve), len(reference))
		}
		series := make([]float64, 0, len(curve)-1)
		for i := 1; i < len(curve); i++ {
			if !curve[i].Date.Equal(reference[i].Date) {
				return nil, engerrors.Newf(engerrors.KindDateMisalignment,
					"portfolio", "returns",
					"equity curve for %q diverges from %q at index %d",
					symbol, refSymbol, i)
			}
			if curve[i-1].Equity > 0 {
				series = append(series, curve[i].Equity/curve[i-1].Equity-1)
			} else {
				series = append(series, 0)
			}
		}
		returns[symbol] = series
	}
	return returns, nil
}

// sortByFitness orders the population best-first by blended Sharpe,
// evaluating each individual once.
func sortByFitness(population [][]float64, returns [][]float64) {
	scores := make([]float64, len(population))
	order := make([]int, len(population))
	for i, individual := range population {
		scores[i] = blendedSharpe(individual, returns)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	sorted := make([][]float64, len(population))
	for i, idx := range order {
		sorted[i] = population[idx]
	}
	copy(population, sorted)
}

// blendedSharpe is the annualized Sharpe ratio of the weighted return
// series, with zero standard deviation mapping to 0.
func blendedSharpe(weights []float64, returns [][]float64) float64 {
	length := len(returns[0])
	mean := 0.0
	blended := make([]float64, length)
	for t := 0; t < length; t++ {
		v := 0.0
		for i, series := range returns {
			v += weights[i] * series[t]
		}
		blended[t] = v
		mean += v
	}
	mean /= float64(length)

	variance := 0.0
	for _, v := range blended {
		d := v - mean
		variance += d * d
	}
	variance /= float64(length - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(volatility.TradingDaysPerYear)
}

func normalizeVec(weights []float64) {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		for i := range weights {
			weights[i] = 1 / float64(len(weights))
		}
		return
	}
	for i := range weights {
		weights[i] /= sum
	}
}
