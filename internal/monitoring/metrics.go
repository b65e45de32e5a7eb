package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	engerrors "github.com/ducminhle1904/etf-grid-engine/internal/errors"
)

var (
	// Backtest metrics
	backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_engine_backtests_total",
			Help: "Total number of backtest runs",
		},
		[]string{"symbol", "outcome"},
	)

	backtestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grid_engine_backtest_duration_seconds",
			Help:    "Distribution of backtest run durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	// Simulated trade metrics
	simulatedTradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_engine_simulated_trades_total",
			Help: "Total number of simulated trades across backtests",
		},
		[]string{"symbol", "side"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_engine_errors_total",
			Help: "Total number of engine errors by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(backtestsTotal)
	prometheus.MustRegister(backtestDuration)
	prometheus.MustRegister(simulatedTradesTotal)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler exposes the Prometheus metrics endpoint for the
// surrounding application to mount.
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ObserveBacktest records the outcome and duration of one backtest run.
func ObserveBacktest(symbol string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		RecordError(err)
	}
	backtestsTotal.WithLabelValues(symbol, outcome).Inc()
	backtestDuration.WithLabelValues(symbol).Observe(elapsed.Seconds())
}

// RecordSimulatedTrade records one simulated trade.
func RecordSimulatedTrade(symbol, side string) {
	simulatedTradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordError records an engine error by kind.
func RecordError(err error) {
	kind := engerrors.KindOf(err)
	if kind == "" {
		kind = "UNKNOWN"
	}
	errorsTotal.WithLabelValues(string(kind)).Inc()
}
