// Package metrics provides the centralized Prometheus metrics registry
// for the informer backtesting service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "informer",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by mode and status",
	}, []string{"mode", "status"})
	TradesSimulatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "informer",
		Name:      "trades_simulated_total",
		Help:      "Total number of simulated trades by exit reason",
	}, []string{"exit_reason"})
	NoTradeDaysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "informer",
		Name:      "no_trade_days_total",
		Help:      "Total number of rejected trading days by reason",
	}, []string{"reason"})
	SweepRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "informer",
		Name:      "sweep_runs_total",
		Help:      "Total number of parameter sweep executions",
	})
	WalkForwardFoldsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "informer",
		Name:      "walk_forward_folds_total",
		Help:      "Total number of walk-forward folds evaluated",
	})
)

// Gauge metrics
var (
	LastRunTotalPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "informer",
		Name:      "last_run_total_pnl",
		Help:      "Total PnL of the most recent backtest run",
	})
	LastRunMaxDrawdown = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "informer",
		Name:      "last_run_max_drawdown",
		Help:      "Maximum drawdown of the most recent backtest run",
	})
	LastRunTrades = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "informer",
		Name:      "last_run_trades",
		Help:      "Trade count of the most recent backtest run",
	})
)

// Histogram metrics
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "informer",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "informer",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of parameter sweeps in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(TradesSimulatedTotal)
		registry.MustRegister(NoTradeDaysTotal)
		registry.MustRegister(SweepRunsTotal)
		registry.MustRegister(WalkForwardFoldsTotal)

		registry.MustRegister(LastRunTotalPnL)
		registry.MustRegister(LastRunMaxDrawdown)
		registry.MustRegister(LastRunTrades)

		registry.MustRegister(BacktestDuration)
		registry.MustRegister(SweepDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBacktestRun records a run event. mode is one of "single",
// "sweep", "walk_forward"; status is "success" or "failure".
func RecordBacktestRun(mode, status string) {
	BacktestRunsTotal.WithLabelValues(mode, status).Inc()
}

// RecordTrade records a simulated trade by exit reason.
func RecordTrade(exitReason string) {
	TradesSimulatedTotal.WithLabelValues(exitReason).Inc()
}

// RecordNoTradeDay records a rejected trading day by reason.
func RecordNoTradeDay(reason string) {
	NoTradeDaysTotal.WithLabelValues(reason).Inc()
}

// RecordBacktestDuration records run duration.
func RecordBacktestDuration(durationSeconds float64) {
	BacktestDuration.Observe(durationSeconds)
}

// RecordSweep records a sweep execution and its duration.
func RecordSweep(durationSeconds float64) {
	SweepRunsTotal.Inc()
	SweepDuration.Observe(durationSeconds)
}

// RecordWalkForwardFolds adds evaluated fold count.
func RecordWalkForwardFolds(n int) {
	WalkForwardFoldsTotal.Add(float64(n))
}

// UpdateLastRun publishes the headline metrics of the latest run.
func UpdateLastRun(trades int, totalPnL, maxDrawdown float64) {
	LastRunTrades.Set(float64(trades))
	LastRunTotalPnL.Set(totalPnL)
	LastRunMaxDrawdown.Set(maxDrawdown)
}
