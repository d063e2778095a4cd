// Package logger provides run-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// RunLogger provides dedicated logging for backtest run lifecycles.
type RunLogger struct {
	*logrus.Entry
}

// NewRunLogger creates a new run logger.
func NewRunLogger(baseLogger *logrus.Logger) *RunLogger {
	return &RunLogger{
		Entry: baseLogger.WithField("component", "backtest_run"),
	}
}

// LogRunStarted logs the start of a backtest run. The run ID is not
// included because it is minted inside the engine; completion logs
// carry it.
func (rl *RunLogger) LogRunStarted(symbols int, startDate, endDate string) {
	rl.WithFields(logrus.Fields{
		"symbols":    symbols,
		"start_date": startDate,
		"end_date":   endDate,
	}).Info("Backtest run started")
}

// LogRunCompleted logs a finished backtest run with headline metrics.
func (rl *RunLogger) LogRunCompleted(runID string, trades int, totalPnL, maxDrawdown float64, durationMs float64) {
	rl.WithFields(logrus.Fields{
		"run_id":       runID,
		"trades":       trades,
		"total_pnl":    totalPnL,
		"max_drawdown": maxDrawdown,
		"duration_ms":  durationMs,
	}).Info("Backtest run completed")
}

// LogSweepCompleted logs the outcome of a parameter sweep.
func (rl *RunLogger) LogSweepCompleted(objective string, gridSize int, bestParams map[string]any, durationMs float64) {
	rl.WithFields(logrus.Fields{
		"objective":   objective,
		"grid_size":   gridSize,
		"best_params": bestParams,
		"duration_ms": durationMs,
	}).Info("Parameter sweep completed")
}

// LogFoldCompleted logs one walk-forward fold.
func (rl *RunLogger) LogFoldCompleted(foldID int, testStart, testEnd string, testTrades int, testPnL float64) {
	rl.WithFields(logrus.Fields{
		"fold_id":     foldID,
		"test_start":  testStart,
		"test_end":    testEnd,
		"test_trades": testTrades,
		"test_pnl":    testPnL,
	}).Info("Walk-forward fold completed")
}

// LogNoTradeDay logs a rejected trading day at debug level, since long
// warmup periods produce many of these.
func (rl *RunLogger) LogNoTradeDay(date, reason string) {
	rl.WithFields(logrus.Fields{
		"date":   date,
		"reason": reason,
	}).Debug("No trade for day")
}
