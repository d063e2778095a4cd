package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLoggerParsesLevel(t *testing.T) {
	log := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	log := NewLogger("shouting")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestRunLoggerRunStarted(t *testing.T) {
	log, buf := setupTestLogger()
	rl := NewRunLogger(log)

	rl.LogRunStarted(5, "2024-06-03", "2024-06-28")

	entry := parseLogOutput(t, buf)
	assert.Equal(t, "backtest_run", entry["component"])
	assert.Equal(t, float64(5), entry["symbols"])
	assert.Equal(t, "Backtest run started", entry["msg"])
}

func TestRunLoggerRunCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	rl := NewRunLogger(log)

	rl.LogRunCompleted("run-123", 12, 345.6, 78.9, 1500)

	entry := parseLogOutput(t, buf)
	assert.Equal(t, float64(12), entry["trades"])
	assert.Equal(t, 345.6, entry["total_pnl"])
	assert.Equal(t, 78.9, entry["max_drawdown"])
}

func TestRunLoggerNoTradeDayIsDebug(t *testing.T) {
	log, buf := setupTestLogger()
	rl := NewRunLogger(log)

	rl.LogNoTradeDay("2024-06-03", "WARMUP_INSUFFICIENT_BARS")

	entry := parseLogOutput(t, buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "WARMUP_INSUFFICIENT_BARS", entry["reason"])
}
