package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBacktestConfigDefaults(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	cfg, err := NewBacktestConfig([]string{"MSFT", "AAPL", "MSFT"}, start, end)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Symbols, "symbols deduped and sorted")
	assert.Equal(t, DefaultInitialCash, cfg.InitialCash)
	assert.Equal(t, DefaultKStop, cfg.KStop)
	assert.Equal(t, DefaultKTarget, cfg.KTarget)
	assert.Equal(t, DefaultTimeframe, cfg.Timeframe)
	assert.Equal(t, "10:15", cfg.DecisionTime)
}

func TestNewBacktestConfigRejectsUnknownSymbol(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	_, err := NewBacktestConfig([]string{"AAPL", "NOTREAL"}, start, end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTREAL")
}

func TestNewBacktestConfigRejectsInvertedRange(t *testing.T) {
	start := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	_, err := NewBacktestConfig([]string{"AAPL"}, start, end)
	require.Error(t, err)
}

func TestDecisionTimestampConvertsToUTC(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	cfg, err := NewBacktestConfig([]string{"AAPL"}, start, end)
	require.NoError(t, err)

	// 10:15 New York in June is 14:15 UTC (EDT).
	ts := cfg.DecisionTimestamp(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 6, 10, 14, 15, 0, 0, time.UTC), ts)
}

func TestWithOverridesTypedAndExtra(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	cfg, err := NewBacktestConfig([]string{"AAPL"}, start, end)
	require.NoError(t, err)

	out, err := cfg.WithOverrides(map[string]any{
		"k_stop":          2.0,
		"score_threshold": 1, // int must coerce
		"lookback_mode":   "fast",
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, out.KStop)
	assert.Equal(t, 1.0, out.ScoreThreshold)
	assert.Equal(t, "fast", out.ExtraParams["lookback_mode"])

	// Original untouched.
	assert.Equal(t, DefaultKStop, cfg.KStop)
	assert.NotContains(t, cfg.ExtraParams, "lookback_mode")
}

func TestWithOverridesRejectsBadType(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	cfg, err := NewBacktestConfig([]string{"AAPL"}, start, end)
	require.NoError(t, err)

	_, err = cfg.WithOverrides(map[string]any{"k_stop": []int{1}})
	require.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	cfg, err := NewBacktestConfig([]string{"AAPL", "MSFT"}, start, end)
	require.NoError(t, err)
	cfg.ExtraParams["a"] = 1

	clone := cfg.Clone()
	clone.Symbols[0] = "NVDA"
	clone.ExtraParams["a"] = 2

	assert.Equal(t, "AAPL", cfg.Symbols[0])
	assert.Equal(t, 1, cfg.ExtraParams["a"])
}
