package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/informer/internal/models"
)

func TestRunWalkForwardFoldsAndHoldout(t *testing.T) {
	// Evaluation range covers ten trading days (Jun 3-14); bar history
	// reaches back to mid-May so indicator warmup is satisfied on every
	// fold.
	histStart := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	evalStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	evalEnd := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	cfg, err := NewBacktestConfig([]string{"AAPL"}, evalStart, evalEnd)
	require.NoError(t, err)
	bars := map[string][]models.Bar{"AAPL": sessionBars(t, histStart, evalEnd)}

	report, err := RunWalkForward(context.Background(), bars, cfg, WalkForwardSpec{
		StartDate:   evalStart,
		EndDate:     evalEnd,
		TrainDays:   3,
		TestDays:    2,
		ParamSpec:   map[string][]any{"k_target": {0.05, 5.0}},
		Objective:   "total_pnl",
		HoldoutDays: 2,
	}, WithStrategy(offsetStrategy{}))
	require.NoError(t, err)

	// With a stride of test_days the third fold would test on Jun 12-13
	// and touch the holdout, so only two folds run.
	require.Len(t, report.Folds, 2)

	f0 := report.Folds[0]
	assert.Equal(t, 0, f0.FoldID)
	assert.Equal(t, "2024-06-03", f0.TrainStart)
	assert.Equal(t, "2024-06-05", f0.TrainEnd)
	assert.Equal(t, "2024-06-06", f0.TestStart)
	assert.Equal(t, "2024-06-07", f0.TestEnd)
	assert.Equal(t, map[string]any{"k_target": 0.05}, f0.Params)
	require.NotNil(t, f0.TrainObjective)
	assert.Positive(t, *f0.TrainObjective)

	f1 := report.Folds[1]
	assert.Equal(t, 1, f1.FoldID)
	assert.Equal(t, "2024-06-05", f1.TrainStart)
	assert.Equal(t, "2024-06-07", f1.TrainEnd)
	assert.Equal(t, "2024-06-10", f1.TestStart)
	assert.Equal(t, "2024-06-11", f1.TestEnd)

	// Four out-of-sample trading days, one trade each.
	require.Len(t, report.OOSTrades, 4)
	testDates := map[string]bool{
		"2024-06-06": true, "2024-06-07": true,
		"2024-06-10": true, "2024-06-11": true,
	}
	for _, tr := range report.OOSTrades {
		assert.True(t, testDates[tr.Date], "OOS trade outside test windows: %s", tr.Date)
	}
	assert.Equal(t, 4, report.OOSSummary.Trades)

	// Holdout covers the final two trading days and never leaks into
	// fold selection.
	require.NotNil(t, report.HoldoutSummary)
	require.Len(t, report.HoldoutTrades, 2)
	for _, tr := range report.HoldoutTrades {
		assert.Contains(t, []string{"2024-06-13", "2024-06-14"}, tr.Date)
	}
	assert.Equal(t, 2, report.HoldoutSummary.Trades)
	require.NotNil(t, report.HoldoutRegimes)
}

func TestRunWalkForwardHoldoutByStartDate(t *testing.T) {
	histStart := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	evalStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	evalEnd := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	cfg, err := NewBacktestConfig([]string{"AAPL"}, evalStart, evalEnd)
	require.NoError(t, err)
	bars := map[string][]models.Bar{"AAPL": sessionBars(t, histStart, evalEnd)}

	holdout := time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)
	report, err := RunWalkForward(context.Background(), bars, cfg, WalkForwardSpec{
		StartDate:    evalStart,
		EndDate:      evalEnd,
		TrainDays:    3,
		TestDays:     2,
		ParamSpec:    map[string][]any{"k_target": {0.05, 5.0}},
		Objective:    "total_pnl",
		HoldoutStart: &holdout,
	}, WithStrategy(offsetStrategy{}))
	require.NoError(t, err)

	require.NotNil(t, report.HoldoutSummary)
	for _, tr := range report.HoldoutTrades {
		assert.GreaterOrEqual(t, tr.Date, "2024-06-13")
	}
	for _, f := range report.Folds {
		assert.Less(t, f.TestEnd, "2024-06-13", "fold test window must end before holdout")
	}
}

func TestRunWalkForwardZeroTradesStillWellFormed(t *testing.T) {
	// No warmup history before the range and too few days inside it, so
	// every day is rejected and nothing trades anywhere.
	evalStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	evalEnd := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	cfg, err := NewBacktestConfig([]string{"AAPL"}, evalStart, evalEnd)
	require.NoError(t, err)
	bars := map[string][]models.Bar{"AAPL": sessionBars(t, evalStart, evalEnd)}

	report, err := RunWalkForward(context.Background(), bars, cfg, WalkForwardSpec{
		StartDate:   evalStart,
		EndDate:     evalEnd,
		TrainDays:   3,
		TestDays:    2,
		ParamSpec:   map[string][]any{"k_target": {0.05, 5.0}},
		Objective:   "total_pnl",
		HoldoutDays: 2,
	}, WithStrategy(offsetStrategy{}))
	require.NoError(t, err)

	assert.Empty(t, report.OOSTrades)
	assert.Equal(t, 0, report.OOSSummary.Trades)
	assert.True(t, report.OOSSummary.ProfitFactorInfinite)
	require.NotNil(t, report.HoldoutSummary)
	assert.Equal(t, 0, report.HoldoutSummary.Trades)
}

func TestRunWalkForwardRejectsBadWindows(t *testing.T) {
	evalStart := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	evalEnd := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	cfg, err := NewBacktestConfig([]string{"AAPL"}, evalStart, evalEnd)
	require.NoError(t, err)

	_, err = RunWalkForward(context.Background(), nil, cfg, WalkForwardSpec{
		StartDate: evalStart,
		EndDate:   evalEnd,
		TrainDays: 0,
		TestDays:  2,
	})
	require.Error(t, err)
}
