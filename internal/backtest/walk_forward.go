package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/session"
)

// WalkForwardSpec configures a walk-forward validation.
type WalkForwardSpec struct {
	StartDate time.Time
	EndDate   time.Time
	// TrainDays and TestDays are counted in trading days.
	TrainDays int
	TestDays  int
	// StepDays is the stride between fold starts; 0 means TestDays.
	StepDays  int
	ParamSpec map[string][]any
	Objective string
	// HoldoutStart reserves all trading days on or after this date.
	// When nil, HoldoutDays reserves that many trailing trading days
	// instead. Holdout days never participate in parameter selection.
	HoldoutStart *time.Time
	HoldoutDays  int
}

// FoldRow records one walk-forward fold: the windows, the parameters
// chosen on the training window and the out-of-sample test outcome.
type FoldRow struct {
	FoldID         int            `json:"fold_id"`
	TrainStart     string         `json:"train_start"`
	TrainEnd       string         `json:"train_end"`
	TestStart      string         `json:"test_start"`
	TestEnd        string         `json:"test_end"`
	Params         map[string]any `json:"params"`
	TrainObjective *float64       `json:"train_objective"`
	TestSummary    Summary        `json:"test_metrics"`
}

// WalkForwardReport aggregates all folds plus the concatenated
// out-of-sample results and, when configured, the holdout evaluation.
type WalkForwardReport struct {
	Folds      []FoldRow       `json:"folds"`
	OOSTrades  []models.Trade  `json:"oos_trades"`
	OOSSummary Summary         `json:"oos_summary"`
	OOSRegimes RegimeBreakdown `json:"oos_regime_breakdown"`

	HoldoutTrades  []models.Trade   `json:"holdout_trades,omitempty"`
	HoldoutSummary *Summary         `json:"holdout_summary,omitempty"`
	HoldoutRegimes *RegimeBreakdown `json:"holdout_regime_breakdown,omitempty"`
}

// RunWalkForward slides train/test windows across the trading days of
// the evaluation range. Each fold selects parameters by sweeping the
// training window, then evaluates them once on the unseen test window.
// Folds stop before any window would touch the holdout region; the
// holdout itself is evaluated with parameters selected from all
// pre-holdout data.
func RunWalkForward(ctx context.Context, bars map[string][]models.Bar, baseCfg BacktestConfig, spec WalkForwardSpec, opts ...Option) (*WalkForwardReport, error) {
	if spec.TrainDays < 1 || spec.TestDays < 1 {
		return nil, fmt.Errorf("train and test windows must be at least one trading day")
	}
	dayList := session.TradingDays(spec.StartDate, spec.EndDate)
	total := len(dayList)
	step := spec.StepDays
	if step <= 0 {
		step = spec.TestDays
	}

	holdoutStartIdx := -1
	if spec.HoldoutStart != nil {
		for i, d := range dayList {
			if !d.Before(*spec.HoldoutStart) {
				holdoutStartIdx = i
				break
			}
		}
	} else if spec.HoldoutDays > 0 && total-spec.HoldoutDays > 0 {
		holdoutStartIdx = total - spec.HoldoutDays
	}

	report := &WalkForwardReport{}
	foldID := 0
	for idx := 0; idx < total; idx += step {
		trainStartIdx := idx
		trainEndIdx := trainStartIdx + spec.TrainDays - 1
		testStartIdx := trainEndIdx + 1
		testEndIdx := testStartIdx + spec.TestDays - 1
		if testEndIdx >= total {
			break
		}
		if holdoutStartIdx >= 0 && testEndIdx >= holdoutStartIdx {
			break
		}
		trainStart, trainEnd := dayList[trainStartIdx], dayList[trainEndIdx]
		testStart, testEnd := dayList[testStartIdx], dayList[testEndIdx]

		_, best, err := RunParameterSweep(ctx, bars, baseCfg, spec.ParamSpec, spec.Objective, trainStart, trainEnd, 0, opts...)
		if err != nil {
			return nil, fmt.Errorf("fold %d train sweep: %w", foldID, err)
		}
		testResult, err := RunForParams(ctx, bars, baseCfg, best.Params, &testStart, &testEnd, opts...)
		if err != nil {
			return nil, fmt.Errorf("fold %d test run: %w", foldID, err)
		}
		report.OOSTrades = append(report.OOSTrades, testResult.Trades...)
		report.Folds = append(report.Folds, FoldRow{
			FoldID:         foldID,
			TrainStart:     session.FormatDate(trainStart),
			TrainEnd:       session.FormatDate(trainEnd),
			TestStart:      session.FormatDate(testStart),
			TestEnd:        session.FormatDate(testEnd),
			Params:         best.Params,
			TrainObjective: best.ObjectiveValue,
			TestSummary:    testResult.Summary,
		})
		foldID++
	}

	// The OOS curve spans the whole evaluation range so drawdowns are
	// comparable across parameterizations. Zero trades still produce a
	// well-formed flat summary.
	dates := make([]string, total)
	for i, d := range dayList {
		dates[i] = session.FormatDate(d)
	}
	oosCurve := BuildEquityCurve(report.OOSTrades, baseCfg.InitialCash, dates)
	report.OOSSummary = ComputeSummary(report.OOSTrades, oosCurve)
	report.OOSRegimes = ComputeRegimeBreakdown(report.OOSTrades)

	if holdoutStartIdx >= 0 {
		hStart := dayList[holdoutStartIdx]
		hEnd := dayList[total-1]
		params := map[string]any{}
		if holdoutStartIdx > 0 {
			_, best, err := RunParameterSweep(ctx, bars, baseCfg, spec.ParamSpec, spec.Objective, dayList[0], dayList[holdoutStartIdx-1], 0, opts...)
			if err != nil {
				return nil, fmt.Errorf("holdout sweep: %w", err)
			}
			params = best.Params
		}
		holdoutResult, err := RunForParams(ctx, bars, baseCfg, params, &hStart, &hEnd, opts...)
		if err != nil {
			return nil, fmt.Errorf("holdout run: %w", err)
		}
		report.HoldoutTrades = holdoutResult.Trades

		holdoutDays := session.TradingDays(hStart, hEnd)
		hDates := make([]string, len(holdoutDays))
		for i, d := range holdoutDays {
			hDates[i] = session.FormatDate(d)
		}
		hCurve := BuildEquityCurve(report.HoldoutTrades, baseCfg.InitialCash, hDates)
		hSummary := ComputeSummary(report.HoldoutTrades, hCurve)
		hRegimes := ComputeRegimeBreakdown(report.HoldoutTrades)
		report.HoldoutSummary = &hSummary
		report.HoldoutRegimes = &hRegimes
	}
	return report, nil
}
