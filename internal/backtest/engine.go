package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/session"
	"github.com/yourusername/informer/internal/strategy"
)

var (
	// ErrMissingBarData means a configured symbol has no bar series.
	ErrMissingBarData = errors.New("missing bar data for symbol")
	// ErrEntryBarNotFound means a candidate referenced an entry
	// timestamp that does not exist in the symbol's series. This is a
	// data integrity failure, not a policy rejection, so the run aborts.
	ErrEntryBarNotFound = errors.New("entry bar not found in series")
)

// BacktestResult is the completed output of a single run.
type BacktestResult struct {
	RunID       string                 `json:"run_id"`
	Trades      []models.Trade         `json:"trades"`
	EquityCurve []EquityPoint          `json:"equity_curve"`
	Summary     Summary                `json:"summary"`
	Reasons     []models.NoTradeReason `json:"reasons"`
}

// Engine runs deterministic intraday backtests over in-memory bars.
// It iterates trading days, asks the strategy for candidates at the
// decision time, sizes the winning candidate, simulates the exit on
// subsequent same-day bars, applies costs, and accumulates results.
// No I/O happens during a run.
type Engine struct {
	config   BacktestConfig
	costs    CostModel
	strategy strategy.Strategy
	log      *logrus.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithCostModel overrides the default cost model.
func WithCostModel(cm CostModel) Option {
	return func(e *Engine) { e.costs = cm }
}

// WithStrategy overrides the default baseline strategy.
func WithStrategy(s strategy.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithLogger sets the logger used during runs.
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) { e.log = log.WithField("component", "backtest_engine") }
}

// NewEngine builds an engine with the default cost model and baseline
// strategy unless overridden via options.
func NewEngine(cfg BacktestConfig, opts ...Option) *Engine {
	e := &Engine{
		config:   cfg,
		costs:    DefaultCostModel(),
		strategy: strategy.NewBaselineStrategy(),
		log:      logrus.StandardLogger().WithField("component", "backtest_engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the backtest over the provided bars keyed by symbol.
// Bars may be unsorted or contain duplicates; they are normalized and
// filtered to regular trading hours before simulation. The context is
// checked once per trading day so long sweeps cancel promptly.
func (e *Engine) Run(ctx context.Context, bars map[string][]models.Bar) (*BacktestResult, error) {
	for _, sym := range e.config.Symbols {
		if _, ok := bars[sym]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingBarData, sym)
		}
	}

	loc := e.config.Location()
	prepared := make(map[string][]models.Bar, len(bars))
	for sym, series := range bars {
		prepared[sym] = session.FilterRegularHours(models.NormalizeBars(series), loc)
	}

	dayList := session.TradingDays(e.config.StartDate, e.config.EndDate)
	runID := uuid.NewString()
	e.log.WithFields(logrus.Fields{
		"run_id":  runID,
		"symbols": len(e.config.Symbols),
		"days":    len(dayList),
	}).Info("Starting backtest run")

	var (
		trades                []models.Trade
		reasons               []models.NoTradeReason
		cash                  = e.config.InitialCash
		daysPausedBySafety    int
		tradesBlockedBySafety int
	)
	required := session.RequiredWarmupBars(e.config.Timeframe)

	for _, day := range dayList {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := session.FormatDate(day)
		// Daily PnL is zero before the first trade of the day, so these
		// guardrails can only trip with a non-positive limit. The hooks
		// mirror the live trading pipeline and stay in place for when
		// multi-trade days arrive.
		dailyPnL := 0.0
		if e.config.SafetyPrePauseEnabled && dailyPnL <= -e.config.SafetyPrePauseLimitUSD {
			tradesBlockedBySafety++
			daysPausedBySafety++
			reasons = append(reasons, models.NoTradeReason{Date: date, Reason: models.ReasonSafetyPrePause})
			continue
		}
		if e.config.DailyPauseLimitUSD != nil && dailyPnL <= -*e.config.DailyPauseLimitUSD {
			reasons = append(reasons, models.NoTradeReason{Date: date, Reason: models.ReasonDailyPauseLimitHit})
			continue
		}

		decisionTS := e.config.DecisionTimestamp(day)

		var candidates []*strategy.Candidate
		warmupInsufficient := false
		for _, sym := range e.config.Symbols {
			series := prepared[sym]
			if len(session.BarsUpTo(series, decisionTS)) < required {
				warmupInsufficient = true
				continue
			}
			cand, err := e.strategy.GenerateCandidate(strategy.Context{
				Symbol:         sym,
				Bars:           series,
				DecisionTS:     decisionTS,
				Timeframe:      e.config.Timeframe,
				KStop:          e.config.KStop,
				KTarget:        e.config.KTarget,
				ScoreThreshold: e.config.ScoreThreshold,
			})
			if err != nil {
				return nil, fmt.Errorf("strategy %s on %s %s: %w", e.strategy.Name(), sym, date, err)
			}
			if cand != nil {
				candidates = append(candidates, cand)
			}
		}
		if len(candidates) == 0 {
			code := models.ReasonNoValidCandidate
			if warmupInsufficient {
				code = models.ReasonWarmupInsufficient
			}
			reasons = append(reasons, models.NoTradeReason{Date: date, Reason: code})
			continue
		}

		// Highest score wins; ties break alphabetically by symbol.
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].Score != candidates[j].Score {
				return candidates[i].Score > candidates[j].Score
			}
			return candidates[i].Symbol < candidates[j].Symbol
		})
		best := candidates[0]

		riskPerShare := best.EntryPrice - best.StopPrice
		if riskPerShare <= 0 {
			reasons = append(reasons, models.NoTradeReason{Date: date, Reason: models.ReasonNonPositiveRisk})
			continue
		}
		riskCap := e.config.RiskCapPct * cash
		if e.config.RiskCapFixed < riskCap {
			riskCap = e.config.RiskCapFixed
		}
		maxSharesByRisk := riskCap / riskPerShare
		maxSharesByCash := 0.0
		if best.EntryPrice > 0 {
			maxSharesByCash = cash / best.EntryPrice
		}
		affordable := maxSharesByRisk
		if maxSharesByCash < affordable {
			affordable = maxSharesByCash
		}
		if affordable < 0 {
			affordable = 0
		}
		shares := int(affordable)
		if shares < 1 {
			reasons = append(reasons, models.NoTradeReason{Date: date, Reason: models.ReasonInsufficientSize})
			continue
		}

		series := prepared[best.Symbol]
		entryIndex := -1
		for i, b := range series {
			if b.TS.Equal(best.EntryTS) {
				entryIndex = i
				break
			}
		}
		if entryIndex < 0 {
			return nil, fmt.Errorf("%w: %s at %s", ErrEntryBarNotFound, best.Symbol, best.EntryTS)
		}

		exitPrice, exitTS, exitReason := simulateExit(series, entryIndex, best, day, loc)

		entryAdj := e.costs.ApplyEntry(best.EntryPrice)
		exitAdj := e.costs.ApplyExit(exitPrice)
		commission := e.costs.TotalCommission(shares)
		pnl := (exitAdj-entryAdj)*float64(shares) - commission
		cash += pnl

		trades = append(trades, models.Trade{
			Symbol:        best.Symbol,
			Date:          date,
			EntryTS:       best.EntryTS,
			EntryPrice:    best.EntryPrice,
			Shares:        shares,
			StopPrice:     best.StopPrice,
			TargetPrice:   best.TargetPrice,
			ExitTS:        exitTS,
			ExitPrice:     exitPrice,
			ExitReason:    exitReason,
			PnL:           pnl,
			Risk:          riskPerShare * float64(shares),
			RMultiple:     (exitPrice - best.EntryPrice) / riskPerShare,
			Score:         best.Score,
			VolRegime15m:  contextString(best.Context, "vol_regime_15m"),
			TrendRegime1h: contextString(best.Context, "trend_regime_1h"),
		})
	}

	dates := make([]string, len(dayList))
	for i, d := range dayList {
		dates[i] = session.FormatDate(d)
	}
	curve := BuildEquityCurve(trades, e.config.InitialCash, dates)
	summary := ComputeSummary(trades, curve)
	summary.DaysPausedBySafetyPrePause = daysPausedBySafety
	summary.TradesBlockedBySafetyPrePause = tradesBlockedBySafety
	summary.PerSymbol = ComputePerSymbolSummary(trades, e.config.InitialCash, dates)

	e.log.WithFields(logrus.Fields{
		"run_id":    runID,
		"trades":    summary.Trades,
		"total_pnl": summary.TotalPnL,
	}).Info("Backtest run complete")

	return &BacktestResult{
		RunID:       runID,
		Trades:      trades,
		EquityCurve: curve,
		Summary:     summary,
		Reasons:     reasons,
	}, nil
}

// simulateExit scans bars after entry on the same local trading day.
// When a bar spans both the stop and the target, the stop wins: the
// conservative assumption is that the adverse move happened first.
// Without a level hit the position closes at the last bar of the day.
func simulateExit(series []models.Bar, entryIndex int, best *strategy.Candidate, day time.Time, loc *time.Location) (float64, time.Time, models.ExitReason) {
	localDate := session.FormatDate(day)
	for j := entryIndex + 1; j < len(series); j++ {
		bar := series[j]
		if session.FormatDate(bar.TS.In(loc)) != localDate {
			break
		}
		stopHit := bar.Low <= best.StopPrice
		targetHit := bar.High >= best.TargetPrice
		switch {
		case stopHit:
			return best.StopPrice, bar.TS, models.ExitStopHit
		case targetHit:
			return best.TargetPrice, bar.TS, models.ExitTargetHit
		}
	}
	lastIdx := entryIndex
	for j := entryIndex; j < len(series); j++ {
		if session.FormatDate(series[j].TS.In(loc)) != localDate {
			break
		}
		lastIdx = j
	}
	return series[lastIdx].Close, series[lastIdx].TS, models.ExitEndOfDay
}

func contextString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}
