package strategy

import (
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/informer/internal/indicators"
	"github.com/yourusername/informer/internal/models"
	"github.com/yourusername/informer/internal/session"
)

// BaselineStrategy is the mechanical baseline: a 1-hour trend gate, a
// 15-minute volatility gate and a relative-strength score computed from
// the last 15-minute bar at or before the decision timestamp.
//
// Score: (ema20 - ema50)/atr14 + (close - vwap)/atr14. Entry is the open
// of the first bar after the decision; stop and target are ATR multiples
// around the entry.
type BaselineStrategy struct {
	featureCache *cache.Cache
}

// NewBaselineStrategy creates the baseline strategy. Indicator and
// regime computation is memoized: the harness re-evaluates the same
// symbol/day slices once per grid point, and the computation is a pure
// function of the slice.
func NewBaselineStrategy() *BaselineStrategy {
	return &BaselineStrategy{
		featureCache: cache.New(30*time.Minute, time.Hour),
	}
}

// Name returns the strategy name.
func (s *BaselineStrategy) Name() string {
	return "baseline"
}

type features struct {
	ind15 []indicators.Point
	reg15 []indicators.Regime
	ind1h []indicators.Point
	reg1h []indicators.Regime
}

// GenerateCandidate evaluates the baseline rules for one symbol at one
// decision instant.
func (s *BaselineStrategy) GenerateCandidate(sctx Context) (*Candidate, error) {
	bars := sctx.Bars
	if len(bars) < 2 {
		return nil, nil
	}

	// Last bar at or before the decision provides the indicator context;
	// the bar after it is the entry bar.
	lastIdx := -1
	for i, b := range bars {
		if b.TS.After(sctx.DecisionTS) {
			break
		}
		lastIdx = i
	}
	if lastIdx < 0 || lastIdx+1 >= len(bars) {
		return nil, nil
	}

	decisionBars := bars[:lastIdx+1]
	feats := s.computeFeatures(sctx.Symbol, sctx.Timeframe, decisionBars)
	if len(feats.ind15) == 0 || len(feats.reg15) == 0 || len(feats.ind1h) == 0 || len(feats.reg1h) == 0 {
		return nil, nil
	}

	vol15 := feats.reg15[len(feats.reg15)-1].Vol
	trend1h := feats.reg1h[len(feats.reg1h)-1].Trend
	if trend1h != indicators.TrendUp {
		return nil, nil
	}
	if vol15 == indicators.VolHigh {
		return nil, nil
	}

	last := feats.ind15[len(feats.ind15)-1]
	close := decisionBars[len(decisionBars)-1].Close
	if last.ATR14 <= 0 || last.VWAP == nil {
		return nil, nil
	}

	score := (last.EMA20-last.EMA50)/last.ATR14 + (close-*last.VWAP)/last.ATR14
	if score < sctx.ScoreThreshold {
		return nil, nil
	}

	entryBar := bars[lastIdx+1]
	return &Candidate{
		Symbol:      sctx.Symbol,
		DecisionTS:  sctx.DecisionTS,
		EntryTS:     entryBar.TS,
		EntryPrice:  entryBar.Open,
		StopPrice:   entryBar.Open - sctx.KStop*last.ATR14,
		TargetPrice: entryBar.Open + sctx.KTarget*last.ATR14,
		Score:       score,
		Context: map[string]any{
			"ema20":           last.EMA20,
			"ema50":           last.EMA50,
			"atr14":           last.ATR14,
			"vwap":            *last.VWAP,
			"vol_regime_15m":  string(vol15),
			"trend_regime_1h": string(trend1h),
		},
	}, nil
}

func (s *BaselineStrategy) computeFeatures(symbol, timeframe string, bars []models.Bar) features {
	key := fmt.Sprintf("%s|%s|%d|%d", symbol, timeframe, len(bars), bars[len(bars)-1].TS.UnixNano())
	if cached, ok := s.featureCache.Get(key); ok {
		if f, ok := cached.(features); ok {
			return f
		}
	}

	ind15 := indicators.Compute(bars, timeframe)
	reg15 := indicators.ComputeRegimes(bars, ind15, timeframe)
	bars1h := session.Aggregate(bars, 60)
	ind1h := indicators.Compute(bars1h, "1h")
	reg1h := indicators.ComputeRegimes(bars1h, ind1h, "1h")

	f := features{ind15: ind15, reg15: reg15, ind1h: ind1h, reg1h: reg1h}
	s.featureCache.Set(key, f, cache.DefaultExpiration)
	return f
}
