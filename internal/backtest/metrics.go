package backtest

import (
	"math"
	"sort"

	"github.com/yourusername/informer/internal/models"
)

// Summary holds aggregate performance metrics for a run. Dispersion
// metrics use population statistics so identical inputs always yield
// identical outputs.
type Summary struct {
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	WinRate  float64 `json:"win_rate"`
	TotalPnL float64 `json:"total_pnl"`
	AvgPnL   float64 `json:"avg_pnl"`
	AvgR     float64 `json:"avg_r"`
	// ExpectancyR aliases AvgR for backward compatibility with older
	// report consumers.
	ExpectancyR float64 `json:"expectancy_r"`
	// ProfitFactor is nil when undefined: either there are no losing
	// trades or the losing trades net to exactly zero. The companion
	// flag distinguishes "infinite" from merely absent.
	ProfitFactor         *float64 `json:"profit_factor"`
	ProfitFactorInfinite bool     `json:"profit_factor_infinite"`
	AvgWinPnL            float64  `json:"avg_win_pnl"`
	AvgLossPnL           float64  `json:"avg_loss_pnl"`
	MedianR              float64  `json:"median_r"`
	MinR                 float64  `json:"min_r"`
	MaxR                 float64  `json:"max_r"`
	PnLStd               float64  `json:"pnl_std"`
	RStd                 float64  `json:"r_std"`
	MaxDrawdown          float64  `json:"max_drawdown"`
	MaxDrawdownPct       float64  `json:"max_drawdown_pct"`

	DaysPausedBySafetyPrePause    int `json:"days_paused_by_safety_pre_pause"`
	TradesBlockedBySafetyPrePause int `json:"trades_blocked_by_safety_pre_pause"`

	PerSymbol map[string]Summary `json:"per_symbol,omitempty"`
}

// Objective extracts a named metric for sweep ranking. The second
// return is false when the metric name is unknown or the value is
// undefined (an infinite profit factor has no finite value to rank by).
func (s Summary) Objective(name string) (float64, bool) {
	switch name {
	case "trades":
		return float64(s.Trades), true
	case "win_rate":
		return s.WinRate, true
	case "total_pnl":
		return s.TotalPnL, true
	case "avg_pnl":
		return s.AvgPnL, true
	case "avg_r":
		return s.AvgR, true
	case "expectancy_r":
		return s.ExpectancyR, true
	case "profit_factor":
		if s.ProfitFactor == nil {
			return 0, false
		}
		return *s.ProfitFactor, true
	case "median_r":
		return s.MedianR, true
	case "pnl_std":
		return s.PnLStd, true
	case "r_std":
		return s.RStd, true
	case "max_drawdown":
		return s.MaxDrawdown, true
	case "max_drawdown_pct":
		return s.MaxDrawdownPct, true
	default:
		return 0, false
	}
}

// ComputeSummary derives summary metrics from executed trades and the
// already-built equity curve.
func ComputeSummary(trades []models.Trade, curve []EquityPoint) Summary {
	s := Summary{}
	s.Trades = len(trades)

	var wins, losses []models.Trade
	for _, tr := range trades {
		if tr.PnL > 0 {
			wins = append(wins, tr)
		} else {
			losses = append(losses, tr)
		}
	}
	s.Wins = len(wins)
	s.Losses = len(losses)
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}

	var rValues, pnlValues []float64
	for _, tr := range trades {
		s.TotalPnL += tr.PnL
		rValues = append(rValues, tr.RMultiple)
		pnlValues = append(pnlValues, tr.PnL)
	}
	if s.Trades > 0 {
		s.AvgPnL = s.TotalPnL / float64(s.Trades)
		s.AvgR = sum(rValues) / float64(s.Trades)
	}
	s.ExpectancyR = s.AvgR

	totalWinPnL := 0.0
	for _, tr := range wins {
		totalWinPnL += tr.PnL
	}
	totalLossPnL := 0.0
	for _, tr := range losses {
		totalLossPnL += tr.PnL
	}
	if s.Trades == 0 || s.Losses == 0 {
		s.ProfitFactorInfinite = true
	} else if totalLossPnL != 0 {
		pf := totalWinPnL / math.Abs(totalLossPnL)
		s.ProfitFactor = &pf
	} else {
		s.ProfitFactorInfinite = true
	}
	if s.Wins > 0 {
		s.AvgWinPnL = totalWinPnL / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossPnL = totalLossPnL / float64(s.Losses)
	}

	if len(rValues) > 0 {
		s.MedianR = median(rValues)
		s.MinR = minOf(rValues)
		s.MaxR = maxOf(rValues)
	}
	if len(pnlValues) > 1 {
		s.PnLStd = pstdev(pnlValues)
		s.RStd = pstdev(rValues)
	}

	s.MaxDrawdown, s.MaxDrawdownPct = maxDrawdown(curve)
	return s
}

// ComputePerSymbolSummary computes a summary for each symbol's trades
// over the shared trading-day axis. Returned map keys are exactly the
// symbols that traded.
func ComputePerSymbolSummary(trades []models.Trade, startCash float64, dates []string) map[string]Summary {
	bySymbol := make(map[string][]models.Trade)
	for _, tr := range trades {
		bySymbol[tr.Symbol] = append(bySymbol[tr.Symbol], tr)
	}
	out := make(map[string]Summary, len(bySymbol))
	for sym, trs := range bySymbol {
		curve := BuildEquityCurve(trs, startCash, dates)
		out[sym] = ComputeSummary(trs, curve)
	}
	return out
}

// RegimeStats is the per-bucket aggregate used by the regime breakdown.
type RegimeStats struct {
	Trades               int      `json:"trades"`
	WinRate              float64  `json:"win_rate"`
	TotalPnL             float64  `json:"total_pnl"`
	AvgR                 float64  `json:"avg_r"`
	ProfitFactor         *float64 `json:"profit_factor"`
	ProfitFactorInfinite bool     `json:"profit_factor_infinite"`
}

// RegimeBreakdown segments trade performance by the regimes captured at
// entry time.
type RegimeBreakdown struct {
	TrendRegime1h map[string]RegimeStats `json:"trend_regime_1h"`
	VolRegime15m  map[string]RegimeStats `json:"vol_regime_15m"`
	Combined      map[string]RegimeStats `json:"combined"`
}

// ComputeRegimeBreakdown buckets trades by trend regime, volatility
// regime and the combined pair, computing aggregate stats per bucket.
func ComputeRegimeBreakdown(trades []models.Trade) RegimeBreakdown {
	trendMap := make(map[string][]models.Trade)
	volMap := make(map[string][]models.Trade)
	comboMap := make(map[string][]models.Trade)
	for _, tr := range trades {
		trendMap[tr.TrendRegime1h] = append(trendMap[tr.TrendRegime1h], tr)
		volMap[tr.VolRegime15m] = append(volMap[tr.VolRegime15m], tr)
		combo := tr.TrendRegime1h + "|" + tr.VolRegime15m
		comboMap[combo] = append(comboMap[combo], tr)
	}
	out := RegimeBreakdown{
		TrendRegime1h: make(map[string]RegimeStats, len(trendMap)),
		VolRegime15m:  make(map[string]RegimeStats, len(volMap)),
		Combined:      make(map[string]RegimeStats, len(comboMap)),
	}
	for k, v := range trendMap {
		out.TrendRegime1h[k] = aggregateRegimeStats(v)
	}
	for k, v := range volMap {
		out.VolRegime15m[k] = aggregateRegimeStats(v)
	}
	for k, v := range comboMap {
		out.Combined[k] = aggregateRegimeStats(v)
	}
	return out
}

func aggregateRegimeStats(trades []models.Trade) RegimeStats {
	st := RegimeStats{Trades: len(trades)}
	var winPnL, lossPnL float64
	wins, losses := 0, 0
	for _, tr := range trades {
		st.TotalPnL += tr.PnL
		st.AvgR += tr.RMultiple
		if tr.PnL > 0 {
			wins++
			winPnL += tr.PnL
		} else {
			losses++
			lossPnL += tr.PnL
		}
	}
	if st.Trades > 0 {
		st.WinRate = float64(wins) / float64(st.Trades)
		st.AvgR /= float64(st.Trades)
	}
	if st.Trades == 0 || losses == 0 || lossPnL == 0 {
		st.ProfitFactorInfinite = true
	} else {
		pf := winPnL / math.Abs(lossPnL)
		st.ProfitFactor = &pf
	}
	return st
}

func maxDrawdown(curve []EquityPoint) (abs, pct float64) {
	highWater := math.Inf(-1)
	for _, p := range curve {
		if p.Equity > highWater {
			highWater = p.Equity
		}
		dd := highWater - p.Equity
		if dd > abs {
			abs = dd
		}
		if highWater > 0 {
			if ddPct := dd / highWater; ddPct > pct {
				pct = ddPct
			}
		}
	}
	return abs, pct
}

func sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// pstdev is the population standard deviation.
func pstdev(vals []float64) float64 {
	n := float64(len(vals))
	if n == 0 {
		return 0
	}
	mean := sum(vals) / n
	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / n)
}
