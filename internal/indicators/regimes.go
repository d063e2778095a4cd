package indicators

import (
	"math"
	"sort"
	"time"

	"github.com/yourusername/informer/internal/models"
)

// TrendRegime labels the prevailing trend derived from EMA ordering.
type TrendRegime string

const (
	TrendUp      TrendRegime = "uptrend"
	TrendDown    TrendRegime = "downtrend"
	TrendRange   TrendRegime = "range"
	TrendUnknown TrendRegime = "unknown"
)

// VolRegime labels volatility relative to rolling ATR% quantiles.
type VolRegime string

const (
	VolLow     VolRegime = "low"
	VolNormal  VolRegime = "normal"
	VolHigh    VolRegime = "high"
	VolUnknown VolRegime = "unknown"
)

// Regime holds the regime labels for a single bar.
type Regime struct {
	TS    time.Time
	Trend TrendRegime
	Vol   VolRegime
}

const (
	volWindow     = 100
	volMinPeriods = 20
	volQuantLow   = 0.33
	volQuantHigh  = 0.66
)

// ComputeRegimes derives trend and volatility regimes for a bar sequence
// and its aligned indicator points. Trend follows EMA20/50/200 ordering;
// volatility buckets ATR-as-fraction-of-close against rolling 33%/66%
// quantiles (window 100, minimum 20 observations). The timeframe
// argument is unused but kept for API symmetry with Compute.
func ComputeRegimes(bars []models.Bar, points []Point, timeframe string) []Regime {
	_ = timeframe
	n := len(bars)
	if len(points) < n {
		n = len(points)
	}
	regimes := make([]Regime, n)
	atrPct := make([]float64, n)

	for i := 0; i < n; i++ {
		p := points[i]
		trend := TrendRange
		switch {
		case p.EMA20 > p.EMA50 && p.EMA50 > p.EMA200:
			trend = TrendUp
		case p.EMA20 < p.EMA50 && p.EMA50 < p.EMA200:
			trend = TrendDown
		}

		if bars[i].Close > 0 {
			atrPct[i] = p.ATR14 / bars[i].Close
		} else {
			atrPct[i] = math.NaN()
		}
		regimes[i] = Regime{TS: p.TS, Trend: trend, Vol: VolUnknown}
	}

	for i := 0; i < n; i++ {
		lo := i - volWindow + 1
		if lo < 0 {
			lo = 0
		}
		window := make([]float64, 0, i-lo+1)
		for j := lo; j <= i; j++ {
			if !math.IsNaN(atrPct[j]) {
				window = append(window, atrPct[j])
			}
		}
		if math.IsNaN(atrPct[i]) || len(window) < volMinPeriods {
			continue
		}
		q33 := quantile(window, volQuantLow)
		q66 := quantile(window, volQuantHigh)
		switch {
		case atrPct[i] <= q33:
			regimes[i].Vol = VolLow
		case atrPct[i] >= q66:
			regimes[i].Vol = VolHigh
		default:
			regimes[i].Vol = VolNormal
		}
	}
	return regimes
}

// quantile computes the q-th quantile with linear interpolation between
// order statistics.
func quantile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
