// Package indicators implements causal technical indicators and regime
// labeling for bar data. Values at a given timestamp depend only on that
// bar and its history, never on later bars, and results align one-to-one
// with the ascending input sequence.
package indicators

import (
	"math"
	"strings"
	"time"

	"github.com/yourusername/informer/internal/models"
)

// Point holds indicator values for a single bar. Nullable values (RSI on
// the first bar, VWAP outside intraday timeframes or on zero cumulative
// volume) are represented as nil pointers.
type Point struct {
	TS     time.Time
	EMA20  float64
	EMA50  float64
	EMA200 float64
	RSI14  *float64
	ATR14  float64
	VWAP   *float64
}

// vwapLocation pins intraday VWAP resets to the exchange calendar.
var vwapLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Compute computes ema20/50/200, rsi14 (Wilder), atr14 (Wilder) and
// session VWAP for a sorted ascending bar sequence. VWAP is only defined
// for intraday timeframes (suffix "m" or "h") and resets at each New
// York calendar day.
func Compute(bars []models.Bar, timeframe string) []Point {
	n := len(bars)
	if n == 0 {
		return nil
	}

	points := make([]Point, n)
	ema20 := newEMA(span(20))
	ema50 := newEMA(span(50))
	ema200 := newEMA(span(200))
	avgGain := newEMA(1.0 / 14.0)
	avgLoss := newEMA(1.0 / 14.0)
	atr := newEMA(1.0 / 14.0)

	intraday := isIntraday(timeframe)
	var cumTPV, cumVol float64
	var sessionDay string

	prevClose := math.NaN()
	for i, b := range bars {
		p := Point{TS: b.TS}
		p.EMA20 = ema20.update(b.Close)
		p.EMA50 = ema50.update(b.Close)
		p.EMA200 = ema200.update(b.Close)

		// RSI is undefined on the first bar (no delta yet).
		if i > 0 {
			delta := b.Close - prevClose
			gain, loss := 0.0, 0.0
			if delta > 0 {
				gain = delta
			} else {
				loss = -delta
			}
			ag := avgGain.update(gain)
			al := avgLoss.update(loss)
			rsi := rsiFrom(ag, al)
			p.RSI14 = &rsi
		}

		tr := b.High - b.Low
		if !math.IsNaN(prevClose) {
			tr = math.Max(tr, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
		}
		p.ATR14 = atr.update(tr)

		if intraday {
			day := b.TS.In(vwapLocation).Format("2006-01-02")
			if day != sessionDay {
				sessionDay = day
				cumTPV, cumVol = 0, 0
			}
			typical := (b.High + b.Low + b.Close) / 3.0
			cumTPV += typical * b.Volume
			cumVol += b.Volume
			if cumVol > 0 {
				v := cumTPV / cumVol
				p.VWAP = &v
			}
		}

		prevClose = b.Close
		points[i] = p
	}
	return points
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 0
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func isIntraday(timeframe string) bool {
	tf := strings.ToLower(timeframe)
	return strings.HasSuffix(tf, "m") || strings.HasSuffix(tf, "h")
}

func span(n float64) float64 {
	return 2.0 / (n + 1.0)
}

// ema is a recursive exponential mean seeded by its first observation
// (pandas ewm adjust=false semantics).
type ema struct {
	alpha  float64
	value  float64
	primed bool
}

func newEMA(alpha float64) *ema {
	return &ema{alpha: alpha}
}

func (e *ema) update(x float64) float64 {
	if !e.primed {
		e.value = x
		e.primed = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}
